package ingestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williamcjrogers/VeriCaseJet-sub003/interfaces"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/logger"
)

type fakeRawMessage struct {
	locator     string
	fields      map[string]string
	attachments []interfaces.RawAttachment
}

func (m *fakeRawMessage) Locator() string { return m.locator }

func (m *fakeRawMessage) TryGetField(name string) (string, bool) {
	value, ok := m.fields[name]
	return value, ok
}

func (m *fakeRawMessage) Attachments() []interfaces.RawAttachment { return m.attachments }

func testLogger() logger.Logger {
	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()
	return appLogger
}

func TestExtractMessage_FullMessage(t *testing.T) {
	raw := &fakeRawMessage{
		locator: "Inbox/000001.eml",
		fields: map[string]string{
			interfaces.FieldMessageID:  "<abc123@example.com>",
			interfaces.FieldInReplyTo:  "<parent@example.com>",
			interfaces.FieldReferences: "<grand@example.com> <parent@example.com>",
			interfaces.FieldSubject:    "Re: Fwd: Delay claim",
			interfaces.FieldFrom:       "Alice@Example.com",
			interfaces.FieldFromName:   "Alice Smith",
			interfaces.FieldTo:         "bob@example.com, carol@example.com",
			interfaces.FieldCc:         "dave@example.com",
			interfaces.FieldDate:       "Mon, 02 Jan 2023 10:04:05 +0200",
		},
	}

	msg := extractMessage(raw, interfaces.FolderRef{Name: "Inbox", Path: "Inbox"}, 0, "cntr_1", "case_1", testLogger())

	assert.Equal(t, "cntr_1", msg.ContainerID)
	assert.Equal(t, "case_1", msg.CaseID)
	assert.Equal(t, "Inbox/000001.eml", msg.Locator)
	assert.Equal(t, "abc123@example.com", msg.MessageID)
	assert.Equal(t, "parent@example.com", msg.InReplyTo)
	assert.Equal(t, []string{"grand@example.com", "parent@example.com"}, []string(msg.References))
	assert.Equal(t, "Re: Fwd: Delay claim", msg.Subject)
	assert.Equal(t, "delay claim", msg.CleanSubject)
	assert.Equal(t, "alice@example.com", msg.FromAddress)
	assert.Equal(t, "Alice Smith", msg.FromName)
	assert.Equal(t, []string{"bob@example.com", "carol@example.com"}, []string(msg.ToAddresses))
	assert.Equal(t, []string{"dave@example.com"}, []string(msg.CcAddresses))

	require.NotNil(t, msg.SentAt)
	assert.Equal(t, time.UTC, msg.SentAt.Location())
	assert.Equal(t, time.Date(2023, 1, 2, 8, 4, 5, 0, time.UTC), *msg.SentAt)
}

func TestExtractMessage_MissingFieldsGetDefaults(t *testing.T) {
	raw := &fakeRawMessage{
		locator: "Inbox/000002.eml",
		fields:  map[string]string{},
	}

	msg := extractMessage(raw, interfaces.FolderRef{Name: "Inbox", Path: "Inbox"}, 5, "cntr_1", "case_1", testLogger())

	assert.Empty(t, msg.MessageID)
	assert.Empty(t, msg.Subject)
	assert.Empty(t, msg.FromAddress)
	assert.Empty(t, []string(msg.References))
	assert.Nil(t, msg.SentAt)
	assert.Equal(t, 5, msg.FolderOrdinal)
	assert.Equal(t, "Inbox", msg.FolderPath)
}

func TestExtractMessage_UnparseableDateStaysNil(t *testing.T) {
	raw := &fakeRawMessage{
		locator: "Inbox/000003.eml",
		fields: map[string]string{
			interfaces.FieldDate: "sometime last week",
		},
	}

	msg := extractMessage(raw, interfaces.FolderRef{Path: "Inbox"}, 0, "cntr_1", "case_1", testLogger())
	assert.Nil(t, msg.SentAt)
}

func TestParseDate_NaiveTimestampAssumedUTC(t *testing.T) {
	parsed, ok := parseDate("2023-06-15 09:30:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 6, 15, 9, 30, 0, 0, time.UTC), parsed)

	parsed, ok = parseDate("2023-06-15T09:30:00")
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 6, 15, 9, 30, 0, 0, time.UTC), parsed)
}

func TestParseDate_ZonedTimestampConvertedToUTC(t *testing.T) {
	parsed, ok := parseDate("Thu, 15 Jun 2023 09:30:00 -0500")
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 6, 15, 14, 30, 0, 0, time.UTC), parsed)
}

func TestSplitAddresses(t *testing.T) {
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, splitAddresses("A@x.com, b@x.com, a@x.com"))
	assert.Empty(t, splitAddresses("  "))
}
