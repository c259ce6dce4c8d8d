package mboxfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williamcjrogers/VeriCaseJet-sub003/interfaces"
	ingesterr "github.com/williamcjrogers/VeriCaseJet-sub003/internal/errors"
)

const sampleMbox = "From alice@example.com Mon Jan  2 10:00:00 2023\r\n" +
	"Message-ID: <first@example.com>\r\n" +
	"Subject: first message\r\n" +
	"From: alice@example.com\r\n" +
	"To: bob@example.com\r\n" +
	"\r\n" +
	"body one\r\n" +
	"\r\n" +
	"From bob@example.com Mon Jan  2 11:00:00 2023\r\n" +
	"Message-ID: <second@example.com>\r\n" +
	"Subject: second message\r\n" +
	"From: bob@example.com\r\n" +
	"To: alice@example.com\r\n" +
	"\r\n" +
	"body two\r\n"

func writeMbox(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.mbox")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestWalk_SingleInboxFolder(t *testing.T) {
	handle, err := Open(writeMbox(t, sampleMbox))
	require.NoError(t, err)
	defer handle.Close()

	assert.Equal(t, Format, handle.Format())
	assert.NotEmpty(t, handle.ContentHash())

	var folders []string
	var locators []string
	err = handle.Walk(context.Background(), func(folder interfaces.FolderRef, messages []interfaces.RawMessage) error {
		folders = append(folders, folder.Path)
		for _, msg := range messages {
			locators = append(locators, msg.Locator())
		}
		require.Len(t, messages, 2)

		id, ok := messages[0].TryGetField(interfaces.FieldMessageID)
		require.True(t, ok)
		assert.Equal(t, "<first@example.com>", id)

		subject, ok := messages[1].TryGetField(interfaces.FieldSubject)
		require.True(t, ok)
		assert.Equal(t, "second message", subject)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Inbox"}, folders)
	assert.Equal(t, []string{"Inbox/000000", "Inbox/000001"}, locators)
}

func TestWalk_SinglePass(t *testing.T) {
	handle, err := Open(writeMbox(t, sampleMbox))
	require.NoError(t, err)
	defer handle.Close()

	noop := func(interfaces.FolderRef, []interfaces.RawMessage) error { return nil }
	require.NoError(t, handle.Walk(context.Background(), noop))
	assert.Error(t, handle.Walk(context.Background(), noop))
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.mbox"))
	assert.Error(t, err)
}

func TestOpen_NotAnMboxStream(t *testing.T) {
	_, err := Open(writeMbox(t, "PK\x03\x04 definitely not mail"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ingesterr.ErrContainerCorrupt))
}

func TestOpen_EmptyFileIsZeroMessages(t *testing.T) {
	handle, err := Open(writeMbox(t, ""))
	require.NoError(t, err)
	defer handle.Close()

	err = handle.Walk(context.Background(), func(folder interfaces.FolderRef, messages []interfaces.RawMessage) error {
		assert.Empty(t, messages)
		return nil
	})
	require.NoError(t, err)
}
