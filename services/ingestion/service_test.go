package ingestion

import (
	"archive/zip"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williamcjrogers/VeriCaseJet-sub003/config"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/enum"
	ingesterr "github.com/williamcjrogers/VeriCaseJet-sub003/internal/errors"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/models"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/repository"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/utils"
)

type emlAttachment struct {
	filename    string
	contentType string
	contentID   string
	data        []byte
}

func buildEml(messageID, subject, inReplyTo string, attachments ...emlAttachment) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Message-ID: <%s>\r\n", messageID))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	b.WriteString("From: Alice <alice@example.com>\r\n")
	b.WriteString("To: bob@example.com\r\n")
	b.WriteString("Date: Mon, 02 Jan 2023 10:00:00 +0000\r\n")
	if inReplyTo != "" {
		b.WriteString(fmt.Sprintf("In-Reply-To: <%s>\r\n", inReplyTo))
	}
	b.WriteString("MIME-Version: 1.0\r\n")

	if len(attachments) == 0 {
		b.WriteString("Content-Type: text/plain\r\n\r\nplain body\r\n")
		return b.String()
	}

	b.WriteString("Content-Type: multipart/mixed; boundary=\"PART\"\r\n\r\n")
	b.WriteString("--PART\r\nContent-Type: text/plain\r\n\r\nbody text\r\n")
	for _, att := range attachments {
		b.WriteString("--PART\r\n")
		b.WriteString(fmt.Sprintf("Content-Type: %s; name=\"%s\"\r\n", att.contentType, att.filename))
		b.WriteString(fmt.Sprintf("Content-Disposition: attachment; filename=\"%s\"\r\n", att.filename))
		if att.contentID != "" {
			b.WriteString(fmt.Sprintf("Content-ID: <%s>\r\n", att.contentID))
		}
		b.WriteString("Content-Transfer-Encoding: base64\r\n\r\n")
		b.WriteString(base64.StdEncoding.EncodeToString(att.data))
		b.WriteString("\r\n")
	}
	b.WriteString("--PART--\r\n")
	return b.String()
}

func buildArchive(t *testing.T, entries map[string]string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "evidence.zip")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	for name, body := range entries {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func testIngestionConfig() *config.IngestionConfig {
	return &config.IngestionConfig{
		BatchCommitSize:       500,
		UploadWorkers:         2,
		MaxExtensionLength:    16,
		ImageDiscardFloor:     4096,
		InlineImageFloor:      65536,
		BodyReferencedFloor:   262144,
		InlineMarkerSizeLimit: 512000,
	}
}

type serviceFixture struct {
	service       *IngestionService
	containerRepo *fakeContainerRepo
	messageRepo   *fakeMessageRepo
	attachRepo    *fakeAttachmentRepo
	storage       *fakeStorage
	dispatcher    *fakeDispatcher
}

func newServiceFixture() *serviceFixture {
	f := &serviceFixture{
		containerRepo: newFakeContainerRepo(),
		messageRepo:   newFakeMessageRepo(),
		attachRepo:    newFakeAttachmentRepo(),
		storage:       newFakeStorage(),
		dispatcher:    &fakeDispatcher{},
	}
	repos := &repository.Repositories{
		ContainerRepository:  f.containerRepo,
		MessageRepository:    f.messageRepo,
		AttachmentRepository: f.attachRepo,
	}
	f.service = NewIngestionService(testLogger(), testIngestionConfig(), repos, f.storage, f.dispatcher)
	return f
}

func fixtureArchive(t *testing.T) string {
	report := []byte("report bytes shared by two messages, large enough to matter")
	logo := []byte(strings.Repeat("p", 100))

	return buildArchive(t, map[string]string{
		"Inbox/0001.eml": buildEml("m1@example.com", "Water damage claim", "",
			emlAttachment{filename: "report.pdf", contentType: "application/pdf", data: report},
			emlAttachment{filename: "logo.png", contentType: "image/png", data: logo},
		),
		"Inbox/0002.eml": buildEml("m2@example.com", "Re: Water damage claim", "m1@example.com",
			emlAttachment{filename: "report-copy.pdf", contentType: "application/pdf", data: report},
		),
		"Sent/0001.eml": buildEml("m3@example.com", "Lunch on Friday", ""),
	})
}

func TestIngestContainer_FullRun(t *testing.T) {
	f := newServiceFixture()
	path := fixtureArchive(t)

	record, err := f.service.IngestContainer(context.Background(), "case_1", path)
	require.NoError(t, err)

	assert.Equal(t, enum.ContainerCompleted, record.Status)
	assert.Equal(t, enum.FormatMailArchive, record.Format)
	assert.Equal(t, 3, record.MessageCount)
	assert.Equal(t, 2, record.AttachmentCount)
	assert.Equal(t, 2, record.ThreadCount)
	assert.NotNil(t, record.IngestedAt)

	assert.Len(t, f.messageRepo.messages, 3)
	assert.Len(t, f.attachRepo.attachments, 2)

	// Identical bytes under two names are stored once and dispatched twice.
	assert.Equal(t, 1, f.storage.uploads)
	assert.Equal(t, 2, f.dispatcher.jobCount())

	assert.Equal(t, 1, record.RunSummary["attachmentsDiscarded"])
	assert.Equal(t, 1, record.RunSummary["attachmentsDeduplicated"])
	assert.Equal(t, 2, record.RunSummary["jobsSubmitted"])
}

func TestIngestContainer_ThreadsReplies(t *testing.T) {
	f := newServiceFixture()
	path := fixtureArchive(t)

	_, err := f.service.IngestContainer(context.Background(), "case_1", path)
	require.NoError(t, err)

	byID := map[string]*models.Message{}
	for _, m := range f.messageRepo.messages {
		byID[m.MessageID] = m
	}
	require.Len(t, byID, 3)

	assert.Equal(t, byID["m1@example.com"].ThreadID, byID["m2@example.com"].ThreadID)
	assert.NotEqual(t, byID["m1@example.com"].ThreadID, byID["m3@example.com"].ThreadID)
}

func TestIngestContainer_ReingestIsIdempotent(t *testing.T) {
	f := newServiceFixture()
	path := fixtureArchive(t)

	_, err := f.service.IngestContainer(context.Background(), "case_1", path)
	require.NoError(t, err)
	messageCount := len(f.messageRepo.messages)
	uploadCount := f.storage.uploads

	record, err := f.service.IngestContainer(context.Background(), "case_1", path)
	require.NoError(t, err)

	// Same file, same container record, no new message rows or uploads.
	assert.Len(t, f.containerRepo.containers, 1)
	assert.Len(t, f.messageRepo.messages, messageCount)
	assert.Equal(t, uploadCount, f.storage.uploads)

	// Cross-run dedup classifies every retained attachment as a duplicate.
	assert.Equal(t, 2, record.RunSummary["attachmentsDeduplicated"])
}

func TestIngestContainer_ConcurrentRunRejected(t *testing.T) {
	f := newServiceFixture()
	path := fixtureArchive(t)

	hash, err := utils.HashFile(path)
	require.NoError(t, err)
	_, err = f.containerRepo.Create(context.Background(), &models.Container{
		CaseID:      "case_1",
		SourcePath:  path,
		ContentHash: hash,
		Status:      enum.ContainerProcessing,
	})
	require.NoError(t, err)

	_, err = f.service.IngestContainer(context.Background(), "case_1", path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ingesterr.ErrContainerProcessing))
}

func TestIngestContainer_CorruptArchive(t *testing.T) {
	f := newServiceFixture()
	path := filepath.Join(t.TempDir(), "broken.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o600))

	_, err := f.service.IngestContainer(context.Background(), "case_1", path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ingesterr.ErrContainerCorrupt))
	// Nothing got registered; the file never opened.
	assert.Empty(t, f.containerRepo.containers)
}

func TestIngestContainer_SourceFileNeverChanges(t *testing.T) {
	f := newServiceFixture()
	path := fixtureArchive(t)

	before, err := utils.HashFile(path)
	require.NoError(t, err)

	record, err := f.service.IngestContainer(context.Background(), "case_1", path)
	require.NoError(t, err)

	after, err := utils.HashFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, before, record.ContentHash)
}

func TestIngestContainer_MidRunMutationFailsTheRun(t *testing.T) {
	f := newServiceFixture()
	path := fixtureArchive(t)

	// Tamper with the evidence file while records are being committed.
	f.messageRepo.onCreateBatch = func() {
		fh, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
		require.NoError(t, err)
		_, err = fh.WriteString("tampered")
		require.NoError(t, err)
		require.NoError(t, fh.Close())
	}

	_, err := f.service.IngestContainer(context.Background(), "case_1", path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ingesterr.ErrContainerCorrupt))

	require.Len(t, f.containerRepo.containers, 1)
	assert.Equal(t, enum.ContainerFailed, f.containerRepo.containers[0].Status)
}

func TestIngestContainer_UploadFailureIsRecorded(t *testing.T) {
	f := newServiceFixture()
	f.storage.failNext = true
	path := buildArchive(t, map[string]string{
		"Inbox/0001.eml": buildEml("m1@example.com", "one attachment", "",
			emlAttachment{filename: "scan.pdf", contentType: "application/pdf", data: []byte("scanned page bytes")},
		),
	})

	record, err := f.service.IngestContainer(context.Background(), "case_1", path)
	require.NoError(t, err)

	assert.Equal(t, 1, record.RunSummary["uploadsFailed"])
	assert.Equal(t, 0, record.RunSummary["jobsSubmitted"])
	require.Len(t, f.attachRepo.attachments, 1)
	assert.Equal(t, enum.ExtractionNotSubmitted, f.attachRepo.attachments[0].ExtractionStatus)
}

func TestGetContainer(t *testing.T) {
	f := newServiceFixture()
	id, err := f.containerRepo.Create(context.Background(), &models.Container{CaseID: "case_1", SourcePath: "x"})
	require.NoError(t, err)

	record, err := f.service.GetContainer(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, record.ID)

	_, err = f.service.GetContainer(context.Background(), "cntr_missing")
	assert.True(t, errors.Is(err, ingesterr.ErrContainerNotFound))
}

func TestGetMessageThread(t *testing.T) {
	f := newServiceFixture()
	ctx := context.Background()

	seed := []*models.Message{
		{ID: "msg_1", ContainerID: "c1", Locator: "Inbox/1", MessageID: "a@x", ThreadID: "thread_aa"},
		{ID: "msg_2", ContainerID: "c1", Locator: "Inbox/2", MessageID: "b@x", ThreadID: "thread_aa"},
		{ID: "msg_3", ContainerID: "c1", Locator: "Inbox/3", MessageID: "c@x", ThreadID: "thread_bb"},
	}
	for _, m := range seed {
		_, err := f.messageRepo.Create(ctx, m)
		require.NoError(t, err)
	}

	byRecordID, err := f.service.GetMessageThread(ctx, "msg_1")
	require.NoError(t, err)
	assert.Len(t, byRecordID, 2)

	// Falls back to the Message-ID header value.
	byHeader, err := f.service.GetMessageThread(ctx, "b@x")
	require.NoError(t, err)
	assert.Len(t, byHeader, 2)

	_, err = f.service.GetMessageThread(ctx, "nope")
	assert.True(t, errors.Is(err, ingesterr.ErrMessageNotFound))
}
