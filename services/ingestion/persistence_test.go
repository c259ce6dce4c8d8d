package ingestion

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/models"
)

func testMessages(n int) []*models.Message {
	messages := make([]*models.Message, 0, n)
	for i := 0; i < n; i++ {
		messages = append(messages, &models.Message{
			ContainerID:   "cntr_1",
			CaseID:        "case_1",
			Locator:       fmt.Sprintf("Inbox/%06d.eml", i),
			FolderPath:    "Inbox",
			FolderOrdinal: i,
		})
	}
	return messages
}

func TestBatchWriter_FlushesAtBatchSize(t *testing.T) {
	messageRepo := newFakeMessageRepo()
	attachRepo := newFakeAttachmentRepo()
	summary := &Summary{}
	writer := newBatchWriter(testLogger(), messageRepo, attachRepo, 3, summary)

	ctx := context.Background()
	for _, msg := range testMessages(7) {
		require.NoError(t, writer.addMessage(ctx, msg, nil))
	}

	// Two full batches committed, one message still buffered.
	assert.Equal(t, 6, summary.MessagesPersisted)
	assert.Len(t, messageRepo.messages, 6)

	require.NoError(t, writer.flush(ctx))
	assert.Equal(t, 7, summary.MessagesPersisted)
	assert.Len(t, messageRepo.messages, 7)
}

func TestBatchWriter_PartialFailureCostsOneRecord(t *testing.T) {
	messageRepo := newFakeMessageRepo()
	messageRepo.failBatch = true
	messageRepo.failLocators["Inbox/000002.eml"] = true
	attachRepo := newFakeAttachmentRepo()
	summary := &Summary{}
	writer := newBatchWriter(testLogger(), messageRepo, attachRepo, 100, summary)

	ctx := context.Background()
	for _, msg := range testMessages(5) {
		require.NoError(t, writer.addMessage(ctx, msg, nil))
	}
	require.NoError(t, writer.flush(ctx))

	// The batch insert failed; per-record fallback saved everything but the
	// one bad record.
	assert.Equal(t, 4, summary.MessagesPersisted)
	assert.Equal(t, 1, summary.MessagesFailed)
	assert.Len(t, messageRepo.messages, 4)
}

func TestBatchWriter_AttachmentFallback(t *testing.T) {
	messageRepo := newFakeMessageRepo()
	attachRepo := newFakeAttachmentRepo()
	attachRepo.failBatch = true
	attachRepo.failIDs["att_bad"] = true
	summary := &Summary{}
	writer := newBatchWriter(testLogger(), messageRepo, attachRepo, 100, summary)

	ctx := context.Background()
	msg := testMessages(1)[0]
	attachments := []*models.Attachment{
		{ID: "att_ok1", MessageID: "msg_1"},
		{ID: "att_bad", MessageID: "msg_1"},
		{ID: "att_ok2", MessageID: "msg_1"},
	}
	require.NoError(t, writer.addMessage(ctx, msg, attachments))
	require.NoError(t, writer.flush(ctx))

	assert.Equal(t, 2, summary.AttachmentsPersisted)
	assert.Equal(t, 1, summary.AttachmentsFailed)
	assert.Len(t, attachRepo.attachments, 2)
}

func TestBatchWriter_EmptyFlushIsNoop(t *testing.T) {
	writer := newBatchWriter(testLogger(), newFakeMessageRepo(), newFakeAttachmentRepo(), 10, &Summary{})
	require.NoError(t, writer.flush(context.Background()))
}
