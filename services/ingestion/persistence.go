package ingestion

import (
	"context"

	"github.com/williamcjrogers/VeriCaseJet-sub003/interfaces"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/logger"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/models"
)

// batchWriter buffers message and attachment records and commits them in
// batches. A failed batch is retried record by record so one bad record costs
// one record, not the batch.
type batchWriter struct {
	log         logger.Logger
	messageRepo interfaces.MessageRepository
	attachRepo  interfaces.AttachmentRepository
	batchSize   int

	messages    []*models.Message
	attachments []*models.Attachment
	summary     *Summary
}

func newBatchWriter(log logger.Logger, messageRepo interfaces.MessageRepository, attachRepo interfaces.AttachmentRepository, batchSize int, summary *Summary) *batchWriter {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &batchWriter{
		log:         log,
		messageRepo: messageRepo,
		attachRepo:  attachRepo,
		batchSize:   batchSize,
		summary:     summary,
	}
}

func (w *batchWriter) addMessage(ctx context.Context, message *models.Message, attachments []*models.Attachment) error {
	w.messages = append(w.messages, message)
	w.attachments = append(w.attachments, attachments...)
	if len(w.messages) >= w.batchSize {
		return w.flush(ctx)
	}
	return nil
}

func (w *batchWriter) flush(ctx context.Context) error {
	if err := w.flushMessages(ctx); err != nil {
		return err
	}
	return w.flushAttachments(ctx)
}

func (w *batchWriter) flushMessages(ctx context.Context) error {
	if len(w.messages) == 0 {
		return nil
	}
	batch := w.messages
	w.messages = nil

	if err := w.messageRepo.CreateBatch(ctx, batch); err == nil {
		w.summary.MessagesPersisted += len(batch)
		return nil
	}

	// Per-record fallback: persist what can be persisted, account for the
	// rest. The run keeps going either way.
	for _, message := range batch {
		if _, err := w.messageRepo.Create(ctx, message); err != nil {
			w.summary.MessagesFailed++
			w.log.Errorf("failed to persist message %d in folder %s: %v",
				message.FolderOrdinal, message.FolderPath, err)
			continue
		}
		w.summary.MessagesPersisted++
	}
	return nil
}

func (w *batchWriter) flushAttachments(ctx context.Context) error {
	if len(w.attachments) == 0 {
		return nil
	}
	batch := w.attachments
	w.attachments = nil

	if err := w.attachRepo.CreateBatch(ctx, batch); err == nil {
		w.summary.AttachmentsPersisted += len(batch)
		return nil
	}

	for _, attachment := range batch {
		if _, err := w.attachRepo.Create(ctx, attachment); err != nil {
			w.summary.AttachmentsFailed++
			w.log.Errorf("failed to persist attachment for message %s: %v", attachment.MessageID, err)
			continue
		}
		w.summary.AttachmentsPersisted++
	}
	return nil
}
