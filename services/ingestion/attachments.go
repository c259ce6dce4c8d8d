package ingestion

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/williamcjrogers/VeriCaseJet-sub003/dto"
	"github.com/williamcjrogers/VeriCaseJet-sub003/interfaces"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/enum"
	ingesterr "github.com/williamcjrogers/VeriCaseJet-sub003/internal/errors"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/logger"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/models"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/utils"
	"github.com/williamcjrogers/VeriCaseJet-sub003/services/storage"
)

// attachmentProcessor turns retained raw attachments into records with their
// bytes in content-addressed storage. It lives for one ingestion run and
// carries the run's in-memory dedup state.
type attachmentProcessor struct {
	log        logger.Logger
	storage    interfaces.StorageService
	attachRepo interfaces.AttachmentRepository
	dispatcher interfaces.ExtractionDispatcher
	classifier *Classifier

	maxExtensionLength int
	uploadSem          chan struct{}

	mu sync.Mutex
	// content hash -> storage key of the first upload this run
	seenHashes map[string]string
}

func newAttachmentProcessor(
	log logger.Logger,
	storageService interfaces.StorageService,
	attachRepo interfaces.AttachmentRepository,
	dispatcher interfaces.ExtractionDispatcher,
	classifier *Classifier,
	maxExtensionLength int,
	uploadWorkers int,
) *attachmentProcessor {
	if uploadWorkers <= 0 {
		uploadWorkers = 1
	}
	return &attachmentProcessor{
		log:                log,
		storage:            storageService,
		attachRepo:         attachRepo,
		dispatcher:         dispatcher,
		classifier:         classifier,
		maxExtensionLength: maxExtensionLength,
		uploadSem:          make(chan struct{}, uploadWorkers),
		seenHashes:         map[string]string{},
	}
}

// process classifies, stores, and dispatches the attachments of one message.
// Returned records are not yet persisted; the caller batches them.
func (p *attachmentProcessor) process(ctx context.Context, message *models.Message, raw interfaces.RawMessage, bodyCids map[string]struct{}, summary *Summary) []*models.Attachment {
	var retained []*models.Attachment
	var wg sync.WaitGroup

	for _, rawAttachment := range raw.Attachments() {
		if p.classifier.IsDecorative(rawAttachment.Filename(), rawAttachment.ContentID(), rawAttachment.Size(), bodyCids) {
			summary.AttachmentsDiscarded++
			continue
		}

		record, data, ok := p.buildRecord(ctx, message, rawAttachment, summary)
		if !ok {
			continue
		}
		retained = append(retained, record)
		summary.AttachmentsRetained++

		if record.IsDuplicate {
			// Bytes are already in storage under this key; only the
			// extraction job is still owed.
			summary.AttachmentsDeduplicated++
			p.dispatchJob(ctx, record, summary)
			continue
		}

		wg.Add(1)
		go func(record *models.Attachment, data []byte) {
			defer wg.Done()
			p.uploadSem <- struct{}{}
			defer func() { <-p.uploadSem }()
			p.uploadAndDispatch(ctx, record, data, summary)
		}(record, data)
	}

	wg.Wait()
	return retained
}

func (p *attachmentProcessor) buildRecord(ctx context.Context, message *models.Message, raw interfaces.RawAttachment, summary *Summary) (*models.Attachment, []byte, bool) {
	data, err := raw.Read()
	if err != nil {
		summary.AttachmentsFailed++
		p.log.Errorf("unreadable attachment on message %d in folder %s: %v",
			message.FolderOrdinal, message.FolderPath, errors.Wrap(ingesterr.ErrAttachmentUnreadable, err.Error()))
		return nil, nil, false
	}

	contentHash := utils.HashBytes(data)
	safeName := utils.SanitizeFilename(raw.Filename(), "attachment")

	record := &models.Attachment{
		ID:               utils.GenerateNanoIDWithPrefix("att", 16),
		MessageID:        message.ID,
		ContainerID:      message.ContainerID,
		CaseID:           message.CaseID,
		Filename:         safeName,
		ContentType:      raw.ContentType(),
		ContentID:        raw.ContentID(),
		Size:             int64(len(data)),
		IsInline:         raw.ContentID() != "",
		ContentHash:      contentHash,
		StorageBucket:    p.storage.Bucket(),
		ExtractionStatus: enum.ExtractionPending,
	}

	extension, err := utils.ExtensionFromFilename(safeName, p.maxExtensionLength)
	if err != nil {
		// Integrity condition worth surfacing: the name's remainder is not
		// an extension. The bytes are kept, the extension stays empty.
		p.log.Warnf("implausible extension on attachment of message %d in folder %s",
			message.FolderOrdinal, message.FolderPath)
		summary.ImplausibleExtensions++
	} else {
		record.Extension = extension
	}

	if key, duplicate := p.registerHash(ctx, contentHash, safeName, message.CaseID); duplicate {
		record.IsDuplicate = true
		record.StorageKey = key
		return record, nil, true
	}

	record.StorageKey = storage.ContentAddressedKey(message.CaseID, contentHash, safeName)
	return record, data, true
}

// registerHash claims a content hash for this run. The second return is true
// when the hash was already claimed, in the run or in a previous one.
func (p *attachmentProcessor) registerHash(ctx context.Context, contentHash, safeName, caseID string) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if key, ok := p.seenHashes[contentHash]; ok {
		return key, true
	}

	// Cross-run dedup: a previous ingestion of this case may already hold
	// these bytes.
	existing, err := p.attachRepo.GetByContentHash(ctx, caseID, contentHash)
	if err == nil && existing != nil && existing.StorageKey != "" {
		p.seenHashes[contentHash] = existing.StorageKey
		return existing.StorageKey, true
	}

	key := storage.ContentAddressedKey(caseID, contentHash, safeName)
	p.seenHashes[contentHash] = key
	return key, false
}

func (p *attachmentProcessor) uploadAndDispatch(ctx context.Context, record *models.Attachment, data []byte, summary *Summary) {
	if err := p.storage.Upload(ctx, record.StorageKey, data, record.ContentType); err != nil {
		p.log.Errorf("upload failed for attachment %s: %v", record.ID, err)
		record.ExtractionStatus = enum.ExtractionNotSubmitted
		record.ExtractionError = ingesterr.ErrExtractionNotSubmitted.Error()
		summary.mu.Lock()
		summary.UploadsFailed++
		summary.mu.Unlock()
		return
	}

	p.dispatchJob(ctx, record, summary)
}

func (p *attachmentProcessor) dispatchJob(ctx context.Context, record *models.Attachment, summary *Summary) {
	_, err := p.dispatcher.Submit(ctx, dto.ExtractionJob{
		AttachmentID:  record.ID,
		MessageID:     record.MessageID,
		CaseID:        record.CaseID,
		StorageBucket: record.StorageBucket,
		StorageKey:    record.StorageKey,
		ContentType:   record.ContentType,
		ContentHash:   record.ContentHash,
	})
	summary.mu.Lock()
	defer summary.mu.Unlock()
	if err != nil {
		record.ExtractionStatus = enum.ExtractionNotSubmitted
		record.ExtractionError = err.Error()
		summary.JobsNotSubmitted++
		return
	}
	summary.JobsSubmitted++
}
