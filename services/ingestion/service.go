package ingestion

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/williamcjrogers/VeriCaseJet-sub003/config"
	"github.com/williamcjrogers/VeriCaseJet-sub003/interfaces"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/enum"
	ingesterr "github.com/williamcjrogers/VeriCaseJet-sub003/internal/errors"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/logger"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/models"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/repository"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/tracing"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/utils"
	"github.com/williamcjrogers/VeriCaseJet-sub003/services/container"
	"github.com/williamcjrogers/VeriCaseJet-sub003/services/threads"
)

// Summary aggregates the outcome counts of one ingestion run. The upload
// goroutines take mu; everything else increments from the walk goroutine.
type Summary struct {
	mu sync.Mutex

	MessagesExtracted int `json:"messagesExtracted"`
	MessagesPersisted int `json:"messagesPersisted"`
	MessagesFailed    int `json:"messagesFailed"`

	AttachmentsRetained     int `json:"attachmentsRetained"`
	AttachmentsDiscarded    int `json:"attachmentsDiscarded"`
	AttachmentsDeduplicated int `json:"attachmentsDeduplicated"`
	AttachmentsPersisted    int `json:"attachmentsPersisted"`
	AttachmentsFailed       int `json:"attachmentsFailed"`
	ImplausibleExtensions   int `json:"implausibleExtensions"`
	UploadsFailed           int `json:"uploadsFailed"`

	JobsSubmitted    int `json:"jobsSubmitted"`
	JobsNotSubmitted int `json:"jobsNotSubmitted"`

	ThreadCount int `json:"threadCount"`
}

func (s *Summary) toMap() models.JSONMap {
	return models.JSONMap{
		"messagesExtracted":       s.MessagesExtracted,
		"messagesPersisted":       s.MessagesPersisted,
		"messagesFailed":          s.MessagesFailed,
		"attachmentsRetained":     s.AttachmentsRetained,
		"attachmentsDiscarded":    s.AttachmentsDiscarded,
		"attachmentsDeduplicated": s.AttachmentsDeduplicated,
		"attachmentsPersisted":    s.AttachmentsPersisted,
		"attachmentsFailed":       s.AttachmentsFailed,
		"implausibleExtensions":   s.ImplausibleExtensions,
		"uploadsFailed":           s.UploadsFailed,
		"jobsSubmitted":           s.JobsSubmitted,
		"jobsNotSubmitted":        s.JobsNotSubmitted,
		"threadCount":             s.ThreadCount,
	}
}

// IngestionService walks evidence containers and turns them into message,
// attachment, and thread records. One service instance serves many runs;
// per-run state (thread index, dedup cache, batch buffers) is created per
// call and discarded.
type IngestionService struct {
	log        logger.Logger
	cfg        *config.IngestionConfig
	repos      *repository.Repositories
	storage    interfaces.StorageService
	dispatcher interfaces.ExtractionDispatcher
}

func NewIngestionService(
	log logger.Logger,
	cfg *config.IngestionConfig,
	repos *repository.Repositories,
	storageService interfaces.StorageService,
	dispatcher interfaces.ExtractionDispatcher,
) *IngestionService {
	return &IngestionService{
		log:        log,
		cfg:        cfg,
		repos:      repos,
		storage:    storageService,
		dispatcher: dispatcher,
	}
}

// IngestContainer runs the full pipeline over one archive file: open and
// hash, register the container, walk every folder, extract and thread every
// message, store retained attachments, and record the run outcome.
// Re-ingesting an identical file is idempotent.
func (s *IngestionService) IngestContainer(ctx context.Context, caseID, sourcePath string) (*models.Container, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IngestionService.IngestContainer")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagCase(span, caseID)

	handle, err := container.Open(sourcePath)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	defer handle.Close()

	record, err := s.registerContainer(ctx, caseID, sourcePath, handle)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	tracing.TagContainer(span, record.ID)

	if err := s.repos.ContainerRepository.UpdateStatus(ctx, record.ID, enum.ContainerProcessing); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	summary := &Summary{}
	runErr := s.runPipeline(ctx, record, handle, summary)

	// The source file is evidence and must not have changed under us.
	if runErr == nil {
		if rehash, hashErr := utils.HashFile(sourcePath); hashErr != nil {
			runErr = hashErr
		} else if rehash != record.ContentHash {
			runErr = errors.Wrap(ingesterr.ErrContainerCorrupt, "source file changed during ingestion")
		}
	}

	if runErr != nil {
		tracing.TraceErr(span, runErr)
		s.log.Errorf("ingestion of container %s failed: %v", record.ID, runErr)
		if err := s.repos.ContainerRepository.UpdateStatus(ctx, record.ID, enum.ContainerFailed); err != nil {
			s.log.Errorf("failed to mark container %s failed: %v", record.ID, err)
		}
		return nil, runErr
	}

	record.Status = enum.ContainerCompleted
	record.MessageCount = summary.MessagesPersisted
	record.AttachmentCount = summary.AttachmentsPersisted
	record.ThreadCount = summary.ThreadCount
	record.RunSummary = summary.toMap()
	record.IngestedAt = utils.NowPtr()
	if err := s.repos.ContainerRepository.SaveRunResults(ctx, record); err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	s.log.Infof("ingested container %s: %d messages, %d attachments, %d threads",
		record.ID, record.MessageCount, record.AttachmentCount, record.ThreadCount)
	return record, nil
}

func (s *IngestionService) registerContainer(ctx context.Context, caseID, sourcePath string, handle interfaces.ContainerHandle) (*models.Container, error) {
	existing, err := s.repos.ContainerRepository.GetByCaseAndHash(ctx, caseID, handle.ContentHash())
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status == enum.ContainerProcessing {
			return nil, ingesterr.ErrContainerProcessing
		}
		// Known archive; the run proceeds and relies on record-level
		// idempotency to avoid duplicates.
		return existing, nil
	}

	record := &models.Container{
		CaseID:      caseID,
		Filename:    filepath.Base(sourcePath),
		SourcePath:  sourcePath,
		Format:      enum.ContainerFormat(handle.Format()),
		ContentHash: handle.ContentHash(),
		Status:      enum.ContainerPending,
	}
	id, err := s.repos.ContainerRepository.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	record.ID = id
	return record, nil
}

func (s *IngestionService) runPipeline(ctx context.Context, record *models.Container, handle interfaces.ContainerHandle, summary *Summary) error {
	idx := threads.NewIndex()
	threadSet := map[string]struct{}{}
	classifier := NewClassifier(s.cfg)
	processor := newAttachmentProcessor(
		s.log, s.storage, s.repos.AttachmentRepository, s.dispatcher,
		classifier, s.cfg.MaxExtensionLength, s.cfg.UploadWorkers,
	)
	writer := newBatchWriter(s.log, s.repos.MessageRepository, s.repos.AttachmentRepository, s.cfg.BatchCommitSize, summary)

	walkErr := handle.Walk(ctx, func(folder interfaces.FolderRef, rawMessages []interfaces.RawMessage) error {
		for ordinal, raw := range rawMessages {
			msg := extractMessage(raw, folder, ordinal, record.ID, record.CaseID, s.log)
			// The id is assigned up front so attachment records and
			// extraction jobs can reference it before the batch commits.
			msg.ID = utils.GenerateNanoIDWithPrefix("msg", 24)
			summary.MessagesExtracted++

			msg.ThreadID = threads.Resolve(idx, threads.Candidate{
				MessageID:         msg.MessageID,
				InReplyTo:         msg.InReplyTo,
				References:        msg.References,
				ConversationIndex: msg.ConversationIndex,
				CleanSubject:      msg.CleanSubject,
				Locator:           record.ID + "/" + msg.Locator,
			})
			threadSet[msg.ThreadID] = struct{}{}

			bodyHTML, _ := raw.TryGetField(interfaces.FieldBodyHTML)
			attachments := processor.process(ctx, msg, raw, classifier.BodyCidSet(bodyHTML), summary)
			msg.AttachmentCount = len(attachments)

			if err := writer.addMessage(ctx, msg, attachments); err != nil {
				return err
			}
		}
		return nil
	})
	if walkErr != nil {
		return walkErr
	}

	if err := writer.flush(ctx); err != nil {
		return err
	}
	summary.ThreadCount = len(threadSet)
	return nil
}

// StartIngestion registers the container synchronously and runs the actual
// ingestion in the background, so API callers get the container id to poll
// without holding a connection open for the whole run.
func (s *IngestionService) StartIngestion(ctx context.Context, caseID, sourcePath string) (*models.Container, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IngestionService.StartIngestion")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagCase(span, caseID)

	handle, err := container.Open(sourcePath)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}

	record, err := s.registerContainer(ctx, caseID, sourcePath, handle)
	handle.Close()
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	tracing.TagContainer(span, record.ID)

	go func() {
		defer tracing.RecoverAndLogToJaeger(s.log)
		if _, err := s.IngestContainer(context.Background(), caseID, sourcePath); err != nil {
			s.log.Errorf("background ingestion of container %s failed: %v", record.ID, err)
		}
	}()

	return record, nil
}

// ProcessPending picks up containers registered but never ingested, oldest
// first. Used by the sweep job after a crash or deploy.
func (s *IngestionService) ProcessPending(ctx context.Context) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IngestionService.ProcessPending")
	defer span.Finish()
	tracing.TagComponentService(span)

	pending, err := s.repos.ContainerRepository.ListByStatus(ctx, enum.ContainerPending)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}

	for _, record := range pending {
		if _, err := s.IngestContainer(ctx, record.CaseID, record.SourcePath); err != nil {
			s.log.Errorf("pending sweep: container %s: %v", record.ID, err)
		}
	}
	return nil
}

// GetContainer returns one container record or ErrContainerNotFound.
func (s *IngestionService) GetContainer(ctx context.Context, id string) (*models.Container, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IngestionService.GetContainer")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagContainer(span, id)

	record, err := s.repos.ContainerRepository.GetByID(ctx, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if record == nil {
		return nil, ingesterr.ErrContainerNotFound
	}
	return record, nil
}

// GetMessageThread resolves a message by record id, falling back to its
// Message-ID header value, and returns its whole thread in sent order.
func (s *IngestionService) GetMessageThread(ctx context.Context, id string) ([]*models.Message, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "IngestionService.GetMessageThread")
	defer span.Finish()
	tracing.TagComponentService(span)
	tracing.TagEntity(span, id)

	message, err := s.repos.MessageRepository.GetByID(ctx, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	if message == nil {
		message, err = s.repos.MessageRepository.GetByMessageID(ctx, id)
		if err != nil {
			tracing.TraceErr(span, err)
			return nil, err
		}
	}
	if message == nil {
		return nil, ingesterr.ErrMessageNotFound
	}

	return s.repos.MessageRepository.ListByThreadID(ctx, message.ThreadID)
}
