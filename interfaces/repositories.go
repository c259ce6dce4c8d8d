package interfaces

import (
	"context"

	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/enum"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/models"
)

type ContainerRepository interface {
	Create(ctx context.Context, container *models.Container) (string, error)
	GetByID(ctx context.Context, id string) (*models.Container, error)
	GetByCaseAndHash(ctx context.Context, caseID, contentHash string) (*models.Container, error)
	ListByStatus(ctx context.Context, status enum.ContainerStatus) ([]*models.Container, error)
	UpdateStatus(ctx context.Context, id string, status enum.ContainerStatus) error
	SaveRunResults(ctx context.Context, container *models.Container) error
}

type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) (string, error)
	CreateBatch(ctx context.Context, messages []*models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	GetByMessageID(ctx context.Context, messageID string) (*models.Message, error)
	GetByContainerAndLocator(ctx context.Context, containerID, locator string) (*models.Message, error)
	ListByThreadID(ctx context.Context, threadID string) ([]*models.Message, error)
	CountByContainer(ctx context.Context, containerID string) (int64, error)
}

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *models.Attachment) (string, error)
	CreateBatch(ctx context.Context, attachments []*models.Attachment) error
	GetByID(ctx context.Context, id string) (*models.Attachment, error)
	GetByContentHash(ctx context.Context, caseID, contentHash string) (*models.Attachment, error)
	ListByMessage(ctx context.Context, messageID string) ([]*models.Attachment, error)
	// UpdateExtractionStatus moves an attachment to a non-terminal status.
	UpdateExtractionStatus(ctx context.Context, id string, status enum.ExtractionStatus) error
	// MarkExtractionResult applies a terminal status exactly once; a second
	// terminal result for the same attachment is a no-op.
	MarkExtractionResult(ctx context.Context, id string, status enum.ExtractionStatus, extractionError string) error
}
