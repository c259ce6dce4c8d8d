package repository

import (
	"context"
	"errors"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/williamcjrogers/VeriCaseJet-sub003/interfaces"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/enum"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/models"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/tracing"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/utils"
)

type attachmentRepository struct {
	db *gorm.DB
}

func NewAttachmentRepository(db *gorm.DB) interfaces.AttachmentRepository {
	return &attachmentRepository{db: db}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *models.Attachment) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "attachmentRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if attachment == nil {
		return "", nil
	}
	if err := r.db.WithContext(ctx).Create(attachment).Error; err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	return attachment.ID, nil
}

func (r *attachmentRepository) CreateBatch(ctx context.Context, attachments []*models.Attachment) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "attachmentRepository.CreateBatch")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("batch_size", len(attachments))

	if len(attachments) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(attachments).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *attachmentRepository) GetByID(ctx context.Context, id string) (*models.Attachment, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "attachmentRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var attachment models.Attachment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&attachment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &attachment, nil
}

func (r *attachmentRepository) GetByContentHash(ctx context.Context, caseID, contentHash string) (*models.Attachment, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "attachmentRepository.GetByContentHash")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var attachment models.Attachment
	if err := r.db.WithContext(ctx).
		Where("case_id = ? AND content_hash = ?", caseID, contentHash).
		Order("created_at asc").
		First(&attachment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &attachment, nil
}

func (r *attachmentRepository) ListByMessage(ctx context.Context, messageID string) ([]*models.Attachment, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "attachmentRepository.ListByMessage")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var attachments []*models.Attachment
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Find(&attachments).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return attachments, nil
}

func (r *attachmentRepository) UpdateExtractionStatus(ctx context.Context, id string, status enum.ExtractionStatus) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "attachmentRepository.UpdateExtractionStatus")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("status", status.String())

	return r.db.WithContext(ctx).
		Model(&models.Attachment{}).
		Where("id = ? AND extraction_status NOT IN ?", id, []enum.ExtractionStatus{enum.ExtractionCompleted, enum.ExtractionFailed}).
		Updates(map[string]interface{}{
			"extraction_status": status,
			"updated_at":        utils.Now(),
		}).Error
}

// MarkExtractionResult applies a terminal status exactly once. The WHERE
// guard makes a repeated or late result a no-op rather than an overwrite.
func (r *attachmentRepository) MarkExtractionResult(ctx context.Context, id string, status enum.ExtractionStatus, extractionError string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "attachmentRepository.MarkExtractionResult")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("status", status.String())

	result := r.db.WithContext(ctx).
		Model(&models.Attachment{}).
		Where("id = ? AND extraction_status NOT IN ?", id, []enum.ExtractionStatus{enum.ExtractionCompleted, enum.ExtractionFailed}).
		Updates(map[string]interface{}{
			"extraction_status": status,
			"extraction_error":  extractionError,
			"updated_at":        utils.Now(),
		})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		span.SetTag("already_terminal", true)
	}
	return nil
}
