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

type containerRepository struct {
	db *gorm.DB
}

func NewContainerRepository(db *gorm.DB) interfaces.ContainerRepository {
	return &containerRepository{db: db}
}

func (r *containerRepository) Create(ctx context.Context, container *models.Container) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "containerRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if container == nil {
		return "", nil
	}

	// Re-registering the same archive under the same case returns the
	// existing record instead of duplicating it.
	if container.ContentHash != "" {
		existing, err := r.GetByCaseAndHash(ctx, container.CaseID, container.ContentHash)
		if err != nil {
			tracing.TraceErr(span, err)
			return "", err
		}
		if existing != nil {
			span.SetTag("duplicate", true)
			return existing.ID, nil
		}
	}

	if err := r.db.WithContext(ctx).Create(container).Error; err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	return container.ID, nil
}

func (r *containerRepository) GetByID(ctx context.Context, id string) (*models.Container, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "containerRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var container models.Container
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&container).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &container, nil
}

func (r *containerRepository) GetByCaseAndHash(ctx context.Context, caseID, contentHash string) (*models.Container, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "containerRepository.GetByCaseAndHash")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var container models.Container
	if err := r.db.WithContext(ctx).
		Where("case_id = ? AND content_hash = ?", caseID, contentHash).
		First(&container).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &container, nil
}

func (r *containerRepository) ListByStatus(ctx context.Context, status enum.ContainerStatus) ([]*models.Container, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "containerRepository.ListByStatus")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var containers []*models.Container
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at asc").
		Find(&containers).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return containers, nil
}

func (r *containerRepository) UpdateStatus(ctx context.Context, id string, status enum.ContainerStatus) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "containerRepository.UpdateStatus")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("status", status.String())

	return r.db.WithContext(ctx).
		Model(&models.Container{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": utils.Now(),
		}).Error
}

func (r *containerRepository) SaveRunResults(ctx context.Context, container *models.Container) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "containerRepository.SaveRunResults")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	container.UpdatedAt = utils.Now()
	return r.db.WithContext(ctx).
		Model(&models.Container{}).
		Where("id = ?", container.ID).
		Updates(map[string]interface{}{
			"status":           container.Status,
			"message_count":    container.MessageCount,
			"attachment_count": container.AttachmentCount,
			"thread_count":     container.ThreadCount,
			"run_summary":      container.RunSummary,
			"ingested_at":      container.IngestedAt,
			"updated_at":       container.UpdatedAt,
		}).Error
}
