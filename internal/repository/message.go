package repository

import (
	"context"
	"errors"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/williamcjrogers/VeriCaseJet-sub003/interfaces"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/models"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/tracing"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/utils"
)

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) interfaces.MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.Message) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.Create")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	if message == nil {
		return "", nil
	}
	normalize(message)

	// Idempotent re-ingestion: a (container, locator) pair maps to exactly
	// one message record.
	existing, err := r.GetByContainerAndLocator(ctx, message.ContainerID, message.Locator)
	if err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	if existing != nil {
		span.SetTag("duplicate", true)
		return existing.ID, nil
	}

	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		tracing.TraceErr(span, err)
		return "", err
	}
	return message.ID, nil
}

func (r *messageRepository) CreateBatch(ctx context.Context, messages []*models.Message) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.CreateBatch")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)
	span.SetTag("batch_size", len(messages))

	if len(messages) == 0 {
		return nil
	}
	for _, message := range messages {
		normalize(message)
	}

	// ON CONFLICT DO NOTHING on (container_id, locator) keeps re-ingestion
	// of the same container from duplicating records.
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "container_id"}, {Name: "locator"}},
			DoNothing: true,
		}).
		Create(messages).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func normalize(message *models.Message) {
	if message.MessageID != "" {
		message.MessageID = utils.NormalizeMessageID(message.MessageID)
	}
	if message.Subject != "" && message.CleanSubject == "" {
		message.CleanSubject = utils.NormalizeSubject(message.Subject)
	}
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*models.Message, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.GetByID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var message models.Message
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&message).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) GetByMessageID(ctx context.Context, messageID string) (*models.Message, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.GetByMessageID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	messageID = utils.NormalizeMessageID(messageID)

	var message models.Message
	if err := r.db.WithContext(ctx).Where("message_id = ?", messageID).First(&message).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) GetByContainerAndLocator(ctx context.Context, containerID, locator string) (*models.Message, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.GetByContainerAndLocator")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var message models.Message
	if err := r.db.WithContext(ctx).
		Where("container_id = ? AND locator = ?", containerID, locator).
		First(&message).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &message, nil
}

func (r *messageRepository) ListByThreadID(ctx context.Context, threadID string) ([]*models.Message, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.ListByThreadID")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var messages []*models.Message
	err := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("sent_at asc NULLS LAST, id asc").
		Find(&messages).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return messages, nil
}

func (r *messageRepository) CountByContainer(ctx context.Context, containerID string) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "messageRepository.CountByContainer")
	defer span.Finish()
	tracing.TagComponentPostgresRepository(span)

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("container_id = ?", containerID).
		Count(&count).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return 0, err
	}
	return count, nil
}
