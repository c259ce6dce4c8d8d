package services

import (
	"github.com/williamcjrogers/VeriCaseJet-sub003/config"
	"github.com/williamcjrogers/VeriCaseJet-sub003/interfaces"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/logger"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/repository"
	"github.com/williamcjrogers/VeriCaseJet-sub003/services/dispatch"
	"github.com/williamcjrogers/VeriCaseJet-sub003/services/ingestion"
	"github.com/williamcjrogers/VeriCaseJet-sub003/services/storage"
)

type Services struct {
	StorageService   interfaces.StorageService
	Publisher        *dispatch.RabbitMQPublisher
	Dispatcher       *dispatch.Dispatcher
	ResultListener   *dispatch.ResultListener
	IngestionService *ingestion.IngestionService
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	storageService := storage.NewR2StorageService(
		cfg.StorageConfig.AccountID,
		cfg.StorageConfig.AccessKeyID,
		cfg.StorageConfig.AccessKeySecret,
		cfg.StorageConfig.AttachmentBucket,
	)

	publisherConfig := &dispatch.PublisherConfig{
		MessageTTL:          dispatch.DefaultMessageTTL,
		PublishRetries:      dispatch.DefaultPublishRetries,
		PublishTimeout:      dispatch.DefaultPublishTimeout,
		ReconnectBackoff:    dispatch.DefaultReconnectBackoff,
		MaxReconnectBackoff: dispatch.DefaultMaxReconnectBackoff,
	}

	publisher, err := dispatch.NewRabbitMQPublisher(cfg.AppConfig.RabbitMQURL, log, publisherConfig)
	if err != nil {
		return nil, err
	}

	dispatcher := dispatch.NewDispatcher(log, publisher, repos.AttachmentRepository, cfg.DispatchConfig)
	listener := dispatch.NewResultListener(cfg.AppConfig.RabbitMQURL, log, repos.AttachmentRepository)

	services := Services{
		StorageService:   storageService,
		Publisher:        publisher,
		Dispatcher:       dispatcher,
		ResultListener:   listener,
		IngestionService: ingestion.NewIngestionService(log, cfg.IngestionConfig, repos, storageService, dispatcher),
	}

	return &services, nil
}
