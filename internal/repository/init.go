package repository

import (
	"gorm.io/gorm"

	"github.com/williamcjrogers/VeriCaseJet-sub003/interfaces"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/models"
)

type Repositories struct {
	ContainerRepository  interfaces.ContainerRepository
	MessageRepository    interfaces.MessageRepository
	AttachmentRepository interfaces.AttachmentRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		ContainerRepository:  NewContainerRepository(db),
		MessageRepository:    NewMessageRepository(db),
		AttachmentRepository: NewAttachmentRepository(db),
	}
}

func MigrateDB(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Container{},
		&models.Message{},
		&models.Attachment{},
	)
}
