package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/enum"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/utils"
)

// Container tracks one immutable mailbox-archive file registered for
// ingestion. The source file itself is never written to; this record only
// carries provenance and the ingestion lifecycle.
type Container struct {
	ID         string               `gorm:"column:id;type:varchar(50);primaryKey"`
	CaseID     string               `gorm:"column:case_id;type:varchar(100);uniqueIndex:idx_containers_case_hash;index;not null"`
	Filename   string               `gorm:"column:filename;type:varchar(500)"`
	SourcePath string               `gorm:"column:source_path;type:varchar(1000);not null"`
	Format     enum.ContainerFormat `gorm:"column:format;type:varchar(50)"`

	// SHA-256 of the source file, computed at open time. Immutability is
	// verified by re-hashing after a run.
	ContentHash string `gorm:"column:content_hash;type:varchar(64);uniqueIndex:idx_containers_case_hash;index"`

	Status enum.ContainerStatus `gorm:"column:status;type:varchar(50);index;default:pending"`

	MessageCount    int     `gorm:"column:message_count;default:0"`
	AttachmentCount int     `gorm:"column:attachment_count;default:0"`
	ThreadCount     int     `gorm:"column:thread_count;default:0"`
	RunSummary      JSONMap `gorm:"column:run_summary;type:jsonb"`

	IngestedAt *time.Time `gorm:"column:ingested_at;type:timestamp"`
	CreatedAt  time.Time  `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (Container) TableName() string {
	return "containers"
}

func (c *Container) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = utils.GenerateNanoIDWithPrefix("cntr", 16)
	}
	c.CreatedAt = utils.Now()
	return nil
}
