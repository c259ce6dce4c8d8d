package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/enum"
	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/utils"
)

// Attachment is one retained (non-decorative) file extracted from a message.
// Bytes are written once to content-addressed storage; ExtractionStatus is
// the only field mutated afterwards, asynchronously, by the extraction
// result listener.
type Attachment struct {
	ID          string `gorm:"column:id;type:varchar(50);primaryKey"`
	MessageID   string `gorm:"column:message_id;type:varchar(50);index;not null"`
	ContainerID string `gorm:"column:container_id;type:varchar(50);index;not null"`
	CaseID      string `gorm:"column:case_id;type:varchar(100);index;not null"`

	Filename string `gorm:"column:filename;type:varchar(500)"`
	// Deliberately uncapped: the plausibility rule bounds what gets stored,
	// not the column.
	Extension   string `gorm:"column:extension;type:text"`
	ContentType string `gorm:"column:content_type;type:varchar(255)"`
	ContentID   string `gorm:"column:content_id;type:varchar(255)"`
	Size        int64  `gorm:"column:size;default:0"`
	IsInline    bool   `gorm:"column:is_inline;default:false"`

	// SHA-256 of content, used for dedup and thread-independent provenance.
	ContentHash string `gorm:"column:content_hash;type:varchar(64);index"`
	IsDuplicate bool   `gorm:"column:is_duplicate;default:false"`

	StorageBucket string `gorm:"column:storage_bucket;type:varchar(255)"`
	StorageKey    string `gorm:"column:storage_key;type:varchar(1000)"`

	ExtractionStatus enum.ExtractionStatus `gorm:"column:extraction_status;type:varchar(50);index;default:pending"`
	ExtractionError  string                `gorm:"column:extraction_error;type:text"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (Attachment) TableName() string {
	return "attachments"
}

func (a *Attachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = utils.GenerateNanoIDWithPrefix("att", 16)
	}
	a.CreatedAt = utils.Now()
	return nil
}
