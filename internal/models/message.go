package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/williamcjrogers/VeriCaseJet-sub003/internal/utils"
)

// Message is one extracted email. Body text stays in the source container,
// addressed by Locator; only metadata is indexed here. Records are never
// deleted and, apart from ThreadID, never mutated after the initial commit.
type Message struct {
	ID          string `gorm:"column:id;type:varchar(50);primaryKey"`
	ContainerID string `gorm:"column:container_id;type:varchar(50);uniqueIndex:idx_messages_container_locator;index;not null"`
	CaseID      string `gorm:"column:case_id;type:varchar(100);index;not null"`

	// Locator is the container-relative address of the raw message, so full
	// content can be re-read from the source without duplicating it.
	Locator       string `gorm:"column:locator;type:varchar(1000);uniqueIndex:idx_messages_container_locator;not null"`
	FolderPath    string `gorm:"column:folder_path;type:varchar(1000);index"`
	FolderOrdinal int    `gorm:"column:folder_ordinal;default:0"`

	// Threading headers
	MessageID         string         `gorm:"column:message_id;type:varchar(255);index"`
	InReplyTo         string         `gorm:"column:in_reply_to;type:varchar(255);index"`
	References        pq.StringArray `gorm:"column:message_references;type:text[]"`
	ConversationIndex string         `gorm:"column:conversation_index;type:varchar(255)"`
	ThreadID          string         `gorm:"column:thread_id;type:varchar(255);index"`

	Subject      string         `gorm:"column:subject;type:varchar(1000)"`
	CleanSubject string         `gorm:"column:clean_subject;type:varchar(1000);index"`
	FromAddress  string         `gorm:"column:from_address;type:varchar(255);index"`
	FromName     string         `gorm:"column:from_name;type:varchar(255)"`
	ToAddresses  pq.StringArray `gorm:"column:to_addresses;type:text[]"`
	CcAddresses  pq.StringArray `gorm:"column:cc_addresses;type:text[]"`

	// Always UTC; naive source timestamps are assumed UTC at extraction.
	SentAt *time.Time `gorm:"column:sent_at;type:timestamp;index"`

	AttachmentCount int `gorm:"column:attachment_count;default:0"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamp;default:current_timestamp"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamp;default:current_timestamp"`
}

func (Message) TableName() string {
	return "messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = utils.GenerateNanoIDWithPrefix("msg", 24)
	}
	m.CreatedAt = utils.Now()
	return nil
}
