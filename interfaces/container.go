package interfaces

import "context"

// Field names understood by RawMessage.TryGetField. Availability varies by
// container format and per-message corruption state; callers must treat every
// field as optional.
const (
	FieldMessageID         = "message_id"
	FieldInReplyTo         = "in_reply_to"
	FieldReferences        = "references"
	FieldConversationIndex = "conversation_index"
	FieldSubject           = "subject"
	FieldFrom              = "from"
	FieldFromName          = "from_name"
	FieldTo                = "to"
	FieldCc                = "cc"
	FieldDate              = "date"
	FieldBodyHTML          = "body_html"
)

// FolderRef identifies one folder inside a container's hierarchy. Parent is
// referenced by path, not pointer.
type FolderRef struct {
	Name string
	Path string
}

// FolderVisitor receives one folder and its ordered raw messages. Returning
// an error aborts the walk.
type FolderVisitor func(folder FolderRef, messages []RawMessage) error

// ContainerHandle is an open, read-only view of one mailbox archive.
// Walk is finite and single-pass; restarting requires re-opening.
type ContainerHandle interface {
	// Format names the backing container format ("mailarchive", "mbox").
	Format() string
	// ContentHash is the SHA-256 of the source file, computed at open.
	ContentHash() string
	// Walk traverses the folder tree: parent before children, sibling
	// folders in lexical order, messages in container order.
	Walk(ctx context.Context, visit FolderVisitor) error
	Close() error
}

// RawMessage is a handle to one unparsed message inside a container.
type RawMessage interface {
	// Locator is the container-relative address of this message.
	Locator() string
	// TryGetField returns the named field's raw string value. The second
	// return is false when the field is absent or unreadable for this
	// message; the caller applies its own default.
	TryGetField(name string) (string, bool)
	Attachments() []RawAttachment
}

// RawAttachment is a handle to one attachment on a raw message.
type RawAttachment interface {
	Filename() string
	ContentType() string
	// ContentID is the embedded-content identifier ("cid") when the
	// attachment is referenced inline from the body, empty otherwise.
	ContentID() string
	Size() int64
	Read() ([]byte, error)
}
