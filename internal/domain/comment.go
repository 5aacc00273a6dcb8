package domain

import "time"

// Comment captures communications in a ticket thread. Internal comments are
// staff-only; system comments record synthetic lifecycle notes.
type Comment struct {
	ID          string
	TicketID    string
	AuthorID    *string
	Body        string
	IsInternal  bool
	IsSystem    bool
	Attachments []AttachmentReference
	CreatedAt   time.Time
}

// AttachmentReference stores metadata for comment attachments; the payload
// itself lives in the blob store behind StorageKey.
type AttachmentReference struct {
	ID         string
	CommentID  string
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
	CreatedAt  time.Time
}
