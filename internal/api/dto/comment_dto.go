package dto

import "time"

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body        string              `json:"body"`
	IsInternal  bool                `json:"is_internal"`
	Attachments []AttachmentRequest `json:"attachments"`
}

// AttachmentRequest references an already-uploaded blob.
type AttachmentRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// AttachmentResponse describes stored attachment metadata.
type AttachmentResponse struct {
	ID        string `json:"id"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// CommentResponse represents one thread entry as the viewer may see it.
type CommentResponse struct {
	ID          string               `json:"id"`
	TicketID    string               `json:"ticket_id"`
	AuthorID    *string              `json:"author_id,omitempty"`
	Body        string               `json:"body"`
	IsInternal  bool                 `json:"is_internal"`
	IsSystem    bool                 `json:"is_system"`
	Attachments []AttachmentResponse `json:"attachments,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}
