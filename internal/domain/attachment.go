package domain

import "time"

// Attachment records file metadata for a ticket. Blob storage itself is an
// external collaborator; only the reference is persisted here.
type Attachment struct {
	ID         string
	TicketID   string
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
	CreatedAt  time.Time
}
