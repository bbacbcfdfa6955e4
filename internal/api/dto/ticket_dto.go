package dto

import (
	"time"

	"github.com/devdesk/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
	DueDate     *time.Time            `json:"due_date"`
	Attachments []AttachmentRequest   `json:"attachments"`
}

// AttachmentRequest records upload metadata alongside a ticket.
type AttachmentRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// ChangePriorityRequest payload.
type ChangePriorityRequest struct {
	Priority domain.TicketPriority `json:"priority"`
}

// AssignTicketRequest payload. A null agent_id unassigns.
type AssignTicketRequest struct {
	AgentID *string `json:"agent_id"`
}

// SetDueDateRequest payload. A null due_date clears it.
type SetDueDateRequest struct {
	DueDate *time.Time `json:"due_date"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Message string `json:"message"`
}

// TicketSummary response.
type TicketSummary struct {
	ID             string                `json:"id"`
	Title          string                `json:"title"`
	Status         domain.TicketStatus   `json:"status"`
	Priority       domain.TicketPriority `json:"priority"`
	OrganizationID string                `json:"organization_id"`
	UserID         string                `json:"user_id"`
	AssignedToID   *string               `json:"assigned_to_id"`
	DueDate        *time.Time            `json:"due_date"`
	SLADueAt       time.Time             `json:"sla_due_at"`
	SLABreached    bool                  `json:"sla_breached"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Description string               `json:"description"`
	Comments    []CommentResponse    `json:"comments"`
	Attachments []AttachmentResponse `json:"attachments"`
}

// CommentResponse response.
type CommentResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	UserID     string    `json:"user_id"`
	AuthorName string    `json:"author_name,omitempty"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// AttachmentResponse response.
type AttachmentResponse struct {
	ID         string    `json:"id"`
	StorageKey string    `json:"storage_key"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
}

// ActivityResponse response.
type ActivityResponse struct {
	ID        string                `json:"id"`
	TicketID  string                `json:"ticket_id"`
	UserID    string                `json:"user_id"`
	Action    domain.ActivityAction `json:"action"`
	Detail    string                `json:"detail"`
	CreatedAt time.Time             `json:"created_at"`
}
