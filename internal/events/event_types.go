package events

import (
	"time"

	"github.com/devdesk/helpdesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated         EventType = "ticket_created"
	EventTicketStatusChanged   EventType = "ticket_status_changed"
	EventTicketPriorityChanged EventType = "ticket_priority_changed"
	EventTicketAssigned        EventType = "ticket_assigned"
	EventTicketUnassigned      EventType = "ticket_unassigned"
	EventTicketDueDateSet      EventType = "ticket_due_date_set"
	EventTicketCommented       EventType = "ticket_commented"
	EventTicketDeleted         EventType = "ticket_deleted"
	EventSLABreached           EventType = "sla_breached"
)

// Event represents a domain event emitted by services. ActorID is the
// account responsible for the transition.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus  domain.TicketStatus `json:"old_status"`
	NewStatus  domain.TicketStatus `json:"new_status"`
	OwnerID    string              `json:"owner_id"`
	OwnerEmail string              `json:"owner_email"`
	Title      string              `json:"title"`
}

// PriorityChangedPayload payload.
type PriorityChangedPayload struct {
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
}

// AssignedPayload payload. AgentID is empty for unassignment events.
type AssignedPayload struct {
	AgentID    string `json:"agent_id,omitempty"`
	AgentEmail string `json:"agent_email,omitempty"`
	AgentName  string `json:"agent_name,omitempty"`
	OwnerID    string `json:"owner_id"`
	OwnerEmail string `json:"owner_email"`
	OwnerName  string `json:"owner_name"`
	Title      string `json:"title"`
}

// DueDateSetPayload payload. DueDate is nil when the date was cleared.
type DueDateSetPayload struct {
	DueDate *time.Time `json:"due_date,omitempty"`
}

// CommentedPayload payload.
type CommentedPayload struct {
	CommentID string `json:"comment_id"`
	Preview   string `json:"preview"`
}

// SLABreachedPayload payload.
type SLABreachedPayload struct {
	OwnerID    string    `json:"owner_id"`
	OwnerName  string    `json:"owner_name"`
	OwnerEmail string    `json:"owner_email"`
	Title      string    `json:"title"`
	DueAt      time.Time `json:"due_at"`
}
