package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. Any authorized
// actor may set any status directly; regressions such as CLOSED back to
// OPEN are permitted.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

// Valid reports whether the status is a known value.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// OpenStatuses are the states still subject to SLA breach detection.
var OpenStatuses = []TicketStatus{TicketStatusOpen, TicketStatusInProgress}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// Valid reports whether the priority is a known value.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests.
//
// SLADueAt is stamped once at creation from the owning organization's
// thresholds. SLABreachNotifiedAt transitions nil to a timestamp exactly
// once and never reverts; it is the de-duplication gate for the breach
// sweeper. DueDate is a separate user-set target with no SLA meaning.
type Ticket struct {
	ID                  string
	Title               string
	Description         string
	Priority            TicketPriority
	Status              TicketStatus
	OrganizationID      string
	UserID              string
	AssignedToID        *string
	DueDate             *time.Time
	SLADueAt            time.Time
	SLABreachNotifiedAt *time.Time
	IsDeleted           bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
