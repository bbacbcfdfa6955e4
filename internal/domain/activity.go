package domain

import "time"

// ActivityAction enumerates audit trail entry kinds.
type ActivityAction string

const (
	ActionStatusChanged   ActivityAction = "STATUS_CHANGED"
	ActionPriorityChanged ActivityAction = "PRIORITY_CHANGED"
	ActionAssigned        ActivityAction = "ASSIGNED"
	ActionUnassigned      ActivityAction = "UNASSIGNED"
	ActionDueDateSet      ActivityAction = "DUE_DATE_SET"
	ActionCommented       ActivityAction = "COMMENTED"
	ActionSLABreached     ActivityAction = "SLA_BREACHED"
)

// ActivityLog is an append-only audit record of a ticket state transition.
// Writes are best-effort; a failed write never blocks the mutation that
// triggered it.
type ActivityLog struct {
	ID        string
	TicketID  string
	UserID    string
	Action    ActivityAction
	Detail    string
	CreatedAt time.Time
}
