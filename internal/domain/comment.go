package domain

import "time"

// Comment is an append-only message on a ticket. Visibility follows the
// parent ticket's access rule.
type Comment struct {
	ID         string
	TicketID   string
	UserID     string
	Message    string
	CreatedAt  time.Time
	AuthorName string
}
