// Package sla holds the policy that maps a ticket's priority to its
// resolution deadline.
package sla

import (
	"time"

	"github.com/devdesk/helpdesk/internal/domain"
)

// HoursForPriority returns the organization's SLA threshold for the given
// priority. Unrecognized or empty priorities fall back to the medium
// threshold rather than failing; stricter validation happens at the
// request boundary.
func HoursForPriority(org *domain.Organization, priority domain.TicketPriority) int {
	switch priority {
	case domain.TicketPriorityHigh:
		return org.SLAHighHours
	case domain.TicketPriorityLow:
		return org.SLALowHours
	default:
		return org.SLAMediumHours
	}
}

// ComputeDueAt returns the deadline for a ticket created at the given
// instant under the given threshold.
func ComputeDueAt(createdAt time.Time, hours int) time.Time {
	return createdAt.Add(time.Duration(hours) * time.Hour)
}

// DueAt stamps a deadline using the organization's current thresholds.
// Later threshold changes do not move deadlines already stamped.
func DueAt(org *domain.Organization, priority domain.TicketPriority, createdAt time.Time) time.Time {
	return ComputeDueAt(createdAt, HoursForPriority(org, priority))
}
