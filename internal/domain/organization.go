package domain

import "time"

// Default SLA thresholds applied when an organization is created.
const (
	DefaultSLALowHours    = 72
	DefaultSLAMediumHours = 24
	DefaultSLAHighHours   = 4
)

// Bounds for configurable SLA thresholds, in hours.
const (
	MinSLAHours = 1
	MaxSLAHours = 720
)

// Organization is the unit of tenant isolation. SLA thresholds apply to
// all tickets created under the organization; changing them never alters
// deadlines already stamped on existing tickets.
type Organization struct {
	ID             string
	Name           string
	SLALowHours    int
	SLAMediumHours int
	SLAHighHours   int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
