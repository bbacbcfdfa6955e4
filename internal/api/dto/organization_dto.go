package dto

import "time"

// UpdateSLARequest replaces the per-priority response thresholds, in hours.
type UpdateSLARequest struct {
	LowHours    int `json:"sla_low_hours"`
	MediumHours int `json:"sla_medium_hours"`
	HighHours   int `json:"sla_high_hours"`
}

// OrganizationResponse response.
type OrganizationResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	SLALowHours    int       `json:"sla_low_hours"`
	SLAMediumHours int       `json:"sla_medium_hours"`
	SLAHighHours   int       `json:"sla_high_hours"`
	CreatedAt      time.Time `json:"created_at"`
}

// OrganizationSummaryResponse adds tenant usage counts.
type OrganizationSummaryResponse struct {
	OrganizationResponse
	UserCount   int `json:"user_count"`
	TicketCount int `json:"ticket_count"`
}
