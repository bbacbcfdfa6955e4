package dto

// DashboardStatsResponse response.
type DashboardStatsResponse struct {
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
	DueToday   int            `json:"due_today"`
	Breached   int            `json:"breached"`
	AtRisk     int            `json:"at_risk"`
}

// AgentWorkloadResponse response.
type AgentWorkloadResponse struct {
	AgentID     string `json:"agent_id"`
	AgentName   string `json:"agent_name"`
	OpenTickets int    `json:"open_tickets"`
}
