package service

import (
	"context"
	"time"

	"github.com/devdesk/helpdesk/internal/clock"
	"github.com/devdesk/helpdesk/internal/domain"
	"github.com/devdesk/helpdesk/internal/repository"
	apperrors "github.com/devdesk/helpdesk/pkg/util"
)

// DashboardStats aggregates the tenant's ticket picture at a point in time.
type DashboardStats struct {
	ByStatus   map[domain.TicketStatus]int
	ByPriority map[domain.TicketPriority]int
	DueToday   int
	Breached   int
	AtRisk     int
}

// AgentWorkload counts the open tickets sitting with one agent.
type AgentWorkload struct {
	AgentID     string
	AgentName   string
	OpenTickets int
}

// DashboardService computes the stats backing the overview screens.
type DashboardService struct {
	tickets      repository.TicketRepository
	users        repository.UserRepository
	clock        clock.Clock
	atRiskWindow time.Duration
}

// DashboardDependencies bundles collaborators for dashboard service.
type DashboardDependencies struct {
	TicketRepo        repository.TicketRepository
	UserRepo          repository.UserRepository
	Clock             clock.Clock
	AtRiskWindowHours int
}

// NewDashboardService constructs the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	window := time.Duration(deps.AtRiskWindowHours) * time.Hour
	if window <= 0 {
		window = 4 * time.Hour
	}
	c := deps.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	return &DashboardService{
		tickets:      deps.TicketRepo,
		users:        deps.UserRepo,
		clock:        c,
		atRiskWindow: window,
	}
}

// Stats returns counts by status and priority plus the deadline buckets:
// due before end of day, already past the deadline, and inside the
// at-risk window. Counts are tenant-scoped for everyone but super-admins.
func (s *DashboardService) Stats(ctx context.Context, actor domain.Actor) (*DashboardStats, error) {
	if !canManageTickets(actor) {
		return nil, apperrors.NewForbidden("insufficient role")
	}

	base := repository.TicketFilter{}
	applyTenantScope(&base, actor)

	stats := &DashboardStats{
		ByStatus:   make(map[domain.TicketStatus]int),
		ByPriority: make(map[domain.TicketPriority]int),
	}

	for _, status := range []domain.TicketStatus{
		domain.TicketStatusOpen, domain.TicketStatusInProgress,
		domain.TicketStatusResolved, domain.TicketStatusClosed,
	} {
		f := base
		f.Statuses = []domain.TicketStatus{status}
		n, err := s.tickets.CountWithFilter(ctx, f)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		stats.ByStatus[status] = n
	}

	for _, priority := range []domain.TicketPriority{
		domain.TicketPriorityLow, domain.TicketPriorityMedium, domain.TicketPriorityHigh,
	} {
		f := base
		f.Priorities = []domain.TicketPriority{priority}
		n, err := s.tickets.CountWithFilter(ctx, f)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		stats.ByPriority[priority] = n
	}

	now := s.clock.Now()
	endOfDay := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())

	dueToday := base
	dueToday.Statuses = domain.OpenStatuses
	dueToday.SLADueFrom = &now
	dueToday.SLADueTo = &endOfDay
	n, err := s.tickets.CountWithFilter(ctx, dueToday)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	stats.DueToday = n

	breached := base
	breached.Statuses = domain.OpenStatuses
	breached.SLADueBefore = &now
	n, err = s.tickets.CountWithFilter(ctx, breached)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	stats.Breached = n

	riskUntil := now.Add(s.atRiskWindow)
	atRisk := base
	atRisk.Statuses = domain.OpenStatuses
	atRisk.SLADueFrom = &now
	atRisk.SLADueTo = &riskUntil
	n, err = s.tickets.CountWithFilter(ctx, atRisk)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	stats.AtRisk = n

	return stats, nil
}

// Workload returns, per agent, how many open tickets they currently hold.
func (s *DashboardService) Workload(ctx context.Context, actor domain.Actor) ([]AgentWorkload, error) {
	if !canManageTickets(actor) {
		return nil, apperrors.NewForbidden("insufficient role")
	}

	var agents []domain.User
	var err error
	if actor.IsSuperAdmin() {
		agents, err = s.users.ListAgents(ctx, nil)
	} else {
		agents, err = s.users.ListAgents(ctx, actor.OrganizationID)
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	workloads := make([]AgentWorkload, 0, len(agents))
	for _, agent := range agents {
		f := repository.TicketFilter{}
		applyTenantScope(&f, actor)
		agentID := agent.ID
		f.AssigneeID = &agentID
		f.Statuses = domain.OpenStatuses
		n, err := s.tickets.CountWithFilter(ctx, f)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		workloads = append(workloads, AgentWorkload{
			AgentID:     agent.ID,
			AgentName:   agent.Name,
			OpenTickets: n,
		})
	}
	return workloads, nil
}
