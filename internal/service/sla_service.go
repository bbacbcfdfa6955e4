package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/devdesk/helpdesk/internal/clock"
	"github.com/devdesk/helpdesk/internal/domain"
	"github.com/devdesk/helpdesk/internal/notify"
	"github.com/devdesk/helpdesk/internal/repository"
)

// SLAService detects SLA breaches and drives exactly-once escalation.
// Detection is exactly-once per ticket via the conditional notified-at
// update; the notification itself is at-least-once, re-sent on a later
// sweep if marking fails.
type SLAService struct {
	tickets  repository.TicketRepository
	users    repository.UserRepository
	activity repository.ActivityLogRepository
	sender   notify.Sender
	clock    clock.Clock
	logger   *zap.Logger
}

// SLADependencies bundles collaborators for the SLA service.
type SLADependencies struct {
	TicketRepo   repository.TicketRepository
	UserRepo     repository.UserRepository
	ActivityRepo repository.ActivityLogRepository
	Sender       notify.Sender
	Clock        clock.Clock
	Logger       *zap.Logger
}

// NewSLAService constructs the service.
func NewSLAService(deps SLADependencies) *SLAService {
	c := deps.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SLAService{
		tickets:  deps.TicketRepo,
		users:    deps.UserRepo,
		activity: deps.ActivityRepo,
		sender:   deps.Sender,
		clock:    c,
		logger:   logger,
	}
}

// RunSweep scans open tickets past their SLA deadline that have not been
// escalation-notified, notifies each owner, marks the ticket notified and
// appends an audit entry. Tickets are processed independently; one
// ticket's failure never aborts the sweep. Returns the number of tickets
// marked. Safe to invoke repeatedly and concurrently with mutation
// traffic: the conditional mark is the de-duplication gate.
func (s *SLAService) RunSweep(ctx context.Context) (int, error) {
	now := s.clock.Now()
	candidates, err := s.tickets.ListBreachCandidates(ctx, now)
	if err != nil {
		return 0, err
	}

	processed := 0
	for i := range candidates {
		ticket := &candidates[i]
		if s.sweepOne(ctx, ticket) {
			processed++
		}
	}
	return processed, nil
}

func (s *SLAService) sweepOne(ctx context.Context, ticket *domain.Ticket) bool {
	owner, err := s.users.GetByID(ctx, ticket.UserID)
	if err != nil {
		s.logger.Warn("sweep: owner lookup failed",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
		return false
	}

	err = s.sender.Send(ctx, notify.Notification{
		Recipient: owner.Email,
		Kind:      notify.KindSLABreach,
		Fields: map[string]string{
			"user_name":    owner.Name,
			"ticket_title": ticket.Title,
			"sla_due_at":   ticket.SLADueAt.Format("2006-01-02 15:04 MST"),
		},
	})
	if err != nil {
		// Leave the ticket unmarked so the next sweep retries; a
		// duplicate mail beats a silent miss.
		s.logger.Warn("sweep: escalation notification failed",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
		return false
	}

	marked, err := s.tickets.MarkBreachNotified(ctx, ticket.ID, s.clock.Now())
	if err != nil {
		s.logger.Warn("sweep: marking failed, ticket stays a candidate",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
		return false
	}
	if !marked {
		// Another sweep claimed it between the scan and the update.
		return false
	}

	entry := &domain.ActivityLog{
		TicketID: ticket.ID,
		UserID:   ticket.UserID,
		Action:   domain.ActionSLABreached,
		Detail:   "SLA breached and escalation notification sent",
	}
	if err := s.activity.Create(ctx, entry); err != nil {
		// Audit write is best-effort; the breach is already handled.
		s.logger.Warn("sweep: audit entry failed",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
	return true
}
