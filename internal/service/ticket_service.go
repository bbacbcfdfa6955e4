package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/devdesk/helpdesk/internal/clock"
	"github.com/devdesk/helpdesk/internal/domain"
	"github.com/devdesk/helpdesk/internal/events"
	"github.com/devdesk/helpdesk/internal/repository"
	"github.com/devdesk/helpdesk/internal/sla"
	apperrors "github.com/devdesk/helpdesk/pkg/util"
)

const (
	minTitleLength   = 3
	minBodyLength    = 5
	minCommentLength = 2
)

// TicketService implements the ticket state machine: creation, status,
// priority, assignment, due dates, comments and soft-deletion. Every
// operation authorizes the actor first and fails fast before touching
// persistence; audit and notification side effects ride the dispatcher
// and never block the mutation.
type TicketService struct {
	tickets     repository.TicketRepository
	users       repository.UserRepository
	orgs        repository.OrganizationRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	activity    repository.ActivityLogRepository
	dispatcher  events.Dispatcher
	clock       clock.Clock
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	UserRepo       repository.UserRepository
	OrgRepo        repository.OrganizationRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	ActivityRepo   repository.ActivityLogRepository
	Dispatcher     events.Dispatcher
	Clock          clock.Clock
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	DueDate     *time.Time
	Attachments []AttachmentInput
}

// AttachmentInput defines attachment metadata recorded at creation.
type AttachmentInput struct {
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
}

// TicketListFilter describes listing filters shared by owner and staff
// views.
type TicketListFilter struct {
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	AssigneeID *string
	Limit      int
	Offset     int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	c := deps.Clock
	if c == nil {
		c = clock.SystemClock{}
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		users:       deps.UserRepo,
		orgs:        deps.OrgRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		activity:    deps.ActivityRepo,
		dispatcher:  deps.Dispatcher,
		clock:       c,
	}
}

// CreateTicket creates a ticket owned by the actor. The SLA deadline is
// stamped from the owning organization's thresholds as they stand right
// now; later threshold or priority changes never move it.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if len(title) < minTitleLength {
		return nil, apperrors.NewValidationError("title too short", map[string]any{"min_length": minTitleLength})
	}
	if len(description) < minBodyLength {
		return nil, apperrors.NewValidationError("description too short", map[string]any{"min_length": minBodyLength})
	}
	if actor.OrganizationID == nil {
		return nil, apperrors.NewValidationError("actor has no organization", nil)
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	org, err := s.orgs.GetByID(ctx, *actor.OrganizationID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	now := s.clock.Now()
	ticket := &domain.Ticket{
		Title:          title,
		Description:    description,
		Priority:       priority,
		Status:         domain.TicketStatusOpen,
		OrganizationID: org.ID,
		UserID:         actor.ID,
		DueDate:        input.DueDate,
		SLADueAt:       sla.DueAt(org, priority, now),
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	for _, att := range input.Attachments {
		record := &domain.Attachment{
			TicketID:   ticket.ID,
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
			MimeType:   att.MimeType,
			SizeBytes:  att.SizeBytes,
		}
		if err := s.attachments.Create(ctx, record); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
	})
	return ticket, nil
}

// ListMyTickets returns the actor's own tickets.
func (s *TicketService) ListMyTickets(ctx context.Context, actor domain.Actor, filter TicketListFilter) ([]domain.Ticket, error) {
	ownerID := actor.ID
	repoFilter := repository.TicketFilter{
		OwnerID:    &ownerID,
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	return s.tickets.ListWithFilter(ctx, repoFilter)
}

// ListAllTickets returns tickets visible to agents and admins,
// tenant-scoped unless the actor is a super-admin. A super-admin may
// narrow to one organization explicitly.
func (s *TicketService) ListAllTickets(ctx context.Context, actor domain.Actor, organizationID *string, filter TicketListFilter) ([]domain.Ticket, error) {
	if !canManageTickets(actor) {
		return nil, apperrors.NewForbidden("insufficient role")
	}
	repoFilter := repository.TicketFilter{
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		AssigneeID: filter.AssigneeID,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	applyTenantScope(&repoFilter, actor)
	if actor.IsSuperAdmin() && organizationID != nil {
		repoFilter.OrganizationID = organizationID
	}
	return s.tickets.ListWithFilter(ctx, repoFilter)
}

// GetTicket fetches a ticket with its comments, activity trail visibility
// enforced: owners see their own tickets, agents and admins see their
// tenant's, super-admins see everything.
func (s *TicketService) GetTicket(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, []domain.Comment, []domain.Attachment, error) {
	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, nil, nil, err
	}
	if actor.Role == domain.RoleUser && ticket.UserID != actor.ID {
		return nil, nil, nil, apperrors.NewForbidden("access denied")
	}

	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, nil, apperrors.MapError(err)
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, nil, apperrors.MapError(err)
	}
	return ticket, comments, attachments, nil
}

// ChangeStatus sets the ticket to any of the four statuses. Transitions
// are deliberately unrestricted; a closed ticket may be reopened by any
// authorized actor.
func (s *TicketService) ChangeStatus(ctx context.Context, actor domain.Actor, ticketID string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if !canManageTickets(actor) {
		return nil, apperrors.NewForbidden("insufficient role")
	}
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}

	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	oldStatus := ticket.Status
	ticket.Status = newStatus
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	owner, _ := s.users.GetByID(ctx, ticket.UserID)
	payload := events.StatusChangedPayload{
		OldStatus: oldStatus,
		NewStatus: newStatus,
		OwnerID:   ticket.UserID,
		Title:     ticket.Title,
	}
	if owner != nil {
		payload.OwnerEmail = owner.Email
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  payload,
	})
	return ticket, nil
}

// ChangePriority updates priority only. The SLA deadline stamped at
// creation is not recomputed; moving it would silently alter a deadline
// already communicated to the requester.
func (s *TicketService) ChangePriority(ctx context.Context, actor domain.Actor, ticketID string, newPriority domain.TicketPriority) (*domain.Ticket, error) {
	if !canManageTickets(actor) {
		return nil, apperrors.NewForbidden("insufficient role")
	}
	if !newPriority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": newPriority})
	}

	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	oldPriority := ticket.Priority
	ticket.Priority = newPriority
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketPriorityChanged,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.PriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: newPriority,
		},
	})
	return ticket, nil
}

// Assign sets or clears the ticket's assigned agent. A nil agentID
// unassigns. The target must exist and hold role AGENT.
func (s *TicketService) Assign(ctx context.Context, actor domain.Actor, ticketID string, agentID *string) (*domain.Ticket, error) {
	if !canAssign(actor) {
		return nil, apperrors.NewForbidden("insufficient role")
	}

	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	if agentID == nil {
		ticket.AssignedToID = nil
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, apperrors.MapError(err)
		}
		s.publish(ctx, events.Event{
			Type:     events.EventTicketUnassigned,
			TicketID: ticket.ID,
			ActorID:  actor.ID,
		})
		return ticket, nil
	}

	agent, err := s.users.GetByID(ctx, *agentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("agent", map[string]any{"agent_id": *agentID})
		}
		return nil, apperrors.MapError(err)
	}
	if agent.Role != domain.RoleAgent {
		return nil, apperrors.NewInvalidState("User is not an agent", map[string]any{"agent_id": agent.ID})
	}
	if !actor.IsSuperAdmin() {
		if agent.OrganizationID == nil || *agent.OrganizationID != ticket.OrganizationID {
			return nil, apperrors.NewNotFound("agent", map[string]any{"agent_id": agent.ID})
		}
	}

	ticket.AssignedToID = &agent.ID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	owner, _ := s.users.GetByID(ctx, ticket.UserID)
	payload := events.AssignedPayload{
		AgentID:    agent.ID,
		AgentEmail: agent.Email,
		AgentName:  agent.Name,
		OwnerID:    ticket.UserID,
		Title:      ticket.Title,
	}
	if owner != nil {
		payload.OwnerEmail = owner.Email
		payload.OwnerName = owner.Name
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  payload,
	})
	return ticket, nil
}

// SetDueDate sets or clears the user-facing target date. This date is
// informational and independent of the SLA deadline.
func (s *TicketService) SetDueDate(ctx context.Context, actor domain.Actor, ticketID string, dueDate *time.Time) (*domain.Ticket, error) {
	if !canSetDueDate(actor) {
		return nil, apperrors.NewForbidden("insufficient role")
	}

	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}

	ticket.DueDate = dueDate
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketDueDateSet,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  events.DueDateSetPayload{DueDate: dueDate},
	})
	return ticket, nil
}

// SoftDelete marks the ticket deleted. The row stays in storage for the
// audit trail but behaves as nonexistent to every later operation.
func (s *TicketService) SoftDelete(ctx context.Context, actor domain.Actor, ticketID string) error {
	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return err
	}
	isOwner := ticket.UserID == actor.ID
	if !isOwner && actor.Role != domain.RoleAdmin && actor.Role != domain.RoleSuperAdmin {
		return apperrors.NewForbidden("insufficient role")
	}

	if err := s.tickets.SoftDelete(ctx, ticket.ID); err != nil {
		return apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
	})
	return nil
}

// AddComment appends a comment. USER actors may only comment on their
// own tickets.
func (s *TicketService) AddComment(ctx context.Context, actor domain.Actor, ticketID, message string) (*domain.Comment, error) {
	message = strings.TrimSpace(message)
	if len(message) < minCommentLength {
		return nil, apperrors.NewValidationError("comment too short", map[string]any{"min_length": minCommentLength})
	}

	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleUser && ticket.UserID != actor.ID {
		return nil, apperrors.NewForbidden("users can only comment on their own tickets")
	}

	comment := &domain.Comment{
		TicketID: ticket.ID,
		UserID:   actor.ID,
		Message:  message,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCommented,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.CommentedPayload{
			CommentID: comment.ID,
			Preview:   stringPreview(message, 120),
		},
	})
	return comment, nil
}

// ListActivity returns the ticket's audit trail, oldest first. Visibility
// follows the same rule as reading the ticket itself.
func (s *TicketService) ListActivity(ctx context.Context, actor domain.Actor, ticketID string) ([]domain.ActivityLog, error) {
	ticket, err := s.loadVisible(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleUser && ticket.UserID != actor.ID {
		return nil, apperrors.NewForbidden("users can only view their own tickets")
	}
	entries, err := s.activity.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// loadVisible fetches a live ticket and hides cross-tenant rows behind a
// not-found error. Soft-deleted tickets are filtered at the repository.
func (s *TicketService) loadVisible(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if err := hideForeignTicket(actor, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
