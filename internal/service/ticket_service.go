package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TicketNotifier receives post-commit ticket snapshots. The realtime
// dispatcher implements it; the service never dispatches before the
// persistence commit succeeded, since a client could otherwise act on
// state a concurrent failure later rolls back.
type TicketNotifier interface {
	OnTicketCreated(domain.Ticket)
	OnTicketUpdated(domain.Ticket)
	OnResponseAdded(domain.Ticket)
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	responses  repository.ResponseRepository
	users      repository.UserRepository
	notifier   TicketNotifier
	strictFlow bool
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	ResponseRepo repository.ResponseRepository
	UserRepo     repository.UserRepository
	Notifier     TicketNotifier
	StrictFlow   bool
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    domain.TicketCategory
	Priority    domain.TicketPriority
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	Category   *domain.TicketCategory
	AssigneeID *string
	Limit      int
	Offset     int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		responses:  deps.ResponseRepo,
		users:      deps.UserRepo,
		notifier:   deps.Notifier,
		strictFlow: deps.StrictFlow,
	}
}

// CreateTicket creates a ticket owned by the caller.
func (s *TicketService) CreateTicket(ctx context.Context, owner *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	ticket := &domain.Ticket{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Category:    input.Category,
		Status:      domain.TicketStatusOpen,
		Priority:    input.Priority,
		Owner:       owner.Ref(),
		Responses:   []domain.Response{},
	}
	if ticket.Category == "" {
		ticket.Category = domain.CategoryOther
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}
	if ticket.Title == "" || ticket.Description == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}
	if !ticket.Category.Valid() {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": ticket.Category})
	}
	if !ticket.Priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": ticket.Priority})
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.RecomputeSummary()
	s.notify(func(n TicketNotifier) { n.OnTicketCreated(*ticket) })
	return ticket, nil
}

// GetTicket returns the fully resolved current state of a ticket,
// responses included. It satisfies the realtime snapshot read path.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	responses, err := s.responses.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.Responses = responses
	ticket.RecomputeSummary()
	return ticket, nil
}

// ListTickets returns tickets visible to the caller: requesters see
// their own, support-capable roles see everything.
func (s *TicketService) ListTickets(ctx context.Context, caller *domain.User, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		Category:   filter.Category,
		AssigneeID: filter.AssigneeID,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if !caller.Role.SupportCapable() {
		repoFilter.OwnerID = &caller.ID
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// UpdateStatus transitions a ticket through the status machine.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.User, ticketID string, next domain.TicketStatus) (*domain.Ticket, error) {
	if !actor.Role.SupportCapable() {
		return nil, apperrors.NewForbidden("support role required")
	}
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !domain.ValidTransition(ticket.Status, next, s.strictFlow) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{
			"from": ticket.Status,
			"to":   next,
		})
	}
	ticket.Status = next
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.notify(func(n TicketNotifier) { n.OnTicketUpdated(*ticket) })
	return ticket, nil
}

// UpdatePriority changes ticket priority.
func (s *TicketService) UpdatePriority(ctx context.Context, actor *domain.User, ticketID string, priority domain.TicketPriority) (*domain.Ticket, error) {
	if !actor.Role.SupportCapable() {
		return nil, apperrors.NewForbidden("support role required")
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	ticket.Priority = priority
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.notify(func(n TicketNotifier) { n.OnTicketUpdated(*ticket) })
	return ticket, nil
}

// AssignTicket assigns the ticket to a support-capable user.
func (s *TicketService) AssignTicket(ctx context.Context, actor *domain.User, ticketID, assigneeID string) (*domain.Ticket, error) {
	if !actor.Role.SupportCapable() {
		return nil, apperrors.NewForbidden("support role required")
	}
	assignee, err := s.users.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": assigneeID})
		}
		return nil, apperrors.MapError(err)
	}
	if !assignee.Role.SupportCapable() {
		return nil, apperrors.NewConflict("assignee is not support-capable", map[string]any{"user_id": assigneeID})
	}
	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	ref := assignee.Ref()
	ticket.Assignee = &ref
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.notify(func(n TicketNotifier) { n.OnTicketUpdated(*ticket) })
	return ticket, nil
}

// AddResponse appends a response to a ticket's thread. When a
// support-capable user posts a public response to an OPEN ticket, the
// ticket moves to IN_PROGRESS and the responder becomes the assignee
// if the ticket has none. Both writes commit before the snapshot is
// handed to the notifier.
func (s *TicketService) AddResponse(ctx context.Context, author *domain.User, ticketID, body string, internal bool) (*domain.Ticket, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("body required", nil)
	}

	ticket, err := s.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if !author.Role.SupportCapable() {
		if ticket.Owner.ID != author.ID {
			return nil, apperrors.NewForbidden("access denied")
		}
		if internal {
			return nil, apperrors.NewForbidden("internal notes require staff role")
		}
	}
	if internal && author.Role != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("internal notes require admin role")
	}

	response := &domain.Response{
		TicketID: ticket.ID,
		Body:     body,
		Author:   author.Ref(),
		Internal: internal,
	}
	if err := s.responses.Create(ctx, response); err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.Responses = append(ticket.Responses, *response)
	ticket.RecomputeSummary()

	if author.Role.SupportCapable() && !internal && ticket.Status == domain.TicketStatusOpen {
		ticket.Status = domain.TicketStatusInProgress
		if ticket.Assignee == nil {
			ref := author.Ref()
			ticket.Assignee = &ref
		}
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return nil, apperrors.MapError(err)
		}
	}

	s.notify(func(n TicketNotifier) { n.OnResponseAdded(*ticket) })
	return ticket, nil
}

func (s *TicketService) notify(fn func(TicketNotifier)) {
	if s.notifier == nil {
		return
	}
	fn(s.notifier)
}
