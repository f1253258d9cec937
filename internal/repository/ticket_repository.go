package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	OwnerID     *string
	AssigneeID  *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Category    *domain.TicketCategory
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence. Reads resolve the
// owner and assignee references to display-ready shapes.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `
        t.id, t.title, t.description, t.category, t.status, t.priority,
        o.id, o.name, o.email, o.role,
        a.id, a.name, a.email, a.role,
        t.created_at, t.updated_at`

const ticketJoins = `
        FROM tickets t
        JOIN users o ON o.id = t.owner_user_id
        LEFT JOIN users a ON a.id = t.assignee_user_id`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, category, status, priority, owner_user_id, assignee_user_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`

	var assigneeID *string
	if ticket.Assignee != nil {
		assigneeID = &ticket.Assignee.ID
	}
	return r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Status,
		ticket.Priority,
		ticket.Owner.ID,
		assigneeID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, category=$3, status=$4, priority=$5,
            assignee_user_id=$6, updated_at=NOW()
        WHERE id=$7`

	var assigneeID *string
	if ticket.Assignee != nil {
		assigneeID = &ticket.Assignee.ID
	}
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Status,
		ticket.Priority,
		assigneeID,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT` + ticketColumns + ticketJoins + ` WHERE t.id=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	conditions := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.OwnerID != nil {
		conditions = append(conditions, "t.owner_user_id="+arg(*filter.OwnerID))
	}
	if filter.AssigneeID != nil {
		conditions = append(conditions, "t.assignee_user_id="+arg(*filter.AssigneeID))
	}
	if len(filter.Statuses) > 0 {
		conditions = append(conditions, "t.status=ANY("+arg(filter.Statuses)+")")
	}
	if len(filter.Priorities) > 0 {
		conditions = append(conditions, "t.priority=ANY("+arg(filter.Priorities)+")")
	}
	if filter.Category != nil {
		conditions = append(conditions, "t.category="+arg(*filter.Category))
	}
	if filter.CreatedFrom != nil {
		conditions = append(conditions, "t.created_at>="+arg(*filter.CreatedFrom))
	}
	if filter.CreatedTo != nil {
		conditions = append(conditions, "t.created_at<="+arg(*filter.CreatedTo))
	}

	query := `SELECT` + ticketColumns + ticketJoins
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.created_at DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query += " LIMIT " + arg(limit)
	if filter.Offset > 0 {
		query += " OFFSET " + arg(filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket        domain.Ticket
		assigneeID    *string
		assigneeName  *string
		assigneeEmail *string
		assigneeRole  *domain.Role
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Owner.ID,
		&ticket.Owner.Name,
		&ticket.Owner.Email,
		&ticket.Owner.Role,
		&assigneeID,
		&assigneeName,
		&assigneeEmail,
		&assigneeRole,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if assigneeID != nil {
		ticket.Assignee = &domain.UserRef{
			ID:    *assigneeID,
			Name:  *assigneeName,
			Email: *assigneeEmail,
			Role:  *assigneeRole,
		}
	}
	return &ticket, nil
}
