package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ResponseRepository encapsulates ticket thread persistence.
type ResponseRepository interface {
	Create(ctx context.Context, response *domain.Response) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Response, error)
}

type responseRepository struct {
	pool *pgxpool.Pool
}

// NewResponseRepository instantiates repository.
func NewResponseRepository(pool *pgxpool.Pool) ResponseRepository {
	return &responseRepository{pool: pool}
}

func (r *responseRepository) Create(ctx context.Context, response *domain.Response) error {
	const query = `
        INSERT INTO ticket_responses (ticket_id, author_user_id, body, is_internal)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		response.TicketID,
		response.Author.ID,
		response.Body,
		response.Internal,
	).Scan(&response.ID, &response.CreatedAt)
}

// ListByTicket returns the thread in submission order with authors resolved.
func (r *responseRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Response, error) {
	const query = `
        SELECT s.id, s.ticket_id, s.body, s.is_internal, s.created_at,
               u.id, u.name, u.email, u.role
        FROM ticket_responses s
        JOIN users u ON u.id = s.author_user_id
        WHERE s.ticket_id=$1
        ORDER BY s.created_at, s.id`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	responses := []domain.Response{}
	for rows.Next() {
		var response domain.Response
		if err := rows.Scan(
			&response.ID,
			&response.TicketID,
			&response.Body,
			&response.Internal,
			&response.CreatedAt,
			&response.Author.ID,
			&response.Author.Name,
			&response.Author.Email,
			&response.Author.Role,
		); err != nil {
			return nil, err
		}
		responses = append(responses, response)
	}
	return responses, rows.Err()
}
