package dto

import "github.com/spec-kit/helpdesk/internal/domain"

// ArticleRequest payload for create and update.
type ArticleRequest struct {
	Title     string                `json:"title"`
	Body      string                `json:"body"`
	Category  domain.TicketCategory `json:"category"`
	Published bool                  `json:"published"`
}
