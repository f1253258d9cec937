package domain

import "time"

// Article is a knowledge-base entry maintained by support staff.
type Article struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Category  TicketCategory `json:"category"`
	Author    UserRef        `json:"author"`
	Published bool           `json:"published"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
