package domain

import "time"

// Response is an entry in a ticket's thread. Internal responses are
// staff notes visible to admin recipients only.
type Response struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	Body      string    `json:"body"`
	Author    UserRef   `json:"author"`
	Internal  bool      `json:"is_internal"`
	CreatedAt time.Time `json:"created_at"`
}
