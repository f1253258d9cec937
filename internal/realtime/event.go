package realtime

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// EventType enumerates the event kinds pushed to clients.
type EventType string

const (
	EventNewTicket      EventType = "newTicket"
	EventUpdateTicket   EventType = "updateTicket"
	EventTicketResponse EventType = "ticketResponse"
)

// Event is an immutable, self-contained notification of a ticket
// mutation. It carries the full post-commit snapshot rather than a
// diff, so delivery order and duplication within a connection's
// lifetime cannot corrupt client state: applying the highest sequence
// number seen per ticket is always sufficient.
type Event struct {
	ID        string        `json:"id"`
	Type      EventType     `json:"type"`
	TicketID  string        `json:"ticket_id"`
	Sequence  uint64        `json:"sequence"`
	EmittedAt time.Time     `json:"emitted_at"`
	Ticket    domain.Ticket `json:"ticket"`
}
