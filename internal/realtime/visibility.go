package realtime

import "github.com/spec-kit/helpdesk/internal/domain"

// Redact returns a copy of the event suitable for the recipient. Admin
// recipients see the event unchanged; everyone else loses internal
// responses, with summary fields recomputed from what remains. The
// input event is never mutated: a single event is shared across every
// recipient of a broadcast.
func Redact(event Event, identity Identity) Event {
	if identity.Role == domain.RoleAdmin {
		return event
	}
	out := event
	out.Ticket = RedactTicket(event.Ticket, identity)
	return out
}

// RedactTicket applies the same policy to a bare ticket snapshot. The
// snapshot-fetch read path uses it so push and pull never disagree on
// shape or visibility.
func RedactTicket(ticket domain.Ticket, identity Identity) domain.Ticket {
	if identity.Role == domain.RoleAdmin {
		return ticket
	}
	out := ticket.Clone()
	visible := make([]domain.Response, 0, len(out.Responses))
	for _, response := range out.Responses {
		if response.Internal {
			continue
		}
		visible = append(visible, response)
	}
	out.Responses = visible
	out.RecomputeSummary()
	return out
}
