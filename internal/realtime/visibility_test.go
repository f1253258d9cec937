package realtime

import (
	"reflect"
	"testing"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func sampleTicket() domain.Ticket {
	owner := domain.UserRef{ID: "u1", Name: "Uma", Email: "uma@example.com", Role: domain.RoleUser}
	agent := domain.UserRef{ID: "a1", Name: "Ann", Email: "ann@example.com", Role: domain.RoleAdmin}
	ticket := domain.Ticket{
		ID:          "t1",
		Title:       "printer on fire",
		Description: "smoke everywhere",
		Category:    domain.CategoryTechnical,
		Status:      domain.TicketStatusInProgress,
		Priority:    domain.TicketPriorityHigh,
		Owner:       owner,
		Assignee:    &agent,
		Responses: []domain.Response{
			{ID: "r1", TicketID: "t1", Body: "on my way", Author: agent, Internal: false, CreatedAt: time.Unix(100, 0)},
			{ID: "r2", TicketID: "t1", Body: "user broke it again", Author: agent, Internal: true, CreatedAt: time.Unix(200, 0)},
			{ID: "r3", TicketID: "t1", Body: "thanks!", Author: owner, Internal: false, CreatedAt: time.Unix(300, 0)},
			{ID: "r4", TicketID: "t1", Body: "note: bill the dept", Author: agent, Internal: true, CreatedAt: time.Unix(400, 0)},
		},
	}
	ticket.RecomputeSummary()
	return ticket
}

func sampleEvent() Event {
	return Event{ID: "e1", Type: EventTicketResponse, TicketID: "t1", Sequence: 4, Ticket: sampleTicket()}
}

func TestRedact_RemovesInternalForNonAdmins(t *testing.T) {
	for _, role := range []domain.Role{domain.RoleUser, domain.RoleFirstLine, domain.RoleSecondLine} {
		got := Redact(sampleEvent(), identity("c1", "u1", role))
		if len(got.Ticket.Responses) != 2 {
			t.Fatalf("role %s: expected 2 visible responses, got %d", role, len(got.Ticket.Responses))
		}
		for _, response := range got.Ticket.Responses {
			if response.Internal {
				t.Fatalf("role %s: internal response %s leaked", role, response.ID)
			}
		}
	}
}

func TestRedact_KeepsEveryPublicResponse(t *testing.T) {
	got := Redact(sampleEvent(), identity("c1", "u1", domain.RoleUser))
	ids := []string{}
	for _, response := range got.Ticket.Responses {
		ids = append(ids, response.ID)
	}
	if !reflect.DeepEqual(ids, []string{"r1", "r3"}) {
		t.Fatalf("public responses altered: %v", ids)
	}
}

func TestRedact_IsIdentityForAdmins(t *testing.T) {
	event := sampleEvent()
	got := Redact(event, identity("c1", "a1", domain.RoleAdmin))
	if !reflect.DeepEqual(got, event) {
		t.Fatal("admin redaction must be the identity function")
	}
}

func TestRedact_IsIdempotent(t *testing.T) {
	id := identity("c1", "u1", domain.RoleUser)
	once := Redact(sampleEvent(), id)
	twice := Redact(once, id)
	if !reflect.DeepEqual(once, twice) {
		t.Fatal("redacting twice must equal redacting once")
	}
}

func TestRedact_DoesNotMutateInput(t *testing.T) {
	event := sampleEvent()
	before := event.Ticket.Clone()

	Redact(event, identity("c1", "u1", domain.RoleUser))

	if !reflect.DeepEqual(event.Ticket, before) {
		t.Fatal("input event mutated by redaction")
	}
}

func TestRedact_RecomputesSummaryFromVisibleResponses(t *testing.T) {
	got := Redact(sampleEvent(), identity("c1", "u1", domain.RoleUser))

	if got.Ticket.ResponseCount != 2 {
		t.Fatalf("response count not recomputed: %d", got.Ticket.ResponseCount)
	}
	if got.Ticket.LatestResponse == nil || got.Ticket.LatestResponse.ID != "r3" {
		t.Fatalf("latest response must come from the redacted list, got %+v", got.Ticket.LatestResponse)
	}
}

func TestRedact_AllInternalLeavesEmptySummary(t *testing.T) {
	ticket := sampleTicket()
	ticket.Responses = []domain.Response{
		{ID: "r1", Internal: true, Author: ticket.Owner},
	}
	ticket.RecomputeSummary()
	event := Event{ID: "e1", Type: EventUpdateTicket, TicketID: "t1", Ticket: ticket}

	got := Redact(event, identity("c1", "u1", domain.RoleUser))

	if len(got.Ticket.Responses) != 0 || got.Ticket.LatestResponse != nil || got.Ticket.ResponseCount != 0 {
		t.Fatalf("expected empty visible thread, got %+v", got.Ticket)
	}
}
