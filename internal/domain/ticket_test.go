package domain

import (
	"testing"
	"time"
)

func TestValidTransition_BaseFlow(t *testing.T) {
	cases := []struct {
		from, to TicketStatus
		want     bool
	}{
		{TicketStatusOpen, TicketStatusInProgress, true},
		{TicketStatusInProgress, TicketStatusSolved, true},
		{TicketStatusSolved, TicketStatusReopened, true},
		{TicketStatusReopened, TicketStatusInProgress, true},

		{TicketStatusOpen, TicketStatusSolved, false},
		{TicketStatusSolved, TicketStatusInProgress, false},
		{TicketStatusInProgress, TicketStatusOpen, false},
		{TicketStatusOpen, TicketStatusOpen, false},
		// extended statuses are not reachable without strict mode
		{TicketStatusInProgress, TicketStatusResolved, false},
		{TicketStatusInProgress, TicketStatusNeedsDev, false},
	}
	for _, tc := range cases {
		if got := ValidTransition(tc.from, tc.to, false); got != tc.want {
			t.Errorf("base %s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestValidTransition_StrictFlow(t *testing.T) {
	cases := []struct {
		from, to TicketStatus
		want     bool
	}{
		{TicketStatusOpen, TicketStatusInProgress, true},
		{TicketStatusInProgress, TicketStatusResolved, true},
		{TicketStatusInProgress, TicketStatusNeedsDev, true},
		{TicketStatusInProgress, TicketStatusReopened, true},
		{TicketStatusResolved, TicketStatusCompleted, true},
		{TicketStatusNeedsDev, TicketStatusCompleted, true},
		{TicketStatusReopened, TicketStatusInProgress, true},

		// SOLVED belongs to the base taxonomy only
		{TicketStatusInProgress, TicketStatusSolved, false},
		{TicketStatusOpen, TicketStatusResolved, false},
		{TicketStatusCompleted, TicketStatusInProgress, false},
		{TicketStatusResolved, TicketStatusNeedsDev, false},
	}
	for _, tc := range cases {
		if got := ValidTransition(tc.from, tc.to, true); got != tc.want {
			t.Errorf("strict %s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestValidTransition_ReopenedFromEveryClosedState(t *testing.T) {
	if !ValidTransition(TicketStatusSolved, TicketStatusReopened, false) {
		t.Error("base: SOLVED must reopen")
	}
	for _, closed := range []TicketStatus{TicketStatusResolved, TicketStatusNeedsDev, TicketStatusCompleted} {
		if !ValidTransition(closed, TicketStatusReopened, true) {
			t.Errorf("strict: %s must reopen", closed)
		}
	}
}

func TestTicketStatus_Closed(t *testing.T) {
	closed := []TicketStatus{TicketStatusSolved, TicketStatusResolved, TicketStatusCompleted}
	open := []TicketStatus{TicketStatusOpen, TicketStatusInProgress, TicketStatusNeedsDev, TicketStatusReopened}
	for _, s := range closed {
		if !s.Closed() {
			t.Errorf("%s should be closed", s)
		}
	}
	for _, s := range open {
		if s.Closed() {
			t.Errorf("%s should not be closed", s)
		}
	}
}

func TestTicketEnums_Valid(t *testing.T) {
	for _, p := range []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent} {
		if !p.Valid() {
			t.Errorf("priority %s should be valid", p)
		}
	}
	if TicketPriority("BANANA").Valid() || TicketPriority("").Valid() {
		t.Error("unknown priority accepted")
	}

	for _, c := range []TicketCategory{CategoryAccount, CategoryBilling, CategoryTechnical, CategoryFeatureRequest, CategoryOther} {
		if !c.Valid() {
			t.Errorf("category %s should be valid", c)
		}
	}
	if TicketCategory("GARDENING").Valid() || TicketCategory("").Valid() {
		t.Error("unknown category accepted")
	}
}

func TestTicket_CloneIsIndependent(t *testing.T) {
	assignee := UserRef{ID: "a1", Name: "Ann", Role: RoleAdmin}
	ticket := Ticket{
		ID:       "t1",
		Status:   TicketStatusInProgress,
		Owner:    UserRef{ID: "u1", Name: "Uma", Role: RoleUser},
		Assignee: &assignee,
		Responses: []Response{
			{ID: "r1", Body: "first", CreatedAt: time.Unix(100, 0)},
			{ID: "r2", Body: "second", CreatedAt: time.Unix(200, 0)},
		},
	}
	ticket.RecomputeSummary()

	clone := ticket.Clone()
	clone.Assignee.Name = "changed"
	clone.Responses[0].Body = "mutated"
	clone.LatestResponse.Body = "mutated"
	clone.Responses = append(clone.Responses[:1], Response{ID: "r3"})

	if ticket.Assignee.Name != "Ann" {
		t.Fatal("clone shares the assignee pointer")
	}
	if ticket.Responses[0].Body != "first" {
		t.Fatal("clone shares the responses backing array")
	}
	if ticket.LatestResponse.Body != "second" {
		t.Fatal("clone shares the latest-response pointer")
	}
	if len(ticket.Responses) != 2 {
		t.Fatalf("original response list changed: %d entries", len(ticket.Responses))
	}
}

func TestTicket_RecomputeSummary(t *testing.T) {
	ticket := Ticket{ID: "t1"}
	ticket.RecomputeSummary()
	if ticket.ResponseCount != 0 || ticket.LatestResponse != nil {
		t.Fatal("empty ticket must have an empty summary")
	}

	ticket.Responses = []Response{
		{ID: "r1", Body: "first", CreatedAt: time.Unix(100, 0)},
		{ID: "r2", Body: "second", CreatedAt: time.Unix(200, 0)},
	}
	ticket.RecomputeSummary()
	if ticket.ResponseCount != 2 {
		t.Fatalf("response count = %d, want 2", ticket.ResponseCount)
	}
	if ticket.LatestResponse == nil || ticket.LatestResponse.ID != "r2" {
		t.Fatal("latest response must be the last submitted one")
	}

	ticket.Responses = ticket.Responses[:1]
	ticket.RecomputeSummary()
	if ticket.ResponseCount != 1 || ticket.LatestResponse.ID != "r1" {
		t.Fatal("summary must track removals too")
	}
}
