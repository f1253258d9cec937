package realtime

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
)

func newDispatcherHarness() (*Registry, *Dispatcher) {
	logger := zap.NewNop()
	bus := NewBus(logger)
	registry := NewRegistry(logger)
	dispatcher := NewDispatcher(bus, registry, logger)
	dispatcher.RegisterFanout()
	return registry, dispatcher
}

func TestDispatcher_SequencesStrictlyIncreasingPerTicket(t *testing.T) {
	registry, dispatcher := newDispatcherHarness()
	pusher := &fakePusher{}
	registry.Register(identity("c1", "a1", domain.RoleAdmin), pusher)

	ticketA := sampleTicket()
	ticketB := sampleTicket()
	ticketB.ID = "t2"

	for i := 0; i < 5; i++ {
		dispatcher.OnTicketUpdated(ticketA)
	}
	dispatcher.OnTicketUpdated(ticketB)

	var lastA uint64
	countA := 0
	for _, event := range pusher.received() {
		if event.TicketID != "t1" {
			continue
		}
		countA++
		if event.Sequence <= lastA {
			t.Fatalf("sequence not strictly increasing: %d after %d", event.Sequence, lastA)
		}
		lastA = event.Sequence
	}
	if countA != 5 {
		t.Fatalf("expected 5 events for ticket t1, got %d", countA)
	}

	// each ticket has its own counter
	for _, event := range pusher.received() {
		if event.TicketID == "t2" && event.Sequence != 1 {
			t.Fatalf("ticket t2 should start at sequence 1, got %d", event.Sequence)
		}
	}
}

func TestDispatcher_ConcurrentEmitsDeliverInSequenceOrder(t *testing.T) {
	registry, dispatcher := newDispatcherHarness()
	pusher := &fakePusher{}
	registry.Register(identity("c1", "a1", domain.RoleAdmin), pusher)

	ticket := sampleTicket()
	const emits = 500
	var wg sync.WaitGroup
	for i := 0; i < emits; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dispatcher.OnTicketUpdated(ticket)
		}()
	}
	wg.Wait()

	events := pusher.received()
	if len(events) != emits {
		t.Fatalf("delivered %d events, want %d", len(events), emits)
	}
	var last uint64
	for i, event := range events {
		if event.Sequence <= last {
			t.Fatalf("event %d delivered out of order: sequence %d after %d", i, event.Sequence, last)
		}
		last = event.Sequence
	}
}

func TestDispatcher_EventTypesMatchHooks(t *testing.T) {
	registry, dispatcher := newDispatcherHarness()
	pusher := &fakePusher{}
	registry.Register(identity("c1", "a1", domain.RoleAdmin), pusher)

	ticket := sampleTicket()
	dispatcher.OnTicketCreated(ticket)
	dispatcher.OnTicketUpdated(ticket)
	dispatcher.OnResponseAdded(ticket)

	events := pusher.received()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	want := []EventType{EventNewTicket, EventUpdateTicket, EventTicketResponse}
	for i, event := range events {
		if event.Type != want[i] {
			t.Fatalf("event %d: got type %s, want %s", i, event.Type, want[i])
		}
	}
}

func TestDispatcher_InterestPredicate(t *testing.T) {
	ticket := sampleTicket() // owner u1, assignee a1

	cases := []struct {
		name string
		id   Identity
		want bool
	}{
		{"owner", identity("c1", "u1", domain.RoleUser), true},
		{"assignee", identity("c2", "a1", domain.RoleSecondLine), true},
		{"admin", identity("c3", "someone-else", domain.RoleAdmin), true},
		{"unrelated user", identity("c4", "u9", domain.RoleUser), false},
		{"unrelated support", identity("c5", "u9", domain.RoleFirstLine), false},
	}
	pred := Interested(ticket)
	for _, tc := range cases {
		if got := pred(tc.id); got != tc.want {
			t.Errorf("%s: interested=%v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDispatcher_InterestHonorsTicketScoping(t *testing.T) {
	ticket := sampleTicket()

	scopedAway := identity("c1", "u1", domain.RoleUser)
	scopedAway.TicketIDs = map[string]struct{}{"other-ticket": {}}
	if Interested(ticket)(scopedAway) {
		t.Fatal("connection scoped to another ticket must not match")
	}

	scopedTo := identity("c2", "u1", domain.RoleUser)
	scopedTo.TicketIDs = map[string]struct{}{"t1": {}}
	if !Interested(ticket)(scopedTo) {
		t.Fatal("connection scoped to the ticket must match")
	}
}

func TestDispatcher_DeliveryIsRedactedPerRecipient(t *testing.T) {
	registry, dispatcher := newDispatcherHarness()

	ownerConn := &fakePusher{}
	adminConn := &fakePusher{}
	registry.Register(identity("owner", "u1", domain.RoleUser), ownerConn)
	registry.Register(identity("admin", "m1", domain.RoleAdmin), adminConn)

	// admin added an internal note; the snapshot reflects the
	// collaborator's business transition: in progress, assigned.
	ticket := sampleTicket()
	dispatcher.OnResponseAdded(ticket)

	ownerEvents := ownerConn.received()
	if len(ownerEvents) != 1 {
		t.Fatalf("owner should receive the event, got %d", len(ownerEvents))
	}
	for _, response := range ownerEvents[0].Ticket.Responses {
		if response.Internal {
			t.Fatalf("internal response %s leaked to owner connection", response.ID)
		}
	}
	if ownerEvents[0].Ticket.Status != domain.TicketStatusInProgress {
		t.Fatalf("owner snapshot status = %s", ownerEvents[0].Ticket.Status)
	}
	if ownerEvents[0].Ticket.Assignee == nil || ownerEvents[0].Ticket.Assignee.ID != "a1" {
		t.Fatal("owner snapshot must carry the assignment")
	}

	adminEvents := adminConn.received()
	if len(adminEvents) != 1 {
		t.Fatalf("admin should receive the event, got %d", len(adminEvents))
	}
	internals := 0
	for _, response := range adminEvents[0].Ticket.Responses {
		if response.Internal {
			internals++
		}
	}
	if internals != 2 {
		t.Fatalf("admin connection should see both internal responses, saw %d", internals)
	}
}

func TestDispatcher_BroadcastStormSurvivesSingleFailure(t *testing.T) {
	registry, dispatcher := newDispatcherHarness()

	pushers := make([]*fakePusher, 100)
	for i := 0; i < 100; i++ {
		pushers[i] = &fakePusher{}
		if i == 37 {
			pushers[i].err = errors.New("transport closed")
		}
		registry.Register(identity(fmt.Sprintf("c%d", i), fmt.Sprintf("u%d", i), domain.RoleAdmin), pushers[i])
	}

	dispatcher.OnTicketCreated(sampleTicket())

	for i, pusher := range pushers {
		got := len(pusher.received())
		if i == 37 {
			if got != 0 {
				t.Fatalf("failing connection received %d events", got)
			}
			continue
		}
		if got != 1 {
			t.Fatalf("connection %d received %d events, want 1", i, got)
		}
	}
	if _, ok := registry.ForConn("c37"); ok {
		t.Fatal("failing connection must be unregistered")
	}
	if registry.Len() != 99 {
		t.Fatalf("expected 99 live connections, got %d", registry.Len())
	}
}

func TestDispatcher_NoInterestedConnectionIsNoop(t *testing.T) {
	registry, dispatcher := newDispatcherHarness()
	pusher := &fakePusher{}
	registry.Register(identity("c1", "stranger", domain.RoleUser), pusher)

	dispatcher.OnTicketUpdated(sampleTicket())

	if len(pusher.received()) != 0 {
		t.Fatal("uninterested connection must not receive the event")
	}
}
