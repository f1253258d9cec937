package realtime

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
)

type fakePusher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (p *fakePusher) Push(event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePusher) received() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

func identity(connID, userID string, role domain.Role) Identity {
	return Identity{ConnID: ConnID(connID), UserID: userID, Role: role}
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(identity("c1", "u1", domain.RoleUser), &fakePusher{})

	got, ok := reg.ForConn("c1")
	if !ok {
		t.Fatal("expected connection c1 to be registered")
	}
	if got.UserID != "u1" || got.Role != domain.RoleUser {
		t.Fatalf("unexpected identity %+v", got)
	}
	if _, ok := reg.ForConn("missing"); ok {
		t.Fatal("lookup of unknown connection must fail")
	}
}

func TestRegistry_UnregisterIsIdempotent(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(identity("c1", "u1", domain.RoleUser), &fakePusher{})

	reg.Unregister("c1")
	reg.Unregister("c1") // second call is a no-op
	reg.Unregister("never-registered")

	if reg.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", reg.Len())
	}
}

func TestRegistry_BroadcastHonorsPredicate(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	admin := &fakePusher{}
	user := &fakePusher{}
	reg.Register(identity("c1", "u1", domain.RoleAdmin), admin)
	reg.Register(identity("c2", "u2", domain.RoleUser), user)

	delivered := reg.Broadcast(testEvent(EventNewTicket, "t1"), func(id Identity) bool {
		return id.Role == domain.RoleAdmin
	}, nil)

	if delivered != 1 {
		t.Fatalf("expected one delivery, got %d", delivered)
	}
	if len(admin.received()) != 1 || len(user.received()) != 0 {
		t.Fatalf("predicate not honored: admin=%d user=%d", len(admin.received()), len(user.received()))
	}
}

func TestRegistry_BroadcastAfterUnregisterSkipsConnection(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	pusher := &fakePusher{}
	reg.Register(identity("c1", "u1", domain.RoleAdmin), pusher)
	reg.Unregister("c1")

	delivered := reg.Broadcast(testEvent(EventNewTicket, "t1"), nil, nil)

	if delivered != 0 {
		t.Fatalf("expected no deliveries, got %d", delivered)
	}
	if len(pusher.received()) != 0 {
		t.Fatal("unregistered connection must not receive events")
	}
}

func TestRegistry_BroadcastZeroRecipientsIsNoop(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	if delivered := reg.Broadcast(testEvent(EventNewTicket, "t1"), nil, nil); delivered != 0 {
		t.Fatalf("expected zero deliveries, got %d", delivered)
	}
}

func TestRegistry_PushFailureUnregistersAndContinues(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	failing := &fakePusher{err: errors.New("transport closed")}
	healthy := &fakePusher{}
	reg.Register(identity("bad", "u1", domain.RoleAdmin), failing)
	reg.Register(identity("good", "u2", domain.RoleAdmin), healthy)

	reg.Broadcast(testEvent(EventNewTicket, "t1"), nil, nil)

	if _, ok := reg.ForConn("bad"); ok {
		t.Fatal("failing connection must be unregistered")
	}
	if len(healthy.received()) != 1 {
		t.Fatal("healthy connection must still receive the event")
	}
}

func TestRegistry_BroadcastTransformIsPerRecipient(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	a := &fakePusher{}
	b := &fakePusher{}
	reg.Register(identity("c1", "u1", domain.RoleUser), a)
	reg.Register(identity("c2", "u2", domain.RoleUser), b)

	reg.Broadcast(testEvent(EventNewTicket, "t1"), nil, func(event Event, id Identity) Event {
		event.Ticket.Title = string(id.ConnID)
		return event
	})

	if got := a.received()[0].Ticket.Title; got != "c1" {
		t.Fatalf("connection c1 got transform for %q", got)
	}
	if got := b.received()[0].Ticket.Title; got != "c2" {
		t.Fatalf("connection c2 got transform for %q", got)
	}
}

func TestRegistry_ConcurrentRegistrationAndBroadcast(t *testing.T) {
	reg := NewRegistry(zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			reg.Register(identity(fmt.Sprintf("c%d", n), fmt.Sprintf("u%d", n), domain.RoleAdmin), &fakePusher{})
		}(i)
		go func() {
			defer wg.Done()
			reg.Broadcast(testEvent(EventUpdateTicket, "t1"), nil, nil)
		}()
	}
	wg.Wait()

	if reg.Len() != 50 {
		t.Fatalf("expected 50 connections after concurrent churn, got %d", reg.Len())
	}
}
