package realtime

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func testEvent(eventType EventType, ticketID string) Event {
	return Event{ID: "evt-1", Type: eventType, TicketID: ticketID}
}

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var first, second int
	bus.Subscribe(EventNewTicket, func(_ context.Context, _ Event) error {
		first++
		return nil
	})
	bus.Subscribe(EventNewTicket, func(_ context.Context, _ Event) error {
		second++
		return nil
	})

	bus.Publish(context.Background(), testEvent(EventNewTicket, "t1"))

	if first != 1 || second != 1 {
		t.Fatalf("expected both handlers invoked once, got %d and %d", first, second)
	}
}

func TestBus_PublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewBus(zap.NewNop())
	// must not panic or block
	bus.Publish(context.Background(), testEvent(EventUpdateTicket, "t1"))
}

func TestBus_HandlerErrorDoesNotBlockOthers(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var delivered int
	bus.Subscribe(EventNewTicket, func(_ context.Context, _ Event) error {
		return errors.New("boom")
	})
	bus.Subscribe(EventNewTicket, func(_ context.Context, _ Event) error {
		delivered++
		return nil
	})

	bus.Publish(context.Background(), testEvent(EventNewTicket, "t1"))

	if delivered != 1 {
		t.Fatalf("second handler should run despite first failing, delivered=%d", delivered)
	}
}

func TestBus_HandlerPanicIsRecovered(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var delivered int
	bus.Subscribe(EventTicketResponse, func(_ context.Context, _ Event) error {
		panic("handler bug")
	})
	bus.Subscribe(EventTicketResponse, func(_ context.Context, _ Event) error {
		delivered++
		return nil
	})

	bus.Publish(context.Background(), testEvent(EventTicketResponse, "t1"))

	if delivered != 1 {
		t.Fatalf("panicking handler must not break fan-out, delivered=%d", delivered)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var delivered int
	sub := bus.Subscribe(EventNewTicket, func(_ context.Context, _ Event) error {
		delivered++
		return nil
	})

	bus.Publish(context.Background(), testEvent(EventNewTicket, "t1"))
	bus.Unsubscribe(sub)
	bus.Publish(context.Background(), testEvent(EventNewTicket, "t1"))

	if delivered != 1 {
		t.Fatalf("handler invoked after unsubscribe, delivered=%d", delivered)
	}

	// double unsubscribe is a no-op
	bus.Unsubscribe(sub)
}

func TestBus_SubscriptionIsTypeScoped(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var delivered int
	bus.Subscribe(EventNewTicket, func(_ context.Context, _ Event) error {
		delivered++
		return nil
	})

	bus.Publish(context.Background(), testEvent(EventUpdateTicket, "t1"))

	if delivered != 0 {
		t.Fatalf("handler for newTicket must not see updateTicket, delivered=%d", delivered)
	}
}
