package realtime

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
)

const emitStripes = 64

// Dispatcher is the orchestration core of the realtime layer. Mutation
// services call the On* hooks immediately after a successful commit;
// the dispatcher stamps each snapshot into an event with a
// monotonically increasing per-ticket sequence number, publishes it on
// the bus, and its fan-out handler pushes per-recipient redacted
// copies to every interested connection.
//
// Dependencies are injected at construction and never pulled from
// ambient state.
type Dispatcher struct {
	bus      *Bus
	registry *Registry
	logger   *zap.Logger

	mu   sync.Mutex
	seqs map[string]uint64

	// emitLocks serializes stamp-and-publish per ticket: a connection
	// must never see sequence N+1 before N, so the event has to reach
	// the bus under the same lock that stamped it. Striped by ticket id
	// hash; emits for different tickets stay concurrent.
	emitLocks [emitStripes]sync.Mutex
}

// NewDispatcher wires the dispatcher to its collaborators.
func NewDispatcher(bus *Bus, registry *Registry, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		bus:      bus,
		registry: registry,
		logger:   logger,
		seqs:     make(map[string]uint64),
	}
}

// RegisterFanout subscribes the fan-out handler for every ticket event
// type. Call once at startup.
func (d *Dispatcher) RegisterFanout() []Subscription {
	subs := make([]Subscription, 0, 3)
	for _, eventType := range []EventType{EventNewTicket, EventUpdateTicket, EventTicketResponse} {
		subs = append(subs, d.bus.Subscribe(eventType, d.fanOut))
	}
	return subs
}

// OnTicketCreated must be called after a ticket create commits.
func (d *Dispatcher) OnTicketCreated(ticket domain.Ticket) {
	d.emit(EventNewTicket, ticket)
}

// OnTicketUpdated must be called after a ticket field update commits.
func (d *Dispatcher) OnTicketUpdated(ticket domain.Ticket) {
	d.emit(EventUpdateTicket, ticket)
}

// OnResponseAdded must be called after a response insert commits.
func (d *Dispatcher) OnResponseAdded(ticket domain.Ticket) {
	d.emit(EventTicketResponse, ticket)
}

func (d *Dispatcher) emit(eventType EventType, ticket domain.Ticket) {
	lock := &d.emitLocks[stripeFor(ticket.ID)]
	lock.Lock()
	defer lock.Unlock()

	event := Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticket.ID,
		Sequence:  d.nextSequence(ticket.ID),
		EmittedAt: time.Now(),
		Ticket:    ticket,
	}
	d.bus.Publish(context.Background(), event)
}

// nextSequence increments the process-local counter for the ticket.
// Sequence numbers exist for client-side duplicate and ordering
// detection only; snapshot-on-reconnect makes durability unnecessary.
// Counters live for the process lifetime: a closed ticket can be
// reopened, so entries are not evicted on closure.
func (d *Dispatcher) nextSequence(ticketID string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seqs[ticketID]++
	return d.seqs[ticketID]
}

func stripeFor(ticketID string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(ticketID))
	return h.Sum32() % emitStripes
}

func (d *Dispatcher) fanOut(_ context.Context, event Event) error {
	delivered := d.registry.Broadcast(event, Interested(event.Ticket), Redact)
	d.logger.Debug("ticket event fanned out",
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.Uint64("sequence", event.Sequence),
		zap.Int("delivered", delivered))
	return nil
}

// Interested is the single authoritative interest predicate: admins,
// the ticket owner, and the current assignee receive the ticket's
// events, narrowed by the connection's optional ticket scoping.
func Interested(ticket domain.Ticket) Predicate {
	return func(identity Identity) bool {
		if !identity.SubscribedTo(ticket.ID) {
			return false
		}
		if identity.Role == domain.RoleAdmin {
			return true
		}
		if identity.UserID == ticket.Owner.ID {
			return true
		}
		return ticket.Assignee != nil && identity.UserID == ticket.Assignee.ID
	}
}
