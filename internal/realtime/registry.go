package realtime

import (
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ConnID is an opaque connection handle.
type ConnID string

// Identity describes an authenticated, registered connection.
type Identity struct {
	ConnID ConnID
	UserID string
	Role   domain.Role

	// TicketIDs optionally narrows the connection to specific tickets.
	// Empty means no narrowing.
	TicketIDs map[string]struct{}
}

// SubscribedTo reports whether the identity's optional ticket scoping
// admits the given ticket.
func (id Identity) SubscribedTo(ticketID string) bool {
	if len(id.TicketIDs) == 0 {
		return true
	}
	_, ok := id.TicketIDs[ticketID]
	return ok
}

// Pusher delivers an event over a connection's transport.
type Pusher interface {
	Push(Event) error
}

// Predicate decides whether a connection should receive an event.
type Predicate func(Identity) bool

// Transform produces the per-recipient copy of an event before it is
// pushed. It must not mutate its input.
type Transform func(Event, Identity) Event

type connection struct {
	identity Identity
	pusher   Pusher
}

// Registry tracks live connections. The connection map is the only
// shared mutable state in the realtime core: register and unregister
// are atomic relative to broadcast iteration, so a broadcast never
// observes a half-registered connection.
type Registry struct {
	mu     sync.RWMutex
	conns  map[ConnID]*connection
	logger *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		conns:  make(map[ConnID]*connection),
		logger: logger,
	}
}

// Register adds a connection.
func (r *Registry) Register(identity Identity, pusher Pusher) {
	r.mu.Lock()
	r.conns[identity.ConnID] = &connection{identity: identity, pusher: pusher}
	total := len(r.conns)
	r.mu.Unlock()
	r.logger.Info("connection registered",
		zap.String("conn_id", string(identity.ConnID)),
		zap.String("user_id", identity.UserID),
		zap.String("role", string(identity.Role)),
		zap.Int("connections", total))
}

// Unregister removes a connection. Removing an unknown connection is a
// no-op, so disconnect paths may call it unconditionally.
func (r *Registry) Unregister(id ConnID) {
	r.mu.Lock()
	_, existed := r.conns[id]
	delete(r.conns, id)
	total := len(r.conns)
	r.mu.Unlock()
	if existed {
		r.logger.Info("connection unregistered",
			zap.String("conn_id", string(id)),
			zap.Int("connections", total))
	}
}

// ForConn returns the identity registered under the handle.
func (r *Registry) ForConn(id ConnID) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	if !ok {
		return Identity{}, false
	}
	return conn.identity, true
}

// Len reports the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Broadcast delivers the event to every registered connection the
// predicate accepts. When transform is non-nil it produces the
// per-recipient copy. The matching set is snapshotted under the lock
// and pushes happen outside it, so a slow or failing recipient never
// delays membership changes. A push failure unregisters that connection
// and delivery to the remaining connections continues; matching zero
// connections is a silent no-op. Returns the number of successful
// deliveries.
func (r *Registry) Broadcast(event Event, pred Predicate, transform Transform) int {
	r.mu.RLock()
	targets := make([]*connection, 0, len(r.conns))
	for _, conn := range r.conns {
		if pred == nil || pred(conn.identity) {
			targets = append(targets, conn)
		}
	}
	r.mu.RUnlock()

	delivered := 0
	for _, conn := range targets {
		out := event
		if transform != nil {
			out = transform(event, conn.identity)
		}
		if err := conn.pusher.Push(out); err != nil {
			r.logger.Warn("push failed, dropping connection",
				zap.String("conn_id", string(conn.identity.ConnID)),
				zap.String("user_id", conn.identity.UserID),
				zap.String("event_id", event.ID),
				zap.Error(err))
			r.Unregister(conn.identity.ConnID)
			continue
		}
		delivered++
	}
	return delivered
}
