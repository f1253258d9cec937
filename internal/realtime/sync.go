package realtime

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketReader is the read-model collaborator: it returns the current
// committed state of a ticket with all references resolved,
// independent of any live-event state.
type TicketReader interface {
	GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error)
}

// SnapshotCache is an optional read-through cache in front of the
// reader. Implementations are best-effort: errors are logged and the
// fetch falls back to the reader.
type SnapshotCache interface {
	Get(ctx context.Context, ticketID string) (domain.Ticket, bool, error)
	Set(ctx context.Context, ticket domain.Ticket) error
	Invalidate(ctx context.Context, ticketID string) error
}

// SnapshotService implements snapshot-on-reconnect: a client that
// disconnected, missed events, or detected a sequence gap fetches the
// current canonical ticket instead of replaying history. The result is
// redacted with the same filter the push path uses, so the two paths
// can never disagree.
type SnapshotService struct {
	reader TicketReader
	cache  SnapshotCache
	logger *zap.Logger

	// gens is bumped per ticket on every invalidation. A read that was
	// in flight when an invalidation landed must not re-cache the state
	// it fetched: that state predates the mutation.
	mu   sync.Mutex
	gens map[string]uint64
}

// NewSnapshotService builds the service. cache may be nil.
func NewSnapshotService(reader TicketReader, cache SnapshotCache, logger *zap.Logger) *SnapshotService {
	return &SnapshotService{
		reader: reader,
		cache:  cache,
		logger: logger,
		gens:   make(map[string]uint64),
	}
}

// Snapshot returns the current ticket state redacted for the identity.
func (s *SnapshotService) Snapshot(ctx context.Context, ticketID string, identity Identity) (domain.Ticket, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, ticketID)
		if err != nil {
			s.logger.Warn("snapshot cache read failed", zap.String("ticket_id", ticketID), zap.Error(err))
		} else if ok {
			return RedactTicket(cached, identity), nil
		}
	}

	gen := s.generation(ticketID)
	ticket, err := s.reader.GetTicket(ctx, ticketID)
	if err != nil {
		return domain.Ticket{}, err
	}

	// Cache only if no invalidation landed while the read was in
	// flight; a stale write racing the write that invalidated it is
	// torn back down.
	if s.cache != nil && s.generation(ticketID) == gen {
		if err := s.cache.Set(ctx, *ticket); err != nil {
			s.logger.Warn("snapshot cache write failed", zap.String("ticket_id", ticketID), zap.Error(err))
		} else if s.generation(ticketID) != gen {
			if err := s.cache.Invalidate(ctx, ticketID); err != nil {
				s.logger.Warn("snapshot cache invalidate failed", zap.String("ticket_id", ticketID), zap.Error(err))
			}
		}
	}
	return RedactTicket(*ticket, identity), nil
}

func (s *SnapshotService) generation(ticketID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[ticketID]
}

// RegisterInvalidation subscribes cache invalidation to every ticket
// event type, so a cached snapshot never outlives the mutation that
// made it stale. No-op when no cache is configured.
func (s *SnapshotService) RegisterInvalidation(bus *Bus) []Subscription {
	if s.cache == nil {
		return nil
	}
	subs := make([]Subscription, 0, 3)
	for _, eventType := range []EventType{EventNewTicket, EventUpdateTicket, EventTicketResponse} {
		subs = append(subs, bus.Subscribe(eventType, s.invalidate))
	}
	return subs
}

func (s *SnapshotService) invalidate(ctx context.Context, event Event) error {
	s.mu.Lock()
	s.gens[event.TicketID]++
	s.mu.Unlock()
	return s.cache.Invalidate(ctx, event.TicketID)
}
