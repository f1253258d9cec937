package worker

import (
	"context"

	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/realtime"
)

// StartRealtimeFanout registers the realtime subscribers on the bus:
// the dispatcher's connection fan-out, snapshot cache invalidation,
// and event counters.
func StartRealtimeFanout(bus *realtime.Bus, dispatcher *realtime.Dispatcher, snapshots *realtime.SnapshotService, metrics *observability.Metrics) {
	if dispatcher != nil {
		dispatcher.RegisterFanout()
	}
	if snapshots != nil {
		snapshots.RegisterInvalidation(bus)
	}
	if metrics != nil && bus != nil {
		for _, eventType := range []realtime.EventType{realtime.EventNewTicket, realtime.EventUpdateTicket, realtime.EventTicketResponse} {
			bus.Subscribe(eventType, func(_ context.Context, event realtime.Event) error {
				metrics.RecordEvent(string(event.Type))
				return nil
			})
		}
	}
}
