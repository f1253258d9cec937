package ws

import (
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/realtime"
)

// userConnectedMessage is the first frame a client sends on an
// already-authenticated connection. It establishes the connection's
// identity in the registry; the declared user must match the JWT
// principal. ticket_ids optionally narrows the subscription.
type userConnectedMessage struct {
	Type      string   `json:"type"`
	UserID    string   `json:"userId"`
	Role      string   `json:"role"`
	TicketIDs []string `json:"ticket_ids"`
}

// eventFrame is the wire shape of a pushed ticket event.
type eventFrame struct {
	Event    string       `json:"event"`
	ID       string       `json:"id"`
	TicketID string       `json:"ticket_id"`
	Sequence uint64       `json:"sequence"`
	Payload  framePayload `json:"payload"`
}

type framePayload struct {
	Ticket domain.Ticket `json:"ticket"`
}

// Handler upgrades HTTP requests to websocket push connections and
// registers them with the realtime registry.
type Handler struct {
	registry     *realtime.Registry
	logger       *zap.Logger
	writeTimeout time.Duration
}

// NewHandler constructs the websocket handler.
func NewHandler(registry *realtime.Registry, logger *zap.Logger, writeTimeout time.Duration) *Handler {
	return &Handler{registry: registry, logger: logger, writeTimeout: writeTimeout}
}

// UpgradeGuard rejects non-websocket requests before the upgrade.
func UpgradeGuard() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	}
}

// Endpoint returns the upgraded websocket handler.
func (h *Handler) Endpoint() fiber.Handler {
	return websocket.New(h.serve)
}

func (h *Handler) serve(conn *websocket.Conn) {
	defer conn.Close()

	principal, ok := conn.Locals(auth.PrincipalKey).(*auth.Principal)
	if !ok {
		h.logger.Warn("websocket connection without principal")
		return
	}

	var hello userConnectedMessage
	if err := conn.ReadJSON(&hello); err != nil {
		h.logger.Warn("websocket handshake read failed", zap.Error(err))
		return
	}
	if hello.Type != "userConnected" {
		h.logger.Warn("unexpected first websocket message", zap.String("type", hello.Type))
		return
	}
	// The JWT principal is authoritative; a mismatching declaration is
	// a client bug, not an escalation path.
	if hello.UserID != "" && hello.UserID != principal.User.ID {
		h.logger.Warn("userConnected identity mismatch",
			zap.String("declared", hello.UserID),
			zap.String("authenticated", principal.User.ID))
		return
	}

	identity := realtime.Identity{
		ConnID: realtime.ConnID(uuid.NewString()),
		UserID: principal.User.ID,
		Role:   principal.Role,
	}
	if len(hello.TicketIDs) > 0 {
		identity.TicketIDs = make(map[string]struct{}, len(hello.TicketIDs))
		for _, id := range hello.TicketIDs {
			identity.TicketIDs[id] = struct{}{}
		}
	}

	h.registry.Register(identity, &wsPusher{conn: conn, timeout: h.writeTimeout})
	defer h.registry.Unregister(identity.ConnID)

	// Hold the connection open; inbound frames beyond the handshake are
	// ignored (clients mutate over HTTP, not over the push channel).
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// wsPusher adapts a websocket connection to the realtime push
// interface. Writes are serialized: fan-out may deliver from the
// dispatching goroutine while the handshake goroutine is still alive.
type wsPusher struct {
	conn    *websocket.Conn
	mu      sync.Mutex
	timeout time.Duration
}

func (p *wsPusher) Push(event realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timeout > 0 {
		_ = p.conn.SetWriteDeadline(time.Now().Add(p.timeout))
	}
	return p.conn.WriteJSON(eventFrame{
		Event:    string(event.Type),
		ID:       event.ID,
		TicketID: event.TicketID,
		Sequence: event.Sequence,
		Payload:  framePayload{Ticket: event.Ticket},
	})
}
