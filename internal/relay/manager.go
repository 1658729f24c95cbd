package relay

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/syng-dev/syng/internal/metrics"
	"github.com/syng-dev/syng/internal/model"
	"github.com/syng-dev/syng/internal/source"
	"github.com/syng-dev/syng/internal/transport"
)

const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Manager owns every room and the process-wide source registry. It is the
// single place rooms are created, looked up, or removed — no package-level
// singleton.
type Manager struct {
	registry *source.Registry
	metrics  *metrics.Metrics

	mu    sync.RWMutex
	rooms map[string]*RoomState

	limiter *rateLimiter
}

// NewManager returns an empty Manager bound to registry. m may be nil, in
// which case metrics are simply not recorded.
func NewManager(registry *source.Registry, m *metrics.Metrics) *Manager {
	return &Manager{
		registry: registry,
		metrics:  m,
		rooms:    make(map[string]*RoomState),
		limiter:  newRateLimiter(5, 15*time.Minute),
	}
}

// Room looks up a room by id.
func (m *Manager) Room(roomID string) (*RoomState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[roomID]
	return r, ok
}

// generateRoomCode produces a fresh 4-letter code, extending its length on
// collision, per the register-client contract.
func (m *Manager) generateRoomCode() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for length := 4; ; length++ {
		for attempt := 0; attempt < 100; attempt++ {
			code := randomCode(length)
			if _, exists := m.rooms[code]; !exists {
				return code
			}
		}
	}
}

func randomCode(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = roomCodeAlphabet[rand.IntN(len(roomCodeAlphabet))]
	}
	return string(b)
}

// createRoom installs a new RoomState under roomID.
func (m *Manager) createRoom(roomID, secret string, initialQueue, initialRecent []*model.Entry) *RoomState {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := NewRoomState(roomID, secret, initialQueue, initialRecent)
	m.rooms[roomID] = r
	return r
}

// sessionState is the per-connection {room_id, is_admin} attribute bag,
// stored directly on the transport.Conn so no parallel session table needs
// to be kept in sync.
type sessionState struct {
	sessionID string
	roomID    string
	isAdmin   bool
}

func stateFor(c *transport.Conn) *sessionState {
	if s, ok := c.Attrs["session"].(*sessionState); ok {
		return s
	}
	s := &sessionState{sessionID: uuid.NewString()}
	c.Attrs["session"] = s
	return s
}

// Router builds the event router for every relay-facing connection. One
// Router instance is shared by all connections; per-connection state lives
// on each transport.Conn.
func (m *Manager) Router() *transport.Router {
	r := transport.NewRouter()
	r.On("register-client", m.instrumented("register-client", m.handleRegisterClient))
	r.On("register-web", m.instrumented("register-web", m.handleRegisterWeb))
	r.On("register-admin", m.instrumented("register-admin", m.handleRegisterAdmin))
	r.On("sources", m.instrumented("sources", m.handleSources))
	r.On("config-chunk", m.instrumented("config-chunk", m.handleConfigChunk))
	r.On("config", m.instrumented("config", m.handleConfig))
	r.On("get-state", m.instrumented("get-state", m.handleGetState))
	r.On("append", m.instrumented("append", m.handleAppend))
	r.On("meta-info", m.instrumented("meta-info", m.handleMetaInfo))
	r.On("get-first", m.instrumented("get-first", m.handleGetFirst))
	r.On("pop-then-get-next", m.instrumented("pop-then-get-next", m.handlePopThenGetNext))
	r.On("skip-current", m.instrumented("skip-current", m.handleSkipCurrent))
	r.On("move-up", m.instrumented("move-up", m.handleMoveUp))
	r.On("skip", m.instrumented("skip", m.handleSkip))
	r.On("search", m.instrumented("search", m.handleSearch))
	return r
}

// instrumented wraps a Handler with event-count/error-count metrics when a
// Metrics bundle is configured; it is a transparent pass-through otherwise.
func (m *Manager) instrumented(event string, h transport.Handler) transport.Handler {
	if m.metrics == nil {
		return h
	}
	return func(ctx context.Context, c *transport.Conn, msg transport.Message) error {
		m.metrics.EventsHandled.WithLabelValues(event).Inc()
		err := h(ctx, c, msg)
		if err != nil {
			m.metrics.EventErrors.WithLabelValues(event).Inc()
		}
		return err
	}
}

// HandleDisconnect runs the disconnect contract: leave the room, and if the
// session was the room's playback client, clear playback_sid (the room
// itself is left intact for web clients still observing it).
func (m *Manager) HandleDisconnect(c *transport.Conn) {
	s := stateFor(c)
	if s.roomID == "" {
		return
	}
	room, ok := m.Room(s.roomID)
	if !ok {
		return
	}
	room.Unsubscribe(s.sessionID)
	room.ClearPlaybackSIDIfMatches(s.sessionID)
	slog.Debug("relay: session disconnected", "room", s.roomID, "session", s.sessionID)
}

func currentRoom(m *Manager, c *transport.Conn) (*RoomState, *sessionState, bool) {
	s := stateFor(c)
	if s.roomID == "" {
		return nil, s, false
	}
	room, ok := m.Room(s.roomID)
	return room, s, ok
}
