package playback

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/syng-dev/syng/internal/metrics"
	"github.com/syng-dev/syng/internal/model"
	"github.com/syng-dev/syng/internal/player"
	"github.com/syng-dev/syng/internal/source"
	"github.com/syng-dev/syng/internal/transport"
)

// Coordinator is the playback client's event-driven loop: one websocket
// connection to the relay, a table of configured media sources, the
// external player process, and the State it mutates in response to
// relay-pushed events.
type Coordinator struct {
	serverURL string
	room      string
	secret    string

	registry *source.Registry
	player   *player.Player
	state    *State
	metrics  *metrics.Metrics

	config          model.RoomConfig
	previewDuration time.Duration
	bufferInAdvance int

	mu      sync.Mutex
	sources map[string]source.Source

	current struct {
		mu     sync.Mutex
		entry  *model.Entry
		source source.Source
	}
}

// New builds a Coordinator that will dial serverURL and register for room
// with secret. cfg supplies preview_duration and buffer_in_advance. m may be
// nil, in which case buffer-failure metrics are simply not recorded.
func New(serverURL, room, secret string, registry *source.Registry, p *player.Player, cfg model.RoomConfig, m *metrics.Metrics) *Coordinator {
	bufferInAdvance := cfg.BufferInAdvance
	if bufferInAdvance < 1 {
		bufferInAdvance = 2
	}
	return &Coordinator{
		serverURL:       serverURL,
		room:            room,
		secret:          secret,
		registry:        registry,
		player:          p,
		state:           NewState(),
		metrics:         m,
		config:          cfg,
		previewDuration: time.Duration(cfg.PreviewDuration) * time.Second,
		bufferInAdvance: bufferInAdvance,
		sources:         make(map[string]source.Source),
	}
}

// RegisterSource makes src available under its own name, so "sources" /
// request-config round trips against it.
func (co *Coordinator) RegisterSource(name string, src source.Source) {
	co.mu.Lock()
	defer co.mu.Unlock()
	co.sources[name] = src
}

func (co *Coordinator) sourceNames() []string {
	co.mu.Lock()
	defer co.mu.Unlock()
	names := make([]string, 0, len(co.sources))
	for n := range co.sources {
		names = append(names, n)
	}
	return names
}

func (co *Coordinator) sourceByName(name string) (source.Source, bool) {
	co.mu.Lock()
	defer co.mu.Unlock()
	s, ok := co.sources[name]
	return s, ok
}

// Run dials the relay and serves until ctx is cancelled, reconnecting with a
// short backoff whenever the connection drops.
func (co *Coordinator) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := co.runOnce(ctx); err != nil {
			slog.Warn("playback: connection lost, reconnecting", "error", err, "backoff", backoff)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (co *Coordinator) runOnce(ctx context.Context) error {
	wsURL, err := toWebsocketURL(co.serverURL)
	if err != nil {
		return fmt.Errorf("playback: invalid server url: %w", err)
	}

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("playback: dial failed: %w", err)
	}
	conn := transport.NewConn(ws)
	defer conn.Close()

	router := co.buildRouter()

	// connect: emit register-client with the currently-held queue/recent,
	// room id, secret, and general config.
	conn.Send("register-client", registerClientPayload{
		Room:    co.room,
		Secret:  co.secret,
		Version: model.Version[0],
		Queue:   co.state.snapshotQueue(),
		Recent:  co.state.snapshotRecent(),
		Config:  co.config,
	})

	router.Serve(ctx, conn)
	return nil
}

func toWebsocketURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		u.Scheme = "ws"
	}
	if !strings.HasSuffix(u.Path, "/ws") {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	}
	return u.String(), nil
}

type registerClientPayload struct {
	Room    string           `json:"room"`
	Secret  string           `json:"secret"`
	Version int              `json:"version"`
	Queue   []*model.Entry   `json:"queue"`
	Recent  []*model.Entry   `json:"recent"`
	Config  model.RoomConfig `json:"config"`
}

func (co *Coordinator) buildRouter() *transport.Router {
	r := transport.NewRouter()
	r.On("client-registered", co.onClientRegistered)
	r.On("request-config", co.onRequestConfig)
	r.On("state", co.onState)
	r.On("buffer", co.onBuffer)
	r.On("play", co.onPlay)
	r.On("skip-current", co.onSkipCurrent)
	return r
}
