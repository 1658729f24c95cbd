package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	sendBufferSize = 64
)

// Upgrader is used by the relay's websocket endpoint (the playback client
// dials out instead of upgrading). Origin checking is left permissive here since Syng rooms are
// already gated by a room secret.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler processes one decoded Message from a Conn. Returning an error logs
// it and sends an "error" event back to the sender; it never closes the
// connection on its own.
type Handler func(ctx context.Context, c *Conn, msg Message) error

// Conn wraps one websocket connection with a buffered outbound queue, so a
// slow reader never blocks whoever is broadcasting to it.
type Conn struct {
	ws *websocket.Conn

	send chan Message

	mu     sync.Mutex
	closed bool

	// Attrs holds caller-defined per-connection state (room id, role,
	// session id) so the relay/playback packages don't need a parallel map
	// keyed by *Conn.
	Attrs map[string]any
}

// NewConn wraps an already-upgraded websocket connection.
func NewConn(ws *websocket.Conn) *Conn {
	ws.SetReadLimit(maxMessageSize)
	return &Conn{
		ws:    ws,
		send:  make(chan Message, sendBufferSize),
		Attrs: make(map[string]any),
	}
}

// Send enqueues a message for delivery. If the outbound buffer is full the
// message is dropped and logged, rather than blocking the caller.
func (c *Conn) Send(event string, payload any) {
	msg, err := NewMessage(event, payload)
	if err != nil {
		slog.Error("transport: failed to encode outgoing message", "event", event, "error", err)
		return
	}
	select {
	case c.send <- msg:
	default:
		slog.Warn("transport: dropping message to slow connection", "event", event)
	}
}

// SendError is a convenience wrapper for the conventional "error" event.
func (c *Conn) SendError(message string) {
	c.Send("error", map[string]string{"message": message})
}

// Close shuts the connection down exactly once.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()
	close(c.send)
	return c.ws.Close()
}

// Router dispatches incoming Messages to registered Handlers by event name.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{handlers: make(map[string]Handler)}
}

// On registers a handler for event, overwriting any previous registration.
func (r *Router) On(event string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[event] = h
}

// Serve runs the read and write pumps for c until the connection closes or
// ctx is cancelled. It blocks until both pumps exit.
func (r *Router) Serve(ctx context.Context, c *Conn) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.readPump(ctx, c)
		cancel()
	}()
	go func() {
		defer wg.Done()
		writePump(ctx, c)
	}()
	wg.Wait()
	c.Close()
}

func (r *Router) readPump(ctx context.Context, c *Conn) {
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Debug("transport: connection closed unexpectedly", "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.SendError("malformed message")
			continue
		}

		r.mu.RLock()
		h, ok := r.handlers[msg.Event]
		r.mu.RUnlock()
		if !ok {
			c.SendError("unknown event: " + msg.Event)
			continue
		}

		if err := h(ctx, c, msg); err != nil {
			slog.Warn("transport: handler error", "event", msg.Event, "error", err)
			c.SendError(err.Error())
		}

		if ctx.Err() != nil {
			return
		}
	}
}

func writePump(ctx context.Context, c *Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(msg); err != nil {
				if !errors.Is(err, websocket.ErrCloseSent) {
					slog.Debug("transport: write failed", "error", err)
				}
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
