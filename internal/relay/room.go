// Package relay implements the room-scoped event broker: per-room
// authoritative state (queue, recent list, configuration, admin identity)
// and the event handlers that route between playback, web, and admin
// sessions. Each room fans events out to its subscribers over a buffered
// per-subscriber channel, so one slow connection never stalls the rest of
// the room.
package relay

import (
	"sync"
	"time"

	"github.com/syng-dev/syng/internal/model"
	"github.com/syng-dev/syng/internal/queue"
	"github.com/syng-dev/syng/internal/source"
	"github.com/syng-dev/syng/internal/transport"
)

const recentLimit = 200

// RoomState is one karaoke session's authoritative server-side state.
type RoomState struct {
	RoomID string
	Secret string

	mu          sync.RWMutex
	Queue       *queue.Queue
	recent      []*model.Entry
	playbackSID string
	config      model.RoomConfig
	sources     map[string]source.Source
	sourcesPrio []string

	// pending counts the config-chunk deliveries received per source,
	// purely for observability; chunks are stream-merged into the source
	// instance as they arrive.
	pending map[string]int

	subs map[string]*transport.Conn // sessionID -> connection
}

// NewRoomState creates a fresh room seeded with an initial queue/recent pair
// supplied by the registering playback client.
func NewRoomState(roomID, secret string, initialQueue, initialRecent []*model.Entry) *RoomState {
	q := queue.New()
	for _, e := range initialQueue {
		q.Append(e)
	}
	recent := append([]*model.Entry{}, initialRecent...)

	return &RoomState{
		RoomID:  roomID,
		Secret:  secret,
		Queue:   q,
		recent:  recent,
		config:  model.DefaultRoomConfig(),
		sources: make(map[string]source.Source),
		pending: make(map[string]int),
		subs:    make(map[string]*transport.Conn),
	}
}

// Subscribe attaches a connection to this room's broadcast fan-out.
func (r *RoomState) Subscribe(sessionID string, c *transport.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sessionID] = c
}

// Unsubscribe detaches a connection. Safe to call even if never subscribed.
func (r *RoomState) Unsubscribe(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, sessionID)
}

// PlaybackSID returns the session id currently registered as this room's
// playback client, or "" if none.
func (r *RoomState) PlaybackSID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.playbackSID
}

// SetPlaybackSID updates the playback client's session id.
func (r *RoomState) SetPlaybackSID(sid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.playbackSID = sid
}

// ClearPlaybackSIDIfMatches empties playbackSID only if it currently equals
// sid — used on disconnect so a stale session never evicts a newer one.
func (r *RoomState) ClearPlaybackSIDIfMatches(sid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.playbackSID == sid {
		r.playbackSID = ""
	}
}

// Config returns a copy of the room's policy configuration.
func (r *RoomState) Config() model.RoomConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}

// AppendRecent records a popped entry in play order, bounded to the most
// recent recentLimit entries.
func (r *RoomState) AppendRecent(e *model.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recent = append(r.recent, e)
	if len(r.recent) > recentLimit {
		r.recent = r.recent[len(r.recent)-recentLimit:]
	}
}

// Snapshot returns the current {queue, recent} pair for serialization.
func (r *RoomState) Snapshot() statePayload {
	r.mu.RLock()
	recent := append([]*model.Entry{}, r.recent...)
	r.mu.RUnlock()
	return statePayload{Queue: r.Queue.ToList(), Recent: recent}
}

// Broadcast sends event to every subscribed connection in the room.
func (r *RoomState) Broadcast(event string, payload any) {
	r.mu.RLock()
	conns := make([]*transport.Conn, 0, len(r.subs))
	for _, c := range r.subs {
		conns = append(conns, c)
	}
	r.mu.RUnlock()

	for _, c := range conns {
		c.Send(event, payload)
	}
}

// BroadcastState is a convenience wrapper broadcasting the current
// {queue, recent} snapshot under the "state" event.
func (r *RoomState) BroadcastState() {
	r.Broadcast("state", r.Snapshot())
}

// sendToPlayback delivers event only to the connected playback client, if
// any.
func (r *RoomState) sendToPlayback(event string, payload any) {
	r.mu.RLock()
	sid := r.playbackSID
	c, ok := r.subs[sid]
	r.mu.RUnlock()
	if sid == "" || !ok {
		return
	}
	c.Send(event, payload)
}

// sendTo delivers event to a single subscribed session, if still connected.
func (r *RoomState) sendTo(sessionID, event string, payload any) {
	r.mu.RLock()
	c, ok := r.subs[sessionID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	c.Send(event, payload)
}

// setSourcesPrio replaces the priority order and drops sources no longer
// named, per the "sources" handler's diff contract.
func (r *RoomState) setSourcesPrio(names []string, registry *source.Registry) (added []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	for existing := range r.sources {
		if !wanted[existing] {
			delete(r.sources, existing)
		}
	}
	for _, n := range names {
		if _, ok := r.sources[n]; ok {
			continue
		}
		inst, err := registry.New(n)
		if err != nil {
			continue
		}
		r.sources[n] = inst
		added = append(added, n)
	}
	r.sourcesPrio = append([]string{}, names...)
	return added
}

// sourcesSnapshot returns the configured source names in priority order.
func (r *RoomState) sourcesSnapshot() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string{}, r.sourcesPrio...)
}

// sourceByName returns a configured source instance, if any.
func (r *RoomState) sourceByName(name string) (source.Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[name]
	return s, ok
}

// applyConfigChunk merges one chunk into the named source's live
// configuration, creating the instance on first use.
func (r *RoomState) applyConfigChunk(name string, chunk map[string]any, registry *source.Registry) error {
	r.mu.Lock()
	s, ok := r.sources[name]
	if !ok {
		inst, err := registry.New(name)
		if err != nil {
			r.mu.Unlock()
			return err
		}
		s = inst
		r.sources[name] = s
		if !contains(r.sourcesPrio, name) {
			r.sourcesPrio = append(r.sourcesPrio, name)
		}
	}
	r.pending[name]++
	r.mu.Unlock()

	return s.AddToConfig(chunk)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// projectedStart computes the projected wall-clock start time of a
// not-yet-appended entry, given the room's current queue, per the end-time
// guard formula in the append handler's contract.
func (r *RoomState) projectedStart(previewDuration int) time.Time {
	entries := r.Queue.ToList()
	now := time.Now()

	start := now
	if len(entries) > 0 && entries[0].StartedAt != nil {
		start = *entries[0].StartedAt
	}

	total := 0
	for _, e := range entries {
		total += e.Duration + previewDuration + 1
	}
	return start.Add(time.Duration(total) * time.Second)
}
