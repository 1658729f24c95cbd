package relay

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/syng-dev/syng/internal/model"
	"github.com/syng-dev/syng/internal/source"
	"github.com/syng-dev/syng/internal/transport"
)

func (m *Manager) handleRegisterClient(ctx context.Context, c *transport.Conn, msg transport.Message) error {
	var req registerClientRequest
	if err := msg.Decode(&req); err != nil {
		return fmt.Errorf("register-client: %w", err)
	}
	s := stateFor(c)

	if req.Version != 0 && !model.VersionCompatible(req.Version) {
		slog.Warn("relay: register-client with incompatible version", "client_version", req.Version, "server_version", model.Version[0])
		c.Send("client-registered", registerClientReply{Success: false, Room: req.Room, Reason: "incompatible protocol version"})
		return nil
	}

	if req.Room == "" {
		roomID := m.generateRoomCode()
		room := m.createRoom(roomID, req.Secret, req.Queue, req.Recent)
		applyInitialConfig(room, req.Config)
		room.SetPlaybackSID(s.sessionID)
		room.Subscribe(s.sessionID, c)
		s.roomID = roomID
		m.limiter.recordSuccess(roomID)

		c.Send("client-registered", registerClientReply{Success: true, Room: roomID})
		room.BroadcastState()
		return nil
	}

	if !m.limiter.allowed(req.Room) {
		c.Send("client-registered", registerClientReply{Success: false, Room: req.Room})
		return nil
	}

	room, ok := m.Room(req.Room)
	if !ok {
		room = m.createRoom(req.Room, req.Secret, req.Queue, req.Recent)
		applyInitialConfig(room, req.Config)
		room.SetPlaybackSID(s.sessionID)
		room.Subscribe(s.sessionID, c)
		s.roomID = req.Room
		c.Send("client-registered", registerClientReply{Success: true, Room: req.Room})
		room.BroadcastState()
		return nil
	}

	if room.Secret != req.Secret {
		m.limiter.recordFailure(req.Room)
		slog.Warn("relay: register-client with wrong secret", "room", req.Room)
		c.Send("client-registered", registerClientReply{Success: false, Room: req.Room})
		return nil
	}

	m.limiter.recordSuccess(req.Room)
	room.SetPlaybackSID(s.sessionID)
	room.Subscribe(s.sessionID, c)
	s.roomID = req.Room
	c.Send("client-registered", registerClientReply{Success: true, Room: req.Room})
	room.BroadcastState()
	return nil
}

// applyInitialConfig seeds a freshly created room's config from the
// playback client's register-client payload, if it sent one. Only called
// on room creation; re-registration of an existing room leaves the
// room's config as-is.
func applyInitialConfig(room *RoomState, cfg *model.RoomConfig) {
	if cfg == nil {
		return
	}
	room.mu.Lock()
	room.config = *cfg
	room.mu.Unlock()
}

func (m *Manager) handleRegisterWeb(ctx context.Context, c *transport.Conn, msg transport.Message) error {
	var req registerWebRequest
	if err := msg.Decode(&req); err != nil {
		return fmt.Errorf("register-web: %w", err)
	}

	room, ok := m.Room(req.Room)
	if !ok {
		c.Send("client-registered", registerWebReply{Success: false})
		return nil
	}

	s := stateFor(c)
	s.roomID = req.Room
	room.Subscribe(s.sessionID, c)

	c.Send("client-registered", registerWebReply{Success: true})
	c.Send("state", room.Snapshot())
	return nil
}

func (m *Manager) handleRegisterAdmin(ctx context.Context, c *transport.Conn, msg transport.Message) error {
	var req registerAdminRequest
	if err := msg.Decode(&req); err != nil {
		return fmt.Errorf("register-admin: %w", err)
	}

	room, s, ok := currentRoom(m, c)
	if !ok {
		c.Send("client-registered", registerAdminReply{Success: false})
		return nil
	}

	limiterKey := s.sessionID
	if !m.limiter.allowed(limiterKey) {
		c.Send("client-registered", registerAdminReply{Success: false})
		return nil
	}

	success := req.Secret == room.Secret
	if success {
		m.limiter.recordSuccess(limiterKey)
	} else {
		m.limiter.recordFailure(limiterKey)
	}
	s.isAdmin = success
	c.Send("client-registered", registerAdminReply{Success: success})
	return nil
}

func (m *Manager) handleSources(ctx context.Context, c *transport.Conn, msg transport.Message) error {
	var req sourcesRequest
	if err := msg.Decode(&req); err != nil {
		return fmt.Errorf("sources: %w", err)
	}
	room, _, ok := currentRoom(m, c)
	if !ok {
		return nil
	}

	added := room.setSourcesPrio(req.Sources, m.registry)
	for _, name := range added {
		room.sendToPlayback("request-config", requestConfigPayload{Source: name})
	}
	return nil
}

func (m *Manager) handleConfigChunk(ctx context.Context, c *transport.Conn, msg transport.Message) error {
	var req configChunkRequest
	if err := msg.Decode(&req); err != nil {
		return fmt.Errorf("config-chunk: %w", err)
	}
	room, _, ok := currentRoom(m, c)
	if !ok {
		return nil
	}
	return room.applyConfigChunk(req.Source, req.Config, m.registry)
}

func (m *Manager) handleConfig(ctx context.Context, c *transport.Conn, msg transport.Message) error {
	var req configRequest
	if err := msg.Decode(&req); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	room, _, ok := currentRoom(m, c)
	if !ok {
		return nil
	}
	return room.applyConfigChunk(req.Source, req.Config, m.registry)
}

func (m *Manager) handleGetState(ctx context.Context, c *transport.Conn, msg transport.Message) error {
	room, _, ok := currentRoom(m, c)
	if !ok {
		return nil
	}
	c.Send("state", room.Snapshot())
	return nil
}

func (m *Manager) handleAppend(ctx context.Context, c *transport.Conn, msg transport.Message) error {
	var req appendRequest
	if err := msg.Decode(&req); err != nil {
		return fmt.Errorf("append: %w", err)
	}
	room, _, ok := currentRoom(m, c)
	if !ok {
		return nil
	}

	src, ok := room.sourceByName(req.Source)
	if !ok {
		c.SendError("unknown source: " + req.Source)
		return nil
	}

	entry, err := src.Resolve(ctx, req.Performer, req.ID)
	if err != nil {
		return fmt.Errorf("append: resolve failed: %w", err)
	}

	cfg := room.Config()
	if cfg.LastSong != nil {
		projected := room.projectedStart(cfg.PreviewDuration)
		if cfg.LastSong.Before(projected) {
			if m.metrics != nil {
				m.metrics.AppendsRejected.Inc()
			}
			c.Send("msg", msgPayload{Msg: fmt.Sprintf("The song queue ends at %s.", projected.Format("15:04"))})
			return nil
		}
	}

	room.Queue.Append(entry)
	if m.metrics != nil {
		m.metrics.QueueDepth.WithLabelValues(room.RoomID).Set(float64(room.Queue.Len()))
	}
	room.BroadcastState()
	room.sendToPlayback("buffer", entry)
	return nil
}

func (m *Manager) handleMetaInfo(ctx context.Context, c *transport.Conn, msg transport.Message) error {
	var req metaInfoRequest
	if err := msg.Decode(&req); err != nil {
		return fmt.Errorf("meta-info: %w", err)
	}
	room, _, ok := currentRoom(m, c)
	if !ok {
		return nil
	}

	id, err := model.ParseUUID(req.UUID)
	if err != nil {
		return fmt.Errorf("meta-info: %w", err)
	}

	room.Queue.Update(id, func(e *model.Entry) {
		applyMetaFields(e, req.Meta)
	})
	room.BroadcastState()
	return nil
}

func applyMetaFields(e *model.Entry, meta map[string]any) {
	if v, ok := meta["duration"]; ok {
		if f, ok := v.(float64); ok {
			e.Duration = int(f)
		}
	}
	if v, ok := meta["title"].(string); ok && v != "" {
		e.Title = v
	}
	if v, ok := meta["artist"].(string); ok && v != "" {
		e.Artist = v
	}
	if v, ok := meta["album"].(string); ok && v != "" {
		e.Album = v
	}
}

func (m *Manager) handleGetFirst(ctx context.Context, c *transport.Conn, msg transport.Message) error {
	room, _, ok := currentRoom(m, c)
	if !ok {
		return nil
	}
	m.playNextHead(ctx, room)
	return nil
}

func (m *Manager) handlePopThenGetNext(ctx context.Context, c *transport.Conn, msg transport.Message) error {
	room, _, ok := currentRoom(m, c)
	if !ok {
		return nil
	}

	popped, err := room.Queue.PopFront(ctx)
	if err != nil {
		return nil
	}
	room.AppendRecent(popped)
	room.BroadcastState()

	m.playNextHead(ctx, room)
	return nil
}

// playNextHead peeks the (now-current) head, stamps started_at exactly
// once, sends play to the playback client, and broadcasts state again so
// web clients observe the stamped head — the deliberate double broadcast
// called out in pop-then-get-next's contract.
func (m *Manager) playNextHead(ctx context.Context, room *RoomState) {
	if room.Queue.Len() == 0 {
		return
	}
	peekCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	head, err := room.Queue.Peek(peekCtx)
	if err != nil {
		return
	}
	head.Stamp()
	room.sendToPlayback("play", head)
	room.BroadcastState()
}

func (m *Manager) handleSkipCurrent(ctx context.Context, c *transport.Conn, msg transport.Message) error {
	room, s, ok := currentRoom(m, c)
	if !ok || !s.isAdmin {
		slog.Warn("relay: non-admin attempted skip-current")
		return nil
	}
	room.sendToPlayback("skip-current", struct{}{})
	return nil
}

func (m *Manager) handleMoveUp(ctx context.Context, c *transport.Conn, msg transport.Message) error {
	var req moveUpRequest
	if err := msg.Decode(&req); err != nil {
		return fmt.Errorf("move-up: %w", err)
	}
	room, s, ok := currentRoom(m, c)
	if !ok || !s.isAdmin {
		slog.Warn("relay: non-admin attempted move-up")
		return nil
	}
	id, err := model.ParseUUID(req.UUID)
	if err != nil {
		return fmt.Errorf("move-up: %w", err)
	}
	room.Queue.MoveUp(id)
	room.BroadcastState()
	return nil
}

func (m *Manager) handleSkip(ctx context.Context, c *transport.Conn, msg transport.Message) error {
	var req skipRequest
	if err := msg.Decode(&req); err != nil {
		return fmt.Errorf("skip: %w", err)
	}
	room, s, ok := currentRoom(m, c)
	if !ok || !s.isAdmin {
		slog.Warn("relay: non-admin attempted skip")
		return nil
	}
	id, err := model.ParseUUID(req.UUID)
	if err != nil {
		return fmt.Errorf("skip: %w", err)
	}
	room.Queue.Remove(id)
	room.BroadcastState()
	return nil
}

func (m *Manager) handleSearch(ctx context.Context, c *transport.Conn, msg transport.Message) error {
	var req searchRequest
	if err := msg.Decode(&req); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	room, _, ok := currentRoom(m, c)
	if !ok {
		c.Send("search-results", searchResultsReply{})
		return nil
	}

	names := room.sourcesSnapshot()
	resultsBySource := make([][]model.Result, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		src, ok := room.sourceByName(name)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(i int, src source.Source) {
			defer wg.Done()
			results, err := src.Search(ctx, req.Query)
			if err != nil {
				slog.Warn("relay: source search failed", "source", names[i], "error", err)
				return
			}
			resultsBySource[i] = results
		}(i, src)
	}
	wg.Wait()

	var all []model.Result
	for _, results := range resultsBySource {
		all = append(all, results...)
	}
	c.Send("search-results", searchResultsReply{Results: all})
	return nil
}
