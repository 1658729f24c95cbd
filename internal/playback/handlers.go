package playback

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/syng-dev/syng/internal/model"
	"github.com/syng-dev/syng/internal/transport"
)

type clientRegisteredPayload struct {
	Success bool   `json:"success"`
	Room    string `json:"room"`
}

// onClientRegistered: on success, store room, advertise configured source
// names, and if nothing is currently playing, prime the pipeline with
// get-first. On failure, close the connection; Run then reconnects after
// its backoff.
func (co *Coordinator) onClientRegistered(ctx context.Context, c *transport.Conn, msg transport.Message) error {
	var payload clientRegisteredPayload
	if err := msg.Decode(&payload); err != nil {
		return fmt.Errorf("client-registered: %w", err)
	}
	if !payload.Success {
		slog.Warn("playback: relay rejected registration", "room", co.room)
		c.Close()
		return nil
	}

	co.state.setRoom(payload.Room)
	c.Send("sources", sourcesPayload{Sources: co.sourceNames()})

	co.current.mu.Lock()
	playing := co.current.entry != nil
	co.current.mu.Unlock()
	if !playing {
		c.Send("get-first", struct{}{})
	}
	return nil
}

type sourcesPayload struct {
	Sources []string `json:"sources"`
}

type requestConfigPayload struct {
	Source string `json:"source"`
}

func (co *Coordinator) onRequestConfig(ctx context.Context, c *transport.Conn, msg transport.Message) error {
	var req requestConfigPayload
	if err := msg.Decode(&req); err != nil {
		return fmt.Errorf("request-config: %w", err)
	}

	src, ok := co.sourceByName(req.Source)
	if !ok {
		return nil
	}
	chunks, err := src.GetConfig()
	if err != nil {
		return fmt.Errorf("request-config: %w", err)
	}
	for i, chunk := range chunks {
		c.Send("config-chunk", configChunkPayload{
			Source: req.Source,
			Config: chunk,
			Number: i,
			Total:  len(chunks),
		})
	}
	return nil
}

type configChunkPayload struct {
	Source string         `json:"source"`
	Config map[string]any `json:"config"`
	Number int            `json:"number"`
	Total  int            `json:"total"`
}

type statePayload struct {
	Queue  []*model.Entry `json:"queue"`
	Recent []*model.Entry `json:"recent"`
}

// onState replaces the local snapshots and proactively buffers the first
// bufferInAdvance entries.
func (co *Coordinator) onState(ctx context.Context, c *transport.Conn, msg transport.Message) error {
	var payload statePayload
	if err := msg.Decode(&payload); err != nil {
		return fmt.Errorf("state: %w", err)
	}
	co.state.replaceSnapshot(payload.Queue, payload.Recent)

	limit := co.bufferInAdvance
	if limit > len(payload.Queue) {
		limit = len(payload.Queue)
	}
	for i := 0; i < limit; i++ {
		co.startBuffer(ctx, payload.Queue[i])
	}
	return nil
}

func (co *Coordinator) startBuffer(ctx context.Context, entry *model.Entry) {
	src, ok := co.sourceByName(entry.Source)
	if !ok {
		slog.Warn("playback: no such source configured", "source", entry.Source)
		return
	}
	if _, already := co.state.lookupDownload(entry.UUID); already {
		return
	}
	df := src.Buffer(ctx, entry)
	co.state.recordDownload(entry.UUID, entry.Source, df)
}

// onBuffer computes get_missing_metadata for entry and reports it back.
func (co *Coordinator) onBuffer(ctx context.Context, c *transport.Conn, msg transport.Message) error {
	var entry model.Entry
	if err := msg.Decode(&entry); err != nil {
		return fmt.Errorf("buffer: %w", err)
	}

	co.startBuffer(ctx, &entry)

	src, ok := co.sourceByName(entry.Source)
	if !ok {
		return nil
	}
	update, err := src.GetMissingMetadata(ctx, &entry)
	if err != nil {
		slog.Warn("playback: metadata probe failed", "entry", entry.UUID, "error", err)
		return nil
	}
	c.Send("meta-info", metaInfoPayload{UUID: entry.UUID.String(), Meta: metaFields(update)})
	return nil
}

type metaInfoPayload struct {
	UUID string         `json:"uuid"`
	Meta map[string]any `json:"meta"`
}

func metaFields(e *model.Entry) map[string]any {
	meta := make(map[string]any)
	if e.Duration != 0 {
		meta["duration"] = e.Duration
	}
	if e.Title != "" {
		meta["title"] = e.Title
	}
	if e.Artist != "" {
		meta["artist"] = e.Artist
	}
	if e.Album != "" {
		meta["album"] = e.Album
	}
	return meta
}

// onPlay runs the preview → play → pop-then-get-next cycle for one song.
// It blocks the event loop's handler goroutine for the song's duration by
// design: the coordinator plays exactly one song at a time, and the relay
// does not send another play until pop-then-get-next completes.
func (co *Coordinator) onPlay(ctx context.Context, c *transport.Conn, msg transport.Message) error {
	var entry model.Entry
	if err := msg.Decode(&entry); err != nil {
		return fmt.Errorf("play: %w", err)
	}

	src, ok := co.sourceByName(entry.Source)
	if !ok {
		c.Send("pop-then-get-next", struct{}{})
		return nil
	}

	co.current.mu.Lock()
	co.current.entry = &entry
	co.current.source = src
	co.current.mu.Unlock()
	defer func() {
		co.current.mu.Lock()
		co.current.entry = nil
		co.current.source = nil
		co.current.mu.Unlock()
	}()

	if co.previewDuration > 0 {
		slog.Info("playback: preview", "title", entry.Title, "artist", entry.Artist, "performer", entry.Performer)
		select {
		case <-ctx.Done():
			c.Send("pop-then-get-next", struct{}{})
			return nil
		case <-timeAfter(co.previewDuration):
		}
	}

	waitForReady(ctx, co.state, entry.UUID)

	download, hasDownload := co.state.lookupDownload(entry.UUID)
	if hasDownload && download.file.Failed {
		entry.Failed = true
		if co.metrics != nil {
			co.metrics.BufferFailures.WithLabelValues(entry.Source).Inc()
		}
	}

	// play(entry): precondition ready; failed/skip drops the cached
	// artifact without launching anything. The player subprocess is a
	// single-instance resource owned by the coordinator, so Source.Play is a
	// no-op and launching happens here.
	if !entry.Failed && !entry.Skip && hasDownload {
		if err := co.player.Play(ctx, download.file.VideoPath, download.file.AudioPath, entry.Title); err != nil {
			slog.Warn("playback: player failed", "entry", entry.UUID, "error", err)
		}
		if err := src.Play(ctx, &entry); err != nil {
			slog.Warn("playback: source play hook failed", "entry", entry.UUID, "error", err)
		}
	}
	co.state.forgetDownload(entry.UUID)

	// Unconditional: success, skip, or failure all advance the queue.
	c.Send("pop-then-get-next", struct{}{})
	return nil
}

func (co *Coordinator) onSkipCurrent(ctx context.Context, c *transport.Conn, msg transport.Message) error {
	co.current.mu.Lock()
	entry, src := co.current.entry, co.current.source
	co.current.mu.Unlock()

	if entry == nil || src == nil {
		return nil
	}
	entry.Skip = true
	src.SkipCurrent(entry)
	co.player.Terminate()
	return nil
}
