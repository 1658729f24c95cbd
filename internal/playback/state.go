// Package playback implements the client-side coordinator: the event-driven
// loop on the venue machine that owns the downstream side of the song
// queue, drives each media source's buffer/play state machine, and
// interacts with the external player subprocess via internal/player.
package playback

import (
	"sync"

	"github.com/google/uuid"
	"github.com/syng-dev/syng/internal/model"
	"github.com/syng-dev/syng/internal/source"
)

// downloadedFilesEntry pairs a buffered artifact with the source that
// produced it, so SkipCurrent and Play can be routed back to the right
// source instance.
type downloadedFilesEntry struct {
	sourceName string
	file       *source.DownloadedFile
}

// State is the coordinator's in-memory view of the room, mirroring the
// relay's last-pushed {queue, recent} and tracking in-flight buffer work.
// The coordinator exclusively owns this value; the relay never sees it.
type State struct {
	mu sync.RWMutex

	roomID string
	queue  []*model.Entry
	recent []*model.Entry

	currentSource string

	downloaded map[uuid.UUID]downloadedFilesEntry
}

// NewState returns an empty State.
func NewState() *State {
	return &State{downloaded: make(map[uuid.UUID]downloadedFilesEntry)}
}

func (s *State) setRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = roomID
}

func (s *State) replaceSnapshot(queue, recent []*model.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = queue
	s.recent = recent
}

func (s *State) snapshotQueue() []*model.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*model.Entry{}, s.queue...)
}

func (s *State) snapshotRecent() []*model.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*model.Entry{}, s.recent...)
}

func (s *State) recordDownload(id uuid.UUID, sourceName string, df *source.DownloadedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloaded[id] = downloadedFilesEntry{sourceName: sourceName, file: df}
}

func (s *State) lookupDownload(id uuid.UUID) (downloadedFilesEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.downloaded[id]
	return e, ok
}

func (s *State) forgetDownload(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.downloaded, id)
}
