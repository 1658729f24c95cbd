package source

import (
	"sync"

	"github.com/google/uuid"
)

// BufferTracker guards "am I already buffering this entry" so concurrent
// Buffer calls for the same entry id never race to start two downloads: the
// first caller becomes the downloader, every other caller becomes a waiter
// on the same DownloadedFile.Ready. One BufferTracker belongs to one Source
// instance.
type BufferTracker struct {
	mu    sync.Mutex
	files map[uuid.UUID]*DownloadedFile
	tasks map[uuid.UUID]func() // cancel functions for in-flight downloads
}

// NewBufferTracker returns an empty BufferTracker.
func NewBufferTracker() *BufferTracker {
	return &BufferTracker{
		files: make(map[uuid.UUID]*DownloadedFile),
		tasks: make(map[uuid.UUID]func()),
	}
}

// Start returns the DownloadedFile for id. owner reports whether the caller
// is the first to ask — the owner must actually perform the download and
// call Finish; every subsequent caller just waits on the returned
// DownloadedFile.Ready.
func (t *BufferTracker) Start(id uuid.UUID, cancel func()) (df *DownloadedFile, owner bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.files[id]; ok {
		return existing, false
	}

	df = NewDownloadedFile()
	t.files[id] = df
	t.tasks[id] = cancel
	return df, true
}

// Finish marks the entry's DownloadedFile complete or failed and closes
// Ready exactly once. Must be called by the owner returned from Start.
func (t *BufferTracker) Finish(id uuid.UUID, videoPath, audioPath string, failed bool) {
	t.mu.Lock()
	df, ok := t.files[id]
	delete(t.tasks, id)
	t.mu.Unlock()
	if !ok {
		return
	}

	df.VideoPath = videoPath
	df.AudioPath = audioPath
	df.Complete = !failed
	df.Failed = failed
	close(df.Ready)
}

// Cancel invokes the in-flight download's cancel function, if any. The
// DownloadedFile for id stays tracked: the owner's Finish still closes its
// Ready, and later Buffer calls for id get that same DownloadedFile back.
func (t *BufferTracker) Cancel(id uuid.UUID) {
	t.mu.Lock()
	cancel, ok := t.tasks[id]
	delete(t.tasks, id)
	t.mu.Unlock()
	if ok && cancel != nil {
		cancel()
	}
}

// Get returns the tracked DownloadedFile for id, if any.
func (t *BufferTracker) Get(id uuid.UUID) (*DownloadedFile, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	df, ok := t.files[id]
	return df, ok
}

// ChunkSize is the practical per-message size limit for a GetConfig blob
// before it must be split into chunks: some source configs, e.g. a full
// file index, can exceed a single message.
const ChunkSize = 32 * 1024

// ChunkConfig splits the JSON-encodable map by naively partitioning its
// top-level keys across chunks of at most ChunkSize estimated bytes; a
// single key whose estimate exceeds ChunkSize gets a chunk of its own. The
// relay passes each chunk to the source's AddToConfig as it arrives.
func ChunkConfig(cfg map[string]any) []map[string]any {
	// Small configs never need to split.
	if estimateSize(cfg) <= ChunkSize {
		return []map[string]any{cfg}
	}

	var chunks []map[string]any
	current := make(map[string]any)
	currentSize := 0
	for k, v := range cfg {
		entrySize := estimateSize(map[string]any{k: v})
		if currentSize > 0 && currentSize+entrySize > ChunkSize {
			chunks = append(chunks, current)
			current = make(map[string]any)
			currentSize = 0
		}
		current[k] = v
		currentSize += entrySize
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

// estimateSize is a cheap, approximate byte-size estimate used only to
// decide chunk boundaries; it does not need to be exact.
func estimateSize(v map[string]any) int {
	n := 0
	for k, val := range v {
		n += len(k) + 8
		if s, ok := val.(string); ok {
			n += len(s)
		} else {
			n += 32
		}
	}
	return n
}
