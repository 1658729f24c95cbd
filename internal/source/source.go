// Package source defines the media-source adapter contract (search,
// resolve, buffer, play, skip, metadata) and the registry of named source
// constructors. Concrete sources (file, youtube, s3) live in sibling
// packages and register themselves through Register.
package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/syng-dev/syng/internal/model"
)

// ErrConfigInvalid is returned by Configure when the supplied configuration
// blob fails validation.
var ErrConfigInvalid = errors.New("source: invalid configuration")

// DownloadedFile describes the local artifacts Buffer produced for one
// entry. Ready is closed exactly once, on both the success and failure path,
// so callers can select on it instead of polling Complete/Failed.
type DownloadedFile struct {
	Ready     chan struct{}
	VideoPath string
	AudioPath string // optional, e.g. a separate instrumental/backing track
	Complete  bool
	Failed    bool
}

// NewDownloadedFile returns a DownloadedFile with an open Ready channel.
func NewDownloadedFile() *DownloadedFile {
	return &DownloadedFile{Ready: make(chan struct{})}
}

// Source is the closed capability set every media-source plugin implements.
// A concrete Source instance is configured once via Configure and then
// driven by the relay (Search, Resolve) and the playback coordinator
// (GetMissingMetadata, Buffer, Play, SkipCurrent).
type Source interface {
	// Name returns the plugin's registered name.
	Name() string

	// Configure validates and stores source-specific configuration. It may
	// fail with an error wrapping ErrConfigInvalid.
	Configure(ctx context.Context, raw map[string]any) error

	// Search returns ranked results for a whitespace-separated query
	// (quotes are not interpreted): a result
	// matches when every lowercased token of query is a substring of the
	// lowercased "title artist"; results are ordered by ascending rank
	// (fewer missed tokens first), ties broken by the source's natural
	// order.
	Search(ctx context.Context, query string) ([]model.Result, error)

	// Resolve turns a result id into a fully populated Entry.
	Resolve(ctx context.Context, performer, id string) (*model.Entry, error)

	// GetMissingMetadata fills in fields not resolvable at search time
	// (typically Duration). The returned Entry only has the fields that
	// changed populated; callers merge it into their copy.
	GetMissingMetadata(ctx context.Context, entry *model.Entry) (*model.Entry, error)

	// Buffer prepares local media for entry. It is idempotent and safe
	// against concurrent calls for the same entry id: only the first
	// caller downloads, the rest observe the same DownloadedFile.Ready.
	Buffer(ctx context.Context, entry *model.Entry) *DownloadedFile

	// Play is the per-source hook the playback coordinator calls after the
	// external player (internal/player, launched by the coordinator, not by
	// Play) has exited for entry. It is not called for entries marked
	// Failed or Skip.
	Play(ctx context.Context, entry *model.Entry) error

	// SkipCurrent cancels any in-flight buffer task for entry. Marking the
	// entry as skipped and terminating the player are done by the playback
	// coordinator.
	SkipCurrent(entry *model.Entry)

	// GetConfig returns the source's configuration for transport to the
	// relay. If the encoded form would exceed a practical message size,
	// multiple chunks are returned instead of one.
	GetConfig() ([]map[string]any, error)

	// AddToConfig accepts one chunk of a chunked configuration transfer.
	AddToConfig(chunk map[string]any) error
}

// Constructor builds a fresh, unconfigured Source instance.
type Constructor func() Source

// Registry maps source names to constructors. It is a plain container,
// threaded explicitly through the relay and playback coordinator rather than
// kept as a package-level singleton.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register adds a named constructor. Re-registering a name overwrites the
// previous constructor.
func (r *Registry) Register(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctors[name] = ctor
}

// New constructs a fresh Source instance for name, or an error if name is
// not registered.
func (r *Registry) New(name string) (Source, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("source: unknown source %q", name)
	}
	return ctor(), nil
}

// Names returns every registered source name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ctors))
	for n := range r.ctors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RankResults sorts results in place by ascending rank against query,
// dropping results that don't match every token of query. Ties keep their
// relative (natural) order since sort.SliceStable is used.
func RankResults(query string, results []model.Result) []model.Result {
	type scored struct {
		result model.Result
		rank   float64
	}
	scoredList := make([]scored, 0, len(results))
	for _, r := range results {
		rank, ok := model.Rank(query, r.Title, r.Artist)
		if !ok {
			continue
		}
		scoredList = append(scoredList, scored{result: r, rank: rank})
	}
	sort.SliceStable(scoredList, func(i, j int) bool {
		return scoredList[i].rank < scoredList[j].rank
	})
	out := make([]model.Result, len(scoredList))
	for i, s := range scoredList {
		out[i] = s.result
	}
	return out
}
