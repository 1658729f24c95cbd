// Package s3 implements a media source backed by a pre-populated object
// store bucket (conceptually AWS S3 or an S3-compatible store). Unlike file
// and youtube, s3 does not index or download anything itself: search and
// resolve operate against a static, operator-supplied catalog pushed through
// the same chunked-config transport used for the file source's root_dir, and
// playback reads directly from a pre-signed or public object URL, reusing
// the same chunked-config transport defined in internal/source.ChunkConfig.
package s3

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/syng-dev/syng/internal/model"
	"github.com/syng-dev/syng/internal/source"
)

// Name is the registered source name.
const Name = "s3"

// catalogEntry is one object in the configured bucket catalog.
type catalogEntry struct {
	key    string
	url    string
	title  string
	artist string
	album  string
}

// Source serves media from a static catalog of object keys. Config:
//
//	{
//	  "bucket":       "songs",
//	  "endpoint":     "https://s3.example.com",
//	  "public_base":  "https://cdn.example.com/songs",
//	  "catalog": [
//	    {"key": "...", "title": "...", "artist": "...", "album": "..."}
//	  ]
//	}
type Source struct {
	mu         sync.RWMutex
	bucket     string
	endpoint   string
	publicBase string
	catalog    map[string]*catalogEntry
	order      []string
}

// New constructs an unconfigured s3 Source.
func New() source.Source {
	return &Source{catalog: make(map[string]*catalogEntry)}
}

func (s *Source) Name() string { return Name }

func (s *Source) Configure(ctx context.Context, raw map[string]any) error {
	bucket, _ := raw["bucket"].(string)
	if bucket == "" {
		return fmt.Errorf("%w: s3 source requires bucket", source.ErrConfigInvalid)
	}
	endpoint, _ := raw["endpoint"].(string)
	publicBase, _ := raw["public_base"].(string)
	if publicBase == "" {
		return fmt.Errorf("%w: s3 source requires public_base", source.ErrConfigInvalid)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bucket = bucket
	s.endpoint = endpoint
	s.publicBase = publicBase

	// catalog is merged, not replaced, since it may arrive across several
	// config-chunk messages (one "catalog" list per chunk).
	rawCatalog, ok := raw["catalog"].([]any)
	if !ok {
		return nil
	}
	for _, item := range rawCatalog {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		key, _ := m["key"].(string)
		if key == "" {
			continue
		}
		entry := &catalogEntry{
			key:    key,
			url:    s.publicBase + "/" + key,
			title:  stringField(m, "title"),
			artist: stringField(m, "artist"),
			album:  stringField(m, "album"),
		}
		if _, exists := s.catalog[key]; !exists {
			s.order = append(s.order, key)
		}
		s.catalog[key] = entry
	}
	return nil
}

func stringField(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func (s *Source) Search(ctx context.Context, query string) ([]model.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]model.Result, 0, len(s.order))
	for _, key := range s.order {
		e := s.catalog[key]
		results = append(results, model.Result{
			ID:     e.key,
			Source: Name,
			Title:  e.title,
			Artist: e.artist,
		})
	}
	return source.RankResults(query, results), nil
}

func (s *Source) Resolve(ctx context.Context, performer, id string) (*model.Entry, error) {
	s.mu.RLock()
	e, ok := s.catalog[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("s3 source: unknown key %q", id)
	}
	return model.NewEntry(Name, id, performer, e.title, e.artist, e.album), nil
}

func (s *Source) GetMissingMetadata(ctx context.Context, entry *model.Entry) (*model.Entry, error) {
	// The catalog is assumed complete at configure time; nothing further to
	// resolve asynchronously.
	return &model.Entry{}, nil
}

func (s *Source) Buffer(ctx context.Context, entry *model.Entry) *source.DownloadedFile {
	df := source.NewDownloadedFile()

	s.mu.RLock()
	e, ok := s.catalog[entry.ID]
	s.mu.RUnlock()

	if !ok {
		df.Failed = true
		close(df.Ready)
		return df
	}
	// Playback reads the object URL directly; there is no local download
	// step, so Buffer completes synchronously with the URL standing in for
	// a file path.
	df.VideoPath = e.url
	df.Complete = true
	close(df.Ready)
	return df
}

func (s *Source) Play(ctx context.Context, entry *model.Entry) error {
	return nil
}

func (s *Source) SkipCurrent(entry *model.Entry) {
	// Buffer is synchronous and already completed by the time SkipCurrent
	// could run; nothing to cancel.
}

func (s *Source) GetConfig() ([]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	catalog := make([]any, 0, len(s.order))
	for _, key := range s.order {
		e := s.catalog[key]
		catalog = append(catalog, map[string]any{
			"key":    e.key,
			"title":  e.title,
			"artist": e.artist,
			"album":  e.album,
		})
	}
	sort.Strings(s.order)
	return source.ChunkConfig(map[string]any{
		"bucket":      s.bucket,
		"endpoint":    s.endpoint,
		"public_base": s.publicBase,
		"catalog":     catalog,
	}), nil
}

func (s *Source) AddToConfig(chunk map[string]any) error {
	return s.Configure(context.Background(), chunk)
}
