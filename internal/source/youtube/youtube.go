// Package youtube implements a media source backed by an external
// downloader subprocess (conceptually yt-dlp): exec.CommandContext, piped
// stdout/stderr, and context-driven cancellation.
package youtube

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/syng-dev/syng/internal/model"
	"github.com/syng-dev/syng/internal/source"
)

// Name is the registered source name.
const Name = "youtube"

// Source searches YouTube through the YouTube Data API v3 search endpoint
// (which needs api_key) and downloads resolved videos with an external "downloader" binary
// (yt-dlp by default) into a cache directory.
//
// Config: {"downloader": "yt-dlp", "cache_dir": "<path>", "api_key": "..."}.
type Source struct {
	mu         sync.RWMutex
	downloader string
	cacheDir   string
	apiKey     string

	httpClient *http.Client
	tracker    *source.BufferTracker
}

// New constructs an unconfigured youtube Source.
func New() source.Source {
	return &Source{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		tracker:    source.NewBufferTracker(),
	}
}

func (s *Source) Name() string { return Name }

func (s *Source) Configure(ctx context.Context, raw map[string]any) error {
	downloader, _ := raw["downloader"].(string)
	if downloader == "" {
		downloader = "yt-dlp"
	}
	cacheDir, _ := raw["cache_dir"].(string)
	if cacheDir == "" {
		return fmt.Errorf("%w: youtube source requires cache_dir", source.ErrConfigInvalid)
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return fmt.Errorf("%w: cannot create cache_dir %q: %v", source.ErrConfigInvalid, cacheDir, err)
	}
	apiKey, _ := raw["api_key"].(string)

	s.mu.Lock()
	s.downloader = downloader
	s.cacheDir = cacheDir
	s.apiKey = apiKey
	s.mu.Unlock()
	return nil
}

// searchAPIResponse is the subset of the YouTube Data API v3 "search" response
// this source needs.
type searchAPIResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title        string `json:"title"`
			ChannelTitle string `json:"channelTitle"`
		} `json:"snippet"`
	} `json:"items"`
}

func (s *Source) Search(ctx context.Context, query string) ([]model.Result, error) {
	s.mu.RLock()
	apiKey := s.apiKey
	s.mu.RUnlock()

	if apiKey == "" {
		// No API key configured: searching is unavailable but must not take
		// down the overall fan-out search, so the failure stays isolated to
		// this source and is only logged.
		slog.Warn("youtube source: search unavailable, no api_key configured")
		return nil, nil
	}

	endpoint := "https://www.googleapis.com/youtube/v3/search?" + url.Values{
		"part":       {"snippet"},
		"type":       {"video"},
		"maxResults": {"10"},
		"q":          {query},
		"key":        {apiKey},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("youtube source: search request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed searchAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("youtube source: decoding search response: %w", err)
	}

	results := make([]model.Result, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		results = append(results, model.Result{
			ID:     "https://www.youtube.com/watch?v=" + item.ID.VideoID,
			Source: Name,
			Title:  item.Snippet.Title,
			Artist: item.Snippet.ChannelTitle,
		})
	}
	return source.RankResults(query, results), nil
}

func (s *Source) Resolve(ctx context.Context, performer, id string) (*model.Entry, error) {
	// Title/artist for a bare URL append are unknown until GetMissingMetadata
	// or the downloader's own probe step runs; Resolve only needs to produce
	// a stable Entry carrying the source id.
	return model.NewEntry(Name, id, performer, id, "", ""), nil
}

func (s *Source) GetMissingMetadata(ctx context.Context, entry *model.Entry) (*model.Entry, error) {
	s.mu.RLock()
	downloader := s.downloader
	s.mu.RUnlock()

	out, err := exec.CommandContext(ctx, downloader, "--print", "%(title)s\t%(artist,uploader)s\t%(duration)s", "--skip-download", entry.ID).Output()
	if err != nil {
		return nil, fmt.Errorf("youtube source: metadata probe failed: %w", err)
	}

	fields := strings.SplitN(strings.TrimSpace(string(out)), "\t", 3)
	update := &model.Entry{}
	if len(fields) > 0 && fields[0] != "" {
		update.Title = fields[0]
	}
	if len(fields) > 1 {
		update.Artist = fields[1]
	}
	if len(fields) > 2 {
		if secs, err := strconv.Atoi(strings.TrimSpace(fields[2])); err == nil {
			update.Duration = secs
		}
	}
	return update, nil
}

func (s *Source) Buffer(ctx context.Context, entry *model.Entry) *source.DownloadedFile {
	dlCtx, cancel := context.WithCancel(ctx)
	df, owner := s.tracker.Start(entry.UUID, cancel)
	if !owner {
		cancel()
		return df
	}

	go s.download(dlCtx, entry)
	return df
}

func (s *Source) download(ctx context.Context, entry *model.Entry) {
	s.mu.RLock()
	downloader, cacheDir := s.downloader, s.cacheDir
	s.mu.RUnlock()

	outputTemplate := filepath.Join(cacheDir, entry.UUID.String()+".%(ext)s")
	cmd := exec.CommandContext(ctx, downloader, "-f", "bestvideo+bestaudio/best", "-o", outputTemplate, entry.ID)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		slog.Error("youtube source: failed to create stdout pipe", "error", err)
		s.tracker.Finish(entry.UUID, "", "", true)
		return
	}

	if err := cmd.Start(); err != nil {
		slog.Error("youtube source: failed to start downloader", "error", err)
		s.tracker.Finish(entry.UUID, "", "", true)
		return
	}

	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			slog.Debug("youtube downloader", "entry", entry.UUID, "line", scanner.Text())
		}
	}()

	waitErr := cmd.Wait()
	if waitErr != nil {
		if ctx.Err() != nil {
			// Cancelled by SkipCurrent, not a genuine download failure.
			s.tracker.Finish(entry.UUID, "", "", true)
			return
		}
		slog.Error("youtube source: download failed", "entry", entry.UUID, "error", waitErr, "stderr", stderr.String())
		s.tracker.Finish(entry.UUID, "", "", true)
		return
	}

	videoPath := filepath.Join(cacheDir, entry.UUID.String()+".mp4")
	s.tracker.Finish(entry.UUID, videoPath, "", false)
}

func (s *Source) Play(ctx context.Context, entry *model.Entry) error {
	// The playback coordinator drives the external player itself (see
	// internal/player) once the DownloadedFile is Ready; nothing further to
	// do here.
	return nil
}

func (s *Source) SkipCurrent(entry *model.Entry) {
	s.tracker.Cancel(entry.UUID)
}

func (s *Source) GetConfig() ([]map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return source.ChunkConfig(map[string]any{
		"downloader": s.downloader,
		"cache_dir":  s.cacheDir,
		"api_key":    s.apiKey,
	}), nil
}

func (s *Source) AddToConfig(chunk map[string]any) error {
	return s.Configure(context.Background(), chunk)
}
