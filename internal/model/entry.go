// Package model holds the wire-level data types shared by the relay service,
// the playback coordinator, and every source adapter: Entry, Result, and the
// per-room configuration blob.
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entry is a single queued song. UUID is assigned once at creation and never
// changes; (Source, ID) may repeat across multiple Entries.
type Entry struct {
	UUID      uuid.UUID  `json:"uuid"`
	ID        string     `json:"id"`
	Source    string     `json:"source"`
	Performer string     `json:"performer"`
	Title     string     `json:"title"`
	Artist    string     `json:"artist"`
	Album     string     `json:"album"`
	Duration  int        `json:"duration"`
	StartedAt *time.Time `json:"started_at"`
	Failed    bool       `json:"failed"`
	Skip      bool       `json:"skip"`
}

// NewEntry creates an Entry with a freshly assigned UUID. Duration is left at
// zero until metadata resolves (Buffer handler).
func NewEntry(source, id, performer, title, artist, album string) *Entry {
	return &Entry{
		UUID:      uuid.New(),
		ID:        id,
		Source:    source,
		Performer: performer,
		Title:     title,
		Artist:    artist,
		Album:     album,
	}
}

// Clone returns a shallow copy safe to hand to a serializer without racing
// with subsequent in-place mutation of the original.
func (e *Entry) Clone() *Entry {
	cp := *e
	if e.StartedAt != nil {
		t := *e.StartedAt
		cp.StartedAt = &t
	}
	return &cp
}

// Stamp sets StartedAt to now, if it has not already been set. Returns false
// if the entry was already stamped (the transition must happen exactly once).
func (e *Entry) Stamp() bool {
	if e.StartedAt != nil {
		return false
	}
	now := time.Now()
	e.StartedAt = &now
	return true
}

// wireEntry mirrors Entry's JSON shape but is kept separate so that UUID
// parsing failures on the wire (clients that echo back malformed text) can be
// handled without poisoning the zero-value Entry.
type wireEntry struct {
	UUID      string     `json:"uuid"`
	ID        string     `json:"id"`
	Source    string     `json:"source"`
	Performer string     `json:"performer"`
	Title     string     `json:"title"`
	Artist    string     `json:"artist"`
	Album     string     `json:"album"`
	Duration  int        `json:"duration"`
	StartedAt *time.Time `json:"started_at"`
	Failed    bool       `json:"failed"`
	Skip      bool       `json:"skip"`
}

// MarshalJSON renders UUID as the canonical hyphenated string form.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEntry{
		UUID:      e.UUID.String(),
		ID:        e.ID,
		Source:    e.Source,
		Performer: e.Performer,
		Title:     e.Title,
		Artist:    e.Artist,
		Album:     e.Album,
		Duration:  e.Duration,
		StartedAt: e.StartedAt,
		Failed:    e.Failed,
		Skip:      e.Skip,
	})
}

// UnmarshalJSON accepts the UUID field as a canonical string, ignoring
// unknown fields and leaving missing ones at their zero value.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var w wireEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	id, err := ParseUUID(w.UUID)
	if err != nil {
		return err
	}
	e.UUID = id
	e.ID = w.ID
	e.Source = w.Source
	e.Performer = w.Performer
	e.Title = w.Title
	e.Artist = w.Artist
	e.Album = w.Album
	e.Duration = w.Duration
	e.StartedAt = w.StartedAt
	e.Failed = w.Failed
	e.Skip = w.Skip
	return nil
}

// ParseUUID accepts either a canonical string or an empty string (treated as
// the nil UUID). Any other malformed input returns an error, which makes
// Entry.UnmarshalJSON fail as well.
func ParseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.UUID{}, nil
	}
	return uuid.Parse(s)
}
