// Package config loads Syng's persisted configuration: a YAML file with a
// general "config" section and a per-source "sources" map, overlaid with
// environment variables; cmd/syng then applies CLI flags on top. Precedence,
// lowest to highest: file, environment, flags.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/syng-dev/syng/internal/model"
)

// General holds the top-level "config" section of the persisted YAML file.
type General struct {
	Server            string                  `yaml:"server"`
	Room              string                  `yaml:"room"`
	Secret            string                  `yaml:"secret"`
	PreviewDuration   int                     `yaml:"preview_duration"`
	LastSong          *time.Time              `yaml:"last_song"`
	WaitingRoomPolicy model.WaitingRoomPolicy `yaml:"waiting_room_policy"`
	Key               string                  `yaml:"key"`
	BufferInAdvance   int                     `yaml:"buffer_in_advance"`
	QRBoxSize         int                     `yaml:"qr_box_size"`
	QRPosition        model.QRPosition        `yaml:"qr_position"`
	ShowAdvanced      bool                    `yaml:"show_advanced"`
	LogLevel          model.LogLevel          `yaml:"log_level"`
	NextUpTime        int                     `yaml:"next_up_time"`
	AllowCollabMode   bool                    `yaml:"allow_collab_mode"`
}

// File is the on-disk shape: general options plus per-source option blobs.
type File struct {
	Config  General                   `yaml:"config"`
	Sources map[string]map[string]any `yaml:"sources"`
}

// defaults mirrors model.DefaultRoomConfig plus the CLI-only fields that
// have no RoomConfig analog.
func defaults() File {
	d := model.DefaultRoomConfig()
	return File{
		Config: General{
			PreviewDuration:   d.PreviewDuration,
			WaitingRoomPolicy: d.WaitingRoomPolicy,
			BufferInAdvance:   d.BufferInAdvance,
			AllowCollabMode:   d.AllowCollabMode,
			QRBoxSize:         8,
			QRPosition:        model.QRBottomRight,
			LogLevel:          model.LogInfo,
			NextUpTime:        5,
		},
		Sources: make(map[string]map[string]any),
	}
}

// Load reads path (if it exists), overlays recognized environment
// variables, and returns the merged File. A missing file is not an error:
// Load falls back to defaults so a fresh venue machine can still start.
func Load(path string) (*File, error) {
	f := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: reading %q: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("config: parsing %q: %w", path, err)
		}
	}

	applyEnvOverrides(&f.Config)
	return &f, nil
}

// Save writes f back to path as YAML.
func Save(path string, f *File) error {
	raw, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("config: writing %q: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(g *General) {
	if v := os.Getenv("SYNG_SERVER"); v != "" {
		g.Server = v
	}
	if v := os.Getenv("SYNG_ROOM"); v != "" {
		g.Room = v
	}
	if v := os.Getenv("SYNG_SECRET"); v != "" {
		g.Secret = v
	}
	if v := os.Getenv("SYNG_PREVIEW_DURATION"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			g.PreviewDuration = n
		}
	}
	if v := os.Getenv("SYNG_BUFFER_IN_ADVANCE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			g.BufferInAdvance = n
		}
	}
	if v := os.Getenv("SYNG_LOG_LEVEL"); v != "" {
		g.LogLevel = model.LogLevel(v)
	}
}

// RoomConfig projects the general section onto a model.RoomConfig, the
// subset the relay's RoomState actually needs.
func (f *File) RoomConfig() model.RoomConfig {
	return model.RoomConfig{
		PreviewDuration:   f.Config.PreviewDuration,
		LastSong:          f.Config.LastSong,
		WaitingRoomPolicy: f.Config.WaitingRoomPolicy,
		BufferInAdvance:   f.Config.BufferInAdvance,
		AllowCollabMode:   f.Config.AllowCollabMode,
	}
}
