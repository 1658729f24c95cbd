package model

import "time"

// WaitingRoomPolicy controls whether performers must wait in a lobby before
// their first song is accepted.
type WaitingRoomPolicy string

const (
	WaitingRoomForced   WaitingRoomPolicy = "forced"
	WaitingRoomOptional WaitingRoomPolicy = "optional"
	WaitingRoomNone     WaitingRoomPolicy = "none"
)

// QRPosition places the room's join QR-code overlay on the playback client's
// screen. It is a client-local display concern, not broadcast to the room.
type QRPosition string

const (
	QRTopLeft     QRPosition = "top-left"
	QRTopRight    QRPosition = "top-right"
	QRBottomLeft  QRPosition = "bottom-left"
	QRBottomRight QRPosition = "bottom-right"
)

// LogLevel mirrors the persisted config's log_level enum.
type LogLevel string

const (
	LogDebug    LogLevel = "debug"
	LogInfo     LogLevel = "info"
	LogWarning  LogLevel = "warning"
	LogError    LogLevel = "error"
	LogCritical LogLevel = "critical"
)

// RoomConfig is the per-room policy broadcast to clients as part of RoomState.
type RoomConfig struct {
	PreviewDuration   int               `json:"preview_duration"`
	LastSong          *time.Time        `json:"last_song"`
	WaitingRoomPolicy WaitingRoomPolicy `json:"waiting_room_policy"`
	BufferInAdvance   int               `json:"buffer_in_advance"`
	AllowCollabMode   bool              `json:"allow_collab_mode"`
}

// DefaultRoomConfig returns the documented defaults for a freshly created
// room: a 3-second preview, buffer two songs ahead, no cutoff, no collab
// mode, and an optional waiting room.
func DefaultRoomConfig() RoomConfig {
	return RoomConfig{
		PreviewDuration:   3,
		LastSong:          nil,
		WaitingRoomPolicy: WaitingRoomOptional,
		BufferInAdvance:   2,
		AllowCollabMode:   false,
	}
}

// Version is the protocol (major, minor, patch) advertised at handshake.
// Registration is rejected when the major component differs from the
// client's.
var Version = [3]int{2, 2, 0}

// VersionCompatible reports whether a client-advertised version is
// compatible with this server: only the major component is enforced.
func VersionCompatible(major int) bool {
	return major == Version[0]
}
