package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syng-dev/syng/internal/model"
)

func TestNewRoomStateSeedsQueueAndRecent(t *testing.T) {
	e1 := model.NewEntry("file", "a.mp3", "Alice", "Song A", "", "")
	recent := []*model.Entry{model.NewEntry("file", "b.mp3", "Bob", "Song B", "", "")}

	room := NewRoomState("ABCD", "secret", []*model.Entry{e1}, recent)

	snap := room.Snapshot()
	require.Len(t, snap.Queue, 1)
	assert.Equal(t, e1.UUID, snap.Queue[0].UUID)
	require.Len(t, snap.Recent, 1)
}

func TestAppendRecentBoundsLength(t *testing.T) {
	room := NewRoomState("ABCD", "secret", nil, nil)
	for i := 0; i < recentLimit+10; i++ {
		room.AppendRecent(model.NewEntry("file", "x", "P", "T", "", ""))
	}
	assert.Len(t, room.Snapshot().Recent, recentLimit)
}

func TestPlaybackSIDLifecycle(t *testing.T) {
	room := NewRoomState("ABCD", "secret", nil, nil)
	assert.Equal(t, "", room.PlaybackSID())

	room.SetPlaybackSID("sess-1")
	assert.Equal(t, "sess-1", room.PlaybackSID())

	// A stale session id must not evict a newer registration.
	room.SetPlaybackSID("sess-2")
	room.ClearPlaybackSIDIfMatches("sess-1")
	assert.Equal(t, "sess-2", room.PlaybackSID())

	room.ClearPlaybackSIDIfMatches("sess-2")
	assert.Equal(t, "", room.PlaybackSID())
}

func TestProjectedStartSumsQueueDurations(t *testing.T) {
	room := NewRoomState("ABCD", "secret", nil, nil)
	e1 := model.NewEntry("file", "a", "P1", "T1", "", "")
	e1.Duration = 60
	e2 := model.NewEntry("file", "b", "P2", "T2", "", "")
	e2.Duration = 30
	room.Queue.Append(e1)
	room.Queue.Append(e2)

	before := time.Now()
	projected := room.projectedStart(3)
	// (60+3+1) + (30+3+1) = 98 seconds from "now" since nothing has started yet.
	assert.WithinDuration(t, before.Add(98*time.Second), projected, 2*time.Second)
}

func TestSetSourcesPrioAddsAndDrops(t *testing.T) {
	registry := newFakeRegistry()
	room := NewRoomState("ABCD", "secret", nil, nil)

	added := room.setSourcesPrio([]string{"fake"}, registry)
	assert.Equal(t, []string{"fake"}, added)
	assert.Equal(t, []string{"fake"}, room.sourcesSnapshot())

	_, ok := room.sourceByName("fake")
	assert.True(t, ok)

	room.setSourcesPrio(nil, registry)
	_, ok = room.sourceByName("fake")
	assert.False(t, ok)
}
