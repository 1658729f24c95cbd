package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syng-dev/syng/internal/model"
)

func TestStampSetsOnceOnly(t *testing.T) {
	e := model.NewEntry("file", "/tmp/a.mp3", "Alice", "Song", "Artist", "Album")
	require.Nil(t, e.StartedAt)

	require.True(t, e.Stamp())
	first := *e.StartedAt

	require.False(t, e.Stamp())
	assert.Equal(t, first, *e.StartedAt)
}

func TestEntryRoundTripsUUIDAsCanonicalString(t *testing.T) {
	e := model.NewEntry("youtube", "https://y/watch?v=A", "Bob", "Title", "Band", "")
	raw, err := json.Marshal(e)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, e.UUID.String(), decoded["uuid"])

	var roundTripped model.Entry
	require.NoError(t, json.Unmarshal(raw, &roundTripped))
	assert.Equal(t, e.UUID, roundTripped.UUID)
	assert.Equal(t, e.Title, roundTripped.Title)
}

func TestParseUUIDTreatsEmptyAsNil(t *testing.T) {
	id, err := model.ParseUUID("")
	require.NoError(t, err)
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", id.String())
}

func TestParseUUIDRejectsGarbage(t *testing.T) {
	_, err := model.ParseUUID("not-a-uuid")
	assert.Error(t, err)
}

func TestCloneDetachesStartedAt(t *testing.T) {
	e := model.NewEntry("file", "id", "Alice", "T", "A", "")
	e.Stamp()

	clone := e.Clone()
	clone.StartedAt = nil

	require.NotNil(t, e.StartedAt)
}
