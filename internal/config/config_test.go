package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syng-dev/syng/internal/model"
)

func TestLoadFallsBackToDefaultsWhenFileMissing(t *testing.T) {
	f, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 3, f.Config.PreviewDuration)
	assert.Equal(t, model.QRBottomRight, f.Config.QRPosition)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syng.yaml")
	f := &File{
		Config: General{
			Server:          "http://localhost:8080",
			Room:            "ABCD",
			Secret:          "s3cr3t",
			PreviewDuration: 5,
		},
		Sources: map[string]map[string]any{
			"file": {"root_dir": "/music"},
		},
	}
	require.NoError(t, Save(path, f))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ABCD", loaded.Config.Room)
	assert.Equal(t, "s3cr3t", loaded.Config.Secret)
	assert.Equal(t, 5, loaded.Config.PreviewDuration)
	assert.Equal(t, "/music", loaded.Sources["file"]["root_dir"])
}

func TestEnvOverridesTakePrecedenceOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "syng.yaml")
	require.NoError(t, Save(path, &File{Config: General{Room: "FILE"}}))

	t.Setenv("SYNG_ROOM", "ENVROOM")
	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ENVROOM", f.Config.Room)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid yaml"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestRoomConfigProjection(t *testing.T) {
	f := &File{Config: General{
		PreviewDuration:   7,
		BufferInAdvance:   3,
		WaitingRoomPolicy: model.WaitingRoomForced,
		AllowCollabMode:   true,
	}}
	rc := f.RoomConfig()
	assert.Equal(t, 7, rc.PreviewDuration)
	assert.Equal(t, 3, rc.BufferInAdvance)
	assert.Equal(t, model.WaitingRoomForced, rc.WaitingRoomPolicy)
	assert.True(t, rc.AllowCollabMode)
}
