package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syng-dev/syng/internal/model"
)

func TestVersionCompatibleChecksMajorOnly(t *testing.T) {
	assert.True(t, model.VersionCompatible(model.Version[0]))
	assert.False(t, model.VersionCompatible(model.Version[0]+1))
}

func TestDefaultRoomConfig(t *testing.T) {
	cfg := model.DefaultRoomConfig()
	assert.Equal(t, 3, cfg.PreviewDuration)
	assert.Equal(t, 2, cfg.BufferInAdvance)
	assert.Equal(t, model.WaitingRoomOptional, cfg.WaitingRoomPolicy)
	assert.Nil(t, cfg.LastSong)
	assert.False(t, cfg.AllowCollabMode)
}
