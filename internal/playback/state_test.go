package playback

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syng-dev/syng/internal/model"
	"github.com/syng-dev/syng/internal/source"
)

func TestReplaceSnapshotAndSnapshotQueueIsACopy(t *testing.T) {
	s := NewState()
	e := model.NewEntry("file", "a", "P", "T", "", "")
	s.replaceSnapshot([]*model.Entry{e}, nil)

	got := s.snapshotQueue()
	require.Len(t, got, 1)
	assert.Equal(t, e.UUID, got[0].UUID)

	// Mutating the returned slice must not affect internal state.
	got[0] = nil
	assert.NotNil(t, s.snapshotQueue()[0])
}

func TestRecordLookupForgetDownload(t *testing.T) {
	s := NewState()
	id := uuid.New()
	df := source.NewDownloadedFile()

	_, ok := s.lookupDownload(id)
	assert.False(t, ok)

	s.recordDownload(id, "fake", df)
	entry, ok := s.lookupDownload(id)
	require.True(t, ok)
	assert.Equal(t, "fake", entry.sourceName)
	assert.Same(t, df, entry.file)

	s.forgetDownload(id)
	_, ok = s.lookupDownload(id)
	assert.False(t, ok)
}
