package playback

import (
	"context"
	"time"

	"github.com/google/uuid"
)

func timeAfter(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// waitForReady blocks until the entry's buffered artifact is ready, the
// context is cancelled, or no download was ever recorded for it (in which
// case there is nothing to wait for).
func waitForReady(ctx context.Context, state *State, id uuid.UUID) {
	entry, ok := state.lookupDownload(id)
	if !ok {
		return
	}
	select {
	case <-entry.file.Ready:
	case <-ctx.Done():
	}
}
