package playback

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/syng-dev/syng/internal/source"
)

func TestWaitForReadyReturnsImmediatelyWithNoDownload(t *testing.T) {
	s := NewState()
	done := make(chan struct{})
	go func() {
		waitForReady(context.Background(), s, uuid.New())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waitForReady blocked with no recorded download")
	}
}

func TestWaitForReadyUnblocksWhenReadyCloses(t *testing.T) {
	s := NewState()
	id := uuid.New()
	df := source.NewDownloadedFile()
	s.recordDownload(id, "fake", df)

	done := make(chan struct{})
	go func() {
		waitForReady(context.Background(), s, id)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("waitForReady returned before Ready closed")
	case <-time.After(50 * time.Millisecond):
	}

	close(df.Ready)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waitForReady did not unblock after Ready closed")
	}
}

func TestWaitForReadyUnblocksOnContextCancel(t *testing.T) {
	s := NewState()
	id := uuid.New()
	s.recordDownload(id, "fake", source.NewDownloadedFile())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		waitForReady(ctx, s, id)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waitForReady did not unblock on context cancel")
	}
}
