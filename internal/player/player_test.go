package player

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPlayReturnsNilOnCleanExit(t *testing.T) {
	p := New("true")
	err := p.Play(context.Background(), "video.mp4", "", "Song")
	assert.NoError(t, err)
	assert.False(t, p.Running())
}

func TestPlayReturnsNilOnNonZeroExit(t *testing.T) {
	p := New("false")
	err := p.Play(context.Background(), "video.mp4", "", "Song")
	assert.NoError(t, err)
}

func TestTerminateStopsRunningProcess(t *testing.T) {
	p := New("sleep")
	done := make(chan error, 1)
	go func() { done <- p.Play(context.Background(), "5", "", "Song") }()

	assert.Eventually(t, p.Running, time.Second, 10*time.Millisecond)
	p.Terminate()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Play did not return after Terminate")
	}
	assert.False(t, p.Running())
}

func TestTerminateIsSafeWhenNothingRunning(t *testing.T) {
	p := New("true")
	p.Terminate()
}
