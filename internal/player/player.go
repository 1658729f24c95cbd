// Package player wraps the external media player subprocess (conceptually
// mpv) as a single process handle with Start/Wait/Terminate semantics: a
// process is launched with exec.CommandContext, its stderr is drained to
// the log in the background, and its exit is the signal the caller waits on.
package player

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
)

// Player launches and supervises a single external player process at a time.
// Calls to Play are serialized by the caller (the playback coordinator); the
// struct itself only enforces that at most one process handle is live.
type Player struct {
	command   string // binary name, e.g. "mpv"
	extraArgs []string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// New returns a Player that launches command (found via PATH) with
// extraArgs prepended to every invocation's argument list.
func New(command string, extraArgs ...string) *Player {
	return &Player{command: command, extraArgs: extraArgs}
}

// Play launches the player on videoPath (and, if non-empty, audioPath as a
// secondary argument — e.g. a separate instrumental/backing track) and
// blocks until it exits. The exit is the signal to advance the queue: a
// crash is treated identically to a normal exit, per the coordinator's
// failure policy.
func (p *Player) Play(ctx context.Context, videoPath, audioPath, title string) error {
	args := append([]string{}, p.extraArgs...)
	args = append(args, videoPath)
	if audioPath != "" {
		args = append(args, "--audio-file="+audioPath)
	}

	cmd := exec.CommandContext(ctx, p.command, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("player: failed to create stderr pipe: %w", err)
	}

	p.mu.Lock()
	p.cmd = cmd
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.cmd = nil
		p.mu.Unlock()
	}()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("player: failed to start %s: %w", p.command, err)
	}

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			slog.Debug("player output", "title", title, "line", scanner.Text())
		}
	}()

	waitErr := cmd.Wait()
	if waitErr != nil && ctx.Err() == nil {
		// A non-zero exit (including a crash) is not surfaced as a hard
		// error to the caller: the coordinator advances the queue the same
		// way whether the player exited cleanly or crashed.
		slog.Warn("player exited non-zero", "title", title, "error", waitErr)
	}
	return nil
}

// Terminate stops the currently running process, if any. It is safe to call
// even when nothing is playing.
func (p *Player) Terminate() {
	p.mu.Lock()
	cmd := p.cmd
	p.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return
	}
	if err := cmd.Process.Kill(); err != nil {
		slog.Debug("player: terminate failed", "error", err)
	}
}

// Running reports whether a player process is currently active.
func (p *Player) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cmd != nil
}
