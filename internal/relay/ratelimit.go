package relay

import (
	"sync"
	"time"
)

// secretAttempt records a single failed register/admin-secret timestamp.
type secretAttempt struct {
	timestamps []time.Time
}

// rateLimiter tracks failed secret checks per remote key (session id or room
// code) using a sliding window, guarding against repeated wrong-secret
// register-client and register-admin attempts.
type rateLimiter struct {
	mu         sync.Mutex
	attempts   map[string]*secretAttempt
	maxFails   int
	windowSize time.Duration
}

func newRateLimiter(maxFails int, windowSize time.Duration) *rateLimiter {
	if maxFails <= 0 {
		maxFails = 5
	}
	if windowSize <= 0 {
		windowSize = 15 * time.Minute
	}
	return &rateLimiter{
		attempts:   make(map[string]*secretAttempt),
		maxFails:   maxFails,
		windowSize: windowSize,
	}
}

// allowed reports whether key is still under its failure budget.
func (rl *rateLimiter) allowed(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.attempts[key]
	if !exists {
		return true
	}
	rl.pruneOld(entry)
	return len(entry.timestamps) < rl.maxFails
}

// recordFailure logs a failed attempt for key.
func (rl *rateLimiter) recordFailure(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.attempts[key]
	if !exists {
		entry = &secretAttempt{}
		rl.attempts[key] = entry
	}
	rl.pruneOld(entry)
	entry.timestamps = append(entry.timestamps, time.Now())
}

// recordSuccess clears key's failure record.
func (rl *rateLimiter) recordSuccess(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.attempts, key)
}

// pruneOld drops timestamps outside the sliding window. Caller holds mu.
func (rl *rateLimiter) pruneOld(entry *secretAttempt) {
	cutoff := time.Now().Add(-rl.windowSize)
	n := 0
	for _, t := range entry.timestamps {
		if t.After(cutoff) {
			entry.timestamps[n] = t
			n++
		}
	}
	entry.timestamps = entry.timestamps[:n]
}
