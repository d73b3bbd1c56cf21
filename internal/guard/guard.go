// Package guard rejects re-submission of an operation whose signature was seen
// within a short debounce window.
package guard

import (
	"sync"
	"time"
)

// DefaultWindow is the debounce window used when none is configured.
const DefaultWindow = 2 * time.Second

// Guard remembers when each signature was last submitted.
type Guard struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]time.Time
}

// New builds a Guard with the given debounce window.
func New(window time.Duration) *Guard {
	if window < 0 {
		window = DefaultWindow
	}
	return &Guard{
		window:  window,
		entries: make(map[string]time.Time),
	}
}

// ShouldReject reports whether sig was recorded less than the window ago.
func (g *Guard) ShouldReject(sig string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	last, ok := g.entries[sig]
	if !ok {
		return false
	}
	return now.Sub(last) < g.window
}

// Record stores now as the last submission time of sig, overwriting any
// previous value.
func (g *Guard) Record(sig string, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.entries[sig] = now
}

// CheckAndRecord atomically rejects a duplicate or records a fresh submission.
// It returns true when the submission was rejected.
func (g *Guard) CheckAndRecord(sig string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if last, ok := g.entries[sig]; ok && now.Sub(last) < g.window {
		return true
	}
	g.entries[sig] = now
	return false
}

// Purge drops entries older than horizon and returns how many were removed.
// The horizon is independent of the debounce window and bounds memory.
func (g *Guard) Purge(now time.Time, horizon time.Duration) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	removed := 0
	for sig, last := range g.entries {
		if now.Sub(last) > horizon {
			delete(g.entries, sig)
			removed++
		}
	}
	return removed
}

// Len returns the number of remembered signatures.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}
