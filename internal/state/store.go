package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/steady/internal/health"
	"github.com/five82/steady/internal/tracker"
)

// Status is the coordinator's public status.
type Status struct {
	Online       bool
	Busy         bool
	PendingCount int
	QueuedCount  int
	Debug        bool
	Health       health.Result
}

// Snapshot represents the latest data available to the console.
type Snapshot struct {
	Status
	Pending             []tracker.Record
	LastUpdated         time.Time
	ConsecutiveFailures int // consecutive degraded probes
}

// IsDegraded returns true when the health probe has failed repeatedly.
func (s Snapshot) IsDegraded() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the status and pending list. The last probe result is kept
// when status carries none.
func (s *Store) Update(status Status, pending []tracker.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if status.Health.Status == health.Unknown {
		status.Health = s.snapshot.Health
	}
	s.snapshot.Status = status
	s.snapshot.Pending = clonePending(pending)
	s.snapshot.LastUpdated = time.Now()
}

// RecordProbe stores a health probe result and tracks consecutive failures.
func (s *Store) RecordProbe(res health.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Health = res
	s.snapshot.LastUpdated = time.Now()
	if res.Status == health.Degraded {
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.ConsecutiveFailures = 0
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Pending = clonePending(s.snapshot.Pending)
	if s.snapshot.Health.Err != nil {
		snap.Health.Err = fmt.Errorf("%w", s.snapshot.Health.Err)
	}
	return snap
}

func clonePending(items []tracker.Record) []tracker.Record {
	if len(items) == 0 {
		return nil
	}
	dup := make([]tracker.Record, len(items))
	copy(dup, items)
	return dup
}
