// Package tracker keeps the registry of in-flight operations and derives the
// single global busy signal from it.
package tracker

import (
	"sort"
	"sync"
	"time"
)

// Kind distinguishes plain network calls from form submissions.
type Kind int

const (
	NetworkFetch Kind = iota
	FormSubmit
)

func (k Kind) String() string {
	switch k {
	case NetworkFetch:
		return "fetch"
	case FormSubmit:
		return "form"
	default:
		return "unknown"
	}
}

// Record is one pending operation.
type Record struct {
	ID        string
	Kind      Kind
	StartedAt time.Time
	Label     string
}

// Age returns how long the record has been pending at now.
func (r Record) Age(now time.Time) time.Duration {
	return now.Sub(r.StartedAt)
}

// Listener is notified when the registry becomes non-empty (busy=true, with
// the label of the operation that started it) or empty (busy=false).
// It runs under the tracker lock and must not call back into the Tracker.
type Listener func(busy bool, label string)

// Tracker is the registry of in-flight operations.
type Tracker struct {
	mu       sync.Mutex
	records  map[string]Record
	listener Listener
}

// New builds an empty Tracker. listener may be nil.
func New(listener Listener) *Tracker {
	return &Tracker{
		records:  make(map[string]Record),
		listener: listener,
	}
}

// Begin inserts rec. Re-beginning an ID already present replaces its record
// without a transition.
func (t *Tracker) Begin(rec Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	wasEmpty := len(t.records) == 0
	t.records[rec.ID] = rec
	if wasEmpty && t.listener != nil {
		t.listener(true, rec.Label)
	}
}

// End removes the record with id. It reports whether a record was removed;
// ending an absent id is a no-op.
func (t *Tracker) End(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.records[id]; !ok {
		return false
	}
	delete(t.records, id)
	if len(t.records) == 0 && t.listener != nil {
		t.listener(false, "")
	}
	return true
}

// Contains reports whether id is pending.
func (t *Tracker) Contains(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.records[id]
	return ok
}

// IsBusy reports whether any operation is pending.
func (t *Tracker) IsBusy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records) > 0
}

// Len returns the number of pending operations.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// Snapshot returns the pending records ordered by start time.
func (t *Tracker) Snapshot() []Record {
	t.mu.Lock()
	out := make([]Record, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, rec)
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// IfIdle runs fn under the tracker lock when no operation is pending and
// reports whether it ran. fn must not call back into the Tracker.
func (t *Tracker) IfIdle(fn func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.records) > 0 {
		return false
	}
	fn()
	return true
}
