// Package offline buffers operations issued while the client is offline and
// replays them, in arrival order, once connectivity returns.
package offline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/five82/steady/internal/tracker"
	"github.com/five82/steady/internal/transport"
)

// DefaultMaxRetries is the replay budget of a queued operation.
const DefaultMaxRetries = 3

// ErrExpired settles operations dropped by the age-based purge.
var ErrExpired = errors.New("queued operation expired")

// ExhaustedError settles an operation that failed on every allowed replay.
type ExhaustedError struct {
	ID       string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("queued operation %s failed after %d attempts: %v", e.ID, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Operation is a read-only view of a queued entry.
type Operation struct {
	ID         string
	Kind       tracker.Kind
	Request    transport.Request
	EnqueuedAt time.Time
	Attempts   int
}

// ReplayFunc re-executes a queued operation.
type ReplayFunc func(ctx context.Context, op Operation) (*transport.Response, error)

// DrainResult summarizes one drain pass.
type DrainResult struct {
	Skipped   bool // another pass was already running
	Succeeded int
	Retrying  int
	Exhausted int
	Remaining int
}

type entry struct {
	op      Operation
	pending *Pending
}

// Queue is a FIFO of operations awaiting connectivity.
type Queue struct {
	mu         sync.Mutex
	entries    []*entry
	maxRetries int
	draining   bool
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Queue.
type Option func(*Queue)

// WithClock overrides the time source used for EnqueuedAt.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		q.now = now
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = logger
	}
}

// New builds an empty Queue.
func New(maxRetries int, opts ...Option) *Queue {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	q := &Queue{
		maxRetries: maxRetries,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.logger = q.logger.With("component", "offline_queue")
	return q
}

// Enqueue appends an operation and returns the handle its caller waits on.
// The handle settles only when a later Drain succeeds or gives up.
func (q *Queue) Enqueue(kind tracker.Kind, req transport.Request) *Pending {
	id := uuid.NewString()
	p := newPending(id)

	q.mu.Lock()
	q.entries = append(q.entries, &entry{
		op: Operation{
			ID:         id,
			Kind:       kind,
			Request:    req.Clone(),
			EnqueuedAt: q.now(),
		},
		pending: p,
	})
	size := len(q.entries)
	q.mu.Unlock()

	q.logger.Debug("operation queued",
		"id", id,
		"kind", kind.String(),
		"method", req.NormalizedMethod(),
		"target", req.Target,
		"queue_len", size)
	return p
}

// Drain replays the entries present when it starts, sequentially and in
// insertion order. Entries enqueued during the pass wait for the next one.
// A failing entry never stops the pass. Concurrent calls return immediately
// with Skipped set.
func (q *Queue) Drain(ctx context.Context, replay ReplayFunc) DrainResult {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return DrainResult{Skipped: true}
	}
	q.draining = true
	batch := make([]*entry, len(q.entries))
	copy(batch, q.entries)
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.draining = false
		q.mu.Unlock()
	}()

	var res DrainResult
	for _, e := range batch {
		if ctx.Err() != nil {
			break
		}
		q.mu.Lock()
		live := q.indexOf(e) >= 0
		op := e.op
		q.mu.Unlock()
		if !live {
			continue
		}

		resp, err := q.replayOne(ctx, replay, op)
		if err == nil {
			q.remove(e)
			e.pending.settle(resp, nil)
			res.Succeeded++
			q.logger.Debug("queued operation replayed", "id", op.ID)
			continue
		}

		q.mu.Lock()
		e.op.Attempts++
		attempts := e.op.Attempts
		q.mu.Unlock()

		if attempts >= q.maxRetries {
			q.remove(e)
			e.pending.settle(nil, &ExhaustedError{ID: op.ID, Attempts: attempts, Err: err})
			res.Exhausted++
			q.logger.Warn("queued operation exhausted retries",
				"id", op.ID,
				"attempts", attempts,
				"error", err)
			continue
		}
		res.Retrying++
		q.logger.Debug("queued operation replay failed",
			"id", op.ID,
			"attempts", attempts,
			"error", err)
	}

	res.Remaining = q.Len()
	return res
}

func (q *Queue) replayOne(ctx context.Context, replay ReplayFunc, op Operation) (resp *transport.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, fmt.Errorf("replay panicked: %v", r)
		}
	}()
	return replay(ctx, op)
}

// PurgeOlderThan drops entries enqueued more than maxAge before now and
// settles them with ErrExpired.
func (q *Queue) PurgeOlderThan(now time.Time, maxAge time.Duration) int {
	q.mu.Lock()
	var expired []*entry
	kept := q.entries[:0]
	for _, e := range q.entries {
		if now.Sub(e.op.EnqueuedAt) > maxAge {
			expired = append(expired, e)
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(q.entries); i++ {
		q.entries[i] = nil
	}
	q.entries = kept
	q.mu.Unlock()

	for _, e := range expired {
		e.pending.settle(nil, fmt.Errorf("%w: %s", ErrExpired, e.op.ID))
	}
	return len(expired)
}

// Len returns the number of queued operations.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Contains reports whether the operation id is still queued.
func (q *Queue) Contains(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, e := range q.entries {
		if e.op.ID == id {
			return true
		}
	}
	return false
}

// Snapshot returns the queued operations in replay order.
func (q *Queue) Snapshot() []Operation {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Operation, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.op
	}
	return out
}

// remove deletes e while preserving order.
func (q *Queue) remove(e *entry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	idx := q.indexOf(e)
	if idx < 0 {
		return
	}
	copy(q.entries[idx:], q.entries[idx+1:])
	q.entries[len(q.entries)-1] = nil
	q.entries = q.entries[:len(q.entries)-1]
}

// indexOf must be called with q.mu held.
func (q *Queue) indexOf(e *entry) int {
	for i, cur := range q.entries {
		if cur == e {
			return i
		}
	}
	return -1
}
