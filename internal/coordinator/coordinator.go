package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/steady/internal/config"
	"github.com/five82/steady/internal/guard"
	"github.com/five82/steady/internal/health"
	"github.com/five82/steady/internal/janitor"
	"github.com/five82/steady/internal/offline"
	"github.com/five82/steady/internal/signals"
	"github.com/five82/steady/internal/state"
	"github.com/five82/steady/internal/tracker"
	"github.com/five82/steady/internal/transport"
)

// Sink renders coordinator state. The coordinator only writes to it; calls
// may arrive from any goroutine and SetGlobalBusy runs under the tracker lock,
// so implementations must not call back into the Coordinator synchronously.
type Sink interface {
	SetGlobalBusy(busy bool, label string)
	SetElementBusy(ref string, busy bool, label string)
	Notify(message string, severity transport.Severity)
}

type nopSink struct{}

func (nopSink) SetGlobalBusy(bool, string)          {}
func (nopSink) SetElementBusy(string, bool, string) {}
func (nopSink) Notify(string, transport.Severity)   {}

const (
	fetchLabel = "Loading..."
	formLabel  = "Saving..."

	msgDuplicate = "Please wait, your request is already being processed"
	msgRestored  = "Connection restored"
	msgOffline   = "Working offline"
	msgQueued    = "Saved offline, will send when the connection returns"
)

// elementState is the busy decoration owned by one operation.
type elementState struct {
	opID  string
	label string
	since time.Time
}

// Coordinator composes the tracker, duplicate guard, offline queue, janitor
// and health monitor behind one API. Construct it with New; it owns all of
// its collections.
type Coordinator struct {
	cfg     config.Config
	raw     transport.Transport
	sink    Sink
	logger  *slog.Logger
	now     func() time.Time
	store   *state.Store
	tracker *tracker.Tracker
	guard   *guard.Guard
	queue   *offline.Queue
	monitor *health.Monitor
	policy  janitor.Policy
	signals *signals.Table

	busyMu sync.Mutex
	uiBusy bool

	mu          sync.Mutex
	online      bool
	hiddenSince time.Time
	elements    map[string]elementState
	appSwitch   *time.Timer
	retry       *time.Timer

	loopMu sync.Mutex
	cancel context.CancelFunc
	group  *errgroup.Group
	runCtx context.Context
	loops  atomic.Int32
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source used for record ages and the guard.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithStore publishes status snapshots to store.
func WithStore(store *state.Store) Option {
	return func(c *Coordinator) {
		if store != nil {
			c.store = store
		}
	}
}

// WithOnline sets the initial connectivity. The default is online.
func WithOnline(online bool) Option {
	return func(c *Coordinator) {
		c.online = online
	}
}

// New builds a Coordinator around t, rendering through sink (nil discards).
func New(cfg config.Config, t transport.Transport, sink Sink, opts ...Option) *Coordinator {
	if sink == nil {
		sink = nopSink{}
	}
	c := &Coordinator{
		cfg:      cfg,
		raw:      t,
		sink:     sink,
		logger:   slog.Default(),
		now:      time.Now,
		store:    &state.Store{},
		online:   true,
		elements: make(map[string]elementState),
		policy:   janitor.FromConfig(cfg.Janitor),
		signals:  signals.NewTable(),
		runCtx:   context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "coordinator")
	c.tracker = tracker.New(c.onBusyChange)
	c.guard = guard.New(cfg.DuplicateWindow)
	c.queue = offline.New(cfg.MaxRetries, offline.WithClock(c.now), offline.WithLogger(c.logger))
	c.monitor = health.New(t, cfg.HealthPath, cfg.SlowThreshold, cfg.RequestTimeout)
	c.registerSignals()
	c.publish()
	return c
}

// onBusyChange runs under the tracker lock on empty/non-empty transitions.
func (c *Coordinator) onBusyChange(busy bool, label string) {
	c.busyMu.Lock()
	c.uiBusy = busy
	c.busyMu.Unlock()
	c.sink.SetGlobalBusy(busy, label)
}

// Online reports the current connectivity.
func (c *Coordinator) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// Status returns the public status.
func (c *Coordinator) Status() state.Status {
	return state.Status{
		Online:       c.Online(),
		Busy:         c.tracker.IsBusy(),
		PendingCount: c.tracker.Len(),
		QueuedCount:  c.queue.Len(),
		Debug:        c.cfg.Debug,
		Health:       c.store.Snapshot().Health,
	}
}

// Store returns the snapshot store the coordinator publishes to.
func (c *Coordinator) Store() *state.Store {
	return c.store
}

// Pending returns the in-flight operation records.
func (c *Coordinator) Pending() []tracker.Record {
	return c.tracker.Snapshot()
}

// Queued returns the operations waiting for connectivity.
func (c *Coordinator) Queued() []offline.Operation {
	return c.queue.Snapshot()
}

func (c *Coordinator) publish() {
	c.store.Update(c.Status(), c.tracker.Snapshot())
}

func (c *Coordinator) notify(message string, severity transport.Severity) {
	c.sink.Notify(message, severity)
}

// surface turns a taxonomy error into a user-visible notification.
func (c *Coordinator) surface(err error) {
	if cls, ok := transport.Classify(err); ok {
		c.notify(cls.Message, cls.Severity)
	}
}
