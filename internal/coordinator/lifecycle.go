package coordinator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/steady/internal/janitor"
	"github.com/five82/steady/internal/offline"
	"github.com/five82/steady/internal/signals"
	"github.com/five82/steady/internal/transport"
)

func (c *Coordinator) registerSignals() {
	c.signals.Handle(signals.Online, func() { c.setOnline(true) })
	c.signals.Handle(signals.Offline, func() { c.setOnline(false) })
	c.signals.Handle(signals.Visible, c.onVisible)
	c.signals.Handle(signals.Hidden, c.onHidden)
	c.signals.Handle(signals.PageHide, c.onHidden)
	c.signals.Handle(signals.Focus, func() { c.Sweep(janitor.Focus, c.now()) })
	c.signals.Handle(signals.PageShow, func() { c.Sweep(janitor.PageShow, c.now()) })
	c.signals.Handle(signals.AppSwitch, func() { c.Sweep(janitor.AppSwitch, c.now()) })
}

// Signal delivers a lifecycle or connectivity signal. It reports whether a
// handler was registered for k.
func (c *Coordinator) Signal(k signals.Kind) bool {
	c.logger.Debug("signal", "kind", k.String())
	return c.signals.Dispatch(k)
}

// SetOnline delivers an online or offline signal.
func (c *Coordinator) SetOnline(online bool) {
	if online {
		c.Signal(signals.Online)
		return
	}
	c.Signal(signals.Offline)
}

func (c *Coordinator) setOnline(online bool) {
	c.mu.Lock()
	changed := c.online != online
	c.online = online
	c.mu.Unlock()
	if !changed {
		return
	}
	c.publish()

	if !online {
		c.logger.Info("connection lost")
		c.stopRetry()
		c.notify(msgOffline, transport.SeverityWarning)
		return
	}
	c.logger.Info("connection restored", "queued", c.queue.Len())
	c.notify(msgRestored, transport.SeveritySuccess)
	ctx := c.lifetime()
	go c.Drain(ctx)
}

func (c *Coordinator) onHidden() {
	c.mu.Lock()
	if c.hiddenSince.IsZero() {
		c.hiddenSince = c.now()
	}
	c.mu.Unlock()
}

// onVisible sweeps with the visibility tier and schedules the app-switch
// sweep, replacing one already scheduled.
func (c *Coordinator) onVisible() {
	c.mu.Lock()
	c.hiddenSince = time.Time{}
	if c.appSwitch != nil {
		c.appSwitch.Stop()
	}
	c.appSwitch = time.AfterFunc(c.cfg.Janitor.AppSwitchDelay, func() {
		c.Signal(signals.AppSwitch)
	})
	c.mu.Unlock()

	c.Sweep(janitor.Visible, c.now())
}

// Drain replays the offline queue once and schedules another pass after the
// retry delay while retrying entries remain and the client is online.
func (c *Coordinator) Drain(ctx context.Context) offline.DrainResult {
	res := c.queue.Drain(ctx, c.replay)
	c.publish()
	if res.Skipped {
		return res
	}
	c.logger.Info("offline queue drained",
		"succeeded", res.Succeeded,
		"retrying", res.Retrying,
		"exhausted", res.Exhausted,
		"remaining", res.Remaining,
	)
	if res.Exhausted > 0 {
		c.notify(fmt.Sprintf("%d queued request(s) could not be sent", res.Exhausted), transport.SeverityError)
	}
	if res.Remaining > 0 && c.Online() && ctx.Err() == nil {
		c.scheduleRetry(ctx)
	}
	return res
}

func (c *Coordinator) scheduleRetry(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.retry != nil {
		c.retry.Stop()
	}
	c.retry = time.AfterFunc(c.cfg.RetryDelay, func() {
		if c.Online() {
			c.Drain(ctx)
		}
	})
}

func (c *Coordinator) stopRetry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.retry != nil {
		c.retry.Stop()
		c.retry = nil
	}
}

func (c *Coordinator) lifetime() context.Context {
	c.loopMu.Lock()
	defer c.loopMu.Unlock()
	return c.runCtx
}

// Start runs the health probe and periodic janitor until ctx is cancelled or
// Stop is called. A loop left over from an earlier Start is stopped first, so
// at most one is ever active.
func (c *Coordinator) Start(ctx context.Context) {
	c.Stop()

	c.loopMu.Lock()
	defer c.loopMu.Unlock()

	loopCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(loopCtx)
	c.cancel = cancel
	c.group = group
	c.runCtx = groupCtx

	group.Go(func() error { return c.every(groupCtx, c.sweepTick) })
	group.Go(func() error { return c.every(groupCtx, c.probeTick) })
	c.logger.Info("coordinator started", "interval", c.cfg.HealthCheckInterval)
}

// Stop cancels the periodic loop and pending timers and waits for the loop
// goroutines to exit. Stopping a stopped Coordinator is a no-op.
func (c *Coordinator) Stop() {
	c.loopMu.Lock()
	cancel, group := c.cancel, c.group
	c.cancel, c.group = nil, nil
	c.runCtx = context.Background()
	c.loopMu.Unlock()

	c.mu.Lock()
	if c.appSwitch != nil {
		c.appSwitch.Stop()
		c.appSwitch = nil
	}
	c.mu.Unlock()
	c.stopRetry()

	if cancel == nil {
		return
	}
	cancel()
	if err := group.Wait(); err != nil {
		c.logger.Warn("coordinator loop exited with error", "error", err)
	}
	c.logger.Info("coordinator stopped")
}

// ActiveLoops returns the number of running loop goroutines.
func (c *Coordinator) ActiveLoops() int {
	return int(c.loops.Load())
}

func (c *Coordinator) every(ctx context.Context, fn func(context.Context)) error {
	c.loops.Add(1)
	defer c.loops.Add(-1)

	ticker := time.NewTicker(c.cfg.HealthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// sweepTick runs the periodic sweep. The hidden-page tier needs no pass of
// its own: every sweep self-heals an idle busy indicator, so hidden time only
// changes how the heal is reported.
func (c *Coordinator) sweepTick(context.Context) {
	now := c.now()
	res := c.Sweep(janitor.Periodic, now)
	if !res.Healed {
		return
	}
	c.mu.Lock()
	hiddenSince := c.hiddenSince
	c.mu.Unlock()
	if c.policy.HiddenExpired(hiddenSince, now) {
		c.logger.Debug("busy indicator cleared while hidden", "hidden_for", now.Sub(hiddenSince))
	}
}

func (c *Coordinator) probeTick(ctx context.Context) {
	if !c.Online() {
		return
	}
	res := c.monitor.Check(ctx)
	if ctx.Err() != nil {
		return
	}
	c.store.RecordProbe(res)
	c.logger.Debug("health probe", "status", res.Status.String(), "latency", res.Latency)
	if msg, severity, ok := res.Notification(); ok {
		c.notify(msg, severity)
	}
	c.publish()
}
