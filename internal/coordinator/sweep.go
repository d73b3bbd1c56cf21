package coordinator

import (
	"time"

	"github.com/five82/steady/internal/janitor"
)

// SweepResult reports what one janitor pass cleared.
type SweepResult struct {
	Ended           int
	ElementsCleared int
	Healed          bool
}

// Sweep ends the records the janitor policy selects for trigger at now,
// clears element decorations whose operation is gone, and forces the busy
// indicator off when the registry is empty. Periodic sweeps also purge the
// duplicate guard and expire old queued operations.
func (c *Coordinator) Sweep(trigger janitor.Trigger, now time.Time) SweepResult {
	var res SweepResult
	for _, id := range c.policy.Select(trigger, now, c.tracker.Snapshot()) {
		if c.tracker.End(id) {
			res.Ended++
		}
	}
	res.ElementsCleared = c.clearOrphanedElements(trigger == janitor.Manual)
	res.Healed = c.healBusy()

	if trigger == janitor.Periodic {
		if n := c.guard.Purge(now, c.cfg.GuardRetention); n > 0 {
			c.logger.Debug("duplicate guard purged", "entries", n)
		}
		if n := c.queue.PurgeOlderThan(now, c.cfg.QueueMaxAge); n > 0 {
			c.logger.Info("expired queued operations", "count", n, "max_age", c.cfg.QueueMaxAge)
		}
	}

	if res.Ended > 0 || res.ElementsCleared > 0 || res.Healed {
		c.logger.Debug("janitor sweep",
			"trigger", trigger.String(),
			"ended", res.Ended,
			"elements", res.ElementsCleared,
			"healed", res.Healed,
		)
	}
	c.publish()
	return res
}

// ForceClearStuckState ends every pending operation and clears all busy
// decoration.
func (c *Coordinator) ForceClearStuckState() SweepResult {
	res := c.Sweep(janitor.Manual, c.now())
	c.logger.Info("stuck state force-cleared", "ended", res.Ended, "elements", res.ElementsCleared)
	return res
}

// healBusy turns the busy indicator off if it is on while nothing is pending.
func (c *Coordinator) healBusy() bool {
	healed := false
	c.tracker.IfIdle(func() {
		c.busyMu.Lock()
		defer c.busyMu.Unlock()
		if !c.uiBusy {
			return
		}
		c.uiBusy = false
		healed = true
		c.sink.SetGlobalBusy(false, "")
	})
	return healed
}

// clearOrphanedElements removes decorations whose owning operation is neither
// pending nor queued, or all of them when all is set.
func (c *Coordinator) clearOrphanedElements(all bool) int {
	c.mu.Lock()
	var refs []string
	for ref, el := range c.elements {
		if all || !(c.tracker.Contains(el.opID) || c.queue.Contains(el.opID)) {
			refs = append(refs, ref)
			delete(c.elements, ref)
		}
	}
	c.mu.Unlock()

	for _, ref := range refs {
		c.sink.SetElementBusy(ref, false, "")
	}
	return len(refs)
}
