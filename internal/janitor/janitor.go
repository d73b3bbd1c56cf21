// Package janitor decides which pending operations are stale.
//
// Background tabs, suspended processes, and device sleep can freeze timers so
// that an operation never observes its completion. The policy reconciles the
// registry with elapsed wall time using age tiers that grow more aggressive
// with the strength of the evidence that the client was away:
//
//	Periodic   > Periodic tier, or NetworkFetch > Fetch tier
//	Visible    > Visible tier (also Focus and PageShow)
//	AppSwitch  > AppSwitch tier
//
// The policy only selects; the coordinator ends the records.
package janitor

import (
	"time"

	"github.com/five82/steady/internal/config"
	"github.com/five82/steady/internal/tracker"
)

// Trigger is the context a sweep runs in.
type Trigger int

const (
	Periodic Trigger = iota
	Visible
	Focus
	PageShow
	AppSwitch
	Manual
)

func (t Trigger) String() string {
	switch t {
	case Periodic:
		return "periodic"
	case Visible:
		return "visible"
	case Focus:
		return "focus"
	case PageShow:
		return "pageshow"
	case AppSwitch:
		return "app_switch"
	case Manual:
		return "manual"
	default:
		return "unknown"
	}
}

// Policy holds the age tiers.
type Policy struct {
	Periodic  time.Duration
	Fetch     time.Duration
	Visible   time.Duration
	AppSwitch time.Duration
	Hidden    time.Duration
}

// FromConfig builds a Policy from the janitor section of the config.
func FromConfig(cfg config.JanitorConfig) Policy {
	return Policy{
		Periodic:  cfg.Periodic,
		Fetch:     cfg.Fetch,
		Visible:   cfg.Visible,
		AppSwitch: cfg.AppSwitch,
		Hidden:    cfg.Hidden,
	}
}

// Select returns the IDs of records considered stale for trigger at now.
// Manual selects every record.
func (p Policy) Select(trigger Trigger, now time.Time, records []tracker.Record) []string {
	var stale []string
	for _, rec := range records {
		if p.isStale(trigger, now, rec) {
			stale = append(stale, rec.ID)
		}
	}
	return stale
}

func (p Policy) isStale(trigger Trigger, now time.Time, rec tracker.Record) bool {
	age := rec.Age(now)
	switch trigger {
	case Periodic:
		if rec.Kind == tracker.NetworkFetch && age > p.Fetch {
			return true
		}
		return age > p.Periodic
	case Visible, Focus, PageShow:
		return age > p.Visible
	case AppSwitch:
		return age > p.AppSwitch
	case Manual:
		return true
	}
	return false
}

// HiddenExpired reports whether a page hidden since hiddenSince has been away
// long enough for busy UI to be forced off. A zero hiddenSince means visible.
func (p Policy) HiddenExpired(hiddenSince, now time.Time) bool {
	if hiddenSince.IsZero() {
		return false
	}
	return now.Sub(hiddenSince) >= p.Hidden
}
