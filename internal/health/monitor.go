// Package health probes the backend with a lightweight request and grades
// the link as healthy, slow, or degraded.
package health

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/five82/steady/internal/transport"
)

// Status grades the most recent probe.
type Status int

const (
	Unknown Status = iota
	Healthy
	Slow
	Degraded
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Slow:
		return "slow"
	case Degraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Result is the outcome of one probe.
type Result struct {
	Status    Status
	Latency   time.Duration
	CheckedAt time.Time
	Err       error
}

// Notification returns the message to surface for r. Healthy and unknown
// results are silent.
func (r Result) Notification() (string, transport.Severity, bool) {
	switch r.Status {
	case Slow:
		return "Slow connection detected", transport.SeverityWarning, true
	case Degraded:
		return "Connection issues detected", transport.SeverityError, true
	}
	return "", transport.SeverityInfo, false
}

// Monitor issues health probes. It never retries: the next scheduled check is
// the only retry.
type Monitor struct {
	transport transport.Transport
	path      string
	slow      time.Duration
	timeout   time.Duration
	now       func() time.Time
}

// New builds a Monitor probing path through t. Probes slower than slow are
// graded Slow; probes exceeding timeout are Degraded.
func New(t transport.Transport, path string, slow, timeout time.Duration) *Monitor {
	return &Monitor{
		transport: t,
		path:      path,
		slow:      slow,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Check runs one probe.
func (m *Monitor) Check(ctx context.Context) Result {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	start := m.now()
	resp, err := m.transport.Execute(ctx, transport.Request{
		Method: http.MethodGet,
		Target: m.path,
		Header: http.Header{
			"Cache-Control": {"no-cache, no-store"},
			"Pragma":        {"no-cache"},
		},
		Label: "health check",
	})
	latency := m.now().Sub(start)

	res := Result{Latency: latency, CheckedAt: m.now()}
	switch {
	case err != nil:
		res.Status = Degraded
		res.Err = fmt.Errorf("health probe: %w", err)
	case !resp.OK():
		res.Status = Degraded
		res.Err = fmt.Errorf("health probe returned status %d", resp.StatusCode)
	case latency > m.slow:
		res.Status = Slow
	default:
		res.Status = Healthy
	}
	return res
}
