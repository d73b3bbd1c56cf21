package coordinator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/five82/steady/internal/offline"
	"github.com/five82/steady/internal/signature"
	"github.com/five82/steady/internal/tracker"
	"github.com/five82/steady/internal/transport"
)

// Form is a user form submission.
type Form struct {
	// Ref identifies the submitting element for busy decoration. Empty
	// disables per-element decoration.
	Ref    string
	Method string
	Action string
	Fields url.Values
	Label  string
}

func (f Form) request() transport.Request {
	return transport.Request{
		Method: f.Method,
		Target: f.Action,
		Fields: f.Fields,
		Label:  f.Label,
	}
}

// ErrCleared is returned to a caller whose operation the janitor ended before
// the transport settled. The late result is discarded; when it was a failure
// it is wrapped alongside ErrCleared.
var ErrCleared = errors.New("operation cleared before it settled")

// Submission is the outcome of Submit.
type Submission struct {
	Response *transport.Response
	// Duplicate is set when the guard rejected the submission. The
	// transport was not called.
	Duplicate bool
	// Queued is set when the submission went through the offline queue.
	Queued bool
}

// Transport returns a transport.Transport that routes every call through Do.
func (c *Coordinator) Transport() transport.Transport {
	return transport.Func(c.Do)
}

// Do issues a network fetch. It is tracked for the global busy signal and
// bounded by the request timeout. While offline the request is queued and Do
// blocks until it is replayed, exhausted, expired, or ctx ends.
func (c *Coordinator) Do(ctx context.Context, req transport.Request) (*transport.Response, error) {
	if !c.Online() {
		return c.enqueue(tracker.NetworkFetch, req).Wait(ctx)
	}
	id := c.begin(tracker.NetworkFetch, req.Label)
	return c.await(ctx, id, req, true)
}

// Submit sends a form. Submissions whose signature was seen within the
// duplicate window are rejected without reaching the transport. A submission
// that fails because the network is unavailable is moved to the offline queue.
func (c *Coordinator) Submit(ctx context.Context, form Form) (Submission, error) {
	sig := signature.Compute(form.Method, form.Action, form.Fields)
	if c.guard.CheckAndRecord(sig, c.now()) {
		c.logger.Debug("duplicate submission rejected", "ref", form.Ref, "action", form.Action)
		c.notify(msgDuplicate, transport.SeverityWarning)
		return Submission{Duplicate: true}, nil
	}

	req := form.request()
	label := labelFor(tracker.FormSubmit, req.Label)
	if !c.Online() {
		return c.submitQueued(ctx, form.Ref, req, label)
	}

	id := c.begin(tracker.FormSubmit, req.Label)
	release := c.markElementBusy(form.Ref, id, label, c.cfg.RequestTimeout)
	resp, err := c.await(ctx, id, req, false)
	release()

	switch {
	case err == nil:
		return Submission{Response: resp}, nil
	case errors.Is(err, ErrCleared):
		return Submission{}, err
	case errors.Is(err, transport.ErrNetworkUnavailable):
		c.logger.Info("form submission moved to offline queue", "action", form.Action)
		return c.submitQueued(ctx, form.Ref, req, label)
	}
	c.surface(err)
	return Submission{}, err
}

// submitQueued parks req in the offline queue and keeps ref decorated until
// the queued operation settles.
func (c *Coordinator) submitQueued(ctx context.Context, ref string, req transport.Request, label string) (Submission, error) {
	c.notify(msgQueued, transport.SeverityInfo)
	p := c.enqueue(tracker.FormSubmit, req)
	release := c.markElementBusy(ref, p.ID(), label, 0)
	resp, err := p.Wait(ctx)
	release()
	return Submission{Response: resp, Queued: true}, err
}

func labelFor(kind tracker.Kind, label string) string {
	if label != "" {
		return label
	}
	if kind == tracker.FormSubmit {
		return formLabel
	}
	return fetchLabel
}

func (c *Coordinator) begin(kind tracker.Kind, label string) string {
	id := uuid.NewString()
	c.tracker.Begin(tracker.Record{
		ID:        id,
		Kind:      kind,
		StartedAt: c.now(),
		Label:     labelFor(kind, label),
	})
	c.publish()
	return id
}

type outcome struct {
	resp *transport.Response
	err  error
	// ended is false when the record was already gone at settlement.
	ended bool
}

// await runs req for the record id. The first of completion, timeout, or
// cancellation ends the record. A settlement that finds the record already
// ended by the janitor is discarded and the caller gets ErrCleared. When
// surface is set, taxonomy errors become notifications.
func (c *Coordinator) await(ctx context.Context, id string, req transport.Request, surface bool) (*transport.Response, error) {
	defer c.publish()

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		resp, err := c.raw.Execute(callCtx, req)
		done <- outcome{resp: resp, err: err, ended: c.tracker.End(id)}
	}()

	timer := time.NewTimer(c.cfg.RequestTimeout)
	defer timer.Stop()

	var out outcome
	select {
	case out = <-done:
		if !out.ended {
			c.logger.Debug("late settlement discarded", "id", id, "target", req.Target, "error", out.err)
			if out.err != nil {
				return nil, fmt.Errorf("%w: %w", ErrCleared, out.err)
			}
			return nil, ErrCleared
		}
		if out.err == nil {
			if statusErr := transport.CheckStatus(out.resp); statusErr != nil {
				out = outcome{err: statusErr}
			}
		}
	case <-timer.C:
		c.tracker.End(id)
		out.err = fmt.Errorf("%w after %s: %s %s", transport.ErrTimeout, c.cfg.RequestTimeout, req.NormalizedMethod(), req.Target)
		c.logger.Warn("request timed out", "id", id, "target", req.Target, "timeout", c.cfg.RequestTimeout)
	case <-ctx.Done():
		c.tracker.End(id)
		return nil, ctx.Err()
	}

	if out.err != nil {
		if surface {
			c.surface(out.err)
		}
		return nil, out.err
	}
	return out.resp, nil
}

func (c *Coordinator) enqueue(kind tracker.Kind, req transport.Request) *offline.Pending {
	p := c.queue.Enqueue(kind, req)
	c.logger.Info("operation queued while offline", "id", p.ID(), "kind", kind.String(), "target", req.Target)
	c.publish()
	return p
}

// replay re-executes a queued operation quietly; the drain reports the
// aggregate outcome.
func (c *Coordinator) replay(ctx context.Context, op offline.Operation) (*transport.Response, error) {
	id := c.begin(op.Kind, op.Request.Label)
	return c.await(ctx, id, op.Request, false)
}

// markElementBusy decorates ref as busy for operation id and returns a func
// that clears it. A positive safety clears the decoration after that long in
// case completion is never observed.
func (c *Coordinator) markElementBusy(ref, id, label string, safety time.Duration) func() {
	if ref == "" {
		return func() {}
	}
	c.mu.Lock()
	c.elements[ref] = elementState{opID: id, label: label, since: c.now()}
	c.mu.Unlock()
	c.sink.SetElementBusy(ref, true, label)

	if safety <= 0 {
		return func() { c.clearElement(ref, id) }
	}
	timer := time.AfterFunc(safety, func() {
		if c.clearElement(ref, id) {
			c.logger.Debug("element busy cleared by safety timer", "ref", ref)
		}
	})
	return func() {
		timer.Stop()
		c.clearElement(ref, id)
	}
}

// clearElement removes the decoration on ref if operation id still owns it.
func (c *Coordinator) clearElement(ref, id string) bool {
	c.mu.Lock()
	el, ok := c.elements[ref]
	if !ok || el.opID != id {
		c.mu.Unlock()
		return false
	}
	delete(c.elements, ref)
	c.mu.Unlock()
	c.sink.SetElementBusy(ref, false, "")
	return true
}
