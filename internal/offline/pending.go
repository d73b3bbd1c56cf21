package offline

import (
	"context"
	"sync"

	"github.com/five82/steady/internal/transport"
)

// Pending is the caller's handle on a queued operation. It settles exactly
// once.
type Pending struct {
	id   string
	once sync.Once
	done chan struct{}
	resp *transport.Response
	err  error
}

func newPending(id string) *Pending {
	return &Pending{id: id, done: make(chan struct{})}
}

// ID returns the queued operation's ID.
func (p *Pending) ID() string {
	return p.id
}

// Done is closed once the operation has settled.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the operation settles or ctx ends. Abandoning the wait
// leaves the operation queued.
func (p *Pending) Wait(ctx context.Context) (*transport.Response, error) {
	select {
	case <-p.done:
		return p.resp, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pending) settle(resp *transport.Response, err error) {
	p.once.Do(func() {
		p.resp = resp
		p.err = err
		close(p.done)
	})
}
