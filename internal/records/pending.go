package records

import (
	"context"
	"sync"
)

// Pending is the handle of an operation running in the background.
type Pending struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// resolved returns a Pending that is already complete with err.
func resolved(err error) *Pending {
	p := newPending()
	p.resolve(err)
	return p
}

func (p *Pending) resolve(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// Done is closed once the operation's event has been published.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the operation completes or ctx ends.
//
// The operation's error was already published as ErrorRaised; it is returned
// here only for callers that branch on it.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Err returns the outcome, or nil while the operation is still running.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}
