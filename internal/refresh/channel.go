package refresh

import (
	"context"
	"errors"
	"sync"

	"github.com/desertthunder/frontdesk/internal/shared"
)

const inboxBuffer = 16

// queue is the buffered channel behind every [Inbox] backend.
type queue struct {
	ch     chan Envelope
	mu     sync.RWMutex
	closed bool
}

func newQueue() *queue {
	return &queue{ch: make(chan Envelope, inboxBuffer)}
}

func (q *queue) Messages() <-chan Envelope { return q.ch }

func (q *queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
	return nil
}

// deliver blocks until env is queued, ctx is done or the queue is closed.
func (q *queue) deliver(ctx context.Context, env Envelope) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return shared.ErrClosed
	}
	select {
	case q.ch <- env:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ChannelInbox delivers messages between views of the same process.
type ChannelInbox struct {
	*queue
}

func NewChannelInbox() *ChannelInbox {
	return &ChannelInbox{queue: newQueue()}
}

// Opener returns a sender that declares origin on every message.
func (c *ChannelInbox) Opener(origin string) *ChannelOpener {
	return &ChannelOpener{inbox: c, origin: origin}
}

// ChannelOpener posts to a [ChannelInbox].
type ChannelOpener struct {
	inbox  *ChannelInbox
	origin string
}

// Send fails with [shared.ErrNoOpener] once the list view has closed its inbox.
func (o *ChannelOpener) Send(ctx context.Context, m Message) error {
	err := o.inbox.deliver(ctx, Envelope{Origin: o.origin, Message: m, Transport: "channel"})
	if errors.Is(err, shared.ErrClosed) {
		return shared.ErrNoOpener
	}
	return err
}
