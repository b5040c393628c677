package refresh

import "context"

// Inbox is the receiving end of the message transport.
type Inbox interface {
	// Messages yields received envelopes and is closed by Close.
	Messages() <-chan Envelope
	Close() error
}

// Opener is the sending end: a live reference back to the list view that opened a form.
type Opener interface {
	Send(ctx context.Context, m Message) error
}
