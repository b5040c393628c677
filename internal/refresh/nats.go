package refresh

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nats-io/nats.go"

	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/shared"
)

const natsDeliverTimeout = time.Second

// Bus is the part of [nats.Conn] the NATS backend uses.
type Bus interface {
	Publish(subj string, data []byte) error
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

var _ Bus = (*nats.Conn)(nil)

// ConnectNATS dials url, falling back to [nats.DefaultURL].
func ConnectNATS(url string) (*nats.Conn, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	conn, err := nats.Connect(url, nats.Name("frontdesk"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats at %s: %w", url, err)
	}
	return conn, nil
}

// Subject returns the subject form-closed messages for entity travel on within origin.
//
// The origin is hashed since it may contain characters NATS reserves.
func Subject(origin string, entity models.Entity) string {
	sum := sha256.Sum256([]byte(origin))
	return "frontdesk." + hex.EncodeToString(sum[:8]) + "." + entity.Name + ".form_closed"
}

// NATSInbox receives envelopes published on the subject of its own origin.
type NATSInbox struct {
	*queue
	sub    *nats.Subscription
	logger *log.Logger
}

// NewNATSInbox subscribes to [Subject](origin, entity) on bus.
func NewNATSInbox(bus Bus, origin string, entity models.Entity, logger *log.Logger) (*NATSInbox, error) {
	in := &NATSInbox{queue: newQueue(), logger: logger}
	sub, err := bus.Subscribe(Subject(origin, entity), in.handle)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	in.sub = sub
	return in, nil
}

func (in *NATSInbox) handle(msg *nats.Msg) {
	var env Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		in.logger.Warn("dropping undecodable message", "subject", msg.Subject, "error", err)
		return
	}
	env.Transport = "nats"

	ctx, cancel := context.WithTimeout(context.Background(), natsDeliverTimeout)
	defer cancel()
	if err := in.deliver(ctx, env); err != nil {
		in.logger.Warn("dropping message", "subject", msg.Subject, "error", err)
	}
}

// Close drains the subscription, then closes the message channel.
func (in *NATSInbox) Close() error {
	if in.sub != nil {
		if err := in.sub.Drain(); err != nil {
			in.logger.Warn("failed to drain subscription", "error", err)
		}
	}
	return in.queue.Close()
}

// NATSOpener publishes form-closed messages for a list view anywhere on the bus.
type NATSOpener struct {
	bus     Bus
	origin  string
	subject string
}

func NewNATSOpener(bus Bus, origin string, entity models.Entity) *NATSOpener {
	return &NATSOpener{bus: bus, origin: origin, subject: Subject(origin, entity)}
}

// Send publishes m. NATS gives no delivery guarantee, so success only means the bus took it.
func (o *NATSOpener) Send(_ context.Context, m Message) error {
	data, err := json.Marshal(Envelope{Origin: o.origin, Message: m})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	if err := o.bus.Publish(o.subject, data); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrNoOpener, err)
	}
	return nil
}
