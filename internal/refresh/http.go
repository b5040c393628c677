package refresh

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/server"
	"github.com/desertthunder/frontdesk/internal/shared"
)

const maxMessageBytes = 4 << 10

// FormClosedPath returns the path a list view of entity receives form-closed messages on.
func FormClosedPath(entity models.Entity) string {
	return "/api/" + entity.Plural + "/form-closed"
}

var _ server.Handler = (*HTTPInbox)(nil)

// HTTPInbox receives form-closed messages on the console's local listener.
//
// The sender's origin is taken from the Origin request header.
type HTTPInbox struct {
	*queue
	entity models.Entity
}

func NewHTTPInbox(entity models.Entity) *HTTPInbox {
	return &HTTPInbox{queue: newQueue(), entity: entity}
}

func (h *HTTPInbox) Routes() []string {
	return []string{http.MethodPost + " " + FormClosedPath(h.entity)}
}

// ServeHTTP queues the decoded message and answers 202 before it is validated.
func (h *HTTPInbox) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var m Message
	if err := json.NewDecoder(io.LimitReader(r.Body, maxMessageBytes)).Decode(&m); err != nil {
		http.Error(w, "Invalid message body", http.StatusBadRequest)
		return
	}

	env := Envelope{Origin: r.Header.Get("Origin"), Message: m, Transport: "http"}
	if err := h.deliver(r.Context(), env); err != nil {
		if errors.Is(err, shared.ErrClosed) {
			http.Error(w, "Inbox closed", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "Request canceled", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HTTPOpener posts form-closed messages to the list view listening at baseURL.
type HTTPOpener struct {
	baseURL    string
	origin     string
	entity     models.Entity
	httpClient *http.Client
}

// NewHTTPOpener creates an opener. A nil client falls back to [http.DefaultClient].
func NewHTTPOpener(baseURL, origin string, entity models.Entity, client *http.Client) *HTTPOpener {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPOpener{
		baseURL:    strings.TrimRight(baseURL, "/"),
		origin:     origin,
		entity:     entity,
		httpClient: client,
	}
}

// Send fails with [shared.ErrNoOpener] when the list view is unreachable or refuses the message.
func (o *HTTPOpener) Send(ctx context.Context, m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+FormClosedPath(o.entity), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", o.origin)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrNoOpener, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%w: status %d", shared.ErrNoOpener, resp.StatusCode)
	}
	return nil
}
