package refresh

import (
	"fmt"

	"github.com/desertthunder/frontdesk/internal/models"
	"github.com/desertthunder/frontdesk/internal/shared"
)

// Action names the mutation a form performed.
type Action string

const (
	ActionAdd  Action = "add"
	ActionEdit Action = "edit"
)

// Message is the form-closed payload.
type Message struct {
	Type      string `json:"type"`
	Action    Action `json:"action"`
	ID        *int64 `json:"id,omitempty"`
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
}

// Envelope is a received message with the origin its sender declared.
type Envelope struct {
	Origin  string  `json:"origin"`
	Message Message `json:"message"`
	// Transport names the backend that delivered the message.
	Transport string `json:"-"`
}

// NewFormClosed builds a successful form-closed message for entity with a fresh message id.
//
// id is omitted when zero (a create whose id the server did not return).
func NewFormClosed(entity models.Entity, action Action, id int64) Message {
	m := Message{
		Type:      entity.MessageType(),
		Action:    action,
		Success:   true,
		MessageID: shared.GenerateID(),
	}
	if id != 0 {
		m.ID = &id
	}
	return m
}

// Validate checks m against what a list view of entity accepts.
func (m Message) Validate(entity models.Entity) error {
	if m.Type != entity.MessageType() {
		return fmt.Errorf("%w: type %q, want %q", shared.ErrInvalidMessage, m.Type, entity.MessageType())
	}
	if !m.Success {
		return fmt.Errorf("%w: success flag not set", shared.ErrInvalidMessage)
	}
	return nil
}
