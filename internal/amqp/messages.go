package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

const (
	EntityBroker     = "broker"
	EntityTotalValue = "total_value"

	OpCreated = "created"
	OpDeleted = "deleted"
)

// ChangeMessage announces a mutation. It carries only the id; consumers
// fetch the current state themselves. Origin names the process that
// published it.
type ChangeMessage struct {
	Entity    string    `json:"entity"`
	Op        string    `json:"op"`
	ID        string    `json:"id"`
	Origin    string    `json:"origin,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(entity, op, id string) *ChangeMessage {
	return &ChangeMessage{
		Entity:    entity,
		Op:        op,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m *ChangeMessage) Validate() error {
	switch m.Entity {
	case EntityBroker, EntityTotalValue:
	default:
		return errors.New("unknown entity: " + m.Entity)
	}
	switch m.Op {
	case OpCreated, OpDeleted:
	default:
		return errors.New("unknown op: " + m.Op)
	}
	if m.ID == "" {
		return errors.New("missing id")
	}
	return nil
}

// ChangeMessageFromJSON decodes and validates a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SkipOrigin wraps next so that messages published by origin are
// acknowledged without being handled.
func SkipOrigin(origin string, next Handler) Handler {
	if origin == "" {
		return next
	}
	return func(ctx context.Context, msg *ChangeMessage) error {
		if msg.Origin == origin {
			return nil
		}
		return next(ctx, msg)
	}
}
