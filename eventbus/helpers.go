package eventbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// NewJSONEvent wraps a payload into an Event envelope. An empty id gets a
// generated UUID.
func NewJSONEvent(id string, payload any, maxRetry int) (Event, error) {
	if maxRetry <= 0 || maxRetry > len(RetryDelays) {
		maxRetry = len(RetryDelays)
	}
	if id == "" {
		id = uuid.NewString()
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return Event{
		ID:       id,
		Payload:  b,
		Retry:    0,
		MaxRetry: maxRetry,
	}, nil
}

// DecodeJSON unmarshals an Event payload into the given type.
func DecodeJSON[T any](evt Event) (T, error) {
	var out T
	if err := json.Unmarshal(evt.Payload, &out); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return out, nil
}

// SubscribeJSON is a Subscribe helper that decodes the JSON payload before
// invoking the handler.
func SubscribeJSON[T any](ctx context.Context, bus EventBus, groupID string, topic Topic, handler func(ctx context.Context, payload T, meta Event) error) error {
	return bus.Subscribe(ctx, groupID, topic, func(ctx context.Context, evt Event) error {
		v, err := DecodeJSON[T](evt)
		if err != nil {
			return err
		}
		return handler(ctx, v, evt)
	})
}
