// Package eventbus is a thin Kafka layer with delayed-retry topics and a
// dead letter queue. A failed handler reschedules the event onto the next
// retry topic; the reinjector feeds matured retries back into the base
// topic, and events that exhaust every delay land in the DLQ.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RetryDelays lists the fixed delay per retry attempt (1-based).
var RetryDelays = []time.Duration{
	10 * time.Second,
	30 * time.Second,
	1 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
}

// Topic manages the base, retry, and DLQ topic names for one event stream.
type Topic struct {
	base string
}

func NewTopic(base string) Topic {
	return Topic{base: base}
}

func (t Topic) Base() string {
	return t.base
}

// DLQ returns the dead letter topic name (e.g. my_topic.dlq).
func (t Topic) DLQ() string {
	return t.base + ".dlq"
}

// GetRetryTopics returns every retry topic name, one per delay.
func (t Topic) GetRetryTopics() []string {
	topics := make([]string, len(RetryDelays))
	for i, delay := range RetryDelays {
		topics[i] = fmt.Sprintf("%s.retry.%s", t.base, delay.String())
	}
	return topics
}

// GetRetryTopic returns the retry topic for the given attempt (1-based).
func (t Topic) GetRetryTopic(retryCount int) (string, error) {
	if retryCount <= 0 || retryCount > len(RetryDelays) {
		return "", ErrMaxRetryExceeded
	}
	delay := RetryDelays[retryCount-1]
	return fmt.Sprintf("%s.retry.%s", t.base, delay.String()), nil
}

// Event is the Kafka message payload envelope.
type Event struct {
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	Retry     int             `json:"retry"` // current retry count, starts at 0
	MaxRetry  int             `json:"max_retry"`
	LastError string          `json:"last_error,omitempty"`
}

// EventHandler processes one event.
type EventHandler func(ctx context.Context, event Event) error

// EventBus abstracts event publishing and consumption.
type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	// Subscribe consumes the base topic and runs the main handler.
	Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error
	// StartRetryReinjector consumes the retry topics and republishes
	// matured events onto the base topic.
	StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error
	Close()
}

var ErrMaxRetryExceeded = errors.New("max retry count exceeded")

var ErrRetryScheduleFailed = errors.New("failed to publish retry or DLQ event")
