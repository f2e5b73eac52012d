// Package pubsub provides an in-process, generically typed event broker.
// The document model and the logger publish through it; anything with a
// context can subscribe.
package pubsub

import "time"

// EventType classifies what happened to the payload.
type EventType string

const (
	CreatedEvent EventType = "created"
	UpdatedEvent EventType = "updated"
	DeletedEvent EventType = "deleted"
	MovedEvent   EventType = "moved"
)

// Event pairs a typed payload with what happened and when.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}
