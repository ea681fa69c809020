package pubsub

import "context"

const (
	// DispatchedEvent is published when a debounced action fires.
	DispatchedEvent EventType = "dispatched"
	// DroppedEvent is published when a delay fails and its action will
	// never fire. The payload is the lost action.
	DroppedEvent EventType = "dropped"
)

type Subscriber[T any] interface {
	Subscribe(context.Context) <-chan Event[T]
}

type (
	// EventType identifies the type of event
	EventType string

	// Event represents something that happened to a debounced action
	Event[T any] struct {
		Type    EventType
		Key     string
		Payload T
	}

	Publisher[T any] interface {
		Publish(EventType, string, T)
	}
)
