package providers

import (
	"context"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
)

// EventBus defines the interface for publishing and subscribing to list events
type EventBus interface {
	// Publish publishes an event to all subscribers
	Publish(ctx context.Context, channel string, event *entities.ListEvent) error

	// Subscribe subscribes to events on a channel
	Subscribe(ctx context.Context, channel string) (<-chan *entities.ListEvent, error)

	// Unsubscribe unsubscribes from a channel
	Unsubscribe(ctx context.Context, channel string) error

	// Close closes the event bus and all subscriptions
	Close() error
}

const (
	// EventChannelListInvalidation carries invalidations for every list
	EventChannelListInvalidation = "lists:invalidate"

	// EventChannelListPrefix is the prefix for list-specific channels
	EventChannelListPrefix = "list:"
)

// GetListChannel returns the channel name for a specific list
func GetListChannel(listID string) string {
	return EventChannelListPrefix + listID
}
