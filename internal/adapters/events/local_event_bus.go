package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
	"github.com/zatekoja/adminconsole/internal/domain/providers"
	"github.com/zatekoja/adminconsole/internal/infrastructure/observability"
)

// LocalEventBus delivers events inside one process. It stands in for the
// Redis bus when Redis is not configured.
type LocalEventBus struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan *entities.ListEvent]struct{}
	closed      bool
	logger      zerolog.Logger
}

// NewLocalEventBus creates an in-process event bus
func NewLocalEventBus() providers.EventBus {
	return &LocalEventBus{
		subscribers: make(map[string]map[chan *entities.ListEvent]struct{}),
		logger:      observability.GetLogger().With().Str("component", "local_event_bus").Logger(),
	}
}

// Publish delivers event to every current subscriber of channel. Full
// subscribers miss the event.
func (b *LocalEventBus) Publish(ctx context.Context, channel string, event *entities.ListEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for subscriber := range b.subscribers[channel] {
		select {
		case subscriber <- event:
		default:
			b.logger.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("subscriber channel full, skipping event")
		}
	}
	return nil
}

// Subscribe returns a channel of events published on channel until ctx ends
func (b *LocalEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ListEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	eventChan := make(chan *entities.ListEvent, subscriberBuffer)
	if b.closed {
		close(eventChan)
		return eventChan, nil
	}
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[chan *entities.ListEvent]struct{})
	}
	b.subscribers[channel][eventChan] = struct{}{}

	go func() {
		<-ctx.Done()
		b.remove(channel, eventChan)
	}()

	return eventChan, nil
}

func (b *LocalEventBus) remove(channel string, eventChan chan *entities.ListEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers := b.subscribers[channel]
	if _, ok := subscribers[eventChan]; !ok {
		return
	}
	delete(subscribers, eventChan)
	close(eventChan)
	if len(subscribers) == 0 {
		delete(b.subscribers, channel)
	}
}

// Unsubscribe closes every subscription to channel
func (b *LocalEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subscriber := range b.subscribers[channel] {
		close(subscriber)
	}
	delete(b.subscribers, channel)
	return nil
}

// Close closes every subscription
func (b *LocalEventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for channel, subscribers := range b.subscribers {
		for subscriber := range subscribers {
			close(subscriber)
		}
		delete(b.subscribers, channel)
	}
	b.closed = true
	return nil
}
