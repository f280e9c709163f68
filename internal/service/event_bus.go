// internal/service/event_bus.go
package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hp82240-service/internal/model"
)

// EventBus distributes printer events to subscribers. Slow subscribers miss
// events rather than stalling the printer.
type EventBus struct {
	subscribers map[string]chan model.PrinterEvent
	events      chan model.PrinterEvent
	mutex       sync.RWMutex
	logger      *zap.Logger
}

// NewEventBus creates a new event bus
func NewEventBus(logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{
		subscribers: make(map[string]chan model.PrinterEvent),
		events:      make(chan model.PrinterEvent, 1000),
		logger:      logger.With(zap.String("component", "event_bus")),
	}
}

// Start distributes events until ctx is cancelled
func (eb *EventBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-eb.events:
			eb.distributeEvent(event)
		}
	}
}

// Publish queues an event
func (eb *EventBus) Publish(event model.PrinterEvent) {
	select {
	case eb.events <- event:
	default:
		eb.logger.Warn("Event bus full, dropping event",
			zap.String("event_type", string(event.Type)),
		)
	}
}

// Subscribe registers a subscriber and returns its ID and event channel
func (eb *EventBus) Subscribe() (string, <-chan model.PrinterEvent) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	id := uuid.New().String()
	subscriber := make(chan model.PrinterEvent, 100)
	eb.subscribers[id] = subscriber
	return id, subscriber
}

// Unsubscribe removes a subscriber and closes its channel
func (eb *EventBus) Unsubscribe(id string) {
	eb.mutex.Lock()
	defer eb.mutex.Unlock()

	if subscriber, ok := eb.subscribers[id]; ok {
		delete(eb.subscribers, id)
		close(subscriber)
	}
}

// SubscriberCount returns the number of subscribers
func (eb *EventBus) SubscriberCount() int {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()
	return len(eb.subscribers)
}

// distributeEvent distributes an event to subscribers
func (eb *EventBus) distributeEvent(event model.PrinterEvent) {
	eb.mutex.RLock()
	defer eb.mutex.RUnlock()

	for id, subscriber := range eb.subscribers {
		select {
		case subscriber <- event:
		default:
			eb.logger.Debug("Subscriber is slow, skipping event",
				zap.String("subscriber_id", id),
				zap.String("event_type", string(event.Type)),
			)
		}
	}
}
