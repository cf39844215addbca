package mocks

import (
	"context"
	"sync"

	"github.com/lllypuk/statuswatch/internal/domain/event"
)

// MockEventBus records published events in order.
type MockEventBus struct {
	mu         sync.Mutex
	published  []event.DomainEvent
	publishErr error
}

func NewMockEventBus() *MockEventBus {
	return &MockEventBus{}
}

// Publish records evt, or fails with the error set by SetPublishError.
func (b *MockEventBus) Publish(_ context.Context, evt event.DomainEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.publishErr != nil {
		return b.publishErr
	}
	b.published = append(b.published, evt)
	return nil
}

// SetPublishError makes every following Publish fail; nil restores success.
func (b *MockEventBus) SetPublishError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.publishErr = err
}

func (b *MockEventBus) PublishedCount() int {
	return len(b.filter(nil))
}

// PublishedTypes returns event types in publish order.
func (b *MockEventBus) PublishedTypes() []string {
	events := b.filter(nil)
	types := make([]string, len(events))
	for i, evt := range events {
		types[i] = evt.EventType()
	}
	return types
}

// GetPublishedEventsByType returns the events of one type in publish order.
func (b *MockEventBus) GetPublishedEventsByType(eventType string) []event.DomainEvent {
	return b.filter(func(evt event.DomainEvent) bool { return evt.EventType() == eventType })
}

// Reset drops recorded events and the publish error.
func (b *MockEventBus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = nil
	b.publishErr = nil
}

func (b *MockEventBus) filter(keep func(event.DomainEvent) bool) []event.DomainEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []event.DomainEvent
	for _, evt := range b.published {
		if keep == nil || keep(evt) {
			out = append(out, evt)
		}
	}
	return out
}

var _ event.Bus = (*MockEventBus)(nil)
