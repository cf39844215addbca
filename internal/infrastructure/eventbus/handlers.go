package eventbus

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/lllypuk/statuswatch/internal/domain/event"
)

// EventHandler is a function that handles domain events.
type EventHandler func(ctx context.Context, event event.DomainEvent) error

// PublishObserver is notified after every publish attempt.
type PublishObserver func(eventType string, err error)

// Subscription errors.
var (
	ErrEmptyEventType = errors.New("event type cannot be empty")
	ErrNilHandler     = errors.New("handler cannot be nil")
	ErrNilEvent       = errors.New("event cannot be nil")
)

// handlerSet is the per event type handler registry shared by both buses.
type handlerSet struct {
	mu     sync.RWMutex
	byType map[string][]EventHandler
}

func newHandlerSet() *handlerSet {
	return &handlerSet{byType: make(map[string][]EventHandler)}
}

func (s *handlerSet) add(eventType string, handler EventHandler) error {
	if eventType == "" {
		return ErrEmptyEventType
	}
	if handler == nil {
		return ErrNilHandler
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byType[eventType] = append(s.byType[eventType], handler)
	return nil
}

// get returns a snapshot; handlers added later are not visible to it.
func (s *handlerSet) get(eventType string) []EventHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.byType[eventType])
}

func (s *handlerSet) count(eventType string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byType[eventType])
}

// eventTypes returns the subscribed types in stable order.
func (s *handlerSet) eventTypes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	types := make([]string, 0, len(s.byType))
	for eventType := range s.byType {
		types = append(types, eventType)
	}
	slices.Sort(types)
	return types
}
