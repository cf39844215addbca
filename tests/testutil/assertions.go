package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lllypuk/statuswatch/internal/domain/event"
)

// AssertEventPublished checks that event of specific type was published
func AssertEventPublished(t *testing.T, events []event.DomainEvent, eventType string) event.DomainEvent {
	t.Helper()

	for _, evt := range events {
		if evt.EventType() == eventType {
			return evt
		}
	}

	t.Fatalf("Expected event of type %q, but it was not found. Got %d events", eventType, len(events))
	return nil
}

// AssertEventCount checks how many events of a type were published
func AssertEventCount(t *testing.T, events []event.DomainEvent, eventType string, expected int) {
	t.Helper()

	n := 0
	for _, evt := range events {
		if evt.EventType() == eventType {
			n++
		}
	}
	if n != expected {
		t.Fatalf("Expected %d events of type %q, but got %d", expected, eventType, n)
	}
}

// AssertEventTypes checks the exact sequence of event types
func AssertEventTypes(t *testing.T, events []event.DomainEvent, expected ...string) {
	t.Helper()

	if len(expected) == 0 {
		require.Empty(t, events)
		return
	}

	types := make([]string, 0, len(events))
	for _, evt := range events {
		types = append(types, evt.EventType())
	}
	require.Equal(t, expected, types)
}

// AssertAggregateID checks aggregate ID in the event
func AssertAggregateID(t *testing.T, evt event.DomainEvent, expectedID string) {
	t.Helper()

	require.Equal(t, expectedID, evt.AggregateID())
}
