package event_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	eventDomain "github.com/lllypuk/statuswatch/internal/domain/event"
)

func TestNewMetadata(t *testing.T) {
	metadata := eventDomain.NewMetadata("user-123", "jane")

	assert.Equal(t, "user-123", metadata.UserID)
	assert.Equal(t, "jane", metadata.UserName)
	assert.WithinDuration(t, time.Now(), metadata.Timestamp, time.Second)
}

func TestMetadata_WithCorrelationID(t *testing.T) {
	metadata := eventDomain.NewMetadata("user-1", "jane")

	updated := metadata.WithCorrelationID("req-1")

	assert.Equal(t, "req-1", updated.CorrelationID)
	assert.Empty(t, metadata.CorrelationID)
	assert.Equal(t, metadata.UserID, updated.UserID)
}

func TestMetadata_UpdatedBy(t *testing.T) {
	tests := []struct {
		name     string
		metadata eventDomain.Metadata
		want     string
	}{
		{name: "user name wins", metadata: eventDomain.NewMetadata("u-1", "jane"), want: "jane"},
		{name: "falls back to user id", metadata: eventDomain.NewMetadata("u-1", ""), want: "u-1"},
		{name: "empty is system", metadata: eventDomain.Metadata{}, want: eventDomain.SystemUser},
		{name: "system metadata", metadata: eventDomain.SystemMetadata(), want: eventDomain.SystemUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.metadata.UpdatedBy())
		})
	}
}

func TestNewBaseEvent(t *testing.T) {
	metadata := eventDomain.NewMetadata("user-1", "jane")

	evt := eventDomain.NewBaseEvent("health-check-started", "app-1", "StatusApplication", "tenant-1", metadata)

	assert.Equal(t, "health-check-started", evt.EventType())
	assert.Equal(t, "app-1", evt.AggregateID())
	assert.Equal(t, "StatusApplication", evt.AggregateType())
	assert.Equal(t, "tenant-1", evt.TenantID())
	assert.Equal(t, metadata, evt.Metadata())
	assert.WithinDuration(t, time.Now(), evt.OccurredAt(), time.Second)
}
