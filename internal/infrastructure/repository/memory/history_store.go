package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/lllypuk/statuswatch/internal/domain/status"
	"github.com/lllypuk/statuswatch/internal/domain/uuid"
)

// HistoryStore keeps poll history in memory.
type HistoryStore struct {
	mu      sync.RWMutex
	entries []status.EndpointStatusEntry
}

// NewHistoryStore creates an empty store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{entries: make([]status.EndpointStatusEntry, 0)}
}

// Append stores one entry.
func (s *HistoryStore) Append(_ context.Context, entry status.EndpointStatusEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, entry)
	return nil
}

// FindRecentByURLAndApplicationID returns the newest entries first.
func (s *HistoryStore) FindRecentByURLAndApplicationID(
	_ context.Context,
	url string,
	applicationID uuid.UUID,
	limit int,
) ([]status.EndpointStatusEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]status.EndpointStatusEntry, 0)
	for _, entry := range slices.Backward(s.entries) {
		if limit > 0 && len(result) >= limit {
			break
		}
		if entry.ApplicationID == applicationID && entry.URL == url {
			result = append(result, entry)
		}
	}
	return result, nil
}

// Len returns the number of stored entries.
func (s *HistoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ status.HistoryStore = (*HistoryStore)(nil)
