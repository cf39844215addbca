package configstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/lllypuk/statuswatch/internal/domain/errs"
	"github.com/lllypuk/statuswatch/internal/domain/status"
)

// MemoryStore is an in-process status.ConfigStore used in mock mode.
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[string]map[string]status.ApplicationConfig
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tenants: make(map[string]map[string]status.ApplicationConfig),
	}
}

// GetConfiguration returns the tenant entries ordered by appKey
func (s *MemoryStore) GetConfiguration(_ context.Context, tenantID string) ([]status.ApplicationConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.tenants[tenantID]
	configs := make([]status.ApplicationConfig, 0, len(entries))
	for _, cfg := range entries {
		configs = append(configs, cfg)
	}
	slices.SortFunc(configs, func(a, b status.ApplicationConfig) int {
		return strings.Compare(a.AppKey, b.AppKey)
	})
	return configs, nil
}

// PatchConfiguration applies the patch
func (s *MemoryStore) PatchConfiguration(_ context.Context, tenantID string, patch status.ConfigPatch) error {
	if _, err := buildPatchBody(patch); err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.tenants[tenantID]
	if !ok {
		entries = make(map[string]status.ApplicationConfig)
		s.tenants[tenantID] = entries
	}

	switch patch.Operation {
	case status.PatchUpdate:
		entries[patch.Key] = *patch.Value
	case status.PatchDelete:
		delete(entries, patch.Key)
	}
	return nil
}

var _ status.ConfigStore = (*MemoryStore)(nil)
