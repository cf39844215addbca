package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/lllypuk/statuswatch/internal/domain/errs"
	"github.com/lllypuk/statuswatch/internal/domain/status"
)

// MockConfigStore implements status.ConfigStore for testing
type MockConfigStore struct {
	mu       sync.RWMutex
	configs  map[string]map[string]status.ApplicationConfig
	failures map[string]error
	patches  []RecordedPatch
	calls    map[string]int
}

// RecordedPatch is one PatchConfiguration call
type RecordedPatch struct {
	TenantID string
	Patch    status.ConfigPatch
}

// NewMockConfigStore creates an empty store
func NewMockConfigStore() *MockConfigStore {
	return &MockConfigStore{
		configs:  make(map[string]map[string]status.ApplicationConfig),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
}

// Put adds a config entry for a tenant
func (s *MockConfigStore) Put(tenantID string, cfg status.ApplicationConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.configs[tenantID] == nil {
		s.configs[tenantID] = make(map[string]status.ApplicationConfig)
	}
	s.configs[tenantID][cfg.ID.String()] = cfg
}

// FailTenant makes every call for the tenant fail
func (s *MockConfigStore) FailTenant(tenantID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[tenantID] = err
}

// GetConfiguration returns the tenant's entries
func (s *MockConfigStore) GetConfiguration(_ context.Context, tenantID string) ([]status.ApplicationConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls["GetConfiguration"]++
	if err := s.failures[tenantID]; err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrUpstreamUnavailable, err)
	}

	result := make([]status.ApplicationConfig, 0, len(s.configs[tenantID]))
	for _, cfg := range s.configs[tenantID] {
		result = append(result, cfg)
	}
	return result, nil
}

// PatchConfiguration applies and records a patch
func (s *MockConfigStore) PatchConfiguration(_ context.Context, tenantID string, patch status.ConfigPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls["PatchConfiguration"]++
	if err := s.failures[tenantID]; err != nil {
		return fmt.Errorf("%w: %w", errs.ErrUpstreamUnavailable, err)
	}

	s.patches = append(s.patches, RecordedPatch{TenantID: tenantID, Patch: patch})
	if s.configs[tenantID] == nil {
		s.configs[tenantID] = make(map[string]status.ApplicationConfig)
	}
	switch patch.Operation {
	case status.PatchUpdate:
		if patch.Value != nil {
			s.configs[tenantID][patch.Key] = *patch.Value
		}
	case status.PatchDelete:
		delete(s.configs[tenantID], patch.Key)
	}
	return nil
}

// Patches returns recorded patches
func (s *MockConfigStore) Patches() []RecordedPatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]RecordedPatch{}, s.patches...)
}

// CallCount returns how many times a method was called
func (s *MockConfigStore) CallCount(method string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[method]
}
