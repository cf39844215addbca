package status

import (
	"context"
	"fmt"

	"github.com/lllypuk/statuswatch/internal/application/appcore"
	"github.com/lllypuk/statuswatch/internal/domain/status"
)

// GetEndpointEntriesUseCase возвращает последние результаты опроса
type GetEndpointEntriesUseCase struct {
	repo    status.Repository
	history status.HistoryStore
}

// NewGetEndpointEntriesUseCase создает use case
func NewGetEndpointEntriesUseCase(repo status.Repository, history status.HistoryStore) *GetEndpointEntriesUseCase {
	return &GetEndpointEntriesUseCase{repo: repo, history: history}
}

// Execute выполняет запрос
func (uc *GetEndpointEntriesUseCase) Execute(ctx context.Context, query GetEndpointEntriesQuery) (EntriesResult, error) {
	if err := validateTarget(query.Actor, query.AppKey); err != nil {
		return EntriesResult{}, fmt.Errorf("validation failed: %w", err)
	}

	top := query.Top
	if top == 0 {
		top = DefaultEntriesTop
	}
	if err := appcore.ValidateRange("top", top, 1, MaxEntriesTop); err != nil {
		return EntriesResult{}, fmt.Errorf("validation failed: %w", err)
	}

	app, err := loadForActor(ctx, uc.repo, query.Actor, query.AppKey)
	if err != nil {
		return EntriesResult{}, err
	}

	url := app.Endpoint().URL
	entries, err := uc.history.FindRecentByURLAndApplicationID(ctx, url, app.ID(), top)
	if err != nil {
		return EntriesResult{}, fmt.Errorf("failed to load endpoint entries: %w", err)
	}

	return EntriesResult{ApplicationID: app.ID().String(), URL: url, Entries: entries}, nil
}
