package httphandler_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/statuswatch/internal/application/reconcile"
	statusapp "github.com/lllypuk/statuswatch/internal/application/status"
	"github.com/lllypuk/statuswatch/internal/domain/status"
	httphandler "github.com/lllypuk/statuswatch/internal/handler/http"
	"github.com/lllypuk/statuswatch/internal/infrastructure/httpserver"
	"github.com/lllypuk/statuswatch/internal/infrastructure/repository/memory"
	"github.com/lllypuk/statuswatch/internal/middleware"
	"github.com/lllypuk/statuswatch/internal/service"
	"github.com/lllypuk/statuswatch/tests/mocks"
)

const appURL = "https://billing.example.com/health"

type apiEnv struct {
	router  *httpserver.Router
	repo    *memory.ApplicationRepository
	history *memory.HistoryStore
	store   *mocks.MockConfigStore
	bus     *mocks.MockEventBus
}

func newAPIEnv(t *testing.T, claims *middleware.TokenClaims) *apiEnv {
	t.Helper()

	env := &apiEnv{
		repo:    memory.NewApplicationRepository(),
		history: memory.NewHistoryStore(),
		store:   mocks.NewMockConfigStore(),
		bus:     mocks.NewMockEventBus(),
	}
	env.router = env.routerFor(claims)
	return env
}

// as returns an environment over the same stores for another caller.
func (e *apiEnv) as(claims *middleware.TokenClaims) *apiEnv {
	other := *e
	other.router = e.routerFor(claims)
	return &other
}

func (e *apiEnv) routerFor(claims *middleware.TokenClaims) *httpserver.Router {
	logger := slog.New(slog.DiscardHandler)
	mgr := reconcile.NewManager(e.repo, e.store, reconcile.WithLogger(logger))

	svc := service.NewApplicationService(service.ApplicationServiceConfig{
		ListUC:    statusapp.NewListApplicationsUseCase(mgr),
		GetUC:     statusapp.NewGetApplicationUseCase(mgr),
		CreateUC:  statusapp.NewCreateApplicationUseCase(e.repo, e.store, e.bus, logger),
		UpdateUC:  statusapp.NewUpdateApplicationUseCase(e.repo, e.store, logger),
		DeleteUC:  statusapp.NewDeleteApplicationUseCase(e.repo, e.store, e.bus, nil, logger),
		StateUC:   statusapp.NewChangeStateUseCase(e.repo, mgr, e.bus, nil, logger),
		StatusUC:  statusapp.NewSetStatusUseCase(e.repo, mgr, e.bus, logger),
		EntriesUC: statusapp.NewGetEndpointEntriesUseCase(e.repo, e.history),
	})

	cfg := httpserver.DefaultRouterConfig()
	cfg.Logger = logger
	cfg.AuthMiddleware = middleware.Auth(middleware.AuthConfig{Logger: logger, MockClaims: claims})
	router := httpserver.NewRouter(echo.New(), cfg)
	router.RegisterAll(httphandler.NewApplicationHandler(svc))
	return router
}

func operator() *middleware.TokenClaims {
	return middleware.MockOperatorClaims("tenant-1", "Acme")
}

func (e *apiEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, httpserver.Response) {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.router.Echo().ServeHTTP(rec, req)

	var resp httpserver.Response
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func decodeData[T any](t *testing.T, resp httpserver.Response) T {
	t.Helper()

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func (e *apiEnv) create(t *testing.T) httphandler.ApplicationResponse {
	t.Helper()

	rec, resp := e.do(t, http.MethodPost, "/api/v1/applications",
		`{"name":"Billing API","description":"payments","endpoint":{"url":"`+appURL+`"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeData[httphandler.ApplicationResponse](t, resp)
}

func TestApplicationHandler_CreateAndList(t *testing.T) {
	env := newAPIEnv(t, operator())

	created := env.create(t)
	assert.Equal(t, "acme-billing-api", created.AppKey)
	assert.Equal(t, "Billing API", created.Name)
	assert.Equal(t, "tenant-1", created.TenantID)
	assert.False(t, created.Enabled)
	assert.Equal(t, appURL, created.Endpoint.URL)
	require.Len(t, env.store.Patches(), 1)

	rec, resp := env.do(t, http.MethodGet, "/api/v1/applications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeData[[]httphandler.ApplicationResponse](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, "payments", list[0].Description)

	rec, resp = env.do(t, http.MethodGet, "/api/v1/applications/acme-billing-api", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decodeData[httphandler.ApplicationResponse](t, resp).ID)
}

func TestApplicationHandler_CreateErrors(t *testing.T) {
	env := newAPIEnv(t, operator())
	env.create(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"malformed body", `{"name":`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"missing name", `{"endpoint":{"url":"` + appURL + `"}}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad url", `{"name":"Other","endpoint":{"url":"ftp://x"}}`, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"duplicate", `{"name":"Billing API","endpoint":{"url":"` + appURL + `"}}`, http.StatusConflict, "ALREADY_EXISTS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := env.do(t, http.MethodPost, "/api/v1/applications", tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantErr, resp.Error.Code)
		})
	}
}

func TestApplicationHandler_EnableDisableToggle(t *testing.T) {
	env := newAPIEnv(t, operator())
	env.create(t)
	env.bus.Reset()

	rec, resp := env.do(t, http.MethodPatch, "/api/v1/applications/acme-billing-api/enable", "")
	require.Equal(t, http.StatusOK, rec.Code)
	enabled := decodeData[httphandler.ApplicationResponse](t, resp)
	assert.True(t, enabled.Enabled)
	assert.Equal(t, string(status.StatusPending), enabled.Status)
	assert.Equal(t, string(status.EndpointUnknown), enabled.Endpoint.Status)
	assert.Equal(t, []string{status.EventTypeHealthCheckStarted, status.EventTypeStatusChanged}, env.bus.PublishedTypes())

	// повторный enable ничего не публикует
	rec, _ = env.do(t, http.MethodPatch, "/api/v1/applications/acme-billing-api/enable", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, env.bus.PublishedCount())

	rec, resp = env.do(t, http.MethodPatch, "/api/v1/applications/acme-billing-api/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	toggled := decodeData[httphandler.ApplicationResponse](t, resp)
	assert.False(t, toggled.Enabled)
	assert.Equal(t, string(status.StatusDisabled), toggled.Status)

	rec, _ = env.do(t, http.MethodPatch, "/api/v1/applications/acme-billing-api/disable", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, env.bus.PublishedCount())
}

func TestApplicationHandler_SetStatus(t *testing.T) {
	env := newAPIEnv(t, operator())
	env.create(t)

	rec, resp := env.do(t, http.MethodPatch, "/api/v1/applications/acme-billing-api/status", `{"status":"maintenance"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "maintenance", decodeData[httphandler.ApplicationResponse](t, resp).Status)

	changed := env.bus.GetPublishedEventsByType(status.EventTypeStatusChanged)
	require.NotEmpty(t, changed)

	rec, resp = env.do(t, http.MethodPatch, "/api/v1/applications/acme-billing-api/status", `{"status":"sunny"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestApplicationHandler_UpdateAndDelete(t *testing.T) {
	env := newAPIEnv(t, operator())
	created := env.create(t)

	rec, resp := env.do(t, http.MethodPut, "/api/v1/applications/acme-billing-api",
		`{"name":"Billing API","description":"v2","endpoint":{"url":"https://billing.example.com/ready"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeData[httphandler.ApplicationResponse](t, resp)
	assert.Equal(t, "v2", updated.Description)
	assert.Equal(t, "https://billing.example.com/ready", updated.Endpoint.URL)

	rec, _ = env.do(t, http.MethodDelete, "/api/v1/applications/acme-billing-api", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	patches := env.store.Patches()
	last := patches[len(patches)-1]
	assert.Equal(t, status.PatchDelete, last.Patch.Operation)
	assert.Equal(t, created.ID, last.Patch.Key)

	rec, resp = env.do(t, http.MethodGet, "/api/v1/applications/acme-billing-api", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestApplicationHandler_Entries(t *testing.T) {
	env := newAPIEnv(t, operator())
	created := env.create(t)

	app, err := env.repo.FindByAppKey(context.Background(), "tenant-1", created.AppKey)
	require.NoError(t, err)
	base := time.Now().UTC().Add(-time.Minute)
	for i := range 3 {
		require.NoError(t, env.history.Append(context.Background(), status.NewEndpointStatusEntry(app.ID(), status.PollSample{
			URL:          appURL,
			OK:           i != 1,
			StatusCode:   http.StatusOK,
			ResponseTime: 25 * time.Millisecond,
			Timestamp:    base.Add(time.Duration(i) * time.Second),
		})))
	}

	rec, resp := env.do(t, http.MethodGet, "/api/v1/applications/acme-billing-api/endpoint-status-entries?top=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decodeData[[]httphandler.EndpointStatusEntryResponse](t, resp)
	require.Len(t, entries, 2)
	assert.Equal(t, created.ID, entries[0].ApplicationID)
	assert.Equal(t, appURL, entries[0].URL)
	assert.Greater(t, entries[0].Timestamp, entries[1].Timestamp)
	require.NotNil(t, entries[0].ResponseTime)
	assert.EqualValues(t, 25, *entries[0].ResponseTime)

	rec, resp = env.do(t, http.MethodGet, "/api/v1/applications/acme-billing-api/endpoint-status-entries?topValue=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]httphandler.EndpointStatusEntryResponse](t, resp), 1)

	// top wins over topValue
	rec, resp = env.do(t, http.MethodGet,
		"/api/v1/applications/acme-billing-api/endpoint-status-entries?top=3&topValue=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeData[[]httphandler.EndpointStatusEntryResponse](t, resp), 3)

	rec, resp = env.do(t, http.MethodGet, "/api/v1/applications/acme-billing-api/endpoint-status-entries?topValue=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)

	for _, top := range []string{"abc", "-1", "1001"} {
		rec, resp = env.do(t, http.MethodGet, "/api/v1/applications/acme-billing-api/endpoint-status-entries?top="+top, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, top)
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code, top)
	}
}

func TestApplicationHandler_TenantIsolation(t *testing.T) {
	env := newAPIEnv(t, operator())
	env.create(t)

	other := env.as(middleware.MockOperatorClaims("tenant-2", "Acme"))

	rec, resp := other.do(t, http.MethodGet, "/api/v1/applications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeData[[]httphandler.ApplicationResponse](t, resp))

	rec, resp = other.do(t, http.MethodPatch, "/api/v1/applications/acme-billing-api/enable", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)

	rec, resp = other.do(t, http.MethodGet, "/api/v1/applications/acme-billing-api", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)

	rec, resp = other.do(t, http.MethodGet, "/api/v1/applications/acme-unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)

	stored, err := env.repo.FindByAppKey(context.Background(), "tenant-1", "acme-billing-api")
	require.NoError(t, err)
	assert.False(t, stored.IsEnabled())
}

func TestApplicationHandler_ReadOnlyActor(t *testing.T) {
	env := newAPIEnv(t, operator())
	env.create(t)

	viewer := env.as(&middleware.TokenClaims{UserID: "viewer", TenantID: "tenant-1", TenantName: "Acme"})

	rec, resp := viewer.do(t, http.MethodPatch, "/api/v1/applications/acme-billing-api/enable", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)

	rec, _ = viewer.do(t, http.MethodGet, "/api/v1/applications/acme-billing-api", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestApplicationHandler_UpstreamUnavailable(t *testing.T) {
	env := newAPIEnv(t, operator())
	env.store.FailTenant("tenant-1", errors.New("connection refused"))

	rec, resp := env.do(t, http.MethodGet, "/api/v1/applications", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
}
