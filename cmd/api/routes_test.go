package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/statuswatch/internal/infrastructure/httpserver"
)

func newTestRouter(t *testing.T, c *Container) *httpserver.Router {
	t.Helper()
	return SetupRoutes(c, newServer(c).Echo())
}

func serve(router *httpserver.Router, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	router.Echo().ServeHTTP(rec, req)
	return rec
}

func TestSetupRoutes_HealthEndpoints(t *testing.T) {
	router := newTestRouter(t, newMockContainer(t))

	for _, path := range []string{"/health", "/ready", "/health/details"} {
		t.Run(path, func(t *testing.T) {
			rec := serve(router, http.MethodGet, path, "")
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestSetupRoutes_Metrics(t *testing.T) {
	c := newMockContainer(t)
	router := newTestRouter(t, c)

	rec := serve(router, http.MethodPost, "/api/v1/applications",
		`{"name":"Billing API","endpoint":{"url":"https://billing.example.com/health"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(router, http.MethodPatch, "/api/v1/applications/acme-billing-api/enable", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "statuswatch_events_published_total")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestSetupRoutes_MetricsDisabled(t *testing.T) {
	c := newMockContainer(t)
	c.Config.Metrics.Enabled = false
	router := newTestRouter(t, c)

	rec := serve(router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetupRoutes_ApplicationsAsMockOperator(t *testing.T) {
	router := newTestRouter(t, newMockContainer(t))

	rec := serve(router, http.MethodGet, "/api/v1/applications", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp httpserver.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestSetupRoutes_UnknownApplication(t *testing.T) {
	router := newTestRouter(t, newMockContainer(t))

	rec := serve(router, http.MethodGet, "/api/v1/applications/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetupRoutes_BodyLimit(t *testing.T) {
	c := newMockContainer(t)
	c.Config.Server.BodyLimit = "1K"
	router := newTestRouter(t, c)

	body := `{"name":"` + strings.Repeat("x", 4096) + `"}`
	rec := serve(router, http.MethodPost, "/api/v1/applications", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
