package middleware_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lllypuk/statuswatch/internal/application/appcore"
	"github.com/lllypuk/statuswatch/internal/middleware"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func jsonLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestDefaultLoggingConfig(t *testing.T) {
	cfg := middleware.DefaultLoggingConfig()

	assert.NotNil(t, cfg.Logger)
	assert.Equal(t, []string{"/health", "/ready", "/metrics"}, cfg.SkipPaths)
}

func TestLogging_LevelsAndSkipPaths(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		wantLevel string
	}{
		{"success", "/api/v1/applications", http.StatusOK, "INFO"},
		{"client error", "/api/v1/applications", http.StatusNotFound, "WARN"},
		{"server error", "/api/v1/applications", http.StatusServiceUnavailable, "ERROR"},
		{"skipped", "/health", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			e := echo.New()
			e.Use(middleware.Logging(middleware.LoggingConfig{
				Logger:    jsonLogger(&buf),
				SkipPaths: []string{"/health"},
			}))
			e.GET(tt.path, func(c echo.Context) error {
				return c.NoContent(tt.status)
			})

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path+"?top=5", nil))

			assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
			if tt.wantLevel == "" {
				assert.Empty(t, buf.String())
				return
			}

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, "HTTP request", entry["msg"])
			assert.Equal(t, http.MethodGet, entry["method"])
			assert.Equal(t, tt.path, entry["path"])
			assert.EqualValues(t, tt.status, entry["status"])
			assert.Equal(t, "top=5", entry["query"])
		})
	}
}

func TestLogging_RequestID(t *testing.T) {
	e := echo.New()
	var fromContext, correlation string
	e.Use(middleware.Logging(middleware.LoggingConfig{Logger: discardLogger()}))
	e.GET("/", func(c echo.Context) error {
		fromContext = middleware.GetRequestID(c)
		correlation = appcore.GetCorrelationID(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})

	t.Run("propagates incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.RequestIDHeader, "incoming-id")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, "incoming-id", rec.Header().Get(middleware.RequestIDHeader))
		assert.Equal(t, "incoming-id", fromContext)
		assert.Equal(t, "incoming-id", correlation)
	})

	t.Run("generates id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		generated := rec.Header().Get(middleware.RequestIDHeader)
		assert.Len(t, generated, 36)
		assert.Equal(t, generated, fromContext)
		assert.Equal(t, generated, correlation)
	})
}

func TestLogging_TenantAndError(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(middleware.Logging(middleware.LoggingConfig{Logger: jsonLogger(&buf)}))
	e.Use(middleware.Auth(middleware.AuthConfig{MockClaims: middleware.MockOperatorClaims("tenant-7", "Acme")}))
	e.GET("/fail", func(_ echo.Context) error {
		return echo.NewHTTPError(http.StatusBadGateway, "upstream")
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	out := buf.String()
	assert.Contains(t, out, `"tenant_id":"tenant-7"`)
	assert.Contains(t, out, `"user_id":"mock-operator"`)
	assert.Contains(t, out, `"status":502`)
	assert.True(t, strings.Contains(out, "upstream"))
}

func TestLogging_NilLogger(t *testing.T) {
	e := echo.New()
	e.Use(middleware.Logging(middleware.LoggingConfig{}))
	e.GET("/", func(_ echo.Context) error {
		return errors.New("plain error")
	})

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
