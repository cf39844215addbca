package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/lllypuk/statuswatch/internal/application/appcore"
)

const (
	// RequestIDHeader приходит от клиента или генерируется и возвращается в ответе.
	RequestIDHeader = echo.HeaderXRequestID

	// RequestIDKey is the echo context key of the request ID.
	RequestIDKey = "request_id"
)

// LoggingConfig holds configuration for the logging middleware.
type LoggingConfig struct {
	Logger    *slog.Logger
	SkipPaths []string // пути проб и метрик не логируются
}

// DefaultLoggingConfig skips the probe and metrics endpoints.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Logger:    slog.Default(),
		SkipPaths: []string{"/health", "/ready", "/metrics"},
	}
}

// Logging assigns a request ID, makes it the correlation ID of the request
// context and writes one access log line per request.
func Logging(config LoggingConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	skip := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skip[path] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := assignRequestID(c)
			if skip[c.Request().URL.Path] {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			req, res := c.Request(), c.Response()
			status := responseStatus(res.Status, err)
			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("method", req.Method),
				slog.String("path", req.URL.Path),
				slog.Int("status", status),
				slog.Duration("latency", time.Since(start)),
				slog.String("remote_ip", c.RealIP()),
				slog.Int64("response_size", res.Size),
			}
			if req.URL.RawQuery != "" {
				attrs = append(attrs, slog.String("query", req.URL.RawQuery))
			}
			// auth runs inside this middleware, tenant is known only after next()
			if tenantID := GetTenantID(c); tenantID != "" {
				attrs = append(attrs, slog.String("tenant_id", tenantID), slog.String("user_id", GetUserID(c)))
			}

			level := levelFor(status)
			if err != nil && level > slog.LevelInfo {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
			config.Logger.LogAttrs(req.Context(), level, "HTTP request", attrs...)
			return err
		}
	}
}

func assignRequestID(c echo.Context) string {
	req := c.Request()
	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	c.Response().Header().Set(RequestIDHeader, requestID)
	c.Set(RequestIDKey, requestID)
	c.SetRequest(req.WithContext(appcore.WithCorrelationID(req.Context(), requestID)))
	return requestID
}

// responseStatus учитывает echo.HTTPError, который еще не записан в ответ
func responseStatus(written int, err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return written
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetRequestID retrieves the request ID from the echo context.
func GetRequestID(c echo.Context) string {
	if id, ok := c.Get(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
