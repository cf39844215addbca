package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
)

// DefaultStackSize ограничивает захваченный стек (4KB).
const DefaultStackSize = 4 << 10

// RecoveryConfig holds configuration for the recovery middleware.
type RecoveryConfig struct {
	Logger            *slog.Logger
	StackSize         int
	DisablePrintStack bool // в production стек в лог не пишем
}

// internalError повторяет формат httpserver.Response, импорт дал бы цикл
var internalError = map[string]any{
	"success": false,
	"error": map[string]string{
		"code":    "INTERNAL_ERROR",
		"message": "An internal error occurred",
	},
}

// Recovery turns a handler panic into a logged 500.
func Recovery(logger *slog.Logger) echo.MiddlewareFunc {
	return RecoveryWithConfig(RecoveryConfig{Logger: logger})
}

// RecoveryWithConfig is Recovery with stack capture settings.
func RecoveryWithConfig(config RecoveryConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.StackSize <= 0 {
		config.StackSize = DefaultStackSize
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					config.logPanic(c, r)
					if !c.Response().Committed {
						err = c.JSON(http.StatusInternalServerError, internalError)
					}
				}
			}()
			return next(c)
		}
	}
}

func (config RecoveryConfig) logPanic(c echo.Context, r any) {
	req := c.Request()
	attrs := []slog.Attr{
		slog.String("error", fmt.Sprint(r)),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.String("request_id", GetRequestID(c)),
	}
	if !config.DisablePrintStack {
		stack := make([]byte, config.StackSize)
		attrs = append(attrs, slog.String("stack", string(stack[:runtime.Stack(stack, false)])))
	}
	config.Logger.LogAttrs(req.Context(), slog.LevelError, "panic recovered", attrs...)
}
