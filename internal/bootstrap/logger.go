// Package bootstrap собирает зависимости, общие для API и воркера:
// логгер, подключения к хранилищам, шину событий и метрики.
package bootstrap

import (
	"io"
	"log/slog"

	"github.com/lllypuk/statuswatch/internal/config"
)

// NewLogger builds the process logger and installs it as slog default.
// Unknown formats fall back to JSON.
func NewLogger(w io.Writer, cfg *config.Config, service string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLogLevel(cfg.Log.Level),
		AddSource: cfg.IsDevelopment(),
	}

	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if cfg.Log.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler).With(slog.String("service", service))
	slog.SetDefault(logger)
	return logger
}

// ParseLogLevel понимает имена slog без учета регистра; остальное считается info.
func ParseLogLevel(level string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Environment returns the environment name for startup logs.
func Environment(cfg *config.Config) string {
	switch {
	case cfg.IsProduction():
		return config.EnvProduction
	case cfg.App.Environment == "":
		return "unknown"
	default:
		return cfg.App.Environment
	}
}
