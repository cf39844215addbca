// Package main provides the API server entry point.
package main

import (
	"github.com/labstack/echo/v4"

	"github.com/lllypuk/statuswatch/internal/infrastructure/httpserver"
	"github.com/lllypuk/statuswatch/internal/middleware"
)

// newServer maps the server section of the configuration onto the HTTP server.
func newServer(c *Container) *httpserver.Server {
	cfg := c.Config.Server
	return httpserver.NewServer(httpserver.ServerConfig{
		Host:            cfg.Host,
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
		BodyLimit:       cfg.BodyLimit,
	}, c.Logger)
}

// SetupRoutes configures all API routes and middleware chains on e.
func SetupRoutes(c *Container, e *echo.Echo) *httpserver.Router {
	routerConfig := httpserver.RouterConfig{
		Logger:         c.Logger,
		AuthMiddleware: c.AuthMiddleware,
		LoggingConfig:  middleware.DefaultLoggingConfig(),
		RecoveryConfig: middleware.RecoveryConfig{Logger: c.Logger, DisablePrintStack: c.Config.IsProduction()},
		APIPrefix:      httpserver.DefaultAPIPrefix,
	}

	router := httpserver.NewRouter(e, routerConfig)

	// /health, /ready и /health/details
	router.RegisterHealthEndpointsWithChecker(c.Health)

	if c.Config.Metrics.Enabled {
		router.RegisterMetricsEndpoint(c.Registry)
	}

	router.RegisterAll(c.ApplicationHandler)

	if c.Config.IsDevelopment() {
		router.PrintRoutes()
	}

	return router
}
