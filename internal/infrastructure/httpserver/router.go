package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lllypuk/statuswatch/internal/middleware"
)

// DefaultAPIPrefix is the prefix of every API route.
const DefaultAPIPrefix = "/api/v1"

// RouterConfig wires the middleware chain of the API.
type RouterConfig struct {
	Logger         *slog.Logger
	AuthMiddleware echo.MiddlewareFunc
	LoggingConfig  middleware.LoggingConfig
	RecoveryConfig middleware.RecoveryConfig
	APIPrefix      string
}

// DefaultRouterConfig returns a RouterConfig with sensible defaults.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		Logger:        slog.Default(),
		LoggingConfig: middleware.DefaultLoggingConfig(),
		APIPrefix:     DefaultAPIPrefix,
	}
}

// withDefaults fills what the caller left empty; the middlewares inherit the router logger.
func (c RouterConfig) withDefaults() RouterConfig {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.APIPrefix == "" {
		c.APIPrefix = DefaultAPIPrefix
	}
	if c.LoggingConfig.Logger == nil {
		c.LoggingConfig.Logger = c.Logger
	}
	if c.RecoveryConfig.Logger == nil {
		c.RecoveryConfig.Logger = c.Logger
	}
	return c
}

// Router splits the API into a public group and a tenant-authenticated group.
type Router struct {
	echo   *echo.Echo
	logger *slog.Logger

	public *echo.Group
	auth   *echo.Group
}

// NewRouter installs logging and recovery on e and creates the route groups.
// Without AuthMiddleware the authenticated group is the public one.
func NewRouter(e *echo.Echo, config RouterConfig) *Router {
	config = config.withDefaults()

	// Logging первым: recovery должен видеть request id
	e.Use(middleware.Logging(config.LoggingConfig), middleware.RecoveryWithConfig(config.RecoveryConfig))

	r := &Router{echo: e, logger: config.Logger}
	r.public = e.Group(config.APIPrefix)
	r.auth = r.public
	if config.AuthMiddleware != nil {
		r.auth = r.public.Group("", config.AuthMiddleware)
	} else {
		r.logger.Warn("no auth middleware configured, authenticated routes are public")
	}
	return r
}

// Echo returns the underlying Echo instance.
func (r *Router) Echo() *echo.Echo {
	return r.echo
}

// Public returns the group for routes that do not require authentication.
func (r *Router) Public() *echo.Group {
	return r.public
}

// Auth returns the group for routes that require a tenant-bound token.
func (r *Router) Auth() *echo.Group {
	return r.auth
}

// RouteRegistrar is implemented by HTTP handlers.
type RouteRegistrar interface {
	RegisterRoutes(r *Router)
}

// RegisterAll mounts every registrar in order.
func (r *Router) RegisterAll(registrars ...RouteRegistrar) {
	for _, registrar := range registrars {
		registrar.RegisterRoutes(r)
	}
}

// PrintRoutes logs the route table at debug level.
func (r *Router) PrintRoutes() {
	for _, route := range r.echo.Routes() {
		r.logger.Debug("registered route",
			slog.String("method", route.Method),
			slog.String("path", route.Path),
		)
	}
}

// RegisterMetricsEndpoint registers the Prometheus metrics endpoint for the gatherer.
func (r *Router) RegisterMetricsEndpoint(gatherer prometheus.Gatherer) {
	r.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
