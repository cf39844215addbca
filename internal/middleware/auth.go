package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lllypuk/statuswatch/internal/domain/status"
)

// ClaimsKey is the echo context key of the authenticated *TokenClaims.
const ClaimsKey = "auth.claims"

// Auth errors.
var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthHeader = errors.New("invalid authorization header format")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
	ErrMissingTenant     = errors.New("token has no tenant")
)

// TokenClaims is the operator identity taken from a verified token.
type TokenClaims struct {
	UserID     string
	Username   string
	TenantID   string
	TenantName string
	Roles      []string
	ExpiresAt  time.Time
}

// TokenValidator is implemented by KeycloakValidatorAdapter.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger         *slog.Logger
	TokenValidator TokenValidator
	SkipPaths      []string

	// MockClaims заменяют токен для каждого запроса (только mock режим)
	MockClaims *TokenClaims
}

// DefaultAuthConfig leaves the probe and metrics endpoints public.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		Logger:    slog.Default(),
		SkipPaths: []string{"/health", "/ready", "/health/details", "/metrics"},
	}
}

// MockOperatorClaims returns claims of a status operator of the given tenant.
func MockOperatorClaims(tenantID, tenantName string) *TokenClaims {
	return &TokenClaims{
		UserID:     "mock-operator",
		Username:   "mock-operator",
		TenantID:   tenantID,
		TenantName: tenantName,
		Roles:      []string{status.RoleStatusAdmin},
	}
}

// Auth requires a Bearer token bound to a tenant on every path outside SkipPaths.
func Auth(config AuthConfig) echo.MiddlewareFunc {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if slices.Contains(config.SkipPaths, c.Request().URL.Path) {
				return next(c)
			}

			claims, err := config.authenticate(c)
			if err != nil {
				return respondAuthError(c, err)
			}
			SetClaims(c, claims)
			return next(c)
		}
	}
}

func (config AuthConfig) authenticate(c echo.Context) (*TokenClaims, error) {
	if config.MockClaims != nil {
		return config.MockClaims, nil
	}

	token, err := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return nil, err
	}
	if config.TokenValidator == nil {
		config.Logger.Error("token validator not configured")
		return nil, ErrInvalidToken
	}

	ctx := c.Request().Context()
	claims, err := config.TokenValidator.ValidateToken(ctx, token)
	if err != nil {
		config.Logger.WarnContext(ctx, "token validation failed",
			slog.String("error", err.Error()),
			slog.String("path", c.Request().URL.Path),
			slog.String("remote_ip", c.RealIP()),
		)
		return nil, err
	}
	if claims.TenantID == "" {
		config.Logger.WarnContext(ctx, "token without tenant", slog.String("user_id", claims.UserID))
		return nil, ErrMissingTenant
	}

	config.Logger.DebugContext(ctx, "user authenticated",
		slog.String("user_id", claims.UserID),
		slog.String("tenant_id", claims.TenantID),
	)
	return claims, nil
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingAuthHeader
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", ErrInvalidAuthHeader
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", ErrInvalidAuthHeader
	}
	return token, nil
}

type authFailure struct {
	err     error
	code    string
	message string
}

var authFailures = []authFailure{
	{ErrMissingAuthHeader, "UNAUTHORIZED", "Missing authorization header"},
	{ErrInvalidAuthHeader, "UNAUTHORIZED", "Invalid authorization header format"},
	{ErrTokenExpired, "TOKEN_EXPIRED", "Token has expired"},
	{ErrMissingTenant, "TENANT_REQUIRED", "Token is not bound to a tenant"},
	{ErrInvalidToken, "UNAUTHORIZED", "Invalid token"},
}

func respondAuthError(c echo.Context, err error) error {
	code, message := "UNAUTHORIZED", "Authentication required"
	for _, f := range authFailures {
		if errors.Is(err, f.err) {
			code, message = f.code, f.message
			break
		}
	}

	return c.JSON(http.StatusUnauthorized, map[string]any{
		"success": false,
		"error":   map[string]string{"code": code, "message": message},
	})
}

// SetClaims stores the authenticated identity on the request.
func SetClaims(c echo.Context, claims *TokenClaims) {
	c.Set(ClaimsKey, claims)
}

// GetClaims returns the identity set by Auth, nil on public paths.
func GetClaims(c echo.Context) *TokenClaims {
	claims, _ := c.Get(ClaimsKey).(*TokenClaims)
	return claims
}

// GetActor builds the status actor of the authenticated request.
func GetActor(c echo.Context) status.Actor {
	actor := status.Actor{CorrelationID: GetRequestID(c)}
	if claims := GetClaims(c); claims != nil {
		actor.UserID = claims.UserID
		actor.UserName = claims.Username
		actor.TenantID = claims.TenantID
		actor.TenantName = claims.TenantName
		actor.Roles = slices.Clone(claims.Roles)
	}
	return actor
}

func GetUserID(c echo.Context) string {
	if claims := GetClaims(c); claims != nil {
		return claims.UserID
	}
	return ""
}

func GetTenantID(c echo.Context) string {
	if claims := GetClaims(c); claims != nil {
		return claims.TenantID
	}
	return ""
}

func GetRoles(c echo.Context) []string {
	if claims := GetClaims(c); claims != nil {
		return claims.Roles
	}
	return nil
}

// HasRole reports whether the authenticated operator has the role.
func HasRole(c echo.Context, role string) bool {
	return slices.Contains(GetRoles(c), role)
}
