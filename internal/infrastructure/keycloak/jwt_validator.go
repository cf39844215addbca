package keycloak

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// JWT validation errors.
var (
	ErrInvalidToken    = errors.New("invalid token")
	ErrInvalidClaims   = errors.New("invalid claims")
	ErrMissingSubject  = errors.New("missing subject claim")
	ErrTokenExpired    = errors.New("token expired")
	ErrInvalidIssuer   = errors.New("invalid issuer")
	ErrInvalidAudience = errors.New("invalid audience")
	ErrJWKSFetchFailed = errors.New("failed to fetch JWKS")
)

// TokenClaims represents validated JWT claims of an operator token.
type TokenClaims struct {
	UserID     string
	Username   string
	Name       string
	TenantID   string
	TenantName string
	// Roles объединяет realm_access.roles и resource_access.<client>.roles.
	Roles     []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// HasRole reports whether the token carries the role.
func (c *TokenClaims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// JWTValidator validates Keycloak JWT tokens.
type JWTValidator interface {
	// Validate validates token and returns claims.
	Validate(ctx context.Context, tokenString string) (*TokenClaims, error)

	// Close stops background JWKS refresh.
	Close() error
}

// JWTValidatorConfig contains configuration for JWTValidator.
type JWTValidatorConfig struct {
	KeycloakURL     string
	Realm           string
	ClientID        string // ожидаемый audience и клиент в resource_access
	Leeway          time.Duration
	RefreshInterval time.Duration
	TenantClaim     string
	TenantNameClaim string
	Logger          *slog.Logger
}

// Default configuration values.
const (
	DefaultLeeway          = 30 * time.Second
	DefaultRefreshInterval = 1 * time.Hour
	DefaultTenantClaim     = "tenant_id"
	DefaultTenantNameClaim = "tenant_name"
)

func (c JWTValidatorConfig) withDefaults() JWTValidatorConfig {
	if c.Leeway == 0 {
		c.Leeway = DefaultLeeway
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = DefaultRefreshInterval
	}
	if c.TenantClaim == "" {
		c.TenantClaim = DefaultTenantClaim
	}
	if c.TenantNameClaim == "" {
		c.TenantNameClaim = DefaultTenantNameClaim
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// issuer is the realm URL Keycloak puts into iss.
func (c JWTValidatorConfig) issuer() string {
	return strings.TrimSuffix(c.KeycloakURL, "/") + "/realms/" + c.Realm
}

// jwtValidator validates offline against a JWKS refreshed in the background.
type jwtValidator struct {
	config JWTValidatorConfig
	parser *jwt.Parser
	jwks   keyfunc.Keyfunc
	cancel context.CancelFunc
}

// NewJWTValidator fetches the realm JWKS and keeps it refreshed until Close.
func NewJWTValidator(config JWTValidatorConfig) (JWTValidator, error) {
	if config.KeycloakURL == "" || config.Realm == "" {
		return nil, fmt.Errorf("%w: KeycloakURL and Realm are required", ErrJWKSFetchFailed)
	}
	config = config.withDefaults()

	jwksURL := config.issuer() + "/protocol/openid-connect/certs"
	config.Logger.Info("initializing JWT validator",
		slog.String("jwks_url", jwksURL),
		slog.Duration("refresh_interval", config.RefreshInterval),
	)

	// живет до Close
	ctx, cancel := context.WithCancel(context.Background())
	jwks, err := newRefreshingKeyfunc(ctx, jwksURL, config)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %w", ErrJWKSFetchFailed, err)
	}

	opts := []jwt.ParserOption{
		jwt.WithLeeway(config.Leeway),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(config.issuer()),
	}
	if config.ClientID != "" {
		opts = append(opts, jwt.WithAudience(config.ClientID))
	}

	return &jwtValidator{
		config: config,
		parser: jwt.NewParser(opts...),
		jwks:   jwks,
		cancel: cancel,
	}, nil
}

func newRefreshingKeyfunc(ctx context.Context, jwksURL string, config JWTValidatorConfig) (keyfunc.Keyfunc, error) {
	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Ctx:             ctx,
		RefreshInterval: config.RefreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			config.Logger.Error("failed to refresh JWKS", slog.Any("error", err))
		},
	})
	if err != nil {
		return nil, err
	}
	return keyfunc.New(keyfunc.Options{Ctx: ctx, Storage: storage})
}

// Validate checks signature, issuer, audience and lifetime, then maps the claims.
func (v *jwtValidator) Validate(_ context.Context, tokenString string) (*TokenClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := jwt.MapClaims{}
	token, err := v.parser.ParseWithClaims(tokenString, claims, v.jwks.Keyfunc)
	switch {
	case err != nil:
		return nil, mapParseError(err)
	case !token.Valid:
		return nil, ErrInvalidToken
	}
	return v.toTokenClaims(claims)
}

func mapParseError(err error) error {
	for _, m := range []struct{ jwtErr, ours error }{
		{jwt.ErrTokenExpired, ErrTokenExpired},
		{jwt.ErrTokenInvalidIssuer, ErrInvalidIssuer},
		{jwt.ErrTokenInvalidAudience, ErrInvalidAudience},
	} {
		if errors.Is(err, m.jwtErr) {
			return fmt.Errorf("%w: %w", m.ours, err)
		}
	}
	return fmt.Errorf("%w: %w", ErrInvalidToken, err)
}

func (v *jwtValidator) toTokenClaims(claims jwt.MapClaims) (*TokenClaims, error) {
	subject, _ := claims.GetSubject()
	if subject == "" {
		return nil, ErrMissingSubject
	}

	tc := &TokenClaims{
		UserID:     subject,
		Username:   stringClaim(claims["preferred_username"]),
		Name:       stringClaim(claims["name"]),
		TenantID:   stringClaim(claims[v.config.TenantClaim]),
		TenantName: stringClaim(claims[v.config.TenantNameClaim]),
		Roles:      v.roles(claims),
	}
	if tc.TenantName == "" {
		tc.TenantName = tc.TenantID
	}
	if iat, _ := claims.GetIssuedAt(); iat != nil {
		tc.IssuedAt = iat.Time
	}
	if exp, _ := claims.GetExpirationTime(); exp != nil {
		tc.ExpiresAt = exp.Time
	}
	return tc, nil
}

// roles: realm_access.roles, затем resource_access.<ClientID>.roles, без дублей
func (v *jwtValidator) roles(claims jwt.MapClaims) []string {
	var roles []string
	if realm, ok := claims["realm_access"].(map[string]any); ok {
		roles = appendRoles(roles, realm["roles"])
	}
	if v.config.ClientID == "" {
		return roles
	}
	if resources, ok := claims["resource_access"].(map[string]any); ok {
		if client, ok := resources[v.config.ClientID].(map[string]any); ok {
			roles = appendRoles(roles, client["roles"])
		}
	}
	return roles
}

// stringClaim accepts a plain string or the first element of a list,
// Keycloak user attributes map to either depending on the mapper.
func stringClaim(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			s, _ := v[0].(string)
			return s
		}
	}
	return ""
}

func appendRoles(dst []string, raw any) []string {
	list, _ := raw.([]any)
	for _, item := range list {
		if role, ok := item.(string); ok && !slices.Contains(dst, role) {
			dst = append(dst, role)
		}
	}
	return dst
}

// Close stops background JWKS refresh.
func (v *jwtValidator) Close() error {
	v.config.Logger.Info("closing JWT validator")
	v.cancel()
	return nil
}
