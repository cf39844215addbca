package middleware

import (
	"context"
	"errors"

	"github.com/lllypuk/statuswatch/internal/infrastructure/keycloak"
)

// KeycloakValidatorAdapter adapts keycloak.JWTValidator to the TokenValidator interface.
type KeycloakValidatorAdapter struct {
	validator keycloak.JWTValidator
}

// NewKeycloakValidatorAdapter creates a new adapter over keycloak.JWTValidator.
//
// Usage:
//
//	jwtValidator, _ := keycloak.NewJWTValidator(config)
//	authConfig := middleware.AuthConfig{
//	    TokenValidator: middleware.NewKeycloakValidatorAdapter(jwtValidator),
//	}
func NewKeycloakValidatorAdapter(validator keycloak.JWTValidator) *KeycloakValidatorAdapter {
	if validator == nil {
		panic("keycloak validator is required")
	}
	return &KeycloakValidatorAdapter{validator: validator}
}

// ValidateToken validates a JWT token and returns middleware claims.
func (a *KeycloakValidatorAdapter) ValidateToken(ctx context.Context, token string) (*TokenClaims, error) {
	kc, err := a.validator.Validate(ctx, token)
	if err != nil {
		return nil, mapKeycloakError(err)
	}

	return &TokenClaims{
		UserID:     kc.UserID,
		Username:   kc.Username,
		TenantID:   kc.TenantID,
		TenantName: kc.TenantName,
		Roles:      kc.Roles,
		ExpiresAt:  kc.ExpiresAt,
	}, nil
}

// mapKeycloakError maps keycloak errors to middleware errors.
func mapKeycloakError(err error) error {
	if errors.Is(err, keycloak.ErrTokenExpired) {
		return ErrTokenExpired
	}
	// issuer, audience, subject and signature problems all look the same to the caller
	return errors.Join(ErrInvalidToken, err)
}

// Close closes the underlying keycloak validator.
func (a *KeycloakValidatorAdapter) Close() error {
	return a.validator.Close()
}
