package keycloak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrTokenRequestFailed is returned when Keycloak refuses or cannot issue a token.
var ErrTokenRequestFailed = errors.New("service token request failed")

// TokenProvider supplies bearer tokens for outbound service calls.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// ServiceTokenConfig contains configuration for ServiceTokenManager.
type ServiceTokenConfig struct {
	// KeycloakURL is the base URL of Keycloak server (e.g., http://localhost:8090).
	KeycloakURL string

	// Realm the service account belongs to.
	Realm string

	// ClientID and ClientSecret of the confidential client (client_credentials grant).
	ClientID     string
	ClientSecret string

	// RefreshBuffer is the time before expiry when the token is renewed (default 30s).
	RefreshBuffer time.Duration

	// HTTPClient is an optional custom HTTP client.
	HTTPClient *http.Client
}

// ServiceTokenManager caches a client-credentials token and renews it shortly
// before it expires. Concurrent callers share one in-flight request.
type ServiceTokenManager struct {
	tokenURL   string
	form       url.Values
	buffer     time.Duration
	httpClient *http.Client
	group      singleflight.Group

	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

const (
	defaultRefreshBuffer      = 30 * time.Second
	defaultServiceHTTPTimeout = 10 * time.Second
	tokenFlightKey            = "token"
	maxErrorBodySize          = 1024
)

// NewServiceTokenManager creates a new ServiceTokenManager.
func NewServiceTokenManager(config ServiceTokenConfig) *ServiceTokenManager {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultServiceHTTPTimeout}
	}

	buffer := config.RefreshBuffer
	if buffer <= 0 {
		buffer = defaultRefreshBuffer
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", config.ClientID)
	form.Set("client_secret", config.ClientSecret)

	return &ServiceTokenManager{
		tokenURL: fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token",
			strings.TrimSuffix(config.KeycloakURL, "/"), config.Realm),
		form:       form,
		buffer:     buffer,
		httpClient: httpClient,
	}
}

// Token returns a valid token, requesting a new one when the cached token
// is missing or about to expire.
func (m *ServiceTokenManager) Token(ctx context.Context) (string, error) {
	if token, ok := m.cached(); ok {
		return token, nil
	}

	v, err, _ := m.group.Do(tokenFlightKey, func() (any, error) {
		if token, ok := m.cached(); ok {
			return token, nil
		}
		return m.fetch(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token, e.g. after the upstream answered 401.
func (m *ServiceTokenManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.expiresAt = time.Time{}
}

func (m *ServiceTokenManager) cached() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token != "" && time.Now().Add(m.buffer).Before(m.expiresAt) {
		return m.token, true
	}
	return "", false
}

func (m *ServiceTokenManager) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(m.form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return "", fmt.Errorf("%w: status %d: %s", ErrTokenRequestFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tokenResp tokenResponse
	if err = json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrTokenRequestFailed)
	}

	m.mu.Lock()
	m.token = tokenResp.AccessToken
	m.expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	m.mu.Unlock()

	return tokenResp.AccessToken, nil
}

// tokenResponse represents the token response from Keycloak.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// StaticToken is a TokenProvider with a fixed token (mock mode, tests).
type StaticToken string

// Token returns the fixed token.
func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}
