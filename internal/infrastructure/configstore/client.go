// Package configstore talks to the tenant configuration service, the source of
// truth for application name, description and URL.
package configstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lllypuk/statuswatch/internal/domain/errs"
	"github.com/lllypuk/statuswatch/internal/domain/status"
	"github.com/lllypuk/statuswatch/internal/infrastructure/keycloak"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxErrorBodySize   = 1024

	// DefaultNamespace and DefaultService name the configuration document
	DefaultNamespace = "platform"
	DefaultService   = "status-service"
)

// ClientConfig contains configuration for Client.
type ClientConfig struct {
	BaseURL    string
	Namespace  string
	Service    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// invalidator is implemented by token providers that cache tokens
type invalidator interface {
	Invalidate()
}

// Client is the HTTP implementation of status.ConfigStore.
type Client struct {
	baseURL    string
	namespace  string
	service    string
	tokens     keycloak.TokenProvider
	validator  *EntryValidator
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a configuration service client.
func NewClient(config ClientConfig, tokens keycloak.TokenProvider) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("%w: configuration service base url is required", errs.ErrInvalidInput)
	}
	if tokens == nil {
		return nil, fmt.Errorf("%w: token provider is required", errs.ErrInvalidInput)
	}

	validator, err := NewEntryValidator()
	if err != nil {
		return nil, err
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		timeout := config.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	namespace := config.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}
	service := config.Service
	if service == "" {
		service = DefaultService
	}

	return &Client{
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		namespace:  namespace,
		service:    service,
		tokens:     tokens,
		validator:  validator,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// GetConfiguration returns the valid application entries of a tenant.
func (c *Client) GetConfiguration(ctx context.Context, tenantID string) ([]status.ApplicationConfig, error) {
	endpoint := fmt.Sprintf("%s/configuration/v2/configuration/%s/%s/latest?tenantId=%s",
		c.baseURL, url.PathEscape(c.namespace), url.PathEscape(c.service), url.QueryEscape(tenantID))

	resp, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// тенант еще ничего не настроил
	if resp.StatusCode == http.StatusNotFound {
		return []status.ApplicationConfig{}, nil
	}
	if err = checkStatus(resp); err != nil {
		return nil, err
	}

	configs, skipped, err := ParseConfiguration(resp.Body, c.validator)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrUpstreamUnavailable, err)
	}
	for _, s := range skipped {
		c.logger.DebugContext(ctx, "configuration entry skipped",
			slog.String("tenant_id", tenantID),
			slog.String("key", s.Key),
			slog.String("reason", s.Reason),
		)
	}
	return configs, nil
}

// PatchConfiguration applies one UPDATE or DELETE to the tenant configuration.
func (c *Client) PatchConfiguration(ctx context.Context, tenantID string, patch status.ConfigPatch) error {
	body, err := buildPatchBody(patch)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrInvalidInput, err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode patch: %w", err)
	}

	endpoint := fmt.Sprintf("%s/configuration/v2/configuration/%s/%s?tenantId=%s",
		c.baseURL, url.PathEscape(c.namespace), url.PathEscape(c.service), url.QueryEscape(tenantID))

	resp, err := c.do(ctx, http.MethodPatch, endpoint, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err = checkStatus(resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// do sends an authenticated request. A 401 drops the cached token and the
// request is retried once with a fresh one.
func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte) (*http.Response, error) {
	resp, err := c.send(ctx, method, endpoint, payload)
	if err != nil {
		return nil, err
	}

	inv, ok := c.tokens.(invalidator)
	if resp.StatusCode != http.StatusUnauthorized || !ok {
		return resp, nil
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	inv.Invalidate()
	return c.send(ctx, method, endpoint, payload)
}

func (c *Client) send(ctx context.Context, method, endpoint string, payload []byte) (*http.Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrUpstreamUnavailable, err)
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s %s: %w", errs.ErrUpstreamUnavailable, method, req.URL.Path, err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	return fmt.Errorf("%w: configuration service returned %d: %s",
		errs.ErrUpstreamUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
}

var _ status.ConfigStore = (*Client)(nil)
