// Package healthcheck probes monitored endpoints and reports the health of
// the service's own dependencies.
package healthcheck

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lllypuk/statuswatch/internal/domain/status"
)

const (
	// DefaultRequestTimeout bounds one probe
	DefaultRequestTimeout = 10 * time.Second

	defaultUserAgent = "statuswatch-healthcheck/1.0"
	maxDrainBytes    = 64 * 1024
)

// HTTPProber performs reachability probes with HTTP GET.
type HTTPProber struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// ProberOption configures HTTPProber.
type ProberOption func(*HTTPProber)

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) ProberOption {
	return func(p *HTTPProber) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ProberOption {
	return func(p *HTTPProber) {
		p.client = client
	}
}

// NewHTTPProber creates a prober.
func NewHTTPProber(opts ...ProberOption) *HTTPProber {
	p := &HTTPProber{
		client:    &http.Client{},
		timeout:   DefaultRequestTimeout,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe sends one GET. The sample is ok only for a 2xx answer received
// within the timeout; transport errors and other codes are failures, not errors.
func (p *HTTPProber) Probe(ctx context.Context, url string) status.PollSample {
	sample := status.PollSample{URL: url, Timestamp: time.Now().UTC()}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		sample.Error = fmt.Sprintf("invalid request: %v", err)
		return sample
	}
	req.Header.Set("User-Agent", p.userAgent)

	start := time.Now()
	resp, err := p.client.Do(req)
	sample.ResponseTime = time.Since(start)
	if err != nil {
		sample.Error = err.Error()
		return sample
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	sample.StatusCode = resp.StatusCode
	sample.OK = resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
	if !sample.OK {
		sample.Error = fmt.Sprintf("unexpected status %d", resp.StatusCode)
	}
	return sample
}
