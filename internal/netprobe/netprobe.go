// Package netprobe performs lightweight outbound reachability checks.
package netprobe

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/huangsam/publisher/internal/contract"
)

// userAgent identifies probe traffic to the hosting service API, which rejects
// requests without one.
const userAgent = "publisher-connectivity-check"

// HTTPProber implements the Prober interface over plain HTTP requests.
type HTTPProber struct {
	client         *http.Client
	endpoints      []string
	probeTimeout   time.Duration
	serviceURL     string
	serviceTimeout time.Duration
}

var _ contract.Prober = &HTTPProber{} // Compile-time check

// Option configures an HTTPProber.
type Option func(*HTTPProber)

// WithEndpoints overrides the generic reachability endpoints.
func WithEndpoints(endpoints ...string) Option {
	return func(p *HTTPProber) {
		if len(endpoints) > 0 {
			p.endpoints = endpoints
		}
	}
}

// WithProbeTimeout overrides the per-endpoint timeout of the generic check.
func WithProbeTimeout(d time.Duration) Option {
	return func(p *HTTPProber) {
		if d > 0 {
			p.probeTimeout = d
		}
	}
}

// WithService overrides the hosting service URL and its default timeout.
func WithService(url string, timeout time.Duration) Option {
	return func(p *HTTPProber) {
		if url != "" {
			p.serviceURL = url
		}
		if timeout > 0 {
			p.serviceTimeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *HTTPProber) {
		if c != nil {
			p.client = c
		}
	}
}

// New creates an HTTPProber with the default endpoints and timeouts.
func New(opts ...Option) *HTTPProber {
	p := &HTTPProber{
		client:         &http.Client{},
		endpoints:      append([]string(nil), contract.DefaultProbeEndpoints...),
		probeTimeout:   contract.DefaultProbeTimeout,
		serviceURL:     contract.DefaultServiceURL,
		serviceTimeout: contract.DefaultServiceTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewFromConfig creates an HTTPProber from the validated configuration.
func NewFromConfig(cfg *contract.Config) *HTTPProber {
	return New(
		WithEndpoints(cfg.ProbeEndpoints...),
		WithProbeTimeout(cfg.ProbeTimeout),
		WithService(cfg.ServiceURL, cfg.ServiceTimeout),
	)
}

// CheckGeneric implements the Prober interface. Any HTTP response counts as
// reachable since only the network path matters here.
func (p *HTTPProber) CheckGeneric(ctx context.Context) bool {
	for _, endpoint := range p.endpoints {
		if ctx.Err() != nil {
			return false
		}
		if _, ok := p.do(ctx, http.MethodHead, endpoint, p.probeTimeout); ok {
			contract.LogDebug("generic probe succeeded: %s", endpoint)
			return true
		}
		contract.LogDebug("generic probe failed: %s", endpoint)
	}
	return false
}

// CheckService implements the Prober interface. A timeout of zero or less
// uses the configured default. Server errors count as unreachable.
func (p *HTTPProber) CheckService(ctx context.Context, timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = p.serviceTimeout
	}
	status, ok := p.do(ctx, http.MethodGet, p.serviceURL, timeout)
	return ok && status < http.StatusInternalServerError
}

// do issues one request and reports the status code.
func (p *HTTPProber) do(ctx context.Context, method, url string, timeout time.Duration) (int, bool) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, url, nil)
	if err != nil {
		return 0, false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, false
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	return resp.StatusCode, true
}
