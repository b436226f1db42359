// Package providers contains HTTP adapters for the weather data sources.
// Each adapter normalizes its payload into a domain.Observation.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/felixgeelhaar/preflight/internal/shared/infrastructure/resilience"
	"github.com/felixgeelhaar/preflight/internal/weather/domain"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout    = 10 * time.Second
	maxErrorBodyBytes = 512
	metersPerMile     = 1609.344
	knotsPerMPS       = 1.943844
	kphPerKnot        = 1.852
)

// ClientConfig configures a provider HTTP client.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// RateLimit caps outbound requests per second. Zero disables limiting.
	RateLimit float64
}

type httpClient struct {
	service string
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

func newHTTPClient(service, defaultBaseURL string, cfg ClientConfig) *httpClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return &httpClient{
		service: service,
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

// getJSON issues a GET to baseURL+path and decodes a 2xx body into out.
// Non-2xx responses are returned as *resilience.HTTPStatusError.
func (c *httpClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: rate limiter: %w", c.service, err)
		}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", c.service, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", c.service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &resilience.HTTPStatusError{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: %w: %v", c.service, domain.ErrMalformedPayload, err)
	}
	return nil
}
