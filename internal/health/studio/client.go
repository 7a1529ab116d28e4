// Package studio polls the aggregate provider health endpoint exposed by
// a local studio server. It is the default health source when the
// monitor runs alongside one.
package studio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/providerpulse/providerpulse/internal/health"
	"github.com/providerpulse/providerpulse/internal/resilience"
)

const (
	// SourceName identifies this health source.
	SourceName = "studio"

	// DefaultBaseURL is the local studio server address.
	DefaultBaseURL = "http://127.0.0.1:1234"

	healthPath = "/api/providers/health"
)

// ClientConfig holds configuration for the studio client.
type ClientConfig struct {
	// BaseURL is the studio server base URL (optional, defaults to the
	// local server).
	BaseURL string

	// APIKey is sent as a bearer token when set (optional).
	APIKey string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client fetches provider health records from a studio server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

var _ health.Source = (*Client)(nil)

// NewClient creates a new studio client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(SourceName))
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the source name.
func (c *Client) Name() string {
	return SourceName
}

// Fetch retrieves the current health of every provider the studio
// server tracks.
func (c *Client) Fetch(ctx context.Context) ([]health.ProviderHealth, error) {
	url := fmt.Sprintf("%s%s", c.baseURL, healthPath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var records providersResponse
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	result := make([]health.ProviderHealth, 0, len(records))
	for i := range records {
		result = append(result, c.toProviderHealth(&records[i]))
	}

	return result, nil
}

// setHeaders sets common request headers.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// toProviderHealth converts a studio wire record to the domain model.
func (c *Client) toProviderHealth(r *providerRecord) health.ProviderHealth {
	record := health.ProviderHealth{
		Name:                r.ProviderName,
		ConsecutiveFailures: r.ConsecutiveFailures,
		LastError:           r.LastError,
	}

	if r.LastCheckTime != "" {
		if parsed, err := time.Parse(time.RFC3339, r.LastCheckTime); err == nil {
			record.LastCheckedAt = parsed
		}
	}

	return record
}

// Studio API response structures.

type providersResponse []providerRecord

type providerRecord struct {
	ProviderName        string `json:"providerName"`
	ConsecutiveFailures int    `json:"consecutiveFailures"`
	LastError           string `json:"lastError"`
	LastCheckTime       string `json:"lastCheckTime"`
}
