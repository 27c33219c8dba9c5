// Package booking searches live flights, hotels and events for saved trips.
//
// Information Hiding:
// - SerpAPI engines, query parameters and response shapes hidden
// - Error payloads mapped to sentinel errors
// - Response caching hidden
package booking

import (
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

	"github.com/patrickmn/go-cache"
)

const (
	defaultBaseURL = "https://serpapi.com"

	// DefaultTimeout bounds each search request.
	DefaultTimeout = 30 * time.Second

	maxErrorBody = 512
)

var (
	// ErrKeyMissing is returned when no SerpAPI key is configured.
	ErrKeyMissing = errors.New("SerpAPI key not configured. Please add SERPAPI_API_KEY to your .env file")
	// ErrInvalidKey is returned when SerpAPI rejects the key.
	ErrInvalidKey = errors.New("SerpAPI rejected the API key")
	// ErrSearchFailed wraps every other SerpAPI error.
	ErrSearchFailed = errors.New("search failed")
)

// Client calls the SerpAPI Google Flights, Hotels and Events engines.
type Client struct {
	apiKey   string
	client   *http.Client
	baseURL  string
	cache    *cache.Cache
	cacheTTL time.Duration
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.client = c }
}

// WithBaseURL overrides the SerpAPI endpoint (used by tests).
func WithBaseURL(u string) Option {
	return func(cl *Client) { cl.baseURL = strings.TrimRight(u, "/") }
}

// WithCache caches successful responses for ttl.
func WithCache(ttl, cleanup time.Duration) Option {
	return func(cl *Client) {
		if ttl <= 0 {
			return
		}
		cl.cache = cache.New(ttl, cleanup)
		cl.cacheTTL = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// NewClient creates a client. An empty apiKey is allowed; searches then fail
// with ErrKeyMissing.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultTimeout},
		baseURL: defaultBaseURL,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// search runs one engine query and decodes the response into out.
func (c *Client) search(ctx context.Context, params url.Values, out any) error {
	if !c.Configured() {
		return ErrKeyMissing
	}
	params.Set("hl", "en")
	params.Set("gl", "us")

	endpoint := c.baseURL + "/search.json"
	cacheKey := endpoint + "?" + params.Encode()
	if body, ok := c.cached(cacheKey); ok {
		return json.Unmarshal(body, out)
	}

	params.Set("api_key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug("serpapi request", "engine", params.Get("engine"), "q", params.Get("q"))

	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", params.Get("engine"), err)
	}
	c.store(cacheKey, body)
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("serpapi request timed out: %w", err)
		}
		return nil, fmt.Errorf("serpapi request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, classifyError(resp.StatusCode, body)
}

// classifyError maps a SerpAPI status and "error" field to a sentinel.
// SerpAPI may report errors with a 200 status.
func classifyError(status int, body []byte) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)

	if status == http.StatusUnauthorized || strings.Contains(payload.Error, "Invalid API key") {
		return ErrInvalidKey
	}
	if payload.Error != "" {
		return fmt.Errorf("%w: %s", ErrSearchFailed, payload.Error)
	}
	if status >= 200 && status < 300 {
		return nil
	}

	text := string(body)
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return fmt.Errorf("%w (status %d): %s", ErrSearchFailed, status, text)
}

func (c *Client) cached(key string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	v, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

func (c *Client) store(key string, body []byte) {
	if c.cache != nil {
		c.cache.Set(key, body, c.cacheTTL)
	}
}
