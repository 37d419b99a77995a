package spoonacular

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ready2cook/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	// The free plan allows roughly one request per second with small bursts.
	defaultRequestsPerSecond = 1.0
	defaultBurst             = 5
)

// Client handles communication with the Spoonacular recipe API
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	logger      *zap.Logger
	debug       bool
	maxAttempts int
	backoff     func(attempt int) time.Duration
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithRateLimit overrides the client-side rate limit
func WithRateLimit(requestsPerSecond float64, burst int) Option {
	return func(c *Client) {
		if requestsPerSecond > 0 && burst > 0 {
			c.rateLimiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new Spoonacular API client
func NewClient(apiKey, baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultBurst),
		logger:      zap.NewNop(),
		maxAttempts: defaultMaxAttempts,
		backoff:     exponentialBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("spoonacular")
	return c
}

// SetDebug toggles verbose request logging
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// SearchByIngredients finds recipes that use the given comma-separated ingredients.
// An empty slice with a nil error means the catalog had no match.
func (c *Client) SearchByIngredients(ctx context.Context, ingredients string, limit int) ([]domain.APIRecipeMatch, error) {
	params := url.Values{}
	params.Set("ingredients", ingredients)
	params.Set("number", strconv.Itoa(limit))

	var matches []domain.APIRecipeMatch
	if err := c.getJSON(ctx, "/recipes/findByIngredients", params, &matches); err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []domain.APIRecipeMatch{}
	}

	c.logger.Debug("search finished",
		zap.String("ingredients", ingredients),
		zap.Int("matches", len(matches)))
	return matches, nil
}

// GetRecipeInformation retrieves the full recipe for id
func (c *Client) GetRecipeInformation(ctx context.Context, id domain.RecipeID) (*domain.APIRecipeInformation, error) {
	if id == "" {
		return nil, domain.ErrInvalidRequest
	}

	params := url.Values{}
	params.Set("includeNutrition", "false")

	var info domain.APIRecipeInformation
	path := fmt.Sprintf("/recipes/%s/information", url.PathEscape(id.String()))
	if err := c.getJSON(ctx, path, params, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// getJSON performs a GET with retries on transport errors, 5xx and 429.
// Other 4xx responses fail immediately.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, c.backoff(attempt-1)); err != nil {
				return fmt.Errorf("%w: %v", domain.ErrRecipeAPIFailure, err)
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: rate limiter: %v", domain.ErrRecipeAPIFailure, err)
		}

		if c.debug {
			c.logger.Debug("request", zap.String("url", reqURL), zap.Int("attempt", attempt))
		}

		body, status, err := c.doRequest(ctx, reqURL)
		if err != nil {
			c.logger.Warn("request failed", zap.String("path", path), zap.Int("attempt", attempt), zap.Error(err))
			lastErr = err
			continue
		}

		switch {
		case status == http.StatusOK:
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("%w: decode response: %v", domain.ErrRecipeAPIFailure, err)
			}
			return nil
		case status == http.StatusNotFound:
			return domain.ErrRecipeNotFound
		case status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w: %w", domain.ErrRecipeAPIFailure, domain.ErrRateLimited)
		case status >= 500:
			lastErr = fmt.Errorf("%w: status %d", domain.ErrRecipeAPIFailure, status)
		default:
			c.logger.Warn("request rejected",
				zap.String("path", path),
				zap.Int("status", status),
				zap.ByteString("body", truncate(body, 512)))
			return fmt.Errorf("%w: status %d", domain.ErrRecipeAPIFailure, status)
		}

		c.logger.Warn("retryable response",
			zap.String("path", path),
			zap.Int("status", status),
			zap.Int("attempt", attempt))
	}

	c.logger.Error("all retries failed", zap.String("path", path), zap.Error(lastErr))
	return lastErr
}

// doRequest executes one GET and returns the body and status code
func (c *Client) doRequest(ctx context.Context, reqURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Ready2Cook/1.0")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrRecipeAPIFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: read body: %v", domain.ErrRecipeAPIFailure, err)
	}
	return body, resp.StatusCode, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
