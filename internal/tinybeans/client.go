// Package tinybeans provides a client for the Tinybeans family journal API.
// It covers authentication, journal and entry listing, entry deletion and
// the two step media publish flow of an object storage upload followed by
// an entry registration.
package tinybeans

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/tphakala/tinybeans-go/internal/conf"
	"github.com/tphakala/tinybeans-go/internal/errors"
	"github.com/tphakala/tinybeans-go/internal/logging"
	"github.com/tphakala/tinybeans-go/internal/objectstore"
)

// Package-level logger specific to Tinybeans API operations
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar) // Dynamic level control
	closeLogger     func() error
)

func init() {
	var err error
	// Define log file path relative to working directory
	logFilePath := filepath.Join("logs", "tinybeans-api.log")
	initialLevel := slog.LevelDebug
	serviceLevelVar.Set(initialLevel)

	// Initialize the service-specific file logger
	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "tinybeans-api", serviceLevelVar)
	if err != nil {
		// Fallback: disable service logging but keep a non-nil logger
		log.Printf("FATAL: Failed to initialize tinybeans file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "tinybeans-api")
		closeLogger = func() error { return nil }
	}
}

// Client provides methods for interacting with the Tinybeans API
type Client struct {
	config     Config
	httpClient *http.Client
	cache      *cache.Cache
	debug      bool // Enable debug logging

	// Session state set by Login
	mu          sync.RWMutex
	accessToken string
	user        *User

	// uploadScope acquires object storage credentials and runs fn with a
	// store bound to them. Batches run entirely inside one scope.
	// Replaceable in tests.
	uploadScope func(ctx context.Context, fn func(store objectstore.Uploader) error) error

	// Metrics
	metrics struct {
		apiCalls      int64
		apiErrors     int64
		cacheHits     int64
		cacheMisses   int64
		totalDuration time.Duration
		mu            sync.RWMutex
	}
}

// New creates a new Tinybeans API client
func New(config Config) (*Client, error) {
	if config.Username == "" || config.Password == "" {
		return nil, errors.Newf("tinybeans username and password are required").
			Category(errors.CategoryConfiguration).
			Component("tinybeans").
			Build()
	}

	// Use defaults for missing config values
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if !strings.HasSuffix(config.BaseURL, "/") {
		config.BaseURL += "/"
	}
	if config.FetchSize <= 0 {
		config.FetchSize = DefaultConfig().FetchSize
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = DefaultConfig().CacheTTL
	}

	// Get global debug setting
	settings := conf.GetSettings()
	debug := settings != nil && settings.Debug

	client := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cache:       cache.New(config.CacheTTL, config.CacheTTL*2),
		debug:       debug,
		uploadScope: defaultUploadScope,
	}

	logger.Info("Tinybeans client initialized",
		"base_url", config.BaseURL,
		"fetch_size", config.FetchSize,
		"cache_ttl", config.CacheTTL,
		"include_deleted", config.IncludeDeleted,
		"debug", debug)

	return client, nil
}

// ConfigFromSettings builds a client configuration from the application
// settings, falling back to production defaults for unset values.
func ConfigFromSettings(settings *conf.Settings) Config {
	config := DefaultConfig()
	if settings == nil {
		return config
	}

	tb := &settings.Tinybeans
	config.Username = tb.Username
	config.Password = tb.Password
	config.IncludeDeleted = tb.IncludeDeleted
	if tb.APIBase != "" {
		config.BaseURL = tb.APIBase
	}
	if tb.FetchSize > 0 {
		config.FetchSize = tb.FetchSize
	}
	if tb.Timeout > 0 {
		config.Timeout = tb.Timeout
	}
	if tb.CacheTTL > 0 {
		config.CacheTTL = tb.CacheTTL
	}
	return config
}

// Close cleans up client resources
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
	logger.Info("Closing Tinybeans client")

	// Close the logger if it was successfully initialized
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			// Use standard log since our logger might be closing
			log.Printf("Error closing tinybeans logger: %v", err)
		}
	}
}

// Login authenticates with the configured credentials and stores the
// session token used by every subsequent request. Calling Login on an
// already authenticated client is a no-op.
func (c *Client) Login(ctx context.Context) error {
	if c.LoggedIn() {
		return nil
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	payload := map[string]any{
		"username": c.config.Username,
		"password": c.config.Password,
		"clientId": ClientID,
	}

	var result authResponse
	if err := c.doRequest(reqCtx, http.MethodPost, "authenticate", nil, payload, &result); err != nil {
		return err
	}

	if result.AccessToken == "" {
		return errors.Newf("authentication response carried no access token").
			Category(errors.CategoryAuth).
			Context("path", "authenticate").
			Component("tinybeans").
			Build()
	}

	c.mu.Lock()
	c.accessToken = result.AccessToken
	user := result.User
	c.user = &user
	c.mu.Unlock()

	logger.Info("Tinybeans login successful",
		"user_id", result.User.ID,
		"username", result.User.Username)

	return nil
}

// LoggedIn reports whether the client holds a session token.
func (c *Client) LoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken != ""
}

// User returns the account of the last successful login, or nil when the
// client has not authenticated yet.
func (c *Client) User() *User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// send issues a raw API request without interpreting the response. The
// caller owns the returned body. path is relative to the configured base
// URL, query and payload may be nil.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload any) (*http.Response, error) {
	c.metrics.mu.Lock()
	c.metrics.apiCalls++
	c.metrics.mu.Unlock()

	endpoint := c.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Newf("failed to encode request body: %w", err).
				Category(errors.CategoryJSONParsing).
				Context("method", method).
				Context("path", path).
				Component("tinybeans").
				Build()
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryNetwork).
			Context("method", method).
			Context("url", endpoint).
			Component("tinybeans").
			Build()
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// The API expects the bare session token, not a Bearer scheme
	c.mu.RLock()
	token := c.accessToken
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	if c.debug {
		logger.Debug("Tinybeans API request",
			"method", method,
			"path", path,
			"authenticated", token != "")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.mu.Lock()
		c.metrics.apiErrors++
		c.metrics.mu.Unlock()

		logger.Error("Tinybeans API request failed",
			"error", err,
			"method", method,
			"url", endpoint)
		return nil, c.handleNetworkError(err, endpoint)
	}

	return resp, nil
}

// doRequest performs an API request and decodes the JSON response into
// result. A nil result discards the body after the status check.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload, result any) error {
	start := time.Now()

	resp, err := c.send(ctx, method, path, query, payload)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			// Log error but don't propagate it
			_ = err
		}
	}()

	// Read response body
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.mu.Lock()
		c.metrics.apiErrors++
		c.metrics.mu.Unlock()

		logger.Error("Failed to read response body",
			"error", err,
			"path", path,
			"status_code", resp.StatusCode)
		return errors.Newf("failed to read response body: %w", err).
			Category(errors.CategoryNetwork).
			Context("path", path).
			Context("status_code", resp.StatusCode).
			Component("tinybeans").
			Build()
	}

	// Check for errors
	if resp.StatusCode >= http.StatusBadRequest {
		c.metrics.mu.Lock()
		c.metrics.apiErrors++
		c.metrics.mu.Unlock()

		// Log authentication failures specially
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			logger.Error("Tinybeans API authentication failed",
				"status_code", resp.StatusCode,
				"path", path,
				"response_body", responsePreview(bodyBytes),
				"message", "Check the tinybeans username and password in the configuration")
		} else {
			logger.Warn("Tinybeans API error response",
				"status_code", resp.StatusCode,
				"path", path,
				"response_body", responsePreview(bodyBytes))
		}

		return errors.Newf("tinybeans API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes))).
			Category(getErrorCategory(resp.StatusCode)).
			Context("status_code", resp.StatusCode).
			Context("path", path).
			Component("tinybeans").
			Build()
	}

	// Parse successful response
	if result != nil {
		if err := json.Unmarshal(bodyBytes, result); err != nil {
			c.metrics.mu.Lock()
			c.metrics.apiErrors++
			c.metrics.mu.Unlock()

			logger.Error("Failed to parse Tinybeans API response",
				"error", err,
				"path", path,
				"response_size", len(bodyBytes),
				"response_preview", responsePreview(bodyBytes))
			return errors.Newf("failed to parse response: %w", err).
				Category(errors.CategoryJSONParsing).
				Context("path", path).
				Context("response_size", len(bodyBytes)).
				Component("tinybeans").
				Build()
		}
	}

	duration := time.Since(start)

	if c.debug {
		logger.Debug("Tinybeans API response",
			"status_code", resp.StatusCode,
			"path", path,
			"duration_ms", duration.Milliseconds(),
			"response_size", len(bodyBytes))
	}

	// Track successful API call duration
	c.metrics.mu.Lock()
	c.metrics.totalDuration += duration
	c.metrics.mu.Unlock()

	return nil
}

// handleNetworkError classifies transport failures from the HTTP client
func (c *Client) handleNetworkError(err error, endpoint string) error {
	if errors.Is(err, context.Canceled) {
		return errors.Newf("request cancelled: %w", err).
			Category(errors.CategoryCancellation).
			Context("url", endpoint).
			Component("tinybeans").
			Build()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Newf("request timed out after %v: %w", c.config.Timeout, err).
			Category(errors.CategoryTimeout).
			NetworkContext(endpoint, c.config.Timeout).
			Component("tinybeans").
			Build()
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return errors.Newf("DNS resolution failed for %s: %w", dnsErr.Name, err).
			Category(errors.CategoryNetwork).
			Context("error_type", "dns").
			NetworkContext(endpoint, c.config.Timeout).
			Component("tinybeans").
			Build()
	}

	return errors.Newf("HTTP request failed: %w", err).
		Category(errors.CategoryNetwork).
		NetworkContext(endpoint, c.config.Timeout).
		Component("tinybeans").
		Build()
}

// responsePreview truncates a response body for log output
func responsePreview(body []byte) string {
	const limit = 500
	s := string(body)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}

// ClearCache clears all cached data
func (c *Client) ClearCache() {
	c.cache.Flush()
	logger.Info("Tinybeans cache cleared")
}

// Metrics represents Tinybeans client performance metrics
type Metrics struct {
	APICalls      int64         `json:"api_calls"`
	APIErrors     int64         `json:"api_errors"`
	CacheHits     int64         `json:"cache_hits"`
	CacheMisses   int64         `json:"cache_misses"`
	TotalDuration time.Duration `json:"total_duration"`
	AvgDuration   time.Duration `json:"avg_duration"`
}

// GetMetrics returns current client metrics
func (c *Client) GetMetrics() Metrics {
	c.metrics.mu.RLock()
	defer c.metrics.mu.RUnlock()

	metrics := Metrics{
		APICalls:      c.metrics.apiCalls,
		APIErrors:     c.metrics.apiErrors,
		CacheHits:     c.metrics.cacheHits,
		CacheMisses:   c.metrics.cacheMisses,
		TotalDuration: c.metrics.totalDuration,
	}

	if metrics.APICalls > 0 {
		metrics.AvgDuration = time.Duration(int64(metrics.TotalDuration) / metrics.APICalls)
	}

	return metrics
}

// getErrorCategory determines the appropriate error category based on HTTP status code
func getErrorCategory(statusCode int) errors.ErrorCategory {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		// Credential problems need user attention
		return errors.CategoryAuth
	case http.StatusTooManyRequests:
		return errors.CategoryLimit
	case http.StatusNotFound:
		return errors.CategoryNotFound
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		// Server errors
		return errors.CategoryNetwork
	default:
		return errors.CategoryHTTP
	}
}
