package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// StatusOK marks a 2xx response.
	StatusOK = "ok"
	// StatusInvalid marks a 4xx response.
	StatusInvalid = "invalid"
	// StatusServerError marks any other non-2xx response.
	StatusServerError = "server-error"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Result is the outcome of a request that reached the server.
type Result struct {
	Success    bool
	Status     string
	StatusCode int
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r Result) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return ErrEmptyBody
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("remote: decode body: %w", err)
	}
	return nil
}

// Client issues JSON requests against a base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client. The client's own timeout is kept.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			clone := *c.httpClient
			clone.Timeout = timeout
			c.httpClient = &clone
		}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(name, value string) ClientOption {
	return func(c *Client) {
		if name = strings.TrimSpace(name); name != "" {
			c.headers[name] = value
		}
	}
}

// WithLogger sets the logger. Nil loggers are ignored.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a Client for baseURL.
func NewClient(baseURL string, options ...ClientOption) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, ErrBaseURLRequired
	}
	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: defaultTimeout},
		headers:    make(map[string]string),
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET request for path. A transport failure returns a Result
// with Success false together with the error.
func (c *Client) Get(ctx context.Context, path string) (Result, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post issues a POST request for path with body encoded as JSON. String and
// byte slice bodies are sent as-is.
func (c *Client) Post(ctx context.Context, path string, body any) (Result, error) {
	var payload []byte
	switch typed := body.(type) {
	case nil:
	case string:
		payload = []byte(typed)
	case []byte:
		payload = typed
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return Result{}, fmt.Errorf("remote: encode body: %w", err)
		}
		payload = encoded
	}
	return c.do(ctx, http.MethodPost, path, payload)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (Result, error) {
	target := c.resolve(path)

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return Result{}, fmt.Errorf("remote: request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, value := range c.headers {
		req.Header.Set(name, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("remote request failed",
			slog.String("method", method),
			slog.String("url", target),
			slog.Any("error", err),
		)
		return Result{}, fmt.Errorf("remote: %s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return Result{}, fmt.Errorf("remote: read body: %w", err)
	}
	if len(data) > maxBodyBytes {
		return Result{}, fmt.Errorf("%w: %s %s exceeds %d bytes", ErrResponseTooLarge, method, target, maxBodyBytes)
	}

	result := Result{
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		Status:     classify(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Body:       data,
	}
	c.logger.Debug("remote request",
		slog.String("method", method),
		slog.String("url", target),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func (c *Client) resolve(path string) string {
	trimmed := strings.TrimSpace(path)
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		return trimmed
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return c.baseURL + trimmed
}

func classify(code int) string {
	switch {
	case code >= 200 && code < 300:
		return StatusOK
	case code >= 400 && code < 500:
		return StatusInvalid
	default:
		return StatusServerError
	}
}
