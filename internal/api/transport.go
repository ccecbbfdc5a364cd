package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"botlist/internal/common/errors"
	"botlist/internal/common/logging"
)

// DefaultBaseURL is the listing service's API root.
const DefaultBaseURL = "https://top.gg/api"

const userAgent = "botlist (+https://top.gg)"

// DefaultTimeout bounds every request issued through the Transport.
const DefaultTimeout = 30 * time.Second

// Transport executes a single authenticated HTTP call against the listing
// service and classifies the response. It holds no mutable state beyond the
// http.Client's connection pool, so concurrent use needs no locking.
type Transport struct {
	baseURL string
	token   string
	client  *http.Client
	logger  logging.Logger
}

// TransportOption customizes a Transport.
type TransportOption func(*Transport)

// WithBaseURL overrides the API root, mainly for tests.
func WithBaseURL(baseURL string) TransportOption {
	return func(t *Transport) {
		t.baseURL = baseURL
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) TransportOption {
	return func(t *Transport) {
		t.client.Timeout = timeout
	}
}

// WithHTTPClient substitutes the underlying http.Client.
func WithHTTPClient(client *http.Client) TransportOption {
	return func(t *Transport) {
		t.client = client
	}
}

// WithLogger sets the transport's logger.
func WithLogger(logger logging.Logger) TransportOption {
	return func(t *Transport) {
		t.logger = logger
	}
}

// NewTransport creates a transport bound to the given bearer token. The
// token is attached to every call and never logged.
func NewTransport(token string, opts ...TransportOption) (*Transport, error) {
	if token == "" {
		return nil, errors.ConfigError("api token must not be empty")
	}

	t := &Transport{
		baseURL: DefaultBaseURL,
		token:   token,
		client:  &http.Client{Timeout: DefaultTimeout},
		logger:  logging.Global(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Do executes one request and decodes a 2xx response body into out (skipped
// when out is nil). Non-2xx statuses map to the error taxonomy; no retries
// are performed so rate-limit signals always reach the caller.
func (t *Transport) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := t.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errors.DeserializationError("failed to encode request body", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return errors.NetworkError("failed to create request", err)
	}

	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return errors.TimeoutError(method+" "+path, err)
		}
		return errors.NetworkError("request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NetworkError("failed to read response body", err)
	}

	t.logger.Debug("api request completed",
		logging.Field{Key: "method", Value: method},
		logging.Field{Key: "path", Value: path},
		logging.Field{Key: "status", Value: resp.StatusCode},
		logging.Field{Key: "duration_ms", Value: time.Since(start).Milliseconds()},
	)

	if err := classifyStatus(resp, raw); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.DeserializationError("unexpected response body shape", err)
	}
	return nil
}

func classifyStatus(resp *http.Response, raw []byte) error {
	status := resp.StatusCode
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		return errors.UnauthorizedError("invalid api token")
	case status == http.StatusNotFound:
		return errors.NotFoundError("resource")
	case status == http.StatusTooManyRequests:
		return errors.RateLimitedError(retryAfter(resp, raw))
	case status >= 500:
		return errors.ServerError(status)
	default:
		return errors.UnexpectedStatusError(status)
	}
}

// retryAfter reads the server's rate-limit hint, preferring the JSON body
// field over the Retry-After header.
func retryAfter(resp *http.Response, raw []byte) time.Duration {
	var body ratelimitResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.RetryAfter > 0 {
		return time.Duration(body.RetryAfter) * time.Second
	}
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return 0
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeoutErr interface{ Timeout() bool }
	return stderrors.As(err, &timeoutErr) && timeoutErr.Timeout()
}
