// Package gateway is the console's client for the backend REST API.
//
// Every call is attempted exactly once. Failures come back as *APIError when
// the transport or the backend failed, and as *ClientError for local
// precondition violations and anything else.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"adminka/internal/logger"
	"adminka/internal/metrics"
	"adminka/internal/models"
)

const apiPrefix = "/api/v1"

// APIError is a transport or HTTP-level failure.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// ClientError is a failure that never reached, or could not be read from, the backend.
type ClientError struct {
	Message string
}

func (e *ClientError) Error() string {
	return "client error: " + e.Message
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	base *url.URL
	http *http.Client
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("gateway: base API URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("gateway: invalid base API URL: %w", err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{base: base, http: hc}, nil
}

// endpoint joins escaped segments under the API prefix.
func endpoint(segments ...any) string {
	var b strings.Builder
	b.WriteString(apiPrefix)
	for _, s := range segments {
		b.WriteByte('/')
		switch v := s.(type) {
		case string:
			b.WriteString(url.PathEscape(v))
		case int64:
			b.WriteString(strconv.FormatInt(v, 10))
		case int:
			b.WriteString(strconv.Itoa(v))
		default:
			b.WriteString(url.PathEscape(fmt.Sprint(v)))
		}
	}
	return b.String()
}

func do[T any](ctx context.Context, c *Client, op, method, path string, body any) (T, error) {
	start := time.Now()
	data, err := roundTrip[T](ctx, c, method, path, body)
	metrics.GatewayRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	outcome := "ok"
	var apiErr *APIError
	switch {
	case err == nil:
	case errors.As(err, &apiErr):
		outcome = "api_error"
	default:
		outcome = "client_error"
	}
	metrics.GatewayRequestsTotal.WithLabelValues(op, outcome).Inc()

	if err != nil {
		logger.Get().Warn().
			Err(err).
			Str("op", op).
			Str("method", method).
			Str("path", path).
			Msg("backend call failed")
	}
	return data, err
}

func roundTrip[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var zero T

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return zero, &ClientError{Message: fmt.Sprintf("failed to encode request: %v", err)}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return zero, &ClientError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, &APIError{Code: http.StatusInternalServerError, Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, &APIError{Code: resp.StatusCode, Message: err.Error()}
	}

	var env models.Envelope[T]
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && env.Error != nil && *env.Error != "" {
			msg = *env.Error
		}
		return zero, &APIError{Code: resp.StatusCode, Message: msg}
	}

	if decodeErr != nil {
		return zero, &ClientError{Message: fmt.Sprintf("failed to decode response: %v", decodeErr)}
	}

	return env.Data, nil
}
