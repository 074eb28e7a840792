// ABOUTME: HTTP implementation of the record store client
// ABOUTME: JSON over HTTP with bearer auth, request IDs and response size limits
package records

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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum response body size (10MB).
	MaxResponseSize = 10 * 1024 * 1024

	HeaderProjectID = "X-Project-Id"
	HeaderDeviceID  = "X-Device-Id"
)

// ErrTransport marks failures to reach or understand the store.
var ErrTransport = errors.New("record store unavailable")

// StatusError is returned when the store answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("record store returned status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrTransport }

// HTTPConfig holds connection settings for a remote store.
type HTTPConfig struct {
	BaseURL   string
	APIKey    string
	ProjectID string
	DeviceID  string
	Timeout   time.Duration
}

// DefaultHTTPConfig returns a config pointing at a local store server.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		BaseURL: "http://localhost:8090",
		Timeout: DefaultTimeout,
	}
}

// HTTPClient talks to a record store over HTTP.
type HTTPClient struct {
	cfg    HTTPConfig
	client *http.Client
	logger *zap.Logger
}

// NewHTTPClient creates a client. A nil logger disables logging.
func NewHTTPClient(cfg HTTPConfig, logger *zap.Logger) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &HTTPClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// BaseURL reports the store address.
func (c *HTTPClient) BaseURL() string { return c.cfg.BaseURL }

func tablePath(table string, parts ...string) string {
	p := "/tables/" + url.PathEscape(table)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}

func (c *HTTPClient) Fetch(ctx context.Context, table string, q Query) (*FetchResponse, error) {
	var resp FetchResponse
	if err := c.do(ctx, http.MethodPost, tablePath(table, "fetch"), q, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		resp.Data = []Record{}
	}
	return &resp, nil
}

func (c *HTTPClient) GetByID(ctx context.Context, table string, id int, q Query) (*RecordResponse, error) {
	var resp RecordResponse
	if err := c.do(ctx, http.MethodPost, tablePath(table, "records", strconv.Itoa(id)), q, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Create(ctx context.Context, table string, req WriteRequest) (*WriteResponse, error) {
	var resp WriteResponse
	if err := c.do(ctx, http.MethodPost, tablePath(table, "records"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Update(ctx context.Context, table string, req WriteRequest) (*WriteResponse, error) {
	var resp WriteResponse
	if err := c.do(ctx, http.MethodPatch, tablePath(table, "records"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Delete(ctx context.Context, table string, req DeleteRequest) (*DeleteResponse, error) {
	var resp DeleteResponse
	if err := c.do(ctx, http.MethodDelete, tablePath(table, "records"), req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	requestID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	if c.cfg.ProjectID != "" {
		req.Header.Set(HeaderProjectID, c.cfg.ProjectID)
	}
	if c.cfg.DeviceID != "" {
		req.Header.Set(HeaderDeviceID, c.cfg.DeviceID)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("record store request failed",
			zap.String("request_id", requestID),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", ErrTransport, err)
	}

	c.logger.Debug("record store request",
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrTransport, err)
	}
	return nil
}
