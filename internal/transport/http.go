package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	defaultTimeout   = 120 * time.Second
	retryBaseBackoff = 250 * time.Millisecond
	maxErrorExcerpt  = 300
)

// Client is the HTTP implementation of Transport.
type Client struct {
	baseURL    string
	rootURL    string
	httpClient *http.Client
	retries    int
	verbose    bool
	logger     *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	timeout := defaultTimeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		rootURL: serviceRoot(base),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retries: cfg.Retries,
		verbose: cfg.Verbose,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// serviceRoot strips the API prefix so root routes such as /health resolve
// against the service itself.
func serviceRoot(base *url.URL) string {
	root := *base
	root.Path = strings.TrimSuffix(strings.TrimRight(root.Path, "/"), "/api")
	root.RawQuery = ""
	return strings.TrimRight(root.String(), "/")
}

func (c *Client) Do(ctx context.Context, call Call) (*Response, error) {
	rt, ok := routes[call.Endpoint]
	if !ok {
		return nil, &Failure{Endpoint: call.Endpoint, Reason: ReasonEncode, Err: ErrUnknownEndpoint}
	}

	method := rt.method
	if call.Method != "" {
		method = call.Method
	}

	var body []byte
	if call.Body != nil {
		data, err := json.Marshal(call.Body)
		if err != nil {
			return nil, &Failure{Endpoint: call.Endpoint, Reason: ReasonEncode, Err: err}
		}
		body = data
	}

	target := c.baseURL + rt.path
	if rt.root {
		target = c.rootURL + rt.path
	}
	if len(call.Query) > 0 {
		target += "?" + call.Query.Encode()
	}

	if method != http.MethodGet || c.retries <= 0 {
		return c.send(ctx, call.Endpoint, method, target, body)
	}

	var resp *Response
	backoff := retry.WithMaxRetries(uint64(c.retries), retry.NewExponential(retryBaseBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := c.send(ctx, call.Endpoint, method, target, body)
		if err != nil {
			if retryable(err) {
				c.logger.Debug("retrying request", zap.String("endpoint", string(call.Endpoint)), zap.Error(err))
				return retry.RetryableError(err)
			}
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func retryable(err error) bool {
	f, ok := AsFailure(err)
	if !ok {
		return false
	}
	switch f.Reason {
	case ReasonNetwork, ReasonTimeout:
		return true
	case ReasonStatus:
		return f.Status >= 500 || f.Status == http.StatusTooManyRequests
	default:
		return false
	}
}

func (c *Client) send(ctx context.Context, endpoint Endpoint, method, target string, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &Failure{Endpoint: endpoint, Reason: ReasonEncode, Err: err}
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())

	c.logRequest(method, target, httpReq.Header, body)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyNetworkError(endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyNetworkError(endpoint, fmt.Errorf("failed to read response: %w", err))
	}

	c.logResponse(endpoint, resp.StatusCode, time.Since(start), resp.Header, data)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Failure{
			Endpoint: endpoint,
			Reason:   ReasonStatus,
			Status:   resp.StatusCode,
			Err:      errors.New(errorDetail(data)),
		}
	}

	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// errorDetail pulls the service's {"detail": ...} message when present.
func errorDetail(body []byte) string {
	var payload struct {
		Detail any    `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if s, ok := payload.Detail.(string); ok && s != "" {
			return s
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "empty response"
	}
	if len(text) > maxErrorExcerpt {
		text = text[:maxErrorExcerpt]
	}
	return text
}

// DecodeJSON decodes resp into out, reporting a decode Failure on error.
func DecodeJSON(endpoint Endpoint, resp *Response, out any) error {
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &Failure{Endpoint: endpoint, Reason: ReasonDecode, Status: resp.Status, Err: err}
	}
	return nil
}
