// Package transport issues HTTP calls against the endpoint candidates of a
// graph backend, falling through the candidate list until one succeeds.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/trustbrowser/internal/endpoint"
	"github.com/ppiankov/trustbrowser/internal/model"
	"github.com/ppiankov/trustbrowser/internal/util"
)

// CandidateSource provides the ordered candidates for a backend
type CandidateSource interface {
	Candidates(b endpoint.Backend) []endpoint.Candidate
}

// Response is a successful backend response with its body fully read
type Response struct {
	StatusCode int
	URL        string
	Body       []byte
}

// Decode unmarshals the response body as JSON into v
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode %s: %w", r.URL, err)
	}
	return nil
}

// Client calls graph backends through their candidate lists
type Client struct {
	httpClient     *http.Client
	candidates     CandidateSource
	userAgent      string
	maxBytes       int64
	currentTimeout time.Duration
	logger         *zap.Logger
}

// NewClient creates a client for the given configuration
func NewClient(cfg *model.Config, candidates CandidateSource, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxBytes := cfg.HTTP.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 2_000_000
	}
	currentTimeout := cfg.Current.AttemptTimeout
	if currentTimeout <= 0 {
		currentTimeout = 6 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.HTTP.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
			},
		},
		candidates:     candidates,
		userAgent:      cfg.HTTP.UserAgent,
		maxBytes:       maxBytes,
		currentTimeout: currentTimeout,
		logger:         logger,
	}
}

// Post sends body as JSON to path on the first candidate that answers with a
// success status. The boolean is false when every candidate failed.
func (c *Client) Post(ctx context.Context, b endpoint.Backend, path string, body any) (*Response, bool) {
	payload, err := json.Marshal(body)
	if err != nil {
		c.logger.Debug("marshal request body", zap.String("path", path), zap.Error(err))
		return nil, false
	}
	return c.call(ctx, b, http.MethodPost, path, payload)
}

// Get issues a GET for path against the backend candidates
func (c *Client) Get(ctx context.Context, b endpoint.Backend, path string) (*Response, bool) {
	return c.call(ctx, b, http.MethodGet, path, nil)
}

// Fetch performs a single GET against an absolute URL
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Response, bool) {
	resp, err := c.do(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		c.logger.Debug("fetch failed", zap.String("url", rawURL), zap.Error(err))
		return nil, false
	}
	return resp, true
}

func (c *Client) call(ctx context.Context, b endpoint.Backend, method, path string, payload []byte) (*Response, bool) {
	candidates := c.candidates.Candidates(b)
	resp, idx, ok := FirstSuccess(ctx, candidates, func(ctx context.Context, cand endpoint.Candidate) (*Response, bool) {
		return c.attempt(ctx, b, cand, method, path, payload)
	})
	if !ok {
		c.logger.Debug("all candidates failed",
			zap.Stringer("backend", b),
			zap.String("path", path),
			zap.Int("candidates", len(candidates)))
		return nil, false
	}
	c.logger.Debug("candidate succeeded",
		zap.Stringer("backend", b),
		zap.String("url", resp.URL),
		zap.Int("index", idx))
	return resp, true
}

func (c *Client) attempt(ctx context.Context, b endpoint.Backend, cand endpoint.Candidate, method, path string, payload []byte) (*Response, bool) {
	if b == endpoint.Current {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.currentTimeout)
		defer cancel()
	}

	rawURL := cand.URL(path)
	resp, err := c.do(ctx, method, rawURL, payload)
	if err != nil {
		c.logger.Debug("candidate failed", zap.String("url", rawURL), zap.Error(err))
		return nil, false
	}
	return resp, true
}

// do executes one request and reads the body; non-2xx is an error
func (c *Client) do(ctx context.Context, method, rawURL string, payload []byte) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBytes))
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		URL:        rawURL,
		Body:       data,
	}, nil
}
