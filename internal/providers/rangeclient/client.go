// Package rangeclient implements selector.RangeProvider over an HTTP range
// server, generalized from the reference implementation's
// salt.utils.yahoo_range module (a plain urllib GET against
// /range/list?query) onto the teacher's rate-limited HTTP client idiom
// (internal/infrastructure/publishing/slack_client.go). Each Get makes a
// single attempt; a failed request is not retried.
package rangeclient

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client queries a range server's /range/list endpoint for the membership
// of a query expression, implementing selector.RangeProvider.
type Client struct {
	httpClient  *http.Client
	host        string
	rateLimiter *rate.Limiter
	logger      *slog.Logger
}

// Option configures a Client at construction.
type Option func(*Client)

// WithRateLimit overrides the outbound request rate (default 10 req/s,
// burst 5).
func WithRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) { c.rateLimiter = rate.NewLimiter(r, burst) }
}

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger overrides the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New builds a Client against host ("range.example.com" or
// "range.example.com:8080", with no scheme).
func New(host string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     30 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
		},
		host:        host,
		rateLimiter: rate.NewLimiter(10, 5),
		logger:      slog.Default().With("component", "rangeclient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RangeError wraps a non-success response from the range server, carrying
// the status code and any RangeException header the server set.
type RangeError struct {
	StatusCode int
	Message    string
}

func (e *RangeError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("range server: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("range server: unexpected status %d", e.StatusCode)
}

// Get issues a rate-limited GET against /range/list?<query> and returns the
// newline-delimited FQDNs in the response body, satisfying
// selector.RangeProvider.
func (c *Client) Get(ctx context.Context, expr string) ([]string, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	u := fmt.Sprintf("http://%s/range/list?%s", c.host, url.QueryEscape(expr))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building range request: %w", err)
	}
	req.Header.Set("User-Agent", "selector-engine")

	c.logger.DebugContext(ctx, "querying range server", slog.String("expr", expr))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("range request failed: %w", err)
	}
	defer resp.Body.Close()

	if rangeExc := resp.Header.Get("RangeException"); rangeExc != "" {
		return nil, &RangeError{StatusCode: resp.StatusCode, Message: rangeExc}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &RangeError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var members []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		members = append(members, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading range response: %w", err)
	}
	return members, nil
}
