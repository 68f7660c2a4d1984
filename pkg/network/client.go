package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lcalzada-xor/pagetap/pkg/config"
	"github.com/lcalzada-xor/pagetap/pkg/page"
)

// Client wraps http.Client with retry logic and rate limiting. It also
// implements page.Transport, so it can sit beneath a page environment's
// request entry points.
type Client struct {
	HTTPClient  *http.Client
	RateLimiter *RateLimiter
}

// NewClient creates a new Client instance with optimized connection pooling and optional rate limiting.
// rateLimit: requests per second (0 = unlimited)
func NewClient(timeout time.Duration, proxyURL string, concurrency int, rateLimit float64) *Client {
	maxIdleConns := concurrency * 2
	maxIdleConnsPerHost := concurrency / 2
	if maxIdleConnsPerHost < 10 {
		maxIdleConnsPerHost = 10
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,

		// Connection pooling - scales with concurrency
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		MaxConnsPerHost:     concurrency,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	if proxyURL != "" {
		if pURL, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(pURL)
		}
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse // Don't follow redirects automatically
		},
	}

	return &Client{
		HTTPClient:  httpClient,
		RateLimiter: NewRateLimiter(rateLimit),
	}
}

// Do sends an HTTP request with automatic retries and rate limiting.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.RateLimiter != nil {
		if err := c.RateLimiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	var resp *http.Response
	var err error
	maxRetries := 3

	for i := 0; i <= maxRetries; i++ {
		if i > 0 {
			// Exponential backoff: 100ms, 200ms, 400ms
			backoff := time.Duration(100<<(i-1)) * time.Millisecond
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(backoff):
			}
		}

		resp, err = c.HTTPClient.Do(req)

		// 4xx responses are answers, not transport failures.
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		if resp != nil {
			resp.Body.Close()
		}
	}

	if err != nil {
		return nil, fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
	}
	return resp, nil
}

// RoundTrip implements page.Transport: it performs the real network I/O
// beneath a page's fetch and legacy entry points.
func (c *Client) RoundTrip(ctx context.Context, method, rawurl, body string, header map[string]string) (*page.Response, error) {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, rawurl, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", config.DefaultUserAgent)
	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}

	return &page.Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   resp.Body,
		URL:    resp.Request.URL.String(),
	}, nil
}
