package csvsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"artikujt/internal/core"
	"artikujt/internal/sources"
)

var errHTMLPage = errors.New("source answered with an HTML page; is the sheet published as CSV?")

// Client fetches CSV documents over HTTP.
type Client struct {
	http      *http.Client
	userAgent string
}

var _ sources.Fetcher = (*Client)(nil)

// NewClient returns a Client. A nil httpClient gets a pooled default.
func NewClient(httpClient *http.Client, userAgent string) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	if userAgent == "" {
		userAgent = "artikujt/1.0"
	}
	return &Client{http: httpClient, userAgent: userAgent}
}

// Close releases idle keep-alive connections to the source.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// NewHTTPClient creates an HTTP client with connection pooling and transport
// timeouts. The overall deadline comes from the caller's context.
func NewHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{Transport: transport}
}

// Fetch downloads and parses the CSV document at url.
func (c *Client) Fetch(ctx context.Context, url string) (core.RawTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return core.RawTable{}, &core.FetchError{URL: url, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.5")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return core.RawTable{}, &core.FetchError{URL: url, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return core.RawTable{}, &core.FetchError{URL: url, StatusCode: resp.StatusCode}
	}
	if strings.HasPrefix(strings.ToLower(resp.Header.Get("Content-Type")), "text/html") {
		return core.RawTable{}, &core.FetchError{URL: url, Err: errHTMLPage}
	}

	rt, err := Parse(resp.Body, url)
	if err != nil {
		return core.RawTable{}, err
	}

	slog.DebugContext(ctx, "CSV fetched",
		"url", url,
		"rows", rt.Len(),
		"skipped_rows", rt.Skipped,
		"duration_ms", time.Since(start).Milliseconds())
	return rt, nil
}
