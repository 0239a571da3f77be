package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Errors returned by Client. They are wrapped together with the underlying
// cause, so callers should classify them with errors.Is.
var (
	// ErrNetwork means the request could not be completed: connection
	// failures, timeouts and mid-stream read errors.
	ErrNetwork = errors.New("network error")

	// ErrNotFound means the server answered 404.
	ErrNotFound = errors.New("not found (404)")

	// ErrUnexpectedStatus means the server answered with another non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected status code")

	// ErrMalformedResponse means the body could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")
)

const (
	// DefaultRequestTimeout bounds metadata requests and the wait for
	// download response headers.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultIdleTimeout aborts a download that stops delivering bytes.
	DefaultIdleTimeout = 60 * time.Second

	// DefaultChunkSize is the read size used while streaming downloads.
	DefaultChunkSize = 8 * 1024

	// DefaultUserAgent identifies modfetch to registries.
	DefaultUserAgent = "modfetch"
)

// Client wraps HTTP operations with registry-friendly configuration.
//
// Client provides:
//   - Configured User-Agent header
//   - A per-request timeout for metadata calls
//   - JSON decoding with typed errors
//   - Chunked file streaming with progress tracking and an idle timeout
//
// Example usage:
//
//	client := NewClient(WithUserAgent("modfetch/1.0"))
//
//	// Fetch and decode JSON
//	var versions []dto.ModrinthVersion
//	err := client.GetJSON(ctx, "https://api.modrinth.com/v2/project/sodium/version", &versions)
//
//	// Stream a file with progress
//	n, err := client.Download(ctx, fileURL, file, func(written, total int64) {
//	    fmt.Printf("%d / %d\n", written, total)
//	})
type Client struct {
	httpClient     *http.Client
	userAgent      string
	requestTimeout time.Duration
	idleTimeout    time.Duration
	chunkSize      int
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRequestTimeout sets the timeout for metadata requests and for
// receiving download response headers.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.requestTimeout = d
		}
	}
}

// WithIdleTimeout sets how long a download may go without receiving bytes.
func WithIdleTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.idleTimeout = d
		}
	}
}

// WithChunkSize sets the read size used while streaming downloads.
func WithChunkSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		if rt != nil {
			c.httpClient.Transport = rt
		}
	}
}

// NewClient creates a new HTTP client.
//
// The client is configured with:
//   - 30 second request timeout
//   - 60 second download idle timeout
//   - 8 KiB download chunks
//   - "modfetch" User-Agent header
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:     &http.Client{},
		userAgent:      DefaultUserAgent,
		requestTimeout: DefaultRequestTimeout,
		idleTimeout:    DefaultIdleTimeout,
		chunkSize:      DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Transport == nil {
		c.httpClient.Transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   c.requestTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: c.requestTimeout,
			ExpectContinueTimeout: 1 * time.Second,
		}
	}
	return c
}

// ProgressWriter wraps a writer to track download progress.
//
// Use this to monitor large downloads by providing an OnUpdate callback
// that receives the current bytes written and total expected bytes.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer: file,
//	    Total:  contentLength,
//	    OnUpdate: func(written, total int64) {
//	        fmt.Printf("%d / %d bytes\n", written, total)
//	    },
//	}
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Total is the expected total bytes (from Content-Length header).
	// Zero means the size is unknown.
	Total int64

	// Written is the current number of bytes written.
	Written int64

	// OnUpdate is called after each Write with current progress.
	// Parameters are (bytesWritten, totalExpected).
	OnUpdate func(written, total int64)
}

// Write implements io.Writer, tracking progress and calling OnUpdate.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnUpdate != nil {
		pw.OnUpdate(pw.Written, pw.Total)
	}
	return n, err
}

// Get performs a GET request and returns the response body as bytes.
//
// The whole request, body included, is bounded by the request timeout.
//
// Returns an error if:
//   - The request fails (ErrNetwork)
//   - The response status is not 2xx (ErrNotFound, ErrUnexpectedStatus)
//   - Reading the body fails (ErrNetwork)
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	resp, err := c.do(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body from %s: %w", ErrNetwork, url, err)
	}
	return body, nil
}

// GetJSON performs a GET request and decodes the JSON body into v.
//
// Example:
//
//	var widget dto.WidgetProject
//	if err := client.GetJSON(ctx, "https://api.cfwidget.com/238222", &widget); err != nil {
//	    return err
//	}
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	body, err := c.Get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrMalformedResponse, url, err)
	}
	return nil
}

// Download streams url into w in fixed-size chunks and returns the number
// of bytes written.
//
// After each chunk is written, onProgress (if not nil) receives the bytes
// written so far and the Content-Length of the response, or 0 if the server
// did not send one. Cancellation of ctx is checked between chunks, and the
// transfer is aborted with ErrNetwork if no bytes arrive within the idle
// timeout.
//
// Example:
//
//	n, err := client.Download(ctx, jarURL, file, func(written, total int64) {
//	    if total > 0 {
//	        fmt.Printf("%.1f%%\r", float64(written)/float64(total)*100)
//	    }
//	})
func (c *Client) Download(ctx context.Context, url string, w io.Writer, onProgress func(written, total int64)) (int64, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	idle := time.AfterFunc(c.idleTimeout, func() {
		cancel(fmt.Errorf("no data received for %s", c.idleTimeout))
	})
	defer idle.Stop()

	resp, err := c.do(ctx, url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}
	pw := &ProgressWriter{Writer: w, Total: total, OnUpdate: onProgress}

	buf := make([]byte, c.chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return pw.Written, c.streamError(ctx, url, err)
		}

		n, rerr := io.ReadFull(resp.Body, buf)
		if n > 0 {
			idle.Reset(c.idleTimeout)
			if _, werr := pw.Write(buf[:n]); werr != nil {
				return pw.Written, fmt.Errorf("write %s: %w", url, werr)
			}
		}
		switch {
		case rerr == nil:
		case errors.Is(rerr, io.EOF), errors.Is(rerr, io.ErrUnexpectedEOF):
			if total > 0 && pw.Written < total {
				return pw.Written, fmt.Errorf("%w: %s: short body: got %d of %d bytes", ErrNetwork, url, pw.Written, total)
			}
			return pw.Written, nil
		default:
			return pw.Written, c.streamError(ctx, url, rerr)
		}
	}
}

// streamError reports a failed body read, preferring the cancellation cause.
func (c *Client) streamError(ctx context.Context, url string, err error) error {
	if cause := context.Cause(ctx); cause != nil {
		if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
			return fmt.Errorf("download %s: %w", url, cause)
		}
		return fmt.Errorf("%w: download %s: %w", ErrNetwork, url, cause)
	}
	return fmt.Errorf("%w: download %s: %w", ErrNetwork, url, err)
}

// do sends a GET request and checks the response status.
// The caller must close the body of a non-nil response.
func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, context.Canceled) {
			if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
				return nil, fmt.Errorf("%w: GET %s: %w", ErrNetwork, url, cause)
			}
			return nil, fmt.Errorf("GET %s: %w", url, ctxErr)
		}
		return nil, fmt.Errorf("%w: GET %s: %w", ErrNetwork, url, err)
	}

	if err := checkStatus(resp, url); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

// checkStatus maps a non-2xx response to a typed error.
func checkStatus(resp *http.Response, url string) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("GET %s: %w", url, ErrNotFound)
	default:
		return fmt.Errorf("GET %s: %w %d", url, ErrUnexpectedStatus, resp.StatusCode)
	}
}
