package pnwkit

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"
)

// HTTPRequest is the transport-agnostic shape of an outgoing HTTP call.
type HTTPRequest struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// HTTPResponse is the transport-agnostic shape of an HTTP round trip's
// result.
type HTTPResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// HTTPClient performs one request -> response round trip. The concrete
// transport is injected so tests can substitute a mock and production
// code can substitute a configured *http.Client, a retrying client,
// tracing middleware, and so on.
type HTTPClient interface {
	Do(ctx context.Context, req HTTPRequest) (HTTPResponse, error)
}

// stdHTTPClient adapts net/http.Client to HTTPClient.
type stdHTTPClient struct {
	client *http.Client
}

// NewStdHTTPClient wraps an *http.Client (http.DefaultClient if nil) as
// an HTTPClient.
func NewStdHTTPClient(client *http.Client) HTTPClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &stdHTTPClient{client: client}
}

func (c *stdHTTPClient) Do(ctx context.Context, req HTTPRequest) (HTTPResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return HTTPResponse{}, err
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return HTTPResponse{}, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return HTTPResponse{}, err
	}
	return HTTPResponse{StatusCode: resp.StatusCode, Headers: resp.Header, Body: body}, nil
}

// Clock is an injected epoch-seconds time source, so the rate limiter and
// the socket's activity-timeout tracking are deterministic under test.
type Clock interface {
	Now() uint64
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now returns the current Unix time in seconds.
func (SystemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}

// Sleeper is an injected sleep primitive, so rate-limit backoff and
// reconnect delays are deterministic under test and cancellable via
// context.
type Sleeper interface {
	Sleep(ctx context.Context, seconds uint64) error
}

// StdSleeper sleeps on a real timer, honoring context cancellation.
type StdSleeper struct{}

// Sleep blocks for the given number of seconds, or until ctx is done.
func (StdSleeper) Sleep(ctx context.Context, seconds uint64) error {
	if seconds == 0 {
		return nil
	}
	timer := time.NewTimer(time.Duration(seconds) * time.Second)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
