// Package transport performs read-only GET requests against the exchange with bounded retries.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/rtr-rodrigo/Sniper-BitGet/internal/config"
	"github.com/rtr-rodrigo/Sniper-BitGet/internal/util"
)

const maxErrorBody = 512

// cappedBackoff honours Retry-After from the server but never waits longer than max.
func cappedBackoff(min, max time.Duration, attempt int, resp *http.Response) time.Duration {
	d := retryablehttp.DefaultBackoff(min, max, attempt, resp)
	if max > 0 && d > max {
		return max
	}
	return d
}

// Getter is the slice of the transport used by fetchers.
type Getter interface {
	Get(ctx context.Context, rawURL string, query url.Values) (*Response, error)
}

// Response is a fully read 2xx reply.
type Response struct {
	Status int
	Body   []byte
}

// TransportError reports a request that failed after every permitted attempt.
type TransportError struct {
	URL    string
	Status int // 0 when no response was received
	Body   []byte
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("GET %s: %v", e.URL, e.Err)
	}
	body := e.Body
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return fmt.Sprintf("GET %s: status %d: %s", e.URL, e.Status, body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client wraps a retrying HTTP client configured for the public market endpoints.
type Client struct {
	http      *retryablehttp.Client
	userAgent string
	log       zerolog.Logger
}

// New builds a client from the http config section.
func New(cfg config.HTTP, log zerolog.Logger) *Client {
	log = util.Component(log, "transport")

	retryable := make(map[int]struct{}, len(cfg.RetryStatuses))
	for _, status := range cfg.RetryStatuses {
		retryable[status] = struct{}{}
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient.Timeout = cfg.Timeout()
	rc.RetryMax = cfg.MaxAttempts - 1
	if rc.RetryMax < 0 {
		rc.RetryMax = 0
	}
	rc.RetryWaitMin = cfg.BackoffMin()
	rc.RetryWaitMax = cfg.BackoffMax()
	rc.Backoff = cappedBackoff
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = leveledLogger{log: log}
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return retryablehttp.DefaultRetryPolicy(ctx, nil, err)
		}
		_, ok := retryable[resp.StatusCode]
		return ok, nil
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}
	return &Client{http: rc, userAgent: userAgent, log: log}
}

// Get issues a GET with the query merged into rawURL and returns the body of a 2xx reply.
// Any other outcome is a *TransportError.
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	if len(query) > 0 {
		merged := u.Query()
		for key, values := range query {
			for _, v := range values {
				merged.Add(key, v)
			}
		}
		u.RawQuery = merged.Encode()
	}
	target := u.String()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &TransportError{URL: target, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	// With the passthrough handler an exhausted retry loop still hands back the last response.
	resp, doErr := c.http.Do(req)
	if resp == nil {
		return nil, &TransportError{URL: target, Err: doErr}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: target, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if doErr == nil {
			doErr = fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return nil, &TransportError{URL: target, Status: resp.StatusCode, Body: body, Err: doErr}
	}
	return &Response{Status: resp.StatusCode, Body: body}, nil
}
