package sharefile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Retry policy: maxRetries retries after the first attempt, backing off from
// one second up to a minute.
const (
	maxRetries     = 5
	baseBackoff    = time.Second
	maxBackoff     = time.Minute
	backoffFactor  = 2.0
	jitterFraction = 0.25

	// DefaultUserAgent is sent when NewClient is given an empty user agent.
	DefaultUserAgent = "sharefile-go/0.1"

	// APIPath is the path prefix of every v3 endpoint.
	APIPath = "/sf/v3"

	requestIDHeader = "X-Request-ID"

	defaultMaxRedirects = 3
)

// ErrTooManyRedirects is returned when a response chain exceeds the bound
// configured with RedirectPolicy. It is never retried.
var ErrTooManyRedirects = errors.New("sharefile: too many redirects")

// TokenSource provides OAuth2 bearer tokens. *Token implements it.
type TokenSource interface {
	Token() (string, error)
}

// Client talks to one account's v3 API. Every request carries the bearer
// token and is retried on transient failures; non-2xx responses become
// *APIError values.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	logger     *slog.Logger
	userAgent  string

	// sleepFunc waits between attempts; tests swap in a no-op.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewClient creates a ShareFile API client.
// baseURL is typically "https://{subdomain}.sf-api.com/sf/v3" (see APIBaseURL).
// A Client cannot exist without a token: a nil TokenSource panics.
func NewClient(baseURL string, httpClient *http.Client, token TokenSource, logger *slog.Logger, userAgent string) *Client {
	if token == nil {
		panic("sharefile: NewClient called with nil TokenSource")
	}

	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = &http.Client{CheckRedirect: RedirectPolicy(defaultMaxRedirects)}
	}

	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		token:      token,
		logger:     logger,
		userAgent:  userAgent,
		sleepFunc:  timeSleep,
	}
}

// BaseURL returns the API base URL the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// RedirectPolicy returns an http.Client CheckRedirect function that follows
// at most limit redirects. Exceeding the bound fails with ErrTooManyRedirects.
func RedirectPolicy(limit int) func(req *http.Request, via []*http.Request) error {
	return func(_ *http.Request, via []*http.Request) error {
		if len(via) > limit {
			return fmt.Errorf("%w: stopped after %d", ErrTooManyRedirects, limit)
		}

		return nil
	}
}

// Do sends method to baseURL+path and returns the 2xx response, whose body
// the caller must close. A non-nil body is sent as application/json and is
// buffered up front so retries can replay it.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	url := c.baseURL + path

	var payload []byte

	if body != nil {
		var err error

		payload, err = io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("sharefile: reading request body: %w", err)
		}
	}

	return c.doRetry(ctx, method, path, policyFor(method), func() (*http.Request, error) {
		var r io.Reader
		if body != nil {
			r = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, r)
		if err != nil {
			return nil, err
		}

		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		return req, nil
	})
}

// doJSON sends in (when non-nil) as JSON and decodes the response into out
// (when non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader

	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("sharefile: encoding request: %w", err)
		}

		body = bytes.NewReader(data)
	}

	resp, err := c.Do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("sharefile: decoding %s %s response: %w", method, path, err)
	}

	return nil
}

// retryPolicy selects which failures doRetry repeats.
type retryPolicy int

const (
	// retryIdempotent repeats transport errors and every retryable status.
	retryIdempotent retryPolicy = iota
	// retryOnRequest repeats only 408, 429 and 503, where the server did not
	// act on the request. Used for POSTs that create something.
	retryOnRequest
)

// policyFor returns the policy for an API call. POST creates resources;
// every other verb Do sends is idempotent.
func policyFor(method string) retryPolicy {
	if method == http.MethodPost {
		return retryOnRequest
	}

	return retryIdempotent
}

func (p retryPolicy) retries(status int) bool {
	if p == retryOnRequest {
		switch status {
		case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusServiceUnavailable:
			return true
		default:
			return false
		}
	}

	return isRetryable(status)
}

// doRetry runs build and sends the resulting request, retrying failures the
// policy allows. build is called once per attempt so the request body is
// fresh each time. label identifies the request in logs and must not contain
// pre-authenticated URLs. Every attempt carries the same X-Request-ID.
func (c *Client) doRetry(
	ctx context.Context, method, label string, policy retryPolicy, build func() (*http.Request, error),
) (*http.Response, error) {
	bearer, err := c.token.Token()
	if err != nil {
		return nil, fmt.Errorf("sharefile: obtaining token: %w", err)
	}

	reqID := uuid.NewString()
	log := c.logger.With(
		slog.String("method", method),
		slog.String("path", label),
		slog.String("request_id", reqID),
	)

	for attempt := 0; ; attempt++ {
		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("sharefile: creating request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+bearer)
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set(requestIDHeader, reqID)

		resp, sendErr := c.httpClient.Do(req)

		switch {
		case sendErr != nil && ctx.Err() != nil:
			return nil, fmt.Errorf("sharefile: request canceled: %w", ctx.Err())
		case sendErr != nil && errors.Is(sendErr, ErrTooManyRedirects):
			return nil, fmt.Errorf("sharefile: %s %s: %w", method, label, sendErr)
		case sendErr != nil && policy == retryOnRequest:
			return nil, fmt.Errorf("sharefile: %s %s: %w", method, label, sendErr)
		case sendErr != nil:
			if attempt == maxRetries {
				return nil, fmt.Errorf("sharefile: %s %s failed after %d retries: %w", method, label, maxRetries, sendErr)
			}

			log.Warn("transport error, will retry",
				slog.Int("attempt", attempt+1),
				slog.String("error", sendErr.Error()),
			)

			if err := c.pause(ctx, c.calcBackoff(attempt)); err != nil {
				return nil, err
			}

			continue
		}

		if resp.StatusCode/100 == 2 { //nolint:mnd // 2xx class
			log.Debug("request ok", slog.Int("status", resp.StatusCode), slog.Int("attempt", attempt+1))

			return resp, nil
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if readErr != nil {
			body = []byte("(unreadable response body)")
		}

		if !policy.retries(resp.StatusCode) || attempt == maxRetries {
			if attempt > 0 {
				log.Error("giving up", slog.Int("status", resp.StatusCode), slog.Int("attempts", attempt+1))
			}

			return nil, newAPIError(resp, body)
		}

		wait := c.retryBackoff(resp, attempt)
		log.Warn("retryable status, will retry",
			slog.Int("status", resp.StatusCode),
			slog.Int("attempt", attempt+1),
			slog.Duration("wait", wait),
		)

		if err := c.pause(ctx, wait); err != nil {
			return nil, err
		}
	}
}

func (c *Client) pause(ctx context.Context, d time.Duration) error {
	if err := c.sleepFunc(ctx, d); err != nil {
		return fmt.Errorf("sharefile: request canceled: %w", err)
	}

	return nil
}

// retryBackoff honors an integral Retry-After on 429 and 503, and falls back
// to calcBackoff otherwise.
func (c *Client) retryBackoff(resp *http.Response, attempt int) time.Duration {
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}

	return c.calcBackoff(attempt)
}

// calcBackoff doubles from baseBackoff per attempt, caps at maxBackoff, and
// spreads the result by up to jitterFraction either way.
func (c *Client) calcBackoff(attempt int) time.Duration {
	d := min(float64(baseBackoff)*math.Pow(backoffFactor, float64(attempt)), float64(maxBackoff))
	d *= 1 + jitterFraction*(2*rand.Float64()-1) //nolint:gosec // jitter only

	return time.Duration(d)
}

// timeSleep is the production sleepFunc. It returns early with ctx.Err()
// when ctx ends first.
func timeSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
