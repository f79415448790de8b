package driver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"

	"github.com/reservoir-data/tap-tally/constants"
	"github.com/reservoir-data/tap-tally/utils/logger"
)

var (
	// ErrAuth marks a rejected credential (HTTP 401/403); never retried.
	ErrAuth = fmt.Errorf("%w: authentication rejected", constants.ErrNonRetryable)
	// ErrRequest marks a client error other than rate limiting; fatal for the stream.
	ErrRequest = fmt.Errorf("%w: request rejected", constants.ErrNonRetryable)
	// ErrMalformed marks an undecodable response body; fatal for the stream.
	ErrMalformed = fmt.Errorf("%w: malformed response body", constants.ErrNonRetryable)
)

// Client is the authenticated HTTP client for the Tally API. Transient
// failures (429, 5xx, transport errors) are retried with exponential
// backoff up to retries attempts; everything else fails fast.
type Client struct {
	http         *http.Client
	baseURL      string
	apiKey       string
	retries      int
	retryBackoff time.Duration
}

func NewClient(config *Config) *Client {
	return &Client{
		http:         &http.Client{Timeout: time.Duration(config.RequestTimeout) * time.Second},
		baseURL:      strings.TrimRight(config.BaseURL, "/"),
		apiKey:       config.APIKey,
		retries:      config.RetryCount,
		retryBackoff: constants.DefaultRetryBackoff,
	}
}

// Get issues one authenticated GET and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint = fmt.Sprintf("%s?%s", endpoint, query.Encode())
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = c.retryBackoff
	expBackoff.MaxElapsedTime = 0 // bounded by retry count, not wall clock
	hinted := &serverHintBackOff{BackOff: expBackoff}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %s", ErrRequest, err))
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			logger.Warnf("transport error on %s: %s; retrying", path, err)
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return backoff.Permanent(fmt.Errorf("%w: status %d on %s", ErrAuth, resp.StatusCode, path))
		case resp.StatusCode == http.StatusTooManyRequests:
			if wait := retryAfter(resp.Header.Get("Retry-After")); wait > 0 {
				hinted.hint = wait
				logger.Warnf("rate limited on %s; server asked to wait %s", path, wait)
			} else {
				logger.Warnf("rate limited on %s; retrying", path)
			}
			return fmt.Errorf("rate limited on %s", path)
		case resp.StatusCode >= 500:
			logger.Warnf("server error %d on %s; retrying", resp.StatusCode, path)
			return fmt.Errorf("server error %d on %s", resp.StatusCode, path)
		case resp.StatusCode >= 400:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("%w: status %d on %s: %s", ErrRequest, resp.StatusCode, path, strings.TrimSpace(string(body))))
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body of %s: %s", path, err)
		}
		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %s on %s", ErrMalformed, err, path))
		}
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(hinted, uint64(c.retries)), ctx))
	if err != nil {
		return fmt.Errorf("GET %s failed: %w", path, err)
	}
	return nil
}

// serverHintBackOff substitutes a server-advertised wait (Retry-After) for
// the next computed exponential interval, so the two never stack.
type serverHintBackOff struct {
	backoff.BackOff
	hint time.Duration
}

func (b *serverHintBackOff) NextBackOff() time.Duration {
	if b.hint > 0 {
		wait := b.hint
		b.hint = 0
		return wait
	}
	return b.BackOff.NextBackOff()
}

// retryAfter parses a Retry-After header given in seconds, capped so a
// misbehaving server cannot stall the sync indefinitely.
func retryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return 0
	}
	wait := time.Duration(seconds) * time.Second
	if wait > 30*time.Second {
		wait = 30 * time.Second
	}
	return wait
}
