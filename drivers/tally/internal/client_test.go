package driver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := &Config{
		APIKey:          "test-key",
		OrganizationIDs: []string{"org1"},
		BaseURL:         server.URL,
		RetryCount:      3,
		RequestTimeout:  5,
	}
	client := NewClient(config)
	client.retryBackoff = time.Millisecond
	return client, server
}

func TestClient_AttachesBearerCredential(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))

	var out map[string]any
	require.NoError(t, client.Get(context.Background(), "/users/me", nil, &out))
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestClient_RateLimitRetriedOnce(t *testing.T) {
	var requests atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"items":[{"id":"f1"}]}`))
	}))

	var out map[string]any
	require.NoError(t, client.Get(context.Background(), "/forms", nil, &out))
	assert.Equal(t, int32(2), requests.Load(), "exactly one retry after the 429")
}

func TestClient_HonorsRetryAfter(t *testing.T) {
	var requests atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"items":[]}`))
	}))
	// large enough that stacking the exponential interval on top of the
	// advertised wait would be visible
	client.retryBackoff = 10 * time.Second

	start := time.Now()
	var out map[string]any
	require.NoError(t, client.Get(context.Background(), "/forms", nil, &out))
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, time.Second, "the advertised wait is respected")
	assert.Less(t, elapsed, 5*time.Second, "the advertised wait replaces the exponential interval")
	assert.Equal(t, int32(2), requests.Load())
}

func TestClient_ServerErrorsExhaustRetries(t *testing.T) {
	var requests atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	var out map[string]any
	err := client.Get(context.Background(), "/forms", nil, &out)
	require.Error(t, err)
	assert.Equal(t, int32(4), requests.Load(), "initial attempt plus three retries")
}

func TestClient_AuthErrorIsFatalWithoutRetry(t *testing.T) {
	var requests atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))

	var out map[string]any
	err := client.Get(context.Background(), "/users/me", nil, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, int32(1), requests.Load(), "auth failures must not be retried")
}

func TestClient_ClientErrorIsFatal(t *testing.T) {
	var requests atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "no such form", http.StatusNotFound)
	}))

	var out map[string]any
	err := client.Get(context.Background(), "/forms/missing/questions", nil, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequest)
	assert.False(t, errors.Is(err, ErrAuth))
	assert.Equal(t, int32(1), requests.Load())
}

func TestClient_MalformedBodyIsFatal(t *testing.T) {
	var requests atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write([]byte(`{"items": [`))
	}))

	var out map[string]any
	err := client.Get(context.Background(), "/forms", nil, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Equal(t, int32(1), requests.Load(), "decode failures must not burn retries")
}
