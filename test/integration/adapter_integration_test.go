//go:build integration

package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quote-vault/internal/adapters/clients"
	"github.com/jsamuelsen/quote-vault/internal/adapters/clients/quotable"
	"github.com/jsamuelsen/quote-vault/internal/domain"
	"github.com/jsamuelsen/quote-vault/internal/platform/config"
)

// testAdapterConfig returns a config suitable for adapter integration testing.
func testAdapterConfig(baseURL string) clients.Config {
	return clients.Config{
		ServiceName: "quotable",
		BaseURL:     baseURL,
		Timeout:     5 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     2,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     50 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   3,
			Timeout:       100 * time.Millisecond,
			HalfOpenLimit: 2,
		},
	}
}

func newSource(t *testing.T, cfg clients.Config) *quotable.Source {
	t.Helper()

	client, err := clients.New(cfg)
	require.NoError(t, err)

	return quotable.NewSource(quotable.SourceConfig{Client: client})
}

// TestQuotableSource_FetchRandom_Integration verifies the full flow
// of fetching a quotation through the adapter.
func TestQuotableSource_FetchRandom_Integration(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/random", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
			"_id": "quote-integration-123",
			"content": "The obstacle is the way.",
			"author": "Marcus Aurelius",
			"tags": ["wisdom"]
		}`))
	}))
	defer server.Close()

	source := newSource(t, testAdapterConfig(server.URL))

	draft, err := source.FetchRandom(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Marcus Aurelius", draft.Author)
	assert.Equal(t, "The obstacle is the way.", draft.Text)
}

// TestQuotableSource_ErrorMapping_NotFound verifies that 404 responses
// are correctly mapped to domain NotFoundError.
func TestQuotableSource_ErrorMapping_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"statusCode": 404, "statusMessage": "Not Found"}`))
	}))
	defer server.Close()

	source := newSource(t, testAdapterConfig(server.URL))

	_, err := source.FetchRandom(context.Background())

	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err), "expected NotFoundError")
}

// TestQuotableSource_ErrorMapping_RateLimited verifies that 429 responses
// are correctly mapped to domain UnavailableError.
func TestQuotableSource_ErrorMapping_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	source := newSource(t, testAdapterConfig(server.URL))

	_, err := source.FetchRandom(context.Background())

	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err), "expected UnavailableError")
	assert.Contains(t, err.Error(), "rate limit")
}

// TestQuotableSource_ErrorMapping_ServiceUnavailable verifies that 5xx responses
// are correctly mapped to domain UnavailableError after retries are exhausted.
func TestQuotableSource_ErrorMapping_ServiceUnavailable(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`internal server error`))
	}))
	defer server.Close()

	cfg := testAdapterConfig(server.URL)

	source := newSource(t, cfg)

	_, err := source.FetchRandom(context.Background())

	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err), "expected UnavailableError")
	assert.Equal(t, int32(cfg.Retry.MaxAttempts), calls.Load(), "each attempt should hit the server")
}

// TestQuotableSource_ErrorMapping_CircuitOpen verifies that circuit breaker
// open state is correctly mapped to domain UnavailableError.
func TestQuotableSource_ErrorMapping_CircuitOpen(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testAdapterConfig(server.URL)
	cfg.Retry.MaxAttempts = 1
	cfg.Circuit.MaxFailures = 2

	source := newSource(t, cfg)

	// Trip the circuit breaker
	_, _ = source.FetchRandom(context.Background())
	_, _ = source.FetchRandom(context.Background())

	// This call should fail fast with circuit open
	callsBefore := calls.Load()
	_, err := source.FetchRandom(context.Background())

	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err), "expected UnavailableError")
	assert.Equal(t, callsBefore, calls.Load(), "no server call when circuit is open")
}

// TestQuotableSource_MalformedResponse verifies that undecodable bodies
// surface as UnavailableError rather than a partial draft.
func TestQuotableSource_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"_id": "broken`))
	}))
	defer server.Close()

	source := newSource(t, testAdapterConfig(server.URL))

	_, err := source.FetchRandom(context.Background())

	require.Error(t, err)
	assert.True(t, domain.IsUnavailable(err), "expected UnavailableError")
}

// TestQuotableSource_HealthCheck verifies the health checker contract
// against a live and a dead upstream.
func TestQuotableSource_HealthCheck(t *testing.T) {
	t.Run("healthy upstream", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"_id": "q1", "content": "ok", "author": "a"}`))
		}))
		defer server.Close()

		source := newSource(t, testAdapterConfig(server.URL))

		assert.Equal(t, "quotable", source.Name())
		assert.NoError(t, source.Check(context.Background()))
	})

	t.Run("unreachable upstream", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // Connection refused from here on

		cfg := testAdapterConfig(server.URL)
		cfg.Retry.MaxAttempts = 1

		source := newSource(t, cfg)

		assert.Error(t, source.Check(context.Background()))
	})
}
