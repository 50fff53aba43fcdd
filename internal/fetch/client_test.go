package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oma-gateway/internal/logs"
	"oma-gateway/internal/metrics"
)

func newTestClient(t *testing.T) (*Client, *[]time.Duration, *metrics.Registry, *logs.Logger) {
	t.Helper()
	reg := metrics.NewRegistry()
	logger := logs.NewLogger(100, logs.DEBUG)
	c := NewClient(DefaultConfig(), logger, reg)

	var sleeps []time.Duration
	c.SetSleeper(recordSleeps(&sleeps))
	return c, &sleeps, reg, logger
}

func TestClientDo(t *testing.T) {
	t.Run("retries 5xx until success", func(t *testing.T) {
		var (
			mu    sync.Mutex
			calls int
			ids   []string
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			calls++
			n := calls
			ids = append(ids, r.Header.Get(RequestIDHeader))
			mu.Unlock()

			if n < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer srv.Close()

		c, sleeps, reg, logger := newTestClient(t)
		resp, err := c.Do(context.Background(), Request{URL: srv.URL}, WithRetries(5, 100*time.Millisecond))
		require.NoError(t, err)

		var body struct{ OK bool }
		require.NoError(t, resp.JSON(&body))
		assert.True(t, body.OK)
		assert.Equal(t, 3, resp.Attempts)
		assert.Equal(t, []time.Duration{100 * time.Millisecond, 150 * time.Millisecond}, *sleeps)

		require.Len(t, ids, 3)
		assert.NotEmpty(t, ids[0])
		assert.Equal(t, ids[0], ids[1])
		assert.Equal(t, ids[0], ids[2])
		assert.Equal(t, ids[0], resp.RequestID)

		assert.Equal(t, int64(3), reg.Get(metrics.FetchAttemptsTotal))
		assert.Equal(t, int64(2), reg.Get(metrics.FetchRetriesTotal))
		assert.Equal(t, int64(1), reg.Get(metrics.FetchSuccessTotal))

		last := logger.GetLast(1)
		require.Len(t, last, 1)
		assert.Contains(t, last[0].Message, "succeeded after 2 retries")
	})

	t.Run("4xx is attempted once", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			http.Error(w, "sheet not found", http.StatusNotFound)
		}))
		defer srv.Close()

		c, sleeps, reg, _ := newTestClient(t)
		_, err := c.Do(context.Background(), Request{URL: srv.URL + "/api/sheets/Nope!A1"})

		require.Error(t, err)
		assert.True(t, IsClientError(err))
		var he *HTTPError
		require.True(t, errors.As(err, &he))
		assert.Equal(t, http.StatusNotFound, he.StatusCode)
		assert.Contains(t, he.Body, "sheet not found")
		assert.Equal(t, 1, calls)
		assert.Empty(t, *sleeps)
		assert.Equal(t, int64(1), reg.Get(metrics.FetchClientErrorsTotal))
	})

	t.Run("exhausted retries keep the last HTTP error", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c, sleeps, reg, logger := newTestClient(t)
		_, err := c.Do(context.Background(), Request{URL: srv.URL}, WithRetries(3, time.Second))

		require.Error(t, err)
		assert.True(t, IsExhausted(err))
		var he *HTTPError
		require.True(t, errors.As(err, &he))
		assert.Equal(t, http.StatusInternalServerError, he.StatusCode)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []time.Duration{time.Second, 1500 * time.Millisecond}, *sleeps)
		assert.Equal(t, int64(1), reg.Get(metrics.FetchFailuresTotal))

		last := logger.GetLast(1)
		require.Len(t, last, 1)
		assert.Equal(t, logs.WARN, last[0].Level)
		assert.Contains(t, last[0].Message, "retries exhausted")
	})

	t.Run("json body is replayed on every attempt", func(t *testing.T) {
		var bodies []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			bodies = append(bodies, string(b))
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			if len(bodies) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.WriteHeader(http.StatusCreated)
		}))
		defer srv.Close()

		c, _, _, _ := newTestClient(t)
		resp, err := c.Do(context.Background(), Request{
			Method: http.MethodPost,
			URL:    srv.URL,
			Body:   map[string]any{"operation": "append"},
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
		require.Len(t, bodies, 2)
		assert.JSONEq(t, `{"operation":"append"}`, bodies[0])
		assert.Equal(t, bodies[0], bodies[1])
	})

	t.Run("cancelled context stops the loop", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		c, _, _, _ := newTestClient(t)
		c.SetSleeper(func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		})

		_, err := c.Do(ctx, Request{URL: srv.URL})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("transport errors are retried", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		c, sleeps, reg, _ := newTestClient(t)
		_, err := c.Do(context.Background(), Request{URL: url}, WithRetries(2, 10*time.Millisecond))

		require.Error(t, err)
		assert.True(t, IsExhausted(err))
		assert.False(t, IsClientError(err))
		assert.Len(t, *sleeps, 1)
		assert.Equal(t, int64(2), reg.Get(metrics.FetchAttemptsTotal))
	})
}

func TestClientGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"values":[["a","b"]]}}`))
	}))
	defer srv.Close()

	c, _, _, _ := newTestClient(t)
	var out struct {
		Data struct {
			Values [][]string `json:"values"`
		} `json:"data"`
	}
	require.NoError(t, c.GetJSON(context.Background(), srv.URL, &out))
	assert.Equal(t, [][]string{{"a", "b"}}, out.Data.Values)
}
