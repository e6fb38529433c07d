package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_DoJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/things", r.URL.Path)
		assert.Equal(t, "a@b.com", r.URL.Query().Get("email"))
		assert.Equal(t, "secret", r.Header.Get("X-Token"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["msg"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"42"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL+"/", 5*time.Second, WithHeader("X-Token", "secret"))

	var out struct {
		ID string `json:"id"`
	}
	err := c.DoJSON(context.Background(), http.MethodPost, "/v1/things",
		url.Values{"email": {"a@b.com"}}, map[string]string{"msg": "hello"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "42", out.ID)
}

func TestClient_DoJSON_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, 5*time.Second, WithMaxRetries(2))

	var out map[string]bool
	require.NoError(t, c.DoJSON(context.Background(), http.MethodGet, "/", nil, nil, &out))
	assert.True(t, out["ok"])
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestClient_DoJSON_RetriesTooManyRequestsThenGivesUp(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"errors":"slow down"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, 5*time.Second, WithMaxRetries(1))

	err := c.DoJSON(context.Background(), http.MethodGet, "/orders.json", nil, nil, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusTooManyRequests, StatusCode(err))
	assert.Contains(t, err.Error(), "slow down")
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestClient_DoJSON_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"errors":"missing scope"}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, 5*time.Second, WithMaxRetries(3))

	err := c.DoJSON(context.Background(), http.MethodGet, "/orders.json", nil, nil, nil)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusForbidden, http.StatusNotFound))
	assert.False(t, IsStatus(err, http.StatusInternalServerError))
	assert.Contains(t, err.Error(), "missing scope")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestClient_DoJSON_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(server.URL, time.Second, WithMaxRetries(3))
	err := c.DoJSON(ctx, http.MethodGet, "/", nil, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_DoJSON_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	c := NewClient(server.URL, time.Second)
	var out map[string]interface{}
	err := c.DoJSON(context.Background(), http.MethodGet, "/x", nil, nil, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}
