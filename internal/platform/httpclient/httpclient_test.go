package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON_RoundTrip(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/echo", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "k", r.Header.Get("X-Api-Key"))
		assert.Equal(t, "pet-registry", r.Header.Get("User-Agent"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["msg"]})
	}))
	defer ts.Close()

	c, err := NewWithBaseURL(ts.URL+"/", time.Second)
	require.NoError(t, err)
	c.UserAgent = "pet-registry"

	var out map[string]string
	err = c.DoJSON(context.Background(), http.MethodPost, "v1/echo", map[string]string{"X-Api-Key": "k"}, map[string]string{"msg": "hola"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hola", out["echo"])
}

func TestDoJSON_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer ts.Close()

	err := New(time.Second).DoJSON(context.Background(), http.MethodGet, ts.URL, nil, nil, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, StatusCode(err))
	assert.Equal(t, http.StatusForbidden, StatusCode(fmt.Errorf("wrapped: %w", err)))
	assert.Contains(t, err.Error(), "nope")
}

func TestResolveURL(t *testing.T) {
	c := New(0)
	_, err := c.resolveURL("/relative")
	assert.Error(t, err)

	got, err := c.resolveURL("https://example.com/x")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/x", got)

	_, err = NewWithBaseURL("not a url", time.Second)
	assert.Error(t, err)
}
