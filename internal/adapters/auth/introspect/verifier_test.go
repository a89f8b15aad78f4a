package introspect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pet-registry/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func introspectServer(t *testing.T, tokens map[string]introspectResponse) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var in struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if in.Token == "explode" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(tokens[in.Token])
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestNewVerifier_Validates(t *testing.T) {
	_, err := NewVerifier(Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewVerifier(Config{URL: "idp.local/verify"})
	assert.Error(t, err)
}

func TestVerifier_Verify(t *testing.T) {
	ts := introspectServer(t, map[string]introspectResponse{
		"good":     {Active: true, Sub: "alice", Email: "alice@example.com"},
		"inactive": {Active: false, Sub: "bob"},
	})
	v, err := NewVerifier(Config{URL: ts.URL, APIKey: "secret"})
	require.NoError(t, err)
	ctx := context.Background()

	claims, err := v.Verify(ctx, " good ")
	require.NoError(t, err)
	assert.Equal(t, auth.Claims{Principal: "alice", Email: "alice@example.com"}, claims)

	_, err = v.Verify(ctx, "inactive")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = v.Verify(ctx, "unknown")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = v.Verify(ctx, "")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = v.Verify(ctx, "explode")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestVerifier_WrongAPIKey(t *testing.T) {
	ts := introspectServer(t, nil)
	v, err := NewVerifier(Config{URL: ts.URL, APIKey: "wrong"})
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), "good")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
