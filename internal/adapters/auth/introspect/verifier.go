package introspect

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"pet-registry/internal/platform/httpclient"
	"pet-registry/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("identity verifier not configured")
	ErrUpstream      = errors.New("identity upstream error")
)

// Config del endpoint de verificación de tokens.
type Config struct {
	URL    string
	APIKey string

	// Si está vacío, se usa "X-Api-Key".
	APIKeyHeader string

	Timeout time.Duration
}

// Verifier implementa auth.AuthVerifier contra un endpoint de introspección:
// POST {"token": "..."} => {"active": true, "sub": "...", "email": "..."}.
type Verifier struct {
	http         *httpclient.Client
	url          string
	apiKey       string
	apiKeyHeader string
}

func NewVerifier(cfg Config) (*Verifier, error) {
	u := strings.TrimSpace(cfg.URL)
	if u == "" {
		return nil, ErrNotConfigured
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return nil, fmt.Errorf("identity verify url must be absolute: %q", u)
	}

	h := strings.TrimSpace(cfg.APIKeyHeader)
	if h == "" {
		h = "X-Api-Key"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	c := httpclient.New(timeout)
	c.UserAgent = "pet-registry"
	return &Verifier{
		http:         c,
		url:          u,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		apiKeyHeader: h,
	}, nil
}

type introspectResponse struct {
	Active bool   `json:"active"`
	Sub    string `json:"sub"`
	Email  string `json:"email"`
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.http == nil {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, auth.ErrInvalidToken
	}

	headers := map[string]string{}
	if v.apiKey != "" {
		headers[v.apiKeyHeader] = v.apiKey
	}

	var out introspectResponse
	err := v.http.DoJSON(ctx, http.MethodPost, v.url, headers, map[string]string{"token": token}, &out)
	switch code := httpclient.StatusCode(err); {
	case err == nil:
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return auth.Claims{}, auth.ErrInvalidToken
	default:
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	sub := strings.TrimSpace(out.Sub)
	if !out.Active || sub == "" {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	return auth.Claims{Principal: sub, Email: strings.TrimSpace(out.Email)}, nil
}
