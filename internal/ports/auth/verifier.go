package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken lo devuelve un verificador cuando el token no es válido o está inactivo.
var ErrInvalidToken = errors.New("invalid token")

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
