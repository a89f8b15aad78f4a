package pets

import "errors"

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("only the pet owner can do this")
	ErrAlreadyPending = errors.New("transfer already pending")
	ErrNotPending     = errors.New("pet not assigned for transfer")
	ErrNotRecipient   = errors.New("pet not assigned to caller")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrConflict       = errors.New("conflict")
)

// ErrorKind devuelve una etiqueta estable para métricas y logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrAlreadyPending):
		return "already_pending"
	case errors.Is(err, ErrNotPending):
		return "not_pending"
	case errors.Is(err, ErrNotRecipient):
		return "not_recipient"
	case errors.Is(err, ErrDuplicateEntry):
		return "duplicate_entry"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}
