package errs

import (
	"net/http"

	"github.com/pkg/errors"
)

// Sentinels for the client-side failure taxonomy. Everything user-facing
// wraps one of these so callers can branch with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrAuth       = errors.New("unauthorized")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrNetwork    = errors.New("backend unavailable")
)

// Validationf reports a client-detected input error, before any network I/O.
func Validationf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrValidation, format, args...)
}

// Network wraps a transport-level failure.
func Network(err error) error {
	return errors.Wrap(ErrNetwork, err.Error())
}

// FromStatus maps a backend HTTP status to a sentinel. 2xx maps to nil.
func FromStatus(code int, msg string) error {
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}
	var base error
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		base = ErrAuth
	case http.StatusNotFound:
		base = ErrNotFound
	case http.StatusConflict:
		base = ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		base = ErrValidation
	default:
		base = ErrNetwork
	}
	if msg == "" {
		msg = http.StatusText(code)
	}
	return errors.Wrap(base, msg)
}
