package firefly

import (
	"context"
	"errors"
	"net"
)

func IsAuthError(err error) bool {
	var e *AuthError
	return errors.As(err, &e)
}

func IsAPIError(err error) bool {
	var e *APIError
	return errors.As(err, &e)
}

func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsUnexpectedFormat(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.Code == CodeUnexpectedFormat
}

// IsTimeout reports whether err was caused by the per-call timeout or a
// network-level timeout. The error kind (AuthError or APIError) is unchanged.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
