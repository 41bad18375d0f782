package errors

import (
	"errors"
	"fmt"
)

// Common error types for the seller client
var (
	// Identity errors
	ErrNoPrincipal        = errors.New("no signed-in principal")
	ErrPrincipalMismatch  = errors.New("principal is not the signed-in principal")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenUnavailable   = errors.New("token unavailable")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOTPNotRequested    = errors.New("confirmation object missing, try sending OTP again")
	ErrInvalidOTP         = errors.New("invalid verification code")

	// Request errors
	ErrUnsupportedMethod = errors.New("unsupported method")
	ErrInvalidPayload    = errors.New("invalid payload")

	// Session errors
	ErrSessionExpired = errors.New("session expired")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
