package errors

import (
	"errors"
	"fmt"
)

// Common error types for the admin client
var (
	// Credential errors
	ErrNoCredentials     = errors.New("no stored credentials")
	ErrNoRefreshToken    = errors.New("no refresh token")
	ErrInvalidCredential = errors.New("invalid credential record")

	// Token errors
	ErrTokenUndecodable = errors.New("token could not be decoded")
	ErrTokenExpired     = errors.New("token expired")

	// Session errors
	ErrSessionExpired = errors.New("session expired")
	ErrRefreshFailed  = errors.New("token refresh failed")
	ErrLoginFailed    = errors.New("login failed")

	// Request errors
	ErrInvalidRequest = errors.New("invalid request")
	ErrForbidden      = errors.New("forbidden for role")

	// General errors
	ErrNotFound = errors.New("not found")
	ErrInternal = errors.New("internal error")
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
