// Package autherr defines the error taxonomy shared by the authentication
// flows. Every error here is terminal for the current attempt; none of them
// is fatal to the process.
package autherr

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")
var ErrNotAuthenticated = errors.New("not authenticated")
var ErrProviderRejected = errors.New("login rejected by the provider")
var ErrStateMismatch = errors.New("state mismatch")
var ErrExchangeFailed = errors.New("code exchange failed")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrIdentityProvider = errors.New("identity provider sign-in failed")

// NetworkError marks a transport-level failure. The user-facing message
// stays as coarse as the original flows report it, but the cause remains
// reachable through errors.As so callers can tell a dead backend from a
// rejected credential.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
