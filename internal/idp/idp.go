// Package idp abstracts the external identity provider used by the
// federated login flow.
package idp

import "context"

// Provider obtains a signed identity assertion for the given credentials.
// The assertion is later exchanged with the storefront backend for a
// session; the raw password never reaches the backend on this path.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (string, error)
}
