// Package idptest provides an identity-provider double for tests.
package idptest

import (
	"context"

	"github.com/openmall/storefront-auth/internal/idp"
)

type Static struct {
	Assertion string
	Err       error

	// Calls records every email passed to SignIn.
	Calls []string
}

var _ = idp.Provider(&Static{})

func (s *Static) SignIn(_ context.Context, email, _ string) (string, error) {
	s.Calls = append(s.Calls, email)
	if s.Err != nil {
		return "", s.Err
	}

	return s.Assertion, nil
}
