package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openmall/storefront-auth/internal/autherr"
	"github.com/openmall/storefront-auth/internal/credstore"
	"github.com/openmall/storefront-auth/internal/session"
)

// CallbackParams are the query parameters of an incoming provider
// redirect.
type CallbackParams struct {
	Code  string
	State string
	Error string
}

// ParseCallbackURL extracts callback parameters from a full redirect URL.
func ParseCallbackURL(raw string) (CallbackParams, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return CallbackParams{}, fmt.Errorf("parsing callback URL: %w", err)
	}

	q := u.Query()

	return CallbackParams{
		Code:  q.Get("code"),
		State: q.Get("state"),
		Error: q.Get("error"),
	}, nil
}

// HandleCallback runs the redirect-login callback to completion:
// validate the incoming parameters, check the anti-forgery state, exchange
// the authorization code with the backend and persist the session. The
// stored state is single-use: it is consumed on every terminal outcome,
// success or failure, so a replayed callback can never redeem it twice.
// A callback without code, state and error parameters is an inert load:
// nothing happens and the caller stays put. There is no automatic retry;
// a failed attempt requires a fresh BeginRedirectLogin.
func (m *Manager) HandleCallback(ctx context.Context, p CallbackParams) (Outcome, error) {
	if p.Error != "" {
		m.recordFailure(ctx, flowRedirect)
		m.consumeState(ctx)

		return Outcome{Navigation: NavigateLogin},
			errors.Join(autherr.ErrProviderRejected, fmt.Errorf("provider error %q", p.Error))
	}

	if p.Code == "" || p.State == "" {
		slogctx.Debug(ctx, "Callback loaded without provider parameters; ignoring")
		return Outcome{}, nil
	}

	stored, err := m.store.Get(ctx, credstore.KeyOAuthState)
	if err != nil || stored != p.State {
		m.recordFailure(ctx, flowRedirect)
		m.consumeState(ctx)

		return Outcome{Navigation: NavigateLogin}, autherr.ErrStateMismatch
	}

	m.consumeState(ctx)

	tokens, err := m.backend.ExchangeCode(ctx, p.Code, p.State)
	if err != nil {
		m.recordFailure(ctx, flowRedirect)
		return Outcome{Navigation: NavigateLogin}, errors.Join(autherr.ErrExchangeFailed, err)
	}

	s := session.Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    expiryOf(tokens),
	}
	if err := session.Save(ctx, m.store, s); err != nil {
		m.recordFailure(ctx, flowRedirect)
		return Outcome{Navigation: NavigateLogin}, err
	}

	slogctx.Info(ctx, "Redirect login succeeded")

	return Outcome{Session: s, Navigation: NavigateHome}, nil
}

// consumeState removes the anti-forgery value. A failure to remove is
// logged but does not change the outcome of the attempt.
func (m *Manager) consumeState(ctx context.Context) {
	if err := m.store.Remove(ctx, credstore.KeyOAuthState); err != nil {
		slogctx.Error(ctx, "Failed to clear anti-forgery state", "error", err)
	}
}
