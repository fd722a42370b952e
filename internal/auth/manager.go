// Package auth implements the client-side authentication flows: password
// login, federated identity-provider login, the external redirect login
// with its callback state machine, registration and logout.
//
// Handlers never navigate themselves; they return an Outcome carrying a
// navigation intent, and the UI layer (the CLI here) acts on it. Every
// failure path leaves the credential store's token fields exactly as they
// were before the attempt.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openmall/storefront-auth/internal/autherr"
	"github.com/openmall/storefront-auth/internal/backend"
	"github.com/openmall/storefront-auth/internal/credstore"
	"github.com/openmall/storefront-auth/internal/idp"
	"github.com/openmall/storefront-auth/internal/provider"
	"github.com/openmall/storefront-auth/internal/session"
)

// Navigation is the intent a handler hands back to the UI layer.
type Navigation string

const (
	NavigateNone  Navigation = ""
	NavigateHome  Navigation = "home"
	NavigateLogin Navigation = "login"
)

// Outcome is the result of one authentication attempt.
type Outcome struct {
	Session    session.Session
	Navigation Navigation
}

type Manager struct {
	store    credstore.Store
	backend  *backend.Client
	idp      idp.Provider
	provider *provider.Adapter
}

func NewManager(store credstore.Store, backendClient *backend.Client, idpProvider idp.Provider, adapter *provider.Adapter) *Manager {
	initMeters()

	return &Manager{
		store:    store,
		backend:  backendClient,
		idp:      idpProvider,
		provider: adapter,
	}
}

// Login submits email/password credentials to the backend and persists the
// resulting session. Any rejection, transport failures included, surfaces
// as ErrInvalidCredentials; the cause stays reachable via errors.As.
func (m *Manager) Login(ctx context.Context, email, password string) (Outcome, error) {
	m.recordAttempt(ctx, flowPassword)

	tokens, err := m.backend.Login(ctx, email, password)
	if err != nil {
		m.recordFailure(ctx, flowPassword)
		return Outcome{Navigation: NavigateLogin}, errors.Join(autherr.ErrInvalidCredentials, err)
	}

	return m.finish(ctx, flowPassword, tokens)
}

// LoginWithFederatedAssertion signs in at the external identity provider,
// then exchanges the signed assertion with the backend for a session.
func (m *Manager) LoginWithFederatedAssertion(ctx context.Context, email, password string) (Outcome, error) {
	m.recordAttempt(ctx, flowFederated)

	if m.idp == nil {
		m.recordFailure(ctx, flowFederated)
		return Outcome{Navigation: NavigateLogin}, errors.Join(autherr.ErrIdentityProvider, errors.New("no identity provider configured"))
	}

	assertion, err := m.idp.SignIn(ctx, email, password)
	if err != nil {
		m.recordFailure(ctx, flowFederated)
		return Outcome{Navigation: NavigateLogin}, errors.Join(autherr.ErrIdentityProvider, err)
	}

	tokens, err := m.backend.FederatedLogin(ctx, assertion)
	if err != nil {
		m.recordFailure(ctx, flowFederated)
		return Outcome{Navigation: NavigateLogin}, errors.Join(autherr.ErrExchangeFailed, err)
	}

	return m.finish(ctx, flowFederated, tokens)
}

// Register creates an account; the backend logs the new user in on
// success. On failure the user stays on the registration view.
func (m *Manager) Register(ctx context.Context, req backend.RegisterRequest) (Outcome, error) {
	m.recordAttempt(ctx, flowRegister)

	tokens, err := m.backend.Register(ctx, req)
	if err != nil {
		m.recordFailure(ctx, flowRegister)
		return Outcome{}, err
	}

	return m.finish(ctx, flowRegister, tokens)
}

// BeginRedirectLogin prepares a redirect-login attempt and returns the
// authorization URL to navigate to.
func (m *Manager) BeginRedirectLogin(ctx context.Context) (string, error) {
	m.recordAttempt(ctx, flowRedirect)
	return m.provider.BeginRedirectLogin(ctx, m.store)
}

// Logout discards the persisted session. It never fails the caller; a
// store error is logged and the user is treated as logged out.
func (m *Manager) Logout(ctx context.Context) error {
	if err := session.Clear(ctx, m.store); err != nil {
		slogctx.Error(ctx, "Failed to clear the session", "error", err)
	}

	return nil
}

// Authenticated reports whether a usable session is persisted.
func (m *Manager) Authenticated(ctx context.Context) bool {
	return session.IsAuthenticated(ctx, m.store)
}

// Profile fetches the authenticated user's profile from the backend.
func (m *Manager) Profile(ctx context.Context) (backend.User, error) {
	if !session.IsAuthenticated(ctx, m.store) {
		return backend.User{}, autherr.ErrNotAuthenticated
	}

	s, err := session.Load(ctx, m.store)
	if err != nil {
		return backend.User{}, err
	}

	return m.backend.CurrentUser(ctx, s.AccessToken)
}

// finish persists the session for a successful exchange and reports the
// home navigation.
func (m *Manager) finish(ctx context.Context, flow string, tokens backend.TokenResponse) (Outcome, error) {
	s := session.Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    expiryOf(tokens),
	}

	if err := session.Save(ctx, m.store, s); err != nil {
		m.recordFailure(ctx, flow)
		return Outcome{Navigation: NavigateLogin}, err
	}

	slogctx.Info(ctx, "Login succeeded", "flow", flow)

	return Outcome{Session: s, Navigation: NavigateHome}, nil
}

// expiryOf computes the session expiry: the backend-supplied lifetime when
// present, else the access token's own exp claim, else unset. The claim is
// read without signature verification; it only feeds the advisory expiry
// check, never an authorization decision.
func expiryOf(tokens backend.TokenResponse) time.Time {
	if tokens.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(tokens.ExpiresIn) * time.Second)
	}

	return unverifiedTokenExpiry(tokens.AccessToken)
}

func unverifiedTokenExpiry(raw string) time.Time {
	tok, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.HS256, jose.RS256, jose.ES256})
	if err != nil {
		return time.Time{}
	}

	var claims jwt.Claims
	if err := tok.UnsafeClaimsWithoutVerification(&claims); err != nil {
		return time.Time{}
	}

	if claims.Expiry == nil {
		return time.Time{}
	}

	return claims.Expiry.Time()
}
