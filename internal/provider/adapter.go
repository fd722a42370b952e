// Package provider builds identity-provider authorization redirects for the
// storefront's external OAuth login.
package provider

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openmall/storefront-auth/internal/credstore"
)

const (
	// DefaultAuthorizeURL is Naver's authorization endpoint.
	DefaultAuthorizeURL = "https://nid.naver.com/oauth2.0/authorize"

	// DefaultStateTTL bounds how long a redirect-login attempt stays
	// redeemable. One attempt at most is outstanding at any time.
	DefaultStateTTL = 10 * time.Minute
)

type Config struct {
	ClientID     string
	RedirectURI  string
	AuthorizeURL string
	StateTTL     time.Duration
}

// Adapter prepares redirect logins for one configured provider. The code
// exchange itself happens on the backend, so the adapter only needs the
// authorization half of the OAuth configuration.
type Adapter struct {
	cfg    Config
	states StateSource
}

func New(cfg Config) *Adapter {
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = DefaultAuthorizeURL
	}
	if cfg.StateTTL <= 0 {
		cfg.StateTTL = DefaultStateTTL
	}

	return &Adapter{cfg: cfg}
}

// BeginRedirectLogin generates a fresh anti-forgery state, persists it as
// the single outstanding attempt (overwriting any prior value) and returns
// the authorization URL the caller must navigate to. Success is observed
// only via the eventual callback.
func (a *Adapter) BeginRedirectLogin(ctx context.Context, store credstore.Store) (string, error) {
	state := a.states.State()

	if err := store.PutTransient(ctx, credstore.KeyOAuthState, state, a.cfg.StateTTL); err != nil {
		return "", err
	}

	conf := oauth2.Config{
		ClientID:    a.cfg.ClientID,
		RedirectURL: a.cfg.RedirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL: a.cfg.AuthorizeURL,
		},
	}

	authURL := conf.AuthCodeURL(state)
	slogctx.Debug(ctx, "Prepared redirect login", "authorize_url", a.cfg.AuthorizeURL)

	return authURL, nil
}
