// Package cmdutils carries the shared command plumbing: config loading,
// logger setup and wiring of the authentication manager.
package cmdutils

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/valkey-io/valkey-go"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openmall/storefront-auth/internal/auth"
	"github.com/openmall/storefront-auth/internal/backend"
	"github.com/openmall/storefront-auth/internal/config"
	"github.com/openmall/storefront-auth/internal/credstore"
	credmemory "github.com/openmall/storefront-auth/internal/credstore/memory"
	credsqlite "github.com/openmall/storefront-auth/internal/credstore/sqlite"
	credvalkey "github.com/openmall/storefront-auth/internal/credstore/valkey"
	"github.com/openmall/storefront-auth/internal/idp"
	"github.com/openmall/storefront-auth/internal/idp/firebase"
	"github.com/openmall/storefront-auth/internal/provider"
)

// CobraCommand wraps a business function with config loading and logger
// initialisation.
func CobraCommand(use, short, long string, businessFunc func(context.Context, *config.Config) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if err := InitLogger(cfg); err != nil {
				return fmt.Errorf("initialising the logger: %w", err)
			}

			if err := businessFunc(cmd.Context(), cfg); err != nil {
				return oops.In(use).Wrapf(err, "running the %s command", use)
			}

			return nil
		},
	}
}

func loadConfig() (*config.Config, error) {
	home, _ := os.UserHomeDir()

	return config.Load(
		"/etc/storefront-auth/config.yaml",
		home+"/.storefront-auth/config.yaml",
		"config.yaml",
	)
}

// InitLogger installs the default slog logger per config.
func InitLogger(cfg *config.Config) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logger.Level)); err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Logger.Format) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(slogctx.NewHandler(handler, nil)))

	return nil
}

// BuildManager wires the credential store, backend client, identity
// provider and redirect adapter into an auth manager. The returned close
// function releases the store.
func BuildManager(ctx context.Context, cfg *config.Config) (*auth.Manager, func(), error) {
	store, closeFn, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialising the credential store: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.Backend.Timeout}
	backendClient := backend.NewClient(cfg.Backend.BaseURL, httpClient)

	var idpProvider idp.Provider
	if cfg.Firebase.APIKey != "" {
		idpProvider = firebase.New(cfg.Firebase.APIKey, cfg.Firebase.Endpoint, httpClient)
	}

	adapter := provider.New(provider.Config{
		ClientID:     cfg.Provider.ClientID,
		RedirectURI:  cfg.Provider.RedirectURI,
		AuthorizeURL: cfg.Provider.AuthorizeURL,
		StateTTL:     cfg.Provider.StateTTL,
	})

	return auth.NewManager(store, backendClient, idpProvider, adapter), closeFn, nil
}

func buildStore(ctx context.Context, cfg *config.Config) (credstore.Store, func(), error) {
	switch cfg.Store.Driver {
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.Store.SQLite.Path), 0o700); err != nil {
			return nil, nil, fmt.Errorf("creating store directory: %w", err)
		}

		store, err := credsqlite.Open(ctx, cfg.Store.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}

		closeFn := func() {
			if err := store.Close(ctx); err != nil {
				slogctx.Error(ctx, "failed to close the credential store", "error", err)
			}
		}

		return store, closeFn, nil

	case "memory":
		return credmemory.New(), func() {}, nil

	case "valkey":
		client, err := valkey.NewClient(valkey.ClientOption{
			InitAddress: []string{cfg.Store.ValKey.Address},
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to valkey: %w", err)
		}

		return credvalkey.New(client, cfg.Store.ValKey.Prefix), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver: %q", cfg.Store.Driver)
	}
}
