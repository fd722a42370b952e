package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	slogctx "github.com/veqryn/slog-context"

	"github.com/openmall/storefront-auth/internal/cmdutils"
	"github.com/openmall/storefront-auth/internal/config"
	credsqlite "github.com/openmall/storefront-auth/internal/credstore/sqlite"
)

func Cmd() *cobra.Command {
	return cmdutils.CobraCommand(
		"migrate",
		"Apply credential store migrations",
		"Create the SQLite credential store if necessary and bring its schema up to date.",
		run,
	)
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.Store.Driver != "sqlite" {
		return fmt.Errorf("store driver %q has no migrations", cfg.Store.Driver)
	}

	path := cfg.Store.SQLite.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}

	store, err := credsqlite.Open(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close(ctx) }()

	slogctx.Info(ctx, "credential store migrated", "path", path)

	return nil
}
