package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openmall/storefront-auth/cmd/storefront-auth/login"
	"github.com/openmall/storefront-auth/cmd/storefront-auth/logout"
	"github.com/openmall/storefront-auth/cmd/storefront-auth/migrate"
	"github.com/openmall/storefront-auth/cmd/storefront-auth/register"
	"github.com/openmall/storefront-auth/cmd/storefront-auth/social"
	"github.com/openmall/storefront-auth/cmd/storefront-auth/whoami"
)

// BuildInfo will be set by the build system
var BuildInfo = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Storefront Auth Version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		slog.InfoContext(cmd.Context(), BuildInfo)
		return nil
	},
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storefront-auth",
		Short: "Storefront Auth",
		Long:  "Storefront authentication client: password, federated and redirect login flows against the storefront backend.",
	}

	cmd.AddCommand(
		versionCmd,
		login.Cmd(),
		register.Cmd(),
		social.Cmd(),
		whoami.Cmd(),
		logout.Cmd(),
		migrate.Cmd(),
	)

	return cmd
}

func execute() error {
	ctx, cancelOnSignal := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer cancelOnSignal()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		slogctx.Error(ctx, "command failed", "error", err)
		_, _ = fmt.Fprintln(os.Stderr, err)

		return err
	}

	return nil
}

func main() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}
