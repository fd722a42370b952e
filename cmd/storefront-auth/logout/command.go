package logout

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openmall/storefront-auth/internal/cmdutils"
	"github.com/openmall/storefront-auth/internal/config"
)

func Cmd() *cobra.Command {
	return cmdutils.CobraCommand(
		"logout",
		"Log out of the storefront",
		"Remove the stored session so subsequent commands start unauthenticated.",
		run,
	)
}

func run(ctx context.Context, cfg *config.Config) error {
	manager, closeFn, err := cmdutils.BuildManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := manager.Logout(ctx); err != nil {
		return err
	}

	fmt.Println("logged out")

	return nil
}
