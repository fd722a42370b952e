package whoami

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openmall/storefront-auth/internal/cmdutils"
	"github.com/openmall/storefront-auth/internal/config"
)

func Cmd() *cobra.Command {
	return cmdutils.CobraCommand(
		"whoami",
		"Show the logged-in user",
		"Fetch and print the profile of the currently authenticated user.",
		run,
	)
}

func run(ctx context.Context, cfg *config.Config) error {
	manager, closeFn, err := cmdutils.BuildManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	user, err := manager.Profile(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s <%s>\n", user.Name, user.Email)

	return nil
}
