package login

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openmall/storefront-auth/internal/auth"
	"github.com/openmall/storefront-auth/internal/cmdutils"
	"github.com/openmall/storefront-auth/internal/config"
)

var (
	email     string
	password  string
	federated bool
)

func Cmd() *cobra.Command {
	cmd := cmdutils.CobraCommand(
		"login",
		"Log in to the storefront",
		"Log in with email and password, either directly or through the federated identity provider.",
		run,
	)

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.Flags().BoolVar(&federated, "firebase", false, "sign in at the identity provider and exchange the assertion")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	manager, closeFn, err := cmdutils.BuildManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	var outcome auth.Outcome
	if federated {
		outcome, err = manager.LoginWithFederatedAssertion(ctx, email, password)
	} else {
		outcome, err = manager.Login(ctx, email, password)
	}
	if err != nil {
		fmt.Printf("login failed -> %s\n", outcome.Navigation)
		return err
	}

	fmt.Printf("logged in -> %s\n", outcome.Navigation)

	return nil
}
