package register

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openmall/storefront-auth/internal/backend"
	"github.com/openmall/storefront-auth/internal/cmdutils"
	"github.com/openmall/storefront-auth/internal/config"
)

var req backend.RegisterRequest

func Cmd() *cobra.Command {
	cmd := cmdutils.CobraCommand(
		"register",
		"Create a storefront account",
		"Create a new storefront account and log in with it.",
		run,
	)

	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&req.BirthDate, "birth-date", "", "birth date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	manager, closeFn, err := cmdutils.BuildManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	outcome, err := manager.Register(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("account created -> %s\n", outcome.Navigation)

	return nil
}
