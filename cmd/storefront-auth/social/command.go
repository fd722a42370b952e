package social

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openmall/storefront-auth/internal/auth"
	"github.com/openmall/storefront-auth/internal/cmdutils"
	"github.com/openmall/storefront-auth/internal/config"
)

var (
	callbackURL   string
	callbackCode  string
	callbackState string
	callbackError string
)

func Cmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "social",
		Short: "Social login through the identity provider",
	}

	loginCmd := cmdutils.CobraCommand(
		"login",
		"Start a social login",
		"Generate an anti-forgery state, store it, and print the provider authorize URL to open in a browser.",
		runLogin,
	)

	callbackCmd := cmdutils.CobraCommand(
		"callback",
		"Complete a social login",
		"Process the redirect the provider sent back, either as the full callback URL or as individual parameters.",
		runCallback,
	)
	callbackCmd.Flags().StringVar(&callbackURL, "url", "", "full callback URL the provider redirected to")
	callbackCmd.Flags().StringVar(&callbackCode, "code", "", "authorization code from the callback")
	callbackCmd.Flags().StringVar(&callbackState, "state", "", "state parameter from the callback")
	callbackCmd.Flags().StringVar(&callbackError, "error", "", "error parameter from the callback")

	cmd.AddCommand(loginCmd, callbackCmd)

	return cmd
}

func runLogin(ctx context.Context, cfg *config.Config) error {
	manager, closeFn, err := cmdutils.BuildManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	authorizeURL, err := manager.BeginRedirectLogin(ctx)
	if err != nil {
		return err
	}

	fmt.Println("open this URL in a browser to continue:")
	fmt.Println(authorizeURL)

	return nil
}

func runCallback(ctx context.Context, cfg *config.Config) error {
	params := auth.CallbackParams{
		Code:  callbackCode,
		State: callbackState,
		Error: callbackError,
	}
	if callbackURL != "" {
		var err error
		params, err = auth.ParseCallbackURL(callbackURL)
		if err != nil {
			return err
		}
	}

	manager, closeFn, err := cmdutils.BuildManager(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	outcome, err := manager.HandleCallback(ctx, params)
	if err != nil {
		fmt.Printf("social login failed -> %s\n", outcome.Navigation)
		return err
	}
	if outcome.Navigation == "" {
		fmt.Println("nothing to do")
		return nil
	}

	fmt.Printf("logged in -> %s\n", outcome.Navigation)

	return nil
}
