package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sprite-ai/bookrate/internal/wallet"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in as the configured account",
		Long: `Sign in as the account given by --account or account_id and save the
session so later commands stay signed in.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.wallet.SignIn(cmd.Context()); err != nil {
				if errors.Is(err, wallet.ErrNoAccount) {
					return fmt.Errorf("no account configured: pass --account or set account_id")
				}
				return err
			}
			a.log.Info("signed in", zap.String("account", a.wallet.AccountID()))
			printAccount(cmd, a.wallet)
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.wallet.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.close()

			printAccount(cmd, a.wallet)
			return nil
		},
	}
}

func printAccount(cmd *cobra.Command, w wallet.Wallet) {
	out := cmd.OutOrStdout()
	if !w.SignedIn() {
		fmt.Fprintln(out, "Not signed in.")
		return
	}
	fmt.Fprintf(out, "Signed In as %s\n", color.New(color.Bold).Sprint(w.AccountID()))
}
