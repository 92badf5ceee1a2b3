// Package cli wires the bookrate commands.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bookrate",
		Short: "Browse a shelf of books and rate them on NEAR",
		Long: `bookrate reads a shelf contract, shows each book with its average
rating and reviewers, and submits ratings for the signed-in account.

Running bookrate without a command opens the interactive browser.`,
		SilenceUsage: true,
		RunE:         runBrowse,
	}

	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "path to a YAML config file")
	pf.String("backend", "", "wallet backend: rpc or memory")
	pf.String("contract", "", "shelf contract account id")
	pf.String("account", "", "account to sign in as")
	pf.String("log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newBrowseCmd(),
		newListCmd(),
		newRateCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}
