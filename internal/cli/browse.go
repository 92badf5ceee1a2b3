package cli

import (
	"github.com/spf13/cobra"

	"github.com/sprite-ai/bookrate/internal/tui"
)

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive book browser",
		Long: `Open a TUI listing every book on the shelf. Select a book to see who
rated it, pick one to five stars and press r to submit a rating.`,
		Args: cobra.NoArgs,
		RunE: runBrowse,
	}
}

func runBrowse(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	return tui.Run(cmd.Context(), a.wallet, a.shelf, a.flow, tui.WithLogger(a.log.Named("tui")))
}
