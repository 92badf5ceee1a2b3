package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/bookrate/internal/payload"
	"github.com/sprite-ai/bookrate/internal/rating"
)

var errNotRecorded = errors.New("rating was not recorded")

func newRateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rate <book-id> <rating>",
		Short: "Rate a book as the signed-in account",
		Long: `Submit a rating for a book and wait for the transaction to finish.
The rating is rounded down to a whole number of stars; the contract decides
whether it is in range. The shelf is reloaded afterwards either way.

Examples:
  bookrate rate 2 4
  bookrate rate 1 5 --account erin.testnet`,
		Args: cobra.ExactArgs(2),
		RunE: runRate,
	}
}

func runRate(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil || id < 1 {
		return fmt.Errorf("invalid book id %q", args[0])
	}

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	out, err := a.flow.Submit(cmd.Context(), id, args[1])
	if errors.Is(err, rating.ErrNotSignedIn) {
		return fmt.Errorf("not signed in: run `bookrate login` first")
	}
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if out.Result.IsError() {
		color.New(color.FgRed, color.Bold).Fprintln(w, out.Result.Text())
	} else {
		color.New(color.FgGreen, color.Bold).Fprintln(w, payload.Pretty(out.Result.Message))
	}

	if notice, ok := out.RefreshResult(); ok {
		color.New(color.FgRed).Fprintln(cmd.ErrOrStderr(), notice.Text())
	} else if b, ok := a.shelf.Book(id); ok {
		fmt.Fprintf(w, "%d. %s  Average Rating: %s  Reviewers: %d\n", b.ID, b.Title, b.AverageRating, len(b.Reviewers))
	}

	if out.Result.IsError() {
		return errNotRecorded
	}
	return nil
}
