package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/bookrate/internal/model"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the shelf (non-interactive)",
		Long: `Fetch the shelf and print every book with its average rating and
reviewers. Useful for scripts and for checking a contract quickly.`,
		Args: cobra.NoArgs,
		RunE: runList,
	}
	cmd.Flags().StringP("format", "f", "text", "output format: text, json, markdown")
	return cmd
}

func runList(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "text", "json", "markdown":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	a, err := newApp(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	books, err := a.shelf.Refresh(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading shelf: %w", err)
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		return outputJSON(out, a.shelf.ContractID(), books)
	case "markdown":
		return outputMarkdown(out, books)
	default:
		return outputText(out, books)
	}
}

func outputText(w io.Writer, books []model.Book) error {
	if len(books) == 0 {
		fmt.Fprintln(w, "The shelf is empty.")
		return nil
	}

	title := color.New(color.FgHiWhite, color.Bold)
	dim := color.New(color.FgHiBlack)
	name := color.New(color.FgCyan)

	for _, b := range books {
		title.Fprintf(w, "%d. %s\n", b.ID, b.Title)
		dim.Fprintf(w, "   Average Rating: %s  Reviewers: %d\n", b.AverageRating, len(b.Reviewers))
		for _, r := range b.Reviewers {
			fmt.Fprintf(w, "     %s rated %d stars\n", name.Sprint(r.Name), r.Rating)
		}
	}
	return nil
}

func outputJSON(w io.Writer, contractID string, books []model.Book) error {
	type jsonOutput struct {
		Contract string       `json:"contract"`
		Total    int          `json:"total"`
		Books    []model.Book `json:"books"`
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonOutput{Contract: contractID, Total: len(books), Books: books})
}

func outputMarkdown(w io.Writer, books []model.Book) error {
	fmt.Fprintf(w, "## Shelf\n\n")
	fmt.Fprintf(w, "**%d book(s)**\n\n", len(books))

	if len(books) == 0 {
		fmt.Fprintln(w, "The shelf is empty.")
		return nil
	}

	fmt.Fprintln(w, "| # | Title | Average | Reviewers |")
	fmt.Fprintln(w, "|---|-------|---------|-----------|")
	for _, b := range books {
		var reviewers []string
		for _, r := range b.Reviewers {
			reviewers = append(reviewers, fmt.Sprintf("%s (%d)", r.Name, r.Rating))
		}
		fmt.Fprintf(w, "| %d | %s | %s | %s |\n", b.ID, b.Title, b.AverageRating, strings.Join(reviewers, ", "))
	}
	return nil
}
