package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/bookrate/internal/model"
	"github.com/sprite-ai/bookrate/internal/payload"
)

// renderBookRow renders the one-line summary of a book.
func renderBookRow(b model.Book, width int, isCursor bool) string {
	title := fmt.Sprintf("%d. %s", b.ID, b.Title)
	details := fmt.Sprintf("Average Rating: %s  Reviewers: %d", b.AverageRating, len(b.Reviewers))

	maxTitle := width - lipgloss.Width(details) - 4
	if maxTitle > 0 {
		title = truncate(title, maxTitle)
	}

	marker := "  "
	style := bookStyle
	if isCursor {
		marker = "> "
		style = bookCursorStyle
	}

	row := style.Render(marker+title) + "  " + bookDetailStyle.Render(details)
	return row
}

// renderReviewers lists who rated a book, or says nobody has.
func renderReviewers(b model.Book) string {
	if !b.HasReviews() {
		return noReviewsStyle.Render("No reviews for " + b.Title)
	}

	lines := make([]string, 0, len(b.Reviewers))
	for _, r := range b.Reviewers {
		lines = append(lines, reviewerNameStyle.Render(r.Name)+" rated "+reviewStars(r.Rating))
	}
	return strings.Join(lines, "\n")
}

// renderStars draws the pending rating as filled and empty stars.
func renderStars(n int) string {
	n = model.ClampRating(n)
	filled := starStyle.Render(strings.Repeat("★", n))
	empty := starEmptyStyle.Render(strings.Repeat("☆", model.MaxRating-n))
	return filled + empty + " " + starLabel(n)
}

// reviewStars labels a submitted review. Only the pending strip uses the
// singular form.
func reviewStars(n int) string {
	return fmt.Sprintf("%d stars", n)
}

func starLabel(n int) string {
	if n == 1 {
		return "1 star"
	}
	return fmt.Sprintf("%d stars", n)
}

// renderResult shows a submission result. Success payloads are syntax
// highlighted; errors are shown in red.
func renderResult(r model.Result) string {
	if r.IsError() {
		return errorStyle.Render(r.Text())
	}

	lines := payload.Highlight(r.Message)
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = renderHighlightedContent(line)
	}
	return successStyle.Render("✓ ") + strings.Join(out, "\n  ")
}

// renderHighlightedContent renders a payload line with its syntax colors.
func renderHighlightedContent(line payload.Line) string {
	var b strings.Builder
	for _, tok := range line.Tokens {
		if tok.Color != "" {
			b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(tok.Color)).Render(tok.Text))
		} else {
			b.WriteString(successStyle.Render(tok.Text))
		}
	}
	return b.String()
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > max {
		return string(r[:max-1]) + "…"
	}
	return s
}
