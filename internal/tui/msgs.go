package tui

import (
	"github.com/sprite-ai/bookrate/internal/model"
	"github.com/sprite-ai/bookrate/internal/rating"
)

// Bubble Tea message types

// booksLoadedMsg is sent when a shelf refresh settles.
type booksLoadedMsg struct {
	books []model.Book
	err   error
}

// submittedMsg is sent when a submission and its refresh have settled.
type submittedMsg struct {
	outcome rating.Outcome
	err     error
}

// sessionMsg is sent after signing in or out.
type sessionMsg struct {
	signedIn  bool
	accountID string
	err       error
}
