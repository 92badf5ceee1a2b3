package tui

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sprite-ai/bookrate/internal/model"
	"github.com/sprite-ai/bookrate/internal/rating"
)

type fakeSession struct {
	signedIn bool
	account  string
}

func (s *fakeSession) SignIn(context.Context) error {
	s.signedIn = true
	s.account = "erin.testnet"
	return nil
}

func (s *fakeSession) SignOut(context.Context) error {
	s.signedIn = false
	s.account = ""
	return nil
}

func (s *fakeSession) SignedIn() bool    { return s.signedIn }
func (s *fakeSession) AccountID() string { return s.account }

type fakeShelf struct {
	books []model.Book
	err   error
	calls int
}

func (s *fakeShelf) Refresh(context.Context) ([]model.Book, error) {
	s.calls++
	return s.books, s.err
}

type submission struct {
	id     int
	rating string
}

type fakeFlow struct {
	out   rating.Outcome
	err   error
	calls []submission
}

func (f *fakeFlow) Submit(_ context.Context, id int, r string) (rating.Outcome, error) {
	f.calls = append(f.calls, submission{id, r})
	return f.out, f.err
}

func testBooks() []model.Book {
	return []model.Book{
		{ID: 1, Title: "Dune", AverageRating: "4", Reviewers: []model.Reviewer{{Name: "Alice", Rating: 5}}},
		{ID: 2, Title: "Emma", AverageRating: "0", Reviewers: []model.Reviewer{}},
	}
}

func setupModel(t *testing.T, session *fakeSession, flow *fakeFlow) Model {
	t.Helper()
	m := New(session, &fakeShelf{books: testBooks()}, flow)
	// Simulate window size
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	newM, _ = newM.Update(booksLoadedMsg{books: testBooks()})
	return newM.(Model)
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var newM tea.Model
		newM, cmd = m.Update(msg)
		m = newM.(Model)
	}
	return m, cmd
}

// runCmd executes a command and flattens batches, skipping spinner ticks.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	switch msg.(type) {
	case booksLoadedMsg, submittedMsg, sessionMsg, tea.QuitMsg:
		return []tea.Msg{msg}
	}
	return nil
}

func TestModelInit(t *testing.T) {
	shelf := &fakeShelf{books: testBooks()}
	m := New(&fakeSession{}, shelf, &fakeFlow{})

	if !m.loading {
		t.Error("expected the model to start loading")
	}
	if !strings.Contains(m.View(), "Fetching Data...") {
		t.Error("expected loading indicator before the first load")
	}

	msgs := runCmd(m.Init())
	if len(msgs) != 1 {
		t.Fatalf("expected one message from Init, got %d", len(msgs))
	}
	if shelf.calls != 1 {
		t.Errorf("expected one shelf refresh, got %d", shelf.calls)
	}

	newM, _ := m.Update(msgs[0])
	m = newM.(Model)
	if m.loading {
		t.Error("expected loading to end once the shelf arrives")
	}
	if len(m.books) != 2 {
		t.Errorf("expected 2 books, got %d", len(m.books))
	}
}

func TestViewListsBooks(t *testing.T) {
	m := setupModel(t, &fakeSession{}, &fakeFlow{})
	view := m.View()

	for _, want := range []string{
		"Book Rating DApp",
		"1. Dune",
		"2. Emma",
		"Average Rating: 4",
		"Reviewers: 1",
		"Reviewers: 0",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
	if strings.Contains(view, "Fetching Data...") {
		t.Error("loading indicator should be gone")
	}
}

func TestSelectShowsReviewers(t *testing.T) {
	m := setupModel(t, &fakeSession{}, &fakeFlow{})

	m, _ = press(t, m, "enter")
	if m.selected != 1 {
		t.Fatalf("expected book 1 selected, got %d", m.selected)
	}
	if !strings.Contains(m.View(), "Alice rated 5 stars") {
		t.Error("expected reviewer line for Dune")
	}

	// Selecting again keeps it open
	m, _ = press(t, m, "enter")
	if m.selected != 1 {
		t.Errorf("expected book 1 to stay selected, got %d", m.selected)
	}

	m, _ = press(t, m, "down", "enter")
	if m.selected != 2 {
		t.Fatalf("expected book 2 selected, got %d", m.selected)
	}
	view := m.View()
	if !strings.Contains(view, "No reviews for Emma") {
		t.Error("expected empty reviews message for Emma")
	}
	if strings.Contains(view, "Alice rated") {
		t.Error("only one book should be expanded")
	}
}

func TestPendingRating(t *testing.T) {
	m := setupModel(t, &fakeSession{}, &fakeFlow{})
	m, _ = press(t, m, "enter")

	if got := m.stars(1); got != model.DefaultRating {
		t.Errorf("expected default rating %d, got %d", model.DefaultRating, got)
	}
	if !strings.Contains(m.View(), "3 stars") {
		t.Error("expected default star strip")
	}

	m, _ = press(t, m, "l", "l", "l")
	if got := m.stars(1); got != 5 {
		t.Errorf("expected rating capped at 5, got %d", got)
	}

	m, _ = press(t, m, "h", "h", "h", "h", "h", "h")
	if got := m.stars(1); got != 1 {
		t.Errorf("expected rating floored at 1, got %d", got)
	}
	if !strings.Contains(m.View(), "1 star") {
		t.Error("expected singular star label")
	}

	// Other books keep their own pending value
	if got := m.stars(2); got != model.DefaultRating {
		t.Errorf("expected book 2 untouched, got %d", got)
	}
}

func TestRateRequiresSignIn(t *testing.T) {
	flow := &fakeFlow{}
	m := setupModel(t, &fakeSession{}, flow)

	m, cmd := press(t, m, "r")
	if cmd != nil {
		t.Error("expected no command when signed out")
	}
	if m.loading {
		t.Error("expected no loading when signed out")
	}
	if len(flow.calls) != 0 {
		t.Errorf("expected no submissions, got %d", len(flow.calls))
	}
	if strings.Contains(m.View(), "Signed In as") {
		t.Error("signed-out view should not show an account")
	}
}

func TestRateSubmitsAndShowsResult(t *testing.T) {
	refreshed := testBooks()
	refreshed[1].AverageRating = "4"
	refreshed[1].Reviewers = []model.Reviewer{{Name: "erin.testnet", Rating: 4}}

	flow := &fakeFlow{out: rating.Outcome{
		Result: model.Success(json.RawMessage(`{"id":2,"rating":"4"}`)),
		Books:  refreshed,
	}}
	m := setupModel(t, &fakeSession{signedIn: true, account: "erin.testnet"}, flow)

	if !strings.Contains(m.View(), "Signed In as erin.testnet") {
		t.Error("expected account line")
	}

	m, _ = press(t, m, "down", "l")
	m, cmd := press(t, m, "r")
	if !m.loading {
		t.Error("expected loading while submitting")
	}
	if m.selected != 2 {
		t.Errorf("expected rated book to be selected, got %d", m.selected)
	}

	// A second submission is ignored while loading
	_, again := press(t, m, "r")
	if again != nil {
		t.Error("expected rate to be ignored while loading")
	}

	msgs := runCmd(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected one submission message, got %d", len(msgs))
	}
	if len(flow.calls) != 1 || flow.calls[0] != (submission{2, "4"}) {
		t.Fatalf("unexpected submissions %+v", flow.calls)
	}

	newM, _ := m.Update(msgs[0])
	m = newM.(Model)
	if m.loading {
		t.Error("expected loading to end")
	}
	if m.result == nil || m.result.IsError() {
		t.Fatalf("expected success result, got %+v", m.result)
	}
	view := m.View()
	if !strings.Contains(view, `"rating": "4"`) {
		t.Error("expected the pretty-printed payload in the view")
	}
	if !strings.Contains(view, "erin.testnet rated 4 stars") {
		t.Error("expected the refreshed reviewers")
	}
}

func TestRateFailureShowsFixedMessage(t *testing.T) {
	flow := &fakeFlow{out: rating.Outcome{
		Result: model.Failure(model.SubmissionFailedMessage),
		Books:  testBooks(),
	}}
	m := setupModel(t, &fakeSession{signedIn: true, account: "erin.testnet"}, flow)

	_, cmd := press(t, m, "r")
	newM, _ := m.Update(runCmd(cmd)[0])
	m = newM.(Model)

	if !m.result.IsError() {
		t.Fatal("expected an error result")
	}
	if !strings.Contains(m.View(), `"Something went wrong. Check browser console."`) {
		t.Error("expected the fixed failure message")
	}
}

func TestRefreshFailureNotice(t *testing.T) {
	flow := &fakeFlow{out: rating.Outcome{
		Result:     model.Success(json.RawMessage(`"ok"`)),
		RefreshErr: errors.New("node unreachable"),
	}}
	m := setupModel(t, &fakeSession{signedIn: true, account: "erin.testnet"}, flow)

	_, cmd := press(t, m, "r")
	newM, _ := m.Update(runCmd(cmd)[0])
	m = newM.(Model)

	if m.notice == nil || !m.notice.IsError() {
		t.Fatal("expected a refresh failure notice")
	}
	if len(m.books) != 2 {
		t.Errorf("expected previous books kept, got %d", len(m.books))
	}
	if !strings.Contains(m.View(), "Could not load the shelf") {
		t.Error("expected notice in the view")
	}
}

func TestInitialLoadFailure(t *testing.T) {
	m := New(&fakeSession{}, &fakeShelf{}, &fakeFlow{})
	newM, _ := m.Update(booksLoadedMsg{err: errors.New("boom")})
	m = newM.(Model)

	if m.loading {
		t.Error("expected loading to end on failure")
	}
	if !strings.Contains(m.View(), "Could not load the shelf") {
		t.Error("expected notice in the view")
	}
}

func TestSignInAndOut(t *testing.T) {
	session := &fakeSession{}
	m := setupModel(t, session, &fakeFlow{})

	_, cmd := press(t, m, "i")
	msgs := runCmd(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected a session message, got %d", len(msgs))
	}
	newM, _ := m.Update(msgs[0])
	m = newM.(Model)
	if !strings.Contains(m.View(), "Signed In as erin.testnet") {
		t.Error("expected account after signing in")
	}

	_, cmd = press(t, m, "o")
	newM, _ = m.Update(runCmd(cmd)[0])
	m = newM.(Model)
	if m.signedIn {
		t.Error("expected signed out")
	}
}

func TestBooksShrinkClampsCursor(t *testing.T) {
	m := setupModel(t, &fakeSession{}, &fakeFlow{})
	m, _ = press(t, m, "down", "enter", "l")

	newM, _ := m.Update(booksLoadedMsg{books: testBooks()[:1]})
	m = newM.(Model)

	if m.cursor != 0 {
		t.Errorf("expected cursor 0, got %d", m.cursor)
	}
	if m.selected != 0 {
		t.Errorf("expected selection cleared, got %d", m.selected)
	}
	if _, ok := m.pending[2]; ok {
		t.Error("expected pending rating for a missing book to be dropped")
	}
}

func TestHelpToggle(t *testing.T) {
	m := setupModel(t, &fakeSession{}, &fakeFlow{})

	m, _ = press(t, m, "?")
	if !m.showHelp {
		t.Error("expected help to be shown")
	}
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("expected help view")
	}

	m, _ = press(t, m, "?")
	if m.showHelp {
		t.Error("expected help to be hidden")
	}
}

func TestQuit(t *testing.T) {
	m := setupModel(t, &fakeSession{}, &fakeFlow{})
	_, cmd := press(t, m, "q")
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestStarLabel(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "1 star"},
		{2, "2 stars"},
		{5, "5 stars"},
	}
	for _, tt := range tests {
		if got := starLabel(tt.n); got != tt.want {
			t.Errorf("starLabel(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestReviewerLinesAlwaysPlural(t *testing.T) {
	b := model.Book{ID: 3, Title: "Neuromancer", Reviewers: []model.Reviewer{
		{Name: "Bob", Rating: 1},
		{Name: "Carol", Rating: 2},
	}}

	got := renderReviewers(b)
	for _, want := range []string{"Bob rated 1 stars", "Carol rated 2 stars"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
}
