// Package tui implements the Bubble Tea terminal user interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sprite-ai/bookrate/internal/model"
	"github.com/sprite-ai/bookrate/internal/rating"
)

// Session is the part of the wallet the interface signs in and out with.
type Session interface {
	SignIn(ctx context.Context) error
	SignOut(ctx context.Context) error
	SignedIn() bool
	AccountID() string
}

// Shelf reloads the book list.
type Shelf interface {
	Refresh(ctx context.Context) ([]model.Book, error)
}

// Submitter sends a rating and refreshes the shelf afterwards.
type Submitter interface {
	Submit(ctx context.Context, id int, rating string) (rating.Outcome, error)
}

// Model is the top-level Bubble Tea model for bookrate.
type Model struct {
	ctx     context.Context
	session Session
	shelf   Shelf
	flow    Submitter
	log     *zap.Logger

	// UI state
	width  int
	height int

	books    []model.Book
	cursor   int         // index of the highlighted row
	selected int         // id of the expanded book, 0 when none
	pending  map[int]int // book id -> stars picked but not yet sent

	loading  bool
	result   *model.Result
	notice   *model.Result
	signedIn bool
	account  string

	spinner spinner.Model

	// Help
	showHelp bool
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger that receives failures the screen only
// summarises.
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.log = l
		}
	}
}

// WithContext sets the context commands run under.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// New creates a TUI model. The shelf is loaded by Init.
func New(session Session, shelf Shelf, flow Submitter, opts ...Option) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = loadingStyle

	m := Model{
		ctx:      context.Background(),
		session:  session,
		shelf:    shelf,
		flow:     flow,
		log:      zap.NewNop(),
		books:    []model.Book{},
		pending:  make(map[int]int),
		loading:  true,
		signedIn: session.SignedIn(),
		account:  session.AccountID(),
		spinner:  sp,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.loadBooks())
}

func (m Model) loadBooks() tea.Cmd {
	ctx, shelf := m.ctx, m.shelf
	return func() tea.Msg {
		books, err := shelf.Refresh(ctx)
		return booksLoadedMsg{books: books, err: err}
	}
}

func (m Model) submit(id, stars int) tea.Cmd {
	ctx, flow := m.ctx, m.flow
	return func() tea.Msg {
		out, err := flow.Submit(ctx, id, strconv.Itoa(stars))
		return submittedMsg{outcome: out, err: err}
	}
}

func (m Model) signIn() tea.Cmd {
	ctx, s := m.ctx, m.session
	return func() tea.Msg {
		err := s.SignIn(ctx)
		return sessionMsg{signedIn: s.SignedIn(), accountID: s.AccountID(), err: err}
	}
}

func (m Model) signOut() tea.Cmd {
	ctx, s := m.ctx, m.session
	return func() tea.Msg {
		err := s.SignOut(ctx)
		return sessionMsg{signedIn: s.SignedIn(), accountID: s.AccountID(), err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case booksLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.log.Error("loading shelf failed", zap.Error(msg.err))
			failed := model.Failure(model.RefreshFailedMessage)
			m.notice = &failed
			return m, nil
		}
		m.setBooks(msg.books)
		return m, nil

	case submittedMsg:
		m.loading = false
		if msg.err != nil {
			m.log.Warn("rating not submitted", zap.Error(msg.err))
			failed := model.Failure(model.SubmissionFailedMessage)
			if errors.Is(msg.err, rating.ErrNotSignedIn) {
				failed = model.Failure("Sign in to rate books.")
			}
			m.result = &failed
			return m, nil
		}
		res := msg.outcome.Result
		m.result = &res
		if notice, ok := msg.outcome.RefreshResult(); ok {
			m.notice = &notice
		} else {
			m.setBooks(msg.outcome.Books)
		}
		return m, nil

	case sessionMsg:
		if msg.err != nil {
			m.log.Error("session change failed", zap.Error(msg.err))
		}
		m.signedIn = msg.signedIn
		m.account = msg.accountID
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.books)-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Select):
		if b, ok := m.current(); ok {
			m.selected = b.ID
		}

	case key.Matches(msg, keys.Less):
		if b, ok := m.current(); ok {
			m.pending[b.ID] = model.ClampRating(m.stars(b.ID) - 1)
		}

	case key.Matches(msg, keys.More):
		if b, ok := m.current(); ok {
			m.pending[b.ID] = model.ClampRating(m.stars(b.ID) + 1)
		}

	case key.Matches(msg, keys.Rate):
		b, ok := m.current()
		if !ok || !m.signedIn || m.loading {
			return m, nil
		}
		m.selected = b.ID
		m.loading = true
		m.result = nil
		m.notice = nil
		return m, tea.Batch(m.spinner.Tick, m.submit(b.ID, m.stars(b.ID)))

	case key.Matches(msg, keys.Refresh):
		if m.loading {
			return m, nil
		}
		m.loading = true
		m.notice = nil
		return m, tea.Batch(m.spinner.Tick, m.loadBooks())

	case key.Matches(msg, keys.SignIn):
		if !m.signedIn {
			return m, m.signIn()
		}

	case key.Matches(msg, keys.SignOut):
		if m.signedIn {
			return m, m.signOut()
		}
	}

	return m, nil
}

// setBooks replaces the list and keeps the cursor and selection on books
// that still exist.
func (m *Model) setBooks(books []model.Book) {
	if books == nil {
		books = []model.Book{}
	}
	m.books = books
	if m.cursor >= len(books) {
		m.cursor = max(len(books)-1, 0)
	}
	ids := make(map[int]bool, len(books))
	for _, b := range books {
		ids[b.ID] = true
	}
	if !ids[m.selected] {
		m.selected = 0
	}
	for id := range m.pending {
		if !ids[id] {
			delete(m.pending, id)
		}
	}
}

func (m Model) current() (model.Book, bool) {
	if m.cursor < 0 || m.cursor >= len(m.books) {
		return model.Book{}, false
	}
	return m.books[m.cursor], true
}

// stars is the pending rating for a book, DefaultRating until changed.
func (m Model) stars(id int) int {
	if n, ok := m.pending[id]; ok {
		return n
	}
	return model.DefaultRating
}

// View implements tea.Model.
func (m Model) View() string {
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Book Rating DApp"))
	b.WriteByte('\n')

	if m.result != nil {
		b.WriteString(renderResult(*m.result))
		b.WriteByte('\n')
	}
	if m.notice != nil {
		b.WriteString(renderResult(*m.notice))
		b.WriteByte('\n')
	}
	if m.loading {
		b.WriteString(m.spinner.View() + loadingStyle.Render("Fetching Data..."))
		b.WriteByte('\n')
	}
	b.WriteString(m.renderAccount())
	b.WriteString("\n\n")

	b.WriteString(m.renderShelf())
	b.WriteByte('\n')
	b.WriteString(m.renderStatusBar())

	return b.String()
}

func (m Model) renderAccount() string {
	if !m.signedIn {
		return helpBarStyle.Render("Not signed in  ") + helpKeyStyle.Render("i") + helpBarStyle.Render(" sign in")
	}
	return "Signed In as " + accountStyle.Render(m.account) +
		helpBarStyle.Render("  ") + helpKeyStyle.Render("o") + helpBarStyle.Render(" sign out")
}

func (m Model) renderShelf() string {
	if len(m.books) == 0 {
		if m.loading {
			return ""
		}
		return noReviewsStyle.Render("The shelf is empty.")
	}

	width := m.width - 4 // borders + padding
	rows := make([]string, 0, len(m.books))
	for i, book := range m.books {
		row := renderBookRow(book, width, i == m.cursor)
		if book.ID == m.selected {
			row = lipgloss.JoinVertical(lipgloss.Left, row, m.renderPanel(book))
		}
		rows = append(rows, row)
	}
	return shelfStyle.Render(strings.Join(rows, "\n"))
}

func (m Model) renderPanel(book model.Book) string {
	var b strings.Builder
	b.WriteString(renderReviewers(book))
	b.WriteString("\n\n")
	b.WriteString(renderStars(m.stars(book.ID)))
	if m.signedIn {
		b.WriteString("  ")
		if m.loading {
			b.WriteString(rateButtonBusyStyle.Render("Rate"))
		} else {
			b.WriteString(rateButtonStyle.Render("Rate"))
		}
	}
	return panelStyle.Render(b.String())
}

func (m Model) renderStatusBar() string {
	left := fmt.Sprintf(" Book %d/%d", min(m.cursor+1, len(m.books)), len(m.books))
	right := "←/→ stars  r rate  ? help "

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := statusBarStyle.Width(max(m.width, 0)).Render(left + strings.Repeat(" ", gap) + right)
	return bar
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(helpHeaderStyle.Render("bookrate: Keyboard Shortcuts"))
	b.WriteString("\n")

	helpItems := []key.Binding{
		keys.Up, keys.Down, keys.Select, keys.Less, keys.More,
		keys.Rate, keys.Refresh, keys.SignIn, keys.SignOut, keys.Help, keys.Quit,
	}

	for _, item := range helpItems {
		h := item.Help()
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			helpKeyStyle.Width(12).Render(h.Key),
			h.Desc,
		))
	}

	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("Press ? to close help"))

	return b.String()
}

// Run starts the TUI application and blocks until the user quits.
func Run(ctx context.Context, session Session, shelf Shelf, flow Submitter, opts ...Option) error {
	opts = append([]Option{WithContext(ctx)}, opts...)
	m := New(session, shelf, flow, opts...)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
