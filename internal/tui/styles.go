package tui

import "github.com/charmbracelet/lipgloss"

// Color palette.
var (
	colorRed       = lipgloss.Color("#ff5555")
	colorGreen     = lipgloss.Color("#50fa7b")
	colorYellow    = lipgloss.Color("#f1fa8c")
	colorBlue      = lipgloss.Color("#8be9fd")
	colorPurple    = lipgloss.Color("#bd93f9")
	colorDim       = lipgloss.Color("#6272a4")
	colorBgLight   = lipgloss.Color("#343746")
	colorFg        = lipgloss.Color("#f8f8f2")
	colorBorder    = lipgloss.Color("#44475a")
	colorHighlight = lipgloss.Color("#44475a")
)

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(colorPurple).
			Bold(true).
			Padding(0, 0, 1, 0)

	// Result and status lines
	successStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	loadingStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	accountStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true)

	// Book list
	shelfStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	bookStyle = lipgloss.NewStyle().
			Foreground(colorFg)

	bookCursorStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorHighlight).
			Bold(true)

	bookDetailStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	// Expanded book panel
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(colorPurple).
			Padding(0, 1).
			MarginLeft(2)

	reviewerNameStyle = lipgloss.NewStyle().
				Foreground(colorBlue).
				Bold(true)

	noReviewsStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)

	starStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	starEmptyStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	rateButtonStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorPurple).
			Padding(0, 1)

	rateButtonBusyStyle = lipgloss.NewStyle().
				Foreground(colorDim).
				Background(colorBgLight).
				Padding(0, 1)

	// Status bar
	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorFg).
			Background(colorBgLight).
			Padding(0, 1)

	// Help
	helpHeaderStyle = lipgloss.NewStyle().
			Foreground(colorBlue).
			Bold(true).
			Padding(0, 0, 1, 0)

	helpBarStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorYellow)
)
