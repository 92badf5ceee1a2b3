package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Select   key.Binding
	Less     key.Binding
	More     key.Binding
	Rate     key.Binding
	Refresh  key.Binding
	SignIn   key.Binding
	SignOut  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter", "open book"),
	),
	Less: key.NewBinding(
		key.WithKeys("left", "h", "-"),
		key.WithHelp("←/h", "fewer stars"),
	),
	More: key.NewBinding(
		key.WithKeys("right", "l", "+"),
		key.WithHelp("→/l", "more stars"),
	),
	Rate: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "rate"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "reload shelf"),
	),
	SignIn: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "sign in"),
	),
	SignOut: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "sign out"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
