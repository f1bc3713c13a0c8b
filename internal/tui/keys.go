package tui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Quit     key.Binding
	PrevWeek key.Binding
	NextWeek key.Binding
	ThisWeek key.Binding
	Weekends key.Binding
	ZoomIn   key.Binding
	ZoomOut  key.Binding
	New      key.Binding
	User     key.Binding
	Reload   key.Binding
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Help     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		PrevWeek: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev week")),
		NextWeek: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next week")),
		ThisWeek: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "this week")),
		Weekends: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "toggle weekends")),
		ZoomIn:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "zoom")),
		ZoomOut:  key.NewBinding(key.WithKeys("-")),
		New:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new worklog")),
		User:     key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "switch user")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/↓", "scroll")),
		Down:     key.NewBinding(key.WithKeys("down", "j")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevWeek, k.NextWeek, k.New, k.User, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevWeek, k.NextWeek, k.ThisWeek, k.Weekends},
		{k.ZoomIn, k.Up, k.New},
		{k.User, k.Reload, k.Help, k.Quit},
	}
}
