package editor

import "github.com/charmbracelet/bubbles/key"

// KeyMap is the editor's keyboard contract.
type KeyMap struct {
	Close       key.Binding
	Toggle      key.Binding
	Save        key.Binding
	ForceSave   key.Binding
	Next        key.Binding
	Prev        key.Binding
	ClearOwner  key.Binding
	Favorite    key.Binding
	CloudLeft   key.Binding
	CloudRight  key.Binding
	CloudUp     key.Binding
	CloudDown   key.Binding
	CloudToday  key.Binding
	CloudSelect key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Close:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Toggle:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "open picker")),
		Save:        key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		ForceSave:   key.NewBinding(key.WithKeys("alt+enter"), key.WithHelp("alt+enter", "save from comment")),
		Next:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		Prev:        key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
		ClearOwner:  key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("ctrl+u", "clear owner")),
		Favorite:    key.NewBinding(key.WithKeys("ctrl+f"), key.WithHelp("ctrl+f", "toggle favorite")),
		CloudLeft:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "previous day")),
		CloudRight:  key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "next day")),
		CloudUp:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "previous week")),
		CloudDown:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "next week")),
		CloudToday:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "today")),
		CloudSelect: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "pick date")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Toggle, k.Save, k.ForceSave, k.Close}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Toggle, k.Save, k.ForceSave, k.Close},
		{k.ClearOwner, k.Favorite},
		{k.CloudLeft, k.CloudRight, k.CloudUp, k.CloudDown, k.CloudToday, k.CloudSelect},
	}
}

// dateCloudKeys and issueCloudKeys are shown while the cloud is open.
type dateCloudKeys KeyMap

func (k dateCloudKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.CloudLeft, k.CloudRight, k.CloudUp, k.CloudDown, k.CloudToday, k.CloudSelect, k.Close}
}

func (k dateCloudKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

type issueCloudKeys KeyMap

func (k issueCloudKeys) ShortHelp() []key.Binding {
	pick := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "pick issue"))
	return []key.Binding{pick, k.Favorite, k.Close}
}

func (k issueCloudKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
