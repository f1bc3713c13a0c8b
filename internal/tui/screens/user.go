package screens

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// UserSwitch is the modal that changes the authenticated user.
type UserSwitch struct {
	input   textinput.Model
	active  bool
	current string
}

func NewUserSwitch() *UserSwitch {
	ti := textinput.New()
	ti.Placeholder = "Username"
	ti.CharLimit = 100
	ti.Width = 30
	ti.Cursor.SetMode(cursor.CursorStatic)

	return &UserSwitch{input: ti}
}

func (u *UserSwitch) Active() bool {
	return u.active
}

func (u *UserSwitch) Open(current string) tea.Cmd {
	u.active = true
	u.current = current
	u.input.SetValue(current)
	u.input.CursorEnd()
	return u.input.Focus()
}

func (u *UserSwitch) close() {
	u.active = false
	u.input.Blur()
}

func (u *UserSwitch) Update(msg tea.Msg) tea.Cmd {
	if !u.active {
		return nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			name := strings.TrimSpace(u.input.Value())
			u.close()
			if name == "" || name == u.current {
				return CloseModal()
			}
			return SelectUser(name)

		case "esc":
			u.close()
			return CloseModal()
		}
	}

	var cmd tea.Cmd
	u.input, cmd = u.input.Update(msg)
	return cmd
}

func (u *UserSwitch) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("SWITCH USER"))
	b.WriteString("\n")
	b.WriteString(SubtitleStyle.Render("Signed in as " + u.current))
	b.WriteString("\n")
	b.WriteString(u.input.View())
	b.WriteString("\n\n")
	b.WriteString(HelpStyle.Render("[enter] Switch  [esc] Cancel"))

	return BoxStyle.Render(b.String())
}
