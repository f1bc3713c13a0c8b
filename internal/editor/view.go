package editor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/emilianohg/timegrid/internal/models"
)

var (
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(9)

	fieldStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	focusedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("238"))

	focusedButtonStyle = buttonStyle.
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("62"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	cloudStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	formStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1)
)

// PanelLabel is the text drawn inside the edited panel.
func (e *Editor) PanelLabel() string {
	issue := "···"
	if e.draft.Issue != nil {
		issue = e.draft.Issue.Label()
	}
	return fmt.Sprintf("%s-%s %s", e.draft.StartText, e.draft.EndText, issue)
}

func (e *Editor) field(f Focus, label, value string) string {
	style := fieldStyle
	if e.focus == f && e.overlay == overlayNone {
		style = focusedStyle
	}
	return labelStyle.Render(label) + style.Render(value)
}

// View renders the edit form with the open cloud, if any.
func (e *Editor) View() string {
	if !e.open {
		return ""
	}

	var b strings.Builder

	b.WriteString(e.field(FocusDateToggle, "Date", fmt.Sprintf("[%s]", e.draft.DateText)))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("Time") + fieldStyle.Render(fmt.Sprintf("%s - %s (%dm)", e.draft.StartText, e.draft.EndText, e.draft.DurationMinutes)))
	b.WriteString("\n")

	issue := "···"
	if e.draft.Issue != nil {
		issue = e.draft.Issue.Label()
	}
	if e.draft.IsNew() {
		issue = fmt.Sprintf("[%s]", issue)
	}
	b.WriteString(e.field(FocusIssueToggle, "Issue", issue))
	b.WriteString("\n")

	if e.draft.IsNew() {
		style := labelStyle
		if e.focus == FocusOwner {
			style = style.Foreground(lipgloss.Color("212"))
		}
		b.WriteString(style.Render("Owner") + e.owner.View())
		b.WriteString("\n")
	}

	b.WriteString(labelStyle.Render("Comment"))
	b.WriteString("\n")
	b.WriteString(e.comment.View())
	b.WriteString("\n\n")

	save, cancel := buttonStyle, buttonStyle
	if e.focus == FocusSave {
		save = focusedButtonStyle
	}
	if e.focus == FocusCancel {
		cancel = focusedButtonStyle
	}
	saveLabel := "Save"
	if e.saving {
		saveLabel = "Saving..."
	}
	b.WriteString(save.Render(saveLabel) + " " + cancel.Render("Cancel"))

	if e.warning != "" {
		b.WriteString("\n")
		b.WriteString(warningStyle.Render("! " + e.warning))
		b.WriteString("\n")
		style := labelStyle
		if e.focus == FocusEstimate {
			style = style.Foreground(lipgloss.Color("212"))
		}
		b.WriteString(style.Render("Estimate") + e.estimate.View())
		if e.estimateErr != nil {
			b.WriteString("\n")
			b.WriteString(errorStyle.Render(e.estimateErr.Error()))
		}
	}
	if e.saveErr != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", e.saveErr)))
	}

	form := formStyle.Render(b.String())

	switch e.overlay {
	case overlayDateCloud:
		form = lipgloss.JoinHorizontal(lipgloss.Top, form, cloudStyle.Render(e.dateCloudView()))
	case overlayIssueCloud:
		form = lipgloss.JoinHorizontal(lipgloss.Top, form, cloudStyle.Render(e.picker.View()))
	}

	return form + "\n" + e.helpView()
}

func (e *Editor) helpView() string {
	switch e.overlay {
	case overlayDateCloud:
		return e.help.View(dateCloudKeys(e.keys))
	case overlayIssueCloud:
		return e.help.View(issueCloudKeys(e.keys))
	}
	return e.help.View(e.keys)
}

// dateCloudView renders the month of the highlighted date.
func (e *Editor) dateCloudView() string {
	var b strings.Builder

	month := time.Date(e.cloudDate.Year(), e.cloudDate.Month(), 1, 0, 0, 0, 0, e.cloudDate.Location())
	b.WriteString(focusedStyle.Render(month.Format("January 2006")))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Su Mo Tu We Th Fr Sa"))
	b.WriteString("\n")

	b.WriteString(strings.Repeat("   ", int(month.Weekday())))
	for d := month; d.Month() == month.Month(); d = d.AddDate(0, 0, 1) {
		cell := fmt.Sprintf("%2d", d.Day())
		switch {
		case d.Equal(e.cloudDate):
			cell = focusedStyle.Reverse(true).Render(cell)
		case !e.dayVisible(d):
			cell = dimStyle.Render(cell)
		case e.surface.Range.Contains(d):
			cell = fieldStyle.Bold(true).Render(cell)
		default:
			cell = fieldStyle.Render(cell)
		}
		b.WriteString(cell)
		if d.Weekday() == time.Saturday {
			b.WriteString("\n")
		} else {
			b.WriteString(" ")
		}
	}
	return strings.TrimRight(b.String(), " \n")
}

// View renders the search box and the visible issues.
func (p *Picker) View() string {
	var b strings.Builder

	b.WriteString(p.input.View())
	b.WriteString("\n")
	if p.assignee != "" {
		b.WriteString(dimStyle.Render("owner: " + p.assignee))
		b.WriteString("\n")
	}
	if p.searching {
		b.WriteString(dimStyle.Render("Searching..."))
		b.WriteString("\n")
	}

	visible := p.Visible()
	if len(visible) == 0 {
		b.WriteString(dimStyle.Render("No issues"))
		return b.String()
	}

	favorites := len(p.favorites)
	for i, issue := range visible {
		if p.Query() == "" && i == favorites && favorites > 0 {
			b.WriteString(dimStyle.Render("──"))
			b.WriteString("\n")
		}
		b.WriteString(p.row(i, issue))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (p *Picker) row(i int, issue models.Issue) string {
	prefix := "  "
	style := fieldStyle
	if i == p.cursor {
		prefix = "> "
		style = focusedStyle
	}
	star := " "
	if p.isFavorite(issue.Key) {
		star = "★"
	}
	swatch := lipgloss.NewStyle().Background(PanelColor(&issue)).Render(" ")
	return style.Render(prefix) + swatch + " " + style.Render(star+" "+issue.Label())
}

// BoundsText is the draft's date and time span for the status line.
func (e *Editor) BoundsText() string {
	if !e.open {
		return ""
	}
	return fmt.Sprintf("%s %s-%s", e.draft.DateText, e.draft.StartText, e.draft.EndText)
}
