package tui

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/emilianohg/timegrid/internal/config"
	"github.com/emilianohg/timegrid/internal/editor"
	"github.com/emilianohg/timegrid/internal/events"
	"github.com/emilianohg/timegrid/internal/grid"
	"github.com/emilianohg/timegrid/internal/models"
	"github.com/emilianohg/timegrid/internal/repository"
	"github.com/emilianohg/timegrid/internal/tui/screens"
)

const (
	sidebarWidth = 50
	wheelRows    = 3

	minPixelsPerMinute = 0.02
	maxPixelsPerMinute = 1.0
	zoomFactor         = 1.5
)

type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	catalog *repository.Catalog
	width   int
	height  int

	keys     KeyMap
	help     help.Model
	showHelp bool

	bus    *events.Bus
	editor *editor.Editor
	week   *screens.Week
	users  *screens.UserSwitch

	firstDay time.Weekday
	lastDay  time.Weekday

	status    string
	statusErr bool
}

func NewApp(db *sql.DB, cfg *config.Config, logger *slog.Logger) *App {
	first, last := time.Weekday(cfg.VisibleDaysStart), time.Weekday(cfg.VisibleDaysEnd)
	r := grid.Week(time.Now(), first, last)

	catalog := repository.NewCatalog(db, cfg.User, cfg.ResultLimit)
	week := screens.NewWeek(db, cfg.User, cfg.PixelsPerMinute, r, cfg.RequestTimeout())
	bus := events.NewBus()

	return &App{
		cfg:     cfg,
		logger:  logger,
		catalog: catalog,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		bus:     bus,
		week:    week,
		users:   screens.NewUserSwitch(),
		editor: editor.New(editor.Options{
			Bus:            bus,
			Issues:         catalog,
			Worklogs:       catalog,
			Logger:         logger,
			Grid:           week.Config(),
			Range:          r,
			FirstDay:       first,
			LastDay:        last,
			Debounce:       cfg.SearchDebounce(),
			RequestTimeout: cfg.RequestTimeout(),
		}),
		firstDay: first,
		lastDay:  last,
	}
}

func (a *App) Init() tea.Cmd {
	a.week.ScrollToMinute(8 * 60)
	a.editor.SetViewport(a.week.Viewport())
	return a.week.Init()
}

func (a *App) gridWidth() int {
	return max(a.width-sidebarWidth, 20)
}

func (a *App) resize() {
	a.week.SetSize(a.gridWidth(), max(a.height-1, screens.HeaderRows+1))
	a.editor.SetGridOffsets(screens.HeaderRows, screens.GutterCols)
	a.editor.SetViewport(a.week.Viewport())
	a.help.Width = sidebarWidth - 2
}

func (a *App) setStatus(text string, isErr bool) {
	a.status = text
	a.statusErr = isErr
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.users.Active() {
			return a, a.users.Update(msg)
		}
		if cmd, ok := a.bus.DispatchKey(msg); ok {
			return a, cmd
		}
		return a, a.handleKey(msg)

	case tea.MouseMsg:
		return a, a.handleMouse(msg)

	case screens.UserSelectedMsg:
		return a, a.switchUser(msg.User)

	case screens.ModalClosedMsg:
		a.editor.SetKeysDisabled(false)
		return a, nil

	case editor.DateRangeRequestMsg:
		a.editor.SetDateRange(msg.Range)
		return a, a.week.SetRange(msg.Range)

	case editor.SavedMsg:
		if msg.Worklog != nil {
			a.setStatus(fmt.Sprintf("Saved worklog on %s", grid.FormatDate(msg.Worklog.Started)), false)
		}
		return a, a.week.Init()
	}

	return a, tea.Batch(a.editor.Update(msg), a.week.Update(msg))
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit
	case key.Matches(msg, a.keys.PrevWeek):
		return a.showRange(a.week.Range().Shift(-1))
	case key.Matches(msg, a.keys.NextWeek):
		return a.showRange(a.week.Range().Shift(1))
	case key.Matches(msg, a.keys.ThisWeek):
		return a.showRange(grid.Week(time.Now(), a.firstDay, a.lastDay))
	case key.Matches(msg, a.keys.Weekends):
		return a.toggleWeekends()
	case key.Matches(msg, a.keys.ZoomIn):
		a.zoom(a.week.PixelsPerMinute() * zoomFactor)
	case key.Matches(msg, a.keys.ZoomOut):
		a.zoom(a.week.PixelsPerMinute() / zoomFactor)
	case key.Matches(msg, a.keys.Up):
		a.scroll(-1)
	case key.Matches(msg, a.keys.Down):
		a.scroll(1)
	case key.Matches(msg, a.keys.PageUp):
		a.scroll(-a.height / 2)
	case key.Matches(msg, a.keys.PageDown):
		a.scroll(a.height / 2)
	case key.Matches(msg, a.keys.New):
		return a.newAtTop()
	case key.Matches(msg, a.keys.User):
		a.editor.SetKeysDisabled(true)
		return a.users.Open(a.catalog.User())
	case key.Matches(msg, a.keys.Reload):
		a.setStatus("", false)
		return screens.Refresh()
	case key.Matches(msg, a.keys.Help):
		a.showHelp = !a.showHelp
	}
	return nil
}

// showRange pages the grid. The editor is told so it can close.
func (a *App) showRange(r grid.DateRange) tea.Cmd {
	return tea.Batch(
		a.editor.Update(editor.VisibleDateRangeChangedMsg{Range: r}),
		a.week.SetRange(r),
	)
}

// toggleWeekends switches between the configured days and the whole week.
func (a *App) toggleWeekends() tea.Cmd {
	first, last := time.Weekday(a.cfg.VisibleDaysStart), time.Weekday(a.cfg.VisibleDaysEnd)
	if a.firstDay == first && a.lastDay == last {
		first, last = time.Sunday, time.Saturday
	}
	return a.setVisibleDays(first, last)
}

// setVisibleDays keeps the week in view. The editor stays open unless its
// draft falls on a day that is now hidden.
func (a *App) setVisibleDays(first, last time.Weekday) tea.Cmd {
	a.firstDay, a.lastDay = first, last
	r := grid.Week(a.week.Range().Start, first, last)

	cmd := a.editor.SetVisibleDays(first, last)
	a.editor.SetDateRange(r)
	return tea.Batch(cmd, a.week.SetRange(r))
}

func (a *App) switchUser(user string) tea.Cmd {
	a.editor.SetKeysDisabled(false)
	a.catalog.SetUser(user)
	a.cfg.User = user
	if err := config.Save(a.cfg); err != nil {
		a.logger.Warn("saving config failed", "error", err)
		a.setStatus(fmt.Sprintf("Error saving config: %v", err), true)
	} else {
		a.setStatus("Signed in as "+user, false)
	}
	return tea.Batch(
		a.editor.Update(editor.AuthenticatedUserChangedMsg{User: user}),
		a.week.SetUser(user),
	)
}

func (a *App) zoom(ppm float64) {
	ppm = min(max(ppm, minPixelsPerMinute), maxPixelsPerMinute)
	a.cfg.PixelsPerMinute = ppm
	a.week.SetPixelsPerMinute(ppm)
	a.editor.SetPixelsPerMinute(ppm)
	a.editor.SetViewport(a.week.Viewport())
}

func (a *App) scroll(rows int) {
	a.week.Scroll(rows)
	a.editor.SetViewport(a.week.Viewport())
}

func (a *App) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress {
		cmd, _ := a.bus.DispatchPointer(msg)
		return cmd
	}
	if a.users.Active() {
		return nil
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		a.scroll(-wheelRows)
	case tea.MouseButtonWheelDown:
		a.scroll(wheelRows)
	case tea.MouseButtonLeft:
		return a.press(msg)
	}
	return nil
}

// press starts an interaction on the open panel, or opens the worklog or
// empty slot under the pointer.
func (a *App) press(msg tea.MouseMsg) tea.Cmd {
	if cmd, ok := a.editor.PointerDown(msg); ok {
		return cmd
	}
	if msg.X >= a.gridWidth() {
		return nil
	}

	skip := int64(-1)
	if a.editor.IsOpen() {
		skip = a.editor.Draft().ID
	}
	if wl := a.week.WorklogAt(msg.X, msg.Y, skip); wl != nil {
		return a.editor.Open(*wl)
	}

	date, minute, ok := a.week.SlotAt(msg.X, msg.Y, editor.PointerFromMouse(msg).Modifiers)
	if !ok {
		return nil
	}
	return a.editor.Open(a.newWorklog(date, minute))
}

func (a *App) newWorklog(date time.Time, minute int) models.Worklog {
	dur := max(a.cfg.DefaultDurationMinutes, 1)
	minute = max(0, min(minute, grid.MinutesPerDay-dur))
	return models.Worklog{
		Author:          a.catalog.User(),
		Started:         grid.At(date, minute),
		DurationMinutes: dur,
		Comment:         a.cfg.DefaultComment,
	}
}

// newAtTop opens a new worklog today, or on the first shown day, at the
// first half hour in view.
func (a *App) newAtTop() tea.Cmd {
	r := a.week.Range()
	date := r.Clamp(grid.Midnight(time.Now()))
	minute := (a.week.TopMinute() + 29) / 30 * 30
	return a.editor.Open(a.newWorklog(date, minute))
}

func (a *App) statusView() string {
	switch {
	case a.week.Err() != nil:
		return screens.ErrorStyle.Render(fmt.Sprintf("Error loading worklogs: %v", a.week.Err()))
	case a.status != "" && a.statusErr:
		return screens.ErrorStyle.Render(a.status)
	case a.status != "":
		return screens.SuccessStyle.Render(a.status)
	case a.week.Loading():
		return screens.DimStyle.Render("Loading...")
	}
	r := a.week.Range()
	return screens.DimStyle.Render(fmt.Sprintf("%s  %s → %s", a.catalog.User(), grid.FormatDate(r.Start), grid.FormatDate(r.End)))
}

func (a *App) sidebarView() string {
	var b strings.Builder
	switch {
	case a.users.Active():
		b.WriteString(a.users.View())
	case a.editor.IsOpen():
		b.WriteString(a.editor.View())
	default:
		b.WriteString(screens.TitleStyle.Render("TIMEGRID"))
		b.WriteString("\n")
		b.WriteString(screens.SubtitleStyle.Render("Click a worklog to edit it, or an empty slot to log time."))
		b.WriteString("\n")
		if a.showHelp {
			b.WriteString(a.help.FullHelpView(a.keys.FullHelp()))
		} else {
			b.WriteString(a.help.ShortHelpView(a.keys.ShortHelp()))
		}
	}
	return lipgloss.NewStyle().Width(sidebarWidth).PaddingLeft(1).Render(b.String())
}

func (a *App) View() string {
	body := lipgloss.JoinHorizontal(lipgloss.Top, a.week.View(a.editor), a.sidebarView())
	content := lipgloss.JoinVertical(lipgloss.Left, body, a.statusView())

	return lipgloss.NewStyle().
		Width(a.width).
		Height(a.height).
		MaxHeight(a.height).
		Render(content)
}

func Run(db *sql.DB, cfg *config.Config, logger *slog.Logger) error {
	app := NewApp(db, cfg, logger)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
