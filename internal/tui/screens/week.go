package screens

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/emilianohg/timegrid/internal/editor"
	"github.com/emilianohg/timegrid/internal/grid"
	"github.com/emilianohg/timegrid/internal/models"
	"github.com/emilianohg/timegrid/internal/repository"
)

const (
	// HeaderRows is the day header plus its rule.
	HeaderRows = 2
	// GutterCols is the hour-label column, "HH:MM ".
	GutterCols = 6
)

// Week draws the worklogs of the visible date range on the days × minutes
// grid and maps pointer positions back to worklogs and slots.
type Week struct {
	repo    *repository.WorklogRepo
	user    string
	timeout time.Duration
	width   int
	height  int

	ppm       float64
	dateRange grid.DateRange
	scrollTop int

	worklogs []models.Worklog
	loading  bool
	err      error
}

func NewWeek(db *sql.DB, user string, ppm float64, r grid.DateRange, timeout time.Duration) *Week {
	return &Week{
		repo:      repository.NewWorklogRepo(db),
		user:      user,
		timeout:   timeout,
		ppm:       ppm,
		dateRange: r,
	}
}

// SetSize sets the size of the grid area, header and gutter included.
func (w *Week) SetSize(width, height int) {
	w.width = width
	w.height = height
	w.Scroll(0)
}

type weekDataMsg struct {
	dateRange grid.DateRange
	user      string
	worklogs  []models.Worklog
	err       error
}

func (w *Week) Init() tea.Cmd {
	w.loading = true
	return w.loadData()
}

func (w *Week) loadData() tea.Cmd {
	repo, user, r, timeout := w.repo, w.user, w.dateRange, w.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		worklogs, err := repo.ListByDateRange(ctx, user, r.Start, r.End.AddDate(0, 0, 1))
		return weekDataMsg{dateRange: r, user: user, worklogs: worklogs, err: err}
	}
}

func (w *Week) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case weekDataMsg:
		// a load for a week or user we already left
		if !msg.dateRange.Equal(w.dateRange) || msg.user != w.user {
			return nil
		}
		w.loading = false
		w.err = msg.err
		w.worklogs = msg.worklogs
		return nil

	case RefreshMsg:
		return w.Init()
	}
	return nil
}

func (w *Week) Loading() bool {
	return w.loading
}

func (w *Week) Err() error {
	return w.err
}

func (w *Week) Worklogs() []models.Worklog {
	return w.worklogs
}

func (w *Week) Range() grid.DateRange {
	return w.dateRange
}

// SetRange shows r and reloads.
func (w *Week) SetRange(r grid.DateRange) tea.Cmd {
	w.dateRange = r
	w.worklogs = nil
	return w.Init()
}

func (w *Week) SetUser(user string) tea.Cmd {
	w.user = user
	w.worklogs = nil
	return w.Init()
}

func (w *Week) Config() grid.Config {
	return grid.Config{PixelsPerMinute: w.ppm, GridOffsetTop: HeaderRows, GridOffsetLeft: GutterCols}
}

func (w *Week) Viewport() grid.Viewport {
	return grid.Viewport{ScrollTop: w.scrollTop, ScrollWidth: w.width}
}

func (w *Week) PixelsPerMinute() float64 {
	return w.ppm
}

// SetPixelsPerMinute zooms keeping the minute at the top of the view in place.
func (w *Week) SetPixelsPerMinute(ppm float64) {
	top := float64(w.scrollTop) / w.ppm
	w.ppm = ppm
	w.ScrollToMinute(int(top))
}

func (w *Week) visibleRows() int {
	return max(w.height-HeaderRows, 1)
}

func (w *Week) Scroll(rows int) {
	maxTop := max(0, int(math.Ceil(w.Config().DayHeight()))-w.visibleRows())
	w.scrollTop = min(max(w.scrollTop+rows, 0), maxTop)
}

// TopMinute is the minute of day at the top of the view.
func (w *Week) TopMinute() int {
	return int(float64(w.scrollTop) / w.ppm)
}

func (w *Week) ScrollToMinute(minute int) {
	w.scrollTop = int(float64(minute) * w.ppm)
	w.Scroll(0)
}

func (w *Week) dayWidth() float64 {
	return float64(w.width-GutterCols) * w.dateRange.DayWidthFraction()
}

func (w *Week) layoutOf(wl models.Worklog) grid.Layout {
	return grid.ComputeLayout(grid.MinuteOfDay(wl.Started), wl.DurationMinutes, grid.Midnight(wl.Started), w.dateRange, w.Config())
}

// WorklogAt returns the worklog drawn at x, y, ignoring the one with id skip.
func (w *Week) WorklogAt(x, y int, skip int64) *models.Worklog {
	vp, cfg := w.Viewport(), w.Config()
	for i := len(w.worklogs) - 1; i >= 0; i-- {
		wl := w.worklogs[i]
		if wl.ID == skip {
			continue
		}
		if grid.HitTest(x, y, vp, cfg, w.layoutOf(wl).Cells(), 0).Zone != grid.ZoneNone {
			return &wl
		}
	}
	return nil
}

// SlotAt returns the date and snapped minute of an empty grid cell.
func (w *Week) SlotAt(x, y int, mods grid.Modifiers) (time.Time, int, bool) {
	if x < GutterCols || x >= w.width || y < HeaderRows || y >= w.height {
		return time.Time{}, 0, false
	}
	cfg, vp := w.Config(), w.Viewport()

	minute := grid.PointerToMinuteOfDay(y, w.scrollTop, 0, cfg, grid.SnapIntervalFor(mods))
	if minute < 0 || minute >= grid.MinutesPerDay {
		return time.Time{}, 0, false
	}
	// half a day offset turns the rounding into the column the cell is in
	date := grid.PointerToDate(x, vp, w.dayWidth()/2, cfg, w.dateRange)
	return w.dateRange.Clamp(date), minute, true
}

type column struct {
	start int
	width int
}

func (w *Week) columns() []column {
	days := w.dateRange.Days()
	ppd := w.dayWidth()
	cols := make([]column, days)
	for d := range days {
		start := int(math.Ceil(float64(d) * ppd))
		end := int(math.Ceil(float64(d+1) * ppd))
		if d == days-1 {
			end = w.width - GutterCols
		}
		cols[d] = column{start: start, width: max(end-start, 0)}
	}
	return cols
}

type panel struct {
	day     int
	top     int
	bottom  int
	lines   []string
	style   lipgloss.Style
	editing bool
}

func (w *Week) panels(ed *editor.Editor) []panel {
	cfg := w.Config()
	editing := int64(-1)
	if ed != nil && ed.IsOpen() {
		editing = ed.Draft().ID
	}

	out := make([]panel, 0, len(w.worklogs)+1)
	for _, wl := range w.worklogs {
		if wl.ID == editing {
			continue
		}
		start := grid.MinuteOfDay(wl.Started)
		l := grid.ComputeLayout(start, wl.DurationMinutes, grid.Midnight(wl.Started), w.dateRange, cfg).Cells()

		label := "···"
		if wl.Issue != nil {
			label = wl.Issue.Label()
		}
		out = append(out, panel{
			day:    w.dateRange.DayIndex(grid.Midnight(wl.Started)),
			top:    int(l.OffsetTop),
			bottom: int(l.Bottom()),
			lines: []string{
				label,
				fmt.Sprintf("%s-%s", grid.FormatTime(start), grid.FormatTime(min(start+wl.DurationMinutes, grid.MinutesPerDay))),
				firstLine(wl.Comment),
			},
			style: lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(editor.PanelColor(wl.Issue)),
		})
	}

	if editing >= 0 {
		d := ed.Draft()
		l := ed.Layout().Cells()
		out = append(out, panel{
			day:     w.dateRange.DayIndex(d.Date),
			top:     int(l.OffsetTop),
			bottom:  int(l.Bottom()),
			lines:   []string{ed.PanelLabel(), firstLine(d.Comment)},
			style:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Background(editor.PanelColor(d.Issue)),
			editing: true,
		})
	}
	return out
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// fit truncates or pads s to exactly n cells.
func fit(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) > n {
		if n == 1 {
			return "…"
		}
		return string(r[:n-1]) + "…"
	}
	return s + strings.Repeat(" ", n-len(r))
}

// hourRows maps the row each hour starts on to that hour. When zoomed out
// far enough for two hours to share a row the earlier one wins.
func (w *Week) hourRows() map[int]int {
	rows := make(map[int]int, 24)
	for h := 23; h >= 0; h-- {
		rows[int(math.Floor(float64(h*60)*w.ppm))] = h
	}
	return rows
}

func formatDuration(minutes int) string {
	switch {
	case minutes < 60:
		return fmt.Sprintf("%dm", minutes)
	case minutes%60 == 0:
		return fmt.Sprintf("%dh", minutes/60)
	default:
		return fmt.Sprintf("%dh%02d", minutes/60, minutes%60)
	}
}

// DayTotals sums the logged minutes per visible day.
func (w *Week) DayTotals() []int {
	totals := make([]int, w.dateRange.Days())
	for _, wl := range w.worklogs {
		i := w.dateRange.DayIndex(grid.Midnight(wl.Started))
		if i < 0 || i >= len(totals) {
			continue
		}
		totals[i] += min(wl.DurationMinutes, grid.MinutesPerDay-grid.MinuteOfDay(wl.Started))
	}
	return totals
}

func (w *Week) headerView(cols []column) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", GutterCols))

	today := grid.Midnight(time.Now())
	totals := w.DayTotals()
	for d, col := range cols {
		date := w.dateRange.Start.AddDate(0, 0, d)
		text := date.Format("Mon 02")
		if totals[d] > 0 {
			text += " " + formatDuration(totals[d])
		}
		style := NormalStyle
		if date.Equal(today) {
			style = TodayStyle
		}
		b.WriteString(style.Render(fit(text, col.width)))
	}
	return b.String()
}

func (w *Week) rowView(y int, hours map[int]int, cols []column, panels []panel) string {
	var b strings.Builder

	hour, isHour := hours[y]
	if isHour {
		b.WriteString(DimStyle.Render(fit(grid.FormatTime(hour*60), GutterCols)))
	} else {
		b.WriteString(strings.Repeat(" ", GutterCols))
	}

	for d, col := range cols {
		if col.width == 0 {
			continue
		}
		inner := col.width - 1

		var hit *panel
		for i := len(panels) - 1; i >= 0; i-- {
			p := &panels[i]
			if p.day == d && y >= p.top && y < p.bottom {
				hit = p
				break
			}
		}

		switch {
		case hit != nil:
			b.WriteString(hit.style.Render(fit(panelLine(hit, y), inner)))
		case isHour:
			b.WriteString(GridLineStyle.Render(strings.Repeat("┈", inner)))
		default:
			b.WriteString(strings.Repeat(" ", inner))
		}
		b.WriteString(GridLineStyle.Render("│"))
	}
	return b.String()
}

func panelLine(p *panel, y int) string {
	k := y - p.top
	line := ""
	if k < len(p.lines) {
		line = p.lines[k]
	}
	if !p.editing {
		return " " + line
	}
	switch {
	case k == 0:
		return "▲" + line
	case y == p.bottom-1:
		return "▼" + line
	default:
		return " " + line
	}
}

// View renders the grid. The editor's draft replaces the worklog it edits.
func (w *Week) View(ed *editor.Editor) string {
	cols := w.columns()

	rows := make([]string, 0, w.height)
	rows = append(rows, w.headerView(cols))
	rows = append(rows, GridLineStyle.Render(strings.Repeat("─", max(w.width, 0))))

	panels := w.panels(ed)
	hours := w.hourRows()
	dayHeight := int(math.Ceil(w.Config().DayHeight()))
	for r := range w.visibleRows() {
		y := w.scrollTop + r
		if y >= dayHeight {
			break
		}
		rows = append(rows, w.rowView(y, hours, cols, panels))
	}
	return strings.Join(rows, "\n")
}
