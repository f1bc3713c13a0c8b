// Package editor edits one worklog at a time on the week grid: pointer
// drag and stretch of the panel, the issue picker, the date cloud and saving.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/timegrid/internal/events"
	"github.com/emilianohg/timegrid/internal/grid"
	"github.com/emilianohg/timegrid/internal/models"
)

// MissingEstimateWarning is shown when the picked issue has no original
// estimate. It never blocks saving.
const MissingEstimateWarning = "No original estimate set"

// handleSize is the height in cells of the stretch handles.
const handleSize = 1

type Focus int

const (
	FocusDateToggle Focus = iota
	FocusIssueToggle
	FocusEstimate
	FocusOwner
	FocusComment
	FocusSave
	FocusCancel
)

func (f Focus) String() string {
	switch f {
	case FocusDateToggle:
		return "date"
	case FocusIssueToggle:
		return "issue"
	case FocusEstimate:
		return "estimate"
	case FocusOwner:
		return "owner"
	case FocusComment:
		return "comment"
	case FocusSave:
		return "save"
	case FocusCancel:
		return "cancel"
	}
	return "unknown"
}

type overlay int

const (
	overlayNone overlay = iota
	overlayDateCloud
	overlayIssueCloud
)

// DateRangeRequestMsg asks the host to show another range, e.g. after a date
// outside the visible week was picked. The host answers with SetDateRange.
type DateRangeRequestMsg struct {
	Range grid.DateRange
}

// VisibleDateRangeChangedMsg is sent by the host when the user pages the grid.
// It closes the editor.
type VisibleDateRangeChangedMsg struct {
	Range grid.DateRange
}

// AuthenticatedUserChangedMsg closes the editor.
type AuthenticatedUserChangedMsg struct {
	User string
}

// ClosedMsg is emitted once per closed session.
type ClosedMsg struct{}

// SavedMsg carries the worklog as persisted.
type SavedMsg struct {
	Worklog *models.Worklog
}

type fullIssueMsg struct {
	session uint64
	key     string
	issue   *models.Issue
	err     error
}

type estimateSetMsg struct {
	session uint64
	key     string
	err     error
}

type saveResultMsg struct {
	session uint64
	worklog *models.Worklog
	err     error
}

type Options struct {
	Bus            *events.Bus
	Issues         IssueSource
	Worklogs       WorklogStore
	Logger         *slog.Logger
	Grid           grid.Config
	Range          grid.DateRange
	FirstDay       time.Weekday
	LastDay        time.Weekday
	Debounce       time.Duration
	RequestTimeout time.Duration
}

type Editor struct {
	bus     *events.Bus
	issues  IssueSource
	store   WorklogStore
	logger  *slog.Logger
	timeout time.Duration

	keys     KeyMap
	help     help.Model
	picker   *Picker
	owner    textinput.Model
	estimate textinput.Model
	comment  textarea.Model

	surface  Surface
	firstDay time.Weekday
	lastDay  time.Weekday

	open         bool
	session      uint64
	draft        Draft
	interaction  Interaction
	layout       grid.Layout
	revision     int
	overlay      overlay
	cloudDate    time.Time
	focus        Focus
	saving       bool
	warning      string
	estimateErr  error
	saveErr      error
	keysDisabled bool

	keySub  *events.Subscription
	moveSub *events.Subscription
	upSub   *events.Subscription
}

func New(opts Options) *Editor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	owner := textinput.New()
	owner.Placeholder = "me"
	owner.Prompt = ""
	owner.CharLimit = 100
	owner.Width = 20
	owner.Cursor.SetMode(cursor.CursorStatic)

	estimate := textinput.New()
	estimate.Placeholder = "4h, 90m"
	estimate.Prompt = ""
	estimate.CharLimit = 12
	estimate.Width = 10
	estimate.Cursor.SetMode(cursor.CursorStatic)

	comment := textarea.New()
	comment.Placeholder = "What did you work on?"
	comment.ShowLineNumbers = false
	comment.SetHeight(3)
	comment.SetWidth(40)
	comment.Cursor.SetMode(cursor.CursorStatic)

	return &Editor{
		bus:         opts.Bus,
		issues:      opts.Issues,
		store:       opts.Worklogs,
		logger:      logger,
		timeout:     timeout,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		picker:      NewPicker(opts.Issues, opts.Debounce, timeout, logger),
		owner:       owner,
		estimate:    estimate,
		comment:     comment,
		surface:     Surface{Config: opts.Grid, Range: opts.Range},
		firstDay:    opts.FirstDay,
		lastDay:     opts.LastDay,
		interaction: Idle{},
	}
}

func (e *Editor) IsOpen() bool {
	return e.open
}

func (e *Editor) Draft() Draft {
	return e.draft
}

func (e *Editor) Interaction() Interaction {
	return e.interaction
}

// Layout is the panel geometry of the draft.
func (e *Editor) Layout() grid.Layout {
	return e.layout
}

// Revision counts layout recomputations. Moves that change nothing leave it
// untouched.
func (e *Editor) Revision() int {
	return e.revision
}

func (e *Editor) Focus() Focus {
	return e.focus
}

func (e *Editor) Saving() bool {
	return e.saving
}

func (e *Editor) Warning() string {
	return e.warning
}

func (e *Editor) EstimateError() error {
	return e.estimateErr
}

func (e *Editor) SaveError() error {
	return e.saveErr
}

func (e *Editor) DateCloudOpen() bool {
	return e.overlay == overlayDateCloud
}

func (e *Editor) IssueCloudOpen() bool {
	return e.overlay == overlayIssueCloud
}

func (e *Editor) Picker() *Picker {
	return e.picker
}

// Open starts a session for w, replacing any open session.
func (e *Editor) Open(w models.Worklog) tea.Cmd {
	if e.open {
		e.teardown()
	}

	e.open = true
	e.session++
	e.draft = NewDraft(w)
	e.interaction = Idle{}
	e.overlay = overlayNone
	e.saving = false
	e.warning = ""
	e.estimateErr = nil
	e.saveErr = nil

	e.owner.SetValue("")
	e.estimate.SetValue("")
	e.comment.SetValue(e.draft.Comment)
	e.picker.Reset()

	e.focus = FocusDateToggle
	if e.draft.IsNew() {
		e.focus = FocusIssueToggle
	}
	e.applyFocus()

	e.keySub = e.bus.OnKey(e.handleKey)
	e.recompute()

	var cmds []tea.Cmd
	if e.draft.IsNew() {
		cmds = append(cmds, e.picker.Refresh())
	}
	if e.draft.Issue != nil {
		cmds = append(cmds, e.fetchFullIssue(e.draft.Issue.Key))
	}
	return tea.Batch(cmds...)
}

// Close discards the draft and emits ClosedMsg. It is a no-op when no
// session is open.
func (e *Editor) Close() tea.Cmd {
	if !e.open {
		return nil
	}
	e.teardown()
	return func() tea.Msg { return ClosedMsg{} }
}

// teardown releases every listener of the session and makes in-flight
// results of the session stale.
func (e *Editor) teardown() {
	e.endInteraction()
	e.keySub.Release()
	e.keySub = nil

	e.open = false
	e.session++
	e.draft = Draft{}
	e.overlay = overlayNone
	e.saving = false
	e.warning = ""
	e.estimateErr = nil
	e.saveErr = nil

	e.picker.Reset()
	e.owner.Blur()
	e.owner.SetValue("")
	e.estimate.Blur()
	e.estimate.SetValue("")
	e.comment.Blur()
	e.comment.Reset()
}

func (e *Editor) recompute() {
	e.layout = grid.ComputeLayout(e.draft.StartMinute, e.draft.DurationMinutes, e.draft.Date, e.surface.Range, e.surface.Config)
	e.revision++
}

// SetPixelsPerMinute changes the zoom. An active interaction keeps its anchor
// under the pointer.
func (e *Editor) SetPixelsPerMinute(ppm float64) {
	if ppm <= 0 {
		return
	}
	old := e.surface.Config.PixelsPerMinute
	e.interaction = Rescale(e.interaction, old, ppm)
	e.surface.Config.PixelsPerMinute = ppm
	if e.open {
		e.recompute()
	}
}

// SetGridOffsets sets the header height and hour-label gutter width.
func (e *Editor) SetGridOffsets(top, left int) {
	e.surface.Config.GridOffsetTop = top
	e.surface.Config.GridOffsetLeft = left
}

// SetDateRange applies a range the editor asked for with DateRangeRequestMsg.
// Host-initiated range changes go through VisibleDateRangeChangedMsg instead.
func (e *Editor) SetDateRange(r grid.DateRange) {
	e.surface.Range = r
	if e.open {
		e.recompute()
	}
}

func (e *Editor) SetViewport(vp grid.Viewport) {
	e.surface.Viewport = vp
}

// SetVisibleDays closes the editor when the draft's weekday is no longer shown.
func (e *Editor) SetVisibleDays(first, last time.Weekday) tea.Cmd {
	e.firstDay, e.lastDay = first, last
	if e.open && !e.dayVisible(e.draft.Date) {
		return e.Close()
	}
	return nil
}

// SetKeysDisabled suspends the keyboard contract while a modal is open.
func (e *Editor) SetKeysDisabled(disabled bool) {
	e.keysDisabled = disabled
}

func (e *Editor) dayVisible(date time.Time) bool {
	wd := date.Weekday()
	return wd >= e.firstDay && wd <= e.lastDay
}

// hitTest classifies a press against the panel as drawn in cells. Anchors
// are measured against the exact layout so an unmoved pointer maps back to
// the current start.
func (e *Editor) hitTest(x, y int) grid.Hit {
	cells := e.layout.Cells()
	hit := grid.HitTest(x, y, e.surface.Viewport, e.surface.Config, cells, handleSize)
	switch hit.Zone {
	case grid.ZoneBody, grid.ZoneTopHandle:
		hit.OffsetY += cells.OffsetTop - e.layout.OffsetTop
	case grid.ZoneBottomHandle:
		hit.OffsetY += cells.Bottom() - e.layout.Bottom()
	}
	return hit
}

// Contains reports whether a pointer at x, y is on the open panel.
func (e *Editor) Contains(x, y int) bool {
	return e.open && e.hitTest(x, y).Zone != grid.ZoneNone
}

// PointerDown starts a drag or stretch on a primary-button press on the
// panel. The bool reports whether the press landed on the panel.
func (e *Editor) PointerDown(msg tea.MouseMsg) (tea.Cmd, bool) {
	if !e.open || msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return nil, false
	}
	hit := e.hitTest(msg.X, msg.Y)
	if hit.Zone == grid.ZoneNone {
		return nil, false
	}
	if e.saving || Active(e.interaction) {
		return nil, true
	}

	e.interaction = interactionFor(hit)
	e.moveSub = e.bus.OnPointerMove(e.pointerMove)
	e.upSub = e.bus.OnPointerUp(e.pointerUp)
	return nil, true
}

func (e *Editor) pointerMove(msg tea.MouseMsg) tea.Cmd {
	if !Active(e.interaction) {
		return nil
	}
	b, changed := Move(e.interaction, e.draft.Bounds(), PointerFromMouse(msg), e.surface)
	if changed {
		e.draft.apply(b)
		e.recompute()
	}
	return nil
}

func (e *Editor) pointerUp(tea.MouseMsg) tea.Cmd {
	e.endInteraction()
	return nil
}

func (e *Editor) endInteraction() {
	e.interaction = Idle{}
	e.moveSub.Release()
	e.upSub.Release()
	e.moveSub, e.upSub = nil, nil
}

// Save persists the draft. It is ignored while a save is in flight.
func (e *Editor) Save() tea.Cmd {
	if !e.open || e.saving {
		return nil
	}
	e.saving = true
	e.saveErr = nil
	e.draft.Comment = e.comment.Value()

	w := e.draft.Worklog()
	session, store, timeout := e.session, e.store, e.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var saved *models.Worklog
		var err error
		if w.IsNew() {
			saved, err = store.CreateWorklog(ctx, w)
		} else {
			saved, err = store.UpdateWorklog(ctx, w)
		}
		return saveResultMsg{session: session, worklog: saved, err: err}
	}
}

func (e *Editor) fetchFullIssue(key string) tea.Cmd {
	session, source, timeout := e.session, e.issues, e.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		issue, err := source.FullIssue(ctx, key)
		return fullIssueMsg{session: session, key: key, issue: issue, err: err}
	}
}

// setEstimate stores the original estimate of key and reloads the issue so
// the warning clears.
func (e *Editor) setEstimate(key string, seconds int64) tea.Cmd {
	session, source, timeout := e.session, e.issues, e.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		err := source.SetOriginalEstimate(ctx, key, seconds)
		return estimateSetMsg{session: session, key: key, err: err}
	}
}

// Update handles the editor's messages and the host signals.
func (e *Editor) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case VisibleDateRangeChangedMsg:
		e.surface.Range = msg.Range
		return e.Close()

	case AuthenticatedUserChangedMsg:
		return e.Close()

	case IssuePickedMsg:
		return e.pick(msg)

	case fullIssueMsg:
		if msg.session != e.session || e.draft.Issue == nil || e.draft.Issue.Key != msg.key {
			return nil
		}
		if msg.err != nil {
			e.logger.Warn("loading issue failed", "key", msg.key, "error", msg.err)
			return nil
		}
		if msg.issue != nil {
			e.draft.Issue = msg.issue
		}
		if msg.issue == nil || !msg.issue.HasEstimate() {
			e.setWarning(MissingEstimateWarning)
		} else {
			e.setWarning("")
		}
		return nil

	case estimateSetMsg:
		if msg.session != e.session || e.draft.Issue == nil || e.draft.Issue.Key != msg.key {
			return nil
		}
		if msg.err != nil {
			e.estimateErr = msg.err
			e.logger.Warn("setting estimate failed", "key", msg.key, "error", msg.err)
			return nil
		}
		e.estimate.SetValue("")
		return e.fetchFullIssue(msg.key)

	case saveResultMsg:
		if msg.session != e.session {
			if msg.err != nil || msg.worklog == nil {
				e.logger.Debug("dropping save result of a closed session", "error", msg.err)
				return nil
			}
			// the draft stays discarded, the host still reloads the grid
			saved := msg.worklog
			return func() tea.Msg { return SavedMsg{Worklog: saved} }
		}
		e.saving = false
		if msg.err != nil {
			e.saveErr = msg.err
			e.logger.Warn("saving worklog failed", "id", e.draft.ID, "error", msg.err)
			return nil
		}
		saved := msg.worklog
		return tea.Batch(func() tea.Msg { return SavedMsg{Worklog: saved} }, e.Close())

	case searchDebounceMsg, searchResultMsg, refreshRequestMsg, shortlistMsg, favoriteToggledMsg:
		return e.picker.Update(msg)
	}
	return nil
}

func (e *Editor) pick(msg IssuePickedMsg) tea.Cmd {
	if !e.open {
		return nil
	}
	if msg.Close && e.overlay == overlayIssueCloud {
		e.closeOverlay()
	}

	e.draft.Issue = msg.Issue
	e.setWarning("")
	if msg.Issue == nil {
		return nil
	}
	return e.fetchFullIssue(msg.Issue.Key)
}

// setWarning shows or clears the missing estimate warning. The estimate
// field lives only as long as the warning.
func (e *Editor) setWarning(w string) {
	e.warning = w
	if w != "" {
		return
	}
	e.estimateErr = nil
	e.estimate.SetValue("")
	if e.focus == FocusEstimate {
		e.focus = FocusComment
		e.applyFocus()
	}
}

func (e *Editor) focusOrder() []Focus {
	var order []Focus
	if e.draft.IsNew() {
		order = []Focus{FocusDateToggle, FocusIssueToggle}
	} else {
		order = []Focus{FocusDateToggle}
	}
	if e.warning != "" {
		order = append(order, FocusEstimate)
	}
	if e.draft.IsNew() {
		order = append(order, FocusOwner)
	}
	return append(order, FocusComment, FocusSave, FocusCancel)
}

// moveFocus steps through the focus order. Leaving the owner field commits
// the filter.
func (e *Editor) moveFocus(step int) tea.Cmd {
	order := e.focusOrder()
	i := 0
	for j, f := range order {
		if f == e.focus {
			i = j
			break
		}
	}
	i = (i + step + len(order)) % len(order)

	var cmd tea.Cmd
	if e.focus == FocusOwner && order[i] != FocusOwner {
		cmd = e.commitOwner()
	}
	e.focus = order[i]
	e.applyFocus()
	return cmd
}

func (e *Editor) applyFocus() {
	if e.focus == FocusOwner {
		e.owner.Focus()
	} else {
		e.owner.Blur()
	}
	if e.focus == FocusEstimate {
		e.estimate.Focus()
	} else {
		e.estimate.Blur()
	}
	if e.focus == FocusComment {
		e.comment.Focus()
	} else {
		e.comment.Blur()
	}
}

func (e *Editor) commitOwner() tea.Cmd {
	value := strings.TrimSpace(e.owner.Value())
	if value == e.picker.Assignee() {
		return nil
	}
	return e.picker.SetAssignee(value)
}

func (e *Editor) openOverlay(o overlay) tea.Cmd {
	e.overlay = o
	switch o {
	case overlayDateCloud:
		e.cloudDate = e.draft.Date
	case overlayIssueCloud:
		return e.picker.Open()
	}
	return nil
}

// closeOverlay returns focus to the toggle of the cloud it closes.
func (e *Editor) closeOverlay() {
	switch e.overlay {
	case overlayDateCloud:
		e.focus = FocusDateToggle
	case overlayIssueCloud:
		e.picker.Close()
		e.focus = FocusIssueToggle
	}
	e.overlay = overlayNone
	e.applyFocus()
}

func (e *Editor) toggleOverlay(o overlay) tea.Cmd {
	if e.overlay == o {
		e.closeOverlay()
		return nil
	}
	if e.saving {
		return nil
	}
	if e.overlay != overlayNone {
		e.closeOverlay()
	}
	return e.openOverlay(o)
}

func (e *Editor) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if !e.open || e.keysDisabled {
		return nil, false
	}

	if key.Matches(msg, e.keys.Close) {
		if e.overlay != overlayNone {
			e.closeOverlay()
			return nil, true
		}
		return e.Close(), true
	}

	switch e.overlay {
	case overlayDateCloud:
		return e.handleDateCloudKey(msg), true
	case overlayIssueCloud:
		return e.picker.HandleKey(msg), true
	}

	switch {
	case key.Matches(msg, e.keys.Next):
		return e.moveFocus(1), true
	case key.Matches(msg, e.keys.Prev):
		return e.moveFocus(-1), true
	case key.Matches(msg, e.keys.ForceSave):
		return e.Save(), true
	}

	switch e.focus {
	case FocusOwner:
		return e.handleOwnerKey(msg), true
	case FocusEstimate:
		return e.handleEstimateKey(msg), true
	case FocusComment:
		var cmd tea.Cmd
		e.comment, cmd = e.comment.Update(msg)
		e.draft.Comment = e.comment.Value()
		return cmd, true
	}

	switch {
	case key.Matches(msg, e.keys.Toggle):
		switch e.focus {
		case FocusDateToggle:
			return e.toggleOverlay(overlayDateCloud), true
		case FocusIssueToggle:
			if e.draft.IsNew() {
				return e.toggleOverlay(overlayIssueCloud), true
			}
		}
		return nil, true
	case key.Matches(msg, e.keys.Save):
		if e.focus == FocusCancel {
			return e.Close(), true
		}
		return e.Save(), true
	}
	return nil, false
}

func (e *Editor) handleOwnerKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, e.keys.ClearOwner):
		e.owner.SetValue("")
		return e.commitOwner()
	case key.Matches(msg, e.keys.Save):
		return e.Save()
	}
	var cmd tea.Cmd
	e.owner, cmd = e.owner.Update(msg)
	return cmd
}

// handleEstimateKey submits the estimate on enter. Input is a Go duration
// such as 4h or 1h30m.
func (e *Editor) handleEstimateKey(msg tea.KeyMsg) tea.Cmd {
	if !key.Matches(msg, e.keys.Save) {
		var cmd tea.Cmd
		e.estimate, cmd = e.estimate.Update(msg)
		return cmd
	}
	if e.draft.Issue == nil {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(e.estimate.Value()))
	if err != nil || d < time.Minute {
		e.estimateErr = fmt.Errorf("invalid estimate %q", e.estimate.Value())
		return nil
	}
	e.estimateErr = nil
	return e.setEstimate(e.draft.Issue.Key, int64(d.Seconds()))
}

func (e *Editor) handleDateCloudKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, e.keys.CloudLeft):
		e.cloudDate = e.stepVisibleDay(e.cloudDate, -1)
	case key.Matches(msg, e.keys.CloudRight):
		e.cloudDate = e.stepVisibleDay(e.cloudDate, 1)
	case key.Matches(msg, e.keys.CloudUp):
		e.cloudDate = e.cloudDate.AddDate(0, 0, -7)
	case key.Matches(msg, e.keys.CloudDown):
		e.cloudDate = e.cloudDate.AddDate(0, 0, 7)
	case key.Matches(msg, e.keys.CloudToday):
		today := grid.Midnight(time.Now())
		if e.dayVisible(today) {
			e.cloudDate = today
		}
	case key.Matches(msg, e.keys.CloudSelect):
		return e.selectDate(e.cloudDate)
	}
	return nil
}

// stepVisibleDay moves by one day in dir, skipping hidden weekdays.
func (e *Editor) stepVisibleDay(date time.Time, dir int) time.Time {
	for range 7 {
		date = date.AddDate(0, 0, dir)
		if e.dayVisible(date) {
			return date
		}
	}
	return date
}

// selectDate moves the draft to date. A date outside the visible range asks
// the host for the week that holds it.
func (e *Editor) selectDate(date time.Time) tea.Cmd {
	date = grid.Midnight(date)
	e.closeOverlay()

	b := e.draft.Bounds()
	b.Date = date
	e.draft.apply(b)

	if e.surface.Range.Contains(date) {
		e.recompute()
		return nil
	}
	r := grid.Week(date, e.firstDay, e.lastDay)
	return func() tea.Msg { return DateRangeRequestMsg{Range: r} }
}
