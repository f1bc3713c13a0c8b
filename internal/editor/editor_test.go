package editor

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilianohg/timegrid/internal/events"
	"github.com/emilianohg/timegrid/internal/grid"
	"github.com/emilianohg/timegrid/internal/models"
)

var (
	issue1 = models.Issue{ID: 1, Key: "WEB-1", Summary: "Login form", Assignee: "alice", OriginalEstimateSeconds: 3600}
	issue2 = models.Issue{ID: 2, Key: "WEB-2", Summary: "Rate limit", Assignee: "alice"}
	issue3 = models.Issue{ID: 3, Key: "OPS-3", Summary: "Certificates", Assignee: "bob", OriginalEstimateSeconds: 7200}
)

type fakeSource struct {
	searches    []string
	shortlists  []string
	fullIssues  []string
	estimates   map[string]int64
	estimateErr error

	searchResults map[string][]models.Issue
	shortlist     map[string]models.Shortlist
	issues        map[string]*models.Issue
	favorites     map[string]bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		searchResults: map[string][]models.Issue{},
		shortlist:     map[string]models.Shortlist{},
		issues: map[string]*models.Issue{
			issue1.Key: &issue1,
			issue2.Key: &issue2,
			issue3.Key: &issue3,
		},
		favorites: map[string]bool{},
		estimates: map[string]int64{},
	}
}

func (f *fakeSource) SearchIssues(_ context.Context, query, _ string) ([]models.Issue, error) {
	f.searches = append(f.searches, query)
	return f.searchResults[query], nil
}

func (f *fakeSource) FavoritesAndSuggestions(_ context.Context, assignee string) (models.Shortlist, error) {
	f.shortlists = append(f.shortlists, assignee)
	return f.shortlist[assignee], nil
}

func (f *fakeSource) FullIssue(_ context.Context, key string) (*models.Issue, error) {
	f.fullIssues = append(f.fullIssues, key)
	return f.issues[key], nil
}

func (f *fakeSource) SetOriginalEstimate(_ context.Context, key string, seconds int64) error {
	if f.estimateErr != nil {
		return f.estimateErr
	}
	f.estimates[key] = seconds
	issue := *f.issues[key]
	issue.OriginalEstimateSeconds = seconds
	f.issues[key] = &issue
	return nil
}

func (f *fakeSource) AddFavorite(_ context.Context, key string) error {
	f.favorites[key] = true
	return nil
}

func (f *fakeSource) RemoveFavorite(_ context.Context, key string) error {
	delete(f.favorites, key)
	return nil
}

type fakeStore struct {
	created []models.Worklog
	updated []models.Worklog
	err     error
}

func (f *fakeStore) CreateWorklog(_ context.Context, w models.Worklog) (*models.Worklog, error) {
	f.created = append(f.created, w)
	if f.err != nil {
		return nil, f.err
	}
	w.ID = 100
	return &w, nil
}

func (f *fakeStore) UpdateWorklog(_ context.Context, w models.Worklog) (*models.Worklog, error) {
	f.updated = append(f.updated, w)
	if f.err != nil {
		return nil, f.err
	}
	return &w, nil
}

// manualTicker holds debounce ticks until the test fires them.
type manualTicker struct {
	pending []func(time.Time) tea.Msg
}

func (m *manualTicker) tick(_ time.Duration, fn func(time.Time) tea.Msg) tea.Cmd {
	m.pending = append(m.pending, fn)
	return nil
}

func (m *manualTicker) fire() []tea.Msg {
	msgs := make([]tea.Msg, 0, len(m.pending))
	for _, fn := range m.pending {
		msgs = append(msgs, fn(time.Now()))
	}
	m.pending = nil
	return msgs
}

// collect runs cmd and flattens batches into their messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, collect(c)...)
		}
		return out
	default:
		return []tea.Msg{msg}
	}
}

// outbox is what the editor emitted to its host.
type outbox struct {
	closed int
	saved  []*models.Worklog
	ranges []grid.DateRange
}

// pump runs cmd and feeds every resulting message back into the editor until
// nothing is left.
func pump(e *Editor, cmd tea.Cmd) outbox {
	var out outbox
	queue := collect(cmd)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]

		switch m := msg.(type) {
		case ClosedMsg:
			out.closed++
		case SavedMsg:
			out.saved = append(out.saved, m.Worklog)
		case DateRangeRequestMsg:
			out.ranges = append(out.ranges, m.Range)
		default:
			queue = append(queue, collect(e.Update(msg))...)
		}
	}
	return out
}

type harness struct {
	bus    *events.Bus
	source *fakeSource
	store  *fakeStore
	ticker *manualTicker
	e      *Editor
}

// newHarness builds an editor on a 6-rows-per-hour grid with a two-row header
// and a six-column gutter; each weekday column is 20 cells wide.
func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		bus:    events.NewBus(),
		source: newFakeSource(),
		store:  &fakeStore{},
		ticker: &manualTicker{},
	}
	h.e = New(Options{
		Bus:            h.bus,
		Issues:         h.source,
		Worklogs:       h.store,
		Grid:           grid.Config{PixelsPerMinute: 0.1, GridOffsetTop: 2, GridOffsetLeft: 6},
		Range:          week,
		FirstDay:       time.Monday,
		LastDay:        time.Friday,
		Debounce:       250 * time.Millisecond,
		RequestTimeout: time.Second,
	})
	h.e.SetViewport(grid.Viewport{ScrollWidth: 106})
	h.e.picker.tick = h.ticker.tick
	return h
}

func modelsWorklog(started time.Time, minutes int) models.Worklog {
	return models.Worklog{Author: "alice", Started: started, DurationMinutes: minutes}
}

// existing is Tuesday 09:00-10:00 on WEB-1: rows 56-61, columns 26-45.
func existing() models.Worklog {
	w := modelsWorklog(monday.AddDate(0, 0, 1).Add(9*time.Hour), 60)
	w.ID = 7
	issue := issue1
	w.IssueID = &issue.ID
	w.Issue = &issue
	return w
}

func (h *harness) open(w models.Worklog) outbox {
	return pump(h.e, h.e.Open(w))
}

func (h *harness) key(msg tea.KeyMsg) (outbox, bool) {
	cmd, ok := h.bus.DispatchKey(msg)
	return pump(h.e, cmd), ok
}

func (h *harness) typeText(s string) {
	for _, r := range s {
		h.key(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *harness) press(x, y int) bool {
	cmd, ok := h.e.PointerDown(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	pump(h.e, cmd)
	return ok
}

func (h *harness) move(x, y int) {
	cmd, _ := h.bus.DispatchPointer(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	pump(h.e, cmd)
}

func (h *harness) release(x, y int) {
	cmd, _ := h.bus.DispatchPointer(tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonNone})
	pump(h.e, cmd)
}

var (
	keyEsc      = tea.KeyMsg{Type: tea.KeyEsc}
	keyEnter    = tea.KeyMsg{Type: tea.KeyEnter}
	keyAltEnter = tea.KeyMsg{Type: tea.KeyEnter, Alt: true}
	keySpace    = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyTab      = tea.KeyMsg{Type: tea.KeyTab}
	keyDown     = tea.KeyMsg{Type: tea.KeyDown}
)

func TestEditor_OpenRegistersOneKeyListener(t *testing.T) {
	h := newHarness(t)

	h.open(existing())
	assert.Equal(t, events.Counts{Key: 1}, h.bus.Counts())

	h.open(existing())
	assert.Equal(t, events.Counts{Key: 1}, h.bus.Counts(), "reopening replaces the session listener")

	out := pump(h.e, h.e.Close())
	assert.Equal(t, 1, out.closed)
	assert.Zero(t, h.bus.Counts().Total())
	assert.Nil(t, h.e.Close(), "closing twice emits nothing")
}

func TestEditor_ListenersDoNotAccumulateAcrossDrags(t *testing.T) {
	h := newHarness(t)
	h.open(existing())

	for range 5 {
		require.True(t, h.press(30, 58))
		assert.Equal(t, events.Counts{Key: 1, PointerMove: 1, PointerUp: 1}, h.bus.Counts())
		h.move(30, 60)
		h.release(30, 60)
		assert.Equal(t, events.Counts{Key: 1}, h.bus.Counts())
	}

	require.True(t, h.press(30, 58))
	pump(h.e, h.e.Close())
	assert.Zero(t, h.bus.Counts().Total(), "closing mid-drag releases pointer listeners")
}

func TestEditor_DragMovesDraftAndSkipsNoOpMoves(t *testing.T) {
	h := newHarness(t)
	h.open(existing())

	require.True(t, h.press(30, 58))
	assert.Equal(t, Dragging{OffsetX: 4, OffsetY: 2}, h.e.Interaction())

	rev := h.e.Revision()
	h.move(30, 64)
	assert.Equal(t, 600, h.e.Draft().StartMinute)
	assert.Equal(t, "10:00", h.e.Draft().StartText)
	assert.Equal(t, "11:00", h.e.Draft().EndText)
	assert.Equal(t, rev+1, h.e.Revision())

	h.move(30, 64)
	assert.Equal(t, rev+1, h.e.Revision(), "no-op move must not recompute")

	h.move(50, 64)
	assert.True(t, h.e.Draft().Date.Equal(monday.AddDate(0, 0, 2)))
	assert.Equal(t, "Wed 04 Mar 2026", h.e.Draft().DateText)
	assert.InDelta(t, 0.4, h.e.Layout().OffsetLeft, 1e-9)

	h.move(500, 500)
	assert.True(t, h.e.Draft().Date.Equal(week.End), "date is clamped to the visible range")
	assert.Equal(t, grid.MinutesPerDay-60, h.e.Draft().StartMinute)

	h.release(500, 500)
	assert.Equal(t, Idle{}, h.e.Interaction())
}

func TestEditor_StretchTopFromHandle(t *testing.T) {
	h := newHarness(t)
	h.open(existing())

	require.True(t, h.press(30, 56))
	require.IsType(t, StretchingTop{}, h.e.Interaction())

	h.move(30, 65) // 10:30, past the end
	assert.Equal(t, 595, h.e.Draft().StartMinute)
	assert.Equal(t, 5, h.e.Draft().DurationMinutes)
	assert.Equal(t, "10:00", h.e.Draft().EndText)
}

func TestEditor_StretchBottomFromHandle(t *testing.T) {
	h := newHarness(t)
	h.open(existing())

	require.True(t, h.press(30, 61))
	require.IsType(t, StretchingBottom{}, h.e.Interaction())

	h.move(30, 70)
	assert.Equal(t, 540, h.e.Draft().StartMinute)
	assert.Equal(t, 150, h.e.Draft().DurationMinutes)
}

func TestEditor_DragShortWorklog(t *testing.T) {
	h := newHarness(t)
	w := existing()
	w.DurationMinutes = 15 // rows 56-57
	h.open(w)

	require.True(t, h.press(30, 56))
	assert.Equal(t, Dragging{OffsetX: 4, OffsetY: 0}, h.e.Interaction())

	h.move(30, 62)
	assert.Equal(t, 600, h.e.Draft().StartMinute)
	assert.Equal(t, 15, h.e.Draft().DurationMinutes)
	h.release(30, 62)

	require.True(t, h.press(30, 63))
	assert.IsType(t, StretchingBottom{}, h.e.Interaction(), "the lower row stretches")
	h.release(30, 63)

	w.DurationMinutes = 10 // one row
	h.open(w)
	require.True(t, h.press(30, 56))
	assert.IsType(t, Dragging{}, h.e.Interaction())
}

func TestEditor_PointerDownIgnoresOtherButtonsAndMisses(t *testing.T) {
	h := newHarness(t)
	h.open(existing())

	_, ok := h.e.PointerDown(tea.MouseMsg{X: 30, Y: 58, Action: tea.MouseActionPress, Button: tea.MouseButtonRight})
	assert.False(t, ok)
	assert.False(t, h.press(70, 58), "press on another day")
	assert.Equal(t, Idle{}, h.e.Interaction())
	assert.Equal(t, events.Counts{Key: 1}, h.bus.Counts())
}

func TestEditor_ZoomRescalesAnchorMidDrag(t *testing.T) {
	h := newHarness(t)
	h.open(existing())

	require.True(t, h.press(30, 58))
	h.e.SetPixelsPerMinute(0.2)

	d, ok := h.e.Interaction().(Dragging)
	require.True(t, ok)
	assert.InDelta(t, 4.0, d.OffsetY, 1e-9)
	assert.InDelta(t, 108.0, h.e.Layout().OffsetTop, 1e-9)

	// grabbing point re-rendered at row 112+2; pointing there keeps 09:00
	h.move(30, 114)
	assert.Equal(t, 540, h.e.Draft().StartMinute)
}

func TestEditor_SaveUpdatesExistingAndCloses(t *testing.T) {
	h := newHarness(t)
	h.open(existing())

	out, ok := h.key(keyEnter)
	require.True(t, ok)
	require.Len(t, h.store.updated, 1)
	assert.Empty(t, h.store.created)
	assert.Equal(t, int64(7), h.store.updated[0].ID)
	assert.Equal(t, 1, out.closed)
	require.Len(t, out.saved, 1)
	assert.False(t, h.e.IsOpen())
	assert.False(t, h.e.Saving())
}

func TestEditor_SaveFailureKeepsDraft(t *testing.T) {
	h := newHarness(t)
	h.store.err = errors.New("remote said no")
	h.open(existing())

	cmd := h.e.Save()
	require.NotNil(t, cmd)
	assert.True(t, h.e.Saving())
	assert.Nil(t, h.e.Save(), "no second save while one is in flight")

	_, ok := h.e.PointerDown(tea.MouseMsg{X: 30, Y: 58, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.True(t, ok)
	assert.Equal(t, Idle{}, h.e.Interaction(), "no drag while saving")

	out := pump(h.e, cmd)
	assert.Zero(t, out.closed)
	assert.True(t, h.e.IsOpen())
	assert.False(t, h.e.Saving())
	assert.EqualError(t, h.e.SaveError(), "remote said no")
	assert.Len(t, h.store.updated, 1, "never retried")
}

func TestEditor_SaveResultOfClosedSessionIsDropped(t *testing.T) {
	h := newHarness(t)
	h.open(existing())

	cmd := h.e.Save()
	pump(h.e, h.e.Close())
	h.open(existing())

	out := pump(h.e, cmd)
	assert.Zero(t, out.closed)
	assert.True(t, h.e.IsOpen())
	assert.False(t, h.e.Saving())
	require.Len(t, out.saved, 1, "the host still reloads after a save it no longer waits for")
	assert.Equal(t, int64(7), out.saved[0].ID)
}

func TestEditor_FailedSaveOfClosedSessionIsSilent(t *testing.T) {
	h := newHarness(t)
	h.store.err = errors.New("remote said no")
	h.open(existing())

	cmd := h.e.Save()
	pump(h.e, h.e.Close())

	out := pump(h.e, cmd)
	assert.Empty(t, out.saved)
	assert.Nil(t, h.e.SaveError())
}

func TestEditor_HostSignalsClose(t *testing.T) {
	h := newHarness(t)

	h.open(existing())
	out := pump(h.e, h.e.Update(AuthenticatedUserChangedMsg{User: "bob"}))
	assert.Equal(t, 1, out.closed)
	assert.False(t, h.e.IsOpen())
	assert.Zero(t, h.bus.Counts().Total())

	h.open(existing())
	out = pump(h.e, h.e.Update(VisibleDateRangeChangedMsg{Range: week.Shift(1)}))
	assert.Equal(t, 1, out.closed)
	assert.Zero(t, h.bus.Counts().Total())
}

func TestEditor_HidingDraftWeekdayCloses(t *testing.T) {
	h := newHarness(t)
	h.open(existing())

	assert.Nil(t, h.e.SetVisibleDays(time.Monday, time.Thursday))
	out := pump(h.e, h.e.SetVisibleDays(time.Wednesday, time.Friday))
	assert.Equal(t, 1, out.closed)
}

func TestEditor_SetEstimateClearsWarning(t *testing.T) {
	h := newHarness(t)
	w := existing()
	issue := issue2
	w.IssueID = &issue.ID
	w.Issue = &issue
	h.open(w)
	require.Equal(t, MissingEstimateWarning, h.e.Warning())

	h.key(keyTab)
	require.Equal(t, FocusEstimate, h.e.Focus())

	h.typeText("soon")
	h.key(keyEnter)
	assert.Error(t, h.e.EstimateError())
	assert.Empty(t, h.source.estimates)

	h.key(tea.KeyMsg{Type: tea.KeyCtrlU})
	for range 4 {
		h.key(tea.KeyMsg{Type: tea.KeyBackspace})
	}
	h.typeText("1h30m")
	out, _ := h.key(keyEnter)
	assert.Zero(t, out.closed, "enter in the estimate field does not save")
	assert.Empty(t, h.store.updated)
	assert.Equal(t, map[string]int64{"WEB-2": 5400}, h.source.estimates)
	assert.Equal(t, []string{"WEB-2", "WEB-2"}, h.source.fullIssues, "the issue is fetched again")
	assert.Empty(t, h.e.Warning())
	assert.NoError(t, h.e.EstimateError())
	assert.Equal(t, FocusComment, h.e.Focus(), "focus leaves the vanished field")
	assert.Equal(t, int64(5400), h.e.Draft().Issue.OriginalEstimateSeconds)
}

func TestEditor_SetEstimateFailureKeepsWarning(t *testing.T) {
	h := newHarness(t)
	h.source.estimateErr = errors.New("read only")
	w := existing()
	issue := issue2
	w.Issue = &issue
	h.open(w)

	h.key(keyTab)
	h.typeText("2h")
	h.key(keyEnter)
	assert.EqualError(t, h.e.EstimateError(), "read only")
	assert.Equal(t, MissingEstimateWarning, h.e.Warning())
	assert.Equal(t, FocusEstimate, h.e.Focus())
}

func TestEditor_CloudsStayShutWhileSaving(t *testing.T) {
	h := newHarness(t)
	h.open(existing())

	require.NotNil(t, h.e.Save())
	require.True(t, h.e.Saving())
	h.key(keySpace)
	assert.False(t, h.e.DateCloudOpen())
}

func TestEditor_EscapeClosesCloudThenEditor(t *testing.T) {
	h := newHarness(t)
	h.open(existing())
	require.Equal(t, FocusDateToggle, h.e.Focus())

	h.key(keySpace)
	require.True(t, h.e.DateCloudOpen())

	out, _ := h.key(keyEsc)
	assert.False(t, h.e.DateCloudOpen())
	assert.True(t, h.e.IsOpen())
	assert.Zero(t, out.closed)
	assert.Equal(t, FocusDateToggle, h.e.Focus())

	out, _ = h.key(keyEsc)
	assert.Equal(t, 1, out.closed)
	assert.False(t, h.e.IsOpen())
}

func TestEditor_SpaceOnlyTogglesFromToggleFocus(t *testing.T) {
	h := newHarness(t)
	h.open(existing())

	h.key(keyTab) // comment: existing worklogs skip issue and owner
	require.Equal(t, FocusComment, h.e.Focus())
	h.key(keySpace)
	assert.False(t, h.e.DateCloudOpen())
	assert.Equal(t, " ", h.e.Draft().Comment)

	h.key(keyTab)
	require.Equal(t, FocusSave, h.e.Focus())
	h.key(keySpace)
	assert.False(t, h.e.DateCloudOpen())
	assert.False(t, h.e.IssueCloudOpen())
}

func TestEditor_EnterRules(t *testing.T) {
	t.Run("cancel button cancels", func(t *testing.T) {
		h := newHarness(t)
		h.open(existing())
		h.key(tea.KeyMsg{Type: tea.KeyShiftTab})
		require.Equal(t, FocusCancel, h.e.Focus())

		out, _ := h.key(keyEnter)
		assert.Equal(t, 1, out.closed)
		assert.Empty(t, h.store.updated)
	})

	t.Run("comment takes a newline", func(t *testing.T) {
		h := newHarness(t)
		h.open(existing())
		h.key(keyTab)
		require.Equal(t, FocusComment, h.e.Focus())

		h.typeText("a")
		h.key(keyEnter)
		h.typeText("b")
		assert.Equal(t, "a\nb", h.e.Draft().Comment)
		assert.Empty(t, h.store.updated)

		out, _ := h.key(keyAltEnter)
		assert.Equal(t, 1, out.closed)
		require.Len(t, h.store.updated, 1)
		assert.Equal(t, "a\nb", h.store.updated[0].Comment)
	})

	t.Run("open cloud swallows enter", func(t *testing.T) {
		h := newHarness(t)
		h.open(existing())
		h.key(keySpace)
		require.True(t, h.e.DateCloudOpen())

		out, _ := h.key(keyEnter)
		assert.Zero(t, out.closed)
		assert.Empty(t, h.store.updated)
		assert.False(t, h.e.DateCloudOpen(), "enter picked the highlighted date")
	})
}

func TestEditor_KeysDisabledWhileModalOpen(t *testing.T) {
	h := newHarness(t)
	h.open(existing())

	h.e.SetKeysDisabled(true)
	_, ok := h.key(keyEsc)
	assert.False(t, ok)
	assert.True(t, h.e.IsOpen())

	h.e.SetKeysDisabled(false)
	out, ok := h.key(keyEsc)
	assert.True(t, ok)
	assert.Equal(t, 1, out.closed)
}

func TestEditor_DateCloudOutsideRangeRequestsWeek(t *testing.T) {
	h := newHarness(t)
	h.open(existing())

	h.key(keySpace)
	h.key(keyDown)
	out, _ := h.key(keyEnter)

	next := monday.AddDate(0, 0, 7)
	require.Len(t, out.ranges, 1)
	assert.True(t, out.ranges[0].Equal(grid.NewDateRange(next, next.AddDate(0, 0, 4))))
	assert.True(t, h.e.Draft().Date.Equal(next.AddDate(0, 0, 1)))
	assert.True(t, h.e.IsOpen())

	h.e.SetDateRange(out.ranges[0])
	assert.InDelta(t, 0.2, h.e.Layout().OffsetLeft, 1e-9)
}

func TestEditor_DateCloudSkipsHiddenWeekdays(t *testing.T) {
	h := newHarness(t)
	w := existing()
	w.Started = monday.AddDate(0, 0, 4).Add(9 * time.Hour) // Friday
	h.open(w)

	h.key(keySpace)
	h.key(tea.KeyMsg{Type: tea.KeyRight})
	out, _ := h.key(keyEnter)

	require.Len(t, out.ranges, 1)
	assert.Equal(t, time.Monday, h.e.Draft().Date.Weekday())
}

func TestEditor_NewWorklogPicksTopSuggestion(t *testing.T) {
	h := newHarness(t)
	h.source.shortlist[""] = models.Shortlist{
		Favorites:   []models.Issue{issue1},
		Suggestions: []models.Issue{issue1, issue2},
	}

	h.open(modelsWorklog(monday.Add(9*time.Hour), 30))

	require.NotNil(t, h.e.Draft().Issue)
	assert.Equal(t, "WEB-2", h.e.Draft().Issue.Key, "favorites are skipped without an owner filter")
	assert.Equal(t, []string{"WEB-2"}, h.source.fullIssues)
	assert.Equal(t, MissingEstimateWarning, h.e.Warning())
	assert.Equal(t, FocusIssueToggle, h.e.Focus())
}

func TestEditor_EmptySuggestionsClearPick(t *testing.T) {
	h := newHarness(t)
	w := modelsWorklog(monday.Add(9*time.Hour), 30)
	issue := issue1
	w.Issue = &issue

	h.open(w)
	assert.Nil(t, h.e.Draft().Issue)
	assert.Empty(t, h.e.Warning())
}

func TestEditor_OwnerCommitsOnBlur(t *testing.T) {
	h := newHarness(t)
	h.source.shortlist["bob"] = models.Shortlist{
		Favorites:   []models.Issue{issue3},
		Suggestions: []models.Issue{issue3},
	}
	h.open(modelsWorklog(monday.Add(9*time.Hour), 30))

	h.key(keyTab)
	require.Equal(t, FocusOwner, h.e.Focus())
	h.typeText("bob")
	assert.Equal(t, []string{""}, h.source.shortlists, "typing alone does not refresh")

	h.key(keyTab)
	assert.Equal(t, []string{"", "bob"}, h.source.shortlists)
	require.NotNil(t, h.e.Draft().Issue)
	assert.Equal(t, "OPS-3", h.e.Draft().Issue.Key, "with an owner the first suggestion wins even if favorite")
	assert.Empty(t, h.e.Warning())

	h.key(tea.KeyMsg{Type: tea.KeyShiftTab})
	h.key(tea.KeyMsg{Type: tea.KeyCtrlU})
	assert.Equal(t, []string{"", "bob", ""}, h.source.shortlists)
	assert.Nil(t, h.e.Draft().Issue)
}

func TestEditor_IssueCloudPicksHighlighted(t *testing.T) {
	h := newHarness(t)
	h.source.shortlist[""] = models.Shortlist{Suggestions: []models.Issue{issue1, issue2}}
	h.open(modelsWorklog(monday.Add(9*time.Hour), 30))
	require.Equal(t, "WEB-1", h.e.Draft().Issue.Key)

	h.key(keySpace)
	require.True(t, h.e.IssueCloudOpen())
	assert.Len(t, h.e.Picker().Visible(), 2)

	h.key(keyDown)
	out, _ := h.key(keyEnter)
	assert.Zero(t, out.closed)
	assert.Empty(t, h.store.created, "enter in the cloud picks, it does not save")
	assert.False(t, h.e.IssueCloudOpen())
	assert.Equal(t, "WEB-2", h.e.Draft().Issue.Key)
	assert.Empty(t, h.e.Picker().Favorites(), "closing the cloud resets its collections")

	out, _ = h.key(keyEnter)
	require.Len(t, h.store.created, 1)
	require.NotNil(t, h.store.created[0].IssueID)
	assert.Equal(t, int64(2), *h.store.created[0].IssueID)
	assert.Equal(t, 1, out.closed)
}

func TestEditor_IssueCloudOnlyForNewWorklogs(t *testing.T) {
	h := newHarness(t)
	h.open(existing())

	for range len(h.e.focusOrder()) {
		assert.NotEqual(t, FocusIssueToggle, h.e.Focus())
		h.key(keyTab)
	}
	assert.Equal(t, []string{"WEB-1"}, h.source.fullIssues)
	assert.Empty(t, h.source.shortlists, "existing worklogs do not load suggestions")
	assert.Empty(t, h.e.Warning())
}

func TestPanelHue(t *testing.T) {
	parent := int64(1)
	child := models.Issue{ID: 42, ParentID: &parent}

	assert.Equal(t, PanelHue(&models.Issue{ID: 1}), PanelHue(&child))
	assert.Equal(t, 222.0, PanelHue(&models.Issue{ID: 1}))
	assert.NotEqual(t, PanelColor(nil), PanelColor(&child))
}
