package editor

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/timegrid/internal/models"
)

// TickFunc has the signature of tea.Tick. Tests swap it to fire debounces
// without waiting.
type TickFunc func(time.Duration, func(time.Time) tea.Msg) tea.Cmd

// IssuePickedMsg tells the editor which issue is the current pick. A nil
// Issue clears the pick. Close asks the editor to close the issue cloud.
type IssuePickedMsg struct {
	Issue *models.Issue
	Close bool
}

type searchDebounceMsg struct {
	gen uint64
}

type searchResultMsg struct {
	id     uint64
	query  string
	issues []models.Issue
	err    error
}

type refreshRequestMsg struct {
	gen  uint64
	pick bool
}

type shortlistMsg struct {
	gen  uint64
	pick bool
	list models.Shortlist
	err  error
}

type favoriteToggledMsg struct {
	key string
	err error
}

// Picker is the issue search box with its favorites and suggestions.
type Picker struct {
	source   IssueSource
	logger   *slog.Logger
	debounce time.Duration
	timeout  time.Duration
	tick     TickFunc

	input     textinput.Model
	assignee  string
	results   []models.Issue
	searching bool
	cursor    int

	favorites   []models.Issue
	suggestions []models.Issue

	// searchGen bumps on every edit of the box; a debounce tick only fires
	// when it still carries the current value. requestID is the latest
	// search sent to the source.
	searchGen uint64
	requestID uint64

	refreshGen  uint64
	pickPending bool
}

func NewPicker(source IssueSource, debounce, timeout time.Duration, logger *slog.Logger) *Picker {
	ti := textinput.New()
	ti.Placeholder = "Search issues"
	ti.CharLimit = 200
	ti.Width = 40
	ti.Cursor.SetMode(cursor.CursorStatic)

	return &Picker{
		source:   source,
		logger:   logger,
		debounce: debounce,
		timeout:  timeout,
		tick:     tea.Tick,
		input:    ti,
	}
}

func (p *Picker) Query() string {
	return strings.TrimSpace(p.input.Value())
}

func (p *Picker) Assignee() string {
	return p.assignee
}

func (p *Picker) Results() []models.Issue {
	return p.results
}

func (p *Picker) Searching() bool {
	return p.searching
}

func (p *Picker) Favorites() []models.Issue {
	return p.favorites
}

func (p *Picker) Suggestions() []models.Issue {
	return p.suggestions
}

func (p *Picker) isFavorite(key string) bool {
	for _, f := range p.favorites {
		if f.Key == key {
			return true
		}
	}
	return false
}

// SuggestionsToShow hides favorites from the suggestions unless an assignee
// filter is set.
func (p *Picker) SuggestionsToShow() []models.Issue {
	if p.assignee != "" {
		return p.suggestions
	}
	out := make([]models.Issue, 0, len(p.suggestions))
	for _, s := range p.suggestions {
		if !p.isFavorite(s.Key) {
			out = append(out, s)
		}
	}
	return out
}

// Visible is the list the highlight moves over: search results while the box
// has text, otherwise favorites followed by suggestions.
func (p *Picker) Visible() []models.Issue {
	if p.Query() != "" {
		return p.results
	}
	return append(append([]models.Issue{}, p.favorites...), p.SuggestionsToShow()...)
}

func (p *Picker) Highlighted() *models.Issue {
	visible := p.Visible()
	if p.cursor < 0 || p.cursor >= len(visible) {
		return nil
	}
	issue := visible[p.cursor]
	return &issue
}

// Open focuses the box and reloads favorites and suggestions for the cloud.
func (p *Picker) Open() tea.Cmd {
	p.cursor = 0
	p.input.Focus()
	return p.requestRefresh(false)
}

// Close clears the box, the results and both collections, and cancels a
// pending debounce. A search already in flight is left to the staleness
// check.
func (p *Picker) Close() {
	p.input.Blur()
	p.input.SetValue("")
	p.searchGen++
	p.results = nil
	p.searching = false
	p.favorites = nil
	p.suggestions = nil
	p.cursor = 0
}

// Reset ends the session: everything Close clears plus the assignee filter,
// and in-flight refreshes become stale.
func (p *Picker) Reset() {
	p.Close()
	p.assignee = ""
	p.refreshGen++
	p.pickPending = false
}

// SetAssignee commits the filter, then refreshes from a deferred command so
// the fetch sees the committed value.
func (p *Picker) SetAssignee(assignee string) tea.Cmd {
	p.assignee = strings.TrimSpace(assignee)
	return p.requestRefresh(true)
}

// Refresh reloads favorites and suggestions and emits the resulting pick.
func (p *Picker) Refresh() tea.Cmd {
	return p.requestRefresh(true)
}

func (p *Picker) requestRefresh(pick bool) tea.Cmd {
	p.refreshGen++
	// a newer refresh must not swallow the pick of the one it supersedes
	p.pickPending = p.pickPending || pick

	msg := refreshRequestMsg{gen: p.refreshGen, pick: p.pickPending}
	return func() tea.Msg { return msg }
}

func (p *Picker) fetchShortlist(gen uint64, pick bool, assignee string) tea.Cmd {
	source, timeout := p.source, p.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		list, err := source.FavoritesAndSuggestions(ctx, assignee)
		return shortlistMsg{gen: gen, pick: pick, list: list, err: err}
	}
}

func (p *Picker) search(id uint64, query, assignee string) tea.Cmd {
	source, timeout := p.source, p.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		issues, err := source.SearchIssues(ctx, query, assignee)
		return searchResultMsg{id: id, query: query, issues: issues, err: err}
	}
}

func (p *Picker) toggleFavorite(issue models.Issue) tea.Cmd {
	source, timeout, favorite := p.source, p.timeout, p.isFavorite(issue.Key)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var err error
		if favorite {
			err = source.RemoveFavorite(ctx, issue.Key)
		} else {
			err = source.AddFavorite(ctx, issue.Key)
		}
		return favoriteToggledMsg{key: issue.Key, err: err}
	}
}

// queryChanged restarts the debounce for the current box value.
func (p *Picker) queryChanged() tea.Cmd {
	p.searchGen++
	p.cursor = 0

	if p.Query() == "" {
		p.results = nil
		p.searching = false
		return nil
	}

	gen := p.searchGen
	return p.tick(p.debounce, func(time.Time) tea.Msg {
		return searchDebounceMsg{gen: gen}
	})
}

// HandleKey handles a key while the issue cloud is open.
func (p *Picker) HandleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "ctrl+p":
		if p.cursor > 0 {
			p.cursor--
		}
		return nil
	case "down", "ctrl+n":
		if p.cursor < len(p.Visible())-1 {
			p.cursor++
		}
		return nil
	case "enter":
		issue := p.Highlighted()
		if issue == nil {
			return nil
		}
		return func() tea.Msg { return IssuePickedMsg{Issue: issue, Close: true} }
	case "ctrl+f":
		issue := p.Highlighted()
		if issue == nil {
			return nil
		}
		return p.toggleFavorite(*issue)
	}

	before := p.input.Value()
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	if p.input.Value() == before {
		return cmd
	}
	return tea.Batch(cmd, p.queryChanged())
}

// Update handles the picker's own messages.
func (p *Picker) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case searchDebounceMsg:
		if msg.gen != p.searchGen {
			return nil
		}
		query := p.Query()
		if query == "" {
			return nil
		}
		p.requestID++
		p.searching = true
		return p.search(p.requestID, query, p.assignee)

	case searchResultMsg:
		if msg.id != p.requestID {
			p.logger.Debug("dropping stale search result", "query", msg.query)
			return nil
		}
		p.searching = false
		if p.Query() == "" {
			p.logger.Debug("dropping search result for cleared box", "query", msg.query)
			return nil
		}
		if msg.err != nil {
			p.logger.Warn("issue search failed", "query", msg.query, "error", msg.err)
			return nil
		}
		p.results = msg.issues
		p.cursor = min(p.cursor, max(0, len(p.results)-1))
		return nil

	case refreshRequestMsg:
		if msg.gen != p.refreshGen {
			return nil
		}
		return p.fetchShortlist(msg.gen, msg.pick, p.assignee)

	case shortlistMsg:
		if msg.gen != p.refreshGen {
			p.logger.Debug("dropping stale favorites and suggestions")
			return nil
		}
		if msg.err != nil {
			p.logger.Warn("loading favorites and suggestions failed", "assignee", p.assignee, "error", msg.err)
			return nil
		}
		p.favorites = msg.list.Favorites
		p.suggestions = msg.list.Suggestions
		p.pickPending = false
		if !msg.pick {
			return nil
		}

		var picked *models.Issue
		if shown := p.SuggestionsToShow(); len(shown) > 0 {
			issue := shown[0]
			picked = &issue
		}
		return func() tea.Msg { return IssuePickedMsg{Issue: picked} }

	case favoriteToggledMsg:
		if msg.err != nil {
			p.logger.Warn("toggling favorite failed", "key", msg.key, "error", msg.err)
			return nil
		}
		return p.requestRefresh(false)
	}

	return nil
}
