package editor

import (
	"time"

	"github.com/emilianohg/timegrid/internal/grid"
	"github.com/emilianohg/timegrid/internal/models"
)

// Draft is the worklog being edited. It lives for one editor session.
type Draft struct {
	ID              int64 // 0 for a new worklog
	Author          string
	Issue           *models.Issue
	Date            time.Time
	StartMinute     int
	DurationMinutes int
	Comment         string

	StartText string
	EndText   string
	DateText  string
}

// NewDraft copies w into a draft, forcing the start into the day and the
// duration positive.
func NewDraft(w models.Worklog) Draft {
	d := Draft{
		ID:      w.ID,
		Author:  w.Author,
		Issue:   w.Issue,
		Comment: w.Comment,
	}
	if d.Issue != nil {
		issue := *d.Issue
		d.Issue = &issue
	}

	started := w.Started
	if started.IsZero() {
		started = time.Now()
	}
	start := min(max(grid.MinuteOfDay(started), 0), grid.MinutesPerDay-1)
	d.apply(Bounds{
		Date:            grid.Midnight(started),
		StartMinute:     start,
		DurationMinutes: max(w.DurationMinutes, 1),
	})
	return d
}

func (d Draft) IsNew() bool {
	return d.ID == 0
}

func (d Draft) Bounds() Bounds {
	return Bounds{Date: d.Date, StartMinute: d.StartMinute, DurationMinutes: d.DurationMinutes}
}

// apply sets the time fields and refreshes the derived display strings.
func (d *Draft) apply(b Bounds) {
	d.Date = b.Date
	d.StartMinute = b.StartMinute
	d.DurationMinutes = b.DurationMinutes

	d.StartText = grid.FormatTime(b.StartMinute)
	d.EndText = grid.FormatTime(min(b.EndMinute(), grid.MinutesPerDay))
	d.DateText = grid.FormatDate(b.Date)
}

// Worklog returns the draft as a worklog ready to persist. The end is
// clamped to 24:00.
func (d Draft) Worklog() models.Worklog {
	w := models.Worklog{
		ID:              d.ID,
		Author:          d.Author,
		Started:         grid.At(d.Date, d.StartMinute),
		DurationMinutes: min(d.DurationMinutes, grid.MinutesPerDay-d.StartMinute),
		Comment:         d.Comment,
		Issue:           d.Issue,
	}
	if d.Issue != nil {
		id := d.Issue.ID
		w.IssueID = &id
	}
	return w
}
