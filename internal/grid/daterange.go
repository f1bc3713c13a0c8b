package grid

import (
	"math"
	"time"
)

// DateRange is the visible horizontal span of the grid. Both ends are
// midnight-aligned and Start is never after End.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func NewDateRange(start, end time.Time) DateRange {
	start, end = Midnight(start), Midnight(end)
	if end.Before(start) {
		start, end = end, start
	}
	return DateRange{Start: start, End: end}
}

// Week returns the range covering the weekdays first..last of date's week,
// weeks starting on Sunday.
func Week(date time.Time, first, last time.Weekday) DateRange {
	d := Midnight(date)
	start := d.AddDate(0, 0, int(first)-int(d.Weekday()))
	end := start.AddDate(0, 0, int(last)-int(first))
	return NewDateRange(start, end)
}

// Midnight truncates t to the start of its day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween rounds so DST shifts never change the day count.
func daysBetween(from, to time.Time) int {
	return int(math.Round(float64(to.Sub(from)) / float64(day)))
}

// Days is the number of day columns in the range.
func (r DateRange) Days() int {
	return daysBetween(r.Start, r.End) + 1
}

// DayIndex is the column of date, negative or past the end when date is
// outside the range.
func (r DateRange) DayIndex(date time.Time) int {
	return daysBetween(r.Start, date)
}

// DayWidthFraction is the width of one day column as a fraction of the grid.
func (r DateRange) DayWidthFraction() float64 {
	return 1 / float64(r.Days())
}

func (r DateRange) Contains(date time.Time) bool {
	return !date.Before(r.Start) && !date.After(r.End)
}

func (r DateRange) Clamp(date time.Time) time.Time {
	if date.Before(r.Start) {
		return r.Start
	}
	if date.After(r.End) {
		return r.End
	}
	return date
}

// Shift moves the range by whole weeks.
func (r DateRange) Shift(weeks int) DateRange {
	return DateRange{Start: r.Start.AddDate(0, 0, 7*weeks), End: r.End.AddDate(0, 0, 7*weeks)}
}

func (r DateRange) Equal(o DateRange) bool {
	return r.Start.Equal(o.Start) && r.End.Equal(o.End)
}
