package grid

import (
	"fmt"
	"time"
)

// FormatTime renders a minute of day as HH:MM. Minute 1440 renders as 24:00.
func FormatTime(minuteOfDay int) string {
	return fmt.Sprintf("%02d:%02d", minuteOfDay/60, minuteOfDay%60)
}

func FormatDate(date time.Time) string {
	return date.Format("Mon 02 Jan 2006")
}

// MinuteOfDay is the number of minutes since t's midnight.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// At returns the instant minuteOfDay minutes after date's midnight.
func At(date time.Time, minuteOfDay int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, minuteOfDay, 0, 0, date.Location())
}
