// Package grid maps pointer positions on the days × minutes-of-day grid to
// snapped times and dates, and worklog time bounds back to panel geometry.
// Every function here is pure; callers own all clamping policy.
package grid

import (
	"math"
	"time"
)

const (
	// MinutesPerDay is the height of a day column in minutes.
	MinutesPerDay = 1440
	// DefaultSnap is the snap interval when no single modifier is held.
	DefaultSnap = 5

	day = 24 * time.Hour
)

// Config describes how minutes map onto the grid surface. One pixel is one
// terminal cell.
type Config struct {
	PixelsPerMinute float64
	GridOffsetTop   int // rows above minute 0 (header)
	GridOffsetLeft  int // columns left of the first day (hour labels)
}

// DayHeight is the full height of a day column.
func (c Config) DayHeight() float64 {
	return MinutesPerDay * c.PixelsPerMinute
}

// Viewport is the scroll state of the grid element. ScrollWidth includes the
// hour-label gutter.
type Viewport struct {
	ScrollTop   int
	ScrollLeft  int
	ScrollWidth int
}

// Modifiers held while the pointer moves.
type Modifiers struct {
	Alt   bool
	Ctrl  bool
	Shift bool
}

// SnapIntervalFor maps held modifiers to a snap interval in minutes. Exactly
// one modifier selects its interval; anything else snaps to 5 minutes.
func SnapIntervalFor(m Modifiers) int {
	switch {
	case m.Alt && !m.Ctrl && !m.Shift:
		return 1
	case !m.Alt && m.Ctrl && !m.Shift:
		return 60
	case !m.Alt && !m.Ctrl && m.Shift:
		return 15
	default:
		return DefaultSnap
	}
}

// roundHalfUp rounds .5 towards +Inf so results stay monotonic across zero.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// PointerToMinuteOfDay returns the minute of day the pointer points at,
// rounded to snapTo. yOffset is the anchor captured when the interaction
// started. The result is not clamped.
func PointerToMinuteOfDay(pointerY, scrollTop int, yOffset float64, cfg Config, snapTo int) int {
	if snapTo <= 0 {
		snapTo = 1
	}
	y := float64(pointerY+scrollTop-cfg.GridOffsetTop) - yOffset
	return roundHalfUp(y/cfg.PixelsPerMinute/float64(snapTo)) * snapTo
}

// PointerToDate returns the day column the pointer points at. xOffset is the
// pointer offset within the panel captured at drag start. The result is not
// clamped to the range.
func PointerToDate(pointerX int, vp Viewport, xOffset float64, cfg Config, r DateRange) time.Time {
	pixelsPerDay := float64(vp.ScrollWidth-cfg.GridOffsetLeft) * r.DayWidthFraction()
	if pixelsPerDay <= 0 {
		return r.Start
	}
	x := float64(pointerX+vp.ScrollLeft-cfg.GridOffsetLeft) - xOffset
	return r.Start.AddDate(0, 0, roundHalfUp(x/pixelsPerDay))
}

// RescaleOffset keeps a captured pointer anchor in place when the zoom changes.
func RescaleOffset(offset, oldPPM, newPPM float64) float64 {
	if oldPPM <= 0 {
		return offset
	}
	return offset * newPPM / oldPPM
}

// Layout is the panel geometry. Vertical values are in pixels, horizontal
// values are fractions of the grid width.
type Layout struct {
	OffsetTop  float64
	Height     float64
	OffsetLeft float64
	Width      float64
	SpaceUnder float64
}

// Bottom is the y of the panel's lower edge.
func (l Layout) Bottom() float64 {
	return l.OffsetTop + l.Height
}

// Cells snaps the layout outwards to whole cells, at least one cell tall, so
// short panels stay visible and clickable.
func (l Layout) Cells() Layout {
	top := math.Floor(l.OffsetTop)
	bottom := math.Max(math.Ceil(l.Bottom()), top+1)
	l.OffsetTop = top
	l.Height = bottom - top
	return l
}

// ComputeLayout places a worklog on the grid. The height is clamped so the
// panel never extends past 24:00.
func ComputeLayout(startMinute, durationMinutes int, date time.Time, r DateRange, cfg Config) Layout {
	full := cfg.DayHeight()

	offsetTop := math.Max(0, float64(startMinute)*cfg.PixelsPerMinute)
	height := math.Min(float64(durationMinutes)*cfg.PixelsPerMinute, full-offsetTop)
	height = math.Max(0, height)

	width := r.DayWidthFraction()
	index := min(max(r.DayIndex(date), 0), r.Days()-1)

	return Layout{
		OffsetTop:  offsetTop,
		Height:     height,
		OffsetLeft: width * float64(index),
		Width:      width,
		SpaceUnder: math.Max(0, full-offsetTop-height),
	}
}

// Zone is the part of a panel a pointer press landed on.
type Zone int

const (
	ZoneNone Zone = iota
	ZoneBody
	ZoneTopHandle
	ZoneBottomHandle
)

// Hit is the result of HitTest. OffsetX/OffsetY are the anchors the
// interaction keeps: the pointer offset inside the panel for the body, the
// offset from the top or bottom edge for the handles.
type Hit struct {
	Zone    Zone
	OffsetX float64
	OffsetY float64
}

// HitTest classifies a pointer press against a panel. handle is the height of
// the stretch handles. The body always keeps at least one handle of height:
// panels shorter than three handles lose the top handle, panels shorter than
// two lose both.
func HitTest(pointerX, pointerY int, vp Viewport, cfg Config, l Layout, handle float64) Hit {
	gridWidth := float64(vp.ScrollWidth - cfg.GridOffsetLeft)
	x := float64(pointerX + vp.ScrollLeft - cfg.GridOffsetLeft)
	y := float64(pointerY + vp.ScrollTop - cfg.GridOffsetTop)

	left := l.OffsetLeft * gridWidth
	right := left + l.Width*gridWidth
	if x < left || x >= right || y < l.OffsetTop || y >= l.Bottom() {
		return Hit{Zone: ZoneNone}
	}

	top, bottom := handle, handle
	switch {
	case l.Height < 2*handle:
		top, bottom = 0, 0
	case l.Height < 3*handle:
		top = 0
	}

	switch {
	case y < l.OffsetTop+top:
		return Hit{Zone: ZoneTopHandle, OffsetX: x - left, OffsetY: y - l.OffsetTop}
	case y >= l.Bottom()-bottom:
		return Hit{Zone: ZoneBottomHandle, OffsetX: x - left, OffsetY: y - l.Bottom()}
	default:
		return Hit{Zone: ZoneBody, OffsetX: x - left, OffsetY: y - l.OffsetTop}
	}
}
