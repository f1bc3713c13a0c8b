package editor

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/emilianohg/timegrid/internal/grid"
)

// Interaction is the pointer interaction in progress. Exactly one value is
// live per session; Idle is the resting state.
type Interaction interface {
	isInteraction()
}

type Idle struct{}

// Dragging moves the whole panel. The offsets are where the pointer grabbed
// the panel, relative to its top-left corner.
type Dragging struct {
	OffsetX float64
	OffsetY float64
}

// StretchingTop moves the start and keeps the end fixed.
type StretchingTop struct {
	OffsetY float64
}

// StretchingBottom moves the end and keeps the start fixed. OffsetY is
// relative to the bottom edge.
type StretchingBottom struct {
	OffsetY float64
}

func (Idle) isInteraction()             {}
func (Dragging) isInteraction()         {}
func (StretchingTop) isInteraction()    {}
func (StretchingBottom) isInteraction() {}

// Active reports whether i is anything but Idle.
func Active(i Interaction) bool {
	switch i.(type) {
	case nil, Idle:
		return false
	default:
		return true
	}
}

// Bounds are the time fields of a draft that pointer moves change.
type Bounds struct {
	Date            time.Time
	StartMinute     int
	DurationMinutes int
}

func (b Bounds) EndMinute() int {
	return b.StartMinute + b.DurationMinutes
}

type Pointer struct {
	X, Y      int
	Modifiers grid.Modifiers
}

func PointerFromMouse(msg tea.MouseMsg) Pointer {
	return Pointer{
		X:         msg.X,
		Y:         msg.Y,
		Modifiers: grid.Modifiers{Alt: msg.Alt, Ctrl: msg.Ctrl, Shift: msg.Shift},
	}
}

func (p Pointer) snap() int {
	return grid.SnapIntervalFor(p.Modifiers)
}

// Surface is the grid state geometry needs to interpret a pointer.
type Surface struct {
	Config   grid.Config
	Viewport grid.Viewport
	Range    grid.DateRange
}

// Drag moves b under the pointer, keeping it inside the day and the visible
// range. The bool is false when neither the start nor the date changed.
func Drag(b Bounds, d Dragging, p Pointer, s Surface) (Bounds, bool) {
	start := grid.PointerToMinuteOfDay(p.Y, s.Viewport.ScrollTop, d.OffsetY, s.Config, p.snap())
	start = max(0, min(start, grid.MinutesPerDay-b.DurationMinutes))

	date := s.Range.Clamp(grid.PointerToDate(p.X, s.Viewport, d.OffsetX, s.Config, s.Range))

	if start == b.StartMinute && date.Equal(b.Date) {
		return b, false
	}
	b.StartMinute = start
	b.Date = date
	return b, true
}

// StretchTop moves the start under the pointer. The start never reaches the
// end; the duration absorbs the difference.
func StretchTop(b Bounds, st StretchingTop, p Pointer, s Surface) (Bounds, bool) {
	snap := p.snap()
	end := b.EndMinute()

	start := grid.PointerToMinuteOfDay(p.Y, s.Viewport.ScrollTop, st.OffsetY, s.Config, snap)
	if start < 0 {
		start = 0
	}
	if start >= end {
		start = (end - 1) / snap * snap
	}

	if start == b.StartMinute {
		return b, false
	}
	b.DurationMinutes += b.StartMinute - start
	b.StartMinute = start
	return b, true
}

// StretchBottom moves the end under the pointer, within (start, 24:00].
func StretchBottom(b Bounds, sb StretchingBottom, p Pointer, s Surface) (Bounds, bool) {
	snap := p.snap()

	end := grid.PointerToMinuteOfDay(p.Y, s.Viewport.ScrollTop, sb.OffsetY, s.Config, snap)
	if end <= b.StartMinute {
		end = (b.StartMinute + snap) / snap * snap // ceil((start+1)/snap)*snap
	}
	end = min(end, grid.MinutesPerDay)

	if end == b.EndMinute() {
		return b, false
	}
	b.DurationMinutes = end - b.StartMinute
	return b, true
}

// Move applies the handler of the current interaction.
func Move(i Interaction, b Bounds, p Pointer, s Surface) (Bounds, bool) {
	switch i := i.(type) {
	case Dragging:
		return Drag(b, i, p, s)
	case StretchingTop:
		return StretchTop(b, i, p, s)
	case StretchingBottom:
		return StretchBottom(b, i, p, s)
	default:
		return b, false
	}
}

// Rescale keeps the vertical anchor of i under the pointer after a zoom change.
func Rescale(i Interaction, oldPPM, newPPM float64) Interaction {
	switch i := i.(type) {
	case Dragging:
		i.OffsetY = grid.RescaleOffset(i.OffsetY, oldPPM, newPPM)
		return i
	case StretchingTop:
		i.OffsetY = grid.RescaleOffset(i.OffsetY, oldPPM, newPPM)
		return i
	case StretchingBottom:
		i.OffsetY = grid.RescaleOffset(i.OffsetY, oldPPM, newPPM)
		return i
	default:
		return i
	}
}

// interactionFor maps a hit zone to the interaction it starts.
func interactionFor(h grid.Hit) Interaction {
	switch h.Zone {
	case grid.ZoneBody:
		return Dragging{OffsetX: h.OffsetX, OffsetY: h.OffsetY}
	case grid.ZoneTopHandle:
		return StretchingTop{OffsetY: h.OffsetY}
	case grid.ZoneBottomHandle:
		return StretchingBottom{OffsetY: h.OffsetY}
	default:
		return Idle{}
	}
}
