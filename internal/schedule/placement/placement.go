// Package placement translates pointer gestures over a time-by-employee grid
// into snapped assignment times. It reads grid geometry and the dragged
// assignment, and produces a request for the store to apply; it never
// mutates the graph itself.
package placement

import (
	"errors"
	"time"

	"fieldops/internal/api/models"
	"fieldops/internal/schedule/timeutil"
)

// ErrOutOfRange is returned when a drop would land outside the rendered day
// range. Such moves are no-ops; they are never clamped into an adjacent day.
var ErrOutOfRange = errors.New("placement: drop outside rendered day range")

// Grid describes the rendered schedule geometry.
type Grid struct {
	PixelsPerHour float64
	DayStartHour  int
	DayEndHour    int
	SnapMinutes   int
}

// Placement is a snapped (employee, start, end) request for one assignment.
type Placement struct {
	EmployeeID uint
	Start      time.Time
	End        time.Time
}

// Drag captures one drop gesture over an employee lane.
type Drag struct {
	// CursorX is the pointer's horizontal offset within the target lane.
	CursorX float64
	// GrabOffsetX is the offset from the dragged block's left edge to the
	// pointer at grab time; subtracting it keeps the block from jumping to
	// align its left edge with the cursor.
	GrabOffsetX      float64
	TargetEmployeeID uint
	Original         models.Assignment
}

// RawHour converts a drag's corrected pixel offset to a fractional hour on
// the grid.
func (g Grid) RawHour(d Drag) float64 {
	return float64(g.DayStartHour) + (d.CursorX-d.GrabOffsetX)/g.PixelsPerHour
}

// Place computes the snapped placement for a drop on the given day. The
// original duration is always preserved; a move never resizes.
func (g Grid) Place(day time.Time, d Drag) (Placement, error) {
	return g.placeAt(day, g.RawHour(d), d)
}

// PlaceWeek computes the snapped placement for a drop on a week grid, where
// the drop target is a (dayIndex, employee) cell within a Monday-start week.
func (g Grid) PlaceWeek(weekStart time.Time, dayIndex int, d Drag) (Placement, error) {
	if dayIndex < 0 || dayIndex > 6 {
		return Placement{}, ErrOutOfRange
	}
	day := timeutil.StartOfDay(weekStart).AddDate(0, 0, dayIndex)
	return g.placeAt(day, g.RawHour(d), d)
}

// MoveToDay replaces the date component only, preserving the original
// time-of-day and duration. Used for drops on day cells without a time axis.
func (g Grid) MoveToDay(day time.Time, d Drag) (Placement, error) {
	start := timeutil.AtHour(day, d.Original.Start.Hour(), d.Original.Start.Minute())
	return g.finish(start, d)
}

func (g Grid) placeAt(day time.Time, rawHour float64, d Drag) (Placement, error) {
	hour, minute := timeutil.Snap(rawHour, g.SnapMinutes)
	if hour < g.DayStartHour || hour > g.DayEndHour || (hour == g.DayEndHour && minute > 0) {
		return Placement{}, ErrOutOfRange
	}
	return g.finish(timeutil.AtHour(day, hour, minute), d)
}

func (g Grid) finish(start time.Time, d Drag) (Placement, error) {
	duration := d.Original.Duration()
	if duration <= 0 {
		return Placement{}, ErrOutOfRange
	}
	return Placement{
		EmployeeID: d.TargetEmployeeID,
		Start:      start,
		End:        start.Add(duration),
	}, nil
}

// ClickSlot translates an empty-cell click into a default one-hour slot on
// the clicked day and employee lane. It is independent of any drag state.
func ClickSlot(day time.Time, employeeID uint, startHour, endHour int) Placement {
	return Placement{
		EmployeeID: employeeID,
		Start:      timeutil.AtHour(day, startHour, 0),
		End:        timeutil.AtHour(day, endHour, 0),
	}
}
