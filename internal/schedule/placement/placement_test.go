package placement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldops/internal/api/models"
)

func testGrid() Grid {
	return Grid{
		PixelsPerHour: 60,
		DayStartHour:  6,
		DayEndHour:    20,
		SnapMinutes:   15,
	}
}

func original(start time.Time, hours int) models.Assignment {
	return models.Assignment{
		ID:         100,
		JobID:      10,
		EmployeeID: 7,
		Start:      start,
		End:        start.Add(time.Duration(hours) * time.Hour),
	}
}

func TestPlaceWeek_SnapsAndPreservesDuration(t *testing.T) {
	// Week starting Monday 2025-03-10; assignment 09:00-11:00 dragged to
	// dayIndex=2 with the cursor landing at fractional hour 13.4.
	weekStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	orig := original(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), 2)

	g := testGrid()
	drag := Drag{
		// CursorX chosen so RawHour yields 13.4
		CursorX:          (13.4 - float64(g.DayStartHour)) * g.PixelsPerHour,
		GrabOffsetX:      0,
		TargetEmployeeID: 7,
		Original:         orig,
	}

	p, err := g.PlaceWeek(weekStart, 2, drag)
	require.NoError(t, err)

	assert.Equal(t, uint(7), p.EmployeeID)
	assert.Equal(t, time.Date(2025, 3, 12, 13, 30, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC), p.End)
	assert.Equal(t, orig.Duration(), p.End.Sub(p.Start), "moves never resize")
}

func TestPlace_GrabOffsetCorrection(t *testing.T) {
	g := testGrid()
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	orig := original(time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), 1)

	// Grabbed 30px into the block, cursor at 10:30's pixel position: the
	// block's left edge is at 10:00, not 10:30.
	drag := Drag{
		CursorX:          (10.5 - float64(g.DayStartHour)) * g.PixelsPerHour,
		GrabOffsetX:      30,
		TargetEmployeeID: 7,
		Original:         orig,
	}

	p, err := g.Place(day, drag)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC), p.Start)
}

func TestPlace_DurationPreservedAcrossCursorPositions(t *testing.T) {
	g := testGrid()
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	orig := original(time.Date(2025, 3, 10, 9, 15, 0, 0, time.UTC), 3)

	for x := 60.0; x < 600; x += 41 {
		p, err := g.Place(day, Drag{CursorX: x, TargetEmployeeID: 7, Original: orig})
		if err != nil {
			continue
		}
		assert.Equal(t, orig.Duration(), p.End.Sub(p.Start))
		assert.Contains(t, []int{0, 15, 30, 45}, p.Start.Minute())
	}
}

func TestPlace_RejectsOutsideDayRange(t *testing.T) {
	g := testGrid()
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	orig := original(time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), 1)

	// Before the rendered range
	_, err := g.Place(day, Drag{CursorX: -120, TargetEmployeeID: 7, Original: orig})
	assert.ErrorIs(t, err, ErrOutOfRange)

	// Past the rendered range; must not clamp into the next day
	_, err = g.Place(day, Drag{CursorX: 15 * g.PixelsPerHour, TargetEmployeeID: 7, Original: orig})
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestPlaceWeek_RejectsInvalidDayIndex(t *testing.T) {
	g := testGrid()
	weekStart := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	orig := original(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), 1)

	_, err := g.PlaceWeek(weekStart, -1, Drag{CursorX: 120, Original: orig})
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = g.PlaceWeek(weekStart, 7, Drag{CursorX: 120, Original: orig})
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestMoveToDay_PreservesTimeOfDay(t *testing.T) {
	g := testGrid()
	orig := original(time.Date(2025, 3, 10, 14, 45, 0, 0, time.UTC), 2)

	p, err := g.MoveToDay(time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC), Drag{TargetEmployeeID: 3, Original: orig})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 3, 21, 14, 45, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2025, 3, 21, 16, 45, 0, 0, time.UTC), p.End)
	assert.Equal(t, uint(3), p.EmployeeID)
}

func TestClickSlot_DefaultWindow(t *testing.T) {
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	p := ClickSlot(day, 5, 9, 10)

	assert.Equal(t, uint(5), p.EmployeeID)
	assert.Equal(t, time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC), p.End)
}
