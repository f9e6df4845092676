// Package labour derives billable amounts from a worked time range, an
// hourly rate, and a set of uncharged-time deductions.
//
// One rounding policy applies everywhere: worked and uncharged hours are kept
// exact, the final chargeable hours and charged-out amount are rounded to two
// decimal places. Quarter-hour rounding is a display concern and lives in
// timeutil.
package labour

import (
	"errors"
	"time"

	"fieldops/internal/api/models"
	"fieldops/internal/schedule/timeutil"
)

// ErrInvalidRange is returned when end is not after start. Callers must
// refuse to save such a range; it is never wrapped into the next day.
var ErrInvalidRange = errors.New("labour: end must be after start")

type Result struct {
	WorkedHours     float64
	UnchargedHours  float64
	ChargeableHours float64
	ChargedOut      float64
}

// Compute derives worked, uncharged and chargeable hours plus the charged-out
// amount for one labour entry.
func Compute(start, end time.Time, rate float64, unchargedRows []models.UnchargedTimeRow) (Result, error) {
	if !end.After(start) {
		return Result{}, ErrInvalidRange
	}

	worked := timeutil.DurationHours(start, end)

	totalMinutes := 0
	for _, row := range unchargedRows {
		if row.Minutes > 0 {
			totalMinutes += row.Minutes
		}
	}
	uncharged := float64(totalMinutes) / 60

	chargeable := worked - uncharged
	if chargeable < 0 {
		chargeable = 0
	}
	chargeable = timeutil.Round2(chargeable)

	if rate < 0 {
		rate = 0
	}

	return Result{
		WorkedHours:     worked,
		UnchargedHours:  uncharged,
		ChargeableHours: chargeable,
		ChargedOut:      timeutil.Round2(rate * chargeable),
	}, nil
}
