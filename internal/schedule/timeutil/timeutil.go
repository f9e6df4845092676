package timeutil

import (
	"math"
	"time"
)

// Snap rounds a fractional hour to the nearest snap increment, carrying a
// minute-60 rollover into the hour. snapMinutes must divide 60.
func Snap(rawHour float64, snapMinutes int) (hour int, minute int) {
	if snapMinutes <= 0 {
		snapMinutes = 15
	}
	hour = int(math.Floor(rawHour))
	frac := rawHour - float64(hour)
	minute = int(math.Round(frac*60/float64(snapMinutes))) * snapMinutes
	if minute >= 60 {
		hour += minute / 60
		minute = minute % 60
	}
	return hour, minute
}

// SnapQuarterHour snaps a fractional hour to the nearest 15-minute boundary.
func SnapQuarterHour(rawHour float64) (hour int, minute int) {
	return Snap(rawHour, 15)
}

// AtHour constructs an instant on day's date at the given wall-clock time,
// in day's location.
func AtHour(day time.Time, hour int, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

// StartOfDay truncates t to midnight in its location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// StartOfWeek returns midnight of the Monday of t's week.
func StartOfWeek(t time.Time) time.Time {
	d := StartOfDay(t)
	offset := int(d.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	return d.AddDate(0, 0, -offset)
}

// DayIndex returns t's zero-based day offset from weekStart, or -1 when t
// falls outside the 7-day window.
func DayIndex(weekStart, t time.Time) int {
	start := StartOfDay(weekStart)
	for i := 0; i < 7; i++ {
		if SameDay(start.AddDate(0, 0, i), t) {
			return i
		}
	}
	return -1
}

// DurationHours returns the length of [start, end) in hours, floored at zero.
func DurationHours(start, end time.Time) float64 {
	h := end.Sub(start).Hours()
	if h < 0 {
		return 0
	}
	return h
}

// Overlap reports whether two half-open time ranges intersect.
func Overlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// RoundQuarterHour rounds an hour value to the nearest quarter hour. Display
// helper only; billing math uses Round2 on the final amounts instead.
func RoundQuarterHour(hours float64) float64 {
	return math.Round(hours*4) / 4
}

// Round2 rounds to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
