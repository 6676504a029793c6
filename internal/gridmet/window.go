package gridmet

import (
	"math"
	"time"
)

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Empty reports whether the window covers no instant.
func (w Window) Empty() bool {
	return !w.End.After(w.Start)
}

// Advance moves t forward by n units. Month and year steps keep the day of
// month, clamped to the last day of the target month, so Jan 31 + 1 month is
// the last day of February rather than a day in March.
func Advance(t time.Time, n int, unit TimeUnit) time.Time {
	switch unit {
	case UnitYear:
		return addMonths(t, 12*n)
	case UnitMonth:
		return addMonths(t, n)
	case UnitWeek:
		return t.AddDate(0, 0, 7*n)
	case UnitDay:
		return t.AddDate(0, 0, n)
	case UnitHour:
		return t.Add(time.Duration(n) * time.Hour)
	case UnitMinute:
		return t.Add(time.Duration(n) * time.Minute)
	case UnitSecond:
		return t.Add(time.Duration(n) * time.Second)
	default:
		return t
	}
}

func addMonths(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	day := t.Day()
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// maxCalendarSteps bounds year, month, week and day lengths so the derived
// date stays within the range time.Time can represent.
const maxCalendarSteps = math.MaxInt32

func unitDuration(unit TimeUnit) (time.Duration, bool) {
	switch unit {
	case UnitHour:
		return time.Hour, true
	case UnitMinute:
		return time.Minute, true
	case UnitSecond:
		return time.Second, true
	default:
		return 0, false
	}
}

// canAdvance reports whether Advance(start, n, unit) yields an end that does
// not precede start. Lengths that overflow the arithmetic fail.
func canAdvance(start time.Time, n int, unit TimeUnit) bool {
	if n < 0 {
		return false
	}
	if d, ok := unitDuration(unit); ok {
		if int64(n) > math.MaxInt64/int64(d) {
			return false
		}
	} else if n > maxCalendarSteps {
		return false
	}
	return !Advance(start, n, unit).Before(start)
}
