package ostinato

import (
	"time"

	Ot "github.com/maroda/ostinato/types"
)

// StripZone discards zone information, keeping the wall-clock
// fields as they read. An event logged at 09:00 local time lands
// at 09:00 on the cycle no matter where it happened.
func StripZone(t time.Time) time.Time {
	y, m, d := t.Date()
	h, min, s := t.Clock()
	return time.Date(y, m, d, h, min, s, t.Nanosecond(), time.UTC)
}

// NormalizeOnto maps an absolute timestamp onto the reference cycle.
// The year is rewritten to refYear. For a Day period the month and
// day collapse to Jan 1 so only the clock remains meaningful; for a
// Year period the month and day stay as given.
func NormalizeOnto(ts time.Time, refYear int, period Ot.TimePeriod) time.Time {
	ts = StripZone(ts)
	h, min, s := ts.Clock()

	if period == Ot.PeriodDay {
		return time.Date(refYear, time.January, 1, h, min, s, ts.Nanosecond(), time.UTC)
	}
	return time.Date(refYear, ts.Month(), ts.Day(), h, min, s, ts.Nanosecond(), time.UTC)
}

// BuildCycleWindow derives the representative cycle instance from
// the minimum event start: normalize it, zero the clock, then span
// exactly one day or one year.
func BuildCycleWindow(minStart time.Time, period Ot.TimePeriod) Ot.CycleWindow {
	refYear := StripZone(minStart).Year()
	start := time.Date(refYear, time.January, 1, 0, 0, 0, 0, time.UTC)

	if period == Ot.PeriodDay {
		return Ot.CycleWindow{Start: start, End: start.Add(24 * time.Hour)}
	}
	return Ot.CycleWindow{Start: start, End: start.AddDate(1, 0, 0)}
}

// MinStart finds the earliest start in the set.
// The second return is false for an empty set.
func MinStart(es EventSet) (time.Time, bool) {
	if es.Len() == 0 {
		return time.Time{}, false
	}
	earliest := es.Starts[0]
	for _, s := range es.Starts[1:] {
		if s.Before(earliest) {
			earliest = s
		}
	}
	return earliest, true
}

// HasZoneInfo reports whether any timestamp in the set carries a
// non-UTC zone, used for the one-time stripping advisory.
func HasZoneInfo(es EventSet) bool {
	for _, t := range es.Starts {
		if t.Location() != time.UTC {
			return true
		}
	}
	for _, t := range es.Ends {
		if t.Location() != time.UTC {
			return true
		}
	}
	return false
}
