package ostinato

import (
	"fmt"
	"time"

	Ot "github.com/maroda/ostinato/types"
)

// PeriodTolerance is the slack allowed when checking that a period
// can contain the longest event. The defaults are heuristic: one
// extra hour on a day for a daylight-saving shift, 366 days on a
// year for leap years. Both are configurable rather than fixed.
type PeriodTolerance struct {
	Day  time.Duration
	Year time.Duration
}

func DefaultPeriodTolerance() PeriodTolerance {
	return PeriodTolerance{
		Day:  25 * time.Hour,
		Year: 366 * 24 * time.Hour,
	}
}

// SelectPeriod picks the cycle for the data. Manual mode returns
// the fixed period unchanged. Auto mode selects Day when every
// event fits inside 24 hours, Year otherwise.
func SelectPeriod(durations []time.Duration, mode Ot.Mode, fixed Ot.TimePeriod) Ot.TimePeriod {
	if mode == Ot.Manual {
		return fixed
	}
	if maxDuration(durations) <= 24*time.Hour {
		return Ot.PeriodDay
	}
	return Ot.PeriodYear
}

// CheckPeriodFit re-validates the chosen period against the data,
// regardless of how it was chosen. An overflow aborts recomputation
// so the previous render state survives.
func CheckPeriodFit(durations []time.Duration, period Ot.TimePeriod, tol PeriodTolerance) error {
	longest := maxDuration(durations)

	switch period {
	case Ot.PeriodDay:
		if longest > tol.Day {
			return fmt.Errorf("%w: day period, longest event %s", ErrPeriodTooNarrow, longest)
		}
	case Ot.PeriodYear:
		if longest > tol.Year {
			return fmt.Errorf("%w: year period, longest event %s", ErrPeriodTooNarrow, longest)
		}
	}

	return nil
}

// PeriodString names a period for config files, logs, and the UI
func PeriodString(p Ot.TimePeriod) string {
	switch p {
	case Ot.PeriodDay:
		return "day"
	case Ot.PeriodYear:
		return "year"
	default:
		return "unknown"
	}
}

// ParsePeriod reads a config period token.
// The boolean is false for "auto" or empty, meaning no manual override.
func ParsePeriod(s string) (Ot.TimePeriod, bool, error) {
	switch s {
	case "", "auto":
		return Ot.PeriodDay, false, nil
	case "day":
		return Ot.PeriodDay, true, nil
	case "year":
		return Ot.PeriodYear, true, nil
	default:
		return Ot.PeriodDay, false, fmt.Errorf("unknown period %q", s)
	}
}

func maxDuration(durations []time.Duration) time.Duration {
	var longest time.Duration
	for _, d := range durations {
		if d > longest {
			longest = d
		}
	}
	return longest
}
