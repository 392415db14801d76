package ostinato

import (
	"testing"
	"time"

	Ot "github.com/maroda/ostinato/types"
)

func TestSelectPeriod(t *testing.T) {
	t.Run("Short events select the day cycle", func(t *testing.T) {
		durations := []time.Duration{time.Hour, 30 * time.Minute}
		got := SelectPeriod(durations, Ot.Auto, Ot.PeriodDay)
		if got != Ot.PeriodDay {
			t.Errorf("got %s, want day", PeriodString(got))
		}
	})

	t.Run("Exactly 24 hours still fits the day cycle", func(t *testing.T) {
		durations := []time.Duration{24 * time.Hour}
		got := SelectPeriod(durations, Ot.Auto, Ot.PeriodDay)
		if got != Ot.PeriodDay {
			t.Errorf("got %s, want day", PeriodString(got))
		}
	})

	t.Run("Anything longer selects the year cycle", func(t *testing.T) {
		durations := []time.Duration{24*time.Hour + time.Second}
		got := SelectPeriod(durations, Ot.Auto, Ot.PeriodDay)
		if got != Ot.PeriodYear {
			t.Errorf("got %s, want year", PeriodString(got))
		}
	})

	t.Run("Manual mode keeps the fixed period", func(t *testing.T) {
		durations := []time.Duration{time.Minute}
		got := SelectPeriod(durations, Ot.Manual, Ot.PeriodYear)
		if got != Ot.PeriodYear {
			t.Errorf("got %s, want year", PeriodString(got))
		}
	})
}

func TestCheckPeriodFit(t *testing.T) {
	tol := DefaultPeriodTolerance()

	t.Run("A DST-shifted day passes within tolerance", func(t *testing.T) {
		durations := []time.Duration{25 * time.Hour}
		err := CheckPeriodFit(durations, Ot.PeriodDay, tol)
		assertError(t, err, nil)
	})

	t.Run("Beyond tolerance the day period is rejected", func(t *testing.T) {
		durations := []time.Duration{26 * time.Hour}
		err := CheckPeriodFit(durations, Ot.PeriodDay, tol)
		assertError(t, err, ErrPeriodTooNarrow)
	})

	t.Run("A leap year passes within tolerance", func(t *testing.T) {
		durations := []time.Duration{366 * 24 * time.Hour}
		err := CheckPeriodFit(durations, Ot.PeriodYear, tol)
		assertError(t, err, nil)
	})

	t.Run("A multi-year event overflows the year period", func(t *testing.T) {
		durations := []time.Duration{2 * 366 * 24 * time.Hour}
		err := CheckPeriodFit(durations, Ot.PeriodYear, tol)
		assertError(t, err, ErrPeriodTooNarrow)
	})

	t.Run("Tolerance is configurable", func(t *testing.T) {
		strict := PeriodTolerance{Day: 24 * time.Hour, Year: 365 * 24 * time.Hour}
		durations := []time.Duration{25 * time.Hour}
		err := CheckPeriodFit(durations, Ot.PeriodDay, strict)
		assertError(t, err, ErrPeriodTooNarrow)
	})
}

func TestParsePeriod(t *testing.T) {
	t.Run("Empty and auto mean no manual override", func(t *testing.T) {
		for _, token := range []string{"", "auto"} {
			_, manual, err := ParsePeriod(token)
			assertError(t, err, nil)
			if manual {
				t.Errorf("token %q: expected auto, got manual", token)
			}
		}
	})

	t.Run("Named periods are manual", func(t *testing.T) {
		p, manual, err := ParsePeriod("year")
		assertError(t, err, nil)
		if !manual || p != Ot.PeriodYear {
			t.Errorf("got %s manual=%v, want year manual=true", PeriodString(p), manual)
		}
	})

	t.Run("Unknown tokens error", func(t *testing.T) {
		_, _, err := ParsePeriod("fortnight")
		assertGotError(t, err)
	})
}

func TestPeriodString(t *testing.T) {
	assertString(t, PeriodString(Ot.PeriodDay), "day")
	assertString(t, PeriodString(Ot.PeriodYear), "year")
}
