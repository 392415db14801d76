package plugin_test

import (
	"testing"
	"time"

	Op "github.com/maroda/ostinato/plugin"
	Ot "github.com/maroda/ostinato/types"
)

/*
	BadgerOutput Adapter Plugin
	Ostinato Plugin Tests

*/

func makeSnapshot(chartID string, at time.Time) *Ot.RenderSnapshot {
	window := Ot.CycleWindow{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	seg := Ot.RenderSegment{
		X:    [5]time.Time{window.Start, window.Start.Add(9 * time.Hour), window.Start.Add(9*time.Hour + 30*time.Minute), window.Start.Add(10 * time.Hour), window.End},
		Name: "standup",
	}
	seg.Y[1] = Ot.OptValue{Val: 9, OK: true}
	seg.Y[2] = Ot.OptValue{Val: 9, OK: true}
	seg.Y[3] = Ot.OptValue{Val: 9, OK: true}

	return &Ot.RenderSnapshot{
		ChartID:  chartID,
		TakenAt:  at,
		Period:   Ot.PeriodDay,
		Window:   window,
		Segments: []Ot.RenderSegment{seg},
		Colors:   []Ot.RGB{{R: 0.2, G: 0.7, B: 0.4}},
	}
}

func TestBadgerOutput(t *testing.T) {
	now := time.Now()

	t.Run("Writes land in the range query after flush", func(t *testing.T) {
		output, err := Op.NewBadgerOutput(t.TempDir(), 8)
		assertError(t, err, nil)
		defer output.Close()

		assertError(t, output.WriteSnapshot(makeSnapshot("CAL01", now)), nil)
		assertError(t, output.Flush(), nil)

		got, err := output.QueryRange(now.Add(-time.Second), now.Add(time.Second))
		assertError(t, err, nil)
		assertInt(t, len(got), 1)
		assertString(t, got[0].ChartID, "CAL01")
		assertString(t, got[0].Segments[0].Name, "standup")
	})

	t.Run("A batch size of one flushes on every write", func(t *testing.T) {
		output, err := Op.NewBadgerOutput(t.TempDir(), 1)
		assertError(t, err, nil)
		defer output.Close()

		assertError(t, output.WriteSnapshot(makeSnapshot("CAL01", now)), nil)

		// No explicit flush
		got, err := output.QueryRange(now.Add(-time.Second), now.Add(time.Second))
		assertError(t, err, nil)
		assertInt(t, len(got), 1)
	})

	t.Run("WriteBatch persists everything at once", func(t *testing.T) {
		output, err := Op.NewBadgerOutput(t.TempDir(), 8)
		assertError(t, err, nil)
		defer output.Close()

		batch := []*Ot.RenderSnapshot{
			makeSnapshot("CAL01", now),
			makeSnapshot("CAL02", now.Add(time.Millisecond)),
		}
		assertError(t, output.WriteBatch(batch), nil)

		got, err := output.QueryRange(now.Add(-time.Second), now.Add(time.Second))
		assertError(t, err, nil)
		assertInt(t, len(got), 2)
	})

	t.Run("Range bounds exclude outside snapshots", func(t *testing.T) {
		output, err := Op.NewBadgerOutput(t.TempDir(), 1)
		assertError(t, err, nil)
		defer output.Close()

		assertError(t, output.WriteSnapshot(makeSnapshot("CAL01", now.Add(-time.Hour))), nil)
		assertError(t, output.WriteSnapshot(makeSnapshot("CAL01", now)), nil)

		got, err := output.QueryRange(now.Add(-time.Minute), now.Add(time.Minute))
		assertError(t, err, nil)
		assertInt(t, len(got), 1)
	})

	t.Run("Reports its type", func(t *testing.T) {
		output, err := Op.NewBadgerOutput(t.TempDir(), 1)
		assertError(t, err, nil)
		defer output.Close()

		assertString(t, output.Type(), "BadgerDB")
	})
}

func TestBadgerViewState(t *testing.T) {
	t.Run("View state round-trips by chart ID", func(t *testing.T) {
		output, err := Op.NewBadgerOutput(t.TempDir(), 1)
		assertError(t, err, nil)
		defer output.Close()

		period := Ot.PeriodYear
		st := &Ot.ViewState{
			ChartID: "CAL01",
			Period:  &period,
			YValues: []float64{1, 2, 3},
			SavedAt: time.Now(),
		}
		assertError(t, output.SaveViewState(st), nil)

		got, err := output.LoadViewState("CAL01")
		assertError(t, err, nil)
		if got == nil {
			t.Fatalf("expected a stored view state")
		}
		if got.Period == nil || *got.Period != Ot.PeriodYear {
			t.Errorf("period did not survive the round trip")
		}
		assertInt(t, len(got.YValues), 3)
	})

	t.Run("The latest save wins", func(t *testing.T) {
		output, err := Op.NewBadgerOutput(t.TempDir(), 1)
		assertError(t, err, nil)
		defer output.Close()

		first := &Ot.ViewState{ChartID: "CAL01", YValues: []float64{1}, SavedAt: time.Now()}
		assertError(t, output.SaveViewState(first), nil)

		second := &Ot.ViewState{ChartID: "CAL01", YValues: []float64{1, 2}, SavedAt: time.Now().Add(time.Millisecond)}
		assertError(t, output.SaveViewState(second), nil)

		got, err := output.LoadViewState("CAL01")
		assertError(t, err, nil)
		assertInt(t, len(got.YValues), 2)
	})

	t.Run("An unknown chart loads nothing", func(t *testing.T) {
		output, err := Op.NewBadgerOutput(t.TempDir(), 1)
		assertError(t, err, nil)
		defer output.Close()

		got, err := output.LoadViewState("NOPE")
		assertError(t, err, nil)
		if got != nil {
			t.Errorf("expected no view state, got %+v", got)
		}
	})
}
