package ostinato

import (
	"testing"
	"time"
)

func TestEventSetConstruction(t *testing.T) {
	mon9 := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	mon10 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	t.Run("End-time variant copies its inputs", func(t *testing.T) {
		starts := []time.Time{mon9}
		ends := []time.Time{mon10}
		es := NewEventSetFromEndTimes(starts, ends)

		// Mutating the caller's slice must not reach the set
		starts[0] = mon10
		assertTime(t, es.Starts[0], mon9)
	})

	t.Run("Duration variant resolves each end", func(t *testing.T) {
		es := NewEventSetFromDurations([]time.Time{mon9}, []time.Duration{time.Hour})
		assertTime(t, es.Ends[0], mon10)
	})

	t.Run("Durations reports end minus start", func(t *testing.T) {
		es := NewEventSetFromEndTimes([]time.Time{mon9}, []time.Time{mon10})
		durs := es.Durations()
		assertInt(t, len(durs), 1)
		if durs[0] != time.Hour {
			t.Errorf("got %s, want 1h", durs[0])
		}
	})

	t.Run("Name is empty when none was supplied", func(t *testing.T) {
		es := NewEventSetFromEndTimes([]time.Time{mon9}, []time.Time{mon10})
		assertString(t, es.Name(0), "")

		named := es.WithNames([]string{"standup"})
		assertString(t, named.Name(0), "standup")
		// the original is untouched
		assertString(t, es.Name(0), "")
	})

	t.Run("Events expands to core values for plugins", func(t *testing.T) {
		es := NewEventSetFromEndTimes([]time.Time{mon9}, []time.Time{mon10}).WithNames([]string{"standup"})
		evs := es.Events()
		assertInt(t, len(evs), 1)
		assertString(t, evs[0].Name, "standup")
		assertTime(t, evs[0].Start, mon9)
		assertTime(t, evs[0].End, mon10)
	})
}
