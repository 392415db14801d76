package ostinato

import (
	"time"

	Ot "github.com/maroda/ostinato/types"
)

// EventSet is an ordered snapshot of intervals. The engine never
// mutates one in place: constructors copy their inputs and a new
// set replaces the old wholesale.
type EventSet struct {
	Starts []time.Time
	Ends   []time.Time
	Names  []string // empty, or one per event
}

// NewEventSetFromEndTimes builds a set from parallel start/end instants.
// The two construction variants are explicit so nothing is inferred
// from argument shape at runtime.
func NewEventSetFromEndTimes(starts, ends []time.Time) EventSet {
	es := EventSet{
		Starts: make([]time.Time, len(starts)),
		Ends:   make([]time.Time, len(ends)),
	}
	copy(es.Starts, starts)
	copy(es.Ends, ends)
	return es
}

// NewEventSetFromDurations builds a set where each end is start+duration
func NewEventSetFromDurations(starts []time.Time, durations []time.Duration) EventSet {
	es := EventSet{
		Starts: make([]time.Time, len(starts)),
		Ends:   make([]time.Time, 0, len(starts)),
	}
	copy(es.Starts, starts)
	for i, s := range starts {
		if i < len(durations) {
			es.Ends = append(es.Ends, s.Add(durations[i]))
		}
	}
	return es
}

// WithNames returns a copy of the set carrying label annotations
func (es EventSet) WithNames(names []string) EventSet {
	out := es
	out.Names = make([]string, len(names))
	copy(out.Names, names)
	return out
}

func (es EventSet) Len() int {
	return len(es.Starts)
}

// Durations gives end-start per event, only meaningful once validated
func (es EventSet) Durations() []time.Duration {
	durs := make([]time.Duration, 0, es.Len())
	for i := range es.Starts {
		if i < len(es.Ends) {
			durs = append(durs, es.Ends[i].Sub(es.Starts[i]))
		}
	}
	return durs
}

// Name returns the label for event i, or "" when none was supplied
func (es EventSet) Name(i int) string {
	if i < len(es.Names) {
		return es.Names[i]
	}
	return ""
}

// Events expands the parallel arrays into core Event values
// for cross-package use (e.g. Plugins)
func (es EventSet) Events() []Ot.Event {
	evs := make([]Ot.Event, 0, es.Len())
	for i := range es.Starts {
		if i >= len(es.Ends) {
			break
		}
		evs = append(evs, Ot.Event{
			Start: es.Starts[i],
			End:   es.Ends[i],
			Name:  es.Name(i),
		})
	}
	return evs
}
