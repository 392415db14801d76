package plugin

/*
	Duration

	Returns the event's length in the units of its period:
	hours on a Day cycle, days on a Year cycle.

	Coloring by duration makes the odd long occurrence of a
	recurring event jump out of the cycle immediately.

	~~~ Plugin Reference Implementation ~~~
*/

import (
	Ot "github.com/maroda/ostinato/types"
)

type DurationPlugin struct{}

// Transform is the main wrapper for the interface.
// Other calculation functions should be called from here.
func (p *DurationPlugin) Transform(ev Ot.Event, period Ot.TimePeriod) (float64, error) {
	hours := ev.End.Sub(ev.Start).Hours()
	if period == Ot.PeriodYear {
		return hours / 24, nil
	}
	return hours, nil
}

func (p *DurationPlugin) Type() string { return "duration" }
