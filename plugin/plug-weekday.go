package plugin

/*
	Weekday

	Returns the weekday of the event start, Sunday=0 .. Saturday=6.

	On a Day cycle this colors each occurrence by which day of the
	week it happened, so a commute that runs late every Friday
	shows up as one color drifting right.
*/

import (
	Ot "github.com/maroda/ostinato/types"
)

type WeekdayPlugin struct{}

func (p *WeekdayPlugin) Transform(ev Ot.Event, period Ot.TimePeriod) (float64, error) {
	return float64(ev.Start.Weekday()), nil
}

func (p *WeekdayPlugin) Type() string { return "weekday" }
