package ostinato

import (
	"errors"
	"fmt"
)

// Every failure the pipeline can signal is recoverable: the caller
// keeps showing the last good derived state. These are matched
// with errors.Is after wrapping.
var (
	ErrSizeMismatch      = errors.New("start and end arrays differ in length")
	ErrNegativeDuration  = errors.New("event end precedes its start")
	ErrColorSizeMismatch = errors.New("color values do not match event count")
	ErrNameSizeMismatch  = errors.New("names do not match event count")
	ErrPeriodTooNarrow   = errors.New("period cannot contain the longest event")
	ErrInvalidLimits     = errors.New("axis limit pair is not strictly increasing")
	ErrEmptyPalette      = errors.New("palette needs at least one color")
	ErrBadChannel        = errors.New("palette channel outside [0,1]")
)

// ValidateIntervals gates recomputation. Checks run in order and
// the first failure reports without partial effects:
//  1. starts and ends agree in length
//  2. no event ends before it starts
//  3. a supplied color override matches the event count
//  4. supplied names match the event count
//
// colorValues is the manual override, nil when color mode is auto.
func ValidateIntervals(es EventSet, colorValues []float64) error {
	if len(es.Starts) != len(es.Ends) {
		return fmt.Errorf("%w: %d starts, %d ends", ErrSizeMismatch, len(es.Starts), len(es.Ends))
	}

	for i := range es.Starts {
		if es.Ends[i].Before(es.Starts[i]) {
			return fmt.Errorf("%w: event %d", ErrNegativeDuration, i)
		}
	}

	if colorValues != nil && len(colorValues) != es.Len() {
		return fmt.Errorf("%w: %d values, %d events", ErrColorSizeMismatch, len(colorValues), es.Len())
	}

	if len(es.Names) != 0 && len(es.Names) != es.Len() {
		return fmt.Errorf("%w: %d names, %d events", ErrNameSizeMismatch, len(es.Names), es.Len())
	}

	return nil
}
