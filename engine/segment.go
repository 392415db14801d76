package ostinato

import (
	"time"

	Ot "github.com/maroda/ostinato/types"
)

// BuildSegment turns one normalized interval into its five-knot
// polyline. The X anchors are always concrete:
//
//	[window start, earlier endpoint, midpoint, later endpoint, window end]
//
// ordered by value on the cycle, not by which endpoint was
// originally the start. The Y knots carry the event's value at
// positions 1 and 3 always, and at either position 2 (a single
// contiguous stroke) or positions 0 and 4 (two stubs in from the
// axis edges, for an event that crosses the cycle boundary).
// Absent knots are where the renderer lifts the pen.
func BuildSegment(nStart, nEnd time.Time, y float64, window Ot.CycleWindow, name string) Ot.RenderSegment {
	wrapped := nStart.After(nEnd)

	earlier, later := nStart, nEnd
	if wrapped {
		earlier, later = nEnd, nStart
	}
	midpoint := earlier.Add(later.Sub(earlier) / 2)

	seg := Ot.RenderSegment{
		X:       [5]time.Time{window.Start, earlier, midpoint, later, window.End},
		Name:    name,
		Wrapped: wrapped,
	}

	seg.Y[1] = Ot.OptValue{Val: y, OK: true}
	seg.Y[3] = Ot.OptValue{Val: y, OK: true}
	if wrapped {
		seg.Y[0] = Ot.OptValue{Val: y, OK: true}
		seg.Y[4] = Ot.OptValue{Val: y, OK: true}
	} else {
		seg.Y[2] = Ot.OptValue{Val: y, OK: true}
	}

	return seg
}

// BuildSegments runs BuildSegment across the whole normalized set
func BuildSegments(nStarts, nEnds []time.Time, yValues []float64, window Ot.CycleWindow, es EventSet) []Ot.RenderSegment {
	segs := make([]Ot.RenderSegment, 0, len(nStarts))
	for i := range nStarts {
		segs = append(segs, BuildSegment(nStarts[i], nEnds[i], yValues[i], window, es.Name(i)))
	}
	return segs
}
