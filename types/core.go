package types

/*

	These are the "immutable" core types of Ostinato,
	provided for cross-package use (e.g. Plugins) and testing.

	There are no functions defined here.
	Struct constructors are housed in their own packages.
	Methods taking these types should create local aliases,
	for example: type RenderSegments []Ot.RenderSegment

*/

import "time"

// The Event is the building block of this tool.
// Anything with a beginning and an end can be projected
// onto the cycle: a backup job, a commute, a bird migration.
type Event struct {
	Start time.Time // absolute begin instant
	End   time.Time // absolute end instant, End >= Start once validated
	Name  string    // optional label shown on selection
}

// TimePeriod is the cycle every event is projected onto.
type TimePeriod int

const (
	PeriodDay  TimePeriod = iota // 24 hours, time-of-day axis
	PeriodYear                   // 12 months, date-within-year axis
)

// Mode tags a derived quantity as engine-computed or caller-supplied.
// Auto fields are invalidated and recomputed when inputs change,
// Manual fields are frozen until cleared back to Auto.
type Mode int

const (
	Auto Mode = iota
	Manual
)

// CycleWindow is the one representative cycle instance used
// as the shared coordinate frame. End - Start is exactly one
// day or one year.
type CycleWindow struct {
	Start time.Time
	End   time.Time
}

// OptValue is a Y coordinate that may be absent.
// An absent knot is where the renderer lifts the pen,
// never a NaN sentinel.
type OptValue struct {
	Val float64
	OK  bool
}

// RenderSegment is one polyline per event: five X anchors
// (always concrete) and five parallel Y knots (possibly absent).
// Order: window start, earlier endpoint, midpoint, later endpoint,
// window end. A wrapped event carries Y at positions 0 and 4 with
// 2 absent, drawing two stubs in from the axis edges. A normal
// event carries Y at position 2 with 0 and 4 absent.
type RenderSegment struct {
	X       [5]time.Time
	Y       [5]OptValue
	Name    string
	Wrapped bool // normalized start fell after normalized end
}

// RGB is a color triple with channels in [0,1].
type RGB struct {
	R float64
	G float64
	B float64
}

// ColorStyle selects how events are colored.
type ColorStyle int

const (
	Colormapped ColorStyle = iota // palette index from a numeric value
	Solid                         // every event gets palette[0]
)

// ColorRange is the numeric domain behind a colormapped palette,
// reported so a collaborator can label its colorbar.
type ColorRange struct {
	Min float64
	Max float64
}

// RenderSnapshot is one complete recompute result, the unit
// written to output adapters (storage, sonification).
type RenderSnapshot struct {
	ChartID    string
	TakenAt    time.Time
	Period     TimePeriod
	Window     CycleWindow
	Segments   []RenderSegment
	Colors     []RGB
	ColorRange *ColorRange // nil in solid mode
}

// ViewState is the manual-mode state a collaborator may persist
// and restore through the engine's setters. Nil fields mean
// "leave that quantity in auto mode".
type ViewState struct {
	ChartID     string
	Period      *TimePeriod
	YValues     []float64
	ColorValues []float64
	XLim        *[2]time.Time
	YLim        *[2]float64
	SavedAt     time.Time
}
