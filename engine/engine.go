package ostinato

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	Ot "github.com/maroda/ostinato/types"
)

// Ostinato is the read surface a renderer needs from a chart engine
type Ostinato interface {
	Recompute() error
	Segments() ([]Ot.RenderSegment, []Ot.RGB, error)
	Period() (Ot.TimePeriod, error)
	TickFormat() (string, error)
	ColorRange() (*Ot.ColorRange, error)
}

// derivedState is everything one recompute pass produces. It is
// swapped in whole on success and never patched in place, so a
// reader can never observe a half-updated render.
type derivedState struct {
	window      Ot.CycleWindow
	period      Ot.TimePeriod
	yValues     []float64
	colorValues []float64
	segments    []Ot.RenderSegment
	colors      []Ot.RGB
	colorRange  *Ot.ColorRange
}

// Engine turns an EventSet into render-ready geometry and colors.
// It is single-threaded by design: one logical update per setter
// call or draw request, a single dirty flag gating recomputation.
// Concurrent callers go through Chart, which owns the lock.
type Engine struct {
	events EventSet

	// Derived quantities with an auto/manual mode each.
	// Manual values are frozen until cleared back to auto.
	yValues     []float64
	yMode       Ot.Mode
	colorValues []float64
	colorMode   Ot.Mode
	period      Ot.TimePeriod
	periodMode  Ot.Mode

	palette   []Ot.RGB
	style     Ot.ColorStyle
	tolerance PeriodTolerance

	// Manual axis limits, nil means auto-fit
	xlim *[2]time.Time
	ylim *[2]float64

	// Passthrough styling, no algorithmic effect
	Marker     rune
	LineWeight int

	dirty       bool
	zoneAdvised bool
	advisory    string

	derived *derivedState
}

func NewEngine() *Engine {
	return &Engine{
		palette:    DefaultPalette(),
		style:      Ot.Colormapped,
		tolerance:  DefaultPeriodTolerance(),
		Marker:     '─',
		LineWeight: 1,
		dirty:      true,
	}
}

// SetEvents replaces the input snapshot. A length disagreement is
// rejected here, before any state changes.
func (e *Engine) SetEvents(es EventSet) error {
	if len(es.Starts) != len(es.Ends) {
		return fmt.Errorf("%w: %d starts, %d ends", ErrSizeMismatch, len(es.Starts), len(es.Ends))
	}
	e.events = es
	e.dirty = true
	return nil
}

// SetNames attaches labels; an empty slice clears them
func (e *Engine) SetNames(names []string) error {
	if len(names) != 0 && len(names) != e.events.Len() {
		return fmt.Errorf("%w: %d names, %d events", ErrNameSizeMismatch, len(names), e.events.Len())
	}
	e.events = e.events.WithNames(names)
	e.dirty = true
	return nil
}

// SetYValues overrides the derived Y values.
// An empty slice reverts the quantity to auto.
func (e *Engine) SetYValues(values []float64) error {
	if len(values) == 0 {
		e.yValues = nil
		e.yMode = Ot.Auto
		e.dirty = true
		return nil
	}
	if len(values) != e.events.Len() {
		return fmt.Errorf("%w: %d y values, %d events", ErrSizeMismatch, len(values), e.events.Len())
	}
	e.yValues = append([]float64(nil), values...)
	e.yMode = Ot.Manual
	e.dirty = true
	return nil
}

// SetColorValues overrides the derived color values.
// An empty slice reverts the quantity to auto.
func (e *Engine) SetColorValues(values []float64) error {
	if len(values) == 0 {
		e.colorValues = nil
		e.colorMode = Ot.Auto
		e.dirty = true
		return nil
	}
	if len(values) != e.events.Len() {
		return fmt.Errorf("%w: %d color values, %d events", ErrColorSizeMismatch, len(values), e.events.Len())
	}
	e.colorValues = append([]float64(nil), values...)
	e.colorMode = Ot.Manual
	e.dirty = true
	return nil
}

// SetPeriod fixes the cycle manually
func (e *Engine) SetPeriod(p Ot.TimePeriod) {
	e.period = p
	e.periodMode = Ot.Manual
	e.dirty = true
}

// SetPeriodAuto returns period selection to the engine
func (e *Engine) SetPeriodAuto() {
	e.periodMode = Ot.Auto
	e.dirty = true
}

func (e *Engine) SetPalette(palette []Ot.RGB) error {
	if err := ValidatePalette(palette); err != nil {
		return err
	}
	e.palette = append([]Ot.RGB(nil), palette...)
	e.dirty = true
	return nil
}

// Palette returns a copy of the active palette for colorbar drawing
func (e *Engine) Palette() []Ot.RGB {
	return append([]Ot.RGB(nil), e.palette...)
}

func (e *Engine) SetColorStyle(s Ot.ColorStyle) {
	e.style = s
	e.dirty = true
}

func (e *Engine) SetTolerance(tol PeriodTolerance) {
	e.tolerance = tol
	e.dirty = true
}

// SetXLimits overrides the auto-fit X range, which must be
// strictly increasing
func (e *Engine) SetXLimits(lo, hi time.Time) error {
	if !lo.Before(hi) {
		return fmt.Errorf("%w: x %s .. %s", ErrInvalidLimits, lo, hi)
	}
	e.xlim = &[2]time.Time{lo, hi}
	return nil
}

func (e *Engine) ClearXLimits() { e.xlim = nil }

// SetYLimits overrides the auto-fit Y range, which must be
// strictly increasing
func (e *Engine) SetYLimits(lo, hi float64) error {
	if lo >= hi {
		return fmt.Errorf("%w: y %f .. %f", ErrInvalidLimits, lo, hi)
	}
	e.ylim = &[2]float64{lo, hi}
	return nil
}

func (e *Engine) ClearYLimits() { e.ylim = nil }

// Dirty reports whether derived state is stale against the inputs
func (e *Engine) Dirty() bool { return e.dirty }

// Advisory returns the one-time zone-stripping notice, empty until
// a non-UTC timestamp has been seen
func (e *Engine) Advisory() string { return e.advisory }

// Recompute runs the full pipeline: validate, select the period,
// build the cycle window, normalize, generate segments, map colors.
// It is a no-op unless dirty, so a host event loop can call it every
// frame for free. A failure reports its condition and leaves the
// previous derived state untouched: stale, not blank.
func (e *Engine) Recompute() error {
	if !e.dirty && e.derived != nil {
		return nil
	}

	if err := ValidateIntervals(e.events, e.manualColorValues()); err != nil {
		return err
	}

	durations := e.events.Durations()
	period := SelectPeriod(durations, e.periodMode, e.period)
	if err := CheckPeriodFit(durations, period, e.tolerance); err != nil {
		return err
	}

	next := &derivedState{period: period}

	earliest, ok := MinStart(e.events)
	if ok {
		if !e.zoneAdvised && HasZoneInfo(e.events) {
			e.advisory = "timezone information discarded during normalization"
			e.zoneAdvised = true
			slog.Warn("Dropping timezone offsets",
				slog.String("chart", "ostinato"),
				slog.Int("events", e.events.Len()))
		}

		next.window = BuildCycleWindow(earliest, period)
		refYear := next.window.Start.Year()

		nStarts := make([]time.Time, e.events.Len())
		nEnds := make([]time.Time, e.events.Len())
		for i := range e.events.Starts {
			nStarts[i] = NormalizeOnto(e.events.Starts[i], refYear, period)
			nEnds[i] = NormalizeOnto(e.events.Ends[i], refYear, period)
		}

		next.yValues = e.deriveYValues(nStarts, next.window, period)
		next.colorValues = e.deriveColorValues(next.yValues)
		next.segments = BuildSegments(nStarts, nEnds, next.yValues, next.window, e.events)
		next.colors, next.colorRange = MapColors(next.colorValues, e.palette, e.style)
	}

	// Swap whole, clear the flag: callers never see a partial update
	e.derived = next
	e.dirty = false
	return nil
}

// manualColorValues gives the override to the validator,
// nil when color mode is auto
func (e *Engine) manualColorValues() []float64 {
	if e.colorMode == Ot.Manual {
		return e.colorValues
	}
	return nil
}

// deriveYValues is the auto rule for the Y axis: hours since the
// cycle start on a Day period, days since on a Year period.
// Manual values pass through unchanged.
func (e *Engine) deriveYValues(nStarts []time.Time, window Ot.CycleWindow, period Ot.TimePeriod) []float64 {
	if e.yMode == Ot.Manual {
		return append([]float64(nil), e.yValues...)
	}

	ys := make([]float64, len(nStarts))
	for i, ns := range nStarts {
		hours := ns.Sub(window.Start).Hours()
		if period == Ot.PeriodYear {
			ys[i] = hours / 24
		} else {
			ys[i] = hours
		}
	}
	return ys
}

// deriveColorValues is the auto rule for color: a copy of Y
func (e *Engine) deriveColorValues(yValues []float64) []float64 {
	if e.colorMode == Ot.Manual {
		return append([]float64(nil), e.colorValues...)
	}
	return append([]float64(nil), yValues...)
}

// YValues reads the Y quantity, recomputing lazily only when the
// field is auto and inputs changed. A manual value returns as-is
// without touching the other auto fields.
func (e *Engine) YValues() ([]float64, error) {
	if e.yMode == Ot.Manual {
		return append([]float64(nil), e.yValues...), nil
	}
	if err := e.Recompute(); err != nil {
		return nil, err
	}
	return e.derived.yValues, nil
}

// ColorValues reads the color quantity under the same lazy contract
func (e *Engine) ColorValues() ([]float64, error) {
	if e.colorMode == Ot.Manual {
		return append([]float64(nil), e.colorValues...), nil
	}
	if err := e.Recompute(); err != nil {
		return nil, err
	}
	return e.derived.colorValues, nil
}

// Period reads the selected cycle under the same lazy contract
func (e *Engine) Period() (Ot.TimePeriod, error) {
	if e.periodMode == Ot.Manual {
		return e.period, nil
	}
	if err := e.Recompute(); err != nil {
		return Ot.PeriodDay, err
	}
	return e.derived.period, nil
}

// Segments returns the render-ready polylines and their colors
func (e *Engine) Segments() ([]Ot.RenderSegment, []Ot.RGB, error) {
	if err := e.Recompute(); err != nil {
		return nil, nil, err
	}
	return e.derived.segments, e.derived.colors, nil
}

// Window returns the coordinate frame the segments live in
func (e *Engine) Window() (Ot.CycleWindow, error) {
	if err := e.Recompute(); err != nil {
		return Ot.CycleWindow{}, err
	}
	return e.derived.window, nil
}

// ColorRange reports the colorbar domain, nil in solid mode
func (e *Engine) ColorRange() (*Ot.ColorRange, error) {
	if err := e.Recompute(); err != nil {
		return nil, err
	}
	return e.derived.colorRange, nil
}

// TickFormat gives the axis label layout for the current period:
// clock time for a Day cycle, month names for a Year cycle.
func (e *Engine) TickFormat() (string, error) {
	p, err := e.Period()
	if err != nil {
		return "", err
	}
	if p == Ot.PeriodYear {
		return "Jan", nil
	}
	return "15:04", nil
}

// XRange is the drawable X span: manual limits when set,
// otherwise the cycle window
func (e *Engine) XRange() (time.Time, time.Time, error) {
	if e.xlim != nil {
		return e.xlim[0], e.xlim[1], nil
	}
	w, err := e.Window()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return w.Start, w.End, nil
}

// YRange is the drawable Y span: manual limits when set, otherwise
// fit to the derived values with a degenerate span widened by one
func (e *Engine) YRange() (float64, float64, error) {
	if e.ylim != nil {
		return e.ylim[0], e.ylim[1], nil
	}
	ys, err := e.YValues()
	if err != nil {
		return 0, 0, err
	}
	fit := ColorDomain(ys)
	return fit.Min, fit.Max, nil
}

// ViewState captures the manual-mode fields for persistence.
// Auto fields come back nil so a restore leaves them auto.
func (e *Engine) ViewState(chartID string) *Ot.ViewState {
	st := &Ot.ViewState{
		ChartID: chartID,
		SavedAt: time.Now(),
		XLim:    e.xlim,
		YLim:    e.ylim,
	}
	if e.periodMode == Ot.Manual {
		p := e.period
		st.Period = &p
	}
	if e.yMode == Ot.Manual {
		st.YValues = append([]float64(nil), e.yValues...)
	}
	if e.colorMode == Ot.Manual {
		st.ColorValues = append([]float64(nil), e.colorValues...)
	}
	return st
}

// ApplyViewState restores persisted manual state through the same
// setters a caller would use
func (e *Engine) ApplyViewState(st *Ot.ViewState) error {
	if st == nil {
		return nil
	}
	if st.Period != nil {
		e.SetPeriod(*st.Period)
	}
	if len(st.YValues) != 0 {
		if err := e.SetYValues(st.YValues); err != nil {
			return err
		}
	}
	if len(st.ColorValues) != 0 {
		if err := e.SetColorValues(st.ColorValues); err != nil {
			return err
		}
	}
	if st.XLim != nil {
		if err := e.SetXLimits(st.XLim[0], st.XLim[1]); err != nil {
			return err
		}
	}
	if st.YLim != nil {
		if err := e.SetYLimits(st.YLim[0], st.YLim[1]); err != nil {
			return err
		}
	}
	return nil
}

// SnapshotOutput is the narrow adapter surface the engine side
// needs; plugin implementations satisfy it
type SnapshotOutput interface {
	WriteSnapshot(s *Ot.RenderSnapshot) error
	Flush() error
	Close() error
	Type() string
}

// Chart binds one engine to its event feed. The engine itself is
// single-threaded; the Chart owns the lock that serializes pollers
// and renderers around it.
type Chart struct {
	MU      sync.RWMutex
	ID      string
	URL     string
	Delim   string
	Refresh time.Duration
	Engine  *Engine

	// Colorer recolors events as they arrive off the feed,
	// overriding any per-event feed values
	Colorer ValueTransformer
}

// ValueTransformer matches the plugin transformer surface without
// importing the plugin package from here
type ValueTransformer interface {
	Transform(ev Ot.Event, period Ot.TimePeriod) (float64, error)
	Type() string
}

// ChartSet is the connected collection of charts, one per feed.
// This is what the display walks when drawing.
type ChartSet struct {
	MU     sync.RWMutex
	Charts []*Chart
	Output SnapshotOutput // optional adapter for snapshots
}

func NewChartSet(charts ...*Chart) *ChartSet {
	return &ChartSet{Charts: charts}
}

// Snapshot captures the chart's current derived output for adapters
func (c *Chart) Snapshot() (*Ot.RenderSnapshot, error) {
	c.MU.Lock()
	defer c.MU.Unlock()

	segs, colors, err := c.Engine.Segments()
	if err != nil {
		return nil, err
	}
	window, err := c.Engine.Window()
	if err != nil {
		return nil, err
	}
	period, err := c.Engine.Period()
	if err != nil {
		return nil, err
	}
	colorRange, err := c.Engine.ColorRange()
	if err != nil {
		return nil, err
	}

	return &Ot.RenderSnapshot{
		ChartID:    c.ID,
		TakenAt:    time.Now(),
		Period:     period,
		Window:     window,
		Segments:   segs,
		Colors:     colors,
		ColorRange: colorRange,
	}, nil
}
