package ostinato

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	Oe "github.com/maroda/ostinato/engine"
	Oo "github.com/maroda/ostinato/obvy"
	Op "github.com/maroda/ostinato/plugin"
	Ot "github.com/maroda/ostinato/types"
)

const (
	screenGutter  = 4
	colorbarWidth = 4
)

// CycleView is updated by whatever is in the ChartSet
type CycleView struct {
	MU          sync.Mutex        // State locks to read data
	Set         *Oe.ChartSet      // every chart being projected
	Screen      tcell.Screen      // the screen itself
	Stats       *Oo.StatsInternal // Internal status for prometheus
	States      Op.StateStore     // optional view-state persistence
	server      *http.Server      // Prometheus metrics server
	Supervisor  *PollSupervisor   // feed polling goroutines
	SelectChart int               // Selected Chart with MouseClick
	SelectEvent int               // Selected event with MouseClick
	ShowLabel   bool              // Display event name
}

// ChartBand is the vertical screen slice a chart draws into
func (v *CycleView) ChartBand(chartIndex int) (top, bottom int) {
	_, height := v.GetScreenSize()
	n := len(v.Set.Charts)
	if n == 0 {
		return screenGutter, height - 2
	}
	usable := height - screenGutter - 2
	band := usable / n
	top = screenGutter + chartIndex*band
	bottom = top + band - 1
	return top, bottom
}

// TimeToCol maps a cycle timestamp onto a plot column
func TimeToCol(t time.Time, window Ot.CycleWindow, x0, plotW int) int {
	span := window.End.Sub(window.Start)
	if span <= 0 || plotW <= 1 {
		return x0
	}
	frac := float64(t.Sub(window.Start)) / float64(span)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return x0 + int(frac*float64(plotW-1))
}

// ValToRow maps a Y value onto a band row, higher values higher up
func ValToRow(y, lo, hi float64, top, bottom int) int {
	if hi <= lo || bottom <= top {
		return bottom
	}
	frac := (y - lo) / (hi - lo)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return bottom - int(frac*float64(bottom-top))
}

// RGBStyle turns an engine color triple into a tcell style
func RGBStyle(c Ot.RGB) tcell.Style {
	color := tcell.NewRGBColor(int32(c.R*255), int32(c.G*255), int32(c.B*255))
	return tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(color)
}

// DrawSegmentLine walks the five knots of one polyline and draws a
// run between every consecutive pair whose Y values are both
// present. An absent knot lifts the pen, which is exactly how a
// wrapped event becomes two stubs with a gap in the middle.
func (v *CycleView) DrawSegmentLine(seg Ot.RenderSegment, c Ot.RGB, window Ot.CycleWindow, x0, plotW, row int, marker rune, weight int) {
	style := RGBStyle(c)
	line := marker
	if weight > 1 {
		line = '━'
	}

	for i := 0; i < 4; i++ {
		if !seg.Y[i].OK || !seg.Y[i+1].OK {
			continue
		}
		from := TimeToCol(seg.X[i], window, x0, plotW)
		to := TimeToCol(seg.X[i+1], window, x0, plotW)
		for col := from; col <= to; col++ {
			v.Screen.SetContent(col, row, line, nil, style)
		}
	}
}

// DrawTicks labels the cycle axis under a band: clock times on a
// Day period, month names on a Year period
func (v *CycleView) DrawTicks(window Ot.CycleWindow, period Ot.TimePeriod, format string, x0, plotW, row int) {
	style := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorLightSteelBlue)

	var marks []time.Time
	if period == Ot.PeriodDay {
		for h := 0; h < 24; h += 3 {
			marks = append(marks, window.Start.Add(time.Duration(h)*time.Hour))
		}
	} else {
		for m := 0; m < 12; m++ {
			marks = append(marks, window.Start.AddDate(0, m, 0))
		}
	}

	for _, mark := range marks {
		col := TimeToCol(mark, window, x0, plotW)
		for i, r := range mark.Format(format) {
			v.Screen.SetContent(col+i, row, r, nil, style)
		}
	}
}

// DrawColorbar paints the palette strip with its domain labels,
// only in colormapped mode (a nil range hides the bar)
func (v *CycleView) DrawColorbar(palette []Ot.RGB, cr *Ot.ColorRange, x, top, bottom int) {
	if cr == nil || bottom <= top {
		return
	}

	rows := bottom - top
	for i := 0; i <= rows; i++ {
		// bottom of the strip is the domain minimum
		idx := len(palette) * (rows - i) / (rows + 1)
		if idx >= len(palette) {
			idx = len(palette) - 1
		}
		v.Screen.SetContent(x, top+i, '█', nil, RGBStyle(palette[idx]))
	}

	v.DrawText(x-6, top, x, top, fmt.Sprintf("%.6g", Oe.FloatPrecise(cr.Max, 2)))
	v.DrawText(x-6, bottom, x, bottom, fmt.Sprintf("%.6g", Oe.FloatPrecise(cr.Min, 2)))
}

// DrawText displays the text string at the given (x1, y1) with box size (x2, y2)
func (v *CycleView) DrawText(x1, y1, x2, y2 int, text string) {
	row := y1
	col := x1
	style := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorLightSteelBlue)
	for _, r := range text {
		v.Screen.SetContent(col, row, r, nil, style)
		col++
		if col >= x2 {
			row++
			col = x1
		}
		if row > y2 {
			break
		}
	}
}

// DrawViewBorder displays the outline of the CycleView
func (v *CycleView) DrawViewBorder(width, height int) {
	hvStyle := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorPink)
	v.Screen.SetContent(0, 0, tcell.RuneULCorner, nil, hvStyle)
	for i := 1; i < width; i++ {
		v.Screen.SetContent(i, 0, tcell.RuneHLine, nil, hvStyle)
	}
	v.Screen.SetContent(width, 0, tcell.RuneURCorner, nil, hvStyle)

	for i := 1; i < height; i++ {
		v.Screen.SetContent(0, i, tcell.RuneVLine, nil, hvStyle)
	}

	v.Screen.SetContent(0, height, tcell.RuneLLCorner, nil, hvStyle)

	for i := 1; i < height; i++ {
		v.Screen.SetContent(width, i, tcell.RuneVLine, nil, hvStyle)
	}

	v.Screen.SetContent(width, height, tcell.RuneLRCorner, nil, hvStyle)

	for i := 1; i < width; i++ {
		v.Screen.SetContent(i, height, tcell.RuneHLine, nil, hvStyle)
	}
}

// DrawChart renders one chart's cycle into its band
func (v *CycleView) DrawChart(ci int, chart *Oe.Chart) {
	width, _ := v.GetScreenSize()
	top, bottom := v.ChartBand(ci)
	x0 := 1
	plotW := width - screenGutter - colorbarWidth

	chart.MU.Lock()
	defer chart.MU.Unlock()

	start := time.Now()
	segs, colors, err := chart.Engine.Segments()
	v.Stats.RecRecomputeTimer(time.Since(start).Seconds())

	if err != nil {
		// Fail stale: the previous picture stays up, the reason
		// goes in the band header
		v.Stats.RecRecompute(chart.ID, "stale")
		v.DrawText(x0+1, top, width-2, top, fmt.Sprintf("%s ! %s", chart.ID, err))
		return
	}
	v.Stats.RecRecompute(chart.ID, "ok")

	period, _ := chart.Engine.Period()
	window, _ := chart.Engine.Window()
	format, _ := chart.Engine.TickFormat()
	cr, _ := chart.Engine.ColorRange()
	ylo, yhi, _ := chart.Engine.YRange()

	header := fmt.Sprintf("%s [%s]", chart.ID, Oe.PeriodString(period))
	if adv := chart.Engine.Advisory(); adv != "" {
		header = header + " (" + adv + ")"
	}
	v.DrawText(x0+1, top, width-2, top, header)

	plotTop := top + 1
	plotBottom := bottom - 1
	for i, seg := range segs {
		row := ValToRow(seg.Y[1].Val, ylo, yhi, plotTop, plotBottom)
		v.DrawSegmentLine(seg, colors[i], window, x0, plotW, row, chart.Engine.Marker, chart.Engine.LineWeight)
	}

	v.DrawTicks(window, period, format, x0, plotW, bottom)
	v.DrawColorbar(chart.Engine.Palette(), cr, width-3, plotTop, plotBottom)
}

// DrawCycleViewMulti draws the CycleView itself with tcell
func (v *CycleView) DrawCycleViewMulti() {
	width, height := v.GetScreenSize()

	// Lock ChartSet first, then view state
	v.Set.MU.RLock()
	defer v.Set.MU.RUnlock()

	v.MU.Lock()
	showLabel := v.ShowLabel
	selectChart := v.SelectChart
	selectEvent := v.SelectEvent
	v.MU.Unlock()

	v.DrawViewBorder(width-2, height-1)

	for ci, chart := range v.Set.Charts {
		v.DrawChart(ci, chart)
	}

	// A MouseClick has happened on a segment, show its name
	if showLabel && selectChart < len(v.Set.Charts) {
		chart := v.Set.Charts[selectChart]
		chart.MU.Lock()
		segs, _, err := chart.Engine.Segments()
		chart.MU.Unlock()
		if err == nil && selectEvent < len(segs) {
			label := segs[selectEvent].Name
			if label == "" {
				label = fmt.Sprintf("event %d", selectEvent)
			}
			if segs[selectEvent].Wrapped {
				label = label + " (wraps the cycle)"
			}
			v.DrawText(4, height-2, width, height-2, fmt.Sprintf("... %s ...", label))
		}
	}

	v.DrawText(1, height-1, width, height+10, "/p/ period | /a/ auto | /s/ solid | /ESC/ to quit")
	v.DrawText(width-10, height-1, width, height+10, "OSTINATO")
}

// Exit cleanly
func (v *CycleView) exit() {
	v.MU.Lock()
	defer v.MU.Unlock()
	v.Screen.Fini()
	os.Exit(0)
}

// saveStates persists every chart's manual-mode state, if a
// store was wired in
func (v *CycleView) saveStates() {
	if v.States == nil {
		return
	}
	for _, chart := range v.Set.Charts {
		chart.MU.RLock()
		st := chart.Engine.ViewState(chart.ID)
		chart.MU.RUnlock()
		if err := v.States.SaveViewState(st); err != nil {
			slog.Error("Could not save view state",
				slog.String("chart", chart.ID),
				slog.Any("Error", err))
		}
	}
}

// restoreStates re-applies persisted manual-mode state through the
// engines' own setters
func (v *CycleView) restoreStates() {
	if v.States == nil {
		return
	}
	for _, chart := range v.Set.Charts {
		st, err := v.States.LoadViewState(chart.ID)
		if err != nil || st == nil {
			continue
		}
		chart.MU.Lock()
		if err := chart.Engine.ApplyViewState(st); err != nil {
			slog.Error("Could not restore view state",
				slog.String("chart", chart.ID),
				slog.Any("Error", err))
		}
		chart.MU.Unlock()
	}
}

// Running Loop to handle events
func (v *CycleView) handleKeyBoardEvent() {
	for {
		ev := v.Screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			v.ResizeScreen()
		case *tcell.EventKey:
			// Catch quit and exit
			if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
				v.exit()
			}

			// Flip the selected chart between manual day and year
			if ev.Rune() == 'p' {
				v.togglePeriod()
				v.saveStates()
			}

			// Hand period selection back to the engine
			if ev.Rune() == 'a' {
				v.eachSelected(func(e *Oe.Engine) { e.SetPeriodAuto() })
				v.saveStates()
			}

			// Toggle solid color with 's'
			if ev.Rune() == 's' {
				v.toggleColorStyle()
			}

		case *tcell.EventMouse:
			// Button1 is Left Mouse Button
			if ev.Buttons() == tcell.Button1 {
				v.HandleMouseClick(ev.Position())
			}
		}
	}
}

func (v *CycleView) eachSelected(f func(e *Oe.Engine)) {
	v.Set.MU.RLock()
	defer v.Set.MU.RUnlock()

	v.MU.Lock()
	sel := v.SelectChart
	v.MU.Unlock()

	if sel >= len(v.Set.Charts) {
		return
	}
	chart := v.Set.Charts[sel]
	chart.MU.Lock()
	f(chart.Engine)
	chart.MU.Unlock()
}

func (v *CycleView) togglePeriod() {
	v.eachSelected(func(e *Oe.Engine) {
		p, err := e.Period()
		if err != nil {
			return
		}
		if p == Ot.PeriodDay {
			e.SetPeriod(Ot.PeriodYear)
		} else {
			e.SetPeriod(Ot.PeriodDay)
		}
	})
}

func (v *CycleView) toggleColorStyle() {
	v.eachSelected(func(e *Oe.Engine) {
		cr, err := e.ColorRange()
		if err != nil {
			return
		}
		if cr == nil {
			e.SetColorStyle(Ot.Colormapped)
		} else {
			e.SetColorStyle(Ot.Solid)
		}
	})
}

// HandleMouseClick selects the chart band and event row under the
// pointer so its label can be shown
func (v *CycleView) HandleMouseClick(x, y int) {
	v.Set.MU.RLock()
	defer v.Set.MU.RUnlock()

	v.MU.Lock()
	defer v.MU.Unlock()

	// Assume there is no label so the last one is cleared.
	v.ShowLabel = false

	width, _ := v.GetScreenSize()
	for ci, chart := range v.Set.Charts {
		top, bottom := v.ChartBand(ci)
		if y <= top || y >= bottom || x < 1 || x > width-colorbarWidth {
			continue
		}

		chart.MU.Lock()
		segs, _, err := chart.Engine.Segments()
		ylo, yhi, _ := chart.Engine.YRange()
		chart.MU.Unlock()
		if err != nil {
			return
		}

		for ei, seg := range segs {
			row := ValToRow(seg.Y[1].Val, ylo, yhi, top+1, bottom-1)
			if y == row {
				v.SelectChart = ci
				v.SelectEvent = ei
				v.ShowLabel = true
				return
			}
		}
	}
}

// PollChartsAll refreshes every chart's event feed.
// The error return is currently set to /nil/
// so that feed misses are only logged, not fatal (and blocking)
func (v *CycleView) PollChartsAll() error {
	start := time.Now()

	v.Set.MU.RLock()
	charts := v.Set.Charts
	v.Set.MU.RUnlock()

	for _, chart := range charts {
		if err := chart.RefreshFromFeed(); err != nil {
			// Only log the error, keep going otherwise
			slog.Error("Failed to refresh chart feed",
				slog.String("chart", chart.ID),
				slog.Any("Error", err))
		}
	}

	duration := time.Since(start).Seconds()
	v.Stats.RecPollTimer(duration)

	return nil
}

// writeSnapshots hands the freshest recompute results to the
// output adapter, when one is wired
func (v *CycleView) writeSnapshots() {
	v.Set.MU.RLock()
	defer v.Set.MU.RUnlock()

	if v.Set.Output == nil {
		return
	}
	for _, chart := range v.Set.Charts {
		snap, err := chart.Snapshot()
		if err != nil {
			continue
		}
		if err := v.Set.Output.WriteSnapshot(snap); err != nil {
			slog.Error("Snapshot output failed",
				slog.String("chart", chart.ID),
				slog.String("output", v.Set.Output.Type()),
				slog.Any("Error", err))
		}
	}
}

// GetScreenSize provides the terminal size for drawing
func (v *CycleView) GetScreenSize() (int, int) {
	width, height := v.Screen.Size()
	return width, height
}

// ResizeScreen resizes CycleView after terminal changes
func (v *CycleView) ResizeScreen() {
	v.Screen.Sync()
	v.UpdateScreen()
}

func (v *CycleView) UpdateScreen() {
	v.Screen.Clear()
	v.DrawCycleViewMulti()
	v.Screen.Show()
}

// run runs a loop and updates periodically
// each iteration redraws from the engines, which recompute only
// when a feed poll actually changed their inputs
func (v *CycleView) run() {
	// Panic recovery and logging
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in run loop", slog.Any("panic", r))
			slog.Error("Recovered from panic", slog.String("stack", string(debug.Stack())))
			debug.PrintStack()
		}
	}()

	// Main application loop
	slog.Info("Starting CycleView")
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		v.UpdateScreen()
		v.writeSnapshots()
	}
}

// RespWriter is a wrapper with StatsMiddleware, used for Prometheus
type RespWriter struct {
	http.ResponseWriter
	Status int
}

// WriteHeader is a helper for StatsMiddleware, used for Prometheus
func (w *RespWriter) WriteHeader(status int) {
	w.Status = status
	w.ResponseWriter.WriteHeader(status)
}

// Write is a helper for StatsMiddleware, used for Prometheus
func (w *RespWriter) Write(b []byte) (int, error) {
	return w.ResponseWriter.Write(b)
}

func (v *CycleView) StatsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &RespWriter{
			ResponseWriter: w,
			Status:         200,
		}
		next.ServeHTTP(wrapped, r)

		v.Stats.RecWWW(strconv.Itoa(wrapped.Status), r.Method)
	})
}

// NewCycleView creates the tcell screen that displays the charts
func NewCycleView(set *Oe.ChartSet) (*CycleView, error) {
	if set == nil || set.Charts == nil {
		slog.Error("Could not get a ChartSet for display")
		return nil, errors.New("chart set not found")
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		slog.Error("Could not get new screen", slog.Any("Error", err))
		return nil, err
	}
	if err := screen.Init(); err != nil {
		slog.Error("Could not initialize screen", slog.Any("Error", err))
		return nil, err
	}

	// Define and configure the default screen
	defStyle := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorPink)
	screen.SetStyle(defStyle)
	screen.EnableMouse()

	// create an attached prometheus registry
	stats := Oo.NewStatsInternal()

	view := &CycleView{
		Set:    set,
		Screen: screen,
		Stats:  stats,
	}

	view.UpdateScreen()

	return view, err
}

// StartCycleViewWithConfig is called by main to run the program.
// This also starts up the /metrics endpoint that is populated by prometheus.
func StartCycleViewWithConfig(c []Oe.ConfigFile) error {
	charts, err := Oe.NewChartsFromConfig(c)
	if charts == nil || err != nil {
		slog.Error("Failed to init charts", slog.Any("Error", err))
		return err
	}

	set := Oe.NewChartSet(charts...)

	view, err := NewCycleView(set)
	if err != nil {
		slog.Error("Could not start CycleView", slog.Any("Error", err))
		return err
	}

	// Optional badger persistence for snapshots and view state
	if dbPath := os.Getenv("OSTINATO_DB"); dbPath != "" {
		store, err := Op.NewBadgerOutput(dbPath, 8)
		if err != nil {
			slog.Error("Could not open snapshot store", slog.Any("Error", err))
			return err
		}
		set.Output = store
		view.States = store
		view.restoreStates()
	}

	// Optional MIDI sonification
	if Oe.FillEnvVar("OSTINATO_PLUGIN_MIDI") != "ENOENT" {
		if err := InitMIDIOutput(view, "midi"); err != nil {
			slog.Error("Continuing without MIDI", slog.Any("Error", err))
		}
	}

	// Server for stats endpoint
	view.server = &http.Server{
		Addr:    ":8090",
		Handler: view.SetupMux(),
	}

	// First feed load before drawing anything
	view.PollChartsAll()

	// Keep the feeds fresh
	view.NewPollSupervisor().Start()

	// Run Ostinato
	go view.run()

	// Run stats endpoint
	go func() {
		addr := ":8090"
		slog.Info("Starting Ostinato stats endpoint...", slog.String("Port", addr))
		if err := view.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not start stats endpoint", slog.Any("Error", err))
		}
	}()

	view.handleKeyBoardEvent()

	return err
}

// StartWebNoTUI serves chart data over HTTP without a terminal
func StartWebNoTUI(c []Oe.ConfigFile) error {
	charts, err := Oe.NewChartsFromConfig(c)
	if charts == nil || err != nil {
		slog.Error("Failed to init charts", slog.Any("Error", err))
		return err
	}

	set := Oe.NewChartSet(charts...)

	// Create CycleView without tcell screen
	stats := Oo.NewStatsInternal()
	view := &CycleView{
		Set:   set,
		Stats: stats,
	}

	// Server for stats endpoint
	view.server = &http.Server{
		Addr:    ":8090",
		Handler: view.SetupMux(),
	}

	view.PollChartsAll()
	view.NewPollSupervisor().Start()

	// Run stats endpoint (blocks)
	addr := ":8090"
	slog.Info("Starting Ostinato web server...", slog.String("Port", addr))
	if err := view.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Could not start stats endpoint", slog.Any("Error", err))
		return err
	}

	return nil
}
