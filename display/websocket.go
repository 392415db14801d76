package ostinato

import (
	"math"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	Ot "github.com/maroda/ostinato/types"
)

// ArcDataD3 is one event as a dial arc for the D3 frontend.
// A cycle is a circle, so every event becomes an arc with a start
// angle and a sweep. A wrapped event crosses 12 o'clock and is sent
// as a single arc whose sweep runs through zero.
type ArcDataD3 struct {
	Ring       int     `json:"ring"`       // one ring per chart
	Chart      string  `json:"chart"`      // which chart the arc belongs to
	Name       string  `json:"name"`       // event name
	StartAngle float64 `json:"startAngle"` // 0-360 degrees
	Sweep      float64 `json:"sweep"`      // degrees of arc
	Wrapped    bool    `json:"wrapped"`    // crosses the cycle seam
	Color      string  `json:"color"`      // hex fill
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (v *CycleView) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// Send arc data periodically
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		arcData := v.GetArcDataD3()
		if err := conn.WriteJSON(arcData); err != nil {
			return // Connection closed
		}
	}
}

func (v *CycleView) GetArcDataD3() []ArcDataD3 {
	// Make sure we're not nil
	if v.Set == nil || v.Set.Charts == nil {
		return []ArcDataD3{}
	}

	// Lock the ChartSet
	v.Set.MU.RLock()
	defer v.Set.MU.RUnlock()

	var arcs []ArcDataD3

	for ci, chart := range v.Set.Charts {
		// Check for nil charts first
		if chart == nil {
			continue
		}

		// Lock the Chart in full, reading may recompute a dirty engine
		chart.MU.Lock()
		segs, colors, err := chart.Engine.Segments()
		window, werr := chart.Engine.Window()
		chart.MU.Unlock()
		if err != nil || werr != nil {
			continue
		}

		for i, seg := range segs {
			// A wrapped event begins at the later knot and runs
			// through the seam to the earlier one
			begin := seg.X[1]
			if seg.Wrapped {
				begin = seg.X[3]
			}
			arc := ArcDataD3{
				Ring:       ci,
				Chart:      chart.ID,
				Name:       seg.Name,
				StartAngle: CalcAngle(begin, window),
				Sweep:      CalcSweep(seg, window),
				Wrapped:    seg.Wrapped,
				Color:      HexColor(colors[i]),
			}
			arcs = append(arcs, arc)
		}
	}
	return arcs
}

// CalcAngle places a cycle timestamp on the dial.
// 12 o'clock is the window start, sweep runs clockwise.
func CalcAngle(t time.Time, window Ot.CycleWindow) float64 {
	span := window.End.Sub(window.Start)
	if span <= 0 {
		return 0
	}
	frac := float64(t.Sub(window.Start)) / float64(span)
	angle := frac * 360.0

	// Normalize to 0-360 range
	return math.Mod(angle+360.0, 360.0)
}

// CalcSweep measures the arc an event covers on the dial. The span
// of a wrapped event is the two stubs on either side of the seam,
// never the gap between them.
func CalcSweep(seg Ot.RenderSegment, window Ot.CycleWindow) float64 {
	span := window.End.Sub(window.Start)
	if span <= 0 {
		return 0
	}

	if seg.Wrapped {
		// [start..earlier] plus [later..end]
		head := seg.X[1].Sub(seg.X[0])
		tail := seg.X[4].Sub(seg.X[3])
		return (float64(head) + float64(tail)) / float64(span) * 360.0
	}

	return float64(seg.X[3].Sub(seg.X[1])) / float64(span) * 360.0
}
