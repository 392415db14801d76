package ostinato

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	Oe "github.com/maroda/ostinato/engine"
	Ot "github.com/maroda/ostinato/types"
)

// SetupMux handles all data serving:
// - Prometheus metric endpoint
// - Websocket specialized for D3.js UI
// - Version for programmatic use
// - Chart segment data for UI feedback
func (v *CycleView) SetupMux() *mux.Router {
	r := mux.NewRouter()

	r.Handle("/metrics", v.Stats.Handler())
	r.HandleFunc("/ws", v.WebsocketHandler)
	r.Handle("/api/version", otelhttp.NewHandler(http.HandlerFunc(v.VersionHandler), "version"))
	r.Handle("/api/chart-data", otelhttp.NewHandler(http.HandlerFunc(v.ChartDataHandler), "chart-data"))

	// Static files for D3 frontend
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./web/")))

	api := r.PathPrefix("/api").Subrouter()
	api.Use(v.StatsMiddleware)

	return r
}

var Version = "dev"

func (v *CycleView) VersionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"version": Version})
}

// SegmentData is one polyline as the frontend consumes it. The Y
// array carries nulls where a knot is absent, so D3 can lift the
// pen across the seam of a wrapped event.
type SegmentData struct {
	Chart   string      `json:"chart"`
	Name    string      `json:"name"`
	Period  string      `json:"period"`
	Wrapped bool        `json:"wrapped"`
	X       [5]string   `json:"x"`
	Y       [5]*float64 `json:"y"`
	Color   string      `json:"color"`
}

// HexColor is how the D3 side wants its RGB
func HexColor(c Ot.RGB) string {
	return fmt.Sprintf("#%02x%02x%02x", int(c.R*255), int(c.G*255), int(c.B*255))
}

func (v *CycleView) ChartDataHandler(w http.ResponseWriter, r *http.Request) {
	v.Set.MU.RLock()
	defer v.Set.MU.RUnlock()

	var allSegments []SegmentData

	for _, chart := range v.Set.Charts {
		// Full lock: reading may recompute a dirty engine
		chart.MU.Lock()
		segs, colors, err := chart.Engine.Segments()
		period, perr := chart.Engine.Period()
		chart.MU.Unlock()
		if err != nil || perr != nil {
			continue
		}

		for i, seg := range segs {
			sd := SegmentData{
				Chart:   chart.ID,
				Name:    seg.Name,
				Period:  Oe.PeriodString(period),
				Wrapped: seg.Wrapped,
				Color:   HexColor(colors[i]),
			}
			for k := 0; k < 5; k++ {
				sd.X[k] = seg.X[k].Format("2006-01-02T15:04:05")
				if seg.Y[k].OK {
					val := Oe.FloatPrecise(seg.Y[k].Val, 4)
					sd.Y[k] = &val
				}
			}
			allSegments = append(allSegments, sd)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(allSegments)
}
