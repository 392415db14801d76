package ostinato

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	Oe "github.com/maroda/ostinato/engine"
	Oo "github.com/maroda/ostinato/obvy"
	Ot "github.com/maroda/ostinato/types"
)

// A view with charts but no terminal attached
func makeTestView(t *testing.T) *CycleView {
	t.Helper()

	e := Oe.NewEngine()
	es := Oe.NewEventSetFromEndTimes(
		[]time.Time{
			time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 4, 23, 30, 0, 0, time.UTC),
		},
		[]time.Time{
			time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
			time.Date(2024, 3, 5, 0, 30, 0, 0, time.UTC),
		},
	).WithNames([]string{"standup", "backup"})
	if err := e.SetEvents(es); err != nil {
		t.Fatalf("could not set events: %v", err)
	}

	chart := &Oe.Chart{ID: "CAL01", Engine: e}
	return &CycleView{
		Set:   Oe.NewChartSet(chart),
		Stats: Oo.NewStatsInternal(),
	}
}

func TestCycleView_SetupMux(t *testing.T) {
	view := makeTestView(t)
	router := view.SetupMux()

	t.Run("Returns the prometheus registry on /metrics", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/metrics", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		assertStatus(t, w.Code, 200)
		// The Go collector is always registered, so the scrape
		// has content even before any chart activity
		assertStringContains(t, w.Body.String(), "go_goroutines")
	})

	t.Run("Returns the version on /api/version", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/version", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		assertStatus(t, w.Code, 200)
		assertStringContains(t, w.Body.String(), "version")
	})

	t.Run("A plain GET on /ws is rejected by the upgrader", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/ws", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, r)

		if w.Code == 200 {
			t.Errorf("expected a websocket handshake failure, got 200")
		}
	})
}

func TestCycleView_ChartDataHandler(t *testing.T) {
	view := makeTestView(t)

	t.Run("Serves every segment with nullable knots", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/api/chart-data", nil)
		w := httptest.NewRecorder()
		view.ChartDataHandler(w, r)

		assertStatus(t, w.Code, 200)

		var segs []SegmentData
		if err := json.NewDecoder(w.Body).Decode(&segs); err != nil {
			t.Fatalf("could not decode response: %v", err)
		}
		assertInt(t, len(segs), 2)
		assertString(t, segs[0].Name, "standup")
		assertString(t, segs[0].Period, "day")

		// The contiguous event carries nulls at the edges
		if segs[0].Y[0] != nil || segs[0].Y[2] == nil {
			t.Errorf("contiguous knot pattern wrong: %+v", segs[0].Y)
		}

		// The wrapped event carries a null at the midpoint
		if !segs[1].Wrapped || segs[1].Y[2] != nil || segs[1].Y[0] == nil {
			t.Errorf("wrapped knot pattern wrong: %+v", segs[1].Y)
		}
	})

	t.Run("A broken chart is skipped, not fatal", func(t *testing.T) {
		bad := Oe.NewEngine()
		es := Oe.NewEventSetFromEndTimes(
			[]time.Time{time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)},
			[]time.Time{time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)},
		)
		if err := bad.SetEvents(es); err != nil {
			t.Fatalf("could not set events: %v", err)
		}
		view.Set.Charts = append(view.Set.Charts, &Oe.Chart{ID: "BAD01", Engine: bad})

		r := httptest.NewRequest("GET", "/api/chart-data", nil)
		w := httptest.NewRecorder()
		view.ChartDataHandler(w, r)

		assertStatus(t, w.Code, 200)

		var segs []SegmentData
		if err := json.NewDecoder(w.Body).Decode(&segs); err != nil {
			t.Fatalf("could not decode response: %v", err)
		}
		for _, s := range segs {
			if s.Chart == "BAD01" {
				t.Errorf("broken chart leaked into the response")
			}
		}
	})
}

func TestHexColor(t *testing.T) {
	t.Run("Converts unit RGB to web hex", func(t *testing.T) {
		assertString(t, HexColor(Ot.RGB{R: 1, G: 0, B: 0}), "#ff0000")
		assertString(t, HexColor(Ot.RGB{R: 0, G: 0, B: 0}), "#000000")
	})
}

func TestStatsMiddleware(t *testing.T) {
	t.Run("Records status and method", func(t *testing.T) {
		view := makeTestView(t)

		wrapped := view.StatsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		r := httptest.NewRequest("GET", "/api/anything", nil)
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, r)
		assertStatus(t, w.Code, http.StatusTeapot)

		m := httptest.NewRequest("GET", "/metrics", nil)
		mw := httptest.NewRecorder()
		view.Stats.Handler().ServeHTTP(mw, m)
		assertStringContains(t, mw.Body.String(), `ostinato_http_requests_total{method="GET",status="418"}`)
	})
}

// Readers arriving over HTTP and the websocket push share charts
// with the feed poller. Reading a dirty engine recomputes it, so
// every reading path must hold the full chart lock. Run with -race.
func TestConcurrentChartReads(t *testing.T) {
	view := makeTestView(t)
	chart := view.Set.Charts[0]

	es := Oe.NewEventSetFromEndTimes(
		[]time.Time{time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)},
		[]time.Time{time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)},
	).WithNames([]string{"standup"})

	stop := make(chan struct{})
	var writer sync.WaitGroup

	// The writer plays the feed poller, re-dirtying the engine
	writer.Add(1)
	go func() {
		defer writer.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			chart.MU.Lock()
			if err := chart.Engine.SetEvents(es); err != nil {
				t.Errorf("could not set events: %v", err)
			}
			chart.MU.Unlock()
		}
	}()

	var readers sync.WaitGroup
	for i := 0; i < 4; i++ {
		readers.Add(2)
		go func() {
			defer readers.Done()
			for j := 0; j < 50; j++ {
				w := httptest.NewRecorder()
				view.ChartDataHandler(w, httptest.NewRequest("GET", "/api/chart-data", nil))
			}
		}()
		go func() {
			defer readers.Done()
			for j := 0; j < 50; j++ {
				view.GetArcDataD3()
			}
		}()
	}

	readers.Wait()
	close(stop)
	writer.Wait()

	// The surviving state is whole and serves cleanly
	w := httptest.NewRecorder()
	view.ChartDataHandler(w, httptest.NewRequest("GET", "/api/chart-data", nil))
	assertStatus(t, w.Code, 200)

	var got []SegmentData
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("could not decode chart data: %v", err)
	}
	assertInt(t, len(got), 1)
	assertString(t, got[0].Name, "standup")
}

// Helpers //

func assertString(t *testing.T, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func assertError(t testing.TB, got, want error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Errorf("got error %q want %q", got, want)
	}
}

func assertStatus(t testing.TB, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct status, got %d, want %d", got, want)
	}
}

func assertInt(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("did not get correct value, got %d, want %d", got, want)
	}
}

func assertStringContains(t *testing.T, full, want string) {
	t.Helper()
	if !strings.Contains(full, want) {
		t.Errorf("Did not find %q, expected string contains %q", want, full)
	}
}
