package ostinato

import (
	"os"
	"testing"

	Ot "github.com/maroda/ostinato/types"
)

// Temporary OS file to use for testing configurations
func createTempFile(t testing.TB, data string) (*os.File, func()) {
	t.Helper()
	tmpfile, err := os.CreateTemp("", "db")
	if err != nil {
		t.Fatalf("could not create temp file %v", err)
	}

	tmpfile.Write([]byte(data))
	removeFile := func() {
		tmpfile.Close()
		os.Remove(tmpfile.Name())
	}
	return tmpfile, removeFile
}

func TestLoadConfigFileName(t *testing.T) {
	configFile, delConfig := createTempFile(t, `[{
		  "id": "CAL01",
		  "url": "http://localhost:9999/events.json",
		  "period": "day",
		  "colorStyle": "solid",
		  "refreshSec": 30
		},{
		  "id": "CAL02",
		  "url": "./events.json",
		  "period": "auto",
		  "lineWeight": 2
		}]`)
	defer delConfig()

	t.Run("Loads all chart stanzas", func(t *testing.T) {
		config, err := LoadConfigFileName(configFile.Name())
		assertError(t, err, nil)
		assertInt(t, len(config), 2)
		assertString(t, config[0].ID, "CAL01")
		assertString(t, config[1].Period, "auto")
		assertInt(t, config[0].RefreshSec, 30)
	})

	t.Run("Rejects an empty file", func(t *testing.T) {
		emptyFile, delEmpty := createTempFile(t, "")
		defer delEmpty()

		_, err := LoadConfigFileName(emptyFile.Name())
		assertGotError(t, err)
	})

	t.Run("Rejects a missing file", func(t *testing.T) {
		_, err := LoadConfigFileName("/does/not/exist.json")
		assertGotError(t, err)
	})

	t.Run("Rejects garbage JSON", func(t *testing.T) {
		badFile, delBad := createTempFile(t, `{not json]`)
		defer delBad()

		_, err := LoadConfigFileName(badFile.Name())
		assertGotError(t, err)
	})
}

func TestNewChartsFromConfig(t *testing.T) {
	t.Run("Builds one chart per stanza with its settings", func(t *testing.T) {
		config := []ConfigFile{
			{ID: "CAL01", URL: "./events.json", Period: "year", ColorStyle: "solid", RefreshSec: 30},
			{ID: "CAL02", URL: "./more.json"},
		}

		charts, err := NewChartsFromConfig(config)
		assertError(t, err, nil)
		assertInt(t, len(charts), 2)
		assertString(t, charts[0].ID, "CAL01")

		// The fixed period carries through
		p, err := charts[0].Engine.Period()
		assertError(t, err, nil)
		if p != Ot.PeriodYear {
			t.Errorf("got %s, want year", PeriodString(p))
		}

		// Defaulted refresh on the second stanza
		if charts[1].Refresh <= 0 {
			t.Errorf("expected a default refresh interval")
		}
	})

	t.Run("A custom palette replaces the default", func(t *testing.T) {
		config := []ConfigFile{
			{ID: "CAL01", URL: "./events.json", Palette: [][3]float64{{1, 0, 0}, {0, 0, 1}}},
		}

		charts, err := NewChartsFromConfig(config)
		assertError(t, err, nil)
		assertInt(t, len(charts[0].Engine.palette), 2)
	})

	t.Run("A bad period fails the whole load", func(t *testing.T) {
		config := []ConfigFile{{ID: "CAL01", Period: "fortnight"}}
		_, err := NewChartsFromConfig(config)
		assertGotError(t, err)
	})

	t.Run("A bad palette fails the whole load", func(t *testing.T) {
		config := []ConfigFile{{ID: "CAL01", Palette: [][3]float64{{2, 0, 0}}}}
		_, err := NewChartsFromConfig(config)
		assertError(t, err, ErrBadChannel)
	})

	t.Run("colorBy resolves a transformer plugin", func(t *testing.T) {
		config := []ConfigFile{{ID: "CAL01", ColorBy: "weekday"}}
		charts, err := NewChartsFromConfig(config)
		assertError(t, err, nil)
		if charts[0].Colorer == nil {
			t.Fatalf("expected a colorer to be wired")
		}
		assertString(t, charts[0].Colorer.Type(), "weekday")
	})

	t.Run("An unknown colorBy fails the whole load", func(t *testing.T) {
		config := []ConfigFile{{ID: "CAL01", ColorBy: "phase-of-moon"}}
		_, err := NewChartsFromConfig(config)
		assertGotError(t, err)
	})

	t.Run("Marker and line weight pass through", func(t *testing.T) {
		config := []ConfigFile{{ID: "CAL01", Marker: "=", LineWeight: 3}}
		charts, err := NewChartsFromConfig(config)
		assertError(t, err, nil)
		if charts[0].Engine.Marker != '=' {
			t.Errorf("marker did not carry through")
		}
		assertInt(t, charts[0].Engine.LineWeight, 3)
	})
}
