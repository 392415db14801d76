package ostinato

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"time"

	Op "github.com/maroda/ostinato/plugin"
	Ot "github.com/maroda/ostinato/types"
)

// ConfigFile is one chart stanza: where the events come from
// and how they should be projected and painted.
type ConfigFile struct {
	ID         string       `json:"id"`
	URL        string       `json:"url"`
	Period     string       `json:"period,omitempty"`     // "auto", "day", "year"
	ColorStyle string       `json:"colorStyle,omitempty"` // "colormapped", "solid"
	ColorBy    string       `json:"colorBy,omitempty"`    // transformer plugin name
	Palette    [][3]float64 `json:"palette,omitempty"`
	RefreshSec int          `json:"refreshSec,omitempty"`
	Marker     string       `json:"marker,omitempty"`
	LineWeight int          `json:"lineWeight,omitempty"`
}

// LoadConfigFileName pulls a given filename config off local disk
// Validation is performed on the file before opening
func LoadConfigFileName(filename string) ([]ConfigFile, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	// validation
	err = validateLoad(file)
	if err != nil {
		slog.Error("Validation failed", slog.Any("Error", err))
		return nil, err
	}

	return LoadConfig(file)
}

func validateLoad(file *os.File) error {
	// validate file
	info, err := file.Stat()
	if err != nil {
		slog.Error("could not stat file")
		return err
	}

	// validate size
	if info.Size() == 0 {
		slog.Error("file is empty")
		return errors.New("file is empty")
	}

	return nil
}

func LoadConfig(file *os.File) ([]ConfigFile, error) {
	// open file
	cf, err := os.Open(file.Name())
	if err != nil {
		slog.Error("could not open file")
		return nil, err
	}
	defer cf.Close()

	// decode json
	var config []ConfigFile
	decoder := json.NewDecoder(cf)
	if err := decoder.Decode(&config); err != nil {
		slog.Error("could not decode file")
		return nil, err
	}

	return config, nil
}

// NewChartsFromConfig returns the slice of Chart containing all config stanzas
func NewChartsFromConfig(cf []ConfigFile) ([]*Chart, error) {
	var charts []*Chart

	for _, c := range cf {
		eng := NewEngine()

		if p, manual, err := ParsePeriod(c.Period); err != nil {
			slog.Error("Bad period in config",
				slog.String("id", c.ID),
				slog.Any("Error", err))
			return nil, err
		} else if manual {
			eng.SetPeriod(p)
		}

		if c.ColorStyle == "solid" {
			eng.SetColorStyle(Ot.Solid)
		}

		if len(c.Palette) > 0 {
			palette := make([]Ot.RGB, 0, len(c.Palette))
			for _, t := range c.Palette {
				palette = append(palette, Ot.RGB{R: t[0], G: t[1], B: t[2]})
			}
			if err := eng.SetPalette(palette); err != nil {
				slog.Error("Bad palette in config",
					slog.String("id", c.ID),
					slog.Any("Error", err))
				return nil, err
			}
		}

		if c.Marker != "" {
			eng.Marker = []rune(c.Marker)[0]
		}
		if c.LineWeight > 0 {
			eng.LineWeight = c.LineWeight
		}

		refresh := time.Duration(c.RefreshSec) * time.Second
		if refresh <= 0 {
			refresh = time.Minute
		}

		var colorer ValueTransformer
		if c.ColorBy != "" {
			tr, err := Op.TransformerLookup(c.ColorBy)
			if err != nil {
				slog.Error("Bad colorBy in config",
					slog.String("id", c.ID),
					slog.Any("Error", err))
				return nil, err
			}
			colorer = tr
		}

		charts = append(charts, &Chart{
			ID:      c.ID,
			URL:     c.URL,
			Refresh: refresh,
			Engine:  eng,
			Colorer: colorer,
		})
	}
	return charts, nil
}
