package ostinato

import (
	"fmt"
	"math"

	Ot "github.com/maroda/ostinato/types"
)

// DefaultPalette is a sea-to-green ramp, the same family the
// terminal timeseries shading uses.
func DefaultPalette() []Ot.RGB {
	return []Ot.RGB{
		{R: 0.18, G: 0.55, B: 0.34}, // sea green
		{R: 0.24, G: 0.70, B: 0.44}, // medium sea green
		{R: 0.13, G: 0.70, B: 0.67}, // light sea green
		{R: 0.00, G: 0.81, B: 0.82}, // dark turquoise
		{R: 0.28, G: 0.82, B: 0.80}, // medium turquoise
		{R: 0.25, G: 0.88, B: 0.82}, // turquoise
		{R: 0.56, G: 0.93, B: 0.56}, // light green
	}
}

// ValidatePalette rejects malformed palettes at call time,
// before any engine state is touched
func ValidatePalette(palette []Ot.RGB) error {
	if len(palette) == 0 {
		return ErrEmptyPalette
	}
	for i, c := range palette {
		for _, ch := range []float64{c.R, c.G, c.B} {
			if ch < 0 || ch > 1 {
				return fmt.Errorf("%w: entry %d", ErrBadChannel, i)
			}
		}
	}
	return nil
}

// ColorDomain finds the min/max mapping domain for a value set.
// A degenerate domain is widened by one unit so the rescale
// never divides by zero.
func ColorDomain(values []float64) Ot.ColorRange {
	if len(values) == 0 {
		return Ot.ColorRange{Min: 0, Max: 1}
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	return Ot.ColorRange{Min: lo, Max: hi}
}

// PaletteIndex rescales a value from the domain into [1, N+0.99]
// and floors it, so the domain maximum lands on N, never N+1.
// The result is 1-based and clamped to [1, N].
func PaletteIndex(v float64, domain Ot.ColorRange, n int) int {
	scaled := 1 + (v-domain.Min)/(domain.Max-domain.Min)*(float64(n)-0.01)
	idx := int(math.Floor(scaled))

	if idx < 1 {
		idx = 1
	}
	if idx > n {
		idx = n
	}
	return idx
}

// MapColors assigns one RGB per event. Colormapped style looks
// each value up in the palette and reports the domain for the
// colorbar; solid style paints everything with the first entry
// and reports no domain, so the collaborator hides its colorbar.
func MapColors(values []float64, palette []Ot.RGB, style Ot.ColorStyle) ([]Ot.RGB, *Ot.ColorRange) {
	colors := make([]Ot.RGB, len(values))

	if style == Ot.Solid {
		for i := range colors {
			colors[i] = palette[0]
		}
		return colors, nil
	}

	domain := ColorDomain(values)
	for i, v := range values {
		colors[i] = palette[PaletteIndex(v, domain, len(palette))-1]
	}
	return colors, &domain
}
