// Package gauge maps liquid levels onto the dashboard dial.
package gauge

import (
	"math"

	"github.com/charmbracelet/lipgloss"
)

// Dial limits.
const (
	Min       = 0.0
	Max       = 100.0
	BandWidth = 20.0
)

// Band is one of the five coloured sectors of the dial.
type Band int

const (
	Low Band = iota
	LowMid
	Mid
	MidHigh
	High
)

var bandNames = [...]string{"low", "low-mid", "mid", "mid-high", "high"}

func (b Band) String() string {
	if b < Low || b > High {
		return "unknown"
	}
	return bandNames[b]
}

// Sector colours of the dial: red, tan, dark slate grey twice, green.
var palette = [...]lipgloss.Color{
	Low:     lipgloss.Color("#FF0000"),
	LowMid:  lipgloss.Color("#D2B48C"),
	Mid:     lipgloss.Color("#2F4F4F"),
	MidHigh: lipgloss.Color("#2F4F4F"),
	High:    lipgloss.Color("#00FF00"),
}

// Color returns the display colour of the band.
func (b Band) Color() lipgloss.Color {
	if b < Low || b > High {
		return palette[Low]
	}
	return palette[b]
}

// Clamp limits raw to the dial range. NaN reads as empty.
func Clamp(raw float64) float64 {
	if math.IsNaN(raw) {
		return Min
	}
	return math.Min(Max, math.Max(Min, raw))
}

// BandOf returns the sector a clamped value falls into. The top sector is
// closed so that Max maps to High.
func BandOf(value float64) Band {
	b := Band(math.Floor(Clamp(value) / BandWidth))
	if b > High {
		return High
	}
	return b
}

// Map clamps a raw level into the dial range and picks its band. Out of
// range levels are clamped, never rejected.
func Map(raw float64) (float64, Band) {
	v := Clamp(raw)
	return v, BandOf(v)
}
