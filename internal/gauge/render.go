package gauge

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	minWidth   = 11
	filledRune = "█"
	emptyRune  = "░"
	handRune   = "▼"
)

var (
	tickStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	handStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#D2D2D2")).Bold(true)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
)

// Render draws a horizontal dial of the given width for a clamped value:
// a hand row, the sector bar filled up to the value, the tick labels and
// the value as middle text.
func Render(value float64, width int) string {
	if width < minWidth {
		width = minWidth
	}
	value = Clamp(value)
	pos := int(value / Max * float64(width-1))

	hand := strings.Repeat(" ", pos) + handStyle.Render(handRune)

	var bar strings.Builder
	for i := 0; i < width; i++ {
		cell := float64(i) / float64(width-1) * Max
		style := lipgloss.NewStyle().Foreground(BandOf(cell).Color())
		if i <= pos {
			bar.WriteString(style.Render(filledRune))
		} else {
			bar.WriteString(style.Faint(true).Render(emptyRune))
		}
	}

	middle := valueStyle.Render(fmt.Sprintf("%.2f %%", value))
	middle = lipgloss.PlaceHorizontal(width, lipgloss.Center, middle)

	return lipgloss.JoinVertical(lipgloss.Left, hand, bar.String(), ticks(width), middle)
}

// ticks lays out the labels 0, 20, ... 100 under their bar positions.
func ticks(width int) string {
	row := []rune(strings.Repeat(" ", width+3))
	for v := Min; v <= Max; v += BandWidth {
		label := fmt.Sprintf("%.0f", v)
		at := int(v / Max * float64(width-1))
		if at+len(label) > len(row) {
			at = len(row) - len(label)
		}
		copy(row[at:], []rune(label))
	}
	return tickStyle.Render(strings.TrimRight(string(row), " "))
}
