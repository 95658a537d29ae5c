package viz

import (
	"math/rand"

	"github.com/charmbracelet/lipgloss"
)

// Colour is one palette entry: a short code plus the hex value used for drawing.
type Colour struct {
	Code string
	Hex  string
}

func (c Colour) Style() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex))
}

var Palette = []Colour{
	{Code: "r", Hex: "#e41a1c"},
	{Code: "b", Hex: "#377eb8"},
	{Code: "g", Hex: "#4daf4a"},
	{Code: "y", Hex: "#ffd92f"},
	{Code: "m", Hex: "#e7298a"},
	{Code: "c", Hex: "#17becf"},
}

// PickColours draws one palette colour per body, with replacement.
func PickColours(n int, seed int64) []Colour {
	rng := rand.New(rand.NewSource(seed))
	out := make([]Colour, n)
	for i := range out {
		out[i] = Palette[rng.Intn(len(Palette))]
	}
	return out
}
