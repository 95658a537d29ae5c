package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a grid of Braille cells. Each cell remembers the last colour drawn into it.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Ink           [][]int
	Labels        map[[2]int]string
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Ink:    make([][]int, h),
		Labels: make(map[[2]int]string),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Ink[i] = make([]int, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.Ink[i][j] = -1
		}
	}
	return c
}

// SubWidth and SubHeight are the canvas size in dots.
func (c *Canvas) SubWidth() int  { return c.Width * 2 }
func (c *Canvas) SubHeight() int { return c.Height * 4 }

// Set lights the dot at (x, y) in dot coordinates with colour index ink.
func (c *Canvas) Set(x, y, ink int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	c.Ink[row][col] = ink
}

// DrawLine draws a line using Bresenham's algorithm, clipped to the canvas.
func (c *Canvas) DrawLine(x0, y0, x1, y1, ink int) {
	c.DrawSegment(float64(x0), float64(y0), float64(x1), float64(y1), ink)
}

// DrawSegment clips the segment to the dot area and draws what is left.
// Segments with NaN or Inf endpoints are skipped.
func (c *Canvas) DrawSegment(x0, y0, x1, y1 float64, ink int) {
	x0, y0, x1, y1, ok := c.clip(x0, y0, x1, y1)
	if !ok {
		return
	}
	c.bresenham(int(x0), int(y0), int(x1), int(y1), ink)
}

// clip is Liang-Barsky against [0, SubWidth-1] x [0, SubHeight-1].
func (c *Canvas) clip(x0, y0, x1, y1 float64) (float64, float64, float64, float64, bool) {
	for _, v := range [4]float64{x0, y0, x1, y1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, 0, 0, false
		}
	}

	xmax, ymax := float64(c.SubWidth()-1), float64(c.SubHeight()-1)
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, x0},
		{dx, xmax - x0},
		{-dy, y0},
		{dy, ymax - y0},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = min(t1, r)
		}
	}

	// Clamp against rounding at the edges.
	clamp := func(v, hi float64) float64 { return math.Min(math.Max(v, 0), hi) }
	return clamp(x0+t0*dx, xmax), clamp(y0+t0*dy, ymax),
		clamp(x0+t1*dx, xmax), clamp(y0+t1*dy, ymax), true
}

func (c *Canvas) bresenham(x0, y0, x1, y1, ink int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0, ink)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Label places text starting at the cell containing dot (x, y).
func (c *Canvas) Label(x, y int, text string) {
	col, row := x/2, y/4
	if x < 0 || y < 0 || col >= c.Width || row >= c.Height {
		return
	}
	c.Labels[[2]int{row, col}] = text
}

// Lit reports how many cells have at least one dot set.
func (c *Canvas) Lit() int {
	n := 0
	for _, row := range c.Grid {
		for _, r := range row {
			if r != blank {
				n++
			}
		}
	}
	return n
}

func (c *Canvas) String() string {
	return c.Render(nil)
}

// Render returns the canvas as text, colouring cells by their ink index when styles is non-nil.
func (c *Canvas) Render(styles []lipgloss.Style) string {
	var b strings.Builder
	for row := range c.Grid {
		for col := 0; col < c.Width; col++ {
			if text, ok := c.Labels[[2]int{row, col}]; ok {
				n := len([]rune(text))
				if col+n > c.Width {
					n = c.Width - col
				}
				b.WriteString(string([]rune(text)[:n]))
				col += n - 1
				continue
			}

			cell := string(c.Grid[row][col])
			ink := c.Ink[row][col]
			if styles != nil && ink >= 0 && ink < len(styles) {
				cell = styles[ink].Render(cell)
			}
			b.WriteString(cell)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
