package viz

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/orbitsim/internal/nbody"
)

// axisInk marks canvas cells drawn by the cube axes rather than a body.
const axisInk = -2

// RenderTerminal draws every trajectory onto a w x h Braille canvas.
func RenderTerminal(scene *Scene, cam *Camera, colours []Colour, w, h int) string {
	c := NewCanvas(w, h)
	sw, sh := float64(c.SubWidth()), float64(c.SubHeight())

	for _, ax := range Axes() {
		x1, y1, _, ok1 := cam.Project(ax.Start, sw, sh)
		x2, y2, _, ok2 := cam.Project(ax.End, sw, sh)
		if ok1 && ok2 {
			c.DrawSegment(x1, y1, x2, y2, axisInk)
			if x2 >= 0 && y2 >= 0 && x2 < sw && y2 < sh {
				c.Label(int(x2), int(y2), ax.Label[:1])
			}
		}
	}

	for i, path := range scene.Paths {
		drawPath(c, cam, path, i, sw, sh)
	}

	styles := make([]lipgloss.Style, len(colours))
	for i, col := range colours {
		styles[i] = col.Style()
	}

	var b strings.Builder
	b.WriteString(c.Render(styles))
	for i, name := range scene.Names {
		marker := "●"
		if i < len(styles) {
			marker = styles[i].Render(marker)
		}
		fmt.Fprintf(&b, "%s %s  ", marker, name)
	}
	b.WriteString("\n")
	return b.String()
}

func drawPath(c *Canvas, cam *Camera, path []nbody.Vector3, ink int, sw, sh float64) {
	px, py, havePrev := 0.0, 0.0, false
	for _, p := range path {
		x, y, _, ok := cam.Project(p, sw, sh)
		if !ok {
			havePrev = false
			continue
		}
		if havePrev {
			c.DrawSegment(px, py, x, y, ink)
		} else {
			c.DrawSegment(x, y, x, y, ink)
		}
		px, py, havePrev = x, y, true
	}
}

type svgSegment struct {
	depth float64
	body  int
	x1    float64
	y1    float64
	x2    float64
	y2    float64
}

// RenderSVG draws the scene as an SVG document: labelled axes, one polyline per
// body in its palette colour, and a legend.
func RenderSVG(scene *Scene, cam *Camera, colours []Colour, width, height int) string {
	w, h := float64(width), float64(height)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#ffffff"/>
`, width, height, width, height)

	sb.WriteString(`<g stroke="#888888" stroke-width="1" font-family="sans-serif" font-size="12" fill="#444444">` + "\n")
	for _, ax := range Axes() {
		x1, y1, _, ok1 := cam.Project(ax.Start, w, h)
		x2, y2, _, ok2 := cam.Project(ax.End, w, h)
		if !ok1 || !ok2 {
			continue
		}
		fmt.Fprintf(&sb, `<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n", x1, y1, x2, y2)
		fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" stroke="none">%s</text>`+"\n", x2+4, y2+4, ax.Label)
	}
	sb.WriteString("</g>\n")

	// Segments are painted back to front so nearer paths overlap farther ones.
	segs := make([]svgSegment, 0)
	for i, path := range scene.Paths {
		if len(path) == 1 {
			x, y, d, ok := cam.Project(path[0], w, h)
			if ok {
				segs = append(segs, svgSegment{d, i, x, y, x, y})
			}
			continue
		}
		for k := 1; k < len(path); k++ {
			x1, y1, d1, ok1 := cam.Project(path[k-1], w, h)
			x2, y2, d2, ok2 := cam.Project(path[k], w, h)
			if ok1 && ok2 {
				segs = append(segs, svgSegment{(d1 + d2) / 2, i, x1, y1, x2, y2})
			}
		}
	}
	sort.SliceStable(segs, func(i, j int) bool { return segs[i].depth < segs[j].depth })

	sb.WriteString(`<g fill="none" stroke-width="1.5" stroke-linecap="round">` + "\n")
	for _, s := range segs {
		fmt.Fprintf(&sb, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s"/>`+"\n",
			s.x1, s.y1, s.x2, s.y2, colourAt(colours, s.body).Hex)
	}
	sb.WriteString("</g>\n")

	sb.WriteString(`<g font-family="sans-serif" font-size="12">` + "\n")
	for i, name := range scene.Names {
		y := 20 + 16*i
		col := colourAt(colours, i).Hex
		fmt.Fprintf(&sb, `<line x1="10" y1="%d" x2="30" y2="%d" stroke="%s" stroke-width="2"/>`+"\n", y-4, y-4, col)
		fmt.Fprintf(&sb, `<text x="36" y="%d" fill="#222222">%s</text>`+"\n", y, html.EscapeString(name))
	}
	sb.WriteString("</g>\n</svg>\n")

	return sb.String()
}

func colourAt(colours []Colour, i int) Colour {
	if i < len(colours) {
		return colours[i]
	}
	return Palette[i%len(Palette)]
}
