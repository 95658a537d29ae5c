package viz

import (
	"math"

	"github.com/san-kum/orbitsim/internal/nbody"
)

// Bounds is an axis-aligned box in world coordinates.
type Bounds struct {
	Min, Max nbody.Vector3
}

// Scene holds trajectories rescaled so each axis spans [-1, 1], the way a
// 3-D plot fits independent axis limits.
type Scene struct {
	Names  []string
	Paths  [][]nbody.Vector3
	Bounds Bounds
}

func NewScene(history nbody.History) *Scene {
	s := &Scene{
		Names: make([]string, len(history)),
		Paths: make([][]nbody.Vector3, len(history)),
	}

	first := true
	for _, tr := range history {
		for i := 0; i < tr.Len(); i++ {
			p := tr.Point(i)
			if !p.IsValid() {
				continue
			}
			if first {
				s.Bounds = Bounds{Min: p, Max: p}
				first = false
				continue
			}
			s.Bounds.Min = nbody.Vector3{X: math.Min(s.Bounds.Min.X, p.X), Y: math.Min(s.Bounds.Min.Y, p.Y), Z: math.Min(s.Bounds.Min.Z, p.Z)}
			s.Bounds.Max = nbody.Vector3{X: math.Max(s.Bounds.Max.X, p.X), Y: math.Max(s.Bounds.Max.Y, p.Y), Z: math.Max(s.Bounds.Max.Z, p.Z)}
		}
	}

	for i, tr := range history {
		s.Names[i] = tr.Name
		path := make([]nbody.Vector3, 0, tr.Len())
		for k := 0; k < tr.Len(); k++ {
			p := tr.Point(k)
			if !p.IsValid() {
				continue
			}
			path = append(path, s.Normalize(p))
		}
		s.Paths[i] = path
	}

	return s
}

// Normalize maps a world point into the scene's unit cube. Flat axes collapse to 0.
func (s *Scene) Normalize(p nbody.Vector3) nbody.Vector3 {
	return nbody.Vector3{
		X: unit(p.X, s.Bounds.Min.X, s.Bounds.Max.X),
		Y: unit(p.Y, s.Bounds.Min.Y, s.Bounds.Max.Y),
		Z: unit(p.Z, s.Bounds.Min.Z, s.Bounds.Max.Z),
	}
}

func unit(v, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	return 2*(v-lo)/(hi-lo) - 1
}

// Axis is a labelled edge of the unit cube.
type Axis struct {
	Label      string
	Start, End nbody.Vector3
}

// Axes returns the three labelled axes along the cube's lower edges.
func Axes() []Axis {
	o := nbody.Vector3{X: -1, Y: -1, Z: -1}
	return []Axis{
		{Label: "x axis", Start: o, End: nbody.Vector3{X: 1, Y: -1, Z: -1}},
		{Label: "y axis", Start: o, End: nbody.Vector3{X: -1, Y: 1, Z: -1}},
		{Label: "z axis", Start: o, End: nbody.Vector3{X: -1, Y: -1, Z: 1}},
	}
}
