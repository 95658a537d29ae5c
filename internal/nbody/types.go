package nbody

import (
	"fmt"
	"math"
)

// G is the gravitational constant in m^3 kg^-1 s^-2.
const G = 6.67408e-11

type Vector3 struct {
	X, Y, Z float64
}

func (v Vector3) Add(o Vector3) Vector3   { return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vector3) Sub(o Vector3) Vector3   { return Vector3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vector3) Scale(s float64) Vector3 { return Vector3{v.X * s, v.Y * s, v.Z * s} }
func (v Vector3) Dot(o Vector3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vector3) Length() float64         { return math.Sqrt(v.Dot(v)) }
func (v Vector3) String() string          { return fmt.Sprintf("(%v,%v,%v)", v.X, v.Y, v.Z) }
func (v Vector3) IsValid() bool           { return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z) }

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Body is a point mass. Position is in meters, Velocity in m/s, Mass in kg.
type Body struct {
	Name     string
	Mass     float64
	Position Vector3
	Velocity Vector3
}

func (b Body) String() string {
	return fmt.Sprintf("Name: %s\nMass: %v\nInitial Position: %s\nInitial Velocity: %s\n",
		b.Name, b.Mass, b.Position, b.Velocity)
}

type Bodies []Body

// Clone returns an independent copy. Body holds only values, so a slice copy is deep.
func (bs Bodies) Clone() Bodies {
	c := make(Bodies, len(bs))
	copy(c, bs)
	return c
}

func (bs Bodies) Names() []string {
	names := make([]string, len(bs))
	for i, b := range bs {
		names[i] = b.Name
	}
	return names
}

type Config struct {
	Dt              float64
	Steps           int
	ReportFrequency int
}

func DefaultConfig() Config {
	return Config{
		Dt:              1.0,
		Steps:           100,
		ReportFrequency: 10,
	}
}

// Samples is the number of trajectory points each body gets from a run.
func (c Config) Samples() int {
	if c.Steps < 1 || c.ReportFrequency < 1 {
		return 0
	}
	return (c.Steps - 1) / c.ReportFrequency
}

// Trajectory holds one body's sampled positions in tick order.
type Trajectory struct {
	Name string
	X    []float64
	Y    []float64
	Z    []float64
}

func (t *Trajectory) Len() int { return len(t.X) }

func (t *Trajectory) Append(p Vector3) {
	t.X = append(t.X, p.X)
	t.Y = append(t.Y, p.Y)
	t.Z = append(t.Z, p.Z)
}

func (t *Trajectory) Point(i int) Vector3 {
	return Vector3{t.X[i], t.Y[i], t.Z[i]}
}

func (t *Trajectory) Points() []Vector3 {
	pts := make([]Vector3, t.Len())
	for i := range pts {
		pts[i] = t.Point(i)
	}
	return pts
}

// History holds one trajectory per body, in body order.
type History []Trajectory

func NewHistory(bodies Bodies, capacity int) History {
	h := make(History, len(bodies))
	for i, b := range bodies {
		h[i] = Trajectory{
			Name: b.Name,
			X:    make([]float64, 0, capacity),
			Y:    make([]float64, 0, capacity),
			Z:    make([]float64, 0, capacity),
		}
	}
	return h
}

// ByName returns the first trajectory recorded under name.
func (h History) ByName(name string) (*Trajectory, bool) {
	for i := range h {
		if h[i].Name == name {
			return &h[i], true
		}
	}
	return nil, false
}

func (h History) record(bodies Bodies) {
	for i := range h {
		h[i].Append(bodies[i].Position)
	}
}

type Observer interface {
	OnStep(bodies Bodies, step int)
}

type Metric interface {
	Observer
	Name() string
	Value() float64
	Reset()
}

type Result struct {
	Initial    Bodies
	Final      Bodies
	History    History
	Metrics    map[string]float64
	StepsTaken int
}
