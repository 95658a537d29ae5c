package metrics

import (
	"math"

	"github.com/san-kum/orbitsim/internal/nbody"
)

// Stability is the fraction of ticks on which every position and velocity was finite.
type Stability struct {
	name       string
	violations int
	samples    int
}

func NewStability() *Stability {
	return &Stability{name: "stability"}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) OnStep(bodies nbody.Bodies, step int) {
	s.samples++
	for _, b := range bodies {
		if !b.Position.IsValid() || !b.Velocity.IsValid() {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// MinSeparation records the closest approach between any two bodies.
type MinSeparation struct {
	name string
	min  float64
}

func NewMinSeparation() *MinSeparation {
	return &MinSeparation{name: "min_separation", min: math.Inf(1)}
}

func (m *MinSeparation) Name() string {
	return m.name
}

func (m *MinSeparation) OnStep(bodies nbody.Bodies, step int) {
	for i := range bodies {
		for j := i + 1; j < len(bodies); j++ {
			r := bodies[j].Position.Sub(bodies[i].Position).Length()
			if r < m.min {
				m.min = r
			}
		}
	}
}

func (m *MinSeparation) Value() float64 {
	return m.min
}

func (m *MinSeparation) Reset() {
	m.min = math.Inf(1)
}

// Defaults returns the metrics attached to every CLI run.
func Defaults() []nbody.Metric {
	return []nbody.Metric{
		NewEnergy(),
		NewEnergyDrift(),
		NewMomentumDrift(),
		NewStability(),
		NewMinSeparation(),
	}
}
