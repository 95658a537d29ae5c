package metrics

import (
	"math"

	"github.com/san-kum/orbitsim/internal/nbody"
)

// MomentumDrift tracks the largest change of total momentum from its initial value.
// The change is relative when the initial momentum is non-zero, absolute otherwise.
type MomentumDrift struct {
	name     string
	initial  nbody.Vector3
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) OnStep(bodies nbody.Bodies, step int) {
	p := Momentum(bodies)
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++

	drift := p.Sub(m.initial).Length()
	if n := m.initial.Length(); n != 0 {
		drift /= n
	}
	m.maxDrift = math.Max(m.maxDrift, drift)
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = nbody.Vector3{}
	m.maxDrift = 0
	m.samples = 0
}
