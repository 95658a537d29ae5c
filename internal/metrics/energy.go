package metrics

import (
	"math"

	"github.com/san-kum/orbitsim/internal/nbody"
)

func KineticEnergy(bodies nbody.Bodies) float64 {
	ke := 0.0
	for _, b := range bodies {
		ke += 0.5 * b.Mass * b.Velocity.Dot(b.Velocity)
	}
	return ke
}

// PotentialEnergy sums -G m_i m_j / r over every unordered pair. Coincident
// massive pairs yield -Inf.
func PotentialEnergy(bodies nbody.Bodies) float64 {
	pe := 0.0
	for i := range bodies {
		for j := i + 1; j < len(bodies); j++ {
			mm := bodies[i].Mass * bodies[j].Mass
			if mm == 0 {
				continue
			}
			r := bodies[j].Position.Sub(bodies[i].Position).Length()
			pe -= nbody.G * mm / r
		}
	}
	return pe
}

func TotalEnergy(bodies nbody.Bodies) float64 {
	return KineticEnergy(bodies) + PotentialEnergy(bodies)
}

func Momentum(bodies nbody.Bodies) nbody.Vector3 {
	var p nbody.Vector3
	for _, b := range bodies {
		p = p.Add(b.Velocity.Scale(b.Mass))
	}
	return p
}

// AngularMomentum is the total r x m v about the origin.
func AngularMomentum(bodies nbody.Bodies) nbody.Vector3 {
	var l nbody.Vector3
	for _, b := range bodies {
		r, v := b.Position, b.Velocity
		l.X += b.Mass * (r.Y*v.Z - r.Z*v.Y)
		l.Y += b.Mass * (r.Z*v.X - r.X*v.Z)
		l.Z += b.Mass * (r.X*v.Y - r.Y*v.X)
	}
	return l
}

type Energy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) OnStep(bodies nbody.Bodies, step int) {
	e.totalEnergy += TotalEnergy(bodies)
	e.samples++
}

// Value is the mean total energy over all observed ticks.
func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}

type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) OnStep(bodies nbody.Bodies, step int) {
	energy := TotalEnergy(bodies)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

// Value is the largest relative energy drift seen so far.
func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
