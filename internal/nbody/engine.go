package nbody

import "math"

// Acceleration returns the gravitational acceleration on bodies[i] from every other body.
// Contributions are summed in list order.
func Acceleration(bodies Bodies, i int) (Vector3, error) {
	var acc Vector3
	cur := bodies[i].Position

	for j := range bodies {
		if j == i {
			continue
		}
		other := bodies[j]

		d := other.Position.Sub(cur)
		r := math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
		if r == 0 {
			return Vector3{}, &SingularError{I: i, J: j, NameI: bodies[i].Name, NameJ: other.Name}
		}

		f := G * other.Mass / (r * r * r)
		acc.X += f * d.X
		acc.Y += f * d.Y
		acc.Z += f * d.Z
	}

	return acc, nil
}

// UpdateVelocities advances every velocity by one tick. Positions are not touched.
func UpdateVelocities(bodies Bodies, dt float64) error {
	return updateVelocities(bodies, dt, make([]Vector3, len(bodies)))
}

// updateVelocities computes all accelerations into acc before committing any velocity.
// On error no velocity has changed.
func updateVelocities(bodies Bodies, dt float64, acc []Vector3) error {
	for i := range bodies {
		a, err := Acceleration(bodies, i)
		if err != nil {
			return err
		}
		acc[i] = a
	}

	for i := range bodies {
		v := &bodies[i].Velocity
		v.X += acc[i].X * dt
		v.Y += acc[i].Y * dt
		v.Z += acc[i].Z * dt
	}
	return nil
}

// UpdatePositions moves every body along its current velocity for one tick.
func UpdatePositions(bodies Bodies, dt float64) {
	for i := range bodies {
		b := &bodies[i]
		b.Position.X += b.Velocity.X * dt
		b.Position.Y += b.Velocity.Y * dt
		b.Position.Z += b.Velocity.Z * dt
	}
}

// Step performs one semi-implicit Euler tick: velocities first, then positions.
func Step(bodies Bodies, dt float64) error {
	if err := UpdateVelocities(bodies, dt); err != nil {
		return err
	}
	UpdatePositions(bodies, dt)
	return nil
}
