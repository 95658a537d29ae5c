package viz

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/orbitsim/internal/nbody"
)

// Camera views the scene from a point above the x-y plane. Z is up.
// Distance 0 gives an orthographic projection.
type Camera struct {
	Elev, Azim float64
	Distance   float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{
		Elev:     30 * math.Pi / 180,
		Azim:     -60 * math.Pi / 180,
		Distance: 8,
		Zoom:     1.0,
	}
}

func (c *Camera) RotateAzim(a float64) { c.Azim += a }
func (c *Camera) RotateElev(a float64) {
	c.Elev = math.Max(-math.Pi/2, math.Min(math.Pi/2, c.Elev+a))
}
func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// View maps a world point to screen-aligned coordinates: x right, y up, z toward the viewer.
// Spin about z by the azimuth, then tilt; elevation 90° looks straight down.
func (c *Camera) View(p nbody.Vector3) nbody.Vector3 {
	rot := mgl64.Rotate3DX(c.Elev - math.Pi/2).Mul3(mgl64.Rotate3DZ(c.Azim))
	v := rot.Mul3x1(mgl64.Vec3{p.X, p.Y, p.Z})
	return nbody.Vector3{X: v[0], Y: v[1], Z: v[2]}
}

// Project converts a point to screen coordinates for a w x h surface.
// Returns x, y, depth, and whether the point is in front of the camera.
func (c *Camera) Project(p nbody.Vector3, w, h float64) (float64, float64, float64, bool) {
	v := c.View(p).Scale(c.Zoom)

	scale := 1.0
	if c.Distance > 0 {
		if v.Z >= c.Distance {
			return 0, 0, 0, false
		}
		scale = c.Distance / (c.Distance - v.Z)
	}

	pScale := math.Min(w, h) / 3.6
	sx := v.X*scale*pScale + w/2
	sy := -v.Y*scale*pScale + h/2
	return sx, sy, v.Z, true
}
