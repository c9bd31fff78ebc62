/*package geom contains the bounding volumes and octant arithmetic used by
the cell tree.*/
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Sphere is the bounding volume of a tree cell. R is the half-width of the
// cell's cube: the cell spans [C - R, C + R] along each axis, so containment
// is measured in the Chebyshev metric.
type Sphere struct {
	C r3.Vec
	R float64
}

// Contains returns whether pt lies inside s.
func (s *Sphere) Contains(pt r3.Vec) bool {
	d := pt.Sub(s.C)
	return math.Abs(d.X) <= s.R &&
		math.Abs(d.Y) <= s.R &&
		math.Abs(d.Z) <= s.R
}

// Octant returns the octant code of pt relative to the center of s. Bit 0
// is set when pt is at or above the center along x, bit 1 along y, and
// bit 2 along z.
func (s *Sphere) Octant(pt r3.Vec) int {
	oct := 0
	if pt.X >= s.C.X { oct |= 1 }
	if pt.Y >= s.C.Y { oct |= 2 }
	if pt.Z >= s.C.Z { oct |= 4 }
	return oct
}

// ChildSphere returns the bounding volume of the child cell occupying the
// given octant: the radius is halved and the center is offset by the
// child's radius along each axis.
func (s *Sphere) ChildSphere(oct int) Sphere {
	r := s.R / 2
	c := s.C
	if oct&1 != 0 { c.X += r } else { c.X -= r }
	if oct&2 != 0 { c.Y += r } else { c.Y -= r }
	if oct&4 != 0 { c.Z += r } else { c.Z -= r }
	return Sphere{c, r}
}
