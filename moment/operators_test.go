package moment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"
)

func dipoleField(x, src, mu r3.Vec) r3.Vec {
	var f r3.Vec
	P2P(&f, x.Sub(src), mu)
	return f
}

func dipolePotential(x, src, mu r3.Vec) float64 {
	r := x.Sub(src)
	d := r3.Norm(r)
	return mu.Dot(r) / (d * d * d)
}

func TestDerivClosedForms(t *testing.T) {
	b := NewBasis(4)
	D := make([]float64, b.DTerms())

	R := r3.Vec{X: 0.5, Y: -0.3, Z: 0.8}
	x, y, z := R.X, R.Y, R.Z
	r := r3.Norm(R)
	r3p := r * r * r
	r5 := r3p * r * r
	r7 := r5 * r * r

	b.Deriv(R, 3, D)

	assert.InDelta(t, 1/r, D[b.index(0, 0, 0)], 1e-14, "1/r")
	assert.InDelta(t, -x/r3p, D[b.index(1, 0, 0)], 1e-14, "d/dx")
	assert.InDelta(t, -y/r3p, D[b.index(0, 1, 0)], 1e-14, "d/dy")
	assert.InDelta(t, -z/r3p, D[b.index(0, 0, 1)], 1e-14, "d/dz")
	assert.InDelta(t, -1/r3p+3*x*x/r5, D[b.index(2, 0, 0)], 1e-13, "d2/dx2")
	assert.InDelta(t, 3*x*y/r5, D[b.index(1, 1, 0)], 1e-13, "d2/dxdy")
	assert.InDelta(t, 3*y*z/r5, D[b.index(0, 1, 1)], 1e-13, "d2/dydz")
	assert.InDelta(t, 9*x/r5-15*x*x*x/r7, D[b.index(3, 0, 0)], 1e-12, "d3/dx3")
	assert.InDelta(t, 3*y/r5-15*x*x*y/r7, D[b.index(2, 1, 0)], 1e-12, "d3/dx2dy")
	assert.InDelta(t, -15*x*y*z/r7, D[b.index(1, 1, 1)], 1e-12, "d3/dxdydz")
}

func TestP2MLowOrderMoments(t *testing.T) {
	b := NewBasis(2)
	M := make([]float64, b.MTerms())
	dx := r3.Vec{X: 0.1, Y: -0.2, Z: 0.3}
	mu := r3.Vec{X: 0.4, Y: 0.5, Z: -0.6}

	b.P2M(M, dx, mu)

	// Degree 1: M_(e_a) = -mu_a.
	assert.InDelta(t, -mu.X, M[b.index(1, 0, 0)-1], 1e-15, "x moment")
	assert.InDelta(t, -mu.Y, M[b.index(0, 1, 0)-1], 1e-15, "y moment")
	assert.InDelta(t, -mu.Z, M[b.index(0, 0, 1)-1], 1e-15, "z moment")

	// Degree 2: M_(2,0,0) = mu_x dx_x, M_(1,1,0) = mu_x dx_y + mu_y dx_x.
	assert.InDelta(t, mu.X*dx.X, M[b.index(2, 0, 0)-1], 1e-15, "xx moment")
	assert.InDelta(
		t, mu.X*dx.Y+mu.Y*dx.X, M[b.index(1, 1, 0)-1], 1e-15, "xy moment",
	)
}

func TestP2PMatchesPotentialGradient(t *testing.T) {
	src := r3.Vec{X: 0.2, Y: -0.1, Z: 0.4}
	mu := r3.Vec{X: 0.3, Y: 0.8, Z: -0.5}
	x := r3.Vec{X: 1.3, Y: 0.7, Z: -0.9}
	h := 1e-5

	f := dipoleField(x, src, mu)

	fx := -(dipolePotential(x.Add(r3.Vec{X: h}), src, mu) -
		dipolePotential(x.Add(r3.Vec{X: -h}), src, mu)) / (2 * h)
	fy := -(dipolePotential(x.Add(r3.Vec{Y: h}), src, mu) -
		dipolePotential(x.Add(r3.Vec{Y: -h}), src, mu)) / (2 * h)
	fz := -(dipolePotential(x.Add(r3.Vec{Z: h}), src, mu) -
		dipolePotential(x.Add(r3.Vec{Z: -h}), src, mu)) / (2 * h)

	assert.InDelta(t, fx, f.X, 1e-6, "x component")
	assert.InDelta(t, fy, f.Y, 1e-6, "y component")
	assert.InDelta(t, fz, f.Z, 1e-6, "z component")
}

// sources used by the translation tests: a handful of dipoles clustered
// around the origin.
var (
	testPoints = []r3.Vec{
		{X: 0.05, Y: -0.02, Z: 0.04},
		{X: -0.06, Y: 0.03, Z: -0.01},
		{X: 0.01, Y: 0.07, Z: -0.05},
	}
	testMoments = []r3.Vec{
		{X: 0.8, Y: -0.2, Z: 0.1},
		{X: -0.3, Y: 0.6, Z: 0.7},
		{X: 0.2, Y: 0.4, Z: -0.9},
	}
)

func directFieldAt(x r3.Vec) r3.Vec {
	var f r3.Vec
	for i := range testPoints {
		P2P(&f, x.Sub(testPoints[i]), testMoments[i])
	}
	return f
}

func TestM2MMatchesDirectP2M(t *testing.T) {
	b := NewBasis(4)
	parent := r3.Vec{}

	// Route each source through the child cell covering its octant and
	// assemble the parent expansion via M2M.
	assembled := make([]float64, b.MTerms())
	children := map[r3.Vec][]float64{}
	for i, pt := range testPoints {
		c := r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}
		if pt.X < 0 { c.X = -0.5 }
		if pt.Y < 0 { c.Y = -0.5 }
		if pt.Z < 0 { c.Z = -0.5 }
		if children[c] == nil { children[c] = make([]float64, b.MTerms()) }
		b.P2M(children[c], pt.Sub(c), testMoments[i])
	}
	for c, M := range children {
		b.M2M(assembled, M, parent.Sub(c))
	}

	// Direct expansion about the parent center.
	direct := make([]float64, b.MTerms())
	for i, pt := range testPoints {
		b.P2M(direct, pt.Sub(parent), testMoments[i])
	}

	for i := range direct {
		assert.InDelta(t, direct[i], assembled[i], 1e-12, "coefficient")
	}
}

func TestM2PMatchesDirectSum(t *testing.T) {
	b := NewBasis(6)
	D := make([]float64, b.DTerms())

	M := make([]float64, b.MTerms())
	for i := range testPoints {
		b.P2M(M, testPoints[i], testMoments[i])
	}

	x := r3.Vec{X: 2.5, Y: 1.0, Z: -1.8}
	var f r3.Vec
	b.M2P(&f, M, x, D)

	want := directFieldAt(x)
	assert.InDelta(t, want.X, f.X, 1e-9, "x component")
	assert.InDelta(t, want.Y, f.Y, 1e-9, "y component")
	assert.InDelta(t, want.Z, f.Z, 1e-9, "z component")
}

func TestM2LThenL2PMatchesDirectSum(t *testing.T) {
	b := NewBasis(6)
	D := make([]float64, b.DTerms())

	M := make([]float64, b.MTerms())
	for i := range testPoints {
		b.P2M(M, testPoints[i], testMoments[i])
	}

	target := r3.Vec{X: 3, Y: 0.5, Z: -0.5}
	L := make([]float64, b.LTerms())
	b.M2L(L, M, target, D)

	dx := r3.Vec{X: 0.05, Y: -0.02, Z: 0.08}
	var f r3.Vec
	b.L2P(&f, L, dx)

	want := directFieldAt(target.Add(dx))
	assert.InDelta(t, want.X, f.X, 1e-7, "x component")
	assert.InDelta(t, want.Y, f.Y, 1e-7, "y component")
	assert.InDelta(t, want.Z, f.Z, 1e-7, "z component")
}

func TestL2LPreservesField(t *testing.T) {
	b := NewBasis(5)
	D := make([]float64, b.DTerms())

	M := make([]float64, b.MTerms())
	for i := range testPoints {
		b.P2M(M, testPoints[i], testMoments[i])
	}

	parent := r3.Vec{X: 3, Y: 0.5, Z: -0.5}
	L := make([]float64, b.LTerms())
	b.M2L(L, M, parent, D)

	child := parent.Add(r3.Vec{X: 0.25, Y: -0.25, Z: 0.25})
	Lc := make([]float64, b.LTerms())
	b.L2L(Lc, L, child.Sub(parent))

	// The same physical point, evaluated through either expansion center,
	// must give an identical field: the shift is an exact polynomial
	// identity.
	x := child.Add(r3.Vec{X: 0.03, Y: 0.04, Z: -0.02})
	var fp, fc r3.Vec
	b.L2P(&fp, L, x.Sub(parent))
	b.L2P(&fc, Lc, x.Sub(child))

	assert.InDelta(t, fp.X, fc.X, 1e-12, "x component")
	assert.InDelta(t, fp.Y, fc.Y, 1e-12, "y component")
	assert.InDelta(t, fp.Z, fc.Z, 1e-12, "z component")
}

func TestM2LAccumulates(t *testing.T) {
	b := NewBasis(3)
	D := make([]float64, b.DTerms())

	M := make([]float64, b.MTerms())
	b.P2M(M, testPoints[0], testMoments[0])

	R := r3.Vec{X: 2, Y: 1, Z: 0.5}
	once := make([]float64, b.LTerms())
	twice := make([]float64, b.LTerms())
	b.M2L(once, M, R, D)
	b.M2L(twice, M, R, D)
	b.M2L(twice, M, R, D)

	for i := range once {
		assert.InDelta(t, 2*once[i], twice[i], math.Abs(once[i])*1e-14+1e-300,
			"accumulation")
	}
}
