package moment

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// pows returns tables of powers of each component of v up to the given
// degree.
func pows(v r3.Vec, deg int) (px, py, pz []float64) {
	px = make([]float64, deg+1)
	py = make([]float64, deg+1)
	pz = make([]float64, deg+1)
	px[0], py[0], pz[0] = 1, 1, 1
	for i := 1; i <= deg; i++ {
		px[i] = px[i-1] * v.X
		py[i] = py[i-1] * v.Y
		pz[i] = pz[i-1] * v.Z
	}
	return px, py, pz
}

// P2M accumulates into M the multipole moments of a single dipole with
// moment mu at displacement dx from the expansion center.
func (b *Basis) P2M(M []float64, dx, mu r3.Vec) {
	px, py, pz := pows(dx, b.Order)
	mu3 := [3]float64{mu.X, mu.Y, mu.Z}

	for i := 1; i < Nterms(b.Order); i++ {
		n := b.mons[i]
		var s float64
		for a := 0; a < 3; a++ {
			if n[a] == 0 { continue }
			m := n
			m[a]--
			s += mu3[a] * float64(n[a]) * px[m[0]] * py[m[1]] * pz[m[2]]
		}
		if (n[0]+n[1]+n[2])%2 == 1 { s = -s }
		M[i-1] += s / b.nfact(n)
	}
}

// M2M translates a child's multipole expansion to its parent's center and
// accumulates it into the parent's coefficients. t is the parent center
// minus the child center. The translation is exact: no truncation error is
// introduced beyond that already present in the child.
func (b *Basis) M2M(parent, child []float64, t r3.Vec) {
	px, py, pz := pows(t, b.Order-1)

	for i := 1; i < Nterms(b.Order); i++ {
		n := b.mons[i]
		var s float64
		for j := 1; j <= i; j++ {
			m := b.mons[j]
			if m[0] > n[0] || m[1] > n[1] || m[2] > n[2] { continue }
			k := [3]int{n[0] - m[0], n[1] - m[1], n[2] - m[2]}
			s += child[j-1] * px[k[0]] * py[k[1]] * pz[k[2]] / b.nfact(k)
		}
		parent[i-1] += s
	}
}

// Deriv fills D with the partial derivatives of 1/|R| for every
// multi-index of degree at most maxDeg. R must be nonzero. Higher
// derivatives follow from the recurrence
//
//	k r^2 D_n = -(2k-1) sum_a n_a R_a D_(n-e_a)
//	            - (k-1) sum_a n_a (n_a - 1) D_(n-2e_a)
//
// for k = |n|, which holds because 1/|R| is harmonic.
func (b *Basis) Deriv(R r3.Vec, maxDeg int, D []float64) {
	r2 := R.X*R.X + R.Y*R.Y + R.Z*R.Z
	D[0] = 1 / math.Sqrt(r2)
	Rv := [3]float64{R.X, R.Y, R.Z}

	for i := 1; i < Nterms(maxDeg); i++ {
		n := b.mons[i]
		k := n[0] + n[1] + n[2]
		var s1, s2 float64
		for a := 0; a < 3; a++ {
			if n[a] == 0 { continue }
			m := n
			m[a]--
			s1 += float64(n[a]) * Rv[a] * D[b.index(m[0], m[1], m[2])]
			if n[a] >= 2 {
				m[a]--
				s2 += float64(n[a]*(n[a]-1)) * D[b.index(m[0], m[1], m[2])]
			}
		}
		D[i] = -(float64(2*k-1)*s1 + float64(k-1)*s2) / (float64(k) * r2)
	}
}

// M2L converts a source cell's multipole expansion into a local expansion
// about the target center and accumulates it into L. R is the target
// center minus the source center, and D is a scratch buffer of at least
// Nterms(order) entries. Terms are kept while the combined degree of the
// local and multipole indices is within the expansion order.
func (b *Basis) M2L(L, M []float64, R r3.Vec, D []float64) {
	p := b.Order
	b.Deriv(R, p, D)

	for i := 0; i < Nterms(p-1); i++ {
		n := b.mons[i]
		nd := n[0] + n[1] + n[2]
		var s float64
		for j := 1; j < Nterms(p-nd); j++ {
			m := b.mons[j]
			s += M[j-1] * D[b.index(n[0]+m[0], n[1]+m[1], n[2]+m[2])]
		}
		L[i] += s
	}
}

// L2L translates a parent's local expansion to a child center and
// accumulates it into the child's coefficients. d is the child center
// minus the parent center. Like M2M, the translation is exact.
func (b *Basis) L2L(child, parent []float64, d r3.Vec) {
	px, py, pz := pows(d, b.Order-1)

	for i := 0; i < Nterms(b.Order-1); i++ {
		k := b.mons[i]
		var s float64
		for j := i; j < Nterms(b.Order-1); j++ {
			n := b.mons[j]
			if n[0] < k[0] || n[1] < k[1] || n[2] < k[2] { continue }
			m := [3]int{n[0] - k[0], n[1] - k[1], n[2] - k[2]}
			s += parent[j] * px[m[0]] * py[m[1]] * pz[m[2]] / b.nfact(m)
		}
		child[i] += s
	}
}

// L2P evaluates the field of a local expansion at displacement dx from the
// expansion center and accumulates it into f.
func (b *Basis) L2P(f *r3.Vec, L []float64, dx r3.Vec) {
	px, py, pz := pows(dx, b.Order-1)
	var F [3]float64

	for i := 0; i < Nterms(b.Order-1); i++ {
		n := b.mons[i]
		c := L[i] / b.nfact(n)
		for a := 0; a < 3; a++ {
			if n[a] == 0 { continue }
			m := n
			m[a]--
			F[a] -= c * float64(n[a]) * px[m[0]] * py[m[1]] * pz[m[2]]
		}
	}

	f.X += F[0]
	f.Y += F[1]
	f.Z += F[2]
}

// M2P evaluates the field of a multipole expansion directly at a point,
// accumulating into f. R is the evaluation point minus the source center,
// and D is a scratch buffer of at least Nterms(order+1) entries. This is
// the Barnes-Hut evaluation path: it bypasses local expansions entirely.
func (b *Basis) M2P(f *r3.Vec, M []float64, R r3.Vec, D []float64) {
	p := b.Order
	b.Deriv(R, p+1, D)
	var F [3]float64

	for j := 1; j < Nterms(p); j++ {
		m := b.mons[j]
		F[0] -= M[j-1] * D[b.index(m[0]+1, m[1], m[2])]
		F[1] -= M[j-1] * D[b.index(m[0], m[1]+1, m[2])]
		F[2] -= M[j-1] * D[b.index(m[0], m[1], m[2]+1)]
	}

	f.X += F[0]
	f.Y += F[1]
	f.Z += F[2]
}

// P2P accumulates into f the exact dipole field at displacement r from a
// dipole with moment mu:
//
//	F = 3 r (mu.r) / |r|^5 - mu / |r|^3
func P2P(f *r3.Vec, r, mu r3.Vec) {
	r2 := r.X*r.X + r.Y*r.Y + r.Z*r.Z
	invR := 1 / math.Sqrt(r2)
	invR3 := invR * invR * invR
	invR5 := invR3 / r2
	mr := 3 * (mu.X*r.X + mu.Y*r.Y + mu.Z*r.Z) * invR5

	f.X += r.X*mr - mu.X*invR3
	f.Y += r.Y*mr - mu.Y*invR3
	f.Z += r.Z*mr - mu.Z*invR3
}
