/*package moment implements truncated Cartesian multipole and local
expansions of the dipole potential kernel, V(r) = mu.r / |r|^3, along with
the translation and evaluation operators connecting them.

Expansions are indexed by monomial multi-indices n = (nx, ny, nz). A cell's
multipole coefficients span degrees 1 through the expansion order (dipole
sources carry no monopole term), while its local coefficients span degrees
0 through order - 1. The conventions are

	M_n   = (-1)^|n| / n! * sum_a mu_a n_a dx^(n - e_a)
	V(r)  = sum_n M_n D_n(r - c)
	L_n   = sum_m M_m D_(n+m)(R)
	V(c + y) = sum_n L_n y^n / n!

where D_n is the nth partial derivative of 1/|r| and R separates the two
expansion centers.*/
package moment

// Nterms returns the number of monomial multi-indices with total degree at
// most p.
func Nterms(p int) int {
	return (p + 1) * (p + 2) * (p + 3) / 6
}

// Basis holds the multi-index tables shared by every expansion of a given
// order. It is read-only after creation and safe for concurrent use.
type Basis struct {
	Order int
	mons  [][3]int
	pos   []int
	fact  []float64
	side  int
}

// NewBasis creates the multi-index tables for expansions of the given
// order. Multi-indices are enumerated up to degree order + 1, since the
// field of a multipole expansion requires derivative tensors one degree
// beyond the expansion itself.
func NewBasis(order int) *Basis {
	if order < 1 {
		panic("moment: expansion order must be at least 1")
	}

	b := &Basis{Order: order, side: order + 2}
	b.pos = make([]int, b.side*b.side*b.side)
	for i := range b.pos { b.pos[i] = -1 }

	b.mons = make([][3]int, 0, Nterms(order+1))
	for d := 0; d <= order+1; d++ {
		for nx := d; nx >= 0; nx-- {
			for ny := d - nx; ny >= 0; ny-- {
				nz := d - nx - ny
				b.pos[b.key(nx, ny, nz)] = len(b.mons)
				b.mons = append(b.mons, [3]int{nx, ny, nz})
			}
		}
	}

	b.fact = make([]float64, order+2)
	b.fact[0] = 1
	for i := 1; i < len(b.fact); i++ {
		b.fact[i] = b.fact[i-1] * float64(i)
	}

	return b
}

// MTerms returns the length of a multipole coefficient slice.
func (b *Basis) MTerms() int { return Nterms(b.Order) - 1 }

// LTerms returns the length of a local coefficient slice.
func (b *Basis) LTerms() int { return Nterms(b.Order - 1) }

// DTerms returns the length of the derivative-tensor scratch buffer
// required by M2L and M2P.
func (b *Basis) DTerms() int { return Nterms(b.Order + 1) }

func (b *Basis) key(nx, ny, nz int) int {
	return (nx*b.side+ny)*b.side + nz
}

// index returns the position of the multi-index (nx, ny, nz) in the
// degree-ordered enumeration.
func (b *Basis) index(nx, ny, nz int) int {
	return b.pos[b.key(nx, ny, nz)]
}

// nfact returns n! = nx! ny! nz!.
func (b *Basis) nfact(n [3]int) float64 {
	return b.fact[n[0]] * b.fact[n[1]] * b.fact[n[2]]
}
