/*package tree builds the octree that groups particles into spatial cells
for hierarchical field evaluation.

Cells are stored in a flat slice and linked by index, so the slice may grow
during construction without invalidating references. Expansion coefficients
live in two contiguous arenas owned by the Tree, allocated in one shot once
the final cell count is known; each cell views a fixed-length slice of each
arena.*/
package tree

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/fmm/geom"
	"github.com/phil-mansfield/fmm/moment"
)

// MaxDepth bounds recursive splitting. Coincident particles would
// otherwise be routed into the same octant forever, so a cell at MaxDepth
// keeps every particle it is given as an oversized leaf. 48 halvings of
// the root radius is already below the resolution of float64 centers for
// any realistic box.
const MaxDepth = 48

// RootParent is the parent index of the root cell.
const RootParent = -1

// Cell is a single node of the octree.
type Cell struct {
	// Bounds is the cell's bounding volume. The root's bounds must
	// enclose every particle and are supplied by the caller, not derived.
	Bounds geom.Sphere
	// Level is the cell's depth in the tree. The root sits at level 0.
	Level int
	// Parent is the index of the cell's parent, or RootParent for the
	// root.
	Parent int
	// Child holds the indices of the occupied children, at most one per
	// octant.
	Child []int
	// NChild is a bitmask of the occupied octants. Its population count
	// always equals len(Child).
	NChild uint8
	// NLeaf counts every particle ever routed into this cell. While the
	// cell is a leaf it equals len(Leaf); after the cell splits it keeps
	// counting particles that pass through, so for an internal cell it
	// equals the number of particles held by its leaf descendants.
	NLeaf int
	// Leaf holds the indices of the cell's particles. It is valid only
	// while the cell is a leaf and is released when the cell splits.
	Leaf []int
}

// IsLeaf returns whether the cell holds particles directly. A cell forced
// to stop splitting at MaxDepth is a leaf no matter how many particles it
// holds, so leaf-ness is defined by the absence of children rather than by
// comparing NLeaf against ncrit.
func (c *Cell) IsLeaf() bool { return c.NChild == 0 }

// Tree is an octree over a fixed particle set, together with the
// coefficient arenas written by the upward and downward passes.
type Tree struct {
	Cells  []Cell
	Points []r3.Vec
	Ncrit  int

	basis  *moment.Basis
	m, l   []float64
	levels [][]int
	leaves []int
}

// Build inserts every particle into a fresh octree. The root bounds must
// enclose all particles: any particle outside them corrupts the
// containment invariant relied on by every later pass, so it is reported
// as an error rather than misplaced.
func Build(
	points []r3.Vec, root geom.Sphere, ncrit int, basis *moment.Basis,
) (*Tree, error) {
	if ncrit < 1 {
		return nil, fmt.Errorf("tree: ncrit = %d, must be positive", ncrit)
	}
	if root.R <= 0 {
		return nil, fmt.Errorf("tree: root radius = %g, must be positive", root.R)
	}

	t := &Tree{Points: points, Ncrit: ncrit, basis: basis}
	t.Cells = append(t.Cells, Cell{Bounds: root, Parent: RootParent})

	for i, pt := range points {
		if !root.Contains(pt) {
			return nil, fmt.Errorf(
				"tree: particle %d at (%g, %g, %g) lies outside the root cell",
				i, pt.X, pt.Y, pt.Z,
			)
		}
		t.insert(i, 0)
	}

	t.m = make([]float64, len(t.Cells)*basis.MTerms())
	t.l = make([]float64, len(t.Cells)*basis.LTerms())

	depth := 0
	for i := range t.Cells {
		if t.Cells[i].Level > depth { depth = t.Cells[i].Level }
	}
	t.levels = make([][]int, depth+1)
	for i := range t.Cells {
		c := &t.Cells[i]
		t.levels[c.Level] = append(t.levels[c.Level], i)
		if c.IsLeaf() { t.leaves = append(t.leaves, i) }
	}

	return t, nil
}

// insert routes particle p into the subtree rooted at cell ci.
func (t *Tree) insert(p, ci int) {
	for {
		if t.Cells[ci].IsLeaf() {
			t.Cells[ci].Leaf = append(t.Cells[ci].Leaf, p)
			t.Cells[ci].NLeaf++
			if t.Cells[ci].NLeaf > t.Ncrit && t.Cells[ci].Level < MaxDepth {
				t.split(ci)
			}
			return
		}

		t.Cells[ci].NLeaf++
		oct := t.Cells[ci].Bounds.Octant(t.Points[p])
		ci = t.child(ci, oct)
	}
}

// split pushes every particle held by cell ci down into child cells,
// creating them as needed. The cell's leaf list is released and its NLeaf
// counter keeps its split-time value until further particles pass through.
func (t *Tree) split(ci int) {
	leaf := t.Cells[ci].Leaf
	t.Cells[ci].Leaf = nil

	for _, p := range leaf {
		oct := t.Cells[ci].Bounds.Octant(t.Points[p])
		t.insert(p, t.child(ci, oct))
	}
}

// child returns the index of the child of ci in the given octant, creating
// the child if the octant is unoccupied. Cell pointers must not be held
// across calls: creation may grow the cell slice.
func (t *Tree) child(ci, oct int) int {
	if t.Cells[ci].NChild&(1<<uint(oct)) != 0 {
		for _, k := range t.Cells[ci].Child {
			if t.Cells[ci].Bounds.Octant(t.Cells[k].Bounds.C) == oct {
				return k
			}
		}
		panic("tree: occupied octant bit with no matching child")
	}

	k := len(t.Cells)
	t.Cells = append(t.Cells, Cell{
		Bounds: t.Cells[ci].Bounds.ChildSphere(oct),
		Level:  t.Cells[ci].Level + 1,
		Parent: ci,
	})
	t.Cells[ci].Child = append(t.Cells[ci].Child, k)
	t.Cells[ci].NChild |= 1 << uint(oct)
	return k
}

// M returns cell ci's multipole coefficient slice.
func (t *Tree) M(ci int) []float64 {
	n := t.basis.MTerms()
	return t.m[ci*n : (ci+1)*n]
}

// L returns cell ci's local coefficient slice.
func (t *Tree) L(ci int) []float64 {
	n := t.basis.LTerms()
	return t.l[ci*n : (ci+1)*n]
}

// Depth returns the level of the deepest cell.
func (t *Tree) Depth() int { return len(t.levels) - 1 }

// LevelCells returns the indices of every cell at the given level.
func (t *Tree) LevelCells(level int) []int { return t.levels[level] }

// Leaves returns the indices of every leaf cell.
func (t *Tree) Leaves() []int { return t.leaves }
