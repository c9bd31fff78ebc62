/*package fmm approximates the pairwise dipole field of N particles in
O(N log N) time instead of the exact O(N^2) direct sum. Particles are
grouped into an octree and the aggregate influence of well-separated groups
is represented by truncated multipole and local expansions; only nearby
leaf pairs fall back to exact pairwise summation.

The evaluator runs in one of two modes. DualTree is the fast multipole
method proper: cell pairs are compared, accepted pairs exchange
multipole-to-local translations, and a downward pass pushes accumulated
local expansions to the leaves. SingleTree is the Barnes-Hut variant:
each particle walks the tree alone and evaluates accepted cells' multipole
expansions directly, skipping the local-expansion machinery.*/
package fmm

import (
	"fmt"
	"math"
	"runtime"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/fmm/geom"
	"github.com/phil-mansfield/fmm/moment"
	"github.com/phil-mansfield/fmm/tree"
)

// Mode selects the traversal strategy used by Evaluate.
type Mode int

const (
	// DualTree compares cell pairs and accumulates local expansions.
	DualTree Mode = iota
	// SingleTree compares single particles against cells.
	SingleTree
)

func (m Mode) String() string {
	switch m {
	case DualTree:
		return "FMM"
	case SingleTree:
		return "BarnesHut"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Manager evaluates dipole fields for particle sets contained in a fixed
// root volume. It owns the per-worker scratch buffers, so a single Manager
// must not be used from multiple goroutines at once, but Evaluate itself
// parallelizes internally across runtime.NumCPU() workers.
type Manager struct {
	root    geom.Sphere
	ncrit   int
	theta   float64
	mode    Mode
	workers int

	basis   *moment.Basis
	scratch [][]float64

	t       *tree.Tree
	points  []r3.Vec
	moments []r3.Vec
}

// NewManager creates a Manager for the given root volume and run
// parameters. ncrit is the largest number of particles a cell may hold
// before splitting, order the truncation order of all expansions, and
// theta the opening angle of the acceptance criterion. theta = 0 never
// accepts an approximation and degenerates to exact direct summation.
func NewManager(
	root geom.Sphere, ncrit, order int, theta float64, mode Mode,
) (*Manager, error) {
	if root.R <= 0 {
		return nil, fmt.Errorf("fmm: root radius = %g, must be positive", root.R)
	}
	if ncrit < 1 {
		return nil, fmt.Errorf("fmm: ncrit = %d, must be positive", ncrit)
	}
	if order < 2 {
		return nil, fmt.Errorf("fmm: order = %d, must be at least 2", order)
	}
	if math.IsNaN(theta) || theta < 0 {
		return nil, fmt.Errorf("fmm: theta = %g, must be non-negative", theta)
	}
	if mode != DualTree && mode != SingleTree {
		return nil, fmt.Errorf("fmm: unknown traversal mode %d", int(mode))
	}

	man := &Manager{
		root: root, ncrit: ncrit, theta: theta, mode: mode,
		workers: runtime.NumCPU(),
		basis:   moment.NewBasis(order),
	}

	man.scratch = make([][]float64, man.workers)
	for i := range man.scratch {
		man.scratch[i] = make([]float64, man.basis.DTerms())
	}

	return man, nil
}

// Tree returns the octree built by the last call to Evaluate, or nil if
// Evaluate has not run yet.
func (man *Manager) Tree() *tree.Tree { return man.t }

// Evaluate computes the approximate dipole field at every particle and
// accumulates it into field. points holds particle positions, moments
// their dipole moments; neither is modified. The octree is rebuilt from
// scratch on every call.
func (man *Manager) Evaluate(points, moments, field []r3.Vec) error {
	if len(points) != len(moments) || len(points) != len(field) {
		return fmt.Errorf(
			"fmm: %d points, %d moments, and %d field entries, must be equal",
			len(points), len(moments), len(field),
		)
	}

	t, err := tree.Build(points, man.root, man.ncrit, man.basis)
	if err != nil { return err }
	man.t, man.points, man.moments = t, points, moments

	man.upwardPass()

	switch man.mode {
	case DualTree:
		lists := man.traverse()
		man.applyInteractions(lists, field)
		man.downwardPass()
		man.evalLocal(field)
	case SingleTree:
		man.evalBarnesHut(field)
	}

	return nil
}

// upwardPass computes leaf multipole expansions (P2M) and translates them
// up the tree (M2M). Leaves are independent, so P2M runs in parallel
// without synchronization. M2M requires all children of a cell to be
// finished before the parent runs, so levels are processed deepest first
// with a barrier between them.
func (man *Manager) upwardPass() {
	t := man.t
	leaves := t.Leaves()

	man.parallelFor(len(leaves), func(w, lo, hi int) {
		for _, ci := range leaves[lo:hi] {
			c := &t.Cells[ci]
			M := t.M(ci)
			for _, p := range c.Leaf {
				man.basis.P2M(M, man.points[p].Sub(c.Bounds.C), man.moments[p])
			}
		}
	})

	for lvl := t.Depth() - 1; lvl >= 0; lvl-- {
		cells := t.LevelCells(lvl)
		man.parallelFor(len(cells), func(w, lo, hi int) {
			for _, ci := range cells[lo:hi] {
				c := &t.Cells[ci]
				for _, k := range c.Child {
					shift := c.Bounds.C.Sub(t.Cells[k].Bounds.C)
					man.basis.M2M(t.M(ci), t.M(k), shift)
				}
			}
		})
	}
}

// applyInteractions executes the interaction lists produced by the
// dual-tree traversal. Work is partitioned by target cell, so every local
// coefficient slice and every field entry has exactly one writer.
func (man *Manager) applyInteractions(lists *interactionLists, field []r3.Vec) {
	t := man.t

	man.parallelFor(len(t.Cells), func(w, lo, hi int) {
		D := man.scratch[w]
		for ci := lo; ci < hi; ci++ {
			L := t.L(ci)
			for _, src := range lists.m2l[ci] {
				R := t.Cells[ci].Bounds.C.Sub(t.Cells[src].Bounds.C)
				man.basis.M2L(L, t.M(int(src)), R, D)
			}
		}
	})

	man.parallelFor(len(t.Cells), func(w, lo, hi int) {
		for ci := lo; ci < hi; ci++ {
			for _, src := range lists.p2p[ci] {
				man.leafPairDirect(ci, int(src), field)
			}
		}
	})
}

// leafPairDirect sums the exact dipole field on every particle of the dst
// leaf from every particle of the src leaf. dst and src may be the same
// leaf, in which case a particle never acts on itself.
func (man *Manager) leafPairDirect(dst, src int, field []r3.Vec) {
	t := man.t
	for _, i := range t.Cells[dst].Leaf {
		f := &field[i]
		pi := man.points[i]
		for _, j := range t.Cells[src].Leaf {
			if i == j { continue }
			moment.P2P(f, pi.Sub(man.points[j]), man.moments[j])
		}
	}
}

// downwardPass pushes accumulated local expansions from parents to
// children (L2L), level by level from the root. Parents at one level own
// disjoint child sets, so each level parallelizes with the child as the
// single writer.
func (man *Manager) downwardPass() {
	t := man.t
	for lvl := 0; lvl < t.Depth(); lvl++ {
		cells := t.LevelCells(lvl)
		man.parallelFor(len(cells), func(w, lo, hi int) {
			for _, ci := range cells[lo:hi] {
				c := &t.Cells[ci]
				for _, k := range c.Child {
					shift := t.Cells[k].Bounds.C.Sub(c.Bounds.C)
					man.basis.L2L(t.L(k), t.L(ci), shift)
				}
			}
		})
	}
}

// evalLocal evaluates each leaf's final local expansion at its particles'
// positions (L2P). Each particle belongs to exactly one leaf, so the pass
// runs in parallel over leaves without synchronization.
func (man *Manager) evalLocal(field []r3.Vec) {
	t := man.t
	leaves := t.Leaves()

	man.parallelFor(len(leaves), func(w, lo, hi int) {
		for _, ci := range leaves[lo:hi] {
			c := &t.Cells[ci]
			L := t.L(ci)
			for _, p := range c.Leaf {
				man.basis.L2P(&field[p], L, man.points[p].Sub(c.Bounds.C))
			}
		}
	})
}

// evalBarnesHut walks the tree once per particle, evaluating accepted
// cells' multipole expansions directly at the particle (M2P) and falling
// back to exact summation in rejected leaves. Each particle writes only
// its own field entry.
func (man *Manager) evalBarnesHut(field []r3.Vec) {
	man.parallelFor(len(man.points), func(w, lo, hi int) {
		D := man.scratch[w]
		for i := lo; i < hi; i++ {
			man.forceOn(i, 0, &field[i], D)
		}
	})
}

// forceOn accumulates the field on particle i from the subtree rooted at
// cell ci.
func (man *Manager) forceOn(i, ci int, f *r3.Vec, D []float64) {
	t := man.t
	c := &t.Cells[ci]

	R := man.points[i].Sub(c.Bounds.C)
	d := r3.Norm(R)
	if d > 0 && c.Bounds.R < man.theta*d {
		man.basis.M2P(f, t.M(ci), R, D)
		return
	}

	if c.IsLeaf() {
		pi := man.points[i]
		for _, j := range c.Leaf {
			if i == j { continue }
			moment.P2P(f, pi.Sub(man.points[j]), man.moments[j])
		}
		return
	}

	for _, k := range c.Child {
		man.forceOn(i, k, f, D)
	}
}
