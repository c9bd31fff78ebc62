package fmm

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// interactionLists records, per target cell, the sources found by the
// dual-tree walk: m2l holds well-separated source cells whose multipole
// expansions translate into the target's local expansion, and p2p holds
// leaf cells whose particles interact with the target leaf's particles
// directly. Splitting the traversal from the execution lets the execution
// run in parallel with a single writer per target.
type interactionLists struct {
	m2l [][]int32
	p2p [][]int32
}

// traverse walks the tree against itself starting from (root, root) and
// returns the interaction lists. Every unordered cell pair is visited at
// most once; an accepted pair is recorded in both directions.
func (man *Manager) traverse() *interactionLists {
	n := len(man.t.Cells)
	lists := &interactionLists{
		m2l: make([][]int32, n),
		p2p: make([][]int32, n),
	}
	man.visit(0, 0, lists)
	return lists
}

// visit applies the opening criterion to the cell pair (a, b) and either
// records an interaction or recurses. A cell is never compared against a
// descendant of itself: the self case only recurses into pairs of its own
// children.
func (man *Manager) visit(a, b int, lists *interactionLists) {
	t := man.t
	A, B := &t.Cells[a], &t.Cells[b]

	if a == b {
		// A cell is never well separated from itself. Within a single
		// leaf, particles always interact directly.
		if A.IsLeaf() {
			lists.p2p[a] = append(lists.p2p[a], int32(a))
			return
		}
		for i := 0; i < len(A.Child); i++ {
			for j := i; j < len(A.Child); j++ {
				man.visit(A.Child[i], A.Child[j], lists)
			}
		}
		return
	}

	d := r3.Norm(B.Bounds.C.Sub(A.Bounds.C))
	rmax := A.Bounds.R
	if B.Bounds.R > rmax { rmax = B.Bounds.R }

	if d > 0 && rmax < man.theta*d {
		lists.m2l[a] = append(lists.m2l[a], int32(b))
		lists.m2l[b] = append(lists.m2l[b], int32(a))
		return
	}

	if A.IsLeaf() && B.IsLeaf() {
		lists.p2p[a] = append(lists.p2p[a], int32(b))
		lists.p2p[b] = append(lists.p2p[b], int32(a))
		return
	}

	// Recurse into the larger side's children; if only one side can open,
	// open that one.
	if B.IsLeaf() || (!A.IsLeaf() && A.Bounds.R >= B.Bounds.R) {
		for _, k := range A.Child {
			man.visit(k, b, lists)
		}
	} else {
		for _, k := range B.Child {
			man.visit(a, k, lists)
		}
	}
}
