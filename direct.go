package fmm

import (
	"fmt"
	"runtime"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/fmm/moment"
)

// EvaluateDirect computes the exact O(N^2) pairwise dipole field and
// accumulates it into field. It is the correctness reference for the
// approximate pipeline, parallelized over target particles.
func EvaluateDirect(points, moments, field []r3.Vec) error {
	if len(points) != len(moments) || len(points) != len(field) {
		return fmt.Errorf(
			"fmm: %d points, %d moments, and %d field entries, must be equal",
			len(points), len(moments), len(field),
		)
	}

	man := &Manager{workers: runtime.NumCPU()}
	man.parallelFor(len(points), func(w, lo, hi int) {
		for i := lo; i < hi; i++ {
			f := &field[i]
			pi := points[i]
			for j := range points {
				if i == j { continue }
				moment.P2P(f, pi.Sub(points[j]), moments[j])
			}
		}
	})

	return nil
}
