package io

import (
	"bufio"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
)

// ReportName returns the error-report filename for a run. The name is a
// pure function of the run parameters, so reruns overwrite their own
// reports and never anyone else's.
func ReportName(mode string, n, ncrit, order int, theta float64) string {
	return fmt.Sprintf(
		"errors_%s_n%d_ncrit%d_theta%g_order%d.txt",
		mode, n, ncrit, theta, order,
	)
}

// WriteErrorReport writes the per-particle relative error of approx
// against exact as comma-separated text, one particle per line with one
// column per field component. Components of exact near zero produce
// ill-defined relative errors; they are written as-is, since this is a
// quality report, not a correctness gate.
func WriteErrorReport(file string, exact, approx []r3.Vec) error {
	if len(exact) != len(approx) {
		return fmt.Errorf(
			"%d exact and %d approximate entries, must be equal.",
			len(exact), len(approx),
		)
	}

	f, err := os.Create(file)
	if err != nil { return err }
	defer f.Close()

	w := bufio.NewWriter(f)
	for i := range exact {
		ex := (exact[i].X - approx[i].X) / exact[i].X
		ey := (exact[i].Y - approx[i].Y) / exact[i].Y
		ez := (exact[i].Z - approx[i].Z) / exact[i].Z
		fmt.Fprintf(w, "%g,%g,%g\n", ex, ey, ez)
	}
	return w.Flush()
}
