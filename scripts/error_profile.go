package main

import (
	"log"
	"math"
	"os"
	"path"
	"sort"
	"strings"

	"fmt"

	plt "github.com/phil-mansfield/pyplot"
	"github.com/phil-mansfield/table"
)

// Reads the error reports written by the benchmark driver and plots the
// mean relative field error against expansion order.

func main() {
	if len(os.Args) < 3 {
		log.Fatalf(
			"Required file use: $ %s out_file error_report_files", os.Args[0],
		)
	}

	outFile, files := os.Args[1], os.Args[2:]

	orders := make([]float64, len(files))
	errs := make([]float64, len(files))
	for i, file := range files {
		orders[i] = float64(orderOf(file))
		errs[i] = meanError(file)
	}
	sort.Sort(&profiles{orders, errs})

	plt.Figure()
	plt.Plot(orders, errs, plt.LW(3))
	plt.XLabel("Expansion order", plt.FontSize(16))
	plt.YLabel("Mean relative field error", plt.FontSize(16))
	plt.YScale("log")
	plt.Grid(plt.Axis("y"))
	plt.SaveFig(outFile)
	plt.Execute()
}

// profiles allows the order and error arrays to be sorted simultaneously.
type profiles struct {
	orders, errs []float64
}

func (p *profiles) Len() int { return len(p.orders) }
func (p *profiles) Less(i, j int) bool { return p.orders[i] < p.orders[j] }
func (p *profiles) Swap(i, j int) {
	p.orders[i], p.orders[j] = p.orders[j], p.orders[i]
	p.errs[i], p.errs[j] = p.errs[j], p.errs[i]
}

// orderOf extracts the expansion order from a report filename of the form
// errors_<mode>_n<n>_ncrit<ncrit>_theta<theta>_order<order>.txt.
func orderOf(file string) int {
	name := path.Base(file)
	idx := strings.LastIndex(name, "_order")
	if idx == -1 {
		log.Fatalf("File %s is not an error report.", file)
	}

	order := 0
	_, err := fmt.Sscanf(name[idx:], "_order%d.txt", &order)
	if err != nil { log.Fatal(err.Error()) }
	return order
}

// meanError returns the mean absolute relative error over every component
// column of a report file.
func meanError(file string) float64 {
	cols, err := table.ReadTable(file, []int{0, 1, 2}, nil)
	if err != nil { log.Fatal(err.Error()) }

	sum, n := 0.0, 0
	for _, col := range cols {
		for _, x := range col {
			if math.IsInf(x, 0) || math.IsNaN(x) { continue }
			sum += math.Abs(x)
			n++
		}
	}
	if n == 0 { return math.NaN() }
	return sum / float64(n)
}
