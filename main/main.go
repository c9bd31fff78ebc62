package main

import (
	"flag"
	"log"
	"math"
	"os"
	"path"
	"runtime/pprof"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/phil-mansfield/fmm"
	"github.com/phil-mansfield/fmm/geom"
	fio "github.com/phil-mansfield/fmm/io"
)

type FileGroup struct {
	log, prof *os.File
}

func (fg *FileGroup) Close() {
	if fg.log != nil {
		err := fg.log.Close()
		if err != nil { log.Fatal(err.Error()) }
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil { log.Fatal(err.Error()) }
	}
}

var modes = map[string]fmm.Mode{
	"FMM":       fmm.DualTree,
	"BarnesHut": fmm.SingleTree,
}

func main() {
	var (
		benchmark     string
		exampleConfig bool
	)

	flag.StringVar(
		&benchmark, "Benchmark", "",
		"Configuration file for [Benchmark] mode.",
	)
	flag.BoolVar(
		&exampleConfig, "ExampleConfig", false,
		"Prints an example [Benchmark] configuration file to stdout.",
	)

	flag.Parse()

	if exampleConfig {
		log.SetFlags(0)
		log.SetOutput(os.Stdout)
		log.Println(fio.ExampleBenchmarkFile)
		return
	}
	if benchmark == "" {
		log.Fatal("No mode flag given. Run with -ExampleConfig for a " +
			"starting point.")
	}

	con, err := fio.ReadBenchmarkConfig(benchmark)
	if err != nil { log.Fatal(err.Error()) }

	fg := setupFileGroup(con)
	defer fg.Close()

	benchmarkMain(con)
}

func setupFileGroup(con *fio.BenchmarkConfig) *FileGroup {
	fg := new(FileGroup)
	var err error

	if con.LogFile != "" {
		fg.log, err = os.Create(con.LogFile)
		if err != nil { log.Fatal(err.Error()) }
		log.SetOutput(fg.log)
	}

	if con.ProfileFile != "" {
		fg.prof, err = os.Create(con.ProfileFile)
		if err != nil { log.Fatal(err.Error()) }
		err = pprof.StartCPUProfile(fg.prof)
		if err != nil { log.Fatal(err.Error()) }
	}

	return fg
}

func benchmarkMain(con *fio.BenchmarkConfig) {
	log.Printf(
		"Benchmark: n = %d, ncrit = %d, theta = %g, orders = [%d, %d], "+
			"mode = %s",
		con.Particles, con.Ncrit, con.Theta,
		con.MinOrder, con.MaxOrder, con.Mode,
	)

	root := geom.Sphere{R: con.RootRadius}
	points, moments := generateParticles(
		con.Seed, con.Particles, con.RootRadius,
	)

	exact := make([]r3.Vec, con.Particles)
	tDirect := 0.0
	if !con.SkipDirect {
		t0 := time.Now()
		err := fmm.EvaluateDirect(points, moments, exact)
		if err != nil { log.Fatal(err.Error()) }
		tDirect = time.Since(t0).Seconds()
		log.Printf("Direct reference: %.3f s", tDirect)
	}

	for order := con.MinOrder; order <= con.MaxOrder; order++ {
		man, err := fmm.NewManager(
			root, con.Ncrit, order, con.Theta, modes[con.Mode],
		)
		if err != nil { log.Fatal(err.Error()) }

		approx := make([]r3.Vec, con.Particles)
		t0 := time.Now()
		err = man.Evaluate(points, moments, approx)
		if err != nil { log.Fatal(err.Error()) }
		tApprox := time.Since(t0).Seconds()

		if con.SkipDirect {
			log.Printf(
				"Order %d: %.3f s, %d cells",
				order, tApprox, len(man.Tree().Cells),
			)
			continue
		}

		name := fio.ReportName(
			con.Mode, con.Particles, con.Ncrit, order, con.Theta,
		)
		err = fio.WriteErrorReport(path.Join(con.Output, name), exact, approx)
		if err != nil { log.Fatal(err.Error()) }

		log.Printf(
			"Order %d: %.3f s (%.1f%% of direct), %d cells, "+
				"mean rel err = %.3g",
			order, tApprox, 100*tApprox/tDirect,
			len(man.Tree().Cells), meanRelativeError(exact, approx),
		)
	}
}

// generateParticles returns n particles uniformly distributed in the root
// box with unit-normalized random dipole moments. The same seed always
// produces the same particle set.
func generateParticles(seed uint64, n int, radius float64) (
	points, moments []r3.Vec,
) {
	gen := rand.New(rand.NewSource(seed))
	uniform := func() float64 { return radius * (2*gen.Float64() - 1) }

	points = make([]r3.Vec, n)
	moments = make([]r3.Vec, n)
	for i := 0; i < n; i++ {
		points[i] = r3.Vec{X: uniform(), Y: uniform(), Z: uniform()}

		mu := r3.Vec{
			X: 2*gen.Float64() - 1,
			Y: 2*gen.Float64() - 1,
			Z: 2*gen.Float64() - 1,
		}
		moments[i] = mu.Scale(1 / r3.Norm(mu))
	}
	return points, moments
}

// meanRelativeError returns the mean over all particles of
// |F_exact - F_approx| / |F_exact|.
func meanRelativeError(exact, approx []r3.Vec) float64 {
	errs := make([]float64, len(exact))
	for i := range exact {
		d := exact[i].Sub(approx[i])
		norm := r3.Norm(exact[i])
		if norm == 0 {
			errs[i] = math.Inf(1)
			continue
		}
		errs[i] = r3.Norm(d) / norm
	}
	return floats.Sum(errs) / float64(len(errs))
}
