/*package io handles the benchmark driver's configuration files and its
error-report output. The core evaluator in the parent package is pure
array-in, array-out and knows nothing about any of this.*/
package io

import (
	"fmt"
	"math"

	"gopkg.in/gcfg.v1"
)

const ExampleBenchmarkFile = `[Benchmark]

#######################
# Required Parameters #
#######################

# Number of randomly generated particles.
Particles = 1000

# Maximum number of particles a tree cell may hold before it splits.
Ncrit = 16

# Opening angle of the acceptance criterion. Smaller values are more
# accurate and slower; 0 degenerates to exact direct summation.
Theta = 0.5

# Range of expansion orders to sweep. Every order in [MinOrder, MaxOrder]
# is run against the same direct-sum reference.
MinOrder = 2
MaxOrder = 6

#######################
# Optional Parameters #
#######################

# Traversal mode. FMM compares cell pairs and accumulates local
# expansions; BarnesHut compares single particles against cells.
# Mode = FMM

# Half-width of the root cell. Particles are generated inside this box and
# must stay inside it.
# RootRadius = 1.0

# Seed of the particle generator. Runs with the same seed and parameters
# produce identical particle sets.
# Seed = 0

# Directory which the per-particle error reports are written to.
# Output = .

# Skip the O(N^2) reference evaluation and the error reports. Useful for
# timing large runs.
# SkipDirect = false

# Output files which are useful for profiling and debugging. Generally,
# there isn't a reason to use these unless something goes wrong.
# ProfileFile = prof.out
# LogFile = log.out`

// BenchmarkConfig holds the externally supplied invocation parameters of a
// benchmark run.
type BenchmarkConfig struct {
	Particles int
	Ncrit     int
	Theta     float64
	MinOrder  int
	MaxOrder  int

	Mode       string
	RootRadius float64
	Seed       uint64
	Output     string
	SkipDirect bool

	ProfileFile string
	LogFile     string
}

// BenchmarkWrapper is the gcfg wrapper around the [Benchmark] section.
type BenchmarkWrapper struct {
	Benchmark BenchmarkConfig
}

// DefaultBenchmarkWrapper returns a wrapper populated with default values
// for the optional parameters.
func DefaultBenchmarkWrapper() *BenchmarkWrapper {
	return &BenchmarkWrapper{
		Benchmark: BenchmarkConfig{
			Mode:       "FMM",
			RootRadius: 1.0,
			Output:     ".",
		},
	}
}

// ReadBenchmarkConfig parses the [Benchmark] section of the given config
// file. Malformed or out-of-range parameters are reported before any tree
// work begins.
func ReadBenchmarkConfig(file string) (*BenchmarkConfig, error) {
	wrap := DefaultBenchmarkWrapper()
	if err := gcfg.ReadFileInto(wrap, file); err != nil {
		return nil, err
	}
	con := &wrap.Benchmark
	if err := con.Valid(); err != nil { return nil, err }
	return con, nil
}

// Valid checks the configuration for out-of-range parameters.
func (con *BenchmarkConfig) Valid() error {
	if con.Particles <= 0 {
		return fmt.Errorf("Particles = %d, must be positive.", con.Particles)
	}
	if con.Ncrit < 1 {
		return fmt.Errorf("Ncrit = %d, must be positive.", con.Ncrit)
	}
	if math.IsNaN(con.Theta) || math.IsInf(con.Theta, 0) || con.Theta < 0 {
		return fmt.Errorf("Theta = %g, must be finite and non-negative.", con.Theta)
	}
	if con.MinOrder < 2 {
		return fmt.Errorf("MinOrder = %d, must be at least 2.", con.MinOrder)
	}
	if con.MaxOrder < con.MinOrder {
		return fmt.Errorf(
			"MaxOrder = %d, must be at least MinOrder = %d.",
			con.MaxOrder, con.MinOrder,
		)
	}
	if con.Mode != "FMM" && con.Mode != "BarnesHut" {
		return fmt.Errorf(
			"Mode = %s, must be 'FMM' or 'BarnesHut'.", con.Mode,
		)
	}
	if con.RootRadius <= 0 {
		return fmt.Errorf(
			"RootRadius = %g, must be positive.", con.RootRadius,
		)
	}
	return nil
}
