package io

import (
	"io/ioutil"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeConfig(t *testing.T, text string) string {
	dir := t.TempDir()
	file := path.Join(dir, "benchmark.config")
	err := ioutil.WriteFile(file, []byte(text), 0644)
	assert.NoError(t, err)
	return file
}

func TestReadExampleConfig(t *testing.T) {
	file := writeConfig(t, ExampleBenchmarkFile)
	con, err := ReadBenchmarkConfig(file)

	assert.NoError(t, err)
	assert.Equal(t, 1000, con.Particles, "Particles")
	assert.Equal(t, 16, con.Ncrit, "Ncrit")
	assert.Equal(t, 0.5, con.Theta, "Theta")
	assert.Equal(t, 2, con.MinOrder, "MinOrder")
	assert.Equal(t, 6, con.MaxOrder, "MaxOrder")
	assert.Equal(t, "FMM", con.Mode, "default Mode")
	assert.Equal(t, 1.0, con.RootRadius, "default RootRadius")
	assert.Equal(t, ".", con.Output, "default Output")
}

func TestReadConfigRejectsMalformedNumbers(t *testing.T) {
	file := writeConfig(t, `[Benchmark]
Particles = banana
Ncrit = 16
Theta = 0.5
MinOrder = 2
MaxOrder = 6`)
	_, err := ReadBenchmarkConfig(file)
	assert.Error(t, err, "unparseable numeric parameter")
}

func TestReadConfigRejectsOutOfRange(t *testing.T) {
	base := `[Benchmark]
Particles = 1000
Ncrit = 16
MinOrder = 2
MaxOrder = 6
Theta = `

	_, err := ReadBenchmarkConfig(writeConfig(t, base+"-1"))
	assert.Error(t, err, "negative theta")

	file := writeConfig(t, `[Benchmark]
Particles = 1000
Ncrit = 16
Theta = 0.5
MinOrder = 4
MaxOrder = 2`)
	_, err = ReadBenchmarkConfig(file)
	assert.Error(t, err, "MaxOrder below MinOrder")

	file = writeConfig(t, `[Benchmark]
Particles = 1000
Ncrit = 16
Theta = 0.5
MinOrder = 2
MaxOrder = 6
Mode = Exact`)
	_, err = ReadBenchmarkConfig(file)
	assert.Error(t, err, "unknown mode")
}

func TestValidRequiresPositiveCounts(t *testing.T) {
	con := DefaultBenchmarkWrapper().Benchmark
	con.Particles, con.Ncrit = 100, 8
	con.Theta, con.MinOrder, con.MaxOrder = 0.5, 2, 4
	assert.NoError(t, con.Valid(), "well-formed config")

	bad := con
	bad.Particles = 0
	assert.Error(t, bad.Valid(), "non-positive Particles")

	bad = con
	bad.Ncrit = 0
	assert.Error(t, bad.Valid(), "non-positive Ncrit")

	bad = con
	bad.RootRadius = 0
	assert.Error(t, bad.Valid(), "non-positive RootRadius")
}
