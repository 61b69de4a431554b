package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	slds "github.com/milosgajdos/go-slds"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = "../../config/testdata/switching.yaml"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := &bytes.Buffer{}
	cmd := NewCmd()
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestRun(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	tracePath := filepath.Join(dir, "run.mebo")

	out, err := execute(t, "run", "--config", testConfig, "--trace", tracePath, "--log-file", filepath.Join(dir, "slds.log"))
	require.NoError(t, err)

	assert.Contains(out, "Stationary")
	assert.Contains(out, "Moving")
	// first step of the worked example
	assert.Contains(out, "0.0910")

	_, err = os.Stat(tracePath)
	require.NoError(t, err)

	out, err = execute(t, "inspect", tracePath)
	require.NoError(t, err)
	assert.Contains(out, "0.0910")
	assert.Equal(4, strings.Count(out, "Moving"))
}

func TestRunMissingConfig(t *testing.T) {
	_, err := execute(t, "run", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = execute(t, "run")
	assert.Error(t, err)
}

func TestSimulate(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	out, err := execute(t, "simulate", "--config", testConfig, "--steps", "20", "--seed", "7",
		"--plot", filepath.Join(dir, "sim.png"), "--log-file", filepath.Join(dir, "slds.log"))
	require.NoError(t, err)
	assert.Contains(out, "RMSE")

	_, err = os.Stat(filepath.Join(dir, "sim.png"))
	assert.NoError(err)

	_, err = execute(t, "simulate", "--config", testConfig, "--start", "9")
	assert.Error(err)
}

func TestInspectInvalid(t *testing.T) {
	_, err := execute(t, "inspect")
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.mebo")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o600))
	_, err = execute(t, "inspect", bad)
	assert.Error(t, err)
}

func TestRunPlotWithoutMeasurements(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	cfg := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`regimes:
  - id: 0
    a: [[1.0]]
    c: [[1.0]]
    q: [[0.01]]
    r: [[0.1]]
init:
  mean: [0.0]
  cov: [[1.0]]
`), 0o600))

	var err error
	assert.NotPanics(func() {
		_, err = execute(t, "run", "--config", cfg, "--plot", filepath.Join(dir, "empty.png"))
	})
	assert.True(errors.Is(err, slds.ErrConfiguration))

	_, err = os.Stat(filepath.Join(dir, "empty.png"))
	assert.True(os.IsNotExist(err))
}
