package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	slds "github.com/milosgajdos/go-slds"
	"github.com/milosgajdos/go-slds/kalman/kf"
	"github.com/milosgajdos/go-slds/kalman/skf"
	"github.com/milosgajdos/go-slds/regime"
	"github.com/milosgajdos/go-slds/sim"
	"github.com/milosgajdos/go-slds/trace"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/vg"
)

// filterRun tracks the estimate through obs one step at a time so each step can be logged.
func filterRun(ctx context.Context, log *slog.Logger, f *skf.SKF, ic slds.InitCond, obs []skf.Observation) ([]slds.Estimate, error) {
	tracker, err := kf.New(f, ic)
	if err != nil {
		return nil, err
	}

	ests := make([]slds.Estimate, len(obs))
	for i, o := range obs {
		est, err := tracker.Step(o.Regime, o.Z)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		ests[i] = est

		if log.Enabled(ctx, slog.LevelDebug) {
			in := tracker.Innovation()
			log.Debug("filter step",
				"step", i,
				"regime", o.Regime,
				"residual", in.Residual.RawVector().Data,
				"gain", mat.Formatted(in.Gain, mat.FormatPython()),
				"cond", in.Cond,
				"estimate", est.Val().AtVec(0))
		}
	}

	return ests, nil
}

func recordTrace(path string, regimes *regime.Set, obs []skf.Observation, ests []slds.Estimate) error {
	rec, err := trace.NewRecorder(time.Now().UTC(), time.Second)
	if err != nil {
		return err
	}

	for i, est := range ests {
		if err := rec.Record(obs[i].Regime, regimes.Name(obs[i].Regime), est); err != nil {
			return err
		}
	}

	data, err := rec.Encode()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func savePlot(path string, truth *mat.Dense, obs []skf.Observation, ests []slds.Estimate) error {
	if len(obs) == 0 || len(ests) == 0 {
		return fmt.Errorf("%w: nothing to plot: no measurements", slds.ErrConfiguration)
	}

	measured := mat.NewDense(len(obs), 1, nil)
	for i, o := range obs {
		measured.Set(i, 0, o.Z.AtVec(0))
	}

	filtered := mat.NewDense(len(ests), 1, nil)
	for i, est := range ests {
		filtered.Set(i, 0, est.Val().AtVec(0))
	}

	// without ground truth the measurements stand in for it
	if truth == nil {
		truth = measured
	}

	p, err := sim.NewPlot(truth, measured, filtered)
	if err != nil {
		return err
	}

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
