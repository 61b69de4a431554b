package main

import (
	"fmt"
	"math"

	slds "github.com/milosgajdos/go-slds"
	"github.com/milosgajdos/go-slds/config"
	"github.com/milosgajdos/go-slds/kalman/skf"
	"github.com/milosgajdos/go-slds/sim"
	"github.com/spf13/cobra"
)

func doSimulate(cmd *cobra.Command, args []string) error {
	log, closer, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	path, _ := cmd.Flags().GetString("config")
	steps, _ := cmd.Flags().GetInt("steps")
	seed, _ := cmd.Flags().GetUint64("seed")
	start, _ := cmd.Flags().GetInt("start")
	plotPath, _ := cmd.Flags().GetString("plot")
	tracePath, _ := cmd.Flags().GetString("trace")
	box, _ := cmd.Flags().GetString("box")

	f, err := config.Load(path)
	if err != nil {
		return err
	}

	m, err := f.Build()
	if err != nil {
		return err
	}

	sys, err := sim.NewSystem(m.Regimes)
	if err != nil {
		return err
	}

	opts := []sim.Option{sim.WithSeed(seed)}
	if start >= 0 {
		opts = append(opts, sim.WithStartRegime(slds.RegimeID(start)))
	}

	s, err := sim.NewSimulator(sys, opts...)
	if err != nil {
		return err
	}

	traj, err := s.Run(m.Init, steps)
	if err != nil {
		return err
	}

	log.Info("system simulated", "config", path, "steps", traj.Len(), "seed", seed)

	obs := make([]skf.Observation, traj.Len())
	for i := range obs {
		obs[i] = skf.Observation{Regime: traj.Regimes[i], Z: traj.Measurements[i]}
	}

	k, err := skf.New(m.Regimes, m.Filter)
	if err != nil {
		return err
	}

	ests, err := filterRun(cmd.Context(), log, k, m.Init, obs)
	if err != nil {
		log.Error("filter failed", "error", err)
		return err
	}

	var sse float64
	rep := newReport(cmd.OutOrStdout(), box, "Step", "Mode", "Truth", "Measurement", "Estimate")
	for i, est := range ests {
		truth := traj.States[i].AtVec(0)
		e := est.Val().AtVec(0)
		sse += (truth - e) * (truth - e)
		rep.row(i, m.Regimes.Name(traj.Regimes[i]), truth, obs[i].Z.AtVec(0), e)
	}
	rep.render()

	rmse := math.Sqrt(sse / float64(len(ests)))
	fmt.Fprintf(cmd.OutOrStdout(), "RMSE: %.4f\n", rmse)
	log.Info("filter finished", "rmse", rmse)

	if tracePath != "" {
		if err := recordTrace(tracePath, m.Regimes, obs, ests); err != nil {
			return err
		}
		log.Info("trace recorded", "path", tracePath)
	}

	if plotPath != "" {
		if err := savePlot(plotPath, traj.StateMatrix(), obs, ests); err != nil {
			return err
		}
		log.Info("plot saved", "path", plotPath)
	}

	return nil
}
