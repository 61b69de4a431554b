package main

import (
	"github.com/milosgajdos/go-slds/config"
	"github.com/milosgajdos/go-slds/kalman/skf"
	"github.com/spf13/cobra"
)

func doRun(cmd *cobra.Command, args []string) error {
	log, closer, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer closer.Close()

	path, _ := cmd.Flags().GetString("config")
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

	k, err := skf.New(m.Regimes, m.Filter)
	if err != nil {
		return err
	}

	log.Info("filter created", "config", path, "regimes", m.Regimes.Len(), "update", m.Filter.Update, "steps", len(m.Observations))

	ests, err := filterRun(cmd.Context(), log, k, m.Init, m.Observations)
	if err != nil {
		log.Error("filter failed", "error", err)
		return err
	}

	rep := newReport(cmd.OutOrStdout(), box, "Step", "Mode", "Estimate")
	for i, est := range ests {
		rep.row(i, m.Regimes.Name(m.Observations[i].Regime), est.Val().AtVec(0))
	}
	rep.render()

	if tracePath != "" {
		if err := recordTrace(tracePath, m.Regimes, m.Observations, ests); err != nil {
			return err
		}
		log.Info("trace recorded", "path", tracePath)
	}

	if plotPath != "" {
		if err := savePlot(plotPath, nil, m.Observations, ests); err != nil {
			return err
		}
		log.Info("plot saved", "path", plotPath)
	}

	return nil
}
