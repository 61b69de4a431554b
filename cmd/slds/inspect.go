package main

import (
	"fmt"
	"os"

	"github.com/milosgajdos/go-slds/trace"
	"github.com/spf13/cobra"
)

func doInspect(cmd *cobra.Command, args []string) error {
	box, _ := cmd.Flags().GetString("box")

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	steps, err := trace.Decode(data)
	if err != nil {
		return err
	}

	rep := newReport(cmd.OutOrStdout(), box, "Step", "Time", "Mode", "Estimate", "Variance")
	for i, s := range steps {
		if len(s.Mean) == 0 {
			return fmt.Errorf("step %d: empty estimate", i)
		}
		rep.row(i, s.Time.Format("15:04:05.000"), s.Name, s.Mean[0], s.Var[0])
	}
	rep.render()

	return nil
}
