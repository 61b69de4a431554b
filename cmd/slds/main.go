package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	cobra.CheckErr(NewCmd().ExecuteContext(context.Background()))
}

// NewCmd creates the slds command tree.
func NewCmd() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "slds [command] [flags] [args]",
		Short:         "slds runs switching Kalman filters over regime-labelled measurements",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Print(cmd.UsageString())
		},
	}
	rootCmd.PersistentFlags().String("log-file", "", "`<LogFile>` path; logs go to stderr if empty")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log every filter step")

	runCmd := &cobra.Command{
		Use:   "run [flags]",
		Short: "Filter the measurements stored in a config file",
		RunE:  doRun,
	}
	runCmd.Flags().StringP("config", "c", "", "`<Config>` YAML file")
	runCmd.Flags().String("plot", "", "`<PNG>` file to plot the run into")
	runCmd.Flags().String("trace", "", "`<Trace>` file to record the run into")
	runCmd.Flags().String("box", "default", "table style: default, light, round, bold, double")
	runCmd.MarkFlagRequired("config")

	simulateCmd := &cobra.Command{
		Use:   "simulate [flags]",
		Short: "Simulate a switching system and filter its measurements",
		RunE:  doSimulate,
	}
	simulateCmd.Flags().StringP("config", "c", "", "`<Config>` YAML file")
	simulateCmd.Flags().IntP("steps", "n", 100, "number of simulated steps")
	simulateCmd.Flags().Uint64("seed", 1, "random seed")
	simulateCmd.Flags().Int("start", -1, "start regime; the first configured regime if negative")
	simulateCmd.Flags().String("plot", "", "`<PNG>` file to plot the run into")
	simulateCmd.Flags().String("trace", "", "`<Trace>` file to record the run into")
	simulateCmd.Flags().String("box", "default", "table style: default, light, round, bold, double")
	simulateCmd.MarkFlagRequired("config")

	inspectCmd := &cobra.Command{
		Use:   "inspect [flags] <trace file>",
		Short: "Print a recorded trace",
		RunE:  doInspect,
	}
	inspectCmd.Args = cobra.ExactArgs(1)
	inspectCmd.Flags().String("box", "default", "table style: default, light, round, bold, double")

	rootCmd.AddCommand(
		runCmd,
		simulateCmd,
		inspectCmd,
	)
	return rootCmd
}

// newLogger returns logger configured by the persistent flags.
// The returned closer releases the log file, if any.
func newLogger(cmd *cobra.Command) (*slog.Logger, io.Closer, error) {
	logFile, err := cmd.Flags().GetString("log-file")
	if err != nil {
		return nil, nil, err
	}
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, nil, err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if logFile != "" {
		lj := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   false,
			LocalTime:  true,
		}
		w, closer = lj, lj
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
