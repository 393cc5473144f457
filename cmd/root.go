package cmd

import (
	"os"

	cfgcmd "nathanbeddoewebdev/vssplot/cmd/commands/config"

	"github.com/spf13/cobra"
)

// rootCmd represents the plot command, which is also the binary's root.
func rootCmd(a *app) *cobra.Command {
	opts := defaultPlotOptions()

	var cmd = &cobra.Command{
		Use:   "vssplot VSS_PATH",
		Short: "Live plot of a single VSS datapoint from a KUKSA databroker",
		Long: `vssplot polls one VSS datapoint from a KUKSA databroker at a fixed
interval and draws the most recent readings as a rolling line plot.

In a terminal the plot takes over the full window (p pauses, q quits).
When stdout is not a terminal, or with --plain, one "elapsed value" line
is printed per reading and a summary chart is printed on exit.

Defaults for the databroker address, update interval and queue length
can be persisted with "vssplot config set".

Quick start:
  vssplot Vehicle.Speed
  vssplot Vehicle.Cabin.HVAC.AmbientAirTemperature -d 10.0.0.5:55555 -u 500
  vssplot Vehicle.Speed --plain > speed.tsv`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPlot(cmd, args, opts)
		},
	}

	opts.bind(cmd)
	cmd.AddCommand(cfgcmd.NewCommand())

	return cmd
}

// Execute builds the root command and runs it against the process
// environment. This is called by main.main().
func Execute() {
	var root = rootCmd(newApp())
	err := root.Execute()
	if err != nil {
		os.Exit(1)
	}
}
