package cmd

import (
	"fmt"
	"time"

	"nathanbeddoewebdev/vssplot/internal/config"
	"nathanbeddoewebdev/vssplot/internal/domain"
	"nathanbeddoewebdev/vssplot/internal/logging"
	"nathanbeddoewebdev/vssplot/internal/retry"

	"github.com/spf13/cobra"
)

// plotOptions holds the raw flag values for the plot command.
type plotOptions struct {
	address     string
	updateMS    int
	queueLength int

	retries       int
	backoffBase   time.Duration
	backoffFactor float64

	plain       bool
	logFile     string
	logLevel    string
	logFormat   string
	metricsFile string
}

func defaultPlotOptions() *plotOptions {
	rc := retry.DefaultConfig()
	return &plotOptions{
		address:       domain.DefaultAddress,
		updateMS:      config.DefaultUpdateMS,
		queueLength:   config.DefaultQueueLength,
		retries:       rc.MaxAttempts,
		backoffBase:   rc.BaseDelay,
		backoffFactor: rc.Factor,
		logLevel:      logging.LevelFromEnv("info"),
		logFormat:     "text",
	}
}

func (o *plotOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.address, "databroker-address", "d", o.address, "Databroker address as host:port")
	f.IntVarP(&o.updateMS, "plot-update-ms", "u", o.updateMS, "Plot update interval in milliseconds")
	f.IntVarP(&o.queueLength, "plot-queue-length", "q", o.queueLength, "Number of points plotted at a time (history length)")

	f.IntVar(&o.retries, "retries", o.retries, "Maximum read attempts per sample, including the first")
	f.DurationVar(&o.backoffBase, "backoff-base", o.backoffBase, "Delay before the first retry")
	f.Float64Var(&o.backoffFactor, "backoff-factor", o.backoffFactor, "Multiplier applied to the retry delay after each failure")

	f.BoolVar(&o.plain, "plain", false, "Print one line per reading instead of the full-window plot")
	f.StringVar(&o.logFile, "log-file", "", "Append logs to this file (default: stderr in plain mode, discarded in the full-window plot)")
	f.StringVar(&o.logLevel, "log-level", o.logLevel, "Log level: debug, info, warn, error (env "+logging.LevelEnv+")")
	f.StringVar(&o.logFormat, "log-format", o.logFormat, "Log format: text or json")
	f.StringVar(&o.metricsFile, "metrics-file", "", "Write Prometheus text-format counters to this file on exit")
}

// input converts the flags into a config.Input. Flags left at their
// defaults are passed as zero so persisted preferences can fill them in.
func (o *plotOptions) input(cmd *cobra.Command, args []string) (config.Input, error) {
	in := config.Input{
		Retry: retry.Config{
			MaxAttempts: o.retries,
			BaseDelay:   o.backoffBase,
			Factor:      o.backoffFactor,
			MaxDelay:    retry.DefaultConfig().MaxDelay,
		},
	}
	if len(args) == 1 {
		in.Path = args[0]
	}

	f := cmd.Flags()
	if f.Changed("databroker-address") {
		in.Address = o.address
		if in.Address == "" {
			return in, fmt.Errorf("empty --databroker-address: %w", domain.ErrInvalidAddress)
		}
	}
	if f.Changed("plot-update-ms") {
		if o.updateMS < 1 {
			return in, fmt.Errorf("--plot-update-ms must be at least 1, got %d: %w", o.updateMS, config.ErrInvalidSetting)
		}
		in.UpdateMS = o.updateMS
	}
	if f.Changed("plot-queue-length") {
		if o.queueLength < 1 {
			return in, fmt.Errorf("--plot-queue-length must be at least 1, got %d: %w", o.queueLength, config.ErrInvalidSetting)
		}
		in.QueueLength = o.queueLength
	}
	return in, nil
}
