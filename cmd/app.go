package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nathanbeddoewebdev/vssplot/internal/broker"
	"nathanbeddoewebdev/vssplot/internal/config"
	"nathanbeddoewebdev/vssplot/internal/domain"
	"nathanbeddoewebdev/vssplot/internal/logging"
	"nathanbeddoewebdev/vssplot/internal/metrics"
	"nathanbeddoewebdev/vssplot/internal/monitor"
	"nathanbeddoewebdev/vssplot/internal/tui"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// app holds the seams between the command and the outside world.
type app struct {
	newReader  func(domain.Endpoint, *slog.Logger, *metrics.Recorder) domain.Reader
	runTUI     func(ctx context.Context, d *monitor.Driver, endpoint string, interval time.Duration) error
	isTerminal func(w io.Writer) bool
}

func newApp() *app {
	return &app{
		newReader: func(ep domain.Endpoint, l *slog.Logger, rec *metrics.Recorder) domain.Reader {
			return broker.New(ep,
				broker.WithLogger(l),
				broker.WithUnaryInterceptor(rec.UnaryClientInterceptor()),
			)
		},
		runTUI:     tui.RunPlot,
		isTerminal: isTerminal,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *app) runPlot(cmd *cobra.Command, args []string, o *plotOptions) error {
	if len(args) == 0 {
		return fmt.Errorf("missing VSS_PATH argument: %w", domain.ErrMissingPath)
	}

	in, err := o.input(cmd, args)
	if err != nil {
		return err
	}
	prefs, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	settings, err := config.Resolve(in, prefs)
	if err != nil {
		return err
	}

	tty := a.isTerminal(cmd.OutOrStdout())
	interactive := !o.plain && tty
	logger, closeLog, err := o.logger(cmd.ErrOrStderr(), interactive)
	if err != nil {
		return err
	}
	defer closeLog()
	// Runs appending to the same --log-file are told apart by run_id.
	logger = logger.With(slog.String("run_id", uuid.NewString()))

	rec := metrics.New(settings.Path)
	driver := monitor.New(
		a.newReader(settings.Endpoint, logger, rec),
		settings.Path,
		settings.Capacity,
		settings.Retry,
		monitor.WithLogger(logger),
		monitor.WithMetrics(rec),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("monitoring datapoint",
		slog.String("path", settings.Path),
		slog.String("endpoint", settings.Endpoint.String()),
		slog.Duration("interval", settings.Interval),
		slog.Int("capacity", settings.Capacity),
		slog.Bool("interactive", interactive),
	)

	if interactive {
		err = a.runTUI(ctx, driver, settings.Endpoint.String(), settings.Interval)
	} else {
		err = runPlain(ctx, cmd.OutOrStdout(), driver, settings.Interval, tty)
	}

	if o.metricsFile != "" {
		if werr := rec.WriteTextfile(o.metricsFile); werr != nil {
			logger.Error("failed to write metrics", logging.Err(werr))
			if err == nil || errors.Is(err, context.Canceled) {
				return werr
			}
		}
	}

	if errors.Is(err, context.Canceled) {
		logger.Info("monitoring stopped")
		return nil
	}
	if err != nil {
		logger.Error("monitoring aborted", logging.Err(err))
		return err
	}
	return nil
}

// logger builds the run's logger. The full-window plot owns the screen, so
// without --log-file its logs are discarded rather than written to stderr.
func (o *plotOptions) logger(stderr io.Writer, interactive bool) (*slog.Logger, func(), error) {
	noop := func() {}

	var opts []logging.Option
	switch strings.ToLower(strings.TrimSpace(o.logFormat)) {
	case "", "text":
	case "json":
		opts = append(opts, logging.WithJSON())
	default:
		return nil, noop, fmt.Errorf("unknown --log-format %q (valid: text, json): %w", o.logFormat, config.ErrInvalidSetting)
	}

	switch {
	case o.logFile != "":
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open log file: %w", err)
		}
		opts = append(opts, logging.WithWriter(f))
		return logging.New(o.logLevel, opts...), func() { f.Close() }, nil
	case interactive:
		return logging.Discard(), noop, nil
	default:
		opts = append(opts, logging.WithWriter(stderr))
		return logging.New(o.logLevel, opts...), noop, nil
	}
}
