// This is the core of the MDP applications.  It contains functionality to
// open the input (a file that's complete, a file that a receiver is still
// writing or the standard input), run a conversion and write the summary.
package appcore

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/goblimey/go-tools/clock"

	"github.com/goblimey/go-mdp/config"
	filehandler "github.com/goblimey/go-mdp/file_handler"
	"github.com/goblimey/go-mdp/mdp/handler"
	"github.com/goblimey/go-mdp/nav/driver"
	"github.com/goblimey/go-mdp/nav/ephlog"
	"github.com/goblimey/go-mdp/nav/metrics"
	"github.com/goblimey/go-mdp/nav/output"
	"github.com/goblimey/go-mdp/nav/report"
)

// Exit statuses.
const (
	ExitOK       = 0
	ExitFault    = 1
	ExitInternal = 2
)

type AppCore struct {
	Conf   *config.Config
	Clock  clock.Clock
	Logger *slog.Logger
}

// Conversion is the outcome of a conversion run.
type Conversion struct {
	Result driver.Result
	Stats  driver.Stats
	Log    *ephlog.Log
}

func New(conf *config.Config, clk clock.Clock, logger *slog.Logger) *AppCore {
	appCore := AppCore{Conf: conf, Clock: clk, Logger: logger}
	return &appCore
}

// OpenSource opens the input given by the config and returns an MDP
// handler reading from it.  If the config sets an EOF timeout, the handler
// follows a file that is still being written until no data has arrived for
// that long.  The caller should close the returned closer when done.
func (appCore *AppCore) OpenSource() (*handler.Handler, io.Closer, error) {
	input, err := appCore.Conf.OpenInput()
	if err != nil {
		return nil, nil, err
	}

	reader := filehandler.New(input, appCore.Clock,
		appCore.Conf.WaitTimeOnEOF(), appCore.Conf.TimeoutOnEOF())

	level, _ := appCore.Conf.Level()
	return handler.New(reader, level), input, nil
}

// Convert runs a conversion session reading from the given source and
// writing to the output given by the config.  The output is closed before
// Convert returns.  A failure to open or close the output is an output
// fault.
func (appCore *AppCore) Convert(src driver.Source) *Conversion {
	conversion := Conversion{Log: ephlog.New()}

	signal, err := appCore.Conf.Signal()
	if err != nil {
		conversion.Result = driver.Result{Termination: driver.InternalFault, Err: err}
		return &conversion
	}

	encoder, err := output.Open(appCore.Conf.OutputFormat, appCore.Conf.NavOutput, appCore.Clock)
	if err != nil {
		appCore.Logger.Error("cannot open the output", "error", err)
		conversion.Result = driver.Result{Termination: driver.OutputFault, Err: err}
		return &conversion
	}

	session, err := driver.NewSession(signal, encoder, appCore.Logger)
	if err != nil {
		appCore.Logger.Error("cannot start the conversion", "error", err)
		encoder.Close()
		conversion.Result = driver.Result{Termination: driver.OutputFault, Err: err}
		return &conversion
	}

	appCore.Logger.Info("conversion started",
		"input", appCore.Conf.Input, "output", appCore.Conf.NavOutput,
		"format", appCore.Conf.OutputFormat, "signal", signal.String())

	conversion.Result = session.Run(src)
	conversion.Stats = session.Stats
	conversion.Log = session.EphemerisLog()

	if closeError := encoder.Close(); closeError != nil {
		appCore.Logger.Error("cannot close the output", "error", closeError)
		if conversion.Result.Termination == driver.EndOfInput {
			conversion.Result = driver.Result{
				Termination: driver.OutputFault,
				Err:         fmt.Errorf("%w: %w", driver.ErrOutput, closeError),
			}
		}
	}

	appCore.Logger.Info("conversion finished",
		"termination", conversion.Result.Termination.String(),
		"ephemerides", conversion.Stats.EphemeridesEmitted,
		"almanacs", conversion.Stats.AlmanacFlushes)

	return &conversion
}

// WriteSummary writes the summary of a conversion to the file given by the
// config, "-" meaning the given writer.
func (appCore *AppCore) WriteSummary(conversion *Conversion, stdout io.Writer) error {
	if appCore.Conf.SummaryLog == "-" || appCore.Conf.SummaryLog == "" {
		return report.Write(stdout, &conversion.Stats, conversion.Log)
	}

	file, err := os.Create(appCore.Conf.SummaryLog)
	if err != nil {
		return fmt.Errorf("cannot create summary log - %w", err)
	}
	writeError := report.Write(file, &conversion.Stats, conversion.Log)
	closeError := file.Close()
	if writeError != nil {
		return writeError
	}
	return closeError
}

// WriteMetrics writes the metrics of a conversion to the file given by the
// config.  It does nothing if the config doesn't give one.
func (appCore *AppCore) WriteMetrics(conversion *Conversion) error {
	if appCore.Conf.MetricsFile == "" {
		return nil
	}
	run := metrics.Run{
		Stats:       &conversion.Stats,
		Termination: conversion.Result.Termination,
		Unique:      conversion.Log.Unique(),
		Finished:    appCore.Clock.Now(),
	}
	return metrics.WriteTextfile(appCore.Conf.MetricsFile, &run)
}

// ExitStatus gives the exit status for the way a conversion ended.
func ExitStatus(termination driver.Termination) int {
	switch termination {
	case driver.EndOfInput:
		return ExitOK
	case driver.InternalFault:
		return ExitInternal
	default:
		return ExitFault
	}
}
