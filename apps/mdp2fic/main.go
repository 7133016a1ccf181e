// mdp2fic reads a stream of MDP records produced by a GPS receiver,
// extracts the navigation subframes and writes the broadcast ephemerides
// and almanacs to a navigation archive.  The archive is in the legacy FIC
// format by default, or NDJSON or an SQLite database.
//
// Each ephemeris is written once, the first time that it's seen.  The
// satellites send the same ephemeris every 30 seconds for about two hours,
// so most of the ephemerides decoded are repeats.  An almanac is written
// for each satellite once all 50 of its pages have been received, and
// again each time a page arrives after that.
//
// When the input is exhausted, the program writes a summary: the range of
// transmit times seen, the results of the parity checks, counts of the
// other records and a table of the unique ephemerides of each satellite.
// The summary is written even if the run fails.
//
// Usage:
//
//	mdp2fic [-c config] [-i input] [-n nav] [-l summary] [-f format] [-d]
//
// The flags override the values in the config file.  An input or output
// of "-" means the standard input or output.  The config can name a serial
// port instead of an input file, to read straight from a receiver.  The
// event log goes to the standard error channel unless the config gives a
// directory for it.  If the config gives a metrics file, the statistics of
// the run are written to it in the Prometheus text format.
//
// The exit status is 0 if the input was read to the end, 1 if the input
// or the output failed and 2 if the program found a bug in itself.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/goblimey/go-tools/clock"

	"github.com/goblimey/go-mdp/apps/appcore"
	"github.com/goblimey/go-mdp/config"
)

const appName = "mdp2fic"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options holds the command line flags.
type options struct {
	configFile string
	input      string
	nav        string
	summary    string
	format     string
	debug      bool
}

// parseFlags parses the command line.  Each flag has a short and a long
// name.
func parseFlags(args []string, stderr io.Writer) (*options, map[string]bool, error) {
	var opts options
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configFile, "c", "", "JSON or YAML config file")
	fs.StringVar(&opts.configFile, "config", "", "JSON or YAML config file")
	fs.StringVar(&opts.input, "i", "", "MDP input file (- for stdin)")
	fs.StringVar(&opts.input, "mdp-input", "", "MDP input file (- for stdin)")
	fs.StringVar(&opts.nav, "n", "", "navigation output file (- for stdout)")
	fs.StringVar(&opts.nav, "nav", "", "navigation output file (- for stdout)")
	fs.StringVar(&opts.summary, "l", "", "summary log file (- for stdout)")
	fs.StringVar(&opts.summary, "log", "", "summary log file (- for stdout)")
	fs.StringVar(&opts.format, "f", "", "output format: fic, ndjson or sqlite")
	fs.StringVar(&opts.format, "format", "", "output format: fic, ndjson or sqlite")
	fs.BoolVar(&opts.debug, "d", false, "log debug messages")
	fs.BoolVar(&opts.debug, "debug", false, "log debug messages")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() > 0 {
		return nil, nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return &opts, set, nil
}

// getConfig reads the config file, if any, and applies the flags.
func getConfig(opts *options, set map[string]bool) (*config.Config, error) {
	conf := config.New()
	if opts.configFile != "" {
		var err error
		conf, err = config.GetConfig(opts.configFile)
		if err != nil {
			return nil, err
		}
	}

	if set["i"] || set["mdp-input"] {
		conf.Input = opts.input
	}
	if set["n"] || set["nav"] {
		conf.NavOutput = opts.nav
	}
	if set["l"] || set["log"] {
		conf.SummaryLog = opts.summary
	}
	if set["f"] || set["format"] {
		conf.OutputFormat = opts.format
	}
	if opts.debug {
		conf.LogLevel = "debug"
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// run runs the converter and returns the exit status.
func run(args []string, stdout, stderr io.Writer) int {
	opts, set, err := parseFlags(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return appcore.ExitFault
	}

	conf, err := getConfig(opts, set)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return appcore.ExitFault
	}

	eventLogger := conf.EventLogger(appName)
	appCore := appcore.New(conf, clock.NewSystemClock(), eventLogger)

	src, closer, err := appCore.OpenSource()
	if err != nil {
		eventLogger.Error("cannot open the input", "input", conf.Input, "error", err)
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
		return appcore.ExitFault
	}
	defer closer.Close()

	conversion := appCore.Convert(src)

	if err := appCore.WriteSummary(conversion, stdout); err != nil {
		eventLogger.Error("cannot write the summary", "error", err)
		fmt.Fprintf(stderr, "%s: %v\n", appName, err)
	}

	if err := appCore.WriteMetrics(conversion); err != nil {
		eventLogger.Warn("cannot write the metrics", "error", err)
	}

	if conversion.Result.Err != nil {
		fmt.Fprintf(stderr, "%s: %s - %v\n", appName, conversion.Result.Termination, conversion.Result.Err)
	}

	return appcore.ExitStatus(conversion.Result.Termination)
}
