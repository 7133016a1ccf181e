// Package config reads the configuration of the MDP applications from a
// JSON or YAML file.  An example JSON config file:
//
//	{
//		"input": "/var/gnss/receiver.mdp",
//		"nav_output": "nav.fic",
//		"output_format": "fic",
//		"summary_log": "mdp2fic.log",
//		"range_code": "C/A",
//		"carrier_code": "L1",
//		"log_level": "info",
//		"metrics_file": "/var/lib/node_exporter/mdp2fic.prom",
//		"event_log": {
//			"directory": "/var/log/mdp2fic",
//			"rotation": "daily"
//		},
//		"serial": {
//			"port": "",
//			"speed": 115200
//		},
//		"wait_time_on_eof_millis": 100,
//		"timeout_on_eof_millis": 5000
//	}
//
// The same file in YAML uses the same names.  Any value can be overridden
// on the command line.
//
// The applications also write an event log, where runtime problems are
// reported.  It goes to the standard error channel unless the config gives
// a directory.  The log in that directory is rolled over each day
// ("daily") or when it reaches a given size ("size").
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"

	"github.com/goblimey/go-mdp/mdp/utils"
	"github.com/goblimey/go-mdp/nav/output"
	"github.com/goblimey/go-mdp/nav/subframe"
)

// Rotation schemes for the event log.
const (
	RotationDaily = "daily"
	RotationSize  = "size"
)

// Defaults.
const (
	DefaultRangeCode    = "C/A"
	DefaultCarrierCode  = "L1"
	DefaultOutputFormat = output.FormatFIC
	DefaultLogLevel     = "info"
	DefaultMaxSizeMB    = 10
)

// ErrBadConfig is returned when a value in the config is not valid.
var ErrBadConfig = errors.New("invalid config")

// EventLog controls the event log.
type EventLog struct {
	Directory  string `json:"directory" yaml:"directory"`
	Rotation   string `json:"rotation" yaml:"rotation"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
}

// Config holds the values from the config file and the command line.
type Config struct {
	// Input is the MDP input file, "-" for the standard input.
	Input string `json:"input" yaml:"input"`
	// NavOutput is the output file, "-" for the standard output.
	NavOutput    string `json:"nav_output" yaml:"nav_output"`
	OutputFormat string `json:"output_format" yaml:"output_format"`
	// SummaryLog is the file for the summary, "-" for the standard output.
	SummaryLog  string   `json:"summary_log" yaml:"summary_log"`
	RangeCode   string   `json:"range_code" yaml:"range_code"`
	CarrierCode string   `json:"carrier_code" yaml:"carrier_code"`
	LogLevel    string   `json:"log_level" yaml:"log_level"`
	EventLog    EventLog `json:"event_log" yaml:"event_log"`

	// MetricsFile receives the statistics of the run in the Prometheus
	// text format.  Empty means no metrics.
	MetricsFile string `json:"metrics_file" yaml:"metrics_file"`

	// Serial gives a serial line to read from instead of the input file.
	Serial Serial `json:"serial" yaml:"serial"`

	// WaitTimeOnEOFMillis is the time to wait between reads when the
	// input reports EOF.  TimeoutOnEOFMillis is how long to keep trying.
	// Zero means that EOF ends the input at once.
	WaitTimeOnEOFMillis int `json:"wait_time_on_eof_millis" yaml:"wait_time_on_eof_millis"`
	TimeoutOnEOFMillis  int `json:"timeout_on_eof_millis" yaml:"timeout_on_eof_millis"`
}

// New returns a config holding the defaults.
func New() *Config {
	config := Config{
		Input:        "-",
		NavOutput:    "-",
		SummaryLog:   "-",
		OutputFormat: DefaultOutputFormat,
		RangeCode:    DefaultRangeCode,
		CarrierCode:  DefaultCarrierCode,
		LogLevel:     DefaultLogLevel,
	}
	return &config
}

// GetConfig gets the config from the given file.  A file called *.yaml or
// *.yml is read as YAML, anything else as JSON.  Values missing from the
// file take the defaults.
func GetConfig(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, fmt.Errorf("cannot open config file - %w", err)
	}
	defer file.Close()

	return getConfigFromReader(file, isYAML(configFile))
}

// isYAML is true if the file name has a YAML extension.
func isYAML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// getConfigFromReader gets the config from the given reader.
func getConfigFromReader(configReader io.Reader, yamlFormat bool) (*Config, error) {
	data, err := io.ReadAll(configReader)
	if err != nil {
		return nil, fmt.Errorf("error reading config file - %w", err)
	}

	if yamlFormat {
		return parseConfigFromYAML(data)
	}
	return parseConfigFromBytes(data)
}

func parseConfigFromBytes(data []byte) (*Config, error) {
	config := New()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("not a valid config file - %w", err)
	}
	return config, nil
}

func parseConfigFromYAML(data []byte) (*Config, error) {
	config := New()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("not a valid config file - %w", err)
	}
	return config, nil
}

// Validate checks the values that are not checked when they are used.
func (config *Config) Validate() error {
	switch config.OutputFormat {
	case output.FormatFIC, output.FormatNDJSON, output.FormatSQLite:
	default:
		return fmt.Errorf("%w: output format %q", ErrBadConfig, config.OutputFormat)
	}
	if config.OutputFormat == output.FormatSQLite && config.NavOutput == "-" {
		return fmt.Errorf("%w: an sqlite archive needs a file name", ErrBadConfig)
	}
	if _, err := config.Signal(); err != nil {
		return err
	}
	if _, err := config.Level(); err != nil {
		return err
	}
	switch config.EventLog.Rotation {
	case "", RotationDaily, RotationSize:
	default:
		return fmt.Errorf("%w: event log rotation %q", ErrBadConfig, config.EventLog.Rotation)
	}
	if config.WaitTimeOnEOFMillis < 0 || config.TimeoutOnEOFMillis < 0 {
		return fmt.Errorf("%w: negative EOF timing", ErrBadConfig)
	}
	if config.Serial.Port != "" {
		if _, err := config.Serial.Mode(); err != nil {
			return err
		}
	}
	return nil
}

// Signal returns the signal to convert.
func (config *Config) Signal() (subframe.SignalKey, error) {
	var signal subframe.SignalKey

	rc := subframe.RangeUnknown
	for candidate := subframe.RangeCA; candidate <= subframe.RangeCMCL; candidate++ {
		if strings.EqualFold(candidate.String(), config.RangeCode) {
			rc = candidate
			break
		}
	}
	if rc == subframe.RangeUnknown {
		return signal, fmt.Errorf("%w: range code %q", ErrBadConfig, config.RangeCode)
	}

	cc := subframe.CarrierUnknown
	for _, candidate := range []subframe.CarrierCode{subframe.CarrierL1, subframe.CarrierL2, subframe.CarrierL5} {
		if strings.EqualFold(candidate.String(), config.CarrierCode) {
			cc = candidate
			break
		}
	}
	if cc == subframe.CarrierUnknown {
		return signal, fmt.Errorf("%w: carrier code %q", ErrBadConfig, config.CarrierCode)
	}

	signal.Range = rc
	signal.Carrier = cc
	return signal, nil
}

// Level returns the event log level.
func (config *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(config.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log level %q", ErrBadConfig, config.LogLevel)
	}
	return level, nil
}

// WaitTimeOnEOF gets the wait time on EOF as a duration.
func (config *Config) WaitTimeOnEOF() time.Duration {
	return time.Duration(config.WaitTimeOnEOFMillis) * time.Millisecond
}

// TimeoutOnEOF gets the timeout on EOF as a duration.
func (config *Config) TimeoutOnEOF() time.Duration {
	return time.Duration(config.TimeoutOnEOFMillis) * time.Millisecond
}

// OpenInput opens the serial port if one is configured, otherwise the
// input file.  The name "-" gives the standard input, which is not closed
// when the returned value is closed.
func (config *Config) OpenInput() (io.ReadCloser, error) {
	if config.Serial.Port != "" {
		return config.Serial.openSerial()
	}
	if config.Input == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	file, err := os.Open(config.Input)
	if err != nil {
		return nil, fmt.Errorf("cannot open input - %w", err)
	}
	return file, nil
}

// EventLogger creates the event logger for the given application.
func (config *Config) EventLogger(appName string) *slog.Logger {
	level, _ := config.Level()
	opts := slog.HandlerOptions{Level: level}

	ev := config.EventLog
	if ev.Directory == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, &opts))
	}

	if ev.Rotation == RotationSize {
		maxSize := ev.MaxSizeMB
		if maxSize <= 0 {
			maxSize = DefaultMaxSizeMB
		}
		writer := &lumberjack.Logger{
			Filename:   filepath.Join(ev.Directory, appName+".log"),
			MaxSize:    maxSize,
			MaxBackups: ev.MaxBackups,
			MaxAge:     ev.MaxAgeDays,
		}
		return slog.New(slog.NewTextHandler(writer, &opts))
	}

	return utils.GetDailyLogger(ev.Directory, appName, level)
}
