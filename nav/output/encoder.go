// Package output writes the ephemerides and almanacs that the converter
// produces.  Three formats are supported: the legacy FIC ASCII format,
// newline delimited JSON and an SQLite archive.
package output

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goblimey/go-tools/clock"

	"github.com/goblimey/go-mdp/nav/almanac"
	"github.com/goblimey/go-mdp/nav/ephemeris"
)

// The supported formats.
const (
	FormatFIC    = "fic"
	FormatNDJSON = "ndjson"
	FormatSQLite = "sqlite"
)

// ErrUnknownFormat is returned by Open for a format it doesn't know.
var ErrUnknownFormat = errors.New("unknown output format")

// Encoder is implemented by each output format.
type Encoder interface {
	// WriteHeader writes anything that goes at the start of the output.
	WriteHeader() error
	// WriteEphemeris writes a newly seen ephemeris and the pages it was
	// decoded from.
	WriteEphemeris(eph *ephemeris.Ephemeris, pages ephemeris.PageSet) error
	// WriteAlmanac writes an almanac flushed from a store.
	WriteAlmanac(rec *almanac.Record) error
	// Close flushes and closes the output.
	Close() error
}

// Open creates an encoder of the given format writing to the given file.
// For the text formats the name "-" means the standard output.
func Open(format, path string, clk clock.Clock) (Encoder, error) {
	switch format {
	case FormatFIC, FormatNDJSON:
		w, err := createFile(path)
		if err != nil {
			return nil, err
		}
		if format == FormatFIC {
			return NewFIC(w, clk), nil
		}
		return NewNDJSON(w, clk), nil
	case FormatSQLite:
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
}

// createFile opens the named file for writing, or returns the standard
// output for "-".
func createFile(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("cannot create output file %s - %w", path, err)
	}
	return f, nil
}

// nopCloser is a writer whose Close does nothing.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
