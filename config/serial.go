package config

import (
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// DefaultSpeed is the line speed used when the config doesn't give one.
const DefaultSpeed = 9600

// Serial describes a receiver connected by a serial line, for example
//
//	"serial": {
//		"port": "/dev/ttyUSB0",
//		"speed": 115200,
//		"parity": "no_parity",
//		"data_bits": 8,
//		"stop_bits": 1,
//		"read_timeout_millis": 1000
//	}
//
// When a port is given it's used instead of the input file.
type Serial struct {
	Port string `json:"port" yaml:"port"`

	// Speed is the line speed in bits per second.
	Speed int `json:"speed" yaml:"speed"`

	// Parity is no_parity (default), odd_parity, even_parity,
	// mark_parity or space_parity.
	Parity string `json:"parity" yaml:"parity"`

	// DataBits is the number of data bits in the byte: 5-8.
	DataBits int `json:"data_bits" yaml:"data_bits"`

	// StopBits is the number of stop bits 1, 1.5 or 2.
	StopBits float32 `json:"stop_bits" yaml:"stop_bits"`

	// ReadTimeoutMillis is how long a read waits for data.  A read that
	// times out is treated as EOF.
	ReadTimeoutMillis int `json:"read_timeout_millis" yaml:"read_timeout_millis"`
}

// Mode returns the settings for serial.Open.
func (s *Serial) Mode() (*serial.Mode, error) {
	mode := serial.Mode{BaudRate: DefaultSpeed}
	if s.Speed != 0 {
		mode.BaudRate = s.Speed
	}

	switch s.Parity {
	case "", "no_parity":
		mode.Parity = serial.NoParity
	case "odd_parity":
		mode.Parity = serial.OddParity
	case "even_parity":
		mode.Parity = serial.EvenParity
	case "mark_parity":
		mode.Parity = serial.MarkParity
	case "space_parity":
		mode.Parity = serial.SpaceParity
	default:
		return nil, fmt.Errorf("%w: serial parity %q", ErrBadConfig, s.Parity)
	}

	// Must be 5-8.
	if s.DataBits != 0 {
		if s.DataBits < 5 || s.DataBits > 8 {
			return nil, fmt.Errorf("%w: serial data bits must be 5-8, got %d", ErrBadConfig, s.DataBits)
		}
		mode.DataBits = s.DataBits
	}

	switch s.StopBits {
	case 0, 1:
		mode.StopBits = serial.OneStopBit
	case 1.5:
		mode.StopBits = serial.OnePointFiveStopBits
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("%w: serial stop bits must be 1, 1.5 or 2, got %g", ErrBadConfig, s.StopBits)
	}

	return &mode, nil
}

// openSerial opens the serial port.
func (s *Serial) openSerial() (io.ReadCloser, error) {
	mode, err := s.Mode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(s.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("cannot open serial port %s - %w", s.Port, err)
	}

	if s.ReadTimeoutMillis > 0 {
		timeout := time.Duration(s.ReadTimeoutMillis) * time.Millisecond
		if err := port.SetReadTimeout(timeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("cannot set the read timeout on %s - %w", s.Port, err)
		}
	}
	return port, nil
}
