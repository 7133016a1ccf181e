// The header package handles the 16-byte header at the start of every MDP
// record.
package header

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/goblimey/go-mdp/mdp/utils"
)

// Field offsets in bytes.  All fields are big endian.
const (
	offsetSync      = 0
	offsetID        = 2
	offsetLength    = 4
	offsetWeek      = 6
	offsetTOW       = 8
	offsetFreshness = 12
	offsetStatus    = 14
)

// ErrShortHeader is returned when there are fewer than 16 bytes.
var ErrShortHeader = errors.New("MDP header too short")

// ErrNoSync is returned when the data doesn't start with the sync word.
var ErrNoSync = errors.New("MDP header does not start with the sync word")

// Header holds the header of an MDP record.
type Header struct {
	// ID - uint16 - the record type, for example 310 for a navigation
	// subframe.
	ID int

	// Length - uint16 - the length of the whole record including the header
	// and the CRC.
	Length int

	// Week - uint16 - the full GPS week in which the receiver collected the
	// data.
	Week int

	// MillisOfWeek - uint32 - milliseconds into the GPS week.
	MillisOfWeek uint32

	// Freshness - uint16 - a counter that the receiver increments for
	// each record that it issues.
	Freshness uint16

	// Status - uint16 - receiver status bits.
	Status uint16
}

// New creates a header.
func New(id, length, week int, millisOfWeek uint32, freshness, status uint16) *Header {
	header := Header{
		ID:           id,
		Length:       length,
		Week:         week,
		MillisOfWeek: millisOfWeek,
		Freshness:    freshness,
		Status:       status,
	}
	return &header
}

// Parse gets the header from the start of a record.
func Parse(bitStream []byte) (*Header, error) {
	if len(bitStream) < utils.HeaderLengthBytes {
		return nil, ErrShortHeader
	}

	if binary.BigEndian.Uint16(bitStream[offsetSync:]) != utils.SyncWord {
		return nil, ErrNoSync
	}

	header := Header{
		ID:           int(binary.BigEndian.Uint16(bitStream[offsetID:])),
		Length:       int(binary.BigEndian.Uint16(bitStream[offsetLength:])),
		Week:         int(binary.BigEndian.Uint16(bitStream[offsetWeek:])),
		MillisOfWeek: binary.BigEndian.Uint32(bitStream[offsetTOW:]),
		Freshness:    binary.BigEndian.Uint16(bitStream[offsetFreshness:]),
		Status:       binary.BigEndian.Uint16(bitStream[offsetStatus:]),
	}

	return &header, nil
}

// Encode returns the header as it appears in a record, sync word first.
func (header *Header) Encode() []byte {
	buf := make([]byte, utils.HeaderLengthBytes)
	binary.BigEndian.PutUint16(buf[offsetSync:], utils.SyncWord)
	binary.BigEndian.PutUint16(buf[offsetID:], uint16(header.ID))
	binary.BigEndian.PutUint16(buf[offsetLength:], uint16(header.Length))
	binary.BigEndian.PutUint16(buf[offsetWeek:], uint16(header.Week))
	binary.BigEndian.PutUint32(buf[offsetTOW:], header.MillisOfWeek)
	binary.BigEndian.PutUint16(buf[offsetFreshness:], header.Freshness)
	binary.BigEndian.PutUint16(buf[offsetStatus:], header.Status)
	return buf
}

// Check checks that the values are sensible: the length covers at least
// the header and the CRC and is not too big, and the time is within the
// week.
func (header *Header) Check() error {
	minLength := utils.HeaderLengthBytes + utils.CRCLengthBytes
	if header.Length < minLength {
		return fmt.Errorf("record length %d is less than the minimum %d", header.Length, minLength)
	}
	if header.Length > utils.MaxFrameLength {
		return fmt.Errorf("record length %d is more than the maximum %d", header.Length, utils.MaxFrameLength)
	}
	if header.MillisOfWeek >= utils.MillisPerWeek {
		return fmt.Errorf("time of week %d ms is beyond the end of the week", header.MillisOfWeek)
	}
	return nil
}

// BodyLength returns the length of the body that follows the header.
func (header *Header) BodyLength() int {
	return header.Length - utils.HeaderLengthBytes - utils.CRCLengthBytes
}

// Time returns the time in the header in the GPS time scale.
func (header *Header) Time() time.Time {
	return utils.GPSTime(header.Week, float64(header.MillisOfWeek)/1000.0)
}

// String returns a readable version of the header.
func (header *Header) String() string {
	return fmt.Sprintf("id %d (%s), length %d, time %s (week %d, %d ms), freshness %d, status 0x%04x\n",
		header.ID, utils.RecordTypeName(header.ID), header.Length,
		header.Time().Format(utils.DateLayout), header.Week, header.MillisOfWeek,
		header.Freshness, header.Status)
}
