// The navsubframe package handles the body of an MDP navigation subframe
// record (record id 310), which carries one raw navigation subframe as
// received from a satellite.
//
// The body is 44 bytes:
//
//	PRN         uint8
//	carrier     uint8   (1 = L1, 2 = L2, 5 = L5)
//	range code  uint8   (1 = C/A, 2 = P, 3 = Y ...)
//	nav code    uint8
//	words       10 x uint32, big endian, the subframe in the bottom 30 bits
package navsubframe

import (
	"encoding/binary"
	"fmt"

	"github.com/goblimey/go-mdp/mdp/header"
	"github.com/goblimey/go-mdp/nav/subframe"
)

// BodyLength is the length of the body of a navigation subframe record.
const BodyLength = 4 + 4*subframe.WordsPerSubframe

// Body holds the body of a navigation subframe record.
type Body struct {
	PRN     int
	Carrier subframe.CarrierCode
	Range   subframe.RangeCode
	NavCode int
	Words   [subframe.WordsPerSubframe]uint32
}

// Parse gets the body from the bytes that follow the header.
func Parse(body []byte) (*Body, error) {
	if len(body) < BodyLength {
		return nil, fmt.Errorf("navigation subframe body is %d bytes, expected %d", len(body), BodyLength)
	}

	b := Body{
		PRN:     int(body[0]),
		Carrier: subframe.CarrierCode(body[1]),
		Range:   subframe.RangeCode(body[2]),
		NavCode: int(body[3]),
	}
	for i := range b.Words {
		b.Words[i] = binary.BigEndian.Uint32(body[4+i*4:])
	}

	return &b, nil
}

// FromSubframe creates a body carrying the given subframe.
func FromSubframe(sf *subframe.Subframe) *Body {
	b := Body{
		PRN:     sf.PRN,
		Carrier: sf.Signal.Carrier,
		Range:   sf.Signal.Range,
		NavCode: sf.NavCode,
		Words:   sf.Words,
	}
	return &b
}

// Encode returns the body in its binary form.
func (b *Body) Encode() []byte {
	buf := make([]byte, BodyLength)
	buf[0] = byte(b.PRN)
	buf[1] = byte(b.Carrier)
	buf[2] = byte(b.Range)
	buf[3] = byte(b.NavCode)
	for i, w := range b.Words {
		binary.BigEndian.PutUint32(buf[4+i*4:], w)
	}
	return buf
}

// Subframe creates the subframe carried by the record, timestamped with the
// time in the record's header.
func (b *Body) Subframe(h *header.Header) *subframe.Subframe {
	signal := subframe.SignalKey{Range: b.Range, Carrier: b.Carrier}
	return subframe.New(b.PRN, signal, b.NavCode, b.Words, h.Week, h.MillisOfWeek)
}

// String returns a readable version of the body.
func (b *Body) String() string {
	display := fmt.Sprintf("PRN %02d, carrier %s, range code %s, nav code %d\n",
		b.PRN, b.Carrier.String(), b.Range.String(), b.NavCode)
	for i, w := range b.Words {
		display += fmt.Sprintf(" %08x", w)
		if i == 4 {
			display += "\n"
		}
	}
	display += "\n"
	return display
}
