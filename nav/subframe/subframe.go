// Package subframe holds the raw navigation subframe as delivered by the
// receiver and the keys used to file per-satellite, per-signal state.
//
// A GPS navigation subframe is ten 30-bit words.  Each word carries 24 data
// bits (D1-D24) and 6 parity bits (D25-D30).  Word 1 is the telemetry word
// (TLM) which starts with the preamble 0x8b.  Word 2 is the handover word
// (HOW) which carries the time of week count of the next subframe and the
// subframe id, 1-5.  Subframes 1-3 carry the ephemeris of the transmitting
// satellite, subframes 4 and 5 carry pages of the almanac.
package subframe

import (
	"fmt"
	"time"

	"github.com/goblimey/go-mdp/mdp/utils"
)

// WordsPerSubframe is the number of words in a subframe.
const WordsPerSubframe = 10

// Preamble is the first eight bits of the TLM word.
const Preamble = 0x8b

// InvertedPreamble is the preamble as read from an inverted subframe.
const InvertedPreamble = 0x74

// AlmanacPagesPerSubframe is the number of pages of subframes 4 and 5 in the
// 12.5 minute almanac cycle.
const AlmanacPagesPerSubframe = 25

// wordMask selects the 30 bits of a navigation word.
const wordMask = 0x3fffffff

// RangeCode identifies the ranging code that carried the subframe.
type RangeCode int

const (
	RangeUnknown  RangeCode = 0
	RangeCA       RangeCode = 1
	RangeP        RangeCode = 2
	RangeY        RangeCode = 3
	RangeCodeless RangeCode = 4
	RangeCM       RangeCode = 5
	RangeCL       RangeCode = 6
	RangeM1       RangeCode = 7
	RangeM2       RangeCode = 8
	RangeCMCL     RangeCode = 9
)

var rangeCodeNames = map[RangeCode]string{
	RangeUnknown:  "unknown",
	RangeCA:       "C/A",
	RangeP:        "P",
	RangeY:        "Y",
	RangeCodeless: "codeless",
	RangeCM:       "CM",
	RangeCL:       "CL",
	RangeM1:       "M1",
	RangeM2:       "M2",
	RangeCMCL:     "CM+CL",
}

func (rc RangeCode) String() string {
	name, ok := rangeCodeNames[rc]
	if !ok {
		return fmt.Sprintf("range code %d", int(rc))
	}
	return name
}

// CarrierCode identifies the carrier frequency.
type CarrierCode int

const (
	CarrierUnknown CarrierCode = 0
	CarrierL1      CarrierCode = 1
	CarrierL2      CarrierCode = 2
	CarrierL5      CarrierCode = 5
)

func (cc CarrierCode) String() string {
	switch cc {
	case CarrierUnknown:
		return "unknown"
	case CarrierL1:
		return "L1"
	case CarrierL2:
		return "L2"
	case CarrierL5:
		return "L5"
	default:
		return fmt.Sprintf("carrier %d", int(cc))
	}
}

// SignalKey identifies one navigation signal that a satellite transmits.
type SignalKey struct {
	Range   RangeCode
	Carrier CarrierCode
}

// L1CA is the legacy navigation signal, the only one this software decodes
// by default.
var L1CA = SignalKey{Range: RangeCA, Carrier: CarrierL1}

func (sk SignalKey) String() string {
	return sk.Range.String() + "/" + sk.Carrier.String()
}

// NavIndex is the key for all per-satellite, per-signal accumulation state.
type NavIndex struct {
	Signal SignalKey
	PRN    int
}

func (ni NavIndex) String() string {
	return fmt.Sprintf("PRN %02d %s", ni.PRN, ni.Signal.String())
}

// Subframe is one raw navigation subframe as received.  It is treated as
// immutable once received.
type Subframe struct {
	PRN    int
	Signal SignalKey
	// NavCode is the receiver's navigation message type code.
	NavCode int
	// Words holds the ten 30-bit words in the bottom bits.
	Words [WordsPerSubframe]uint32
	// Week and MillisOfWeek give the time in the MDP header - the time
	// that the receiver collected the subframe.
	Week         int
	MillisOfWeek uint32
}

// New creates a subframe.  Anything above the bottom 30 bits of each word
// is discarded.
func New(prn int, signal SignalKey, navCode int, words [WordsPerSubframe]uint32, week int, millisOfWeek uint32) *Subframe {
	sf := Subframe{
		PRN:          prn,
		Signal:       signal,
		NavCode:      navCode,
		Week:         week,
		MillisOfWeek: millisOfWeek,
	}
	for i, w := range words {
		sf.Words[i] = w & wordMask
	}
	return &sf
}

// Index returns the NavIndex that files this subframe.
func (sf *Subframe) Index() NavIndex {
	return NavIndex{Signal: sf.Signal, PRN: sf.PRN}
}

// Inverted is true if the words were received upside down, which shows in
// the preamble.
func (sf *Subframe) Inverted() bool {
	return sf.Words[0]>>22 == InvertedPreamble
}

// dataBits returns word i's 24 data bits with the polarity corrected.
// The data bits of a word are transmitted complemented when bit 30 of the
// previous word is set.
func (sf *Subframe) dataBits(i int) uint32 {
	d30Star := uint32(0)
	if i == 0 {
		if sf.Inverted() {
			d30Star = 1
		}
	} else {
		d30Star = sf.Words[i-1] & 1
	}
	data := (sf.Words[i] >> 6) & 0xffffff
	if d30Star == 1 {
		data ^= 0xffffff
	}
	return data
}

// DataBits returns the 240 data bits of the subframe (24 from each word,
// parity removed, polarity corrected) packed into 30 bytes.  The bit
// positions match the usual layout, where the TLM occupies bits 0-23 and the
// HOW bits 24-47.
func (sf *Subframe) DataBits() [30]byte {
	var buf [30]byte
	for i := 0; i < WordsPerSubframe; i++ {
		d := sf.dataBits(i)
		buf[i*3] = byte(d >> 16)
		buf[i*3+1] = byte(d >> 8)
		buf[i*3+2] = byte(d)
	}
	return buf
}

// SFID returns the subframe id from bits 20-22 of the HOW.
func (sf *Subframe) SFID() int {
	return int((sf.dataBits(1) >> 2) & 0x7)
}

// TOWCount returns the truncated time of week count from the HOW, the time
// of the start of the next subframe in units of 6 seconds.
func (sf *Subframe) TOWCount() int {
	return int(sf.dataBits(1) >> 7)
}

// HOWTime returns the HOW time in seconds of the week.
func (sf *Subframe) HOWTime() int {
	return sf.TOWCount() * 6
}

// ValidHOWTime is true if the HOW time is within the week.
func (sf *Subframe) ValidHOWTime() bool {
	return sf.HOWTime() < utils.SecondsPerWeek
}

// TransmitTime returns the time at which the satellite started to transmit
// this subframe, six seconds before the HOW time, in the GPS time scale.
// The week is taken from the MDP header.
func (sf *Subframe) TransmitTime() time.Time {
	return utils.GPSTime(sf.Week, float64(sf.HOWTime()-6))
}

// ReceiveTime returns the time in the MDP header.
func (sf *Subframe) ReceiveTime() time.Time {
	return utils.GPSTime(sf.Week, float64(sf.MillisOfWeek)/1000.0)
}

// AlmanacPage returns the page number, 1-25, of a subframe 4 or 5.  Pages
// rotate through a 25 frame cycle so the page follows from the frame number.
func (sf *Subframe) AlmanacPage() int {
	frameStart := (sf.TOWCount() - 1) * 6
	if frameStart < 0 {
		frameStart += utils.SecondsPerWeek
	}
	frame := frameStart / 30
	return frame%AlmanacPagesPerSubframe + 1
}

// SVID returns the data id/SV id field of a subframe 4 or 5 page - the
// satellite whose almanac the page carries or a special value (51-63) for
// the pages that carry other data.
func (sf *Subframe) SVID() int {
	buf := sf.DataBits()
	return int(utils.GetBitsAsUint64(buf[:], 50, 6))
}

// String returns a readable version of the subframe.
func (sf *Subframe) String() string {
	display := fmt.Sprintf("PRN %02d %s subframe %d, HOW %d, week %d",
		sf.PRN, sf.Signal.String(), sf.SFID(), sf.HOWTime(), sf.Week)
	if sf.Inverted() {
		display += ", inverted"
	}
	display += "\n"
	for i, w := range sf.Words {
		display += fmt.Sprintf(" %08x", w)
		if i == 4 {
			display += "\n"
		}
	}
	display += "\n"
	return display
}

// Special SV ids of the subframe 4 and 5 pages that don't carry the almanac
// of a satellite.
const (
	SVIDHealth5      = 51 // subframe 5 page 25, health of satellites 1-24.
	SVIDSpecial52    = 52 // subframe 4 page 13, NMCT.
	SVIDSpecial55    = 55 // subframe 4 page 17, special message.
	SVIDUTC          = 56 // subframe 4 page 18, ionosphere and UTC.
	SVIDReserved     = 57 // subframe 4 reserved pages.
	SVIDHealth4      = 63 // subframe 4 page 25, configuration and health of satellites 25-32.
	MaxAlmanacSVID   = 32
	AlmanacPageCount = 2 * AlmanacPagesPerSubframe
)

// subframe4SVIDs gives the SV id carried by each page of subframe 4.
var subframe4SVIDs = [AlmanacPagesPerSubframe]int{
	SVIDReserved, 25, 26, 27, 28, SVIDReserved, 29, 30, 31, 32,
	SVIDReserved, SVIDReserved, SVIDSpecial52, SVIDReserved, SVIDReserved,
	SVIDReserved, SVIDSpecial55, SVIDUTC, SVIDReserved, SVIDReserved,
	SVIDReserved, SVIDReserved, SVIDReserved, SVIDReserved, SVIDHealth4,
}

// PageSVID returns the SV id that the given page (1-25) of subframe 4 or 5
// carries in the broadcast sequence.  It returns 0 for any other subframe or
// page.
func PageSVID(sfid, page int) int {
	if page < 1 || page > AlmanacPagesPerSubframe {
		return 0
	}
	switch sfid {
	case 4:
		return subframe4SVIDs[page-1]
	case 5:
		if page == AlmanacPagesPerSubframe {
			return SVIDHealth5
		}
		return page
	default:
		return 0
	}
}

// AlmanacTOWCount returns the HOW TOW count of the given subframe of the
// frame that carries the given almanac page in the given 12.5 minute cycle
// of the week.  The frame that starts the week carries page 1.
func AlmanacTOWCount(cycle, sfid, page int) int {
	frame := cycle*AlmanacPagesPerSubframe + page - 1
	return frame*5 + sfid
}
