// Package ephemeris assembles broadcast ephemerides from subframes 1, 2 and
// 3 of the navigation message.
//
// The Assembler keeps the latest parity-valid copy of each of the three
// subframes for every satellite and signal.  Once all three are present,
// every arrival triggers a fresh decode.  The decoded Ephemeris carries a
// Fingerprint, an exact key derived from the time of ephemeris and the
// IODC, used to spot rebroadcasts of an ephemeris that has already been
// seen.
//
// The field layout follows IS-GPS-200 figure 20-1 and table 20-III.  Bit
// positions are positions in the 240 data bits of each subframe, parity
// removed.
package ephemeris

import (
	"errors"
	"fmt"
	"time"

	"github.com/goblimey/go-mdp/mdp/utils"
	"github.com/goblimey/go-mdp/nav/subframe"
)

// ErrNotEphemeris is returned when a subframe other than 1, 2 or 3 is
// offered to the ephemeris code.
var ErrNotEphemeris = errors.New("not an ephemeris subframe")

// ErrIncompletePages is returned when a decode is attempted without all
// three pages.
var ErrIncompletePages = errors.New("ephemeris pages incomplete")

// ErrInconsistentPages is returned when the three pages don't belong to the
// same broadcast.
var ErrInconsistentPages = errors.New("inconsistent ephemeris pages")

// halfWeek is used to decide whether the Toe is in the week before or after
// the week of transmission.
const halfWeek = utils.SecondsPerWeek / 2

// Fingerprint identifies one broadcast ephemeris.  It's the full time of
// ephemeris in seconds since the start of GPS time, shifted left ten bits,
// with the IODC in the bottom ten bits.
type Fingerprint uint64

// Ephemeris is a decoded broadcast ephemeris.
type Ephemeris struct {
	PRN    int
	Signal subframe.SignalKey

	// HOWTime is the HOW time of subframe 1, seconds of week.
	HOWTime int
	// TransmitTime is the time that the satellite started to send
	// subframe 1.
	TransmitTime time.Time

	// Week is the full GPS week of the Toe.  TocWeek is the full week of
	// the Toc.
	Week    int
	TocWeek int

	// Clock data, subframe 1.
	CodeOnL2 int
	URA      int
	Health   int
	IODC     int
	L2PFlag  int
	Toc      int
	Tgd      float64
	Af0      float64
	Af1      float64
	Af2      float64

	// Orbit data, subframes 2 and 3.
	IODE        int
	Toe         int
	FitInterval int
	Crs         float64
	DeltaN      float64
	M0          float64
	Cuc         float64
	E           float64
	Cus         float64
	SqrtA       float64
	Cic         float64
	Omega0      float64
	Cis         float64
	I0          float64
	Crc         float64
	Omega       float64
	OmegaDot    float64
	IDot        float64
}

// Decode decodes an ephemeris from a complete page set.  The 10-bit week in
// subframe 1 is resolved using the week in which subframe 1 was received.
func Decode(pages PageSet) (*Ephemeris, error) {

	if !pages.Complete() {
		return nil, ErrIncompletePages
	}

	for i := 1; i <= 3; i++ {
		if got := pages.Get(i).SFID(); got != i {
			return nil, fmt.Errorf("%w: page %d has subframe id %d", ErrInconsistentPages, i, got)
		}
	}

	sf1 := pages.Get(1)
	b1 := sf1.DataBits()
	b2 := pages.Get(2).DataBits()
	b3 := pages.Get(3).DataBits()

	u := func(buf [30]byte, pos, length uint) int {
		return int(utils.GetBitsAsUint64(buf[:], pos, length))
	}
	s := func(buf [30]byte, pos, length uint) float64 {
		return float64(utils.GetBitsAsInt64(buf[:], pos, length))
	}
	f := func(buf [30]byte, pos, length uint) float64 {
		return float64(utils.GetBitsAsUint64(buf[:], pos, length))
	}

	eph := Ephemeris{
		PRN:          sf1.PRN,
		Signal:       sf1.Signal,
		HOWTime:      sf1.HOWTime(),
		TransmitTime: sf1.TransmitTime(),
	}

	// Subframe 1.
	week10 := u(b1, 48, 10)
	eph.CodeOnL2 = u(b1, 58, 2)
	eph.URA = u(b1, 60, 4)
	eph.Health = u(b1, 64, 6)
	iodcHigh := u(b1, 70, 2)
	eph.L2PFlag = u(b1, 72, 1)
	tgd := utils.GetBitsAsInt64(b1[:], 160, 8)
	if tgd != -128 {
		eph.Tgd = float64(tgd) * utils.P2_31
	}
	eph.IODC = iodcHigh<<8 | u(b1, 168, 8)
	eph.Toc = u(b1, 176, 16) * 16
	eph.Af2 = s(b1, 192, 8) * utils.P2_55
	eph.Af1 = s(b1, 200, 16) * utils.P2_43
	eph.Af0 = s(b1, 216, 22) * utils.P2_31

	// Subframe 2.
	iode2 := u(b2, 48, 8)
	eph.Crs = s(b2, 56, 16) * utils.P2_5
	eph.DeltaN = s(b2, 72, 16) * utils.P2_43 * utils.SC2RAD
	eph.M0 = s(b2, 88, 32) * utils.P2_31 * utils.SC2RAD
	eph.Cuc = s(b2, 120, 16) * utils.P2_29
	eph.E = f(b2, 136, 32) * utils.P2_33
	eph.Cus = s(b2, 168, 16) * utils.P2_29
	eph.SqrtA = f(b2, 184, 32) * utils.P2_19
	eph.Toe = u(b2, 216, 16) * 16
	eph.FitInterval = u(b2, 232, 1)

	// Subframe 3.
	eph.Cic = s(b3, 48, 16) * utils.P2_29
	eph.Omega0 = s(b3, 64, 32) * utils.P2_31 * utils.SC2RAD
	eph.Cis = s(b3, 96, 16) * utils.P2_29
	eph.I0 = s(b3, 112, 32) * utils.P2_31 * utils.SC2RAD
	eph.Crc = s(b3, 144, 16) * utils.P2_5
	eph.Omega = s(b3, 160, 32) * utils.P2_31 * utils.SC2RAD
	eph.OmegaDot = s(b3, 192, 24) * utils.P2_43 * utils.SC2RAD
	iode3 := u(b3, 216, 8)
	eph.IDot = s(b3, 224, 14) * utils.P2_43 * utils.SC2RAD

	if iode2 != iode3 {
		return nil, fmt.Errorf("%w: PRN %02d IODE %d in subframe 2, %d in subframe 3",
			ErrInconsistentPages, eph.PRN, iode2, iode3)
	}
	if iode2 != eph.IODC&0xff {
		return nil, fmt.Errorf("%w: PRN %02d IODE %d does not match IODC %d",
			ErrInconsistentPages, eph.PRN, iode2, eph.IODC)
	}
	eph.IODE = iode2

	// The broadcast week is the week of transmission.  The Toe and Toc may
	// be in the week before or after that.
	week := utils.FullWeek(week10, sf1.Week)
	eph.Week = adjustWeek(week, eph.Toe, eph.HOWTime)
	eph.TocWeek = adjustWeek(week, eph.Toc, eph.HOWTime)

	return &eph, nil
}

// adjustWeek returns the week of an epoch given as seconds of week, assuming
// that the epoch is within half a week of the given time of week in the
// given week.
func adjustWeek(week, secondsOfWeek, timeOfWeek int) int {
	switch {
	case secondsOfWeek-timeOfWeek > halfWeek:
		return week - 1
	case secondsOfWeek-timeOfWeek < -halfWeek:
		return week + 1
	default:
		return week
	}
}

// Fingerprint returns the key that identifies this broadcast.
func (eph *Ephemeris) Fingerprint() Fingerprint {
	toe := uint64(eph.Week)*utils.SecondsPerWeek + uint64(eph.Toe)
	return Fingerprint(toe<<10 | uint64(eph.IODC&0x3ff))
}

// ToeTime returns the time of ephemeris.
func (eph *Ephemeris) ToeTime() time.Time {
	return utils.GPSTime(eph.Week, float64(eph.Toe))
}

// TocTime returns the clock reference time.
func (eph *Ephemeris) TocTime() time.Time {
	return utils.GPSTime(eph.TocWeek, float64(eph.Toc))
}

// String returns a readable version of the ephemeris.
func (eph *Ephemeris) String() string {
	display := fmt.Sprintf("PRN %02d %s ephemeris, sent %s, HOW %d\n",
		eph.PRN, eph.Signal.String(), eph.TransmitTime.Format(utils.DateLayout), eph.HOWTime)
	display += fmt.Sprintf("week %d Toe %d Toc %d IODC %d IODE %d health %d URA %d fit %d\n",
		eph.Week, eph.Toe, eph.Toc, eph.IODC, eph.IODE, eph.Health, eph.URA, eph.FitInterval)
	display += fmt.Sprintf("af0 %.12e af1 %.12e af2 %.12e tgd %.12e\n",
		eph.Af0, eph.Af1, eph.Af2, eph.Tgd)
	display += fmt.Sprintf("sqrtA %.12e e %.12e i0 %.12e omega0 %.12e\n",
		eph.SqrtA, eph.E, eph.I0, eph.Omega0)
	display += fmt.Sprintf("omega %.12e M0 %.12e deltaN %.12e omegaDot %.12e iDot %.12e\n",
		eph.Omega, eph.M0, eph.DeltaN, eph.OmegaDot, eph.IDot)
	display += fmt.Sprintf("cuc %.12e cus %.12e crc %.12e crs %.12e cic %.12e cis %.12e\n",
		eph.Cuc, eph.Cus, eph.Crc, eph.Crs, eph.Cic, eph.Cis)
	return display
}
