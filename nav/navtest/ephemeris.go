package navtest

import (
	"github.com/goblimey/go-mdp/mdp/utils"
	"github.com/goblimey/go-mdp/nav/subframe"
)

// Ephemeris holds the raw, unscaled field values of the three ephemeris
// subframes of one broadcast.
type Ephemeris struct {
	PRN  int
	Week int // full GPS week, broadcast modulo 1024.
	IODC int
	// IODE is normally the bottom eight bits of IODC.  Set it to something
	// else to build an inconsistent broadcast.
	IODE int
	// TOWCount is the HOW TOW count of subframe 1.  Subframes 2 and 3
	// follow at six second intervals.
	TOWCount    int
	Toe         int // seconds of week, a multiple of 16.
	Toc         int // seconds of week, a multiple of 16.
	Health      int
	URA         int
	CodeOnL2    int
	FitInterval int

	Tgd, Af0, Af1, Af2               int64
	Crs, DeltaN, M0, Cuc, Cus        int64
	Cic, Omega0, Cis, I0, Crc, Omega int64
	OmegaDot, IDot                   int64
	E, SqrtA                         uint64
}

// DefaultEphemeris returns a plausible ephemeris for the given satellite
// with the given week, Toe and IODC.  The broadcast starts two hours before
// the Toe.
func DefaultEphemeris(prn, week, toe, iodc int) Ephemeris {
	towCount := (toe - 7200) / 6
	if towCount < 1 {
		towCount = 1
	}
	return Ephemeris{
		PRN:      prn,
		Week:     week,
		IODC:     iodc,
		IODE:     iodc & 0xff,
		TOWCount: towCount,
		Toe:      toe,
		Toc:      toe,
		CodeOnL2: 1,
		URA:      2,
		Tgd:      -11,
		Af0:      -123456,
		Af1:      -23,
		Af2:      0,
		Crs:      -1234,
		DeltaN:   13000,
		M0:       0x12345678,
		Cuc:      -1000,
		E:        85899346, // about 0.01
		Cus:      2000,
		SqrtA:    2702023066, // about 5153.7
		Cic:      100,
		Omega0:   -0x23456789,
		Cis:      -100,
		I0:       0x297a1234,
		Crc:      6000,
		Omega:    0x0abcdef0,
		OmegaDot: -21000,
		IDot:     -300,
	}
}

// Frame builds the frame for the given subframe id, 1, 2 or 3.
func (e Ephemeris) Frame(sfid int) *Frame {
	f := NewFrame(sfid, e.TOWCount+sfid-1)
	switch sfid {
	case 1:
		f.SetUint(48, 10, uint64(e.Week%utils.WeekRollover))
		f.SetUint(58, 2, uint64(e.CodeOnL2))
		f.SetUint(60, 4, uint64(e.URA))
		f.SetUint(64, 6, uint64(e.Health))
		f.SetUint(70, 2, uint64(e.IODC>>8))
		f.SetInt(160, 8, e.Tgd)
		f.SetUint(168, 8, uint64(e.IODC&0xff))
		f.SetUint(176, 16, uint64(e.Toc/16))
		f.SetInt(192, 8, e.Af2)
		f.SetInt(200, 16, e.Af1)
		f.SetInt(216, 22, e.Af0)
	case 2:
		f.SetUint(48, 8, uint64(e.IODE))
		f.SetInt(56, 16, e.Crs)
		f.SetInt(72, 16, e.DeltaN)
		f.SetInt(88, 32, e.M0)
		f.SetInt(120, 16, e.Cuc)
		f.SetUint(136, 32, e.E)
		f.SetInt(168, 16, e.Cus)
		f.SetUint(184, 32, e.SqrtA)
		f.SetUint(216, 16, uint64(e.Toe/16))
		f.SetUint(232, 1, uint64(e.FitInterval))
	case 3:
		f.SetInt(48, 16, e.Cic)
		f.SetInt(64, 32, e.Omega0)
		f.SetInt(96, 16, e.Cis)
		f.SetInt(112, 32, e.I0)
		f.SetInt(144, 16, e.Crc)
		f.SetInt(160, 32, e.Omega)
		f.SetInt(192, 24, e.OmegaDot)
		f.SetUint(216, 8, uint64(e.IODE))
		f.SetInt(224, 14, e.IDot)
	}
	return f
}

// Subframe builds the given subframe as received on L1 C/A.
func (e Ephemeris) Subframe(sfid int) *subframe.Subframe {
	towCount := e.TOWCount + sfid - 1
	return subframe.New(e.PRN, subframe.L1CA, 0, e.Frame(sfid).Words(),
		e.Week, MillisForTOWCount(towCount))
}

// Subframes builds subframes 1, 2 and 3.
func (e Ephemeris) Subframes() [3]*subframe.Subframe {
	return [3]*subframe.Subframe{e.Subframe(1), e.Subframe(2), e.Subframe(3)}
}
