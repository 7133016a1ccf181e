package navtest

import (
	"github.com/goblimey/go-mdp/nav/subframe"
)

// AlmanacSatellite holds the raw field values of one satellite's almanac
// page.
type AlmanacSatellite struct {
	SVID     int
	Health   int
	Toa      int // units of 4096 seconds.
	E        uint64
	SqrtA    uint64
	DeltaI   int64
	OmegaDot int64
	Omega0   int64
	Omega    int64
	M0       int64
	Af0      int64 // 11 bits.
	Af1      int64
}

// DefaultAlmanacSatellite returns plausible almanac values for the given
// satellite.
func DefaultAlmanacSatellite(svid int) AlmanacSatellite {
	return AlmanacSatellite{
		SVID:     svid,
		Toa:      144,
		E:        uint64(1000 + svid),
		SqrtA:    10554778, // about 5153.7
		DeltaI:   int64(4000 - svid),
		OmegaDot: -40,
		Omega0:   int64(svid) * 100000,
		Omega:    -int64(svid) * 1000,
		M0:       int64(svid) * 200000,
		Af0:      int64(-svid),
		Af1:      int64(svid % 4),
	}
}

// AlmanacFrame builds the given page of subframe 4 or 5 for the given
// cycle.  Satellite pages carry DefaultAlmanacSatellite values, subframe 5
// page 25 carries the given toa (units of 4096 seconds) and almanac week
// (modulo 256) and all satellites healthy.
func AlmanacFrame(sfid, page, cycle, toa, weekA int) *Frame {
	f := NewFrame(sfid, subframe.AlmanacTOWCount(cycle, sfid, page))
	svid := subframe.PageSVID(sfid, page)
	f.SetUint(48, 2, 1)
	f.SetUint(50, 6, uint64(svid))

	switch {
	case svid >= 1 && svid <= subframe.MaxAlmanacSVID:
		sat := DefaultAlmanacSatellite(svid)
		sat.Toa = toa
		SetAlmanacSatellite(f, sat)
	case svid == subframe.SVIDHealth5:
		f.SetUint(56, 8, uint64(toa))
		f.SetUint(64, 8, uint64(weekA%256))
		// All 24 health fields are zero.
	case svid == subframe.SVIDHealth4:
		for i := uint(0); i < 32; i++ {
			f.SetUint(56+i*4, 4, 1)
		}
	}
	return f
}

// SetAlmanacSatellite puts a satellite's almanac into a frame.
func SetAlmanacSatellite(f *Frame, sat AlmanacSatellite) {
	f.SetUint(50, 6, uint64(sat.SVID))
	f.SetUint(56, 16, sat.E)
	f.SetUint(72, 8, uint64(sat.Toa))
	f.SetInt(80, 16, sat.DeltaI)
	f.SetInt(96, 16, sat.OmegaDot)
	f.SetUint(112, 8, uint64(sat.Health))
	f.SetUint(120, 24, sat.SqrtA)
	f.SetInt(144, 24, sat.Omega0)
	f.SetInt(168, 24, sat.Omega)
	f.SetInt(192, 24, sat.M0)
	f.SetInt(216, 8, sat.Af0>>3)
	f.SetInt(224, 11, sat.Af1)
	f.SetUint(235, 3, uint64(sat.Af0&7))
}

// AlmanacSubframe builds one almanac page as received from the given
// satellite on L1 C/A.  The almanac reference week is the bottom eight bits
// of week and the toa is 144 (589824 seconds).
func AlmanacSubframe(prn, week, cycle, sfid, page int) *subframe.Subframe {
	towCount := subframe.AlmanacTOWCount(cycle, sfid, page)
	words := AlmanacFrame(sfid, page, cycle, 144, week).Words()
	return subframe.New(prn, subframe.L1CA, 0, words, week, MillisForTOWCount(towCount))
}

// AlmanacCycle builds the 50 almanac pages of one 12.5 minute cycle in
// broadcast order, subframe 4 then subframe 5 of each frame.
func AlmanacCycle(prn, week, cycle int) []*subframe.Subframe {
	pages := make([]*subframe.Subframe, 0, subframe.AlmanacPageCount)
	for page := 1; page <= subframe.AlmanacPagesPerSubframe; page++ {
		pages = append(pages, AlmanacSubframe(prn, week, cycle, 4, page))
		pages = append(pages, AlmanacSubframe(prn, week, cycle, 5, page))
	}
	return pages
}
