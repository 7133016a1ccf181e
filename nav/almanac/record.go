package almanac

import (
	"fmt"

	"github.com/goblimey/go-mdp/mdp/utils"
	"github.com/goblimey/go-mdp/nav/subframe"
)

// almanacWeekRollover is the range of the 8-bit almanac week.
const almanacWeekRollover = 256

// inclinationReference is the reference inclination, in semicircles, that
// the almanac gives its inclination relative to.
const inclinationReference = 0.3

// Satellite is the decoded almanac of one satellite.  Angles are in
// radians.
type Satellite struct {
	SVID   int
	Health int
	// Toa is the almanac reference time, seconds of week.
	Toa      int
	E        float64
	DeltaI   float64
	I0       float64
	OmegaDot float64
	SqrtA    float64
	Omega0   float64
	Omega    float64
	M0       float64
	Af0      float64
	Af1      float64
}

// Record is one almanac flushed from a store.
type Record struct {
	Index subframe.NavIndex
	// Week and Toa are the almanac reference week and time from subframe 5
	// page 25.  Week is the full GPS week.
	Week int
	Toa  int
	// Health holds the six bit health of satellites 1 to 32 from subframe 5
	// page 25 and subframe 4 page 25.
	Health [subframe.MaxAlmanacSVID]int
	// Config holds the four bit antispoofing and configuration codes of
	// satellites 1 to 32 from subframe 4 page 25.
	Config [subframe.MaxAlmanacSVID]int
	// Satellites holds the almanac of each satellite whose page was found,
	// in SV id order.
	Satellites []Satellite
	// Pages holds the subframes that produced the record, subframe 4 pages
	// 1-25 then subframe 5 pages 1-25.
	Pages [subframe.AlmanacPageCount]*subframe.Subframe
}

// decode builds a record from a full set of pages.
func decode(ni subframe.NavIndex, pages [subframe.AlmanacPageCount]*subframe.Subframe) *Record {
	rec := Record{Index: ni, Pages: pages}

	var sats [subframe.MaxAlmanacSVID + 1]*Satellite
	for _, sf := range pages {
		if sf == nil {
			continue
		}
		buf := sf.DataBits()
		svid := int(utils.GetBitsAsUint64(buf[:], 50, 6))
		switch {
		case svid >= 1 && svid <= subframe.MaxAlmanacSVID:
			sat := decodeSatellite(buf)
			sats[svid] = &sat
		case svid == subframe.SVIDHealth5 && sf.SFID() == 5:
			rec.Toa = int(utils.GetBitsAsUint64(buf[:], 56, 8)) * 4096
			wna := int(utils.GetBitsAsUint64(buf[:], 64, 8))
			rec.Week = fullAlmanacWeek(wna, sf.Week)
			for i := 0; i < 24; i++ {
				rec.Health[i] = int(utils.GetBitsAsUint64(buf[:], uint(72+i*6), 6))
			}
		case svid == subframe.SVIDHealth4 && sf.SFID() == 4:
			for i := 0; i < subframe.MaxAlmanacSVID; i++ {
				rec.Config[i] = int(utils.GetBitsAsUint64(buf[:], uint(56+i*4), 4))
			}
			for i := 24; i < subframe.MaxAlmanacSVID; i++ {
				rec.Health[i] = int(utils.GetBitsAsUint64(buf[:], uint(186+(i-24)*6), 6))
			}
		}
	}

	for _, sat := range sats {
		if sat != nil {
			rec.Satellites = append(rec.Satellites, *sat)
		}
	}
	return &rec
}

// decodeSatellite decodes the almanac page of one satellite.
func decodeSatellite(buf [30]byte) Satellite {
	u := func(pos, length uint) uint64 {
		return utils.GetBitsAsUint64(buf[:], pos, length)
	}
	s := func(pos, length uint) float64 {
		return float64(utils.GetBitsAsInt64(buf[:], pos, length))
	}

	sat := Satellite{
		SVID:     int(u(50, 6)),
		E:        float64(u(56, 16)) * utils.P2_21,
		Toa:      int(u(72, 8)) * 4096,
		DeltaI:   s(80, 16) * utils.P2_19 * utils.SC2RAD,
		OmegaDot: s(96, 16) * utils.P2_38 * utils.SC2RAD,
		Health:   int(u(112, 8)),
		SqrtA:    float64(u(120, 24)) * utils.P2_11,
		Omega0:   s(144, 24) * utils.P2_23 * utils.SC2RAD,
		Omega:    s(168, 24) * utils.P2_23 * utils.SC2RAD,
		M0:       s(192, 24) * utils.P2_23 * utils.SC2RAD,
		Af1:      s(224, 11) * utils.P2_38,
	}
	sat.I0 = inclinationReference*utils.SC2RAD + sat.DeltaI
	sat.Af0 = float64(utils.GetSplitBitsAsInt64(buf[:], 216, 8, 235, 3)) * utils.P2_20
	return sat
}

// fullAlmanacWeek resolves the 8-bit almanac week against the full week in
// which the page was received, choosing the closest candidate.
func fullAlmanacWeek(wna, referenceWeek int) int {
	week := referenceWeek - referenceWeek%almanacWeekRollover + wna%almanacWeekRollover
	if week-referenceWeek > almanacWeekRollover/2 {
		week -= almanacWeekRollover
	} else if referenceWeek-week > almanacWeekRollover/2 {
		week += almanacWeekRollover
	}
	return week
}

// Satellite returns the almanac of the given satellite.
func (rec *Record) Satellite(svid int) (Satellite, bool) {
	for _, sat := range rec.Satellites {
		if sat.SVID == svid {
			return sat, true
		}
	}
	return Satellite{}, false
}

// String returns a readable version of the record.
func (rec *Record) String() string {
	display := fmt.Sprintf("almanac from %s, week %d, toa %d, %d satellites\n",
		rec.Index.String(), rec.Week, rec.Toa, len(rec.Satellites))
	for _, sat := range rec.Satellites {
		display += fmt.Sprintf("SV %02d health %d toa %d e %.6e sqrtA %.6f i0 %.6f omega0 %.6f omega %.6f M0 %.6f af0 %.6e af1 %.6e\n",
			sat.SVID, sat.Health, sat.Toa, sat.E, sat.SqrtA, sat.I0, sat.Omega0, sat.Omega, sat.M0, sat.Af0, sat.Af1)
	}
	return display
}
