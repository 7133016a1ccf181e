package driver

import (
	"time"
)

// Stats holds the counters that the driver keeps while it runs.
type Stats struct {
	// SubframesProcessed counts the subframes that were routed to the
	// ephemeris or almanac path and so were parity checked.
	SubframesProcessed int
	ParitySuccesses    int
	ParityFailures     int

	// Records that are not navigation subframes.
	ObsEpochs      int
	NonMDP         int
	UnknownRecords int
	Undecodable    int

	// Subframes dropped by the router.
	WrongSignal int
	InvalidID   int

	EphemeridesDecoded    int
	EphemeridesEmitted    int
	EphemeridesSuppressed int
	// EphemeridesRejected counts complete page sets that failed to decode.
	EphemeridesRejected int

	// AlmanacPagesDropped counts almanac pages with a HOW time beyond the
	// end of the week.
	AlmanacPagesDropped int
	AlmanacFlushes      int

	// Earliest and Latest are the transmit times of the first and last
	// subframes that passed the parity check.  They are zero until one
	// has.
	Earliest time.Time
	Latest   time.Time
}

// PercentFailing returns the percentage of processed subframes that failed
// the parity check, or 0 if none were processed.
func (s *Stats) PercentFailing() float64 {
	if s.SubframesProcessed == 0 {
		return 0
	}
	return float64(s.ParityFailures) * 100 / float64(s.SubframesProcessed)
}

// noteTransmitTime moves the earliest and latest times out to include t.
func (s *Stats) noteTransmitTime(t time.Time) {
	if s.Earliest.IsZero() || t.Before(s.Earliest) {
		s.Earliest = t
	}
	if s.Latest.IsZero() || t.After(s.Latest) {
		s.Latest = t
	}
}
