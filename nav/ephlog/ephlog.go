// Package ephlog keeps the log of broadcast ephemerides seen so far, one
// entry per distinct ephemeris per satellite, and decides whether a newly
// assembled ephemeris should be written out or is a repeat of one already
// written.
//
// The live log of each satellite is keyed by fingerprint so that the
// lookup is quick.  The time ordered view used in the summary report is
// only built when it's asked for.
package ephlog

import (
	"sort"

	"github.com/goblimey/go-mdp/nav/ephemeris"
)

// Decision says what to do with an ephemeris.
type Decision int

const (
	// Emit means the ephemeris has not been seen before and should be
	// written out.
	Emit Decision = iota
	// Suppress means the ephemeris is a repeat.  Its count has been
	// incremented.
	Suppress
)

func (d Decision) String() string {
	if d == Emit {
		return "emit"
	}
	return "suppress"
}

// Entry is one distinct ephemeris and the number of times it was seen.
type Entry struct {
	Ephemeris *ephemeris.Ephemeris
	Count     int
}

// SatelliteLog holds the entries for one satellite, keyed by fingerprint.
type SatelliteLog struct {
	PRN     int
	entries map[ephemeris.Fingerprint]*Entry
}

// Len returns the number of distinct ephemerides.
func (sl *SatelliteLog) Len() int {
	return len(sl.entries)
}

// Lookup returns the entry with the given fingerprint.
func (sl *SatelliteLog) Lookup(fp ephemeris.Fingerprint) (*Entry, bool) {
	entry, ok := sl.entries[fp]
	return entry, ok
}

// ByTime returns the entries in order of the transmit time of the first
// copy of each ephemeris seen.  Entries with the same time are ordered by
// fingerprint.
func (sl *SatelliteLog) ByTime() []*Entry {
	entries := make([]*Entry, 0, len(sl.entries))
	for _, entry := range sl.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		ti := entries[i].Ephemeris.TransmitTime
		tj := entries[j].Ephemeris.TransmitTime
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return entries[i].Ephemeris.Fingerprint() < entries[j].Ephemeris.Fingerprint()
	})
	return entries
}

// Log holds the satellite logs.  It's not safe for concurrent use.
type Log struct {
	satellites map[int]*SatelliteLog
}

// New creates an empty log.
func New() *Log {
	return &Log{satellites: make(map[int]*SatelliteLog)}
}

// Record records an ephemeris.  If its fingerprint is new for the
// satellite, a new entry is made with a count of 1 and the result is Emit.
// Otherwise the count of the existing entry is incremented and the result
// is Suppress.
func (l *Log) Record(eph *ephemeris.Ephemeris) Decision {
	sl, ok := l.satellites[eph.PRN]
	if !ok {
		sl = &SatelliteLog{
			PRN:     eph.PRN,
			entries: make(map[ephemeris.Fingerprint]*Entry),
		}
		l.satellites[eph.PRN] = sl
	}

	fp := eph.Fingerprint()
	if entry, found := sl.entries[fp]; found {
		entry.Count++
		return Suppress
	}

	sl.entries[fp] = &Entry{Ephemeris: eph, Count: 1}
	return Emit
}

// PRNs returns the satellites in the log in ascending order.
func (l *Log) PRNs() []int {
	prns := make([]int, 0, len(l.satellites))
	for prn := range l.satellites {
		prns = append(prns, prn)
	}
	sort.Ints(prns)
	return prns
}

// Satellite returns the log of one satellite.
func (l *Log) Satellite(prn int) (*SatelliteLog, bool) {
	sl, ok := l.satellites[prn]
	return sl, ok
}

// Unique returns the total number of distinct ephemerides.
func (l *Log) Unique() int {
	n := 0
	for _, sl := range l.satellites {
		n += sl.Len()
	}
	return n
}
