package ephemeris

import (
	"fmt"

	"github.com/goblimey/go-mdp/nav/subframe"
)

// PageSet holds the most recent parity-valid copy of each of subframes 1, 2
// and 3 for one satellite and signal.  It's a value type, so a copy is a
// snapshot that later arrivals don't change.
type PageSet [3]*subframe.Subframe

// Put stores the subframe in the slot for its subframe id, replacing
// whatever was there.
func (ps *PageSet) Put(sf *subframe.Subframe) error {
	sfid := sf.SFID()
	if sfid < 1 || sfid > 3 {
		return fmt.Errorf("%w: subframe id %d", ErrNotEphemeris, sfid)
	}
	ps[sfid-1] = sf
	return nil
}

// Get returns the page with the given subframe id, or nil.
func (ps PageSet) Get(sfid int) *subframe.Subframe {
	if sfid < 1 || sfid > 3 {
		return nil
	}
	return ps[sfid-1]
}

// Complete is true when all three pages are present.
func (ps PageSet) Complete() bool {
	return ps[0] != nil && ps[1] != nil && ps[2] != nil
}

// Count returns the number of pages present.
func (ps PageSet) Count() int {
	n := 0
	for _, sf := range ps {
		if sf != nil {
			n++
		}
	}
	return n
}

// Words returns the 30 raw words of the three pages, subframe 1 first.
// Missing pages give zero words.
func (ps PageSet) Words() [3 * subframe.WordsPerSubframe]uint32 {
	var words [3 * subframe.WordsPerSubframe]uint32
	for i, sf := range ps {
		if sf == nil {
			continue
		}
		copy(words[i*subframe.WordsPerSubframe:], sf.Words[:])
	}
	return words
}
