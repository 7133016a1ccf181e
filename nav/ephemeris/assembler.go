package ephemeris

import (
	"github.com/goblimey/go-mdp/nav/subframe"
)

// Assembler holds the page sets of all satellites and signals seen so far.
// It's not safe for concurrent use.
type Assembler struct {
	pages map[subframe.NavIndex]*PageSet
}

// NewAssembler creates an empty assembler.
func NewAssembler() *Assembler {
	return &Assembler{pages: make(map[subframe.NavIndex]*PageSet)}
}

// Ingest stores a parity-valid subframe 1, 2 or 3 in the page set for its
// satellite and signal, replacing any earlier copy.  Once the page set is
// complete, each call decodes the three pages and returns the ephemeris
// and a snapshot of the pages that produced it.  Until then it returns a
// nil ephemeris and no error.  A decode failure returns the error and
// leaves the pages stored.
func (a *Assembler) Ingest(sf *subframe.Subframe) (*Ephemeris, PageSet, error) {
	var candidate PageSet
	if err := candidate.Put(sf); err != nil {
		return nil, PageSet{}, err
	}

	ni := sf.Index()
	ps, ok := a.pages[ni]
	if !ok {
		ps = new(PageSet)
		a.pages[ni] = ps
	}
	ps.Put(sf)

	if !ps.Complete() {
		return nil, PageSet{}, nil
	}

	snapshot := *ps
	eph, err := Decode(snapshot)
	if err != nil {
		return nil, snapshot, err
	}
	return eph, snapshot, nil
}

// Pages returns a snapshot of the page set for the given satellite and
// signal.
func (a *Assembler) Pages(ni subframe.NavIndex) (PageSet, bool) {
	ps, ok := a.pages[ni]
	if !ok {
		return PageSet{}, false
	}
	return *ps, true
}

// Len returns the number of satellite/signal pairs seen.
func (a *Assembler) Len() int {
	return len(a.pages)
}
