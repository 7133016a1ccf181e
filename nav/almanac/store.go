// Package almanac collects the pages of the almanac that the satellites
// broadcast in subframes 4 and 5.
//
// Each of the two subframes has 25 pages, one page per 30 second frame, so
// a complete almanac takes 12.5 minutes to arrive.  A Store keeps the latest
// copy of each of the 50 pages received from one satellite on one signal.
// Once all 50 have been seen it is ready and stays ready: a flush produces
// a Record from whatever the slots hold at the time and doesn't empty them.
package almanac

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/goblimey/go-mdp/nav/subframe"
)

// ErrNotAlmanac is returned when a subframe other than 4 or 5 is offered
// to a store.
var ErrNotAlmanac = errors.New("not an almanac subframe")

// ErrInvalidHOW is returned when the HOW time of a page is beyond the end
// of the week.
var ErrInvalidHOW = errors.New("HOW time beyond the end of the week")

// ErrIndexInsertion means that a store could not be found immediately
// after it was created.  It indicates a bug, not bad data.
var ErrIndexInsertion = errors.New("almanac store insertion failed")

// slot returns the index of the slot for a page, or -1.
func slot(sfid, page int) int {
	if page < 1 || page > subframe.AlmanacPagesPerSubframe {
		return -1
	}
	switch sfid {
	case 4:
		return page - 1
	case 5:
		return subframe.AlmanacPagesPerSubframe + page - 1
	default:
		return -1
	}
}

// Store holds the almanac pages from one satellite on one signal.
type Store struct {
	Index  subframe.NavIndex
	slots  [subframe.AlmanacPageCount]*subframe.Subframe
	filled int
}

// NewStore creates an empty store.
func NewStore(ni subframe.NavIndex) *Store {
	return &Store{Index: ni}
}

// Ingest puts a parity-valid subframe 4 or 5 into the slot for its page,
// replacing any earlier copy.
func (s *Store) Ingest(sf *subframe.Subframe) error {
	sfid := sf.SFID()
	if sfid != 4 && sfid != 5 {
		return fmt.Errorf("%w: subframe id %d", ErrNotAlmanac, sfid)
	}
	if !sf.ValidHOWTime() {
		return fmt.Errorf("%w: %d", ErrInvalidHOW, sf.HOWTime())
	}

	i := slot(sfid, sf.AlmanacPage())
	if s.slots[i] == nil {
		s.filled++
	}
	s.slots[i] = sf
	return nil
}

// Ready is true once every slot has been filled.
func (s *Store) Ready() bool {
	return s.filled == subframe.AlmanacPageCount
}

// Filled returns the number of slots filled so far.
func (s *Store) Filled() int {
	return s.filled
}

// Page returns the latest copy of the given page of subframe 4 or 5, or
// nil.
func (s *Store) Page(sfid, page int) *subframe.Subframe {
	i := slot(sfid, page)
	if i < 0 {
		return nil
	}
	return s.slots[i]
}

// Flush returns a record built from the current contents of the slots, or
// nil if the store isn't ready.  The slots are left as they are, so the
// store stays ready.
func (s *Store) Flush() *Record {
	if !s.Ready() {
		return nil
	}
	pages := s.slots
	return decode(s.Index, pages)
}

// Stores holds a store for each satellite and signal.  It's not safe for
// concurrent use.
type Stores struct {
	stores map[subframe.NavIndex]*Store
	logger *slog.Logger
}

// NewStores creates an empty collection.
func NewStores(logger *slog.Logger) *Stores {
	return &Stores{
		stores: make(map[subframe.NavIndex]*Store),
		logger: logger,
	}
}

// StoreFor returns the store for the satellite and signal of the given
// subframe, creating it on first sight.
func (ss *Stores) StoreFor(sf *subframe.Subframe) (*Store, error) {
	ni := sf.Index()
	if store, ok := ss.stores[ni]; ok {
		return store, nil
	}

	ss.stores[ni] = NewStore(ni)
	store, ok := ss.stores[ni]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIndexInsertion, ni.String())
	}
	if ss.logger != nil {
		ss.logger.Debug("new almanac store", "index", ni.String())
	}
	return store, nil
}

// Len returns the number of stores.
func (ss *Stores) Len() int {
	return len(ss.stores)
}
