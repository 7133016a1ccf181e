// Package router decides where a navigation subframe goes.  Only subframes
// from the one configured signal are interesting.  Subframes 1-3 carry the
// transmitting satellite's ephemeris and subframes 4 and 5 carry pages of
// the almanac.  Anything else is dropped.
package router

import (
	"github.com/goblimey/go-mdp/nav/subframe"
)

// Path is the destination of a subframe.
type Path int

const (
	// Drop means the subframe is not interesting.
	Drop Path = iota
	// Ephemeris means the subframe goes to the ephemeris assembler.
	Ephemeris
	// Almanac means the subframe goes to the almanac stores.
	Almanac
)

func (p Path) String() string {
	switch p {
	case Ephemeris:
		return "ephemeris"
	case Almanac:
		return "almanac"
	default:
		return "drop"
	}
}

// Reason says why a subframe was given the path it was.
type Reason int

const (
	Accepted Reason = iota
	// WrongSignal means the subframe came from a signal other than the
	// configured one.
	WrongSignal
	// InvalidID means the subframe id is not in the range 1-5.
	InvalidID
)

func (r Reason) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case WrongSignal:
		return "wrong signal"
	case InvalidID:
		return "invalid subframe id"
	default:
		return "unknown reason"
	}
}

// Router routes subframes.  It holds no state beyond the configured signal.
type Router struct {
	Signal subframe.SignalKey
}

// New creates a router that accepts subframes from the given signal.
func New(signal subframe.SignalKey) *Router {
	return &Router{Signal: signal}
}

// Route returns the path for the subframe.
func (r *Router) Route(sf *subframe.Subframe) Path {
	path, _ := r.Classify(sf)
	return path
}

// Classify returns the path for the subframe and the reason for it.
func (r *Router) Classify(sf *subframe.Subframe) (Path, Reason) {
	if sf.Signal != r.Signal {
		return Drop, WrongSignal
	}

	switch sf.SFID() {
	case 1, 2, 3:
		return Ephemeris, Accepted
	case 4, 5:
		return Almanac, Accepted
	default:
		return Drop, InvalidID
	}
}
