// Package driver runs the conversion.  A Session pulls records from the
// MDP input one at a time and takes each navigation subframe through the
// router, the parity check and then either the ephemeris assembler and the
// ephemeris log or the almanac stores, writing what they produce to the
// output encoder.
//
// A Session is not safe for concurrent use.  All of the per-satellite
// state is owned by the session and each record is processed completely
// before the next is read.  Anything that shares that state between
// goroutines must serialise every ingest of a given satellite and signal.
package driver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/goblimey/go-mdp/mdp/handler"
	"github.com/goblimey/go-mdp/nav/almanac"
	"github.com/goblimey/go-mdp/nav/ephemeris"
	"github.com/goblimey/go-mdp/nav/ephlog"
	"github.com/goblimey/go-mdp/nav/output"
	"github.com/goblimey/go-mdp/nav/parity"
	"github.com/goblimey/go-mdp/nav/router"
	"github.com/goblimey/go-mdp/nav/subframe"
)

// ErrOutput wraps a failure to write to the output encoder.
var ErrOutput = errors.New("output failed")

// ErrSessionDone is returned by Run on a session that has already run.
var ErrSessionDone = errors.New("session has already run")

// Source supplies MDP records.  ReadNextMessage returns io.EOF at the end
// of the input and any other error on an input fault.
type Source interface {
	ReadNextMessage() (*handler.Message, error)
}

// State is the state of a session.
type State int

const (
	Init State = iota
	Running
	Done
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case Running:
		return "running"
	default:
		return "done"
	}
}

// Termination says why a run stopped.
type Termination int

const (
	// EndOfInput means the input was exhausted.
	EndOfInput Termination = iota
	// InputFault means reading the input failed.
	InputFault
	// InternalFault means the software found a bug in itself.
	InternalFault
	// OutputFault means writing the output failed.
	OutputFault
)

func (t Termination) String() string {
	switch t {
	case EndOfInput:
		return "end of input"
	case InputFault:
		return "input fault"
	case InternalFault:
		return "internal fault"
	case OutputFault:
		return "output fault"
	default:
		return fmt.Sprintf("termination %d", int(t))
	}
}

// Result is the outcome of a run.  Err is nil for EndOfInput.
type Result struct {
	Termination Termination
	Err         error
}

// Session holds the state of one conversion.
type Session struct {
	router    *router.Router
	assembler *ephemeris.Assembler
	ephLog    *ephlog.Log
	stores    *almanac.Stores
	encoder   output.Encoder
	logger    *slog.Logger
	state     State

	// Stats is reset when the session is created and complete when Run
	// returns.
	Stats Stats
}

// NewSession creates a session that decodes the given signal and writes
// to the given encoder.  The encoder's header is written straight away.
func NewSession(signal subframe.SignalKey, encoder output.Encoder, logger *slog.Logger) (*Session, error) {
	session := Session{
		router:    router.New(signal),
		assembler: ephemeris.NewAssembler(),
		ephLog:    ephlog.New(),
		stores:    almanac.NewStores(logger),
		encoder:   encoder,
		logger:    logger,
		state:     Init,
	}

	if err := encoder.WriteHeader(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutput, err)
	}

	return &session, nil
}

// State returns the state of the session.
func (s *Session) State() State {
	return s.state
}

// EphemerisLog returns the log of the ephemerides seen.
func (s *Session) EphemerisLog() *ephlog.Log {
	return s.ephLog
}

// Run reads and processes records until the input is exhausted or fails,
// or a fatal error occurs.  Errors in individual records are counted and
// logged but don't stop the run.
func (s *Session) Run(src Source) Result {
	if s.state != Init {
		return Result{Termination: InternalFault, Err: ErrSessionDone}
	}
	s.state = Running
	defer func() { s.state = Done }()

	for {
		message, readError := src.ReadNextMessage()
		if readError != nil {
			if errors.Is(readError, io.EOF) {
				s.logger.Info("end of input")
				return Result{Termination: EndOfInput}
			}
			s.logger.Error("input fault", "error", readError)
			return Result{Termination: InputFault, Err: readError}
		}

		if err := s.Process(message); err != nil {
			if errors.Is(err, ErrOutput) {
				s.logger.Error("output fault", "error", err)
				return Result{Termination: OutputFault, Err: err}
			}
			s.logger.Error("internal fault", "error", err)
			return Result{Termination: InternalFault, Err: err}
		}
	}
}

// Process handles one record.  It only returns an error if the run can't
// continue.
func (s *Session) Process(message *handler.Message) error {
	switch message.Kind {
	case handler.KindNavSubframe:
		sf := message.Subframe()
		if sf == nil {
			s.Stats.Undecodable++
			return nil
		}
		return s.processSubframe(sf)
	case handler.KindObsEpoch:
		s.Stats.ObsEpochs++
	case handler.KindNonMDP:
		s.Stats.NonMDP++
		s.logger.Debug("non-MDP data", "length", len(message.RawData), "error", message.ErrorMessage)
	case handler.KindUndecodable:
		s.Stats.Undecodable++
		s.logger.Debug("undecodable record", "id", message.ID, "error", message.ErrorMessage)
	default:
		s.Stats.UnknownRecords++
	}
	return nil
}

// processSubframe routes and parity checks a subframe and passes it on.
func (s *Session) processSubframe(sf *subframe.Subframe) error {
	path, reason := s.router.Classify(sf)
	switch reason {
	case router.WrongSignal:
		s.Stats.WrongSignal++
	case router.InvalidID:
		s.Stats.InvalidID++
	}
	if path == router.Drop {
		return nil
	}

	s.Stats.SubframesProcessed++
	if !parity.Check(sf.Words) {
		s.Stats.ParityFailures++
		s.logger.Debug("parity failure", "prn", sf.PRN, "sfid", sf.SFID())
		return nil
	}
	s.Stats.ParitySuccesses++

	if path == router.Almanac {
		return s.processAlmanac(sf)
	}
	s.Stats.noteTransmitTime(sf.TransmitTime())
	return s.processEphemeris(sf)
}

// processEphemeris passes a subframe 1, 2 or 3 to the assembler and
// anything it produces to the ephemeris log.
func (s *Session) processEphemeris(sf *subframe.Subframe) error {
	eph, pages, err := s.assembler.Ingest(sf)
	if err != nil {
		s.Stats.EphemeridesRejected++
		s.logger.Debug("ephemeris not decoded", "prn", sf.PRN, "error", err)
		return nil
	}
	if eph == nil {
		return nil
	}
	s.Stats.EphemeridesDecoded++

	if s.ephLog.Record(eph) == ephlog.Suppress {
		s.Stats.EphemeridesSuppressed++
		return nil
	}

	s.Stats.EphemeridesEmitted++
	s.logger.Debug("new ephemeris", "prn", eph.PRN, "toe", eph.Toe, "iodc", eph.IODC)
	if err := s.encoder.WriteEphemeris(eph, pages); err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}
	return nil
}

// processAlmanac passes a subframe 4 or 5 to the store for its satellite
// and signal and writes the almanac whenever the store is ready.
func (s *Session) processAlmanac(sf *subframe.Subframe) error {
	if !sf.ValidHOWTime() {
		s.Stats.AlmanacPagesDropped++
		return nil
	}

	store, err := s.stores.StoreFor(sf)
	if err != nil {
		return err
	}

	if err := store.Ingest(sf); err != nil {
		s.Stats.AlmanacPagesDropped++
		s.logger.Debug("almanac page dropped", "prn", sf.PRN, "error", err)
		return nil
	}
	s.Stats.noteTransmitTime(sf.TransmitTime())

	if !store.Ready() {
		return nil
	}

	rec := store.Flush()
	s.Stats.AlmanacFlushes++
	if err := s.encoder.WriteAlmanac(rec); err != nil {
		return fmt.Errorf("%w: %w", ErrOutput, err)
	}
	return nil
}
