package driver

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/goblimey/go-tools/switchwriter"
	"github.com/google/go-cmp/cmp"

	"github.com/goblimey/go-mdp/mdp/handler"
	"github.com/goblimey/go-mdp/mdp/obsepoch"
	"github.com/goblimey/go-mdp/nav/almanac"
	"github.com/goblimey/go-mdp/nav/ephemeris"
	"github.com/goblimey/go-mdp/nav/navtest"
	"github.com/goblimey/go-mdp/nav/subframe"
)

var logger = slog.New(slog.NewTextHandler(switchwriter.New(), nil))

// errFault is a simulated input or output failure.
var errFault = errors.New("simulated fault")

// recorder is an encoder that keeps what it's given.
type recorder struct {
	headers     int
	ephemerides []*ephemeris.Ephemeris
	pages       []ephemeris.PageSet
	almanacs    []*almanac.Record
	// failHeader and failWrite make the calls fail.
	failHeader bool
	failWrite  bool
}

func (r *recorder) WriteHeader() error {
	if r.failHeader {
		return errFault
	}
	r.headers++
	return nil
}

func (r *recorder) WriteEphemeris(eph *ephemeris.Ephemeris, pages ephemeris.PageSet) error {
	if r.failWrite {
		return errFault
	}
	r.ephemerides = append(r.ephemerides, eph)
	r.pages = append(r.pages, pages)
	return nil
}

func (r *recorder) WriteAlmanac(rec *almanac.Record) error {
	if r.failWrite {
		return errFault
	}
	r.almanacs = append(r.almanacs, rec)
	return nil
}

func (r *recorder) Close() error { return nil }

// sliceSource supplies the given messages and then the given error.
type sliceSource struct {
	messages []*handler.Message
	err      error
}

func (s *sliceSource) ReadNextMessage() (*handler.Message, error) {
	if len(s.messages) == 0 {
		return nil, s.err
	}
	m := s.messages[0]
	s.messages = s.messages[1:]
	return m, nil
}

// navMessage wraps a subframe in a message.
func navMessage(t *testing.T, sf *subframe.Subframe) *handler.Message {
	t.Helper()
	m, err := handler.GetMessage(handler.EncodeNavSubframe(sf, 0), slog.LevelInfo)
	if err != nil {
		t.Fatal(err)
	}
	if m.Kind != handler.KindNavSubframe {
		t.Fatalf("want a navigation subframe message got %s", m.Kind)
	}
	return m
}

// newSession creates a session writing to a recorder.
func newSession(t *testing.T) (*Session, *recorder) {
	t.Helper()
	enc := &recorder{}
	session, err := NewSession(subframe.L1CA, enc, logger)
	if err != nil {
		t.Fatal(err)
	}
	return session, enc
}

// TestEndToEnd runs thirty navigation subframe records, ten each of
// subframes 1, 2 and 3 of one broadcast, through the whole input chain.
// The result is one log entry seen ten times and one emission.
func TestEndToEnd(t *testing.T) {
	eph := navtest.DefaultEphemeris(7, 1254, 21600, 0x2a)

	var input bytes.Buffer
	for sfid := 1; sfid <= 3; sfid++ {
		for i := 0; i < 10; i++ {
			input.Write(handler.EncodeNavSubframe(eph.Subframe(sfid), uint16(i)))
		}
	}

	session, enc := newSession(t)
	if session.State() != Init {
		t.Errorf("want state init got %s", session.State())
	}

	result := session.Run(handler.New(&input, slog.LevelInfo))

	if result.Termination != EndOfInput || result.Err != nil {
		t.Errorf("want end of input got %s %v", result.Termination, result.Err)
	}
	if session.State() != Done {
		t.Errorf("want state done got %s", session.State())
	}
	if enc.headers != 1 {
		t.Errorf("want 1 header got %d", enc.headers)
	}
	if len(enc.ephemerides) != 1 {
		t.Fatalf("want 1 emission got %d", len(enc.ephemerides))
	}
	if !enc.pages[0].Complete() {
		t.Error("the emitted pages should be complete")
	}

	log := session.EphemerisLog()
	sl, ok := log.Satellite(7)
	if !ok {
		t.Fatal("no log for PRN 7")
	}
	if sl.Len() != 1 {
		t.Fatalf("want 1 entry got %d", sl.Len())
	}
	entry := sl.ByTime()[0]
	if entry.Count != 10 {
		t.Errorf("want count 10 got %d", entry.Count)
	}
	if entry.Ephemeris.Toe != 21600 || entry.Ephemeris.IODC != 0x2a {
		t.Errorf("wrong ephemeris\n%s", entry.Ephemeris.String())
	}

	stats := session.Stats
	want := Stats{
		SubframesProcessed:    30,
		ParitySuccesses:       30,
		EphemeridesDecoded:    10,
		EphemeridesEmitted:    1,
		EphemeridesSuppressed: 9,
		Earliest:              eph.Subframe(1).TransmitTime(),
		Latest:                eph.Subframe(3).TransmitTime(),
	}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

// TestTermination checks that end of input and an input fault both stop
// the run in order, that they can be told apart and that the statistics
// count exactly the records read before the end.
func TestTermination(t *testing.T) {
	eph := navtest.DefaultEphemeris(7, 1254, 21600, 0x2a)

	var testData = []struct {
		description string
		err         error
		want        Termination
	}{
		{"end of input", io.EOF, EndOfInput},
		{"input fault", errFault, InputFault},
	}

	for _, td := range testData {
		src := sliceSource{
			messages: []*handler.Message{
				navMessage(t, eph.Subframe(1)),
				navMessage(t, eph.Subframe(2)),
				handler.NewNonMDP([]byte("junk"), slog.LevelInfo),
			},
			err: td.err,
		}
		session, _ := newSession(t)
		result := session.Run(&src)
		if result.Termination != td.want {
			t.Errorf("%s: want %s got %s", td.description, td.want, result.Termination)
		}
		if td.want == InputFault && !errors.Is(result.Err, errFault) {
			t.Errorf("%s: want the fault got %v", td.description, result.Err)
		}
		if session.Stats.SubframesProcessed != 2 || session.Stats.NonMDP != 1 {
			t.Errorf("%s: wrong stats %+v", td.description, session.Stats)
		}
	}
}

// TestReaderFault checks that a reader failure part way through the input
// reaches the driver as an input fault after the data before it has been
// processed.
func TestReaderFault(t *testing.T) {
	eph := navtest.DefaultEphemeris(7, 1254, 21600, 0x2a)
	data := append(handler.EncodeNavSubframe(eph.Subframe(1), 0),
		handler.EncodeNavSubframe(eph.Subframe(2), 1)...)

	session, _ := newSession(t)
	result := session.Run(handler.New(&faultyReader{data: data}, slog.LevelInfo))

	if result.Termination != InputFault {
		t.Errorf("want input fault got %s", result.Termination)
	}
	if session.Stats.ParitySuccesses != 2 {
		t.Errorf("want 2 subframes got %d", session.Stats.ParitySuccesses)
	}
}

// faultyReader returns its data and then fails.
type faultyReader struct {
	data []byte
}

func (r *faultyReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, errFault
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

// TestDrops checks the counting of subframes that are not processed.
func TestDrops(t *testing.T) {
	eph := navtest.DefaultEphemeris(7, 1254, 21600, 0x2a)
	sf1 := eph.Subframe(1)

	l2 := subframe.SignalKey{Range: subframe.RangeCM, Carrier: subframe.CarrierL2}
	wrongSignal := subframe.New(7, l2, 0, sf1.Words, sf1.Week, sf1.MillisOfWeek)

	badID := subframe.New(7, subframe.L1CA, 0, navtest.NewFrame(7, 1000).Words(), 1254, 6000000)

	corrupt := subframe.New(7, subframe.L1CA, 0, navtest.Corrupt(sf1.Words, 4, 12), sf1.Week, sf1.MillisOfWeek)

	epoch := obsepoch.Epoch{SVs: []obsepoch.SV{{Channel: 1, PRN: 7, Observations: 2, Elevation: 45, Azimuth: 90}}}
	obs, err := handler.GetMessage(handler.EncodeObsEpoch(1254, 6000000, 0, &epoch), slog.LevelInfo)
	if err != nil {
		t.Fatal(err)
	}

	src := sliceSource{
		messages: []*handler.Message{
			navMessage(t, wrongSignal),
			navMessage(t, badID),
			navMessage(t, corrupt),
			obs,
			// The corrupt page 1 was not stored, so these never complete.
			navMessage(t, eph.Subframe(2)),
			navMessage(t, eph.Subframe(3)),
		},
		err: io.EOF,
	}

	session, enc := newSession(t)
	session.Run(&src)

	want := Stats{
		SubframesProcessed: 3,
		ParitySuccesses:    2,
		ParityFailures:     1,
		ObsEpochs:          1,
		WrongSignal:        1,
		InvalidID:          1,
		Earliest:           eph.Subframe(2).TransmitTime(),
		Latest:             eph.Subframe(3).TransmitTime(),
	}
	if diff := cmp.Diff(want, session.Stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
	if len(enc.ephemerides) != 0 {
		t.Error("nothing should be emitted")
	}
	if pc := session.Stats.PercentFailing(); pc < 33.33 || pc > 33.34 {
		t.Errorf("want 33.33%% failing got %f", pc)
	}
}

// TestAlmanac checks that an almanac is written when the last page of the
// cycle arrives and again on every page after that.
func TestAlmanac(t *testing.T) {
	var messages []*handler.Message
	for _, sf := range navtest.AlmanacCycle(3, 1254, 0) {
		messages = append(messages, navMessage(t, sf))
	}
	messages = append(messages, navMessage(t, navtest.AlmanacSubframe(3, 1254, 1, 4, 1)))

	session, enc := newSession(t)
	result := session.Run(&sliceSource{messages: messages, err: io.EOF})
	if result.Termination != EndOfInput {
		t.Errorf("want end of input got %s", result.Termination)
	}

	if len(enc.almanacs) != 2 {
		t.Fatalf("want 2 almanacs got %d", len(enc.almanacs))
	}
	if session.Stats.AlmanacFlushes != 2 {
		t.Errorf("want 2 flushes got %d", session.Stats.AlmanacFlushes)
	}
	if enc.almanacs[0].Index.PRN != 3 {
		t.Errorf("want PRN 3 got %d", enc.almanacs[0].Index.PRN)
	}
	if session.Stats.SubframesProcessed != subframe.AlmanacPageCount+1 {
		t.Errorf("want %d subframes got %d", subframe.AlmanacPageCount+1, session.Stats.SubframesProcessed)
	}
}

// TestOutputFault checks that a write failure stops the run.
func TestOutputFault(t *testing.T) {
	eph := navtest.DefaultEphemeris(7, 1254, 21600, 0x2a)
	src := sliceSource{
		messages: []*handler.Message{
			navMessage(t, eph.Subframe(1)),
			navMessage(t, eph.Subframe(2)),
			navMessage(t, eph.Subframe(3)),
			navMessage(t, eph.Subframe(1)),
		},
		err: io.EOF,
	}
	session, enc := newSession(t)
	enc.failWrite = true

	result := session.Run(&src)
	if result.Termination != OutputFault {
		t.Errorf("want output fault got %s", result.Termination)
	}
	if !errors.Is(result.Err, ErrOutput) || !errors.Is(result.Err, errFault) {
		t.Errorf("want the output fault got %v", result.Err)
	}
	if session.Stats.SubframesProcessed != 3 {
		t.Errorf("the run should stop after 3 subframes, got %d", session.Stats.SubframesProcessed)
	}
}

// TestHeaderFault checks that a session is not created if the header
// can't be written.
func TestHeaderFault(t *testing.T) {
	_, err := NewSession(subframe.L1CA, &recorder{failHeader: true}, logger)
	if !errors.Is(err, ErrOutput) {
		t.Errorf("want ErrOutput got %v", err)
	}
}

// TestRunTwice checks that a session only runs once.
func TestRunTwice(t *testing.T) {
	session, _ := newSession(t)
	session.Run(&sliceSource{err: io.EOF})
	result := session.Run(&sliceSource{err: io.EOF})
	if !errors.Is(result.Err, ErrSessionDone) {
		t.Errorf("want ErrSessionDone got %v", result.Err)
	}
}

// TestPercentFailing checks the percentage when nothing was processed.
func TestPercentFailing(t *testing.T) {
	var stats Stats
	if stats.PercentFailing() != 0 {
		t.Errorf("want 0 got %f", stats.PercentFailing())
	}
	stats = Stats{SubframesProcessed: 8, ParityFailures: 2}
	if stats.PercentFailing() != 25 {
		t.Errorf("want 25 got %f", stats.PercentFailing())
	}
}
