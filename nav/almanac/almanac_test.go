package almanac

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/goblimey/go-tools/switchwriter"

	"github.com/goblimey/go-mdp/mdp/utils"
	"github.com/goblimey/go-mdp/nav/navtest"
	"github.com/goblimey/go-mdp/nav/subframe"
)

var logger = slog.New(slog.NewTextHandler(switchwriter.New(), nil))

// TestReady checks that the store becomes ready exactly when the last
// missing page arrives, and stays ready after a flush.
func TestReady(t *testing.T) {
	pages := navtest.AlmanacCycle(4, 1254, 0)
	store := NewStore(pages[0].Index())

	// Hold back subframe 5 page 10 until the end.  Send a few pages twice.
	var last *subframe.Subframe
	for i, sf := range pages {
		if sf.SFID() == 5 && sf.AlmanacPage() == 10 {
			last = sf
			continue
		}
		if err := store.Ingest(sf); err != nil {
			t.Fatal(err)
		}
		if i%7 == 0 {
			store.Ingest(sf)
		}
		if store.Ready() {
			t.Fatalf("ready after %d pages", store.Filled())
		}
		if store.Flush() != nil {
			t.Fatal("flush should return nil before the store is ready")
		}
	}

	if store.Filled() != subframe.AlmanacPageCount-1 {
		t.Errorf("want %d slots filled got %d", subframe.AlmanacPageCount-1, store.Filled())
	}

	if err := store.Ingest(last); err != nil {
		t.Fatal(err)
	}
	if !store.Ready() {
		t.Fatal("not ready after the last page")
	}

	first := store.Flush()
	if first == nil {
		t.Fatal("flush returned nil")
	}
	if !store.Ready() {
		t.Error("flush should not make the store unready")
	}
	second := store.Flush()
	if second == nil {
		t.Fatal("second flush returned nil")
	}
	if len(second.Satellites) != len(first.Satellites) {
		t.Error("the second flush should give the same record")
	}
}

// TestNextCycle checks that pages from the next cycle overwrite the slots
// and that the store stays ready.
func TestNextCycle(t *testing.T) {
	store := NewStore(subframe.NavIndex{Signal: subframe.L1CA, PRN: 4})
	for _, sf := range navtest.AlmanacCycle(4, 1254, 0) {
		store.Ingest(sf)
	}
	for _, sf := range navtest.AlmanacCycle(4, 1254, 1) {
		if err := store.Ingest(sf); err != nil {
			t.Fatal(err)
		}
		if !store.Ready() {
			t.Fatal("the store should stay ready")
		}
	}
	if store.Filled() != subframe.AlmanacPageCount {
		t.Errorf("want %d got %d", subframe.AlmanacPageCount, store.Filled())
	}
	want := subframe.AlmanacTOWCount(1, 5, 3)
	if got := store.Page(5, 3).TOWCount(); got != want {
		t.Errorf("want the page from the second cycle (TOW count %d) got %d", want, got)
	}
}

// TestIngestErrors checks that subframes that don't belong in the store are
// refused.
func TestIngestErrors(t *testing.T) {
	eph := navtest.DefaultEphemeris(4, 1254, 21600, 0x2a)
	beyondWeek := navtest.NewFrame(4, utils.SecondsPerWeek/6+1)
	late := subframe.New(4, subframe.L1CA, 0, beyondWeek.Words(), 1254, 0)

	var testData = []struct {
		description string
		sf          *subframe.Subframe
		want        error
	}{
		{"subframe 1", eph.Subframe(1), ErrNotAlmanac},
		{"subframe 3", eph.Subframe(3), ErrNotAlmanac},
		{"HOW beyond the week", late, ErrInvalidHOW},
	}

	for _, td := range testData {
		store := NewStore(td.sf.Index())
		err := store.Ingest(td.sf)
		if !errors.Is(err, td.want) {
			t.Errorf("%s: want %v got %v", td.description, td.want, err)
		}
		if store.Filled() != 0 {
			t.Errorf("%s: no slot should be filled", td.description)
		}
	}
}

// TestPage checks the page lookup.
func TestPage(t *testing.T) {
	store := NewStore(subframe.NavIndex{Signal: subframe.L1CA, PRN: 4})
	sf := navtest.AlmanacSubframe(4, 1254, 0, 4, 18)
	if err := store.Ingest(sf); err != nil {
		t.Fatal(err)
	}
	if store.Page(4, 18) != sf {
		t.Error("page 18 of subframe 4 not found")
	}
	if store.Page(5, 18) != nil {
		t.Error("page 18 of subframe 5 should be empty")
	}
	if store.Page(3, 1) != nil || store.Page(4, 0) != nil || store.Page(4, 26) != nil {
		t.Error("out of range pages should be nil")
	}
}

// TestFlushRecord checks the decoded almanac.
func TestFlushRecord(t *testing.T) {
	store := NewStore(subframe.NavIndex{Signal: subframe.L1CA, PRN: 4})
	for _, sf := range navtest.AlmanacCycle(4, 1254, 0) {
		store.Ingest(sf)
	}
	rec := store.Flush()
	if rec == nil {
		t.Fatal("not ready")
	}

	if rec.Week != 1254 {
		t.Errorf("want week 1254 got %d", rec.Week)
	}
	if rec.Toa != 144*4096 {
		t.Errorf("want toa %d got %d", 144*4096, rec.Toa)
	}
	if len(rec.Satellites) != subframe.MaxAlmanacSVID {
		t.Fatalf("want %d satellites got %d", subframe.MaxAlmanacSVID, len(rec.Satellites))
	}
	for i, sat := range rec.Satellites {
		if sat.SVID != i+1 {
			t.Errorf("position %d: want SV %d got %d", i, i+1, sat.SVID)
		}
	}
	for i, c := range rec.Config {
		if c != 1 {
			t.Errorf("SV %d: want config 1 got %d", i+1, c)
		}
	}
	if rec.Pages[0] == nil || rec.Pages[subframe.AlmanacPageCount-1] == nil {
		t.Error("the record should carry its pages")
	}

	raw := navtest.DefaultAlmanacSatellite(28)
	got, ok := rec.Satellite(28)
	if !ok {
		t.Fatal("no almanac for SV 28")
	}

	floatFields := []struct {
		name string
		want float64
		got  float64
	}{
		{"e", float64(raw.E) * utils.P2_21, got.E},
		{"sqrtA", float64(raw.SqrtA) * utils.P2_11, got.SqrtA},
		{"deltaI", float64(raw.DeltaI) * utils.P2_19 * utils.SC2RAD, got.DeltaI},
		{"omegaDot", float64(raw.OmegaDot) * utils.P2_38 * utils.SC2RAD, got.OmegaDot},
		{"omega0", float64(raw.Omega0) * utils.P2_23 * utils.SC2RAD, got.Omega0},
		{"omega", float64(raw.Omega) * utils.P2_23 * utils.SC2RAD, got.Omega},
		{"M0", float64(raw.M0) * utils.P2_23 * utils.SC2RAD, got.M0},
		{"af0", float64(raw.Af0) * utils.P2_20, got.Af0},
		{"af1", float64(raw.Af1) * utils.P2_38, got.Af1},
	}
	for _, f := range floatFields {
		if f.want != f.got {
			t.Errorf("%s: want %g got %g", f.name, f.want, f.got)
		}
	}
	if got.Toa != 144*4096 {
		t.Errorf("want toa %d got %d", 144*4096, got.Toa)
	}
	if !utils.EqualWithin(1, 5153.7, got.SqrtA) {
		t.Errorf("want sqrtA about 5153.7 got %f", got.SqrtA)
	}
	if !utils.EqualWithin(9, 0.3*utils.SC2RAD+got.DeltaI, got.I0) {
		t.Errorf("i0 %f doesn't include the reference inclination", got.I0)
	}

	if _, ok := rec.Satellite(33); ok {
		t.Error("there should be no SV 33")
	}
}

// TestFullAlmanacWeek checks the resolution of the 8-bit almanac week.
func TestFullAlmanacWeek(t *testing.T) {
	var testData = []struct {
		description string
		wna         int
		reference   int
		want        int
	}{
		{"same week", 1254 % 256, 1254, 1254},
		{"previous week", 1253 % 256, 1254, 1253},
		{"next week across the rollover", 0, 1279, 1280},
		{"previous week across the rollover", 255, 1280, 1279},
	}
	for _, td := range testData {
		got := fullAlmanacWeek(td.wna, td.reference)
		if got != td.want {
			t.Errorf("%s: want %d got %d", td.description, td.want, got)
		}
	}
}

// TestStoreFor checks that a store is created on first sight of a
// satellite and signal and found again after that.
func TestStoreFor(t *testing.T) {
	stores := NewStores(logger)

	sf4 := navtest.AlmanacSubframe(4, 1254, 0, 4, 2)
	sf9 := navtest.AlmanacSubframe(9, 1254, 0, 4, 2)

	s1, err := stores.StoreFor(sf4)
	if err != nil {
		t.Fatal(err)
	}
	s2, err := stores.StoreFor(navtest.AlmanacSubframe(4, 1254, 0, 5, 7))
	if err != nil {
		t.Fatal(err)
	}
	if s1 != s2 {
		t.Error("want the same store for the same satellite")
	}
	s3, err := stores.StoreFor(sf9)
	if err != nil {
		t.Fatal(err)
	}
	if s3 == s1 {
		t.Error("want a different store for a different satellite")
	}
	if stores.Len() != 2 {
		t.Errorf("want 2 stores got %d", stores.Len())
	}
	if s3.Index.PRN != 9 {
		t.Errorf("want PRN 9 got %d", s3.Index.PRN)
	}
}
