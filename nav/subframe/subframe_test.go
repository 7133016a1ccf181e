package subframe

import (
	"strings"
	"testing"
	"time"
)

// howWords is a TLM and a HOW for subframe 1 with TOW count 100, followed by
// eight words of data, with parity.  Words 2, 3 and 4 end with D30 set so
// the data bits of words 3, 4 and 5 are complemented on the wire.
var howWords = [WordsPerSubframe]uint32{
	0x22d23434, 0x000c811d, 0x3b72ea57, 0x150c8419, 0x3fffffd6,
	0x3fffffea, 0x169696a0, 0x2969694a, 0x03c3c3df, 0x03c3c3ca,
}

// TestNew checks that New strips everything above the bottom 30 bits.
func TestNew(t *testing.T) {
	words := howWords
	words[3] |= 0xc0000000
	sf := New(5, L1CA, 0, words, 1254, 600000)
	if sf.Words[3] != howWords[3] {
		t.Errorf("want 0x%08x got 0x%08x", howWords[3], sf.Words[3])
	}
	if sf.Index() != (NavIndex{Signal: L1CA, PRN: 5}) {
		t.Errorf("wrong index %s", sf.Index().String())
	}
}

// TestHOWFields checks the fields taken from the handover word.
func TestHOWFields(t *testing.T) {
	sf := New(5, L1CA, 0, howWords, 1254, 600000)

	if sf.SFID() != 1 {
		t.Errorf("want subframe 1 got %d", sf.SFID())
	}
	if sf.TOWCount() != 100 {
		t.Errorf("want TOW count 100 got %d", sf.TOWCount())
	}
	if sf.HOWTime() != 600 {
		t.Errorf("want HOW time 600 got %d", sf.HOWTime())
	}
	if !sf.ValidHOWTime() {
		t.Error("HOW time should be valid")
	}
	if sf.Inverted() {
		t.Error("subframe should not be inverted")
	}

	wantTransmit := time.Date(2004, time.January, 18, 0, 9, 54, 0, time.UTC)
	if !wantTransmit.Equal(sf.TransmitTime()) {
		t.Errorf("want transmit time %s got %s", wantTransmit, sf.TransmitTime())
	}

	wantReceive := time.Date(2004, time.January, 18, 0, 10, 0, 0, time.UTC)
	if !wantReceive.Equal(sf.ReceiveTime()) {
		t.Errorf("want receive time %s got %s", wantReceive, sf.ReceiveTime())
	}
}

// TestDataBits checks that the data bits come out with the polarity
// corrected.
func TestDataBits(t *testing.T) {
	sf := New(5, L1CA, 0, howWords, 1254, 0)
	got := sf.DataBits()
	want := [30]byte{
		0x8b, 0x48, 0xd0, 0x00, 0x32, 0x04, 0x12, 0x34, 0x56, 0xab,
		0xcd, 0xef, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff, 0x5a, 0x5a,
		0x5a, 0xa5, 0xa5, 0xa5, 0x0f, 0x0f, 0x0f, 0xf0, 0xf0, 0xf0,
	}
	if got != want {
		t.Errorf("want\n%x\ngot\n%x", want, got)
	}
}

// TestInverted checks that an upside down subframe gives the same data.
func TestInverted(t *testing.T) {
	var inverted [WordsPerSubframe]uint32
	for i, w := range howWords {
		inverted[i] = ^w & wordMask
	}
	sf := New(5, L1CA, 0, inverted, 1254, 0)
	if !sf.Inverted() {
		t.Error("subframe should be inverted")
	}
	if sf.SFID() != 1 || sf.TOWCount() != 100 {
		t.Errorf("want subframe 1, TOW 100, got %d, %d", sf.SFID(), sf.TOWCount())
	}
	straight := New(5, L1CA, 0, howWords, 1254, 0)
	if sf.DataBits() != straight.DataBits() {
		t.Error("inverted subframe should give the same data bits")
	}
}

// TestAlmanacPage checks the page number derived from the TOW count.
func TestAlmanacPage(t *testing.T) {

	var testData = []struct {
		description string
		cycle       int
		sfid        int
		page        int
	}{
		{"start of week", 0, 4, 1},
		{"subframe 5 page 1", 0, 5, 1},
		{"page 2", 0, 4, 2},
		{"last page", 0, 5, 25},
		{"second cycle", 1, 4, 1},
		{"late in the week", 800, 5, 13},
	}

	for _, td := range testData {
		towCount := AlmanacTOWCount(td.cycle, td.sfid, td.page)
		// Put the TOW count and the subframe id into the HOW data bits.
		how := uint32(towCount)<<7 | uint32(td.sfid)<<2
		sf := Subframe{}
		sf.Words[1] = how << 6
		if sf.SFID() != td.sfid {
			t.Errorf("%s: want subframe %d got %d", td.description, td.sfid, sf.SFID())
		}
		got := sf.AlmanacPage()
		if got != td.page {
			t.Errorf("%s: want page %d got %d", td.description, td.page, got)
		}
	}
}

// TestPageSVID checks the page to SV id mapping.
func TestPageSVID(t *testing.T) {

	var testData = []struct {
		sfid int
		page int
		want int
	}{
		{4, 1, SVIDReserved},
		{4, 2, 25},
		{4, 5, 28},
		{4, 7, 29},
		{4, 10, 32},
		{4, 13, SVIDSpecial52},
		{4, 17, SVIDSpecial55},
		{4, 18, SVIDUTC},
		{4, 25, SVIDHealth4},
		{5, 1, 1},
		{5, 24, 24},
		{5, 25, SVIDHealth5},
		{3, 1, 0},
		{5, 0, 0},
		{5, 26, 0},
	}

	for _, td := range testData {
		got := PageSVID(td.sfid, td.page)
		if got != td.want {
			t.Errorf("subframe %d page %d: want %d got %d", td.sfid, td.page, td.want, got)
		}
	}
}

// TestCodeNames checks the names of the range and carrier codes.
func TestCodeNames(t *testing.T) {
	if L1CA.String() != "C/A/L1" {
		t.Errorf("want C/A/L1 got %s", L1CA.String())
	}
	if RangeCode(42).String() != "range code 42" {
		t.Errorf("want range code 42 got %s", RangeCode(42).String())
	}
	if CarrierCode(7).String() != "carrier 7" {
		t.Errorf("want carrier 7 got %s", CarrierCode(7).String())
	}
	sk := SignalKey{Range: RangeP, Carrier: CarrierL2}
	if sk == L1CA {
		t.Error("P/L2 should not match C/A/L1")
	}
}

// TestString checks the readable version of a subframe.
func TestString(t *testing.T) {
	sf := New(5, L1CA, 0, howWords, 1254, 0)
	got := sf.String()
	if !strings.HasPrefix(got, "PRN 05 C/A/L1 subframe 1, HOW 600, week 1254\n") {
		t.Errorf("unexpected display:\n%s", got)
	}
	if !strings.Contains(got, " 22d23434") {
		t.Errorf("want the words in the display:\n%s", got)
	}
}
