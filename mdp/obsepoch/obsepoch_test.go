package obsepoch

import (
	"testing"

	"github.com/kylelemons/godebug/diff"
)

// TestParse checks that an epoch is decoded from its binary form.
func TestParse(t *testing.T) {
	body := []byte{
		2, 0,
		1, 5, 0x81, 3, 0x0f, 0xa0, 0x46, 0x50, // el 40.00, az 180.00
		2, 12, 0x01, 1, 0xff, 0x38, 0x00, 0x64, // el -2.00, az 1.00
	}

	got, err := Parse(body)
	if err != nil {
		t.Fatal(err)
	}

	want := []SV{
		{Channel: 1, PRN: 5, Status: 0x81, Observations: 3, Elevation: 40, Azimuth: 180},
		{Channel: 2, PRN: 12, Status: 1, Observations: 1, Elevation: -2, Azimuth: 1},
	}

	if len(got.SVs) != len(want) {
		t.Fatalf("want %d SVs got %d", len(want), len(got.SVs))
	}
	for i := range want {
		if got.SVs[i] != want[i] {
			t.Errorf("SV %d: want %v got %v", i, want[i], got.SVs[i])
		}
	}

	// Encoding gives the original bytes back.
	if string(got.Encode()) != string(body) {
		t.Errorf("want %x got %x", body, got.Encode())
	}
}

// TestParseErrors checks that short bodies are rejected.
func TestParseErrors(t *testing.T) {

	var testData = []struct {
		description string
		body        []byte
		want        string
	}{
		{"empty", []byte{}, "observation epoch body is 0 bytes, too short"},
		{"truncated", []byte{2, 0, 1, 2, 3, 4, 5, 6, 7, 8},
			"observation epoch with 2 SVs needs 18 bytes, got 10"},
	}

	for _, td := range testData {
		_, err := Parse(td.body)
		if err == nil {
			t.Errorf("%s: expected an error", td.description)
			continue
		}
		if err.Error() != td.want {
			t.Errorf("%s: want %s got %s", td.description, td.want, err.Error())
		}
	}
}

// TestEmpty checks an epoch with no satellites.
func TestEmpty(t *testing.T) {
	epoch := Epoch{}
	buf := epoch.Encode()
	if len(buf) != 2 {
		t.Fatalf("want 2 bytes got %d", len(buf))
	}
	got, err := Parse(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.SVs) != 0 {
		t.Errorf("want no SVs got %d", len(got.SVs))
	}
}

// TestString checks the readable version.
func TestString(t *testing.T) {
	const want = `1 SVs
channel  1 PRN 05 status 0x81 obs 3 el  40.00 az 180.25
`
	epoch := Epoch{SVs: []SV{{Channel: 1, PRN: 5, Status: 0x81, Observations: 3, Elevation: 40, Azimuth: 180.25}}}
	got := epoch.String()
	if got != want {
		t.Error(diff.Diff(want, got))
	}
}
