// The obsepoch package handles the body of an MDP observation epoch record
// (record id 300).  The converter only counts these records, but the display
// tool shows them.
//
// The body is a two byte leader followed by eight bytes per satellite:
//
//	number of SVs  uint8
//	reserved       uint8
//	then for each SV:
//	  channel      uint8
//	  PRN          uint8
//	  status       uint8
//	  observations uint8
//	  elevation    int16, hundredths of a degree
//	  azimuth      uint16, hundredths of a degree
package obsepoch

import (
	"encoding/binary"
	"fmt"
)

const leaderLength = 2
const svLength = 8

// SV holds the observation summary for one satellite.
type SV struct {
	Channel      int
	PRN          int
	Status       int
	Observations int
	Elevation    float64 // degrees
	Azimuth      float64 // degrees
}

// Epoch holds the body of an observation epoch record.
type Epoch struct {
	SVs []SV
}

// BodyLength returns the length of the body of an epoch with the given
// number of satellites.
func BodyLength(numSVs int) int {
	return leaderLength + numSVs*svLength
}

// Parse gets the epoch from the bytes that follow the header.
func Parse(body []byte) (*Epoch, error) {
	if len(body) < leaderLength {
		return nil, fmt.Errorf("observation epoch body is %d bytes, too short", len(body))
	}

	numSVs := int(body[0])
	if len(body) < BodyLength(numSVs) {
		return nil, fmt.Errorf("observation epoch with %d SVs needs %d bytes, got %d",
			numSVs, BodyLength(numSVs), len(body))
	}

	epoch := Epoch{SVs: make([]SV, 0, numSVs)}
	for i := 0; i < numSVs; i++ {
		b := body[leaderLength+i*svLength:]
		sv := SV{
			Channel:      int(b[0]),
			PRN:          int(b[1]),
			Status:       int(b[2]),
			Observations: int(b[3]),
			Elevation:    float64(int16(binary.BigEndian.Uint16(b[4:]))) / 100.0,
			Azimuth:      float64(binary.BigEndian.Uint16(b[6:])) / 100.0,
		}
		epoch.SVs = append(epoch.SVs, sv)
	}

	return &epoch, nil
}

// Encode returns the epoch in its binary form.  Angles are rounded to the
// nearest hundredth of a degree.
func (epoch *Epoch) Encode() []byte {
	buf := make([]byte, BodyLength(len(epoch.SVs)))
	buf[0] = byte(len(epoch.SVs))
	for i, sv := range epoch.SVs {
		b := buf[leaderLength+i*svLength:]
		b[0] = byte(sv.Channel)
		b[1] = byte(sv.PRN)
		b[2] = byte(sv.Status)
		b[3] = byte(sv.Observations)
		binary.BigEndian.PutUint16(b[4:], uint16(int16(roundHundredths(sv.Elevation))))
		binary.BigEndian.PutUint16(b[6:], uint16(roundHundredths(sv.Azimuth)))
	}
	return buf
}

func roundHundredths(degrees float64) int {
	if degrees < 0 {
		return int(degrees*100.0 - 0.5)
	}
	return int(degrees*100.0 + 0.5)
}

// String returns a readable version of the epoch.
func (epoch *Epoch) String() string {
	display := fmt.Sprintf("%d SVs\n", len(epoch.SVs))
	for _, sv := range epoch.SVs {
		display += fmt.Sprintf("channel %2d PRN %02d status 0x%02x obs %d el %6.2f az %6.2f\n",
			sv.Channel, sv.PRN, sv.Status, sv.Observations, sv.Elevation, sv.Azimuth)
	}
	return display
}
