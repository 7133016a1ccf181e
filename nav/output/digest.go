package output

import (
	"encoding/binary"
	"fmt"

	"github.com/de-bkg/gognss/pkg/gnss"
	"github.com/zeebo/xxh3"

	"github.com/goblimey/go-mdp/nav/ephemeris"
	"github.com/goblimey/go-mdp/nav/subframe"
)

// Digest returns the xxh3 hash of the given words, each taken as four
// bytes big endian, in hex.  Two outputs holding the same raw pages have
// the same digest.
func Digest(words []uint32) string {
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint32(buf[i*4:], w)
	}
	return fmt.Sprintf("%016x", xxh3.Hash(buf))
}

// pageSetWords returns the thirty words of an ephemeris page set.
func pageSetWords(pages ephemeris.PageSet) []uint32 {
	words := pages.Words()
	return words[:]
}

// subframeWords returns the words of a subframe, or nil.
func subframeWords(sf *subframe.Subframe) []uint32 {
	if sf == nil {
		return nil
	}
	return sf.Words[:]
}

// satelliteName gives the satellite name, for example "G05".
func satelliteName(prn int) string {
	return fmt.Sprintf("%s%02d", gnss.SysGPS.Abbr(), prn)
}

// hexWords gives the words as eight digit hex strings.
func hexWords(words []uint32) []string {
	display := make([]string, len(words))
	for i, w := range words {
		display[i] = fmt.Sprintf("%08x", w)
	}
	return display
}
