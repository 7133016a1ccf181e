// Package navtest builds synthetic GPS navigation subframes, with correct
// parity, for tests.
//
// Fields are set by their position in the 240 data bits of the subframe,
// the same positions that the decoders read.  The TLM is bits 0-23 and the
// HOW is bits 24-47.
package navtest

import (
	"github.com/goblimey/go-mdp/nav/parity"
	"github.com/goblimey/go-mdp/nav/subframe"
)

// Frame holds the 240 source data bits of one subframe.
type Frame struct {
	bits [30]byte
}

// NewFrame creates a frame with a TLM and a HOW carrying the given subframe
// id and TOW count.
func NewFrame(sfid, towCount int) *Frame {
	var f Frame
	f.SetUint(0, 8, subframe.Preamble)
	f.SetUint(24, 17, uint64(towCount))
	f.SetUint(43, 3, uint64(sfid))
	return &f
}

// SetUint sets the field of the given length at the given bit position to
// the bottom bits of v.
func (f *Frame) SetUint(pos, length uint, v uint64) {
	for i := uint(0); i < length; i++ {
		p := pos + i
		mask := byte(0x80 >> (p % 8))
		if (v>>(length-1-i))&1 == 1 {
			f.bits[p/8] |= mask
		} else {
			f.bits[p/8] &^= mask
		}
	}
}

// SetInt sets a two's complement field.
func (f *Frame) SetInt(pos, length uint, v int64) {
	f.SetUint(pos, length, uint64(v))
}

// Data returns the 24 data bits of each word.
func (f *Frame) Data() [subframe.WordsPerSubframe]uint32 {
	var data [subframe.WordsPerSubframe]uint32
	for i := range data {
		data[i] = uint32(f.bits[i*3])<<16 | uint32(f.bits[i*3+1])<<8 | uint32(f.bits[i*3+2])
	}
	return data
}

// Words returns the ten transmitted words, each with its parity and with
// the data bits complemented where the previous word ends in a 1.
func (f *Frame) Words() [subframe.WordsPerSubframe]uint32 {
	var words [subframe.WordsPerSubframe]uint32
	var prev uint32
	for i, d := range f.Data() {
		words[i] = parity.Encode(d, prev)
		prev = words[i] & 3
	}
	return words
}

// Invert returns the words as a receiver would deliver them if it had
// locked on to the signal upside down.
func Invert(words [subframe.WordsPerSubframe]uint32) [subframe.WordsPerSubframe]uint32 {
	var inverted [subframe.WordsPerSubframe]uint32
	for i, w := range words {
		inverted[i] = ^w & 0x3fffffff
	}
	return inverted
}

// Corrupt returns the words with one bit flipped in the given word.
func Corrupt(words [subframe.WordsPerSubframe]uint32, word, bit int) [subframe.WordsPerSubframe]uint32 {
	words[word] ^= 1 << bit
	return words
}

// MillisForTOWCount returns a plausible receiver time for a subframe with
// the given HOW TOW count, the time at which its last bit arrived.
func MillisForTOWCount(towCount int) uint32 {
	return uint32(towCount * 6000)
}
