package parity

import (
	"fmt"
	"testing"
)

// referenceSubframe is a subframe with a TLM, a HOW for subframe 1 with a
// TOW count of 100 and eight arbitrary data words, with parity computed
// independently.  The data words are 0x123456, 0xabcdef, 0x000000,
// 0xffffff, 0x5a5a5a, 0xa5a5a5, 0x0f0f0f and 0xf0f0f0.
var referenceSubframe = [10]uint32{
	0x22d23434, 0x000c811d, 0x3b72ea57, 0x150c8419, 0x3fffffd6,
	0x3fffffea, 0x169696a0, 0x2969694a, 0x03c3c3df, 0x03c3c3ca,
}

// referenceData is the source data of the words of referenceSubframe.
var referenceData = [10]uint32{
	0x8b48d0, 0x003204, 0x123456, 0xabcdef, 0x000000,
	0xffffff, 0x5a5a5a, 0xa5a5a5, 0x0f0f0f, 0xf0f0f0,
}

// TestCheckReference checks that the reference subframe passes.
func TestCheckReference(t *testing.T) {
	if !Check(referenceSubframe) {
		t.Error("reference subframe should pass the parity check")
	}
	if !CheckSlice(referenceSubframe[:]) {
		t.Error("CheckSlice: reference subframe should pass the parity check")
	}
}

// TestCheckSingleBitErrors checks that flipping any single bit of any word,
// data or parity, fails the check.
func TestCheckSingleBitErrors(t *testing.T) {
	for word := 0; word < 10; word++ {
		for bit := 0; bit < 30; bit++ {
			corrupt := referenceSubframe
			corrupt[word] ^= 1 << bit
			if Check(corrupt) {
				t.Errorf("word %d bit %d flipped - want failure", word+1, bit)
			}
		}
	}
}

// TestCheckInverted checks that a subframe received upside down (every bit
// complemented) passes.
func TestCheckInverted(t *testing.T) {
	var inverted [10]uint32
	for i, w := range referenceSubframe {
		inverted[i] = ^w & wordMask
	}

	want := [10]uint32{
		0x1d2dcbcb, 0x3ff37ee2, 0x048d15a8, 0x2af37be6, 0x00000029,
		0x00000015, 0x2969695f, 0x169696b5, 0x3c3c3c20, 0x3c3c3c35,
	}
	if inverted != want {
		t.Fatalf("inverted subframe is wrong: %x", inverted)
	}

	if !Check(inverted) {
		t.Error("inverted subframe should pass the parity check")
	}
}

// TestEncode checks that Encode rebuilds the reference subframe from its
// source data.
func TestEncode(t *testing.T) {
	var prev uint32
	for i, d := range referenceData {
		got := Encode(d, prev)
		if got != referenceSubframe[i] {
			t.Errorf("word %d: want 0x%08x got 0x%08x", i+1, referenceSubframe[i], got)
		}
		prev = got & 3
	}
}

// TestCheckWord checks single words against the parity bits of the previous
// word.
func TestCheckWord(t *testing.T) {

	var testData = []struct {
		description string
		word        uint32
		prev        uint32
		want        bool
	}{
		{"TLM", referenceSubframe[0], 0, true},
		{"TLM with wrong previous bits", referenceSubframe[0], 1, false},
		{"HOW", referenceSubframe[1], referenceSubframe[0] & 3, true},
		{"data word after D30 set", referenceSubframe[5], referenceSubframe[4] & 3, true},
		{"bits above 30 ignored", referenceSubframe[2] | 0xc0000000, referenceSubframe[1] & 3, true},
	}

	for _, td := range testData {
		got := CheckWord(td.word, td.prev)
		if got != td.want {
			t.Errorf("%s: want %v got %v", td.description, td.want, got)
		}
	}
}

// TestCompute checks that the parity of a word is the parity held in its
// bottom six bits.
func TestCompute(t *testing.T) {
	var prev uint32
	for i, d := range referenceData {
		want := referenceSubframe[i] & 0x3f
		got := Compute(d, prev)
		if got != want {
			t.Errorf("word %d: want 0x%02x got 0x%02x", i+1, want, got)
		}
		prev = referenceSubframe[i] & 3
	}
}

// TestCheckSliceWrongLength checks that a slice that isn't ten words long
// fails.
func TestCheckSliceWrongLength(t *testing.T) {
	for _, n := range []int{0, 9, 11} {
		words := make([]uint32, n)
		copy(words, referenceSubframe[:])
		t.Run(fmt.Sprintf("%d words", n), func(t *testing.T) {
			if CheckSlice(words) {
				t.Errorf("%d words should fail", n)
			}
		})
	}
}
