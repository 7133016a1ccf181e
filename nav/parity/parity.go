// Package parity checks the integrity of GPS navigation subframes using the
// user parity algorithm of IS-GPS-200 section 20.3.5.2.
//
// Each 30-bit word carries 24 data bits D1-D24 followed by 6 parity bits
// D25-D30.  The parity bits are an exclusive-or of selected source data
// bits d1-d24 and of bits 29 and 30 of the previous word (D29* and D30*).
// If D30* is set the data bits are transmitted complemented, so they must
// be flipped back before the parity is computed.
package parity

// hamming holds the masks for the six parity bits.  The masks apply to a
// 32-bit value holding D29* and D30* in bits 31 and 30 and the source data
// bits d1-d24 in bits 29-6.
var hamming = [6]uint32{
	0xbb1f3480, 0x5d8f9a40, 0xaec7cd00, 0x5763e680, 0x6bb1f340, 0x8b7a89c0,
}

// d30StarBit is D30* in the 32-bit check value.
const d30StarBit = 0x40000000

// dataMask selects D1-D24 in the 32-bit check value.
const dataMask = 0x3fffffc0

// wordMask selects the 30 bits of a word.
const wordMask = 0x3fffffff

// invertedPreamble is the TLM preamble of an inverted subframe.
const invertedPreamble = 0x74

// Compute returns the six parity bits for the given source data bits d1-d24
// (in the bottom 24 bits of data) preceded by the previous word's D29* and
// D30* (bits 1 and 0 of prev).
func Compute(data uint32, prev uint32) uint32 {
	v := ((prev & 3) << 30) | ((data & 0xffffff) << 6)
	return computeFromCheckValue(v)
}

// computeFromCheckValue computes the parity of a 32-bit check value whose
// data bits have already been corrected for polarity.
func computeFromCheckValue(v uint32) uint32 {
	var parity uint32
	for i := 0; i < 6; i++ {
		parity <<= 1
		for w := (v & hamming[i]) >> 6; w > 0; w >>= 1 {
			parity ^= w & 1
		}
	}
	return parity
}

// CheckWord checks one 30-bit word given bits 29 and 30 of the previous
// word (D29* in bit 1 and D30* in bit 0 of prev).
func CheckWord(word uint32, prev uint32) bool {
	v := ((prev & 3) << 30) | (word & wordMask)
	if v&d30StarBit != 0 {
		v ^= dataMask
	}
	return computeFromCheckValue(v) == word&0x3f
}

// Encode returns the 30-bit word that carries the given source data bits
// d1-d24 after the previous word whose D29 and D30 are given in bits 1 and
// 0 of prev.  It's the inverse of CheckWord and is used to build subframes.
func Encode(data uint32, prev uint32) uint32 {
	data &= 0xffffff
	parity := Compute(data, prev)
	transmitted := data
	if prev&1 != 0 {
		transmitted ^= 0xffffff
	}
	return (transmitted << 6) | parity
}

// Check checks the parity of all ten words of a subframe.  The D29* and
// D30* of the first word are taken to be zero unless the preamble shows that
// the subframe is inverted, in which case they are taken to be one.
func Check(words [10]uint32) bool {
	var prev uint32
	if (words[0]&wordMask)>>22 == invertedPreamble {
		prev = 3
	}
	for _, w := range words {
		if !CheckWord(w, prev) {
			return false
		}
		prev = w & 3
	}
	return true
}

// CheckSlice is Check for a slice, which must hold ten words.
func CheckSlice(words []uint32) bool {
	if len(words) != 10 {
		return false
	}
	var a [10]uint32
	copy(a[:], words)
	return Check(a)
}
