// SPDX-License-Identifier: MIT
package fsk

// encodeBits expands the low n bits of value into a bit slice, MSB first:
// bit[i] = (value >> (n-1-i)) & 1.
func encodeBits(value uint8, n int) []uint8 {
	bits := make([]uint8, n)
	for i := 0; i < n; i++ {
		bits[i] = (value >> (n - 1 - i)) & 1
	}
	return bits
}

// bitsToValue reassembles an MSB-first bit slice into a value.
func bitsToValue(bits []uint8) uint8 {
	var v uint8
	for _, b := range bits {
		v = v<<1 | (b & 1)
	}
	return v
}

// Checksum XOR-accumulates each of the four bits of value back into its
// own original bit position. Folding every bit into the place it came
// from makes this the identity on 4-bit inputs, so the checksum nibble on
// the wire is a verbatim duplicate of the command nibble, a send-twice
// scheme rather than a parity. Receivers depend on this equality, so it
// must not be changed without changing both ends of the link.
func Checksum(value uint8) uint8 {
	var sum uint8
	for i := 0; i < commandValueBits; i++ {
		bit := (value >> i) & 1
		sum ^= bit << i
	}
	return sum
}
