/*
Package bitint provides power-of-two helpers for FFT sizing.

The frequency detector pads each analysis chunk to the next power of two
before transforming it, so these run on every decode attempt. Both
operations are O(1) bit manipulation with no allocation.

The subtraction in NextPowerOfTwo (size-1) is what keeps exact powers of
two from being doubled: bits.Len64(8-1) is 3, so 1<<3 returns 8 rather
than 16.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size.
// Non-positive sizes return 1.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len64(uint64(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
// Powers of 2 have exactly one bit set, so n&(n-1) clears it.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}
