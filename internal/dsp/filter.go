// SPDX-License-Identifier: MIT
package dsp

import (
	"fmt"
	"math"
)

// biquad is one second-order IIR section in direct form I.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// configureHighpass fills in RBJ cookbook high-pass coefficients for the
// given cutoff, sample rate and Q, normalized so a0 == 1.
func (s *biquad) configureHighpass(cutoff, sampleRate, q float64) {
	w0 := 2 * math.Pi * cutoff / sampleRate
	cosw0 := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	a0 := 1 + alpha
	s.b0 = (1 + cosw0) / 2 / a0
	s.b1 = -(1 + cosw0) / a0
	s.b2 = (1 + cosw0) / 2 / a0
	s.a1 = -2 * cosw0 / a0
	s.a2 = (1 - alpha) / a0
}

// HighPass is a 4th-order Butterworth high-pass filter built as two
// cascaded biquad sections. It is used to strip sub-tone rumble and
// background noise below the FSK band before frequency estimation.
type HighPass struct {
	sections [2]biquad
}

// Butterworth pole Q values for a 4th-order cascade: 1/(2cos(pi/8)) and
// 1/(2cos(3pi/8)).
var butterworthQ4 = [2]float64{0.5412, 1.3066}

// NewHighPass returns a 4th-order Butterworth high-pass with the given
// cutoff. The cutoff must sit strictly between 0 and Nyquist.
func NewHighPass(cutoff, sampleRate float64) (*HighPass, error) {
	if cutoff <= 0 || cutoff >= sampleRate/2 {
		return nil, fmt.Errorf("high-pass cutoff %.1f Hz outside (0, %.1f)", cutoff, sampleRate/2)
	}

	f := &HighPass{}
	for i := range f.sections {
		f.sections[i].configureHighpass(cutoff, sampleRate, butterworthQ4[i])
	}
	return f, nil
}

// Apply filters src into dst, which must be at least len(src) long, and
// returns dst truncated to that length. Filter state starts at zero on
// every call, so Apply is a pure function of src.
func (f *HighPass) Apply(dst, src []float64) []float64 {
	dst = dst[:len(src)]
	copy(dst, src)

	for s := range f.sections {
		sec := &f.sections[s]
		var x1, x2, y1, y2 float64
		for i, x := range dst {
			y := sec.b0*x + sec.b1*x1 + sec.b2*x2 - sec.a1*y1 - sec.a2*y2
			x2, x1 = x1, x
			y2, y1 = y1, y
			dst[i] = y
		}
	}

	return dst
}
