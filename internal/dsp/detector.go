// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"airgap/pkg/bitint"
)

// DefaultMinFreq is the low edge of the search band. Bins at or below it
// are ignored so ambient rumble cannot win the peak search, and the
// high-pass cutoff sits there too.
const DefaultMinFreq = 800.0

// fftPlan holds a reusable FFT instance plus pre-allocated buffers for
// one padded chunk size, mirroring the workspace pattern used by the
// real-time analysis path.
type fftPlan struct {
	fft       *fourier.FFT
	input     []float64    // windowed, zero-padded input
	output    []complex128 // complex FFT output
	magnitude []float64
}

func newFFTPlan(size int) *fftPlan {
	return &fftPlan{
		fft:       fourier.NewFFT(size),
		input:     make([]float64, size),
		output:    make([]complex128, size/2+1),
		magnitude: make([]float64, size/2+1),
	}
}

// Detector estimates the dominant tone frequency and RMS power of sample
// chunks. It is stateless between calls apart from cached FFT plans and
// scratch buffers, and is not safe for concurrent use.
type Detector struct {
	sampleRate float64
	minFreq    float64
	highpass   *HighPass // nil when the filter could not be built
	plans      map[int]*fftPlan
	filtered   []float64 // scratch, grown on demand
}

// NewDetector returns a detector for the given sample rate. The high-pass
// stage is best effort: if the cutoff cannot be realized at this sample
// rate the detector analyzes the raw chunk instead.
func NewDetector(sampleRate int) *Detector {
	d := &Detector{
		sampleRate: float64(sampleRate),
		minFreq:    DefaultMinFreq,
		plans:      make(map[int]*fftPlan),
	}
	if hp, err := NewHighPass(DefaultMinFreq, d.sampleRate); err == nil {
		d.highpass = hp
	}
	return d
}

// Analyze returns the dominant frequency (Hz) and RMS power of chunk.
// The chunk is high-pass filtered, Hann windowed, transformed, and the
// peak magnitude bin above the search floor wins. Power is the RMS of
// the filtered (not windowed) chunk. Empty chunks return (0, 0).
func (d *Detector) Analyze(chunk []float64) (freq, power float64) {
	n := len(chunk)
	if n == 0 {
		return 0, 0
	}

	if cap(d.filtered) < n {
		d.filtered = make([]float64, n)
	}
	filtered := d.filtered[:n]
	if d.highpass != nil {
		filtered = d.highpass.Apply(filtered, chunk)
	} else {
		copy(filtered, chunk)
	}

	var sumSq float64
	for _, s := range filtered {
		sumSq += s * s
	}
	power = math.Sqrt(sumSq / float64(n))

	padded := bitint.NextPowerOfTwo(n)
	plan, ok := d.plans[padded]
	if !ok {
		plan = newFFTPlan(padded)
		d.plans[padded] = plan
	}

	// Hann window over the chunk, zero padding beyond it.
	copy(plan.input[:n], filtered)
	window.Hann(plan.input[:n])
	for i := n; i < padded; i++ {
		plan.input[i] = 0
	}

	plan.fft.Coefficients(plan.output, plan.input)
	for i, c := range plan.output {
		plan.magnitude[i] = cmplx.Abs(c)
	}

	// Peak search restricted to bins above the floor.
	binHz := d.sampleRate / float64(padded)
	peakBin := -1
	peakMag := 0.0
	for i, mag := range plan.magnitude {
		if float64(i)*binHz <= d.minFreq {
			continue
		}
		if peakBin < 0 || mag > peakMag {
			peakBin = i
			peakMag = mag
		}
	}
	if peakBin < 0 {
		// Chunk too short to have any bin above the floor.
		return 0, power
	}

	return float64(peakBin) * binHz, power
}
