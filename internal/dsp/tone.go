// SPDX-License-Identifier: MIT
/*
Package dsp implements the signal-processing primitives for the acoustic
link: sine tone synthesis, a Butterworth high-pass filter, and an
FFT-based dominant-frequency detector.

Everything here is deterministic. Tone produces bit-identical output for
identical arguments, and Detector.Analyze always returns a value, even
for silence or pure noise.
*/
package dsp

import "math"

// ToneAmplitude is the peak amplitude of generated tones. Kept below
// full scale so the playback chain has headroom before clipping.
const ToneAmplitude = 0.8

// rampDuration is the linear fade applied to each end of a tone. 10ms is
// short enough not to eat into detection windows but long enough to kill
// the click at segment boundaries.
const rampDuration = 0.01

// Tone generates duration seconds of a sine wave at freq Hz, sampled at
// sampleRate. Buffers longer than twice the ramp get a linear fade-in
// over the first 10ms and fade-out over the last 10ms, which suppresses
// clicks and spectral leakage where tones abut.
func Tone(sampleRate int, freq, duration float64) []float64 {
	n := int(math.Round(duration * float64(sampleRate)))
	if n <= 0 {
		return nil
	}

	samples := make([]float64, n)
	w := 2 * math.Pi * freq / float64(sampleRate)
	for i := range samples {
		samples[i] = ToneAmplitude * math.Sin(w*float64(i))
	}

	ramp := int(rampDuration * float64(sampleRate))
	if ramp > 0 && n > 2*ramp {
		for i := 0; i < ramp; i++ {
			g := float64(i) / float64(ramp)
			samples[i] *= g
			samples[n-1-i] *= g
		}
	}

	return samples
}

// Silence generates duration seconds of zero samples.
func Silence(sampleRate int, duration float64) []float64 {
	n := int(math.Round(duration * float64(sampleRate)))
	if n <= 0 {
		return nil
	}
	return make([]float64, n)
}
