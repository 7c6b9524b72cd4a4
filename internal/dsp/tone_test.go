// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"testing"
)

const testSampleRate = 44100

func TestTone_SampleCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		duration float64
		want     int
	}{
		{"bit tone", 0.1, 4410},
		{"preamble tone", 0.5, 22050},
		{"one second", 1.0, 44100},
		{"rounds to nearest", 0.0001, 4}, // 4.41 samples
		{"zero duration", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tone(testSampleRate, 1200, tt.duration)
			if len(got) != tt.want {
				t.Errorf("len(Tone) = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestTone_Deterministic(t *testing.T) {
	t.Parallel()

	a := Tone(testSampleRate, 1800, 0.1)
	b := Tone(testSampleRate, 1800, 0.1)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestTone_AmplitudeAndRamp(t *testing.T) {
	t.Parallel()

	samples := Tone(testSampleRate, 1200, 0.1)
	ramp := int(rampDuration * testSampleRate)

	// First and last samples sit inside the fade and must be attenuated.
	if math.Abs(samples[0]) > 1e-9 {
		t.Errorf("first sample = %v, want ~0 after fade-in", samples[0])
	}
	if g := math.Abs(samples[len(samples)-1]); g > ToneAmplitude*0.01 {
		t.Errorf("last sample = %v, want attenuated by fade-out", g)
	}

	// The steady-state body must reach close to full amplitude and never
	// exceed it.
	peak := 0.0
	for _, s := range samples[ramp : len(samples)-ramp] {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	if peak > ToneAmplitude+1e-9 {
		t.Errorf("peak = %v exceeds amplitude %v", peak, ToneAmplitude)
	}
	if peak < ToneAmplitude*0.99 {
		t.Errorf("peak = %v, want close to %v", peak, ToneAmplitude)
	}
}

func TestTone_ShortBufferSkipsRamp(t *testing.T) {
	t.Parallel()

	// 15ms is under twice the 10ms ramp, so no fade is applied and the
	// raw sine shows through from sample zero.
	samples := Tone(testSampleRate, 1200, 0.015)
	w := 2 * math.Pi * 1200 / float64(testSampleRate)
	want := ToneAmplitude * math.Sin(w)
	if math.Abs(samples[1]-want) > 1e-12 {
		t.Errorf("sample 1 = %v, want unfaded %v", samples[1], want)
	}
}

func TestSilence(t *testing.T) {
	t.Parallel()

	samples := Silence(testSampleRate, 0.2)
	if len(samples) != 8820 {
		t.Fatalf("len(Silence) = %d, want 8820", len(samples))
	}
	for i, s := range samples {
		if s != 0 {
			t.Fatalf("sample %d = %v, want 0", i, s)
		}
	}
}
