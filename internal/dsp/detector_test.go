// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"math/rand"
	"testing"
)

func TestDetector_PureTones(t *testing.T) {
	t.Parallel()

	d := NewDetector(testSampleRate)
	for _, freq := range []float64{1200, 1800, 2400} {
		chunk := Tone(testSampleRate, freq, 0.1)
		got, power := d.Analyze(chunk)
		if math.Abs(got-freq) > 25 {
			t.Errorf("Analyze(%v Hz tone) freq = %v, want within 25 Hz", freq, got)
		}
		if power < 0.1 {
			t.Errorf("Analyze(%v Hz tone) power = %v, want well above noise floor", freq, power)
		}
	}
}

func TestDetector_EmptyChunk(t *testing.T) {
	t.Parallel()

	d := NewDetector(testSampleRate)
	freq, power := d.Analyze(nil)
	if freq != 0 || power != 0 {
		t.Errorf("Analyze(nil) = (%v, %v), want (0, 0)", freq, power)
	}
}

func TestDetector_SilenceHasNoPower(t *testing.T) {
	t.Parallel()

	d := NewDetector(testSampleRate)
	_, power := d.Analyze(make([]float64, 4410))
	if power != 0 {
		t.Errorf("Analyze(silence) power = %v, want 0", power)
	}
}

func TestDetector_NoiseNeverPanics(t *testing.T) {
	t.Parallel()

	d := NewDetector(testSampleRate)
	rng := rand.New(rand.NewSource(1))
	for _, n := range []int{1, 2, 3, 17, 100, 4410, 22050} {
		chunk := make([]float64, n)
		for i := range chunk {
			chunk[i] = rng.Float64()*2 - 1
		}
		freq, power := d.Analyze(chunk)
		if math.IsNaN(freq) || math.IsNaN(power) {
			t.Errorf("Analyze(noise len %d) = (%v, %v), want finite values", n, freq, power)
		}
	}
}

func TestDetector_RumbleRejected(t *testing.T) {
	t.Parallel()

	// Louder 200 Hz rumble mixed under a 1800 Hz tone: the search band
	// restriction plus the high-pass must still pick the tone.
	d := NewDetector(testSampleRate)
	tone := Tone(testSampleRate, 1800, 0.1)
	chunk := make([]float64, len(tone))
	for i := range chunk {
		chunk[i] = tone[i] + 1.5*math.Sin(2*math.Pi*200*float64(i)/testSampleRate)
	}

	freq, _ := d.Analyze(chunk)
	if math.Abs(freq-1800) > 25 {
		t.Errorf("Analyze(tone+rumble) freq = %v, want ~1800", freq)
	}
}

func TestDetector_PowerScalesWithAmplitude(t *testing.T) {
	t.Parallel()

	d := NewDetector(testSampleRate)
	full := Tone(testSampleRate, 1200, 0.1)
	quiet := make([]float64, len(full))
	for i := range full {
		quiet[i] = full[i] * 0.001
	}

	_, fullPower := d.Analyze(full)
	_, quietPower := d.Analyze(quiet)
	if quietPower >= fullPower {
		t.Fatalf("quiet power %v >= full power %v", quietPower, fullPower)
	}
	if ratio := quietPower / fullPower; math.Abs(ratio-0.001) > 0.0001 {
		t.Errorf("power ratio = %v, want ~0.001", ratio)
	}
}

func TestDetector_ReusesPlans(t *testing.T) {
	t.Parallel()

	d := NewDetector(testSampleRate)
	chunk := Tone(testSampleRate, 1200, 0.1)

	d.Analyze(chunk)
	if len(d.plans) != 1 {
		t.Fatalf("plans cached = %d, want 1", len(d.plans))
	}

	// Same chunk size again must not allocate in the analysis path.
	allocs := testing.AllocsPerRun(50, func() {
		d.Analyze(chunk)
	})
	if allocs > 0 {
		t.Errorf("Analyze allocated %.1f times per run on a warm plan, want 0", allocs)
	}
}

func BenchmarkDetectorAnalyze(b *testing.B) {
	d := NewDetector(testSampleRate)
	chunk := Tone(testSampleRate, 1800, 0.1)
	d.Analyze(chunk) // warm the plan cache

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Analyze(chunk)
	}
}
