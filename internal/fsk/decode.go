// SPDX-License-Identifier: MIT
package fsk

import (
	"math"

	applog "airgap/internal/log"
)

// frameBits is the number of tone windows after the preamble.
const frameBits = 2 * commandValueBits

// DecodeCommand scans a captured recording for one frame and resolves
// its command. The second return is false when no frame was decoded:
// missing preamble, truncated transmission, signal under the noise gate,
// a tone that matches neither mark nor space, a checksum mismatch, or a
// value outside the command set. All of these are routine outcomes on an
// open acoustic channel and none of them panic or error. The recording
// is only read, never modified.
func (m *Modem) DecodeCommand(samples []float64) (Command, bool) {
	rate := float64(m.cfg.SampleRate)
	preambleWin := int(m.cfg.PreambleDuration * rate)
	bitWin := int(m.cfg.BitDuration * rate)
	if preambleWin <= 0 || bitWin <= 0 || len(samples) < preambleWin {
		return 0, false
	}

	preambleEnd := m.findPreamble(samples, preambleWin)
	if preambleEnd < 0 {
		applog.Debugf("fsk: no preamble in %d samples", len(samples))
		return 0, false
	}

	// One linear pass over eight fixed-size windows. No backtracking
	// once the preamble is located.
	var bits [frameBits]uint8
	for i := 0; i < frameBits; i++ {
		lo := preambleEnd + i*bitWin
		hi := lo + bitWin
		if hi > len(samples) {
			applog.Debugf("fsk: incomplete transmission, bit %d runs past the recording", i)
			return 0, false
		}

		freq, power := m.det.Analyze(samples[lo:hi])
		if power < m.cfg.MinSignalPower {
			applog.Debugf("fsk: weak signal at bit %d (power %.4f)", i, power)
			return 0, false
		}

		bit, ok := m.classify(freq)
		if !ok {
			applog.Debugf("fsk: unclassifiable tone at bit %d (%.0f Hz)", i, freq)
			return 0, false
		}
		bits[i] = bit
	}

	commandValue := bitsToValue(bits[:commandValueBits])
	checksumValue := bitsToValue(bits[commandValueBits:])
	if checksumValue != Checksum(commandValue) {
		applog.Debugf("fsk: checksum mismatch (command %d, checksum %d)", commandValue, checksumValue)
		return 0, false
	}

	cmd, ok := commandFromValue(commandValue)
	if !ok {
		applog.Debugf("fsk: value %d is not a command", commandValue)
		return 0, false
	}
	return cmd, true
}

// findPreamble slides a preamble-length window across the recording,
// hopping a quarter window at a time, and returns the sample index just
// past the first window that reads as the preamble tone at usable power.
// Returns -1 when the recording holds no preamble.
func (m *Modem) findPreamble(samples []float64, win int) int {
	hop := win / 4
	if hop < 1 {
		hop = 1
	}
	for start := 0; start+win <= len(samples); start += hop {
		freq, power := m.det.Analyze(samples[start : start+win])
		if math.Abs(freq-m.cfg.PreambleFreq) <= m.cfg.FreqTolerance && power > m.cfg.MinSignalPower {
			return start + win
		}
	}
	return -1
}

// classify maps a detected frequency to a bit: mark is 0, space is 1.
// A tone within tolerance of neither is rejected; the config invariant
// (tolerance under half the tone spacing) guarantees it cannot be within
// tolerance of both.
func (m *Modem) classify(freq float64) (uint8, bool) {
	switch {
	case math.Abs(freq-m.cfg.MarkFreq) <= m.cfg.FreqTolerance:
		return 0, true
	case math.Abs(freq-m.cfg.SpaceFreq) <= m.cfg.FreqTolerance:
		return 1, true
	default:
		return 0, false
	}
}
