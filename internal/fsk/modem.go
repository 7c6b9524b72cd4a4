// SPDX-License-Identifier: MIT
package fsk

import (
	"airgap/internal/config"
	"airgap/internal/dsp"
)

// SilenceDuration is the fixed trailing silence after the checksum tones.
// It gives the receiving side a clean gap before any following frame.
const SilenceDuration = 0.2

// Modem pairs the frame encoder and decoder over one FSK parameter set.
// Decoding reuses a detector with cached FFT plans, so a Modem is not
// safe for concurrent use.
type Modem struct {
	cfg config.FSK
	det *dsp.Detector
}

// NewModem returns a modem for the given parameters. The parameters are
// assumed to be validated; both ends of the link must use the same set.
func NewModem(cfg config.FSK) *Modem {
	return &Modem{
		cfg: cfg,
		det: dsp.NewDetector(cfg.SampleRate),
	}
}

// Config returns the modem's FSK parameter set.
func (m *Modem) Config() config.FSK {
	return m.cfg
}

// FrameDuration returns the length of one encoded frame in seconds:
// preamble, eight data tones, trailing silence.
func (m *Modem) FrameDuration() float64 {
	return m.cfg.PreambleDuration + 8*m.cfg.BitDuration + SilenceDuration
}

// EncodeCommand renders cmd as one complete transmission: the preamble
// tone, four command-bit tones (MSB first, mark for 0, space for 1), the
// four checksum-bit tones, and the trailing silence. Cannot fail for a
// valid command.
func (m *Modem) EncodeCommand(cmd Command) []float64 {
	rate := m.cfg.SampleRate

	frame := make([]float64, 0, int(m.FrameDuration()*float64(rate))+1)
	frame = append(frame, dsp.Tone(rate, m.cfg.PreambleFreq, m.cfg.PreambleDuration)...)

	bits := encodeBits(uint8(cmd), commandValueBits)
	bits = append(bits, encodeBits(Checksum(uint8(cmd)), commandValueBits)...)
	for _, bit := range bits {
		freq := m.cfg.MarkFreq
		if bit == 1 {
			freq = m.cfg.SpaceFreq
		}
		frame = append(frame, dsp.Tone(rate, freq, m.cfg.BitDuration)...)
	}

	frame = append(frame, dsp.Silence(rate, SilenceDuration)...)
	return frame
}
