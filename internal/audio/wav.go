// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavBitDepth is the sample width for files written by this package.
// 16 bits leaves the quantization floor far below the modem's RMS gate.
const wavBitDepth = 16

// WriteWAV saves mono float samples to a 16-bit PCM WAV file. Samples
// outside [-1, 1] are clamped.
func WriteWAV(path string, samples []float64, sampleRate int) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	enc := wav.NewEncoder(file, sampleRate, wavBitDepth, 1, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		SourceBitDepth: wavBitDepth,
		Data:           make([]int, len(samples)),
	}

	const scale = 1<<(wavBitDepth-1) - 1 // 32767
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		buf.Data[i] = int(s * scale)
	}

	if err := enc.Write(buf); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		file.Close()
		return fmt.Errorf("finalize %s: %w", path, err)
	}
	return file.Close()
}

// ReadWAV loads a WAV file as mono float samples in [-1, 1] plus its
// sample rate. Multi-channel files keep only the first channel.
func ReadWAV(path string) ([]float64, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	dec := wav.NewDecoder(file)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%s is not a valid WAV file", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode %s: %w", path, err)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = wavBitDepth
	}
	scale := float64(int(1) << (bitDepth - 1))

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		samples[i] = float64(buf.Data[i*channels]) / scale
	}
	return samples, buf.Format.SampleRate, nil
}
