// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"

	applog "airgap/internal/log"
)

// ioFramesPerBuffer is the block size for the blocking stream loops.
const ioFramesPerBuffer = 1024

// IO is the real audio device pair behind the command channel: one mono
// output stream for playing frames and one mono input stream for
// capturing chunks. Each call opens, drains, and closes its own stream,
// so the device is held only while a play or record is in flight.
// Satisfies channel.Device.
type IO struct {
	input  *portaudio.DeviceInfo
	output *portaudio.DeviceInfo
}

// NewIO resolves the configured input and output devices. PortAudio must
// be initialized first.
func NewIO(inputID, outputID int) (*IO, error) {
	input, err := InputDevice(inputID)
	if err != nil {
		return nil, fmt.Errorf("input device: %w", err)
	}
	output, err := OutputDevice(outputID)
	if err != nil {
		return nil, fmt.Errorf("output device: %w", err)
	}
	applog.Infof("audio: input %q, output %q", input.Name, output.Name)
	return &IO{input: input, output: output}, nil
}

// Play renders the whole buffer through the output device and blocks
// until the final block has drained.
func (d *IO) Play(samples []float64, sampleRate int) error {
	buf := make([]float32, ioFramesPerBuffer)
	params := portaudio.StreamParameters{
		Output: portaudio.StreamDeviceParameters{
			Device:   d.output,
			Channels: 1,
			Latency:  d.output.DefaultHighOutputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: ioFramesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, &buf)
	if err != nil {
		return fmt.Errorf("open playback stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start playback stream: %w", err)
	}

	for pos := 0; pos < len(samples); pos += ioFramesPerBuffer {
		n := copyToFloat32(buf, samples[pos:])
		for i := n; i < len(buf); i++ {
			buf[i] = 0 // pad the final partial block with silence
		}
		if err := stream.Write(); err != nil && err != portaudio.OutputUnderflowed {
			stream.Abort()
			return fmt.Errorf("playback write: %w", err)
		}
	}

	// Stop drains buffered audio, which is what makes Play blocking for
	// the full frame duration.
	if err := stream.Stop(); err != nil {
		return fmt.Errorf("stop playback stream: %w", err)
	}
	return nil
}

// Record captures seconds of mono audio from the input device, blocking
// for the full duration, and returns the samples.
func (d *IO) Record(seconds float64, sampleRate int) ([]float64, error) {
	want := int(seconds * float64(sampleRate))
	if want <= 0 {
		return nil, nil
	}

	buf := make([]float32, ioFramesPerBuffer)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   d.input,
			Channels: 1,
			Latency:  d.input.DefaultHighInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: ioFramesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, &buf)
	if err != nil {
		return nil, fmt.Errorf("open capture stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return nil, fmt.Errorf("start capture stream: %w", err)
	}
	defer stream.Stop()

	samples := make([]float64, 0, want)
	for len(samples) < want {
		if err := stream.Read(); err != nil {
			if err == portaudio.InputOverflowed {
				applog.Debugf("audio: input overflow, samples dropped")
				continue
			}
			return nil, fmt.Errorf("capture read: %w", err)
		}
		take := want - len(samples)
		if take > len(buf) {
			take = len(buf)
		}
		for _, s := range buf[:take] {
			samples = append(samples, float64(s))
		}
	}
	return samples, nil
}

// copyToFloat32 copies as much of src as fits into dst and returns the
// count copied.
func copyToFloat32(dst []float32, src []float64) int {
	n := len(src)
	if n > len(dst) {
		n = len(dst)
	}
	for i := 0; i < n; i++ {
		dst[i] = float32(src[i])
	}
	return n
}
