// SPDX-License-Identifier: MIT
/*
Package channel layers retry and timeout orchestration over the modem:
send a command with bounded retries, listen for one with a deadline, and
the two canned exchanges the rig uses (ping/pong link test and
capture/done triggering).

Everything is synchronous. Playing a frame blocks for the frame's
duration, recording a chunk blocks for the chunk's duration, and chunks
are decoded in capture order with no overlap. Device errors never escape:
a failed play becomes a retry, a failed record is absorbed into the
timeout loop.
*/
package channel

import (
	"time"

	"airgap/internal/fsk"
	applog "airgap/internal/log"
)

const (
	// DefaultSendRetries is how many playback attempts SendCommand makes
	// when the caller passes no explicit count.
	DefaultSendRetries = 3

	// retryPause separates playback attempts and failed recordings.
	retryPause = 500 * time.Millisecond

	// maxChunkSeconds bounds one blocking recording while listening.
	maxChunkSeconds = 5.0
)

// Device is the audio hardware the channel talks through. Both calls
// block for the real-time duration of the operation. The device must be
// held exclusively while a call is in flight; the channel itself never
// runs two calls concurrently.
type Device interface {
	// Play renders the entire buffer before returning.
	Play(samples []float64, sampleRate int) error
	// Record captures seconds of mono audio at sampleRate.
	Record(seconds float64, sampleRate int) ([]float64, error)
}

// Clock abstracts wall time and sleeping so tests can drive retries and
// timeouts without real delay.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Events receives link activity notifications, typically the WebSocket
// monitor. Implementations must not block.
type Events interface {
	Send(v interface{}) error
}

// Event is one link activity record published to the Events sink.
type Event struct {
	Type    string  `json:"type"` // "sent", "received", "ignored", "send_failed"
	Command string  `json:"command,omitempty"`
	Attempt int     `json:"attempt,omitempty"`
	Error   string  `json:"error,omitempty"`
	Elapsed float64 `json:"elapsed_seconds,omitempty"`
}

// Options configures optional channel collaborators. Zero values select
// the real clock, no event sink, and the default chunk length.
type Options struct {
	Clock        Clock
	Events       Events
	ChunkSeconds float64               // recording block length while listening
	OnChunk      func(chunk []float64) // called with every captured chunk, e.g. for WAV dumps
}

// Channel is the command link over one audio device. Not safe for
// concurrent use; the acoustic medium is half-duplex anyway.
type Channel struct {
	modem   *fsk.Modem
	dev     Device
	clock   Clock
	events  Events
	chunk   float64
	onChunk func([]float64)
}

// New builds a channel over the given modem and device.
func New(modem *fsk.Modem, dev Device, opts Options) *Channel {
	clock := opts.Clock
	if clock == nil {
		clock = realClock{}
	}
	chunk := opts.ChunkSeconds
	if chunk <= 0 || chunk > maxChunkSeconds {
		chunk = maxChunkSeconds
	}
	return &Channel{
		modem:   modem,
		dev:     dev,
		clock:   clock,
		events:  opts.Events,
		chunk:   chunk,
		onChunk: opts.OnChunk,
	}
}

// SendCommand encodes cmd and plays it, retrying on device failure up to
// retries attempts with a half-second pause between them. Returns whether
// any attempt played through. It does not wait for an acknowledgment.
func (c *Channel) SendCommand(cmd fsk.Command, retries int) bool {
	if retries <= 0 {
		retries = DefaultSendRetries
	}

	frame := c.modem.EncodeCommand(cmd)
	rate := c.modem.Config().SampleRate

	for attempt := 1; attempt <= retries; attempt++ {
		err := c.dev.Play(frame, rate)
		if err == nil {
			applog.Infof("channel: sent %v (attempt %d)", cmd, attempt)
			c.emit(Event{Type: "sent", Command: cmd.String(), Attempt: attempt})
			return true
		}

		applog.Warnf("channel: playback of %v failed on attempt %d: %v", cmd, attempt, err)
		c.emit(Event{Type: "send_failed", Command: cmd.String(), Attempt: attempt, Error: err.Error()})
		if attempt < retries {
			c.clock.Sleep(retryPause)
		}
	}
	return false
}

// WaitForCommand listens until timeout for a decodable frame. When
// expected is nonzero, only that command ends the wait; other decoded
// commands are logged and listening continues. Timeout with nothing
// (matching) heard returns (0, false), a routine outcome rather than an
// error. Device errors pause briefly and count against the timeout.
func (c *Channel) WaitForCommand(timeout time.Duration, expected fsk.Command) (fsk.Command, bool) {
	start := c.clock.Now()
	deadline := start.Add(timeout)

	for {
		remaining := deadline.Sub(c.clock.Now())
		if remaining <= 0 {
			break
		}

		seconds := c.chunk
		if r := remaining.Seconds(); r < seconds {
			seconds = r
		}

		chunk, err := c.dev.Record(seconds, c.modem.Config().SampleRate)
		if err != nil {
			applog.Warnf("channel: recording failed: %v", err)
			c.clock.Sleep(retryPause)
			continue
		}
		if c.onChunk != nil {
			c.onChunk(chunk)
		}

		cmd, ok := c.modem.DecodeCommand(chunk)
		if !ok {
			continue
		}

		elapsed := c.clock.Now().Sub(start).Seconds()
		if expected == 0 || cmd == expected {
			applog.Infof("channel: received %v after %.1fs", cmd, elapsed)
			c.emit(Event{Type: "received", Command: cmd.String(), Elapsed: elapsed})
			return cmd, true
		}

		applog.Infof("channel: heard %v while waiting for %v, still listening", cmd, expected)
		c.emit(Event{Type: "ignored", Command: cmd.String(), Elapsed: elapsed})
	}

	applog.Debugf("channel: wait timed out after %s", timeout)
	return 0, false
}

// TestConnection sends PING and listens for PONG. The other rig's
// listener answers automatically, so a true result means both directions
// of the acoustic path work.
func (c *Channel) TestConnection(timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if !c.SendCommand(fsk.CommandPing, DefaultSendRetries) {
		return false
	}
	_, ok := c.WaitForCommand(timeout, fsk.CommandPong)
	return ok
}

// TriggerAndWait sends CAPTURE and listens for DONE. Captures on the
// microscope rig run long, hence the generous default deadline.
func (c *Channel) TriggerAndWait(timeout time.Duration) bool {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if !c.SendCommand(fsk.CommandCapture, DefaultSendRetries) {
		return false
	}
	_, ok := c.WaitForCommand(timeout, fsk.CommandDone)
	return ok
}

func (c *Channel) emit(ev Event) {
	if c.events == nil {
		return
	}
	if err := c.events.Send(ev); err != nil {
		applog.Debugf("channel: event sink rejected %s event: %v", ev.Type, err)
	}
}
