// SPDX-License-Identifier: MIT
package channel

import (
	"fmt"
	"testing"
	"time"

	"airgap/internal/config"
	"airgap/internal/fsk"
)

// fakeClock advances only when something sleeps or the fake device runs.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time        { return c.now }
func (c *fakeClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

// fakeDevice simulates the audio hardware. Playing and recording advance
// the fake clock by the real-time duration they would block for.
type fakeDevice struct {
	clock *fakeClock

	played   [][]float64
	playErrs []error // consumed per Play call; nil entry means success

	recordings [][]float64 // consumed per Record call; empty queue yields silence
	recordErrs []error
}

func (d *fakeDevice) Play(samples []float64, sampleRate int) error {
	d.clock.now = d.clock.now.Add(time.Duration(float64(len(samples)) / float64(sampleRate) * float64(time.Second)))
	if len(d.playErrs) > 0 {
		err := d.playErrs[0]
		d.playErrs = d.playErrs[1:]
		if err != nil {
			return err
		}
	}
	d.played = append(d.played, samples)
	return nil
}

func (d *fakeDevice) Record(seconds float64, sampleRate int) ([]float64, error) {
	d.clock.now = d.clock.now.Add(time.Duration(seconds * float64(time.Second)))
	if len(d.recordErrs) > 0 {
		err := d.recordErrs[0]
		d.recordErrs = d.recordErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	if len(d.recordings) > 0 {
		rec := d.recordings[0]
		d.recordings = d.recordings[1:]
		return rec, nil
	}
	return make([]float64, int(seconds*float64(sampleRate))), nil
}

type captureEvents struct {
	events []Event
}

func (c *captureEvents) Send(v interface{}) error {
	if ev, ok := v.(Event); ok {
		c.events = append(c.events, ev)
	}
	return nil
}

func newTestChannel(t *testing.T) (*Channel, *fakeDevice, *fakeClock, *captureEvents) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1000, 0)}
	dev := &fakeDevice{clock: clock}
	events := &captureEvents{}
	modem := fsk.NewModem(config.DefaultFSK())
	ch := New(modem, dev, Options{
		Clock:        clock,
		Events:       events,
		ChunkSeconds: 2,
	})
	return ch, dev, clock, events
}

func TestSendCommand_FirstAttempt(t *testing.T) {
	ch, dev, _, events := newTestChannel(t)

	if !ch.SendCommand(fsk.CommandPing, 3) {
		t.Fatal("SendCommand returned false, want true")
	}
	if len(dev.played) != 1 {
		t.Fatalf("played %d frames, want 1", len(dev.played))
	}
	if len(dev.played[0]) != 66150 {
		t.Errorf("frame length = %d, want 66150", len(dev.played[0]))
	}
	if len(events.events) != 1 || events.events[0].Type != "sent" {
		t.Errorf("events = %+v, want single sent event", events.events)
	}
}

func TestSendCommand_RetriesThenSucceeds(t *testing.T) {
	ch, dev, clock, _ := newTestChannel(t)
	dev.playErrs = []error{fmt.Errorf("device busy"), fmt.Errorf("device busy"), nil}

	start := clock.Now()
	if !ch.SendCommand(fsk.CommandDone, 3) {
		t.Fatal("SendCommand returned false after recoverable failures")
	}
	if len(dev.played) != 1 {
		t.Errorf("played %d frames, want 1 successful", len(dev.played))
	}
	// Two failures mean two half-second pauses plus three playbacks.
	elapsed := clock.Now().Sub(start)
	if elapsed < 2*retryPause {
		t.Errorf("elapsed = %s, want at least two retry pauses", elapsed)
	}
}

func TestSendCommand_AllAttemptsFail(t *testing.T) {
	ch, dev, _, events := newTestChannel(t)
	dev.playErrs = []error{fmt.Errorf("e1"), fmt.Errorf("e2"), fmt.Errorf("e3")}

	if ch.SendCommand(fsk.CommandError, 3) {
		t.Fatal("SendCommand returned true, want false after exhausted retries")
	}
	if len(dev.played) != 0 {
		t.Errorf("played %d frames, want 0", len(dev.played))
	}
	if len(events.events) != 3 {
		t.Errorf("got %d events, want 3 send_failed", len(events.events))
	}
}

func TestWaitForCommand_DecodesFrame(t *testing.T) {
	ch, dev, _, _ := newTestChannel(t)
	modem := fsk.NewModem(config.DefaultFSK())
	dev.recordings = [][]float64{
		make([]float64, 88200), // first chunk: room quiet
		modem.EncodeCommand(fsk.CommandCapture),
	}

	cmd, ok := ch.WaitForCommand(30*time.Second, 0)
	if !ok || cmd != fsk.CommandCapture {
		t.Fatalf("WaitForCommand = (%v, %v), want (CAPTURE, true)", cmd, ok)
	}
}

func TestWaitForCommand_ExpectedFilterKeepsListening(t *testing.T) {
	ch, dev, _, events := newTestChannel(t)
	modem := fsk.NewModem(config.DefaultFSK())
	dev.recordings = [][]float64{
		modem.EncodeCommand(fsk.CommandPing), // not what we want
		modem.EncodeCommand(fsk.CommandPong),
	}

	cmd, ok := ch.WaitForCommand(30*time.Second, fsk.CommandPong)
	if !ok || cmd != fsk.CommandPong {
		t.Fatalf("WaitForCommand = (%v, %v), want (PONG, true)", cmd, ok)
	}

	var ignored, received int
	for _, ev := range events.events {
		switch ev.Type {
		case "ignored":
			ignored++
		case "received":
			received++
		}
	}
	if ignored != 1 || received != 1 {
		t.Errorf("events = %+v, want one ignored PING and one received PONG", events.events)
	}
}

func TestWaitForCommand_Timeout(t *testing.T) {
	ch, _, clock, _ := newTestChannel(t)

	start := clock.Now()
	cmd, ok := ch.WaitForCommand(7*time.Second, 0)
	if ok {
		t.Fatalf("WaitForCommand = (%v, true) on silence, want timeout", cmd)
	}
	if elapsed := clock.Now().Sub(start); elapsed < 7*time.Second {
		t.Errorf("returned after %s, want the full 7s timeout consumed", elapsed)
	}
}

func TestWaitForCommand_RecordErrorsAbsorbed(t *testing.T) {
	ch, dev, _, _ := newTestChannel(t)
	modem := fsk.NewModem(config.DefaultFSK())
	dev.recordErrs = []error{fmt.Errorf("mic unplugged"), fmt.Errorf("mic unplugged"), nil}
	dev.recordings = [][]float64{modem.EncodeCommand(fsk.CommandDone)}

	cmd, ok := ch.WaitForCommand(30*time.Second, fsk.CommandDone)
	if !ok || cmd != fsk.CommandDone {
		t.Fatalf("WaitForCommand = (%v, %v), want (DONE, true) despite device errors", cmd, ok)
	}
}

func TestWaitForCommand_OnChunk(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	dev := &fakeDevice{clock: clock}
	modem := fsk.NewModem(config.DefaultFSK())

	var chunks int
	ch := New(modem, dev, Options{
		Clock:        clock,
		ChunkSeconds: 2,
		OnChunk:      func([]float64) { chunks++ },
	})

	dev.recordings = [][]float64{
		make([]float64, 88200),
		modem.EncodeCommand(fsk.CommandPing),
	}
	if _, ok := ch.WaitForCommand(30*time.Second, 0); !ok {
		t.Fatal("WaitForCommand failed")
	}
	if chunks != 2 {
		t.Errorf("OnChunk called %d times, want 2", chunks)
	}
}

func TestTestConnection(t *testing.T) {
	ch, dev, _, _ := newTestChannel(t)
	modem := fsk.NewModem(config.DefaultFSK())
	dev.recordings = [][]float64{modem.EncodeCommand(fsk.CommandPong)}

	if !ch.TestConnection(10 * time.Second) {
		t.Fatal("TestConnection = false, want true with PONG queued")
	}

	// The frame on the wire must be a PING.
	if len(dev.played) != 1 {
		t.Fatalf("played %d frames, want 1", len(dev.played))
	}
	if cmd, ok := modem.DecodeCommand(dev.played[0]); !ok || cmd != fsk.CommandPing {
		t.Errorf("played frame decodes as (%v, %v), want (PING, true)", cmd, ok)
	}
}

func TestTestConnection_NoReply(t *testing.T) {
	ch, _, _, _ := newTestChannel(t)
	if ch.TestConnection(5 * time.Second) {
		t.Fatal("TestConnection = true with no reply, want false")
	}
}

func TestTriggerAndWait(t *testing.T) {
	ch, dev, _, _ := newTestChannel(t)
	modem := fsk.NewModem(config.DefaultFSK())
	dev.recordings = [][]float64{
		make([]float64, 88200), // capture still running
		modem.EncodeCommand(fsk.CommandDone),
	}

	if !ch.TriggerAndWait(60 * time.Second) {
		t.Fatal("TriggerAndWait = false, want true with DONE queued")
	}
	if cmd, ok := modem.DecodeCommand(dev.played[0]); !ok || cmd != fsk.CommandCapture {
		t.Errorf("played frame decodes as (%v, %v), want (CAPTURE, true)", cmd, ok)
	}
}
