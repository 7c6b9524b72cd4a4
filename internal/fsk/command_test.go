// SPDX-License-Identifier: MIT
package fsk

import "testing"

func TestCommandString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cmd  Command
		want string
	}{
		{CommandCapture, "CAPTURE"},
		{CommandDone, "DONE"},
		{CommandError, "ERROR"},
		{CommandPing, "PING"},
		{CommandPong, "PONG"},
		{Command(0), "Command(0)"},
		{Command(9), "Command(9)"},
	}
	for _, tt := range tests {
		if got := tt.cmd.String(); got != tt.want {
			t.Errorf("Command(%d).String() = %q, want %q", uint8(tt.cmd), got, tt.want)
		}
	}
}

func TestParseCommand(t *testing.T) {
	t.Parallel()

	for c := CommandCapture; c <= CommandPong; c++ {
		got, err := ParseCommand(c.String())
		if err != nil || got != c {
			t.Errorf("ParseCommand(%q) = (%v, %v), want (%v, nil)", c.String(), got, err, c)
		}
	}

	if got, err := ParseCommand("ping"); err != nil || got != CommandPing {
		t.Errorf("ParseCommand(ping) = (%v, %v), want (PING, nil)", got, err)
	}

	if _, err := ParseCommand("REBOOT"); err == nil {
		t.Error("ParseCommand(REBOOT) expected error, got nil")
	}
}

func TestCommandFromValue(t *testing.T) {
	t.Parallel()

	for v := uint8(0); v < 16; v++ {
		cmd, ok := commandFromValue(v)
		wantOK := v >= 1 && v <= 5
		if ok != wantOK {
			t.Errorf("commandFromValue(%d) ok = %v, want %v", v, ok, wantOK)
		}
		if ok && uint8(cmd) != v {
			t.Errorf("commandFromValue(%d) = %v", v, cmd)
		}
	}
}
