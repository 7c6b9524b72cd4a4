// SPDX-License-Identifier: MIT
/*
Package fsk implements the acoustic frame codec: a closed set of 4-bit
commands carried as frequency-shift-keyed tones. A frame is a preamble
tone, four command-bit tones, four checksum-bit tones, and a trailing
silence. Decoding scans a captured recording for the preamble and
classifies the eight tone windows that follow it.
*/
package fsk

import (
	"fmt"
	"strings"
)

// Command is one of the discrete messages the link can carry. The zero
// value is not a valid command and can never be produced by a decode.
type Command uint8

const (
	CommandCapture Command = 1 // ask the rig to run a capture
	CommandDone    Command = 2 // capture finished
	CommandError   Command = 3 // remote failure
	CommandPing    Command = 4 // link test request
	CommandPong    Command = 5 // link test reply
)

// commandValueBits is the width of the command field on the wire. With a
// checksum nibble of equal width, a frame carries 8 data tones.
const commandValueBits = 4

func (c Command) String() string {
	switch c {
	case CommandCapture:
		return "CAPTURE"
	case CommandDone:
		return "DONE"
	case CommandError:
		return "ERROR"
	case CommandPing:
		return "PING"
	case CommandPong:
		return "PONG"
	default:
		return fmt.Sprintf("Command(%d)", uint8(c))
	}
}

// commandFromValue maps a decoded 4-bit value back to a Command.
// Zero and anything above CommandPong are rejected.
func commandFromValue(v uint8) (Command, bool) {
	if v >= uint8(CommandCapture) && v <= uint8(CommandPong) {
		return Command(v), true
	}
	return 0, false
}

// ParseCommand resolves a command name as used on the CLI. Matching is
// case-insensitive.
func ParseCommand(name string) (Command, error) {
	upper := strings.ToUpper(name)
	for c := CommandCapture; c <= CommandPong; c++ {
		if c.String() == upper {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown command %q", name)
}
