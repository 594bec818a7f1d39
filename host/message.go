package host

import (
	"errors"

	"libdb.so/go-zemote"
)

// Telemetry is a code value echoed by the device while it is learning.
type Telemetry struct {
	// Value is the decoded value of the received IR frame.
	Value uint32
}

// Reply is the acknowledgment received after sending a command.
type Reply struct {
	// Command is the command character being acknowledged. A Program command
	// is acknowledged with zemote.CmdFinish or zemote.CmdFull.
	Command byte
	// Success is false if the device answered with an error line.
	Success bool
	// Data holds the lines the device sent before the acknowledgment, such
	// as button lengths or codes.
	Data []string
}

// Full reports whether the reply ends a capture that stopped because the
// button ran out of space.
func (r Reply) Full() bool {
	return r.Command == zemote.CmdFull
}

// ErrUnsuccessfulCommand is returned with a reply when a command was not
// successful.
var ErrUnsuccessfulCommand = errors.New("zemote: unsuccessful command")
