package host

import (
	"strconv"

	"libdb.so/go-zemote"
)

// Command describes a command that can be sent to the device.
type Command interface {
	// EncodeCommand encodes the command as a single line, without the
	// trailing newline.
	EncodeCommand() string
}

// Program puts the device in learning mode for a button. The button's
// previous codes are forgotten. The device answers once [Finish] is sent or
// the button is full.
type Program struct {
	Button int
}

// EncodeCommand implements the [Command] interface.
func (p Program) EncodeCommand() string {
	return string(rune(zemote.CmdProgram)) + strconv.Itoa(p.Button)
}

// Finish ends learning mode. It is never answered itself: the device
// acknowledges the pending [Program] instead.
type Finish struct{}

// EncodeCommand implements the [Command] interface.
func (Finish) EncodeCommand() string {
	return string(rune(zemote.CmdFinish))
}

// Test plays the codes of a button.
type Test struct {
	Button int
}

// EncodeCommand implements the [Command] interface.
func (t Test) EncodeCommand() string {
	return string(rune(zemote.CmdTest)) + strconv.Itoa(t.Button)
}

// List asks for the number of codes stored for every button.
type List struct{}

// EncodeCommand implements the [Command] interface.
func (List) EncodeCommand() string {
	return string(rune(zemote.CmdList))
}

// Info asks for the codes stored for a button.
type Info struct {
	Button int
}

// EncodeCommand implements the [Command] interface.
func (i Info) EncodeCommand() string {
	return string(rune(zemote.CmdInfo)) + strconv.Itoa(i.Button)
}

// answers reports whether a reply for the given command character answers
// cmd.
func answers(cmd Command, reply byte) bool {
	switch cmd.(type) {
	case Program:
		return reply == zemote.CmdFinish || reply == zemote.CmdFull || reply == zemote.CmdProgram
	default:
		enc := cmd.EncodeCommand()
		return enc != "" && enc[0] == reply
	}
}
