package zemote

import (
	"fmt"
	"io"
)

// Ack writes the success acknowledgment "ok - <cmd>" for cmd.
func Ack(w io.Writer, cmd byte) error {
	_, err := fmt.Fprintf(w, "ok - %c\n", cmd)
	return err
}

// Error writes the failure acknowledgment "error - <cmd>" for cmd.
func Error(w io.Writer, cmd byte) error {
	_, err := fmt.Fprintf(w, "error - %c\n", cmd)
	return err
}

func writeTelemetry(w io.Writer, value uint32) error {
	_, err := fmt.Fprintf(w, "0x%X\n", value)
	return err
}
