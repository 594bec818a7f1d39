package host

import (
	"fmt"
	"io"
	"os"
	"syscall"

	"golang.org/x/term"
)

// serialPort is a tty put in raw mode for as long as it is open.
type serialPort struct {
	*os.File
	fd    int
	state *term.State
}

// OpenSerial opens the tty at path, typically a USB serial adapter, in raw
// mode so that the device's bytes reach the reader unaltered. The line speed
// is set to baud, or left alone if baud is 0. Closing the port restores the
// previous terminal mode and speed. Files that are not terminals are opened
// as is.
func OpenSerial(path string, baud int) (io.ReadWriteCloser, error) {
	f, err := os.OpenFile(path, os.O_RDWR|syscall.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("cannot open serial port: %w", err)
	}

	// f.Fd would switch the file to blocking mode, and Close could then no
	// longer interrupt a pending Read.
	rc, err := f.SyscallConn()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("cannot access serial port: %w", err)
	}

	p := &serialPort{File: f, fd: -1}
	rc.Control(func(fd uintptr) { p.fd = int(fd) })

	if term.IsTerminal(p.fd) {
		p.state, err = term.MakeRaw(p.fd)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("cannot put %s in raw mode: %w", path, err)
		}

		if baud > 0 {
			if err := setSpeed(p.fd, baud); err != nil {
				p.Close()
				return nil, fmt.Errorf("cannot set %s to %d baud: %w", path, baud, err)
			}
		}
	}

	return p, nil
}

// Close restores the terminal mode and closes the port.
func (p *serialPort) Close() error {
	if p.state != nil {
		// The adapter may already be unplugged.
		_ = term.Restore(p.fd, p.state)
	}
	return p.File.Close()
}
