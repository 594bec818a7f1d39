package sim

import (
	"fmt"
	"os"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// PTY is a pseudo-terminal pair. The device end reads and writes Device;
// hosts open Path as if it were a USB serial adapter.
type PTY struct {
	Device *os.File
	Path   string

	tty *os.File
}

// OpenPTY opens a new pseudo-terminal. The terminal end is kept open so that
// the device end does not see a hangup before a host connects.
func OpenPTY() (*PTY, error) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("cannot open pty: %w", err)
	}

	// Without raw mode the line discipline echoes the device's output back
	// to it until a host connects.
	if _, err := term.MakeRaw(int(tty.Fd())); err != nil {
		tty.Close()
		ptmx.Close()
		return nil, fmt.Errorf("cannot put pty in raw mode: %w", err)
	}

	return &PTY{
		Device: ptmx,
		Path:   tty.Name(),
		tty:    tty,
	}, nil
}

// Close closes both ends.
func (p *PTY) Close() error {
	err1 := p.tty.Close()
	err2 := p.Device.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
