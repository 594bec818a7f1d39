package zemote

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Commands accepted by [Device.Serve]. Each is sent as a single line.
const (
	// CmdProgram, followed by a button index, captures codes into a button.
	CmdProgram = 'P'
	// CmdTest, followed by a button index, plays a button.
	CmdTest = 'T'
	// CmdList lists the number of codes of every button.
	CmdList = 'L'
	// CmdInfo, followed by a button index, lists the codes of a button.
	CmdInfo = 'G'
)

// maxCommandLen bounds a command line; longer lines are answered with an
// error and not run.
const maxCommandLen = 16

// ErrSerialClosed is returned by Serve when the serial port stops delivering
// data.
var ErrSerialClosed = errors.New("zemote: serial port closed")

// Serve reads commands from the serial port and runs them one at a time until
// ctx is done or the port closes. A capture started by CmdProgram runs inside
// Serve, so it reads the host's stop command from the same port.
func (d *Device) Serve(ctx context.Context) error {
	var closed <-chan struct{}
	if s, ok := d.Serial.(interface{ Done() <-chan struct{} }); ok {
		closed = s.Done()
	}

	var tick <-chan time.Time
	if d.PollInterval > 0 {
		ticker := time.NewTicker(d.PollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	line := make([]byte, 0, maxCommandLen)
	var overlong bool

	for {
		for d.Serial.Buffered() > 0 {
			c, err := d.Serial.ReadByte()
			if err != nil {
				break
			}

			switch c {
			case '\r':
				continue
			case '\n':
				if len(line) == 0 {
					continue
				}
				if overlong {
					d.logger.Debug(
						"command too long",
						"command", string(line))
					d.replyError(line[0])
				} else if err := d.dispatch(ctx, line); err != nil {
					return err
				}
				line = line[:0]
				overlong = false
			default:
				if len(line) < maxCommandLen {
					line = append(line, c)
				} else {
					overlong = true
				}
			}
		}

		if tick == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-closed:
				if d.Serial.Buffered() == 0 {
					return ErrSerialClosed
				}
			default:
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-closed:
			if d.Serial.Buffered() == 0 {
				return ErrSerialClosed
			}
		case <-tick:
		}
	}
}

// dispatch runs one command line. Only context errors are returned; every
// other failure is answered on the serial port.
func (d *Device) dispatch(ctx context.Context, line []byte) error {
	cmd := line[0]
	logger := d.logger.With("command", string(line))
	logger.Debug("command received")

	switch cmd {
	case CmdProgram:
		button, ok := parseButton(line[1:])
		if !ok {
			d.replyError(cmd)
			return nil
		}
		state, err := d.Capture(button).Run(ctx)
		if err != nil {
			return fmt.Errorf("capture of button %d interrupted in state %s: %w", button, state, err)
		}

	case CmdTest:
		button, ok := parseButton(line[1:])
		if !ok {
			d.replyError(cmd)
			return nil
		}
		d.Player().Play(button)
		d.replyOK(cmd)

	case CmdList:
		if len(line) != 1 {
			d.replyError(cmd)
			return nil
		}
		for _, n := range d.Store.Lens() {
			d.writeLine(strconv.Itoa(n))
		}
		d.replyOK(cmd)

	case CmdInfo:
		button, ok := parseButton(line[1:])
		if !ok {
			d.replyError(cmd)
			return nil
		}
		for _, code := range d.Store.Codes(button) {
			d.writeLine(code.String())
		}
		d.replyOK(cmd)

	default:
		// CmdFinish outside of a capture ends up here too.
		logger.Debug("unsupported command")
		d.replyError(cmd)
	}

	return nil
}

// parseButton accepts decimal digits only.
func parseButton(b []byte) (int, bool) {
	if len(b) == 0 {
		return 0, false
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(string(b))
	if err != nil || !ValidButton(n) {
		return 0, false
	}
	return n, true
}

func (d *Device) replyOK(cmd byte) {
	if err := Ack(d.Serial, cmd); err != nil {
		d.logger.Debug(
			"cannot write ack",
			"err", err)
	}
}

func (d *Device) replyError(cmd byte) {
	if err := Error(d.Serial, cmd); err != nil {
		d.logger.Debug(
			"cannot write error",
			"err", err)
	}
}

func (d *Device) writeLine(s string) {
	if _, err := fmt.Fprintln(d.Serial, s); err != nil {
		d.logger.Debug(
			"cannot write line",
			"err", err)
	}
}
