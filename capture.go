package zemote

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"time"
)

// CaptureState is the state of a [Capture].
type CaptureState uint8

const (
	// AwaitingInput is the initial state: the capture is polling the serial
	// port and the receiver.
	AwaitingInput CaptureState = iota
	// StoppedByHost means the host sent the stop command.
	StoppedByHost
	// StoppedFull means the button reached CodesPerButton codes.
	StoppedFull
)

func (s CaptureState) String() string {
	switch s {
	case AwaitingInput:
		return "awaiting input"
	case StoppedByHost:
		return "stopped by host"
	case StoppedFull:
		return "stopped full"
	default:
		return "CaptureState(" + strconv.Itoa(int(s)) + ")"
	}
}

// Done reports whether s is a terminal state.
func (s CaptureState) Done() bool {
	return s != AwaitingInput
}

const (
	// CmdFinish is sent by the host to stop a capture, followed by a newline.
	CmdFinish = 'F'
	// CmdFull acknowledges a capture that stopped because the button is
	// full.
	CmdFull = 'B'
)

// Capture records IR codes into one button until the host stops it or the
// button is full.
type Capture struct {
	// PollInterval is how long Run waits after a tick that found nothing to
	// do. Zero spins.
	PollInterval time.Duration

	store  *Store
	button int
	serial SerialPort
	rx     Receiver
	state  CaptureState
	logger *slog.Logger
}

// NewCapture starts capturing into button: the receiver is enabled and the
// button's codes are cleared.
func NewCapture(store *Store, button int, serial SerialPort, rx Receiver, logger *slog.Logger) *Capture {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	rx.Enable()
	store.BeginCapture(button)

	return &Capture{
		PollInterval: DefaultPollInterval,
		store:        store,
		button:       button,
		serial:       serial,
		rx:           rx,
		state:        AwaitingInput,
		logger:       logger.With("button", button),
	}
}

// State returns the current state.
func (c *Capture) State() CaptureState {
	return c.state
}

// Tick polls the serial port and then the receiver once.
func (c *Capture) Tick() CaptureState {
	state, _ := c.tick()
	return state
}

// tick returns the new state and whether any input was consumed.
func (c *Capture) tick() (CaptureState, bool) {
	if c.state.Done() {
		return c.state, false
	}

	var busy bool

	// The stop command takes precedence over a frame arriving in the same
	// tick.
	if c.serial.Buffered() >= 2 {
		busy = true
		b1, err1 := c.serial.ReadByte()
		b2, err2 := c.serial.ReadByte()
		if err1 == nil && err2 == nil && b1 == CmdFinish && b2 == '\n' {
			c.finish(StoppedByHost, CmdFinish)
			return c.state, busy
		}
		c.logger.Debug(
			"discarding unexpected bytes during capture",
			"bytes", []byte{b1, b2})
	}

	if d, ok := c.rx.Decode(); ok {
		busy = true
		if d.Bits > 0 && d.Bits <= math.MaxUint8 {
			c.record(d)
		}
		c.rx.Resume()
	}

	if c.store.Len(c.button) >= CodesPerButton {
		c.finish(StoppedFull, CmdFull)
	}

	return c.state, busy
}

func (c *Capture) record(d Decode) {
	code := d.Code()
	if err := c.store.Append(c.button, code); err != nil {
		// Only reached when the button is already full, which the capacity
		// check ends right after.
		c.logger.Debug(
			"code not recorded",
			"code", code,
			"err", err)
	} else {
		c.logger.Debug(
			"code recorded",
			"code", code,
			"count", c.store.Len(c.button))
	}

	if err := writeTelemetry(c.serial, d.Value); err != nil {
		c.logger.Debug(
			"cannot write capture telemetry",
			"err", err)
	}
}

func (c *Capture) finish(state CaptureState, ack byte) {
	c.state = state
	if err := Ack(c.serial, ack); err != nil {
		c.logger.Debug(
			"cannot write capture ack",
			"err", err)
	}
	c.logger.Info(
		"capture finished",
		"state", state,
		"count", c.store.Len(c.button))
}

// Run ticks until the capture reaches a terminal state or ctx is done. There
// is no timeout: if the host never stops it and the button never fills up,
// Run polls until ctx is canceled.
func (c *Capture) Run(ctx context.Context) (CaptureState, error) {
	var ticker *time.Ticker
	if c.PollInterval > 0 {
		ticker = time.NewTicker(c.PollInterval)
		defer ticker.Stop()
	}

	for {
		state, busy := c.tick()
		if state.Done() {
			return state, nil
		}

		if busy || ticker == nil {
			if err := ctx.Err(); err != nil {
				return state, err
			}
			continue
		}

		select {
		case <-ctx.Done():
			return state, ctx.Err()
		case <-ticker.C:
		}
	}
}
