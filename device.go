// Package zemote implements the core of a learning infrared remote: it
// captures IR codes sent by other remotes, stores them against a fixed set of
// buttons and replays them on demand. A host drives it over a serial line
// protocol.
package zemote

import (
	"io"
	"log/slog"
	"time"
)

// SerialPort is the device end of the serial channel. Reads must never block:
// callers check Buffered before calling ReadByte.
type SerialPort interface {
	io.Writer
	// Buffered returns the number of bytes that can be read without
	// blocking.
	Buffered() int
	// ReadByte reads one buffered byte. It returns ErrNoData if nothing is
	// buffered.
	ReadByte() (byte, error)
}

// Receiver is the IR receiver hardware with its protocol decoders.
type Receiver interface {
	// Enable starts the receiver.
	Enable()
	// Decode returns the next decoded frame, if one is ready.
	Decode() (Decode, bool)
	// Resume re-arms the receiver after a decode. The receiver stops
	// receiving until Resume is called.
	Resume()
}

// Transmitter is the IR transmitter hardware, with one send operation per
// supported protocol.
type Transmitter interface {
	SendNEC(value uint32, bits uint8) error
	SendSony(value uint32, bits uint8) error
	SendRC5(value uint32, bits uint8) error
	SendRC6(value uint32, bits uint8) error
	SendDish(value uint32, bits uint8) error
	SendSharp(value uint32, bits uint8) error
	SendPanasonic(value uint32, bits uint8) error
}

// DefaultPollInterval is how long an idle capture waits between polls.
const DefaultPollInterval = time.Millisecond

// Device ties a Store to the serial channel and the IR hardware. It runs at
// most one capture or playback at a time.
type Device struct {
	Store       *Store
	Serial      SerialPort
	Receiver    Receiver
	Transmitter Transmitter

	// PollInterval is how long an idle capture waits before polling again.
	// Zero spins.
	PollInterval time.Duration
	// Sleep is used for the spacing between played codes. It defaults to
	// time.Sleep.
	Sleep func(time.Duration)

	logger *slog.Logger
}

// NewDevice creates a device with an empty store.
func NewDevice(serial SerialPort, rx Receiver, tx Transmitter, logger *slog.Logger) *Device {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Device{
		Store:        &Store{},
		Serial:       serial,
		Receiver:     rx,
		Transmitter:  tx,
		PollInterval: DefaultPollInterval,
		Sleep:        time.Sleep,
		logger:       logger,
	}
}

// Capture returns a capture of button. The capture has already cleared the
// button and enabled the receiver.
func (d *Device) Capture(button int) *Capture {
	c := NewCapture(d.Store, button, d.Serial, d.Receiver, d.logger)
	c.PollInterval = d.PollInterval
	return c
}

// Player returns a player reading from the device's store.
func (d *Device) Player() *Player {
	return &Player{
		Store:       d.Store,
		Transmitter: d.Transmitter,
		Sleep:       d.Sleep,
		logger:      d.logger,
	}
}
