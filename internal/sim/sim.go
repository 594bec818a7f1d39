// Package sim provides simulated IR hardware so a zemote device can run on a
// PC without a receiver or an IR LED.
package sim

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"libdb.so/go-zemote"
)

// Receiver is a [zemote.Receiver] whose frames are pushed by the caller. It
// is safe for concurrent use.
type Receiver struct {
	mu      sync.Mutex
	frames  []zemote.Decode
	enabled bool
	armed   bool
}

var _ zemote.Receiver = (*Receiver)(nil)

// Push queues frames to be decoded.
func (r *Receiver) Push(frames ...zemote.Decode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frames...)
}

// Pending returns the number of frames not decoded yet.
func (r *Receiver) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Enable implements [zemote.Receiver].
func (r *Receiver) Enable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = true
	r.armed = true
}

// Decode implements [zemote.Receiver]. Like real hardware, nothing is decoded
// before Enable or between a decode and the following Resume.
func (r *Receiver) Decode() (zemote.Decode, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled || !r.armed || len(r.frames) == 0 {
		return zemote.Decode{}, false
	}
	d := r.frames[0]
	r.frames = r.frames[1:]
	r.armed = false
	return d, true
}

// Resume implements [zemote.Receiver].
func (r *Receiver) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.armed = true
}

// Transmitter is a [zemote.Transmitter] that logs and records every send. It
// is safe for concurrent use.
type Transmitter struct {
	logger *slog.Logger

	mu   sync.Mutex
	sent []zemote.Code
}

var _ zemote.Transmitter = (*Transmitter)(nil)

// NewTransmitter creates a transmitter logging to logger.
func NewTransmitter(logger *slog.Logger) *Transmitter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Transmitter{logger: logger}
}

// Sent returns every code sent so far.
func (t *Transmitter) Sent() []zemote.Code {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]zemote.Code(nil), t.sent...)
}

func (t *Transmitter) send(p zemote.Protocol, value uint32, bits uint8) error {
	code := zemote.Code{Protocol: p, Value: value, Bits: bits}

	t.mu.Lock()
	t.sent = append(t.sent, code)
	t.mu.Unlock()

	t.logger.Info(
		"ir send",
		"code", code)
	return nil
}

func (t *Transmitter) SendNEC(v uint32, b uint8) error   { return t.send(zemote.NEC, v, b) }
func (t *Transmitter) SendSony(v uint32, b uint8) error  { return t.send(zemote.Sony, v, b) }
func (t *Transmitter) SendRC5(v uint32, b uint8) error   { return t.send(zemote.RC5, v, b) }
func (t *Transmitter) SendRC6(v uint32, b uint8) error   { return t.send(zemote.RC6, v, b) }
func (t *Transmitter) SendDish(v uint32, b uint8) error  { return t.send(zemote.Dish, v, b) }
func (t *Transmitter) SendSharp(v uint32, b uint8) error { return t.send(zemote.Sharp, v, b) }
func (t *Transmitter) SendPanasonic(v uint32, b uint8) error {
	return t.send(zemote.Panasonic, v, b)
}

// FeedFrames reads one code per line from r, formatted like "NEC 0xA2 32",
// and pushes it to rx until r is exhausted or ctx is done. Blank lines and
// lines starting with '#' are skipped; unparseable lines are logged and
// skipped.
func FeedFrames(ctx context.Context, r io.Reader, rx *Receiver, logger *slog.Logger) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		code, err := zemote.ParseCode(line)
		if err != nil {
			logger.Warn(
				"ignoring unparseable frame",
				"line", line,
				"err", err)
			continue
		}

		rx.Push(zemote.Decode{
			Protocol: code.Protocol,
			Value:    code.Value,
			Bits:     int(code.Bits),
		})
		logger.Debug(
			"frame queued",
			"code", code)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("cannot read frames: %w", err)
	}
	return nil
}
