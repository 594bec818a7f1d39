package zemote_test

import (
	"context"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/neilotoole/slogt"
	"libdb.so/go-zemote"
)

type captureHarness struct {
	store  *zemote.Store
	serial *fakeSerial
	rx     *fakeReceiver
}

func newCaptureHarness() *captureHarness {
	return &captureHarness{
		store:  &zemote.Store{},
		serial: &fakeSerial{},
		rx:     &fakeReceiver{},
	}
}

func (h *captureHarness) start(t *testing.T, button int) *zemote.Capture {
	return zemote.NewCapture(h.store, button, h.serial, h.rx, slogt.New(t))
}

func TestCaptureStartClearsButton(t *testing.T) {
	h := newCaptureHarness()
	assert.NoError(t, h.store.Append(3, zemote.Code{Protocol: zemote.NEC, Value: 1, Bits: 32}))

	c := h.start(t, 3)
	assert.Equal(t, zemote.AwaitingInput, c.State())
	assert.Equal(t, 0, h.store.Len(3))
	assert.Equal(t, 1, h.rx.enabled)
}

func TestCaptureStoppedByHost(t *testing.T) {
	h := newCaptureHarness()
	c := h.start(t, 0)

	h.rx.push(nec(0xA2), nec(0xB4), nec(0xA2))
	for i := 0; i < 3; i++ {
		assert.Equal(t, zemote.AwaitingInput, c.Tick())
	}

	h.serial.send("F\n")
	assert.Equal(t, zemote.StoppedByHost, c.Tick())

	assert.Equal(t, 3, h.store.Len(0))
	assert.Equal(t, []zemote.Code{
		{Protocol: zemote.NEC, Value: 0xA2, Bits: 32},
		{Protocol: zemote.NEC, Value: 0xB4, Bits: 32},
		{Protocol: zemote.NEC, Value: 0xA2, Bits: 32},
	}, h.store.Codes(0))
	assert.Equal(t, []string{"0xA2", "0xB4", "0xA2", "ok - F"}, h.serial.lines())
	assert.Equal(t, 3, h.rx.resumed)
}

func TestCaptureStopTakesPrecedence(t *testing.T) {
	h := newCaptureHarness()
	c := h.start(t, 0)

	h.rx.push(nec(0xA2))
	h.serial.send("F\n")

	assert.Equal(t, zemote.StoppedByHost, c.Tick())
	assert.Equal(t, 0, h.store.Len(0))
	assert.Equal(t, 0, h.rx.decoded)
	assert.Equal(t, []string{"ok - F"}, h.serial.lines())
}

func TestCaptureStoppedFull(t *testing.T) {
	h := newCaptureHarness()
	c := h.start(t, 1)

	for i := 0; i < zemote.CodesPerButton+1; i++ {
		h.rx.push(sony(uint32(0x100 + i)))
	}

	var state zemote.CaptureState
	for i := 0; i < zemote.CodesPerButton; i++ {
		state = c.Tick()
	}
	assert.Equal(t, zemote.StoppedFull, state)
	assert.Equal(t, zemote.CodesPerButton, h.store.Len(1))

	lines := h.serial.lines()
	assert.Equal(t, zemote.CodesPerButton+1, len(lines))
	assert.Equal(t, "ok - B", lines[len(lines)-1])

	// The 9th frame is never processed.
	assert.Equal(t, zemote.StoppedFull, c.Tick())
	assert.Equal(t, 1, len(h.rx.frames))
	assert.Equal(t, zemote.CodesPerButton, h.store.Len(1))
}

func TestCaptureDropsEmptyFrames(t *testing.T) {
	h := newCaptureHarness()
	c := h.start(t, 0)

	h.rx.push(zemote.Decode{Protocol: zemote.Unknown, Value: 0xFFFFFFFF}, nec(0xA2))
	c.Tick()
	c.Tick()

	assert.Equal(t, []zemote.Code{{Protocol: zemote.NEC, Value: 0xA2, Bits: 32}}, h.store.Codes(0))
	assert.Equal(t, []string{"0xA2"}, h.serial.lines())
	assert.Equal(t, 2, h.rx.resumed, "receiver resumed after every decode")
}

func TestCaptureDropsOutOfRangeBits(t *testing.T) {
	h := newCaptureHarness()
	c := h.start(t, 0)

	h.rx.push(
		zemote.Decode{Protocol: zemote.NEC, Value: 0x1, Bits: -1},
		zemote.Decode{Protocol: zemote.NEC, Value: 0x2, Bits: 256},
		zemote.Decode{Protocol: zemote.NEC, Value: 0x3, Bits: 255},
	)
	c.Tick()
	c.Tick()
	c.Tick()

	assert.Equal(t, []zemote.Code{{Protocol: zemote.NEC, Value: 0x3, Bits: 255}}, h.store.Codes(0))
	assert.Equal(t, []string{"0x3"}, h.serial.lines())
	assert.Equal(t, 3, h.rx.resumed)
}

func TestCaptureDiscardsUnknownBytes(t *testing.T) {
	h := newCaptureHarness()
	c := h.start(t, 0)

	// A stray byte desynchronizes the stream: "XF" and "\n" are consumed
	// without stopping the capture.
	h.serial.send("XF\n")
	assert.Equal(t, zemote.AwaitingInput, c.Tick())
	assert.Equal(t, 1, h.serial.Buffered())
	assert.Equal(t, zemote.AwaitingInput, c.Tick())
	assert.Equal(t, 1, h.serial.Buffered(), "a single byte is left alone")

	h.serial.send("F\n")
	assert.Equal(t, zemote.AwaitingInput, c.Tick(), "\\nF is not a stop command")
	assert.Equal(t, 1, h.serial.Buffered())
	assert.Equal(t, zemote.AwaitingInput, c.Tick())

	h.serial.send("\n")
	// Remaining "\n" + "\n".
	assert.Equal(t, zemote.AwaitingInput, c.Tick())
	assert.Equal(t, 0, h.serial.Buffered())
	assert.Zero(t, h.serial.lines())
}

func TestCaptureRun(t *testing.T) {
	h := newCaptureHarness()
	c := h.start(t, 0)
	c.PollInterval = 0

	h.rx.push(nec(0x1), nec(0x2))
	h.serial.send("LF\n")
	// "LF" is discarded, leaving a lone "\n" that never forms a pair: the
	// button fills up instead.
	for i := 0; i < zemote.CodesPerButton; i++ {
		h.rx.push(nec(uint32(0x10 + i)))
	}

	state, err := c.Run(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, zemote.StoppedFull, state)
	assert.Equal(t, zemote.CodesPerButton, h.store.Len(0))
}

func TestCaptureRunCanceled(t *testing.T) {
	h := newCaptureHarness()
	c := h.start(t, 0)
	c.PollInterval = time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	state, err := c.Run(ctx)
	assert.IsError(t, err, context.DeadlineExceeded)
	assert.Equal(t, zemote.AwaitingInput, state)
	assert.Zero(t, h.serial.lines())
}
