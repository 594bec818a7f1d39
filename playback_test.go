package zemote_test

import (
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/neilotoole/slogt"
	"libdb.so/go-zemote"
)

func newTestDevice(t *testing.T) (*zemote.Device, *fakeSerial, *fakeReceiver, *fakeTransmitter, *[]string) {
	var events []string
	serial := &fakeSerial{}
	rx := &fakeReceiver{}
	tx := &fakeTransmitter{events: &events}

	dev := zemote.NewDevice(serial, rx, tx, slogt.New(t))
	dev.PollInterval = 0
	dev.Sleep = func(d time.Duration) {
		events = append(events, "sleep "+d.String())
	}
	return dev, serial, rx, tx, &events
}

func TestPlayEmpty(t *testing.T) {
	dev, _, _, tx, events := newTestDevice(t)
	dev.Player().Play(0)
	assert.Zero(t, tx.sent)
	assert.Zero(t, *events)
}

func TestPlayUsesFirstProtocol(t *testing.T) {
	dev, _, _, tx, events := newTestDevice(t)
	assert.NoError(t, dev.Store.Append(5, zemote.Code{Protocol: zemote.Sony, Value: 0xA90, Bits: 12}))
	assert.NoError(t, dev.Store.Append(5, zemote.Code{Protocol: zemote.NEC, Value: 0xA2, Bits: 32}))
	assert.NoError(t, dev.Store.Append(5, zemote.Code{Protocol: zemote.RC5, Value: 0x0C, Bits: 12}))

	dev.Player().Play(5)

	assert.Equal(t, []sent{
		{zemote.Sony, 0xA90, 12},
		{zemote.Sony, 0xA2, 32},
		{zemote.Sony, 0x0C, 12},
	}, tx.sent)
	assert.Equal(t, []string{
		"SONY 0xA90 12",
		"sleep 40ms",
		"SONY 0xA2 32",
		"sleep 40ms",
		"SONY 0xC 12",
	}, *events)
}

func TestPlayEveryProtocol(t *testing.T) {
	for _, p := range []zemote.Protocol{
		zemote.NEC,
		zemote.Sony,
		zemote.RC5,
		zemote.RC6,
		zemote.Dish,
		zemote.Sharp,
		zemote.Panasonic,
	} {
		t.Run(p.String(), func(t *testing.T) {
			dev, _, _, tx, _ := newTestDevice(t)
			assert.NoError(t, dev.Store.Append(0, zemote.Code{Protocol: p, Value: 7, Bits: 15}))

			dev.Player().Play(0)
			assert.Equal(t, []sent{{p, 7, 15}}, tx.sent)
		})
	}
}

func TestPlayUnsupportedProtocol(t *testing.T) {
	dev, _, _, tx, events := newTestDevice(t)
	assert.NoError(t, dev.Store.Append(0, zemote.Code{Protocol: zemote.Unknown, Value: 1, Bits: 32}))
	assert.NoError(t, dev.Store.Append(0, zemote.Code{Protocol: zemote.NEC, Value: 2, Bits: 32}))

	dev.Player().Play(0)

	assert.Zero(t, tx.sent)
	assert.Equal(t, []string{"sleep 40ms"}, *events)
}

type failingTransmitter struct {
	fakeTransmitter
}

func (t *failingTransmitter) SendNEC(v uint32, b uint8) error {
	t.record(zemote.NEC, v, b)
	return errors.New("led disconnected")
}

func TestPlayContinuesAfterSendError(t *testing.T) {
	tx := &failingTransmitter{}
	dev := zemote.NewDevice(&fakeSerial{}, &fakeReceiver{}, tx, slogt.New(t))
	dev.Sleep = func(time.Duration) {}
	assert.NoError(t, dev.Store.Append(0, zemote.Code{Protocol: zemote.NEC, Value: 1, Bits: 32}))
	assert.NoError(t, dev.Store.Append(0, zemote.Code{Protocol: zemote.NEC, Value: 2, Bits: 32}))

	dev.Player().Play(0)
	assert.Equal(t, 2, len(tx.sent))
}

// Button 0 learns three NEC codes, the host stops the capture, and playing
// the button sends them back in order.
func TestLearnAndPlay(t *testing.T) {
	dev, serial, rx, tx, events := newTestDevice(t)

	c := dev.Capture(0)
	rx.push(nec(0xA2), nec(0xB4), nec(0xA2))
	for range 3 {
		c.Tick()
	}
	serial.send("F\n")
	assert.Equal(t, zemote.StoppedByHost, c.Tick())

	assert.Equal(t, 3, dev.Store.Len(0))
	lines := serial.lines()
	assert.Equal(t, "ok - F", lines[len(lines)-1])

	dev.Player().Play(0)
	assert.Equal(t, []sent{
		{zemote.NEC, 0xA2, 32},
		{zemote.NEC, 0xB4, 32},
		{zemote.NEC, 0xA2, 32},
	}, tx.sent)
	assert.Equal(t, []string{
		"NEC 0xA2 32",
		"sleep 40ms",
		"NEC 0xB4 32",
		"sleep 40ms",
		"NEC 0xA2 32",
	}, *events)
}
