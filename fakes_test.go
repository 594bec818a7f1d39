package zemote_test

import (
	"bytes"
	"strings"

	"libdb.so/go-zemote"
)

type fakeSerial struct {
	in  bytes.Buffer
	out bytes.Buffer
}

func (s *fakeSerial) Buffered() int { return s.in.Len() }

func (s *fakeSerial) ReadByte() (byte, error) {
	if s.in.Len() == 0 {
		return 0, zemote.ErrNoData
	}
	return s.in.ReadByte()
}

func (s *fakeSerial) Write(b []byte) (int, error) { return s.out.Write(b) }

func (s *fakeSerial) send(str string) { s.in.WriteString(str) }

func (s *fakeSerial) lines() []string {
	out := strings.TrimSuffix(s.out.String(), "\n")
	if out == "" {
		return nil
	}
	return strings.Split(out, "\n")
}

type fakeReceiver struct {
	frames  []zemote.Decode
	enabled int
	resumed int
	decoded int
}

func (r *fakeReceiver) Enable() { r.enabled++ }

func (r *fakeReceiver) Decode() (zemote.Decode, bool) {
	// A receiver that was not resumed after its last decode receives
	// nothing.
	if r.decoded != r.resumed || len(r.frames) == 0 {
		return zemote.Decode{}, false
	}
	d := r.frames[0]
	r.frames = r.frames[1:]
	r.decoded++
	return d, true
}

func (r *fakeReceiver) Resume() { r.resumed++ }

func (r *fakeReceiver) push(ds ...zemote.Decode) { r.frames = append(r.frames, ds...) }

type sent struct {
	Protocol zemote.Protocol
	Value    uint32
	Bits     uint8
}

type fakeTransmitter struct {
	sent []sent
	// events interleaves sends and sleeps, e.g. "NEC 0xA2", "sleep 40ms".
	events *[]string
}

func (t *fakeTransmitter) record(p zemote.Protocol, value uint32, bits uint8) error {
	t.sent = append(t.sent, sent{p, value, bits})
	if t.events != nil {
		*t.events = append(*t.events, zemote.Code{Protocol: p, Value: value, Bits: bits}.String())
	}
	return nil
}

func (t *fakeTransmitter) SendNEC(v uint32, b uint8) error   { return t.record(zemote.NEC, v, b) }
func (t *fakeTransmitter) SendSony(v uint32, b uint8) error  { return t.record(zemote.Sony, v, b) }
func (t *fakeTransmitter) SendRC5(v uint32, b uint8) error   { return t.record(zemote.RC5, v, b) }
func (t *fakeTransmitter) SendRC6(v uint32, b uint8) error   { return t.record(zemote.RC6, v, b) }
func (t *fakeTransmitter) SendDish(v uint32, b uint8) error  { return t.record(zemote.Dish, v, b) }
func (t *fakeTransmitter) SendSharp(v uint32, b uint8) error { return t.record(zemote.Sharp, v, b) }
func (t *fakeTransmitter) SendPanasonic(v uint32, b uint8) error {
	return t.record(zemote.Panasonic, v, b)
}

func nec(value uint32) zemote.Decode {
	return zemote.Decode{Protocol: zemote.NEC, Value: value, Bits: 32}
}

func sony(value uint32) zemote.Decode {
	return zemote.Decode{Protocol: zemote.Sony, Value: value, Bits: 12}
}
