package zemote

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Protocol identifies the encoding scheme of an IR transmission.
type Protocol uint8

const (
	Unknown Protocol = iota
	NEC
	Sony
	RC5
	RC6
	Dish
	Sharp
	Panasonic
)

var protocolNames = [...]string{
	Unknown:   "UNKNOWN",
	NEC:       "NEC",
	Sony:      "SONY",
	RC5:       "RC5",
	RC6:       "RC6",
	Dish:      "DISH",
	Sharp:     "SHARP",
	Panasonic: "PANASONIC",
}

func (p Protocol) String() string {
	if int(p) < len(protocolNames) {
		return protocolNames[p]
	}
	return "PROTOCOL(" + strconv.Itoa(int(p)) + ")"
}

// ParseProtocol parses a protocol name as returned by [Protocol.String]. The
// match is case-insensitive.
func ParseProtocol(s string) (Protocol, error) {
	for p, name := range protocolNames {
		if strings.EqualFold(s, name) {
			return Protocol(p), nil
		}
	}
	return Unknown, fmt.Errorf("zemote: unknown protocol %q", s)
}

// Code is one decoded IR transmission, stripped down to what is needed to
// send it again.
type Code struct {
	Protocol Protocol
	Value    uint32
	// Bits is the number of significant bits in Value. A Code with zero
	// bits carries nothing and is never stored.
	Bits uint8
}

// String formats the code as "NEC 0xA2 32".
func (c Code) String() string {
	return fmt.Sprintf("%s 0x%X %d", c.Protocol, c.Value, c.Bits)
}

// ParseCode parses a code formatted by [Code.String].
func ParseCode(s string) (Code, error) {
	w := strings.Fields(s)
	if len(w) != 3 {
		return Code{}, fmt.Errorf("zemote: code %q must have 3 fields", s)
	}

	p, err := ParseProtocol(w[0])
	if err != nil {
		return Code{}, err
	}

	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(w[1]), "0x"), 16, 32)
	if err != nil {
		return Code{}, fmt.Errorf("zemote: code value %q not parseable as hex: %w", w[1], err)
	}

	bits, err := strconv.ParseUint(w[2], 10, 8)
	if err != nil {
		return Code{}, fmt.Errorf("zemote: code bit length %q not parseable: %w", w[2], err)
	}

	return Code{Protocol: p, Value: uint32(v), Bits: uint8(bits)}, nil
}

// Decode is a raw decode result as produced by the IR receiver. Only
// Protocol, Value and Bits survive into a [Code].
type Decode struct {
	Protocol Protocol
	Value    uint32
	Bits     int
	// Address is only filled in by some protocols (e.g. Panasonic).
	Address uint32
	// RawLen is the number of mark/space timings the decoder consumed.
	RawLen int
	// Overflow is set when the receiver's timing buffer overflowed.
	Overflow bool
}

// Code returns the useful part of the decode result. Bits outside 0..255 are
// clamped.
func (d Decode) Code() Code {
	bits := min(max(d.Bits, 0), math.MaxUint8)
	return Code{
		Protocol: d.Protocol,
		Value:    d.Value,
		Bits:     uint8(bits),
	}
}
