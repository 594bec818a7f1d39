package zemote

import "errors"

const (
	// NumButtons is the number of physical buttons, including channels.
	NumButtons = 9
	// CodesPerButton is how many codes a single button can hold.
	CodesPerButton = 8
)

var (
	// ErrButtonFull is returned when appending to a button that already holds
	// CodesPerButton codes.
	ErrButtonFull = errors.New("zemote: button is full")
	// ErrEmptyCode is returned when appending a code with no bits.
	ErrEmptyCode = errors.New("zemote: code has no bits")
	// ErrInvalidButton is returned for a button index outside of
	// [0, NumButtons).
	ErrInvalidButton = errors.New("zemote: invalid button")
)

type slot struct {
	codes [CodesPerButton]Code
	count int
}

// Store holds the learned codes of every button. The zero value is an empty
// store. A Store is not safe for concurrent use; only one capture or playback
// may touch it at a time.
type Store struct {
	slots [NumButtons]slot
}

// ValidButton reports whether button is a valid button index.
func ValidButton(button int) bool {
	return button >= 0 && button < NumButtons
}

// Codes returns a copy of the codes recorded for button, in capture order.
func (s *Store) Codes(button int) []Code {
	if !ValidButton(button) {
		return nil
	}
	sl := &s.slots[button]
	out := make([]Code, sl.count)
	copy(out, sl.codes[:sl.count])
	return out
}

// Len returns the number of codes recorded for button.
func (s *Store) Len(button int) int {
	if !ValidButton(button) {
		return 0
	}
	return s.slots[button].count
}

// Lens returns the number of codes recorded for every button.
func (s *Store) Lens() [NumButtons]int {
	var lens [NumButtons]int
	for i := range s.slots {
		lens[i] = s.slots[i].count
	}
	return lens
}

// BeginCapture forgets everything recorded for button.
func (s *Store) BeginCapture(button int) {
	if !ValidButton(button) {
		return
	}
	s.slots[button].count = 0
}

// Append records code as the next code of button. Existing codes are never
// overwritten: a full button returns ErrButtonFull and stays unchanged.
func (s *Store) Append(button int, code Code) error {
	if !ValidButton(button) {
		return ErrInvalidButton
	}
	if code.Bits == 0 {
		return ErrEmptyCode
	}

	sl := &s.slots[button]
	if sl.count >= CodesPerButton {
		return ErrButtonFull
	}

	sl.codes[sl.count] = code
	sl.count++
	return nil
}
