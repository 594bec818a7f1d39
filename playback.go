package zemote

import (
	"log/slog"
	"time"
)

// CodeSpacing is the pause between two played codes. Receivers drop codes that
// arrive closer together.
const CodeSpacing = 40 * time.Millisecond

// Player replays the codes recorded for a button.
type Player struct {
	Store       *Store
	Transmitter Transmitter
	// Sleep waits between codes. It defaults to time.Sleep.
	Sleep func(time.Duration)

	logger *slog.Logger
}

// Play sends every code recorded for button in capture order. The protocol of
// the first code is used for all of them; codes of an unsupported protocol are
// skipped. Nothing is reported back: a failed send is only logged.
func (p *Player) Play(button int) {
	codes := p.Store.Codes(button)
	if len(codes) == 0 {
		return
	}

	logger := p.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	send := p.sender(codes[0].Protocol)
	if send == nil {
		logger.Debug(
			"button has no supported protocol, skipping codes",
			"button", button,
			"protocol", codes[0].Protocol)
	}

	for i, code := range codes {
		if i > 0 {
			sleep(CodeSpacing)
		}
		if send != nil {
			if err := send(code.Value, code.Bits); err != nil {
				logger.Debug(
					"cannot send code",
					"button", button,
					"code", code,
					"err", err)
			}
		}
	}
}

func (p *Player) sender(protocol Protocol) func(uint32, uint8) error {
	tx := p.Transmitter
	switch protocol {
	case NEC:
		return tx.SendNEC
	case Sony:
		return tx.SendSony
	case RC5:
		return tx.SendRC5
	case RC6:
		return tx.SendRC6
	case Dish:
		return tx.SendDish
	case Sharp:
		return tx.SendSharp
	case Panasonic:
		return tx.SendPanasonic
	default:
		return nil
	}
}
