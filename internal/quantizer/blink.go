package quantizer

const (
	blinkInterval = 0.5 // seconds per lit or dark phase
	blinkCycles   = 4
)

type blinkPhase int

const (
	blinkIdle blinkPhase = iota
	blinkLit
	blinkDark
)

// blinker sequences the error feedback: blinkCycles lit/dark cycles, then idle.
// It only advances at display rate and never touches audio state.
type blinker struct {
	phase   blinkPhase
	elapsed float64
	cycles  int
}

func (b *blinker) start() {
	*b = blinker{phase: blinkLit}
}

func (b *blinker) advance(dt float64) {
	if b.phase == blinkIdle {
		return
	}
	b.elapsed += dt
	for b.phase != blinkIdle && b.elapsed >= blinkInterval {
		b.elapsed -= blinkInterval
		switch b.phase {
		case blinkLit:
			b.phase = blinkDark
		case blinkDark:
			b.cycles++
			if b.cycles >= blinkCycles {
				*b = blinker{}
				return
			}
			b.phase = blinkLit
		}
	}
}

func (b *blinker) active() bool {
	return b.phase != blinkIdle
}

func (b *blinker) lit() bool {
	return b.phase == blinkLit
}
