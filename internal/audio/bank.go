package audio

import (
	"math"
	"sync/atomic"
)

// Channels is the polyphony of each input bank.
const Channels = 16

type slot struct {
	held     atomic.Bool
	volts    atomic.Uint64
	velocity atomic.Uint32
}

// Bank is a set of held-note voltage slots. Press and Release are called from a
// single writer (the MIDI listener); the audio callback reads with Gather.
type Bank struct {
	slots [Channels]slot
	notes [Channels]int // writer side only, -1 when free
}

func NewBank() *Bank {
	b := &Bank{}
	for i := range b.notes {
		b.notes[i] = -1
	}
	return b
}

// NoteVolts converts a MIDI note to 1 V/octave with middle C (60) at 0 V.
func NoteVolts(note uint8) float64 {
	return (float64(note) - 60) / 12
}

// Press holds note at its 1 V/octave voltage. When every slot is busy the
// first one is stolen.
func (b *Bank) Press(note, velocity uint8) {
	b.PressVolts(int(note), NoteVolts(note), velocity)
}

// PressVolts holds an arbitrary voltage under the given key.
func (b *Bank) PressVolts(key int, volts float64, velocity uint8) {
	i := b.find(key)
	if i < 0 {
		i = b.find(-1)
	}
	if i < 0 {
		i = 0
	}
	b.notes[i] = key
	b.slots[i].volts.Store(math.Float64bits(volts))
	b.slots[i].velocity.Store(uint32(velocity))
	b.slots[i].held.Store(true)
}

func (b *Bank) Release(note uint8) {
	b.ReleaseKey(int(note))
}

func (b *Bank) ReleaseKey(key int) {
	if i := b.find(key); i >= 0 {
		b.notes[i] = -1
		b.slots[i].held.Store(false)
	}
}

func (b *Bank) ReleaseAll() {
	for i := range b.slots {
		b.notes[i] = -1
		b.slots[i].held.Store(false)
	}
}

func (b *Bank) find(key int) int {
	for i, n := range b.notes {
		if n == key {
			return i
		}
	}
	return -1
}

// Gather copies the held voltages into volts, in slot order, and records the
// slot of each in idx. It returns the number of held slots.
func (b *Bank) Gather(volts []float64, idx []int) int {
	n := 0
	for i := range b.slots {
		if n >= len(volts) {
			break
		}
		if !b.slots[i].held.Load() {
			continue
		}
		volts[n] = math.Float64frombits(b.slots[i].volts.Load())
		if idx != nil {
			idx[n] = i
		}
		n++
	}
	return n
}

// Held reports the number of held slots.
func (b *Bank) Held() int {
	n := 0
	for i := range b.slots {
		if b.slots[i].held.Load() {
			n++
		}
	}
	return n
}

func (b *Bank) velocity(i int) float64 {
	return float64(b.slots[i].velocity.Load()) / 127
}
