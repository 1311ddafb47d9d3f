// Package hw describes the peripherals the audio pipeline drives and provides
// software stand-ins for them.
package hw

import "sync"

// PulseGenerator is a PWM peripheral that streams duty values from one of two
// sequence slots and flags each slot when it reaches the end.
type PulseGenerator interface {
	SetCounterTop(top uint16)
	SetSequence(slot int, buf []uint16)
	StartSequence(slot int)
	Completed(slot int) bool
	ClearCompleted(slot int)
	Stop()
}

// TickTimer is a low frequency timer that fires at 32768 / (prescaler + 1) Hz
type TickTimer interface {
	SetPrescaler(prescaler uint16)
	Start()
	Stop()
	ClearTick()
}

type Button int

const (
	ButtonA Button = iota // raise
	ButtonB               // lower
)

func (b Button) String() string {
	if b == ButtonA {
		return "A"
	}
	return "B"
}

// Interrupts is the single critical section every handler runs inside.
// Handlers must not call Free again while inside it.
type Interrupts struct {
	mu sync.Mutex
}

// Free runs fn with interrupts masked
func (i *Interrupts) Free(fn func()) {
	i.mu.Lock()
	defer i.mu.Unlock()
	fn()
}

func checkSlot(slot int) {
	if slot < 0 || slot > 1 {
		panic("hw: sequence slot out of range")
	}
}
