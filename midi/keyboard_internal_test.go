package midi

import (
	"sync"
	"testing"

	"go-beeper/test"
)

func newTestKeyboard(queue int) *Keyboard {
	return &Keyboard{id: "test", stopFunc: func() {}, noteChan: make(chan Event, queue)}
}

func TestKeyboardDeliver(t *testing.T) {
	kb := newTestKeyboard(1)
	kb.deliver(Event{Type: NoteOn, Note: 60, Velocity: 100})
	kb.deliver(Event{Type: NoteOn, Note: 62, Velocity: 100}) // queue full, dropped

	ev := <-kb.Notes()
	test.ExpectEquality(t, ev.Note, uint8(60))
	test.ExpectEquality(t, len(kb.Notes()), 0)
}

func TestKeyboardDeliverAfterClose(t *testing.T) {
	kb := newTestKeyboard(4)
	test.DemandSuccess(t, kb.Close())
	test.DemandSuccess(t, kb.Close())

	// a driver callback still in flight must not send on the closed channel
	kb.deliver(Event{Type: NoteOn, Note: 60, Velocity: 100})

	_, ok := <-kb.Notes()
	test.ExpectEquality(t, ok, false)
}

func TestKeyboardCloseWhileDelivering(t *testing.T) {
	kb := newTestKeyboard(1)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 1000; n++ {
				kb.deliver(Event{Type: NoteOff, Note: uint8(n % 128)})
			}
		}()
	}
	test.DemandSuccess(t, kb.Close())
	wg.Wait()

	for range kb.Notes() {
	}
}
