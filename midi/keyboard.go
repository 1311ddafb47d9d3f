package midi

import (
	"fmt"
	"strings"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// Keyboard is a live MIDI input. Note on and note off messages arrive on
// Notes(); everything else is ignored.
type Keyboard struct {
	id       string
	inPort   drivers.In
	stopFunc func()

	mu       sync.Mutex
	closed   bool
	noteChan chan Event
}

// NewKeyboard starts listening on inPort
func NewKeyboard(inPort drivers.In) (*Keyboard, error) {
	kb := &Keyboard{
		id:       inPort.String(),
		inPort:   inPort,
		noteChan: make(chan Event, 32),
	}

	stop, err := gomidi.ListenTo(inPort, func(msg gomidi.Message, timestampms int32) {
		if ev, ok := Decode(msg); ok {
			kb.deliver(ev)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	kb.stopFunc = stop

	return kb, nil
}

// OpenKeyboard finds an input port whose name contains name (case
// insensitive) and listens on it. An empty name takes the first port.
func OpenKeyboard(name string) (*Keyboard, error) {
	ports, err := InPorts(3 * time.Second)
	if err != nil {
		return nil, err
	}

	name = strings.ToLower(name)
	for _, p := range ports {
		if name == "" || strings.Contains(strings.ToLower(p.String()), name) {
			return NewKeyboard(p)
		}
	}
	return nil, fmt.Errorf("no midi input matching %q", name)
}

func (kb *Keyboard) ID() string {
	return kb.id
}

func (kb *Keyboard) Notes() <-chan Event {
	return kb.noteChan
}

// deliver queues ev for Notes. It drops ev when the queue is full or the
// keyboard is closed; a driver callback can still be running after stop.
func (kb *Keyboard) deliver(ev Event) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if kb.closed {
		return
	}
	select {
	case kb.noteChan <- ev:
	default:
		// Drop if channel full
	}
}

// Close stops listening and closes the Notes channel. It is safe to call
// more than once.
func (kb *Keyboard) Close() error {
	if kb.stopFunc != nil {
		kb.stopFunc()
		kb.stopFunc = nil
	}
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if !kb.closed {
		kb.closed = true
		close(kb.noteChan)
	}
	return nil
}
