package hw

import (
	"sync"

	"go-beeper/debug"
)

// SimPWM is a software PulseGenerator. Each call to Tick is one PWM period
// and returns the duty value driven during it.
type SimPWM struct {
	mu        sync.Mutex
	top       uint16
	refresh   uint32
	seqs      [2][]uint16
	completed [2]bool
	streaming int // -1 when between sequences
	pos       int
	repeat    uint32
	last      uint16
	running   bool
	handler   func()
}

func NewSimPWM() *SimPWM {
	return &SimPWM{streaming: -1}
}

// OnInterrupt registers the handler called when a sequence completes. It is
// called from Tick without any SimPWM lock held.
func (p *SimPWM) OnInterrupt(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = fn
}

func (p *SimPWM) SetCounterTop(top uint16) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.top = top
}

func (p *SimPWM) CounterTop() uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.top
}

// SetRefresh makes every duty value play for refresh+1 periods
func (p *SimPWM) SetRefresh(refresh uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refresh = refresh
}

func (p *SimPWM) SetSequence(slot int, buf []uint16) {
	checkSlot(slot)
	if len(buf) == 0 {
		panic("hw: empty pwm sequence")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seqs[slot] = buf
}

func (p *SimPWM) StartSequence(slot int) {
	checkSlot(slot)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seqs[slot] == nil {
		panic("hw: starting pwm sequence with no buffer")
	}
	p.streaming = slot
	p.pos = 0
	p.repeat = 0
	p.running = true
}

func (p *SimPWM) Completed(slot int) bool {
	checkSlot(slot)
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed[slot]
}

func (p *SimPWM) ClearCompleted(slot int) {
	checkSlot(slot)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed[slot] = false
}

// Stop halts output. Stopping a stopped generator does nothing.
func (p *SimPWM) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	debug.Log("pwm", "stopped")
	p.running = false
	p.streaming = -1
	p.completed = [2]bool{}
	p.last = 0
}

// Running reports whether the generator has been started and not stopped
func (p *SimPWM) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Streaming returns the slot currently being read
func (p *SimPWM) Streaming() (slot int, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.streaming, p.streaming >= 0
}

// Tick advances one PWM period. The value at the end of a sequence is held
// until the next sequence starts. A stopped generator drives 0.
func (p *SimPWM) Tick() uint16 {
	p.mu.Lock()

	if !p.running {
		p.mu.Unlock()
		return 0
	}
	if p.streaming < 0 {
		v := p.last
		p.mu.Unlock()
		return v
	}

	seq := p.seqs[p.streaming]
	v := seq[p.pos]
	p.last = v

	p.repeat++
	if p.repeat > p.refresh {
		p.repeat = 0
		p.pos++
	}

	var handler func()
	if p.pos >= len(seq) {
		p.completed[p.streaming] = true
		p.streaming = -1
		p.pos = 0
		handler = p.handler
	}
	p.mu.Unlock()

	if handler != nil {
		handler()
	}
	return v
}
