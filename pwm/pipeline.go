// Package pwm keeps a pulse generator fed from two sample buffers. While the
// generator streams one buffer the other is refilled by software, and the
// roles swap on every completion interrupt.
package pwm

import (
	"fmt"
	"time"

	"go-beeper/debug"
	"go-beeper/hw"
)

// State is who owns a buffer
type State int

const (
	Filling   State = iota // software is writing it
	Ready                  // filled, waiting for the generator
	Streaming              // the generator is reading it
)

func (s State) String() string {
	switch s {
	case Filling:
		return "filling"
	case Ready:
		return "ready"
	case Streaming:
		return "streaming"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Filler produces the next buffer of duty values
type Filler interface {
	Fill(buf []uint16)
}

// FillerFunc adapts a function to Filler
type FillerFunc func(buf []uint16)

func (f FillerFunc) Fill(buf []uint16) { f(buf) }

// Stats counts what happened since Start
type Stats struct {
	Buffers        int           // completion interrupts handled
	Refills        int           // buffers written
	MaxRefill      time.Duration // slowest refill
	DeadlineMisses int           // refills slower than one buffer's playback
	Underruns      int           // completions with no Ready buffer to switch to
}

// Pipeline owns the two buffers. All methods must be called from inside the
// critical section.
type Pipeline struct {
	gen      hw.PulseGenerator
	filler   Filler
	bufs     [2][]uint16
	states   [2]State
	deadline time.Duration
	running  bool
	stats    Stats

	// OnTransition, if set, is called on every ownership change
	OnTransition func(slot int, from, to State)
}

// New allocates both buffers. deadline is the playback time of one buffer;
// zero disables deadline checks.
func New(gen hw.PulseGenerator, size int, filler Filler, deadline time.Duration) *Pipeline {
	if size <= 0 {
		panic(fmt.Sprintf("pwm: buffer size %d must be positive", size))
	}
	return &Pipeline{
		gen:      gen,
		filler:   filler,
		bufs:     [2][]uint16{make([]uint16, size), make([]uint16, size)},
		states:   [2]State{Ready, Ready},
		deadline: deadline,
	}
}

// Deadline returns the playback time of one buffer of size samples at rate
// samples per second
func Deadline(size, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(size) * time.Second / time.Duration(rate)
}

func (p *Pipeline) set(slot int, to State) {
	from := p.states[slot]
	p.states[slot] = to
	if p.OnTransition != nil {
		p.OnTransition(slot, from, to)
	}
}

// refill writes slot. The generator must already be done with it.
func (p *Pipeline) refill(slot int) {
	p.set(slot, Filling)

	start := time.Now()
	p.filler.Fill(p.bufs[slot])
	elapsed := time.Since(start)

	p.stats.Refills++
	p.stats.MaxRefill = max(p.stats.MaxRefill, elapsed)
	if p.deadline > 0 && elapsed > p.deadline {
		p.stats.DeadlineMisses++
		debug.Log("pwm", "refill of buffer %d took %v, deadline %v", slot, elapsed, p.deadline)
	}

	p.set(slot, Ready)
}

func (p *Pipeline) stream(slot int) {
	p.set(slot, Streaming)
	p.gen.StartSequence(slot)
}

// Start fills both buffers and streams buffer 0. Starting a running
// pipeline restarts it.
func (p *Pipeline) Start() {
	if p.running {
		p.Stop()
	}
	p.stats = Stats{}

	for slot := range p.bufs {
		p.refill(slot)
		p.gen.SetSequence(slot, p.bufs[slot])
	}
	p.running = true
	p.stream(0)
	debug.Log("pwm", "pipeline started, %d samples per buffer", len(p.bufs[0]))
}

// HandleInterrupt services every raised completion flag. For each completed
// buffer the other buffer starts streaming before the completed one is
// refilled, so the generator never waits on software.
func (p *Pipeline) HandleInterrupt() {
	for slot := range p.bufs {
		if !p.gen.Completed(slot) {
			continue
		}
		p.gen.ClearCompleted(slot)
		if !p.running {
			continue
		}
		p.complete(slot)
	}
}

func (p *Pipeline) complete(slot int) {
	if p.states[slot] != Streaming {
		debug.Log("pwm", "ignoring completion of buffer %d, it is %v", slot, p.states[slot])
		return
	}
	p.stats.Buffers++
	debug.LogEvery(1000, "pwm", "buffer %d done (%d buffers)", slot, p.stats.Buffers)

	other := 1 - slot
	if p.states[other] != Ready {
		p.stats.Underruns++
		debug.Log("pwm", "underrun: buffer %d is %v", other, p.states[other])
		p.refill(slot)
		p.stream(slot)
		return
	}

	p.stream(other)
	p.refill(slot)
}

// Stop halts the generator. It is safe to call more than once.
func (p *Pipeline) Stop() {
	p.gen.Stop()
	if !p.running {
		return
	}
	p.running = false
	for slot, s := range p.states {
		if s == Streaming {
			p.set(slot, Ready)
		}
	}
	debug.Log("pwm", "pipeline stopped after %d buffers", p.stats.Buffers)
}

func (p *Pipeline) Running() bool {
	return p.running
}

func (p *Pipeline) States() [2]State {
	return p.states
}

func (p *Pipeline) Stats() Stats {
	return p.stats
}

// Size is the number of samples in each buffer
func (p *Pipeline) Size() int {
	return len(p.bufs[0])
}
