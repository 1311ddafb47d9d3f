package hw

import (
	"context"
	"sync"
	"time"

	"go-beeper/debug"
)

// RTCFrequency is the input clock of the tick timer
const RTCFrequency = 32768

// SimRTC is a software TickTimer. Fire delivers one tick synchronously; Run
// delivers ticks in real time.
type SimRTC struct {
	mu        sync.Mutex
	prescaler uint16
	running   bool
	pending   bool
	handler   func()
	changed   chan struct{}
}

func NewSimRTC() *SimRTC {
	return &SimRTC{changed: make(chan struct{}, 1)}
}

// OnInterrupt registers the tick handler
func (r *SimRTC) OnInterrupt(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handler = fn
}

func (r *SimRTC) SetPrescaler(prescaler uint16) {
	r.mu.Lock()
	r.prescaler = prescaler
	r.mu.Unlock()
	r.notify()
}

func (r *SimRTC) Start() {
	r.mu.Lock()
	r.running = true
	r.mu.Unlock()
	debug.Log("pwm", "rtc started at %.2f Hz", r.Rate())
	r.notify()
}

// Stop is idempotent
func (r *SimRTC) Stop() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	r.notify()
}

func (r *SimRTC) ClearTick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = false
}

func (r *SimRTC) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Pending reports whether a tick has been raised and not cleared
func (r *SimRTC) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending
}

// Rate is the tick frequency in Hz for the current prescaler
func (r *SimRTC) Rate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RTCFrequency / float64(uint32(r.prescaler)+1)
}

// Fire raises one tick and calls the handler if the timer is running. It
// reports whether the handler ran.
func (r *SimRTC) Fire() bool {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return false
	}
	r.pending = true
	handler := r.handler
	r.mu.Unlock()

	if handler != nil {
		handler()
	}
	return true
}

func (r *SimRTC) notify() {
	select {
	case r.changed <- struct{}{}:
	default:
	}
}

// Run fires ticks at Rate until ctx is done. Changes to the prescaler or
// running state take effect on the next tick.
func (r *SimRTC) Run(ctx context.Context) {
	ticker := time.NewTicker(r.period())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.changed:
			ticker.Reset(r.period())
		case <-ticker.C:
			r.Fire()
		}
	}
}

func (r *SimRTC) period() time.Duration {
	return time.Duration(float64(time.Second) / r.Rate())
}
