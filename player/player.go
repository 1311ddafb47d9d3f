// Package player holds the owned context objects behind each playback mode.
// Every handler enters its player through the rig's critical section.
package player

import (
	"go-beeper/hw"
	"go-beeper/pwm"
	"go-beeper/sequencer"
	"go-beeper/synth"
)

// Player is what the speaker, the renderer and the monitor drive
type Player interface {
	Start()
	Stop()
	HandlePWM()
	HandleButton(b hw.Button)
	SetWaveform(wf synth.Waveform)
	Status() Status

	// Rate is the number of pulse generator periods per second
	Rate() float64

	// Done is closed when playback ends by itself. Players that loop never
	// close it.
	Done() <-chan struct{}
}

// Mode names a player
type Mode string

const (
	ModeMIDI Mode = "midi"
	ModeTone Mode = "tone"
	ModePCM  Mode = "pcm"
)

// Status is a copy of a player's state taken inside the critical section
type Status struct {
	Mode     Mode
	Waveform synth.Waveform
	Buffers  [2]pwm.State
	Stats    pwm.Stats
	Finished bool

	// midi
	Tick         uint32
	TickRate     float64
	Voices       [sequencer.MaxChannels]sequencer.Slot
	Tracks       int
	ActiveTracks int

	// tone
	Key uint8

	// pcm
	Position int
	Length   int
}

// Rig is the simulated board: one critical section, a pulse generator and a
// tick timer
type Rig struct {
	IRQ *hw.Interrupts
	PWM *hw.SimPWM
	RTC *hw.SimRTC
}

func NewRig() *Rig {
	return &Rig{
		IRQ: &hw.Interrupts{},
		PWM: hw.NewSimPWM(),
		RTC: hw.NewSimRTC(),
	}
}

// refresher is a pulse generator that can hold each value for extra periods
type refresher interface {
	SetRefresh(refresh uint32)
}
