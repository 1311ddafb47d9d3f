package player

import (
	"go-beeper/config"
	"go-beeper/debug"
	"go-beeper/hw"
	"go-beeper/midi"
	"go-beeper/pwm"
	"go-beeper/sequencer"
	"go-beeper/synth"
)

// MIDIPlayer plays a parsed MIDI file. The tick timer advances the sequence
// and the pulse generator interrupt renders the voices into the idle buffer.
type MIDIPlayer struct {
	irq   *hw.Interrupts
	gen   hw.PulseGenerator
	timer hw.TickTimer

	sched  *sequencer.Scheduler
	clock  *sequencer.Clock
	voices sequencer.VoiceTable
	synth  *synth.Synth
	pipe   *pwm.Pipeline

	top       uint16
	rate      float64
	prescaler uint16
	tickRate  int

	done     chan struct{}
	finished bool
}

// NewMIDIPlayer takes ownership of the file's tracks
func NewMIDIPlayer(cfg *config.Config, file *midi.File, irq *hw.Interrupts, gen hw.PulseGenerator, timer hw.TickTimer) *MIDIPlayer {
	top := cfg.CounterTop(cfg.Audio.SampleRate)
	tickRate := cfg.TickRate(file.TicksPerSecond)

	p := &MIDIPlayer{
		irq:       irq,
		gen:       gen,
		timer:     timer,
		sched:     sequencer.NewScheduler(file.Tracks),
		top:       top,
		rate:      float64(cfg.PWMClock()) / float64(top),
		prescaler: sequencer.Prescaler(tickRate),
		tickRate:  tickRate,
		done:      make(chan struct{}),
	}
	p.clock = sequencer.NewClock(p.sched, &p.voices)
	p.synth = synth.New(synth.Options{
		SampleRate: int(p.rate),
		Top:        top,
		Waveform:   cfg.Waveform(),
		Volume:     uint8(cfg.Audio.Volume),
		Policy:     cfg.Polyphony(),
		BufferSize: cfg.Audio.BufferSize,
	})
	p.pipe = pwm.New(gen, cfg.Audio.BufferSize, pwm.FillerFunc(p.fill),
		pwm.Deadline(cfg.Audio.BufferSize, int(p.rate)))

	debug.Log("player", "midi: %d tracks, %d ticks/s, prescaler %d, counter top %d",
		p.sched.Tracks(), tickRate, p.prescaler, top)

	return p
}

// NewMIDIPlayer builds a MIDIPlayer on the rig and routes its interrupts
func (r *Rig) NewMIDIPlayer(cfg *config.Config, file *midi.File) *MIDIPlayer {
	p := NewMIDIPlayer(cfg, file, r.IRQ, r.PWM, r.RTC)
	r.PWM.OnInterrupt(p.HandlePWM)
	r.RTC.OnInterrupt(p.HandleTick)
	return p
}

func (p *MIDIPlayer) fill(buf []uint16) {
	p.synth.Render(buf, &p.voices)
}

// Start fills both buffers, starts streaming and starts the tick timer
func (p *MIDIPlayer) Start() {
	p.irq.Free(func() {
		p.gen.SetCounterTop(p.top)
		p.pipe.Start()
		p.timer.SetPrescaler(p.prescaler)
		p.timer.Start()
	})
}

// HandleTick is the tick timer interrupt
func (p *MIDIPlayer) HandleTick() {
	p.irq.Free(func() {
		p.timer.ClearTick()
		if !p.clock.Step() {
			p.finish()
		}
	})
}

// HandlePWM is the pulse generator interrupt
func (p *MIDIPlayer) HandlePWM() {
	p.irq.Free(p.pipe.HandleInterrupt)
}

// HandleButton moves the channel 0 key a semitone up (A) or down (B)
func (p *MIDIPlayer) HandleButton(b hw.Button) {
	p.irq.Free(func() {
		delta := 1
		if b == hw.ButtonB {
			delta = -1
		}
		key := p.voices.Nudge(0, delta)
		debug.Log("keys", "button %v: channel 0 key %d", b, key)
	})
}

// HandleNote plays a live note on channel 0. A note off only releases the
// key it names, so overlapping key presses hand over legato.
func (p *MIDIPlayer) HandleNote(ev midi.Event) {
	p.irq.Free(func() {
		ev.Channel = 0
		if ev.Type == midi.NoteOff || ev.Velocity == 0 {
			p.voices.Release(ev.Channel, ev.Note)
		} else {
			p.voices.Apply(ev)
		}
		debug.Log("keys", "%v", ev)
	})
}

func (p *MIDIPlayer) SetWaveform(wf synth.Waveform) {
	p.irq.Free(func() {
		p.synth.SetWaveform(wf)
	})
}

// Stop halts the timer and the pulse generator. It is safe to call more
// than once.
func (p *MIDIPlayer) Stop() {
	p.irq.Free(p.finish)
}

// finish must be called inside the critical section
func (p *MIDIPlayer) finish() {
	p.voices.Clear()
	p.timer.Stop()
	p.pipe.Stop()
	if !p.finished {
		p.finished = true
		close(p.done)
		debug.Log("player", "midi stopped at tick %d", p.clock.Tick())
	}
}

func (p *MIDIPlayer) Done() <-chan struct{} {
	return p.done
}

func (p *MIDIPlayer) Rate() float64 {
	return p.rate
}

// TickRate is the rate the tick timer actually fires at
func (p *MIDIPlayer) TickRate() float64 {
	return sequencer.TickRate(p.prescaler)
}

func (p *MIDIPlayer) Status() Status {
	var s Status
	p.irq.Free(func() {
		s = Status{
			Mode:         ModeMIDI,
			Waveform:     p.synth.Waveform(),
			Buffers:      p.pipe.States(),
			Stats:        p.pipe.Stats(),
			Finished:     p.finished,
			Tick:         p.clock.Tick(),
			TickRate:     sequencer.TickRate(p.prescaler),
			Voices:       p.voices.Slots(),
			Tracks:       p.sched.Tracks(),
			ActiveTracks: p.sched.Active(),
		}
	})
	return s
}
