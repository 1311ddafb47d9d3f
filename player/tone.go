package player

import (
	"go-beeper/config"
	"go-beeper/debug"
	"go-beeper/hw"
	"go-beeper/pwm"
	"go-beeper/synth"
)

// TonePlayer holds a single note forever. The buttons move it a semitone at
// a time and restart the output from a fresh cycle.
type TonePlayer struct {
	irq  *hw.Interrupts
	gen  hw.PulseGenerator
	pipe *pwm.Pipeline

	key       uint8
	waveform  synth.Waveform
	amplitude float64
	cursor    int
	period    int
	top       uint16
	rate      float64

	done chan struct{}
}

func NewTonePlayer(cfg *config.Config, irq *hw.Interrupts, gen hw.PulseGenerator) *TonePlayer {
	top := cfg.CounterTop(cfg.Tone.SampleRate)
	p := &TonePlayer{
		irq:       irq,
		gen:       gen,
		key:       uint8(cfg.Tone.StartKey),
		waveform:  cfg.ToneWaveform(),
		amplitude: float64(cfg.Tone.Volume) / 127,
		top:       top,
		rate:      float64(cfg.PWMClock()) / float64(top),
		done:      make(chan struct{}),
	}
	p.period = synth.PeriodSamples(int(p.rate), p.key)
	p.pipe = pwm.New(gen, cfg.Tone.BufferSize, pwm.FillerFunc(p.fill),
		pwm.Deadline(cfg.Tone.BufferSize, int(p.rate)))

	debug.Log("player", "tone: key %d period %d counter top %d", p.key, p.period, top)
	return p
}

// NewTonePlayer builds a TonePlayer on the rig and routes its interrupt
func (r *Rig) NewTonePlayer(cfg *config.Config) *TonePlayer {
	p := NewTonePlayer(cfg, r.IRQ, r.PWM)
	r.PWM.OnInterrupt(p.HandlePWM)
	return p
}

func (p *TonePlayer) fill(buf []uint16) {
	p.cursor = synth.Fill(buf, p.waveform, p.cursor, p.period, p.amplitude, p.top)
}

func (p *TonePlayer) Start() {
	p.irq.Free(func() {
		p.gen.SetCounterTop(p.top)
		p.pipe.Start()
	})
}

func (p *TonePlayer) HandlePWM() {
	p.irq.Free(p.pipe.HandleInterrupt)
}

// HandleButton raises (A) or lowers (B) the note, saturating at the ends of
// the key range, and restarts the sequence from buffer 0
func (p *TonePlayer) HandleButton(b hw.Button) {
	p.irq.Free(func() {
		switch {
		case b == hw.ButtonA && p.key < 127:
			p.key++
		case b == hw.ButtonB && p.key > 0:
			p.key--
		}
		p.period = synth.PeriodSamples(int(p.rate), p.key)
		p.cursor = 0
		debug.Log("keys", "button %v: tone key %d period %d", b, p.key, p.period)

		if p.pipe.Running() {
			p.pipe.Start()
		}
	})
}

func (p *TonePlayer) SetWaveform(wf synth.Waveform) {
	p.irq.Free(func() {
		p.waveform = wf
	})
}

func (p *TonePlayer) Stop() {
	p.irq.Free(p.pipe.Stop)
}

// Done is never closed
func (p *TonePlayer) Done() <-chan struct{} {
	return p.done
}

func (p *TonePlayer) Rate() float64 {
	return p.rate
}

func (p *TonePlayer) Status() Status {
	var s Status
	p.irq.Free(func() {
		s = Status{
			Mode:     ModeTone,
			Waveform: p.waveform,
			Buffers:  p.pipe.States(),
			Stats:    p.pipe.Stats(),
			Finished: !p.pipe.Running(),
			Key:      p.key,
		}
	})
	return s
}
