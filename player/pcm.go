package player

import (
	"go-beeper/config"
	"go-beeper/debug"
	"go-beeper/hw"
	"go-beeper/pwm"
	"go-beeper/synth"
)

// PCMPlayer loops a raw unsigned 8 bit recording. The pulse generator period
// is shortened and each sample held for refresh extra periods, which keeps
// the carrier above hearing while the samples play at the target rate.
type PCMPlayer struct {
	irq  *hw.Interrupts
	gen  hw.PulseGenerator
	pipe *pwm.Pipeline
	pcm  *synth.PCM

	top     uint16
	refresh uint32
	rate    float64

	done chan struct{}
}

func NewPCMPlayer(cfg *config.Config, data []byte, irq *hw.Interrupts, gen hw.PulseGenerator) *PCMPlayer {
	top := cfg.PCMCounterTop()
	p := &PCMPlayer{
		irq:     irq,
		gen:     gen,
		pcm:     synth.NewPCM(data, cfg.PCM.DataSampleRate, cfg.PCM.TargetSampleRate, cfg.PCM.Gain),
		top:     top,
		refresh: uint32(cfg.PCM.Refresh),
		rate:    float64(cfg.PWMClock()) / float64(top),
		done:    make(chan struct{}),
	}
	p.pipe = pwm.New(gen, cfg.PCM.BufferSize, pwm.FillerFunc(p.fill),
		pwm.Deadline(cfg.PCM.BufferSize, cfg.PCM.TargetSampleRate))

	debug.Log("player", "pcm: %d samples, counter top %d, refresh %d", len(data), top, p.refresh)
	return p
}

// NewPCMPlayer builds a PCMPlayer on the rig and routes its interrupt
func (r *Rig) NewPCMPlayer(cfg *config.Config, data []byte) *PCMPlayer {
	p := NewPCMPlayer(cfg, data, r.IRQ, r.PWM)
	r.PWM.OnInterrupt(p.HandlePWM)
	return p
}

func (p *PCMPlayer) fill(buf []uint16) {
	p.pcm.Fill(buf, p.top)
}

func (p *PCMPlayer) Start() {
	p.irq.Free(func() {
		p.gen.SetCounterTop(p.top)
		if r, ok := p.gen.(refresher); ok {
			r.SetRefresh(p.refresh)
		}
		p.pipe.Start()
	})
}

func (p *PCMPlayer) HandlePWM() {
	p.irq.Free(p.pipe.HandleInterrupt)
}

// HandleButton does nothing; the recording has no controls
func (p *PCMPlayer) HandleButton(b hw.Button) {}

// SetWaveform does nothing
func (p *PCMPlayer) SetWaveform(wf synth.Waveform) {}

func (p *PCMPlayer) Stop() {
	p.irq.Free(p.pipe.Stop)
}

// Done is never closed
func (p *PCMPlayer) Done() <-chan struct{} {
	return p.done
}

// Rate counts every held period
func (p *PCMPlayer) Rate() float64 {
	return p.rate
}

func (p *PCMPlayer) Status() Status {
	var s Status
	p.irq.Free(func() {
		s = Status{
			Mode:     ModePCM,
			Buffers:  p.pipe.States(),
			Stats:    p.pipe.Stats(),
			Finished: !p.pipe.Running(),
			Position: p.pcm.Cursor(),
			Length:   p.pcm.Len(),
		}
	})
	return s
}
