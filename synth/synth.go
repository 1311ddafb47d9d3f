package synth

import (
	"fmt"
	"strings"

	"go-beeper/debug"
)

// MaxVoices is the number of voice channels the synth reads
const MaxVoices = 4

// Voices is the note state the synth renders from
type Voices interface {
	Highest() (uint8, bool)
	Key(channel int) (uint8, bool)
}

// Policy decides how several sounding channels become one output
type Policy int

const (
	// PolicyHighest sounds only the highest active key
	PolicyHighest Policy = iota
	// PolicyMix averages every active channel, each with its own cursor
	PolicyMix
)

func (p Policy) String() string {
	switch p {
	case PolicyHighest:
		return "highest"
	case PolicyMix:
		return "mix"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "highest", "":
		return PolicyHighest, nil
	case "mix":
		return PolicyMix, nil
	}
	return PolicyHighest, fmt.Errorf("unknown polyphony policy %q", s)
}

type Options struct {
	SampleRate int
	Top        uint16
	Waveform   Waveform
	Volume     uint8 // 0..127
	Policy     Policy
	BufferSize int
}

// voice is the phase state of one rendered key
type voice struct {
	key    uint8
	active bool
	cursor int
	period int
}

// set switches the voice to key, resetting the cursor if the key changed
func (v *voice) set(key uint8, sampleRate int) {
	if v.active && v.key == key {
		return
	}
	v.key = key
	v.active = true
	v.cursor = 0
	v.period = PeriodSamples(sampleRate, key)
}

// Synth renders a voice table into duty values. It keeps the phase of each
// sounding key across buffers so consecutive buffers join without a click.
type Synth struct {
	opts   Options
	mono   voice
	voices [MaxVoices]voice
	mix    []float64
}

func New(opts Options) *Synth {
	if opts.SampleRate <= 0 {
		panic(fmt.Sprintf("synth: sample rate %d must be positive", opts.SampleRate))
	}
	return &Synth{
		opts: opts,
		mix:  make([]float64, opts.BufferSize),
	}
}

func (s *Synth) SetWaveform(wf Waveform) {
	debug.Log("synth", "waveform %v", wf)
	s.opts.Waveform = wf
}

func (s *Synth) Waveform() Waveform {
	return s.opts.Waveform
}

func (s *Synth) SetVolume(volume uint8) {
	s.opts.Volume = min(volume, 127)
}

func (s *Synth) SetTop(top uint16) {
	s.opts.Top = top
}

func (s *Synth) amplitude() float64 {
	return float64(s.opts.Volume) / 127
}

// Render fills buf from the current voice state
func (s *Synth) Render(buf []uint16, v Voices) {
	if s.opts.Policy == PolicyMix {
		s.renderMix(buf, v)
		return
	}

	key, ok := v.Highest()
	if !ok {
		s.mono.active = false
		FillSilence(buf)
		return
	}

	if !s.mono.active || s.mono.key != key {
		debug.Log("synth", "key %d period %d", key, PeriodSamples(s.opts.SampleRate, key))
	}
	s.mono.set(key, s.opts.SampleRate)
	s.mono.cursor = Fill(buf, s.opts.Waveform, s.mono.cursor, s.mono.period, s.amplitude(), s.opts.Top)
}

func (s *Synth) renderMix(buf []uint16, v Voices) {
	if len(buf) > len(s.mix) {
		panic(fmt.Sprintf("synth: buffer of %d exceeds mix capacity %d", len(buf), len(s.mix)))
	}
	mix := s.mix[:len(buf)]
	for i := range mix {
		mix[i] = 0
	}

	n := 0
	for ch := range s.voices {
		vc := &s.voices[ch]
		key, ok := v.Key(ch)
		if !ok {
			vc.active = false
			continue
		}
		vc.set(key, s.opts.SampleRate)
		pos := vc.cursor
		for i := range mix {
			mix[i] += s.opts.Waveform.Sample(float64(pos) / float64(vc.period))
			pos++
			if pos == vc.period {
				pos = 0
			}
		}
		vc.cursor = pos
		n++
	}

	if n == 0 {
		FillSilence(buf)
		return
	}

	scale := s.amplitude() * float64(s.opts.Top)
	for i, y := range mix {
		buf[i] = uint16((y/float64(n) + 1) / 2 * scale)
	}
}

// Cursor returns the phase and period of the single voice
func (s *Synth) Cursor() (cursor, period int) {
	return s.mono.cursor, s.mono.period
}
