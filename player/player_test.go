package player_test

import (
	"testing"

	"go-beeper/config"
	"go-beeper/hw"
	"go-beeper/midi"
	"go-beeper/player"
	"go-beeper/pwm"
	"go-beeper/sequencer"
	"go-beeper/synth"
	"go-beeper/test"
)

func loadFile(t *testing.T, tracks ...[]midi.Step) *midi.File {
	t.Helper()
	f, err := midi.Load(midi.Build(96, tracks...), sequencer.MaxTracks)
	test.DemandSuccess(t, err)
	return f
}

func isDone(p player.Player) bool {
	select {
	case <-p.Done():
		return true
	default:
		return false
	}
}

func TestMIDIPlayerStart(t *testing.T) {
	cfg := config.DefaultConfig()
	rig := player.NewRig()
	p := rig.NewMIDIPlayer(cfg, loadFile(t, []midi.Step{midi.On(0, 0, 60, 100)}))

	p.Start()

	test.ExpectEquality(t, rig.PWM.CounterTop(), uint16(976))
	test.ExpectSuccess(t, rig.RTC.Running())
	test.ExpectApproximate(t, rig.RTC.Rate(), 96, 0.01)

	s := p.Status()
	test.ExpectEquality(t, s.Mode, player.ModeMIDI)
	test.ExpectEquality(t, s.Buffers, [2]pwm.State{pwm.Streaming, pwm.Ready})
	test.ExpectEquality(t, s.Tracks, 1)
	test.ExpectEquality(t, s.Waveform, synth.Square)
}

func TestMIDIPlayerPlaysNote(t *testing.T) {
	cfg := config.DefaultConfig()
	rig := player.NewRig()
	p := rig.NewMIDIPlayer(cfg, loadFile(t, []midi.Step{
		midi.On(0, 0, 60, 100),
		midi.Off(1000, 0, 60),
	}))
	p.Start()

	test.ExpectSuccess(t, rig.RTC.Fire())
	s := p.Status()
	test.ExpectEquality(t, s.Tick, uint32(1))
	test.ExpectSuccess(t, s.Voices[0].Active)
	test.ExpectEquality(t, s.Voices[0].Key, uint8(60))

	out := make([]uint16, 1000)
	for i := range out {
		out[i] = rig.PWM.Tick()
	}

	// both buffers filled at start are silent; the note begins with the
	// third buffer at phase zero
	for i := 0; i < 2*cfg.Audio.BufferSize; i++ {
		test.ExpectEquality(t, out[i], uint16(synth.Silence), i)
	}

	period := synth.PeriodSamples(int(p.Rate()), 60)
	start := 2 * cfg.Audio.BufferSize
	test.ExpectEquality(t, out[start], uint16(0))
	test.ExpectEquality(t, out[start+period-1], uint16(976))
	for i := start; i+period < len(out); i++ {
		test.ExpectEquality(t, out[i], out[i+period], i)
	}

	s = p.Status()
	test.ExpectEquality(t, s.Stats.Underruns, 0)
	test.ExpectEquality(t, s.Stats.Buffers, len(out)/cfg.Audio.BufferSize)
}

func TestMIDIPlayerFinish(t *testing.T) {
	cfg := config.DefaultConfig()
	rig := player.NewRig()
	p := rig.NewMIDIPlayer(cfg, loadFile(t,
		[]midi.Step{midi.On(0, 0, 60, 100), midi.Off(3, 0, 60)},
		[]midi.Step{midi.On(1, 1, 72, 100)},
	))
	p.Start()

	rig.RTC.Fire()
	rig.RTC.Fire()
	test.ExpectEquality(t, isDone(p), false)
	test.ExpectEquality(t, p.Status().ActiveTracks, 1)

	rig.RTC.Fire()
	test.ExpectSuccess(t, isDone(p))

	s := p.Status()
	test.ExpectSuccess(t, s.Finished)
	test.ExpectEquality(t, s.Voices, [sequencer.MaxChannels]sequencer.Slot{})
	test.ExpectEquality(t, rig.RTC.Running(), false)
	test.ExpectEquality(t, rig.PWM.Running(), false)
	test.ExpectEquality(t, rig.PWM.Tick(), uint16(0))

	// late ticks are ignored and stopping again is harmless
	test.ExpectEquality(t, rig.RTC.Fire(), false)
	p.Stop()
	test.ExpectEquality(t, p.Status().Tick, uint32(3))
}

func TestMIDIPlayerTickOverride(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MIDI.TicksPerSecond = 288
	rig := player.NewRig()
	p := rig.NewMIDIPlayer(cfg, loadFile(t, []midi.Step{midi.On(0, 0, 60, 100)}))

	p.Start()
	test.ExpectApproximate(t, p.TickRate(), 288, 0.01)
}

func TestMIDIPlayerButtons(t *testing.T) {
	cfg := config.DefaultConfig()
	rig := player.NewRig()
	p := rig.NewMIDIPlayer(cfg, loadFile(t, []midi.Step{midi.On(100, 1, 60, 100)}))
	p.Start()

	p.HandleButton(hw.ButtonA)
	s := p.Status()
	test.ExpectSuccess(t, s.Voices[0].Active)
	test.ExpectEquality(t, s.Voices[0].Key, uint8(sequencer.DefaultKey+1))

	p.HandleButton(hw.ButtonB)
	p.HandleButton(hw.ButtonB)
	test.ExpectEquality(t, p.Status().Voices[0].Key, uint8(sequencer.DefaultKey-1))
}

func TestMIDIPlayerLiveNotes(t *testing.T) {
	cfg := config.DefaultConfig()
	rig := player.NewRig()
	p := rig.NewMIDIPlayer(cfg, loadFile(t, []midi.Step{midi.On(100, 1, 60, 100)}))
	p.Start()

	p.HandleNote(midi.Event{Type: midi.NoteOn, Channel: 9, Note: 70, Velocity: 80})
	s := p.Status()
	test.ExpectSuccess(t, s.Voices[0].Active)
	test.ExpectEquality(t, s.Voices[0].Key, uint8(70))

	p.HandleNote(midi.Event{Type: midi.NoteOff, Channel: 9, Note: 70})
	test.ExpectEquality(t, p.Status().Voices[0].Active, false)

	// legato: releasing the first key keeps the second sounding
	p.HandleNote(midi.Event{Type: midi.NoteOn, Note: 60, Velocity: 80})
	p.HandleNote(midi.Event{Type: midi.NoteOn, Note: 64, Velocity: 80})
	p.HandleNote(midi.Event{Type: midi.NoteOff, Note: 60})
	s = p.Status()
	test.ExpectSuccess(t, s.Voices[0].Active)
	test.ExpectEquality(t, s.Voices[0].Key, uint8(64))

	p.HandleNote(midi.Event{Type: midi.NoteOn, Note: 64, Velocity: 0})
	test.ExpectEquality(t, p.Status().Voices[0].Active, false)

	p.SetWaveform(synth.Triangle)
	test.ExpectEquality(t, p.Status().Waveform, synth.Triangle)
}

func TestTonePlayer(t *testing.T) {
	cfg := config.DefaultConfig()
	rig := player.NewRig()
	p := rig.NewTonePlayer(cfg)
	p.Start()

	test.ExpectEquality(t, rig.PWM.CounterTop(), uint16(100))
	test.ExpectApproximate(t, p.Rate(), 160000, 1e-9)

	s := p.Status()
	test.ExpectEquality(t, s.Key, uint8(64))
	test.ExpectEquality(t, s.Waveform, synth.Sine)

	period := synth.PeriodSamples(160000, 64)
	out := make([]uint16, 3*period)
	for i := range out {
		out[i] = rig.PWM.Tick()
	}
	test.ExpectEquality(t, out[0], uint16(50))
	for i := 0; i+period < len(out); i++ {
		test.ExpectEquality(t, out[i], out[i+period], i)
	}

	p.HandleButton(hw.ButtonA)
	test.ExpectEquality(t, p.Status().Key, uint8(65))

	// the restart streams buffer 0 from the start of a cycle
	slot, ok := rig.PWM.Streaming()
	test.ExpectSuccess(t, ok)
	test.ExpectEquality(t, slot, 0)
	test.ExpectEquality(t, rig.PWM.Tick(), uint16(50))
	test.ExpectEquality(t, p.Status().Stats.Buffers, 0)
}

func TestTonePlayerSaturates(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Tone.StartKey = 127
	rig := player.NewRig()
	p := rig.NewTonePlayer(cfg)
	p.Start()

	p.HandleButton(hw.ButtonA)
	test.ExpectEquality(t, p.Status().Key, uint8(127))

	cfg.Tone.StartKey = 0
	p = player.NewRig().NewTonePlayer(cfg)
	p.HandleButton(hw.ButtonB)
	test.ExpectEquality(t, p.Status().Key, uint8(0))

	// a button press before Start does not start output
	test.ExpectSuccess(t, p.Status().Finished)
}

func TestPCMPlayer(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.PCM.BufferSize = 4
	rig := player.NewRig()
	p := rig.NewPCMPlayer(cfg, []byte{0, 255, 0})
	p.Start()

	top := cfg.PCMCounterTop()
	test.ExpectEquality(t, rig.PWM.CounterTop(), top)
	test.ExpectApproximate(t, p.Rate(), 16200, 0.001)

	hold := cfg.PCM.Refresh + 1
	want := []uint16{0, top, 0, 0, top, 0}
	for i, w := range want {
		for r := 0; r < hold; r++ {
			test.ExpectEquality(t, rig.PWM.Tick(), w, i, r)
		}
	}

	s := p.Status()
	test.ExpectEquality(t, s.Mode, player.ModePCM)
	test.ExpectEquality(t, s.Length, 3)
	test.ExpectEquality(t, isDone(p), false)

	p.Stop()
	test.ExpectSuccess(t, p.Status().Finished)
}
