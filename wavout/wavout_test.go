package wavout_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"

	"go-beeper/config"
	"go-beeper/midi"
	"go-beeper/player"
	"go-beeper/sequencer"
	"go-beeper/test"
	"go-beeper/wavout"
)

func TestRenderMIDI(t *testing.T) {
	cfg := config.DefaultConfig()
	f, err := midi.Load(midi.Build(96, []midi.Step{
		midi.On(0, 0, 69, 100),
		midi.Off(48, 0, 69),
	}), sequencer.MaxTracks)
	test.DemandSuccess(t, err)

	rig := player.NewRig()
	p := rig.NewMIDIPlayer(cfg, f)

	path := filepath.Join(t.TempDir(), "out.wav")
	out, err := os.Create(path)
	test.DemandSuccess(t, err)

	res, err := wavout.Render(out, rig, p, wavout.Options{MaxDuration: 5 * time.Second, Tail: 100 * time.Millisecond})
	test.DemandSuccess(t, err)
	test.DemandSuccess(t, out.Close())

	test.ExpectSuccess(t, res.Finished)
	test.ExpectEquality(t, res.SampleRate, 16393)
	if res.Samples < res.SampleRate/2 || res.Samples > 3*res.SampleRate/2 {
		t.Errorf("rendered %d samples for half a second of music", res.Samples)
	}
	test.ExpectEquality(t, res.Status.Stats.Underruns, 0)

	in, err := os.Open(path)
	test.DemandSuccess(t, err)
	defer in.Close()

	dec := wav.NewDecoder(in)
	test.DemandSuccess(t, dec.IsValidFile())
	test.ExpectEquality(t, dec.SampleRate, uint32(16393))
	test.ExpectEquality(t, dec.BitDepth, uint16(16))

	pcm, err := dec.FullPCMBuffer()
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, len(pcm.Data), res.Samples)

	loudest := 0
	for _, v := range pcm.Data {
		loudest = max(loudest, v, -v)
	}
	if loudest < 1000 {
		t.Errorf("render is silent, peak %d", loudest)
	}
}

func TestRenderStopsAtLimit(t *testing.T) {
	cfg := config.DefaultConfig()
	rig := player.NewRig()
	p := rig.NewTonePlayer(cfg)

	out, err := os.Create(filepath.Join(t.TempDir(), "tone.wav"))
	test.DemandSuccess(t, err)
	defer out.Close()

	res, err := wavout.Render(out, rig, p, wavout.Options{MaxDuration: 100 * time.Millisecond})
	test.DemandSuccess(t, err)

	test.ExpectEquality(t, res.Finished, false)
	test.ExpectEquality(t, res.Samples, 16000)
	test.ExpectEquality(t, res.Duration, 100*time.Millisecond)
	test.ExpectEquality(t, rig.PWM.Running(), false)
}
