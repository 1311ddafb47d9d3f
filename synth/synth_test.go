package synth_test

import (
	"math/cmplx"
	"testing"

	"gonum.org/v1/gonum/dsp/fourier"

	"go-beeper/sequencer"
	"go-beeper/synth"
	"go-beeper/test"
)

func TestFrequency(t *testing.T) {
	test.ExpectApproximate(t, synth.Frequency(60), synth.BaseFreq, 1e-9)
	test.ExpectApproximate(t, synth.Frequency(69), 440, 1e-6)
	test.ExpectApproximate(t, synth.Frequency(48), synth.BaseFreq/2, 1e-9)
}

func TestOctaveHalvesPeriod(t *testing.T) {
	for _, rate := range []int{2700, 16000, 16387, 160000} {
		for key := 0; key+12 <= 127; key++ {
			lo := synth.Period(rate, uint8(key))
			hi := synth.Period(rate, uint8(key+12))
			test.ExpectApproximate(t, hi, lo/2, 1e-9, rate, key)
		}
	}
}

func TestPeriodSamples(t *testing.T) {
	test.ExpectEquality(t, synth.PeriodSamples(16000, 60), 61)
	test.ExpectEquality(t, synth.PeriodSamples(160000, 64), 485)
	test.ExpectEquality(t, synth.PeriodSamples(100, 127), 1)
}

func TestMiddleCRepeats(t *testing.T) {
	period := synth.PeriodSamples(16000, 60)
	buf := make([]uint16, 3*period)

	cursor := synth.Fill(buf, synth.Sine, 0, period, 1, 1000)
	test.ExpectEquality(t, cursor, 0)

	for i := 0; i+period < len(buf); i++ {
		test.ExpectEquality(t, buf[i], buf[i+period], i)
	}

	// sin(0) maps to the midpoint
	test.ExpectEquality(t, buf[0], uint16(500))
}

func TestFillComposable(t *testing.T) {
	cases := []struct {
		wf     synth.Waveform
		period int
		cursor int
		size   int
	}{
		{synth.Sine, 61, 0, 16},
		{synth.Square, 37, 12, 16},
		{synth.Triangle, 100, 99, 64},
		{synth.Sine, 7, 3, 512},
	}

	for _, c := range cases {
		whole := make([]uint16, 2*c.size)
		end := synth.Fill(whole, c.wf, c.cursor, c.period, 0.8, 900)

		halves := make([]uint16, 2*c.size)
		mid := synth.Fill(halves[:c.size], c.wf, c.cursor, c.period, 0.8, 900)
		test.ExpectEquality(t, mid, (c.cursor+c.size)%c.period, c.wf)
		end2 := synth.Fill(halves[c.size:], c.wf, mid, c.period, 0.8, 900)

		test.ExpectEquality(t, end, end2, c.wf)
		test.ExpectEquality(t, end, (c.cursor+2*c.size)%c.period, c.wf)
		for i := range whole {
			if whole[i] != halves[i] {
				t.Fatalf("%v: sample %d differs: %d != %d", c.wf, i, whole[i], halves[i])
			}
		}
	}
}

func TestFillRange(t *testing.T) {
	const top = 976
	for _, wf := range synth.Waveforms {
		for _, amp := range []float64{0, 0.25, 1, 2} {
			buf := make([]uint16, 200)
			synth.Fill(buf, wf, 0, 50, amp, top)
			limit := uint16(min(amp, 1) * top)
			for i, v := range buf {
				if v > limit {
					t.Fatalf("%v amplitude %v: sample %d is %d, above %d", wf, amp, i, v, limit)
				}
			}
		}
	}
}

func TestSquare(t *testing.T) {
	buf := make([]uint16, 10)
	synth.Fill(buf, synth.Square, 0, 10, 1, 100)
	for i, v := range buf {
		want := uint16(0)
		if i >= 5 {
			want = 100
		}
		test.ExpectEquality(t, v, want, i)
	}
}

func TestTriangleSymmetric(t *testing.T) {
	const period = 64
	buf := make([]uint16, period)
	synth.Fill(buf, synth.Triangle, 0, period, 1, 1000)

	test.ExpectEquality(t, buf[0], uint16(0))
	test.ExpectEquality(t, buf[period/2], uint16(1000))
	for j := 1; j < period/2; j++ {
		d := int(buf[j]) - int(buf[period-j])
		if d < -1 || d > 1 {
			t.Errorf("triangle not symmetric at %d: %d vs %d", j, buf[j], buf[period-j])
		}
	}
}

func TestParseWaveform(t *testing.T) {
	for _, wf := range synth.Waveforms {
		got, err := synth.ParseWaveform(wf.String())
		test.ExpectSuccess(t, err)
		test.ExpectEquality(t, got, wf)
	}
	_, err := synth.ParseWaveform("sawtooth")
	test.ExpectFailure(t, err)

	test.ExpectEquality(t, synth.Triangle.Next(), synth.Sine)
}

func TestSynthSilence(t *testing.T) {
	var voices sequencer.VoiceTable
	s := synth.New(synth.Options{SampleRate: 16387, Top: 976, Volume: 127, BufferSize: 16})

	buf := make([]uint16, 16)
	for i := range buf {
		buf[i] = 0xffff
	}
	s.Render(buf, &voices)
	for i, v := range buf {
		test.ExpectEquality(t, v, uint16(synth.Silence), i)
	}
}

func TestSynthCursorResetsOnKeyChange(t *testing.T) {
	var voices sequencer.VoiceTable
	s := synth.New(synth.Options{SampleRate: 16000, Top: 1000, Volume: 127, Waveform: synth.Sine, BufferSize: 16})
	buf := make([]uint16, 16)

	voices.NoteOn(0, 60)
	s.Render(buf, &voices)
	s.Render(buf, &voices)
	cursor, period := s.Cursor()
	test.ExpectEquality(t, period, 61)
	test.ExpectEquality(t, cursor, 32)

	// a higher key on another channel takes over and starts from phase zero
	voices.NoteOn(1, 72)
	s.Render(buf, &voices)
	cursor, period = s.Cursor()
	test.ExpectEquality(t, period, synth.PeriodSamples(16000, 72))
	test.ExpectEquality(t, cursor, 16%period)
	test.ExpectEquality(t, buf[0], uint16(500))

	// the same key again keeps its phase
	s.Render(buf, &voices)
	cursor, _ = s.Cursor()
	test.ExpectEquality(t, cursor, 32%period)
}

func TestSynthMixMatchesSingleVoice(t *testing.T) {
	var voices sequencer.VoiceTable
	voices.NoteOn(0, 64)
	voices.NoteOn(3, 64)

	opts := synth.Options{SampleRate: 16387, Top: 976, Volume: 100, Waveform: synth.Triangle, BufferSize: 32}
	mono := synth.New(opts)
	opts.Policy = synth.PolicyMix
	mix := synth.New(opts)

	a := make([]uint16, 32)
	b := make([]uint16, 32)
	for range 4 {
		mono.Render(a, &voices)
		mix.Render(b, &voices)
		for i := range a {
			d := int(a[i]) - int(b[i])
			if d < -1 || d > 1 {
				t.Fatalf("sample %d: mono %d mix %d", i, a[i], b[i])
			}
		}
	}
}

func TestSynthMixAverages(t *testing.T) {
	var voices sequencer.VoiceTable
	voices.NoteOn(0, 60)
	voices.NoteOn(1, 67)

	s := synth.New(synth.Options{SampleRate: 16000, Top: 1000, Volume: 127, Waveform: synth.Square, Policy: synth.PolicyMix, BufferSize: 16})
	buf := make([]uint16, 16)
	s.Render(buf, &voices)

	// both squares start low
	test.ExpectEquality(t, buf[0], uint16(0))

	voices.Clear()
	s.Render(buf, &voices)
	test.ExpectEquality(t, buf[0], uint16(synth.Silence))
}

// the loudest bin of a rendered sine sits at the frequency implied by the
// integer period
func TestSinePitch(t *testing.T) {
	const (
		rate = 16000
		n    = 4096
	)

	for _, key := range []uint8{57, 60, 69, 81} {
		period := synth.PeriodSamples(rate, key)
		buf := make([]uint16, n)
		synth.Fill(buf, synth.Sine, 0, period, 1, 1000)

		seq := make([]float64, n)
		for i, v := range buf {
			seq[i] = float64(v) - 500
		}

		fft := fourier.NewFFT(n)
		coeff := fft.Coefficients(nil, seq)

		peak := 1
		for i := 1; i < len(coeff); i++ {
			if cmplx.Abs(coeff[i]) > cmplx.Abs(coeff[peak]) {
				peak = i
			}
		}

		got := fft.Freq(peak) * rate
		want := float64(rate) / float64(period)
		test.ExpectApproximate(t, got, want, 2*float64(rate)/n/want, key)
	}
}
