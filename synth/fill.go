package synth

import "fmt"

// Silence is the duty value written when nothing is sounding
const Silence = 0

// Fill writes len(buf) samples of waveform starting cursor samples into a
// cycle of period samples. Each value is the waveform mapped from [-1, 1]
// onto [0, top], scaled by amplitude and truncated. It returns the cursor for
// the next call, (cursor + len(buf)) mod period.
//
// Filling L samples twice gives the same output as filling 2L samples once.
func Fill(buf []uint16, wf Waveform, cursor, period int, amplitude float64, top uint16) int {
	if period <= 0 {
		panic(fmt.Sprintf("synth: period %d must be positive", period))
	}
	amplitude = clamp(amplitude)
	scale := amplitude * float64(top)

	pos := cursor % period
	for i := range buf {
		y := (wf.Sample(float64(pos)/float64(period)) + 1) / 2
		buf[i] = uint16(y * scale)
		pos++
		if pos == period {
			pos = 0
		}
	}
	return pos
}

// FillSilence writes the silent duty value over buf
func FillSilence(buf []uint16) {
	for i := range buf {
		buf[i] = Silence
	}
}

func clamp(a float64) float64 {
	return min(max(a, 0), 1)
}
