package synth

import "math"

// BaseFreq is the frequency of key 60, middle C
const BaseFreq = 261.6255653

// Frequency returns the equal tempered frequency of a MIDI key
func Frequency(key uint8) float64 {
	return BaseFreq * math.Pow(2, (float64(key)-60)/12)
}

// Period is the length of one waveform cycle in samples at sampleRate
func Period(sampleRate int, key uint8) float64 {
	return float64(sampleRate) / Frequency(key)
}

// PeriodSamples truncates Period to whole samples. It is never less than one.
func PeriodSamples(sampleRate int, key uint8) int {
	return max(int(Period(sampleRate, key)), 1)
}
