package synth

import (
	"fmt"
	"math"
	"strings"
)

type Waveform int

const (
	Sine Waveform = iota
	Square
	Triangle
)

// Waveforms lists every waveform in cycling order
var Waveforms = []Waveform{Sine, Square, Triangle}

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Triangle:
		return "triangle"
	}
	return fmt.Sprintf("waveform(%d)", int(w))
}

// Next returns the waveform after w in Waveforms, wrapping around
func (w Waveform) Next() Waveform {
	return Waveforms[(int(w)+1)%len(Waveforms)]
}

// ParseWaveform accepts the names returned by String, case insensitively
func ParseWaveform(s string) (Waveform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sine", "sin":
		return Sine, nil
	case "square", "sq":
		return Square, nil
	case "triangle", "tri":
		return Triangle, nil
	}
	return Sine, fmt.Errorf("unknown waveform %q", s)
}

// Sample returns the waveform value in [-1, 1] at phase p in [0, 1)
func (w Waveform) Sample(p float64) float64 {
	switch w {
	case Square:
		if p < 0.5 {
			return -1
		}
		return 1
	case Triangle:
		if p < 0.5 {
			return -1 + 4*p
		}
		return 3 - 4*p
	default:
		return math.Sin(2 * math.Pi * p)
	}
}
