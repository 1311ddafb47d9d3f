// Package speaker plays the simulated pulse generator through the host's
// audio device.
package speaker

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"

	"go-beeper/debug"
	"go-beeper/hw"
)

// OutputRate is the sample rate the host device is opened at
const OutputRate = 48000

// Source reads the pulse generator in real time and resamples it to the
// output rate. Each output sample is the average of the generator periods
// it covers. Reading drives the generator, so its interrupts fire from the
// audio goroutine.
type Source struct {
	gen   *hw.SimPWM
	step  float64 // generator periods per output sample
	acc   float64
	last  float32
	demod hw.Demodulator
}

// NewSource reads gen running at rate periods per second for an output of
// outRate samples per second
func NewSource(gen *hw.SimPWM, rate float64, outRate int) *Source {
	return &Source{
		gen:  gen,
		step: rate / float64(outRate),
	}
}

// Read fills p with little endian float32 mono samples
func (s *Source) Read(p []byte) (int, error) {
	n := len(p) / 4
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(p[4*i:], math.Float32bits(s.next()))
	}
	return 4 * n, nil
}

func (s *Source) next() float32 {
	s.acc += s.step
	count := int(s.acc)
	if count == 0 {
		return s.last
	}
	s.acc -= float64(count)

	top := s.gen.CounterTop()
	sum := 0.0
	for range count {
		sum += s.demod.Sample(s.gen.Tick(), top)
	}
	s.last = float32(sum / float64(count))
	return s.last
}

// Speaker owns the host audio context
type Speaker struct {
	mu      sync.Mutex
	ctx     *oto.Context
	player  *oto.Player
	started bool
}

// Open starts the host device pulling from src
func Open(src *Source) (*Speaker, error) {
	op := &oto.NewContextOptions{
		SampleRate:   OutputRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("open audio device: %w", err)
	}
	<-ready

	sp := &Speaker{
		ctx:    ctx,
		player: ctx.NewPlayer(src),
	}
	sp.player.Play()
	sp.started = true
	debug.Log("speaker", "playing at %d Hz, %.2f generator periods per sample", OutputRate, src.step)

	return sp, nil
}

// Close stops playback. It is safe to call more than once.
func (sp *Speaker) Close() error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if !sp.started {
		return nil
	}
	sp.started = false
	if err := sp.player.Close(); err != nil {
		return fmt.Errorf("close audio player: %w", err)
	}
	return nil
}
