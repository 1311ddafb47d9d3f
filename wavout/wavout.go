// Package wavout renders a player offline to a WAV file. The tick timer is
// driven from the sample count, so the render is deterministic and runs as
// fast as the machine allows.
package wavout

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"go-beeper/debug"
	"go-beeper/hw"
	"go-beeper/player"
)

const chunkSize = 4096

// DefaultMaxDuration applies when Options.MaxDuration is zero
const DefaultMaxDuration = 10 * time.Minute

type Options struct {
	// MaxDuration caps the render for players that never finish. Zero
	// means DefaultMaxDuration.
	MaxDuration time.Duration
	// Tail is rendered after the player finishes so the output settles
	Tail time.Duration
}

type Result struct {
	SampleRate int
	Samples    int
	Duration   time.Duration
	Finished   bool // the player ended by itself
	Status     player.Status
}

// Render starts p on rig and writes 16 bit mono samples to w at the player's
// pulse generator rate until p finishes (plus the tail) or MaxDuration
// passes. The player is stopped before Render returns.
func Render(w io.WriteSeeker, rig *player.Rig, p player.Player, opts Options) (Result, error) {
	rate := p.Rate()
	sr := int(math.Round(rate))
	if sr <= 0 {
		return Result{}, fmt.Errorf("render: invalid sample rate %v", rate)
	}

	enc := wav.NewEncoder(w, sr, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sr},
		Data:           make([]int, 0, chunkSize),
		SourceBitDepth: 16,
	}

	p.Start()
	defer p.Stop()

	top := rig.PWM.CounterTop()
	tickStep := 0.0
	if rig.RTC.Running() {
		tickStep = rig.RTC.Rate() / rate
	}

	if opts.MaxDuration <= 0 {
		opts.MaxDuration = DefaultMaxDuration
	}
	limit := int(math.Round(opts.MaxDuration.Seconds() * rate))
	tail := int(math.Round(opts.Tail.Seconds() * rate))
	end := -1

	var demod hw.Demodulator
	var acc float64
	n := 0
	for ; n < limit; n++ {
		if end >= 0 && n >= end {
			break
		}

		acc += tickStep
		for acc >= 1 {
			rig.RTC.Fire()
			acc--
		}

		level := demod.Sample(rig.PWM.Tick(), top)
		buf.Data = append(buf.Data, int(level*math.MaxInt16))

		if len(buf.Data) == chunkSize {
			if err := enc.Write(buf); err != nil {
				return Result{}, fmt.Errorf("render: %w", err)
			}
			buf.Data = buf.Data[:0]

			if end < 0 && done(p) {
				end = n + 1 + tail
				debug.Log("render", "player finished at sample %d", n+1)
			}
		}
	}

	if len(buf.Data) > 0 {
		if err := enc.Write(buf); err != nil {
			return Result{}, fmt.Errorf("render: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return Result{}, fmt.Errorf("render: %w", err)
	}

	res := Result{
		SampleRate: sr,
		Samples:    n,
		Duration:   time.Duration(n) * time.Second / time.Duration(sr),
		Finished:   done(p),
		Status:     p.Status(),
	}
	debug.Log("render", "%d samples at %d Hz, %d buffers, %d deadline misses",
		res.Samples, sr, res.Status.Stats.Buffers, res.Status.Stats.DeadlineMisses)
	return res, nil
}

func done(p player.Player) bool {
	select {
	case <-p.Done():
		return true
	default:
		return false
	}
}
