package sequencer

import (
	"math"

	"go-beeper/debug"
)

// RTCFrequency is the low frequency clock feeding the tick timer
const RTCFrequency = 32768

// MaxPrescaler is the largest value the 12 bit prescaler register holds
const MaxPrescaler = 1<<12 - 1

// Prescaler reduces a tick rate to the timer prescaler. The timer fires at
// RTCFrequency / (prescaler + 1).
func Prescaler(ticksPerSecond int) uint16 {
	if ticksPerSecond <= 0 {
		return MaxPrescaler
	}
	p := math.Round(RTCFrequency/float64(ticksPerSecond)) - 1
	p = math.Min(math.Max(p, 0), MaxPrescaler)
	return uint16(p)
}

// TickRate is the rate in Hz the timer fires at for a prescaler
func TickRate(prescaler uint16) float64 {
	return RTCFrequency / float64(uint32(prescaler)+1)
}

// Clock is the body of the tick interrupt. Each Step advances the musical
// tick by one and applies every event that became due to the voice table.
type Clock struct {
	sched    *Scheduler
	voices   *VoiceTable
	tick     uint32
	finished bool

	// OnEvent, if set, sees every event after it has been applied
	OnEvent func(tick uint32, out Outcome)
}

func NewClock(sched *Scheduler, voices *VoiceTable) *Clock {
	return &Clock{
		sched:  sched,
		voices: voices,
	}
}

// Step advances one tick. It returns false once every track is exhausted, at
// which point all voices have been silenced and the caller should stop the
// timer. Later calls do nothing and keep returning false.
func (c *Clock) Step() bool {
	if c.finished {
		return false
	}

	c.tick++

	for {
		out := c.sched.AdvanceTo(c.tick)
		switch out.Kind {
		case OutcomeEvent:
			c.voices.Apply(out.Event)
			debug.Log("clock", "tick %d track %d %v", c.tick, out.Track, out.Event)
			if c.OnEvent != nil {
				c.OnEvent(c.tick, out)
			}
		case OutcomePending:
			return true
		case OutcomeFinished:
			debug.Log("clock", "playback finished at tick %d", c.tick)
			c.voices.Clear()
			c.finished = true
			return false
		}
	}
}

// Tick returns the number of ticks elapsed
func (c *Clock) Tick() uint32 {
	return c.tick
}

// Finished reports whether Step has seen the end of every track
func (c *Clock) Finished() bool {
	return c.finished
}
