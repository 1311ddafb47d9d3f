package sequencer

import (
	"go-beeper/debug"
	"go-beeper/midi"
)

// MaxTracks is the most tracks a Scheduler merges. Tracks beyond it are ignored.
const MaxTracks = 8

// OutcomeKind says what AdvanceTo found
type OutcomeKind int

const (
	OutcomeEvent    OutcomeKind = iota // a note event is due
	OutcomePending                     // the next event is later than the requested tick
	OutcomeFinished                    // every track is exhausted
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeEvent:
		return "event"
	case OutcomePending:
		return "pending"
	case OutcomeFinished:
		return "finished"
	}
	return "unknown"
}

// Outcome is the result of AdvanceTo. Event, Track and Tick are only set for
// OutcomeEvent.
type Outcome struct {
	Kind  OutcomeKind
	Event midi.Event
	Track int
	Tick  uint32
}

// pendingEvent is the cached next event of one track and the absolute tick
// it fires at
type pendingEvent struct {
	event midi.TrackEvent
	tick  uint32
	ok    bool
}

// Scheduler merges independent tracks into one stream ordered by absolute
// tick. Events on the same tick come out in ascending track order.
//
// Every step costs O(tracks), so AdvanceTo is safe to call from the tick
// interrupt.
type Scheduler struct {
	tracks  [MaxTracks]*midi.Track
	pending [MaxTracks]pendingEvent
	ticks   [MaxTracks]uint32 // absolute tick of the last consumed event
	count   int

	// cached minimum over pending; nextTrack is -1 when nothing is pending
	nextTrack int
	nextTick  uint32
}

// NewScheduler takes ownership of tracks. Only the first MaxTracks are used.
func NewScheduler(tracks []*midi.Track) *Scheduler {
	s := &Scheduler{nextTrack: -1}

	for i, tr := range tracks {
		if i >= MaxTracks {
			debug.Log("sched", "ignoring %d tracks beyond %d", len(tracks)-MaxTracks, MaxTracks)
			break
		}
		s.tracks[i] = tr
		s.count++
		s.load(i)
	}

	debug.Log("sched", "num of tracks: %d", s.count)

	s.updateNext()
	return s
}

// load caches the next event of track i, or marks the track exhausted
func (s *Scheduler) load(i int) {
	ev, ok := s.tracks[i].Next()
	if !ok {
		s.pending[i] = pendingEvent{}
		debug.Log("sched", "track %d exhausted at tick %d", i, s.ticks[i])
		return
	}
	s.pending[i] = pendingEvent{
		event: ev,
		tick:  s.ticks[i] + ev.Delta,
		ok:    true,
	}
}

// updateNext recomputes the cached minimum. Strict comparison keeps the
// lowest track index on ties.
func (s *Scheduler) updateNext() {
	s.nextTrack = -1
	s.nextTick = 0

	for i := 0; i < s.count; i++ {
		p := &s.pending[i]
		if !p.ok {
			continue
		}
		if s.nextTrack < 0 || p.tick < s.nextTick {
			s.nextTrack = i
			s.nextTick = p.tick
		}
	}
}

// pop consumes the earliest pending event and refills its track
func (s *Scheduler) pop() (int, pendingEvent) {
	i := s.nextTrack
	p := s.pending[i]
	s.ticks[i] = p.tick
	s.load(i)
	s.updateNext()
	return i, p
}

// AdvanceTo returns the next note event due at or before tick. Non-note
// events are consumed and skipped. Callers loop until OutcomePending or
// OutcomeFinished. Once OutcomeFinished is returned it is returned forever.
func (s *Scheduler) AdvanceTo(tick uint32) Outcome {
	for {
		if s.nextTrack < 0 {
			return Outcome{Kind: OutcomeFinished}
		}

		if s.nextTick > tick {
			return Outcome{Kind: OutcomePending}
		}

		i, p := s.pop()

		ev, ok := midi.Decode(p.event.Message)
		if !ok {
			continue
		}

		return Outcome{
			Kind:  OutcomeEvent,
			Event: ev,
			Track: i,
			Tick:  p.tick,
		}
	}
}

// Next returns the track and absolute tick of the earliest pending event.
// ok is false when every track is exhausted.
func (s *Scheduler) Next() (track int, tick uint32, ok bool) {
	if s.nextTrack < 0 {
		return 0, 0, false
	}
	return s.nextTrack, s.nextTick, true
}

// Finished reports whether every track is exhausted
func (s *Scheduler) Finished() bool {
	return s.nextTrack < 0
}

// Tracks returns the number of tracks being merged
func (s *Scheduler) Tracks() int {
	return s.count
}

// Active returns the number of tracks that still have events
func (s *Scheduler) Active() int {
	n := 0
	for i := 0; i < s.count; i++ {
		if s.pending[i].ok {
			n++
		}
	}
	return n
}
