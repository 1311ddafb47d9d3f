package midi

import (
	"bytes"
	"errors"
	"fmt"

	"gitlab.com/gomidi/midi/v2/smf"
)

// ErrNoTracks is returned by Load when the file parses but holds no tracks
var ErrNoTracks = errors.New("midi: no tracks")

// ErrChannel is returned by CheckChannels for notes outside the playable channels
var ErrChannel = errors.New("midi: channel out of range")

// File is a parsed standard MIDI file ready for playback.
type File struct {
	// TicksPerSecond comes from the header division. A metrical division is
	// used as is; a timecode division is frames per second times ticks per frame.
	TicksPerSecond int

	// Tracks holds at most the maxTracks passed to Load.
	Tracks []*Track

	// TotalTracks counts every track in the file, including those dropped.
	TotalTracks int
}

// TrackEvent is one entry of a track: the delta from the previous entry on
// the same track and the raw message.
type TrackEvent struct {
	Delta   uint32
	Message []byte
}

// Track is a forward-only iterator over the events of one track. It shares
// the parsed file and cannot be rewound.
type Track struct {
	Index  int
	events smf.Track
	pos    int
}

// Next returns the next event and advances the track. ok is false once the
// track is exhausted, and stays false.
func (t *Track) Next() (ev TrackEvent, ok bool) {
	if t.pos >= len(t.events) {
		return TrackEvent{}, false
	}
	e := t.events[t.pos]
	t.pos++
	return TrackEvent{Delta: e.Delta, Message: e.Message}, true
}

// Remaining returns the number of events not yet returned by Next.
func (t *Track) Remaining() int {
	return len(t.events) - t.pos
}

// Load parses data and returns the timing metadata and up to maxTracks track
// iterators. Any parse error is returned; the data is a build time asset so
// callers are expected to treat it as fatal.
func Load(data []byte, maxTracks int) (*File, error) {
	s, tc, err := read(data)
	if err != nil {
		return nil, err
	}

	tf := s.TimeFormat
	if tc != nil {
		tf = *tc
	}
	tps, err := ticksPerSecond(tf)
	if err != nil {
		return nil, err
	}

	if len(s.Tracks) == 0 {
		return nil, ErrNoTracks
	}

	f := &File{
		TicksPerSecond: tps,
		TotalTracks:    len(s.Tracks),
	}

	for i, tr := range s.Tracks {
		if i >= maxTracks {
			break
		}
		f.Tracks = append(f.Tracks, &Track{Index: i, events: tr})
	}

	return f, nil
}

// read runs smf.ReadFrom. smf resolves tempo changes against the division
// and only copes with metrical ones, so a timecode header is swapped for a
// metrical one on a copy of data and returned separately. Tempo plays no
// part in a timecode tick rate.
func read(data []byte) (s *smf.SMF, tc *smf.TimeCode, err error) {
	if len(data) >= 14 && string(data[:4]) == "MThd" && data[12]&0x80 != 0 {
		tc = &smf.TimeCode{
			FramesPerSecond: uint8(-int8(data[12])),
			SubFrames:       data[13],
		}
		data = bytes.Clone(data)
		data[12], data[13] = 0x00, 0x60
	}

	defer func() {
		if r := recover(); r != nil {
			s, tc, err = nil, nil, fmt.Errorf("parse midi: %v", r)
		}
	}()

	s, err = smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("parse midi: %w", err)
	}
	return s, tc, nil
}

// CheckChannels returns an error wrapping ErrChannel when any note event on
// the loaded tracks uses a channel at or above limit.
func (f *File) CheckChannels(limit int) error {
	for _, t := range f.Tracks {
		for _, e := range t.events {
			ev, ok := Decode(e.Message)
			if ok && int(ev.Channel) >= limit {
				return fmt.Errorf("%w: track %d uses channel %d, at most %d channels are played",
					ErrChannel, t.Index, ev.Channel, limit)
			}
		}
	}
	return nil
}

func ticksPerSecond(tf smf.TimeFormat) (int, error) {
	var tps int
	switch tf := tf.(type) {
	case smf.MetricTicks:
		tps = int(tf)
	case smf.TimeCode:
		tps = int(tf.FramesPerSecond) * int(tf.SubFrames)
	default:
		return 0, fmt.Errorf("parse midi: unsupported time format %v", tf)
	}
	if tps <= 0 {
		return 0, fmt.Errorf("parse midi: invalid time division %v", tf)
	}
	return tps, nil
}
