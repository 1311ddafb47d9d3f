package midi_test

import (
	"errors"
	"testing"

	"go-beeper/midi"
	"go-beeper/test"
)

func TestLoadMetrical(t *testing.T) {
	data := midi.Build(96,
		[]midi.Step{midi.On(0, 0, 60, 100), midi.Off(10, 0, 60)},
		[]midi.Step{midi.On(5, 1, 64, 100)},
	)

	f, err := midi.Load(data, 8)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, f.TicksPerSecond, 96)
	test.ExpectEquality(t, f.TotalTracks, 2)
	test.DemandEquality(t, len(f.Tracks), 2)
	test.ExpectEquality(t, f.Tracks[1].Index, 1)
}

func TestLoadTimecode(t *testing.T) {
	tempo := midi.Raw(0, 0xff, 0x51, 0x03, 0x07, 0xa1, 0x20)

	for _, tc := range []struct {
		name          string
		fps, perFrame uint8
		tracks        [][]midi.Step
	}{
		{"plain", 25, 40, [][]midi.Step{{midi.On(0, 0, 60, 100)}}},
		{"tempo", 25, 40, [][]midi.Step{{tempo, midi.On(0, 0, 60, 100), midi.Off(40, 0, 60)}}},
		{"tempo track", 30, 80, [][]midi.Step{{tempo}, {midi.On(10, 1, 64, 100)}}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			data := midi.BuildTimecode(tc.fps, tc.perFrame, tc.tracks...)

			f, err := midi.Load(data, 8)
			test.DemandSuccess(t, err)
			test.ExpectEquality(t, f.TicksPerSecond, int(tc.fps)*int(tc.perFrame))
			test.ExpectEquality(t, len(f.Tracks), len(tc.tracks))

			// deltas are untouched by the header swap
			last := f.Tracks[len(f.Tracks)-1]
			var total uint32
			for ev, ok := last.Next(); ok; ev, ok = last.Next() {
				total += ev.Delta
			}
			want := uint32(0)
			for _, st := range tc.tracks[len(tc.tracks)-1] {
				want += st.Delta
			}
			test.ExpectEquality(t, total, want)
		})
	}

	// the caller's bytes are not rewritten
	data := midi.BuildTimecode(25, 40, []midi.Step{tempo})
	before := string(data)
	_, err := midi.Load(data, 8)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, string(data), before)
}

func TestCheckChannels(t *testing.T) {
	f, err := midi.Load(midi.Build(96,
		[]midi.Step{midi.On(0, 0, 60, 100), midi.Off(4, 3, 60)},
	), 8)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, f.CheckChannels(4))

	f, err = midi.Load(midi.Build(96,
		[]midi.Step{midi.On(0, 0, 60, 100)},
		[]midi.Step{midi.On(5, 9, 38, 100)},
	), 8)
	test.DemandSuccess(t, err)
	err = f.CheckChannels(4)
	test.ExpectFailure(t, err)
	test.ExpectSuccess(t, errors.Is(err, midi.ErrChannel))

	// tracks dropped by maxTracks are not checked
	f, err = midi.Load(midi.Build(96,
		[]midi.Step{midi.On(0, 0, 60, 100)},
		[]midi.Step{midi.On(5, 9, 38, 100)},
	), 1)
	test.DemandSuccess(t, err)
	test.ExpectSuccess(t, f.CheckChannels(4))

	// checking does not consume the tracks
	test.ExpectEquality(t, f.Tracks[0].Remaining() > 0, true)
}

func TestLoadMaxTracks(t *testing.T) {
	var tracks [][]midi.Step
	for i := 0; i < 10; i++ {
		tracks = append(tracks, []midi.Step{midi.On(uint32(i), 0, uint8(60+i), 100)})
	}

	f, err := midi.Load(midi.Build(480, tracks...), 8)
	test.DemandSuccess(t, err)
	test.ExpectEquality(t, len(f.Tracks), 8)
	test.ExpectEquality(t, f.TotalTracks, 10)
}

func TestLoadMalformed(t *testing.T) {
	_, err := midi.Load([]byte("this is not a midi file"), 8)
	test.ExpectFailure(t, err)

	_, err = midi.Load(nil, 8)
	test.ExpectFailure(t, err)
}

func TestLoadNoTracks(t *testing.T) {
	_, err := midi.Load(midi.Build(96), 8)
	test.ExpectFailure(t, err)
}

func TestTrackForwardOnly(t *testing.T) {
	data := midi.Build(96, []midi.Step{midi.On(3, 2, 60, 90), midi.Off(7, 2, 60)})
	f, err := midi.Load(data, 8)
	test.DemandSuccess(t, err)

	tr := f.Tracks[0]
	ev, ok := tr.Next()
	test.DemandSuccess(t, ok)
	test.ExpectEquality(t, ev.Delta, uint32(3))

	note, ok := midi.Decode(ev.Message)
	test.DemandSuccess(t, ok)
	test.ExpectEquality(t, note, midi.Event{Type: midi.NoteOn, Channel: 2, Note: 60, Velocity: 90})

	ev, ok = tr.Next()
	test.DemandSuccess(t, ok)
	test.ExpectEquality(t, ev.Delta, uint32(7))

	for ok {
		_, ok = tr.Next()
	}
	test.ExpectEquality(t, tr.Remaining(), 0)

	_, ok = tr.Next()
	test.ExpectEquality(t, ok, false)
}
