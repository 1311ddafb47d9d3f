package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
)

// Event is a note event. Everything other than note on and note off is
// dropped before an Event exists.
type Event struct {
	Type     uint8 // NoteOn, NoteOff
	Channel  uint8
	Note     uint8
	Velocity uint8
}

// Decode interprets a raw channel message. A note on with velocity zero is
// returned as a note off. ok is false for every other kind of message.
func Decode(msg []byte) (ev Event, ok bool) {
	m := gomidi.Message(msg)

	var channel, key, velocity uint8
	switch {
	case m.GetNoteOn(&channel, &key, &velocity):
		if velocity == 0 {
			return Event{Type: NoteOff, Channel: channel, Note: key}, true
		}
		return Event{Type: NoteOn, Channel: channel, Note: key, Velocity: velocity}, true
	case m.GetNoteOff(&channel, &key, &velocity):
		return Event{Type: NoteOff, Channel: channel, Note: key, Velocity: velocity}, true
	}
	return Event{}, false
}

func (e Event) String() string {
	switch e.Type {
	case NoteOn:
		return fmt.Sprintf("ch%d note on %d vel %d", e.Channel, e.Note, e.Velocity)
	case NoteOff:
		return fmt.Sprintf("ch%d note off %d", e.Channel, e.Note)
	}
	return fmt.Sprintf("ch%d type %#02x", e.Channel, e.Type)
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName spells a key with its octave, key 60 being C4
func NoteName(key uint8) string {
	return fmt.Sprintf("%s%d", noteNames[key%12], int(key)/12-1)
}
