package sequencer

import (
	"fmt"

	"go-beeper/midi"
)

// MaxChannels is the number of output voice slots
const MaxChannels = 4

// DefaultKey is the key a silent slot starts from when nudged
const DefaultKey = 60

// Slot is one voice of the table
type Slot struct {
	Key    uint8
	Active bool
}

// VoiceTable records which key, if any, sounds on each output channel.
// Channels at or beyond MaxChannels are a programming error and panic.
type VoiceTable struct {
	slots [MaxChannels]Slot
}

func checkChannel(channel uint8) {
	if int(channel) >= MaxChannels {
		panic(fmt.Sprintf("voice table: channel %d out of range (max %d)", channel, MaxChannels-1))
	}
}

// NoteOn starts key on channel, replacing whatever was there
func (v *VoiceTable) NoteOn(channel, key uint8) {
	checkChannel(channel)
	v.slots[channel] = Slot{Key: key, Active: true}
}

// NoteOff silences channel. The slot is cleared whatever key it holds, so a
// note off always wins over an earlier note on for the same channel.
func (v *VoiceTable) NoteOff(channel, key uint8) {
	checkChannel(channel)
	v.slots[channel] = Slot{}
}

// Release silences channel only while it still sounds key. A held keyboard
// uses it so letting go of an older key leaves the newer one playing.
func (v *VoiceTable) Release(channel, key uint8) {
	checkChannel(channel)
	if s := v.slots[channel]; s.Active && s.Key == key {
		v.slots[channel] = Slot{}
	}
}

// Apply routes a decoded event to NoteOn or NoteOff
func (v *VoiceTable) Apply(ev midi.Event) {
	switch ev.Type {
	case midi.NoteOn:
		if ev.Velocity == 0 {
			v.NoteOff(ev.Channel, ev.Note)
			return
		}
		v.NoteOn(ev.Channel, ev.Note)
	case midi.NoteOff:
		v.NoteOff(ev.Channel, ev.Note)
	}
}

// Key returns the key sounding on channel
func (v *VoiceTable) Key(channel int) (uint8, bool) {
	checkChannel(uint8(channel))
	s := v.slots[channel]
	return s.Key, s.Active
}

// Each calls fn for every active channel in channel order
func (v *VoiceTable) Each(fn func(channel, key uint8)) {
	for i, s := range v.slots {
		if s.Active {
			fn(uint8(i), s.Key)
		}
	}
}

// Highest returns the highest active key. When voices collapse to a single
// output the higher key is the one heard.
func (v *VoiceTable) Highest() (uint8, bool) {
	var key uint8
	found := false
	for _, s := range v.slots {
		if s.Active && (!found || s.Key > key) {
			key = s.Key
			found = true
		}
	}
	return key, found
}

// Count returns the number of active channels
func (v *VoiceTable) Count() int {
	n := 0
	for _, s := range v.slots {
		if s.Active {
			n++
		}
	}
	return n
}

// Nudge moves the key on channel by delta semitones. A silent channel starts
// from DefaultKey. The result is clamped to the MIDI key range.
func (v *VoiceTable) Nudge(channel uint8, delta int) uint8 {
	checkChannel(channel)
	s := &v.slots[channel]
	if !s.Active {
		*s = Slot{Key: DefaultKey, Active: true}
	}
	k := int(s.Key) + delta
	k = min(max(k, 0), 127)
	s.Key = uint8(k)
	return s.Key
}

// Clear silences every channel
func (v *VoiceTable) Clear() {
	v.slots = [MaxChannels]Slot{}
}

// Slots returns a copy of the table
func (v *VoiceTable) Slots() [MaxChannels]Slot {
	return v.slots
}
