package midi

import (
	"bytes"
	"encoding/binary"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Step is one event handed to Build.
type Step struct {
	Delta   uint32
	Message []byte
}

// On is a note on step.
func On(delta uint32, channel, key, velocity uint8) Step {
	return Step{Delta: delta, Message: gomidi.NoteOn(channel, key, velocity)}
}

// Off is a note off step.
func Off(delta uint32, channel, key uint8) Step {
	return Step{Delta: delta, Message: gomidi.NoteOff(channel, key)}
}

// Raw is a step carrying arbitrary message bytes (meta events, controllers).
func Raw(delta uint32, msg ...byte) Step {
	return Step{Delta: delta, Message: msg}
}

// Build encodes tracks as a standard MIDI file with a metrical division.
// Every track is closed with an end of track meta event at delta 0.
func Build(division uint16, tracks ...[]Step) []byte {
	return build(division, tracks)
}

// BuildTimecode encodes tracks with a timecode division.
func BuildTimecode(fps, ticksPerFrame uint8, tracks ...[]Step) []byte {
	division := uint16(uint8(-int8(fps)))<<8 | uint16(ticksPerFrame)
	return build(division, tracks)
}

func build(division uint16, tracks [][]Step) []byte {
	var out bytes.Buffer

	format := uint16(1)
	if len(tracks) == 1 {
		format = 0
	}

	out.WriteString("MThd")
	binary.Write(&out, binary.BigEndian, uint32(6))
	binary.Write(&out, binary.BigEndian, format)
	binary.Write(&out, binary.BigEndian, uint16(len(tracks)))
	binary.Write(&out, binary.BigEndian, division)

	for _, tr := range tracks {
		var chunk bytes.Buffer
		for _, s := range tr {
			writeVarLen(&chunk, s.Delta)
			chunk.Write(s.Message)
		}
		writeVarLen(&chunk, 0)
		chunk.Write([]byte{0xff, 0x2f, 0x00})

		out.WriteString("MTrk")
		binary.Write(&out, binary.BigEndian, uint32(chunk.Len()))
		out.Write(chunk.Bytes())
	}

	return out.Bytes()
}

func writeVarLen(w *bytes.Buffer, v uint32) {
	var buf [5]byte
	i := len(buf) - 1
	buf[i] = byte(v & 0x7f)
	for v >>= 7; v > 0; v >>= 7 {
		i--
		buf[i] = byte(v&0x7f) | 0x80
	}
	w.Write(buf[i:])
}
