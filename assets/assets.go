// Package assets embeds the tune and sample played when no file is given.
package assets

import _ "embed"

// Tune is a four track standard MIDI file using channels 0 to 3
//
//go:embed tune.mid
var Tune []byte

// Boing is unsigned 8 bit mono PCM recorded at 2700 Hz
//
//go:embed boing.u8
var Boing []byte

// BoingRate is the sample rate of Boing
const BoingRate = 2700
