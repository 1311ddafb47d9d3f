package synth

// PCM streams unsigned 8 bit samples, looping at the end of the data.
type PCM struct {
	data   []byte
	stride float64
	gain   float64
	cursor float64
}

// NewPCM plays data recorded at dataRate on an output running at targetRate.
// gain scales each sample about the midpoint.
func NewPCM(data []byte, dataRate, targetRate int, gain float64) *PCM {
	stride := 1.0
	if dataRate > 0 && targetRate > 0 {
		stride = float64(dataRate) / float64(targetRate)
	}
	return &PCM{
		data:   data,
		stride: stride,
		gain:   gain,
	}
}

// Fill writes the next len(buf) samples scaled to [0, top]
func (p *PCM) Fill(buf []uint16, top uint16) {
	if len(p.data) == 0 {
		FillSilence(buf)
		return
	}

	n := float64(len(p.data))
	for i := range buf {
		d := float64(p.data[int(p.cursor)]) / 255
		y := (d-0.5)*p.gain + 0.5
		buf[i] = uint16(clamp(y) * float64(top))

		p.cursor += p.stride
		for p.cursor >= n {
			p.cursor -= n
		}
	}
}

// Cursor returns the index of the next sample
func (p *PCM) Cursor() int {
	return int(p.cursor)
}

// Len returns the number of samples in one loop
func (p *PCM) Len() int {
	return len(p.data)
}
