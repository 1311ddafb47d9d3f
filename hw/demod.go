package hw

// Demodulator turns duty values into audio samples the way the speaker's
// low pass sees them: the average level with the DC offset removed.
type Demodulator struct {
	prevIn  float64
	prevOut float64
}

// dcPole sets the high pass corner; 0.995 is a few tens of Hz at audio rates
const dcPole = 0.995

// Sample converts duty out of top into a level in [-1, 1]
func (d *Demodulator) Sample(duty, top uint16) float64 {
	if top == 0 {
		return 0
	}
	x := float64(duty) / float64(top)
	y := x - d.prevIn + dcPole*d.prevOut
	d.prevIn = x
	d.prevOut = y
	return min(max(y, -1), 1)
}

// Reset forgets the filter history
func (d *Demodulator) Reset() {
	d.prevIn = 0
	d.prevOut = 0
}
