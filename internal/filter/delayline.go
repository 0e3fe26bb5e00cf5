package filter

// DelayLine holds the most recent samples, newest at index 0.
type DelayLine struct {
	taps []int64
}

// NewDelayLine creates a zeroed delay line of length n.
func NewDelayLine(n int) *DelayLine {
	return &DelayLine{taps: make([]int64, n)}
}

// Push shifts every sample one position older and stores x as the newest.
// The oldest sample falls off the end.
func (d *DelayLine) Push(x int64) {
	if len(d.taps) == 0 {
		return
	}
	copy(d.taps[1:], d.taps[:len(d.taps)-1])
	d.taps[0] = x
}

// At returns the sample i positions old.
func (d *DelayLine) At(i int) int64 { return d.taps[i] }

// Len returns the number of taps.
func (d *DelayLine) Len() int { return len(d.taps) }

// Clear zeroes every tap.
func (d *DelayLine) Clear() { clear(d.taps) }

// Snapshot returns a copy of the taps, newest first.
func (d *DelayLine) Snapshot() []int64 {
	out := make([]int64, len(d.taps))
	copy(out, d.taps)
	return out
}
