package audio

import (
	"fmt"
	"math"
)

// Resampler converts mono float samples from an input rate to an output rate
// using linear interpolation. It carries fractional read position and the
// last input sample across calls so chunk boundaries stay continuous.
type Resampler struct {
	inputRate  int
	outputRate int

	// pos is the fractional read position into the virtual input stream,
	// relative to the start of the next buffer. A negative value means the
	// next output sample still interpolates against lastSample.
	pos        float64
	lastSample float32
	primed     bool
}

func NewResampler(inputRate, outputRate int) (*Resampler, error) {
	if inputRate <= 0 || outputRate <= 0 {
		return nil, fmt.Errorf("invalid resampling rates: %d -> %d", inputRate, outputRate)
	}

	return &Resampler{inputRate: inputRate, outputRate: outputRate}, nil
}

// Ratio returns outputRate / inputRate.
func (r *Resampler) Ratio() float64 {
	return float64(r.outputRate) / float64(r.inputRate)
}

// OutputCapacity returns the worst-case number of output samples a single
// conversion of inputFrames samples can produce.
func (r *Resampler) OutputCapacity(inputFrames int) int {
	return int(math.Ceil(float64(inputFrames) * r.Ratio()))
}

// Resample consumes the whole input buffer in one call and returns the
// produced output samples. Each call is fed exactly one complete buffer;
// the resampler never holds input back for a later pull.
func (r *Resampler) Resample(input []float32) []float32 {
	if len(input) == 0 {
		return nil
	}
	if r.inputRate == r.outputRate {
		out := make([]float32, len(input))
		copy(out, input)
		r.lastSample = input[len(input)-1]
		r.primed = true
		return out
	}

	step := float64(r.inputRate) / float64(r.outputRate)
	out := make([]float32, 0, r.OutputCapacity(len(input))+1)

	pos := r.pos
	if !r.primed {
		// First buffer ever: the stream starts at sample 0, nothing to
		// interpolate against before it.
		pos = 0
		r.lastSample = input[0]
		r.primed = true
	}

	for pos < float64(len(input)) {
		idx := int(math.Floor(pos))
		frac := pos - float64(idx)

		var s0, s1 float32
		switch {
		case idx < 0:
			s0 = r.lastSample
			s1 = input[0]
		case idx+1 < len(input):
			s0 = input[idx]
			s1 = input[idx+1]
		default:
			s0 = input[idx]
			s1 = input[idx]
		}

		out = append(out, s0+float32(frac)*(s1-s0))
		pos += step
	}

	r.pos = pos - float64(len(input))
	r.lastSample = input[len(input)-1]
	return out
}

// Reset drops the carried filter state so the next buffer starts a fresh
// stream.
func (r *Resampler) Reset() {
	r.pos = 0
	r.lastSample = 0
	r.primed = false
}
