package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// EncodePCM16 scales float samples into little-endian PCM16 bytes. Samples
// are clamped to [-1, 1] before scaling so clipped capture input cannot wrap
// around the int16 range.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, sample := range samples {
		if sample > 1 {
			sample = 1
		} else if sample < -1 {
			sample = -1
		}

		value := int16(math.Round(float64(sample) * 32767))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(value))
	}
	return out
}

// DecodePCM16 converts little-endian PCM16 bytes into float samples in
// [-1, 1). An odd trailing byte means a frame was split mid-sample and is a
// decode error rather than something to drop silently.
func DecodePCM16(data []byte) ([]float32, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("pcm16 payload has odd length %d", len(data))
	}

	out := make([]float32, len(data)/2)
	for i := range out {
		value := int16(binary.LittleEndian.Uint16(data[i*2:]))
		out[i] = float32(value) / 32768.0
	}
	return out, nil
}
