package audio

import (
	"math"
	"testing"
)

func TestResamplerRejectsInvalidRates(t *testing.T) {
	if _, err := NewResampler(0, 16000); err == nil {
		t.Fatal("expected an error for a zero input rate")
	}
	if _, err := NewResampler(48000, -1); err == nil {
		t.Fatal("expected an error for a negative output rate")
	}
}

func TestResamplerDownsamplesToExpectedLength(t *testing.T) {
	resampler, err := NewResampler(48000, 16000)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	input := make([]float32, 480)
	output := resampler.Resample(input)

	if len(output) != 160 {
		t.Fatalf("expected 160 samples for a 3:1 downsample of 480, got %d", len(output))
	}
}

func TestResamplerInterpolatesLinearly(t *testing.T) {
	resampler, err := NewResampler(16000, 32000)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	output := resampler.Resample([]float32{0, 1})

	// Doubling the rate reads at positions 0, 0.5, 1, 1.5.
	want := []float32{0, 0.5, 1, 1}
	if len(output) != len(want) {
		t.Fatalf("expected %d samples, got %d", len(want), len(output))
	}
	for i := range want {
		if math.Abs(float64(output[i]-want[i])) > 1e-6 {
			t.Fatalf("expected sample %d to be %f, got %f", i, want[i], output[i])
		}
	}
}

func TestResamplerCarriesStateAcrossBuffers(t *testing.T) {
	resampler, err := NewResampler(48000, 16000)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	chunked := append(
		resampler.Resample(make([]float32, 481)),
		resampler.Resample(make([]float32, 479))...,
	)

	resampler.Reset()
	whole := resampler.Resample(make([]float32, 960))

	if len(chunked) != len(whole) {
		t.Fatalf("expected chunked and whole conversions to match, got %d vs %d samples", len(chunked), len(whole))
	}
}

func TestResamplerResetDropsCarriedState(t *testing.T) {
	resampler, err := NewResampler(48000, 16000)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	_ = resampler.Resample([]float32{0.5, 0.5, 0.5, 0.5})
	resampler.Reset()

	output := resampler.Resample([]float32{0, 0, 0})
	for i, sample := range output {
		if sample != 0 {
			t.Fatalf("expected silence after a reset, got %f at %d", sample, i)
		}
	}
}
