package audio

import (
	"errors"
	"math"
	"testing"
)

func TestValidateSampleRate(t *testing.T) {
	tests := []struct {
		rate    int
		wantErr bool
	}{
		{SampleRateMin - 1, true},
		{SampleRateMin, false},
		{SampleRateMin + 1, false},
		{22050, false},
		{44100, false},
		{SampleRateMax - 1, false},
		{SampleRateMax, false},
		{SampleRateMax + 1, true},
		{0, true},
		{-44100, true},
	}

	for _, tt := range tests {
		err := ValidateSampleRate(tt.rate)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidSampleRate) {
				t.Errorf("rate %d: expected ErrInvalidSampleRate, got %v", tt.rate, err)
			}
		} else if err != nil {
			t.Errorf("rate %d: unexpected error %v", tt.rate, err)
		}
	}
}

func TestNormalize(t *testing.T) {
	sig, err := Normalize([]int{0, 16384, -32768, 32767}, 16, 44100)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	want := []float64{0, 0.5, -1, 32767.0 / 32768.0}
	for i := range want {
		if math.Abs(sig.Samples[i]-want[i]) > 1e-12 {
			t.Errorf("sample %d = %f, want %f", i, sig.Samples[i], want[i])
		}
	}
	if sig.SampleRate != 44100 {
		t.Errorf("Expected sample rate 44100, got %d", sig.SampleRate)
	}
}

func TestNormalizeBitDepths(t *testing.T) {
	for _, depth := range []int{16, 24, 32} {
		full := 1 << (depth - 1)
		sig, err := Normalize([]int{-full, full / 4}, depth, 16000)
		if err != nil {
			t.Fatalf("%d-bit: Normalize failed: %v", depth, err)
		}
		if sig.Samples[0] != -1 || sig.Samples[1] != 0.25 {
			t.Errorf("%d-bit: got %v", depth, sig.Samples)
		}
	}
}

func TestNormalizeRejectsSampleRate(t *testing.T) {
	for _, rate := range []int{SampleRateMin - 1, SampleRateMax + 1} {
		if _, err := Normalize([]int{1, 2, 3}, 16, rate); !errors.Is(err, ErrInvalidSampleRate) {
			t.Errorf("rate %d: expected ErrInvalidSampleRate, got %v", rate, err)
		}
	}
	for _, rate := range []int{SampleRateMin, SampleRateMax} {
		if _, err := Normalize([]int{1, 2, 3}, 16, rate); err != nil {
			t.Errorf("rate %d: unexpected error %v", rate, err)
		}
	}
}

func TestNormalizeIsPure(t *testing.T) {
	in := []int{1000, -1000}
	if _, err := Normalize(in, 16, 16000); err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if in[0] != 1000 || in[1] != -1000 {
		t.Error("Normalize modified its input")
	}
}
