package audio

import (
	"errors"
	"fmt"
)

// Supported sample-rate band, inclusive on both ends.
const (
	SampleRateMin = 8000
	SampleRateMax = 48000
)

// ErrInvalidSampleRate is returned when a recording's sample rate falls
// outside [SampleRateMin, SampleRateMax].
var ErrInvalidSampleRate = errors.New("invalid sample rate")

// Signal is a normalized mono waveform with samples in [-1, 1].
type Signal struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the signal length in seconds.
func (s *Signal) Duration() float64 {
	if s.SampleRate == 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.SampleRate)
}

// ValidateSampleRate checks a declared sample rate against the supported band.
func ValidateSampleRate(rate int) error {
	if rate < SampleRateMin || rate > SampleRateMax {
		return fmt.Errorf("%w: %d Hz (supported %d-%d Hz)", ErrInvalidSampleRate, rate, SampleRateMin, SampleRateMax)
	}
	return nil
}

// Normalize scales signed integer samples of the given bit depth into
// floating point by dividing by the full-scale magnitude 2^(bitDepth-1).
func Normalize(samples []int, bitDepth, sampleRate int) (*Signal, error) {
	if err := ValidateSampleRate(sampleRate); err != nil {
		return nil, err
	}
	if bitDepth < 2 || bitDepth > 32 {
		return nil, fmt.Errorf("%w: %d bits per sample", ErrUnsupportedFormat, bitDepth)
	}

	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s) * scale
	}
	return &Signal{Samples: out, SampleRate: sampleRate}, nil
}

// LoadSignal reads a WAV file and normalizes it.
func LoadSignal(path string) (*Signal, error) {
	pcm, err := ReadWav(path)
	if err != nil {
		return nil, err
	}
	return Normalize(pcm.Samples, pcm.BitDepth, pcm.SampleRate)
}
