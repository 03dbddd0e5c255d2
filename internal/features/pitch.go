package features

import (
	"math"

	"github.com/himanishpuri/FolkDNA/internal/model"
)

// Pitch search band and silence gate.
const (
	MinMIDI = 48 // C3
	MaxMIDI = 96 // C7

	// SilenceRMS is the frame RMS below which no pitch is reported (about -40 dBFS).
	SilenceRMS = 0.01

	// subharmonicRatio is how strong the bin an octave below the peak must
	// be, relative to the peak, to be taken as the fundamental.
	subharmonicRatio = 0.5

	logFloor = 1e-12
)

// PitchEstimate is the pitch detected for one frame.
type PitchEstimate struct {
	Frame      int
	Pitch      int     // MIDI note, or model.Rest when no pitch was found
	Frequency  float64 // refined peak frequency in Hz, 0 for rests
	Confidence float64 // share of the band energy held by the peak, in [0, 1]
}

// MIDIToFrequency converts a (possibly fractional) MIDI note to Hz.
func MIDIToFrequency(midi float64) float64 {
	return 440.0 * math.Pow(2, (midi-69)/12)
}

// FrequencyToMIDI returns the nearest MIDI note for a frequency in Hz.
func FrequencyToMIDI(freq float64) int {
	return int(math.Round(69 + 12*math.Log2(freq/440.0)))
}

// parabolicInterpolate returns the sub-bin offset of a peak in [-0.5, 0.5].
func parabolicInterpolate(yMinus, y0, yPlus float64) float64 {
	denom := yMinus - 2.0*y0 + yPlus
	if denom == 0.0 {
		return 0.0
	}
	return 0.5 * (yMinus - yPlus) / denom
}

// bandBins returns the bin range [lo, hi] covering MinMIDI..MaxMIDI, leaving
// one bin on each side for interpolation.
func bandBins(nBins int, binHz float64) (int, int) {
	lo := int(math.Ceil(MIDIToFrequency(MinMIDI-0.5) / binHz))
	hi := int(math.Floor(MIDIToFrequency(MaxMIDI+0.5) / binHz))
	if lo < 1 {
		lo = 1
	}
	if hi > nBins-2 {
		hi = nBins - 2
	}
	return lo, hi
}

// DetectPitch estimates the dominant pitch of a frame. Frames quieter than
// SilenceRMS, or with no energy inside the search band, are reported as rests.
func DetectPitch(frame Frame, sampleRate int) PitchEstimate {
	rest := PitchEstimate{Frame: frame.Index, Pitch: model.Rest}
	if frame.RMS < SilenceRMS || len(frame.Magnitudes) < 3 || sampleRate <= 0 {
		return rest
	}

	mags := frame.Magnitudes
	binHz := float64(sampleRate) / float64(2*len(mags))
	lo, hi := bandBins(len(mags), binHz)
	if lo > hi {
		return rest
	}

	peak := lo
	var energy float64
	for i := lo; i <= hi; i++ {
		energy += mags[i] * mags[i]
		if mags[i] > mags[peak] {
			peak = i
		}
	}
	if energy == 0 {
		return rest
	}

	// Prefer the subharmonic when it carries comparable energy, so a strong
	// second partial is not reported an octave too high.
	if sub := peak / 2; sub >= lo {
		best := sub
		for _, k := range []int{sub - 1, sub + 1} {
			if k >= lo && k <= hi && mags[k] > mags[best] {
				best = k
			}
		}
		if mags[best] >= subharmonicRatio*mags[peak] {
			peak = best
		}
	}

	offset := parabolicInterpolate(
		math.Log(mags[peak-1]+logFloor),
		math.Log(mags[peak]+logFloor),
		math.Log(mags[peak+1]+logFloor),
	)
	freq := (float64(peak) + offset) * binHz

	midi := FrequencyToMIDI(freq)
	if midi < MinMIDI {
		midi = MinMIDI
	} else if midi > MaxMIDI {
		midi = MaxMIDI
	}

	return PitchEstimate{
		Frame:      frame.Index,
		Pitch:      midi,
		Frequency:  freq,
		Confidence: mags[peak] * mags[peak] / energy,
	}
}
