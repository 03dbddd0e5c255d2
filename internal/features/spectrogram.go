package features

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Analysis parameters. They are fixed so that a transcription does not
// depend on the index it will be queried against.
const (
	WindowSize = 2048
	HopSize    = 512
)

// ErrInvalidSignal is returned when the input contains NaN or infinite samples.
var ErrInvalidSignal = errors.New("invalid signal")

// Frame is one analysis window of the spectrogram.
type Frame struct {
	Index      int       // frame number, starting at 0
	Magnitudes []float64 // WindowSize/2 magnitude bins
	RMS        float64   // RMS of the unwindowed samples
}

// Hamming returns a Hamming window of length n.
func Hamming(n int) []float64 {
	w := make([]float64, n)
	for i := 0; i < n; i++ {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// FFTReal wraps the go-dsp FFT function and returns a complex spectrum.
func FFTReal(frame []float64) []complex128 {
	return fft.FFTReal(frame)
}

// MagnitudeSpectrum converts a complex spectrum into a magnitude spectrum (positive freqs only)
func MagnitudeSpectrum(spectrum []complex128) []float64 {
	half := len(spectrum) / 2
	mag := make([]float64, half)
	for i := 0; i < half; i++ {
		mag[i] = cmplx.Abs(spectrum[i])
	}
	return mag
}

// STFT computes the short-time FFT (spectrogram) and returns a time-major
// magnitude spectrogram: spectrogram[frameIdx][freqBin].
func STFT(samples []float64, windowSize, hopSize int, window []float64) ([][]float64, error) {
	if len(window) != windowSize {
		return nil, errors.New("window length must equal windowSize")
	}
	if hopSize <= 0 {
		return nil, errors.New("hop size must be positive")
	}
	if len(samples) < windowSize {
		return nil, errors.New("input shorter than window size")
	}

	spectrogram := make([][]float64, 0, (len(samples)-windowSize)/hopSize+1)
	for start := 0; start+windowSize <= len(samples); start += hopSize {
		spectrogram = append(spectrogram, windowedMagnitudes(samples[start:start+windowSize], window))
	}
	return spectrogram, nil
}

func windowedMagnitudes(samples, window []float64) []float64 {
	frame := make([]float64, len(window))
	for i := range window {
		frame[i] = samples[i] * window[i]
	}
	return MagnitudeSpectrum(FFTReal(frame))
}

func rms(samples []float64) float64 {
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func checkFinite(samples []float64) error {
	for i, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: non-finite sample at offset %d", ErrInvalidSignal, i)
		}
	}
	return nil
}

// Extractor turns a stream of samples into spectrogram frames. Frame i
// always covers samples [i*HopSize, i*HopSize+WindowSize) of the whole
// stream, however the samples are split across Feed calls.
type Extractor struct {
	sampleRate int
	window     []float64
	buf        []float64
	next       int
}

// NewExtractor returns an extractor for a signal at the given sample rate.
func NewExtractor(sampleRate int) *Extractor {
	return &Extractor{
		sampleRate: sampleRate,
		window:     Hamming(WindowSize),
		buf:        make([]float64, 0, 2*WindowSize),
	}
}

// SampleRate returns the sample rate the extractor was created with.
func (e *Extractor) SampleRate() int { return e.sampleRate }

// Feed appends samples and returns every frame that became complete. A chunk
// with a non-finite sample is rejected as a whole and leaves the extractor
// unchanged.
func (e *Extractor) Feed(chunk []float64) ([]Frame, error) {
	if err := checkFinite(chunk); err != nil {
		return nil, err
	}
	e.buf = append(e.buf, chunk...)

	var frames []Frame
	start := 0
	for start+WindowSize <= len(e.buf) {
		samples := e.buf[start : start+WindowSize]
		frames = append(frames, Frame{
			Index:      e.next,
			Magnitudes: windowedMagnitudes(samples, e.window),
			RMS:        rms(samples),
		})
		e.next++
		start += HopSize
	}

	if start > 0 {
		n := copy(e.buf, e.buf[start:])
		e.buf = e.buf[:n]
	}
	return frames, nil
}

// Frames returns the number of frames emitted so far.
func (e *Extractor) Frames() int { return e.next }
