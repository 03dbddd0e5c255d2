package features

import (
	"errors"
	"math"
	"testing"

	"github.com/himanishpuri/FolkDNA/internal/audio"
	"github.com/himanishpuri/FolkDNA/internal/model"
)

func sine(freq float64, sampleRate int, seconds float64, amplitude float64) []float64 {
	n := int(seconds * float64(sampleRate))
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestFrequencyToMIDI(t *testing.T) {
	tests := []struct {
		freq float64
		want int
	}{
		{440, 69},
		{261.63, 60},
		{880, 81},
		{452, 69}, // within half a semitone
	}
	for _, tt := range tests {
		if got := FrequencyToMIDI(tt.freq); got != tt.want {
			t.Errorf("FrequencyToMIDI(%f) = %d, want %d", tt.freq, got, tt.want)
		}
	}
	if math.Abs(MIDIToFrequency(69)-440) > 1e-9 {
		t.Error("MIDIToFrequency(69) should be 440 Hz")
	}
}

func TestDetectPitchSine(t *testing.T) {
	tests := []struct {
		sampleRate int
		midi       int
	}{
		{22050, 69},
		{44100, 69},
		{8000, 69},
		{22050, 62},
		{22050, 79},
		{16000, 57},
	}

	for _, tt := range tests {
		freq := MIDIToFrequency(float64(tt.midi))
		e := NewExtractor(tt.sampleRate)
		frames, err := e.Feed(sine(freq, tt.sampleRate, 0.5, 0.5))
		if err != nil {
			t.Fatalf("Feed failed: %v", err)
		}
		if len(frames) == 0 {
			t.Fatalf("%d Hz: no frames", tt.sampleRate)
		}
		for _, f := range frames {
			p := DetectPitch(f, tt.sampleRate)
			if p.Pitch != tt.midi {
				t.Fatalf("%d Hz, note %d: frame %d detected %d (%.2f Hz)", tt.sampleRate, tt.midi, f.Index, p.Pitch, p.Frequency)
			}
			if p.Confidence <= 0 || p.Confidence > 1 {
				t.Errorf("confidence out of range: %f", p.Confidence)
			}
		}
	}
}

func TestDetectPitchSilence(t *testing.T) {
	e := NewExtractor(22050)
	frames, _ := e.Feed(make([]float64, WindowSize))
	p := DetectPitch(frames[0], 22050)
	if p.Pitch != model.Rest {
		t.Errorf("Expected rest for silent frame, got %d", p.Pitch)
	}
}

func TestDecode(t *testing.T) {
	contour := []PitchEstimate{
		{Pitch: model.Rest}, {Pitch: model.Rest},
		{Pitch: 60}, {Pitch: 60}, {Pitch: 60},
		{Pitch: 62},
		{Pitch: model.Rest},
	}
	got := Decode(contour).String()
	if got != "r:2 C4:3 D4:1 r:1" {
		t.Errorf("Decode = %q", got)
	}
	if len(Decode(nil)) != 0 {
		t.Error("empty contour should decode to an empty transcription")
	}
}

func TestTranscribeSilence(t *testing.T) {
	sig := &audio.Signal{Samples: make([]float64, 3*22050), SampleRate: 22050}
	tr, err := Transcribe(sig)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	frames := (len(sig.Samples)-WindowSize)/HopSize + 1
	if len(tr) != 1 {
		t.Fatalf("Expected a single rest token, got %v", tr)
	}
	if !tr[0].IsRest() || tr[0].Duration != frames {
		t.Errorf("Expected r:%d, got %s", frames, tr)
	}
}

func TestTranscribeShortSignal(t *testing.T) {
	sig := &audio.Signal{Samples: sine(440, 22050, 0.05, 0.5), SampleRate: 22050}
	tr, err := Transcribe(sig)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if tr == nil || len(tr) != 0 {
		t.Errorf("Expected empty transcription, got %v", tr)
	}
}

func TestTranscribeMelody(t *testing.T) {
	const sr = 22050
	var samples []float64
	notes := []int{69, 72, 76, 74}
	for _, n := range notes {
		samples = append(samples, sine(MIDIToFrequency(float64(n)), sr, 0.4, 0.5)...)
	}

	tr, err := Transcribe(&audio.Signal{Samples: samples, SampleRate: sr})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	var got []int
	for _, tok := range tr {
		if tok.IsRest() {
			t.Fatalf("unexpected rest in %s", tr)
		}
		if len(got) == 0 || got[len(got)-1] != tok.Pitch {
			got = append(got, tok.Pitch)
		}
	}
	if len(got) != len(notes) {
		t.Fatalf("Expected pitches %v, got %v (%s)", notes, got, tr)
	}
	for i := range notes {
		if got[i] != notes[i] {
			t.Errorf("note %d = %d, want %d", i, got[i], notes[i])
		}
	}
	if tr.Frames() != (len(samples)-WindowSize)/HopSize+1 {
		t.Errorf("token durations should cover every frame, got %d", tr.Frames())
	}
}

func TestTranscriberStreamingMatchesOneShot(t *testing.T) {
	const sr = 16000
	samples := append(sine(392, sr, 0.5, 0.4), make([]float64, sr/4)...)
	samples = append(samples, sine(523.25, sr, 0.5, 0.4)...)

	oneShot, err := Transcribe(&audio.Signal{Samples: samples, SampleRate: sr})
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	tr, err := NewTranscriber(sr)
	if err != nil {
		t.Fatalf("NewTranscriber failed: %v", err)
	}
	for start := 0; start < len(samples); start += 700 {
		end := min(start+700, len(samples))
		if err := tr.Feed(samples[start:end]); err != nil {
			t.Fatalf("Feed failed: %v", err)
		}
	}
	streamed := tr.Finish()

	if streamed.String() != oneShot.String() {
		t.Errorf("streamed %q != one-shot %q", streamed, oneShot)
	}
}

func TestTranscribeInvalidInput(t *testing.T) {
	samples := sine(440, 22050, 0.2, 0.5)
	samples[100] = math.NaN()
	if _, err := Transcribe(&audio.Signal{Samples: samples, SampleRate: 22050}); !errors.Is(err, ErrInvalidSignal) {
		t.Errorf("Expected ErrInvalidSignal, got %v", err)
	}

	if _, err := NewTranscriber(4000); !errors.Is(err, audio.ErrInvalidSampleRate) {
		t.Errorf("Expected ErrInvalidSampleRate, got %v", err)
	}
}
