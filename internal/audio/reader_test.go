package audio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeTestWav writes interleaved samples with the given layout to a temp file.
func writeTestWav(t *testing.T, data []int, sampleRate, bitDepth, channels int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create wav: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("Failed to write samples: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Failed to close encoder: %v", err)
	}
	return path
}

func sineInts(freq float64, sampleRate, n int, amplitude float64) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = int(amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
	}
	return out
}

func TestReadWavMono(t *testing.T) {
	samples := sineInts(440, 22050, 4096, 16000)
	path := writeTestWav(t, samples, 22050, 16, 1)

	pcm, err := ReadWav(path)
	if err != nil {
		t.Fatalf("ReadWav failed: %v", err)
	}
	if pcm.SampleRate != 22050 {
		t.Errorf("Expected sample rate 22050, got %d", pcm.SampleRate)
	}
	if pcm.BitDepth != 16 || pcm.Channels != 1 {
		t.Errorf("Unexpected format: %d bits, %d channels", pcm.BitDepth, pcm.Channels)
	}
	if len(pcm.Samples) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(pcm.Samples))
	}
	for i := range samples {
		if pcm.Samples[i] != samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, pcm.Samples[i], samples[i])
		}
	}
}

func TestReadWavStereoDownmix(t *testing.T) {
	data := []int{100, 300, -200, -400, 0, 10}
	path := writeTestWav(t, data, 16000, 16, 2)

	pcm, err := ReadWav(path)
	if err != nil {
		t.Fatalf("ReadWav failed: %v", err)
	}
	want := []int{200, -300, 5}
	if len(pcm.Samples) != len(want) {
		t.Fatalf("Expected %d mono samples, got %d", len(want), len(pcm.Samples))
	}
	for i := range want {
		if pcm.Samples[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, pcm.Samples[i], want[i])
		}
	}
	if pcm.Channels != 2 {
		t.Errorf("Expected source channel count 2, got %d", pcm.Channels)
	}
}

func TestReadWavUnsupportedBitDepth(t *testing.T) {
	path := writeTestWav(t, []int{10, 20, 30, 40}, 16000, 8, 1)
	if _, err := ReadWav(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestReadWavInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.wav")
	if err := os.WriteFile(path, []byte("INVALID HEADER DATA"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}
	if _, err := ReadWav(path); err == nil {
		t.Error("ReadWav should fail on invalid file")
	}
}

func TestReadWavMissingFile(t *testing.T) {
	if _, err := ReadWav(filepath.Join(t.TempDir(), "missing.wav")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestWriteWavRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	samples := sineInts(220, 8000, 800, 3000)
	if err := WriteWav(path, samples, 8000, 16); err != nil {
		t.Fatalf("WriteWav failed: %v", err)
	}
	sig, err := LoadSignal(path)
	if err != nil {
		t.Fatalf("LoadSignal failed: %v", err)
	}
	if sig.SampleRate != 8000 || len(sig.Samples) != len(samples) {
		t.Errorf("Unexpected signal: %d Hz, %d samples", sig.SampleRate, len(sig.Samples))
	}
	if d := sig.Duration(); math.Abs(d-0.1) > 1e-9 {
		t.Errorf("Expected duration 0.1s, got %f", d)
	}
}
