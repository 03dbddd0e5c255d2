package audio

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// ErrUnsupportedFormat is returned for WAV files that are not uncompressed
// 16, 24 or 32-bit PCM with one or two channels.
var ErrUnsupportedFormat = errors.New("unsupported WAV format")

// PCM holds the integer samples of a decoded WAV file, downmixed to mono.
type PCM struct {
	Samples    []int
	SampleRate int
	BitDepth   int
	Channels   int // channel count of the source file
}

// downmix averages interleaved stereo samples into a mono sequence.
func downmix(data []int, channels int) ([]int, error) {
	switch channels {
	case 1:
		return data, nil
	case 2:
		frames := len(data) / 2
		out := make([]int, frames)
		for i := 0; i < frames; i++ {
			out[i] = (data[2*i] + data[2*i+1]) / 2
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %d channels, only mono/stereo supported", ErrUnsupportedFormat, channels)
	}
}

// ReadWav decodes an uncompressed PCM WAV file into mono integer samples.
// Chunk scanning (LIST, fact, padding) is left to the go-audio decoder.
func ReadWav(path string) (*PCM, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		if d.Err() != nil {
			return nil, fmt.Errorf("reading WAV header: %w", d.Err())
		}
		return nil, errors.New("not a WAV/RIFF file")
	}

	if d.WavAudioFormat != wavFormatPCM && d.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: audio format %d, only PCM (1) supported", ErrUnsupportedFormat, d.WavAudioFormat)
	}
	switch d.BitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: %d bits per sample", ErrUnsupportedFormat, d.BitDepth)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding PCM samples: %w", err)
	}

	channels := int(d.NumChans)
	mono, err := downmix(buf.Data, channels)
	if err != nil {
		return nil, err
	}

	return &PCM{
		Samples:    mono,
		SampleRate: int(d.SampleRate),
		BitDepth:   int(d.BitDepth),
		Channels:   channels,
	}, nil
}

// WriteWav writes mono integer samples as a PCM WAV file. It is used to dump
// test fixtures and debug captures.
func WriteWav(path string, samples []int, sampleRate, bitDepth int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(f, sampleRate, bitDepth, 1, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("writing samples: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("finalizing WAV: %w", err)
	}
	return f.Close()
}
