package main

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/eligwz/spectrogram"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/FolkDNA/internal/audio"
	"github.com/himanishpuri/FolkDNA/internal/features"
)

// dynamicRange is the dB span mapped onto the grey scale of analysis images.
const dynamicRange = 80.0

func newSpectrogramCmd() *cobra.Command {
	var width, bins int
	var analysis bool

	cmd := &cobra.Command{
		Use:   "spectrogram <wav-file> <png-file>",
		Short: "Render a debug spectrogram of a recording",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sig, err := audio.LoadSignal(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Read %d samples at %d Hz\n", len(sig.Samples), sig.SampleRate)

			var frames [][]float64
			rect := image.Rect(0, 0, width, bins)
			if analysis {
				frames, err = features.STFT(sig.Samples, features.WindowSize, features.HopSize, features.Hamming(features.WindowSize))
				if err != nil {
					return err
				}
				if bins <= 0 || bins > features.WindowSize/2 {
					bins = features.WindowSize / 2
				}
				rect = image.Rect(0, 0, len(frames), bins)
			}

			img := spectrogram.NewImage128(rect)
			if analysis {
				paintFrames(img, frames, bins)
			} else {
				black := spectrogram.ParseColor("000000")
				draw.Draw(img, img.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)

				// Hamming window, FFT, linear magnitude.
				spectrogram.Drawfft(img, sig.Samples, uint32(sig.SampleRate), uint32(bins), false, false, true, false)
			}

			if err := spectrogram.SavePng(img, args[1]); err != nil {
				return fmt.Errorf("saving %s: %w", args[1], err)
			}
			fmt.Printf("%s Saved spectrogram to %s\n", success("✅"), cyan(args[1]))
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 2048, "Image width in pixels")
	cmd.Flags().IntVar(&bins, "bins", 512, "Frequency bins (image height)")
	cmd.Flags().BoolVar(&analysis, "analysis", false, "Draw the frames the transcriber analyses, one column per hop")
	return cmd
}

// paintFrames draws the STFT used for pitch detection, one column per frame,
// low frequencies at the bottom, in dB relative to the loudest bin.
func paintFrames(img draw.Image, frames [][]float64, bins int) {
	var peak float64
	for _, f := range frames {
		for _, m := range f[:bins] {
			peak = math.Max(peak, m)
		}
	}

	for x, f := range frames {
		for b := 0; b < bins; b++ {
			level := 0.0
			if peak > 0 && f[b] > 0 {
				db := 20 * math.Log10(f[b]/peak)
				level = math.Max(0, 1+db/dynamicRange)
			}
			img.Set(x, bins-1-b, color.Gray{Y: uint8(255 * level)})
		}
	}
}
