// Package abc renders transcriptions as ABC notation.
package abc

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/himanishpuri/FolkDNA/internal/model"
)

// BarUnits is the number of unit notes per bar (4/4 with L:1/8).
const BarUnits = 8

var pitchClasses = []string{"C", "^C", "D", "^D", "E", "F", "^F", "G", "^G", "A", "^A", "B"}

// Header fields written before the tune body.
type Header struct {
	Title string
	Key   string // "C" when empty
}

// unitDuration returns the median pitched-token duration in frames, which
// is written as one eighth note.
func unitDuration(t model.Transcription) float64 {
	var durs []int
	for _, tok := range t {
		if !tok.IsRest() {
			durs = append(durs, tok.Duration)
		}
	}
	if len(durs) == 0 {
		return 1
	}
	sort.Ints(durs)
	return float64(durs[len(durs)/2])
}

// Note returns the ABC spelling of a MIDI pitch: octave 4 in capitals,
// octave 5 in lower case, with "," and "'" marks beyond.
func Note(midi int) string {
	name := pitchClasses[midi%12]
	octave := midi/12 - 1

	switch {
	case octave >= 5:
		return strings.ToLower(name) + strings.Repeat("'", octave-5)
	default:
		return name + strings.Repeat(",", 4-octave)
	}
}

func length(units int) string {
	if units == 1 {
		return ""
	}
	return fmt.Sprint(units)
}

// Body renders the notes of a transcription without a header.
func Body(t model.Transcription) string {
	unit := unitDuration(t)

	var b strings.Builder
	total := 0
	nextBar := BarUnits
	for i, tok := range t {
		units := int(math.Round(float64(tok.Duration) / unit))
		if units < 1 {
			units = 1
		}

		if i > 0 {
			b.WriteByte(' ')
		}
		if tok.IsRest() {
			b.WriteString("z")
		} else {
			b.WriteString(Note(tok.Pitch))
		}
		b.WriteString(length(units))

		total += units
		if total >= nextBar {
			b.WriteString(" |")
			for nextBar <= total {
				nextBar += BarUnits
			}
		}
	}
	return b.String()
}

// Format renders a complete ABC tune.
func Format(t model.Transcription, h Header) string {
	key := h.Key
	if key == "" {
		key = "C"
	}

	var b strings.Builder
	b.WriteString("X:1\n")
	if h.Title != "" {
		fmt.Fprintf(&b, "T:%s\n", h.Title)
	}
	b.WriteString("M:4/4\n")
	b.WriteString("L:1/8\n")
	fmt.Fprintf(&b, "K:%s\n", key)
	b.WriteString(Body(t))
	b.WriteString("\n")
	return b.String()
}
