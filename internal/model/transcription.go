package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var letterSemitones = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// Transcription is an ordered sequence of melodic tokens.
//
// Its text form is a space separated list of tokens where a note is written
// as name, octave and duration in frames ("A4:12", "C#5:3") and a rest as
// "r:<frames>". The empty transcription is the empty string.
type Transcription []Token

// NoteName returns the scientific pitch name of a MIDI note (60 -> "C4").
func NoteName(midi int) string {
	octave := midi/12 - 1
	return noteNames[midi%12] + strconv.Itoa(octave)
}

// ParseNote parses a scientific pitch name ("C4", "F#5", "Bb3") into a MIDI
// note number.
func ParseNote(s string) (int, error) {
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid note %q", s)
	}
	semitone, ok := letterSemitones[s[0]]
	if !ok {
		return 0, fmt.Errorf("invalid note letter in %q", s)
	}
	rest := s[1:]
	switch rest[0] {
	case '#':
		semitone++
		rest = rest[1:]
	case 'b':
		semitone--
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid octave in %q", s)
	}
	midi := (octave+1)*12 + semitone
	if midi < 0 || midi > 127 {
		return 0, fmt.Errorf("note %q out of MIDI range", s)
	}
	return midi, nil
}

// ParseTranscription parses the text form of a transcription.
func ParseTranscription(s string) (Transcription, error) {
	fields := strings.Fields(s)
	t := make(Transcription, 0, len(fields))
	for i, field := range fields {
		name, dur, ok := strings.Cut(field, ":")
		if !ok {
			return nil, fmt.Errorf("token %d %q: missing duration", i, field)
		}
		duration, err := strconv.Atoi(dur)
		if err != nil || duration < 1 {
			return nil, fmt.Errorf("token %d %q: invalid duration", i, field)
		}
		pitch := Rest
		if name != "r" {
			pitch, err = ParseNote(name)
			if err != nil {
				return nil, fmt.Errorf("token %d: %w", i, err)
			}
		}
		t = append(t, Token{Pitch: pitch, Duration: duration})
	}
	return t, nil
}

// MustParseTranscription is like ParseTranscription but panics on error.
// It is intended for fixtures and tests.
func MustParseTranscription(s string) Transcription {
	t, err := ParseTranscription(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Transcription) String() string {
	var b strings.Builder
	for i, tok := range t {
		if i > 0 {
			b.WriteByte(' ')
		}
		if tok.IsRest() {
			b.WriteString("r")
		} else {
			b.WriteString(NoteName(tok.Pitch))
		}
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(tok.Duration))
	}
	return b.String()
}

// Frames returns the total duration of the transcription in frames.
func (t Transcription) Frames() int {
	n := 0
	for _, tok := range t {
		n += tok.Duration
	}
	return n
}

// Notes returns the number of pitched tokens.
func (t Transcription) Notes() int {
	n := 0
	for _, tok := range t {
		if !tok.IsRest() {
			n++
		}
	}
	return n
}

func (t Transcription) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Transcription) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTranscription(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
