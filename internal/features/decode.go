package features

import "github.com/himanishpuri/FolkDNA/internal/model"

// Decoder collapses a pitch contour into tokens: a run of consecutive frames
// with the same pitch becomes one token whose duration is the run length.
type Decoder struct {
	pitch int
	run   int
}

// Push adds the next contour frame. When the pitch changes, the token for
// the finished run is returned with ok set.
func (d *Decoder) Push(p PitchEstimate) (tok model.Token, ok bool) {
	if d.run > 0 && p.Pitch == d.pitch {
		d.run++
		return model.Token{}, false
	}
	tok, ok = d.Flush()
	d.pitch = p.Pitch
	d.run = 1
	return tok, ok
}

// Flush returns the token for the pending run, if any, and resets the decoder.
func (d *Decoder) Flush() (model.Token, bool) {
	if d.run == 0 {
		return model.Token{}, false
	}
	tok := model.Token{Pitch: d.pitch, Duration: d.run}
	d.run = 0
	return tok, true
}

// Decode collapses a complete contour into a transcription.
func Decode(contour []PitchEstimate) model.Transcription {
	out := model.Transcription{}
	var d Decoder
	for _, p := range contour {
		if tok, ok := d.Push(p); ok {
			out = append(out, tok)
		}
	}
	if tok, ok := d.Flush(); ok {
		out = append(out, tok)
	}
	return out
}
