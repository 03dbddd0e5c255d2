package model

// Rest is the pitch value carried by rest tokens and by frames with no
// detectable pitch.
const Rest = -1

// Token is a single melodic event: a MIDI pitch (or Rest) held for
// Duration analysis frames.
type Token struct {
	Pitch    int
	Duration int
}

// IsRest reports whether the token is a rest.
func (t Token) IsRest() bool {
	return t.Pitch == Rest
}

// Setting is one notated variant of a tune. It is the unit stored in the
// tune index.
type Setting struct {
	TuneID        string
	SettingID     string
	Transcription Transcription
}

// RankedMatch is one scored tune in a query result.
type RankedMatch struct {
	TuneID    string  // Tune identifier
	SettingID string  // Best scoring setting of the tune
	Score     float64 // Similarity, higher is better
}

// NameMatch is one result of a name query against tune aliases.
type NameMatch struct {
	TuneID string
	Name   string
	Score  float64
}
