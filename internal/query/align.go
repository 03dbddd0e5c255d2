package query

import (
	"math"
	"sort"

	"github.com/himanishpuri/FolkDNA/internal/model"
)

// maxLogDurationRatio caps the duration term at a factor of four.
const maxLogDurationRatio = 2.0

// symbol is a token prepared for alignment: its duration is expressed as
// log2 of the ratio to the transcription's median note duration, so two
// performances at different tempos produce the same symbols.
type symbol struct {
	pitch  int
	rest   bool
	logDur float64
}

// medianDuration returns the median duration of the pitched tokens, or of
// all tokens when there are no notes.
func medianDuration(t model.Transcription) float64 {
	durs := make([]int, 0, len(t))
	for _, tok := range t {
		if !tok.IsRest() {
			durs = append(durs, tok.Duration)
		}
	}
	if len(durs) == 0 {
		for _, tok := range t {
			durs = append(durs, tok.Duration)
		}
	}
	if len(durs) == 0 {
		return 1
	}
	sort.Ints(durs)
	mid := len(durs) / 2
	if len(durs)%2 == 1 {
		return float64(durs[mid])
	}
	return float64(durs[mid-1]+durs[mid]) / 2
}

// sequence is a transcription prepared for alignment.
type sequence struct {
	symbols []symbol
	notes   int
}

func prepare(t model.Transcription) sequence {
	median := medianDuration(t)
	seq := sequence{symbols: make([]symbol, len(t))}
	for i, tok := range t {
		seq.symbols[i] = symbol{
			pitch:  tok.Pitch,
			rest:   tok.IsRest(),
			logDur: math.Log2(float64(tok.Duration) / median),
		}
		if !tok.IsRest() {
			seq.notes++
		}
	}
	return seq
}

// scorer holds the weights of one alignment.
type scorer struct {
	reward   float64
	pitch    float64
	duration float64
	gap      float64
	mismatch float64
	quantum  float64
}

func newScorer(cfg model.TuneSettings) scorer {
	return scorer{
		reward:   cfg.MatchReward,
		pitch:    cfg.PitchPenalty,
		duration: cfg.DurationPenalty,
		gap:      cfg.GapPenalty,
		mismatch: cfg.MismatchPenalty,
		quantum:  float64(cfg.PitchQuantum),
	}
}

// substitute scores aligning a against b. Only notes earn the match reward;
// two rests pay the duration difference and nothing else.
func (s scorer) substitute(a, b symbol) float64 {
	if a.rest != b.rest {
		return -s.mismatch
	}

	d := math.Abs(a.logDur - b.logDur)
	if d > maxLogDurationRatio {
		d = maxLogDurationRatio
	}
	score := -s.duration * d
	if !a.rest {
		score += s.reward - s.pitch*math.Abs(float64(a.pitch-b.pitch))/s.quantum
	}
	if score < -s.mismatch {
		score = -s.mismatch
	}
	return score
}

// align returns the best local alignment score of a and b (Smith-Waterman
// with a linear gap cost), normalized by the note counts so that aligning a
// sequence with itself scores exactly 1. Sequences without notes score 0.
func (s scorer) align(sa, sb sequence) float64 {
	if sa.notes == 0 || sb.notes == 0 {
		return 0
	}
	a, b := sa.symbols, sb.symbols

	prev := make([]float64, len(b)+1)
	curr := make([]float64, len(b)+1)
	best := 0.0

	for i := 1; i <= len(a); i++ {
		curr[0] = 0
		for j := 1; j <= len(b); j++ {
			v := prev[j-1] + s.substitute(a[i-1], b[j-1])
			if up := prev[j] - s.gap; up > v {
				v = up
			}
			if left := curr[j-1] - s.gap; left > v {
				v = left
			}
			if v < 0 {
				v = 0
			}
			curr[j] = v
			if v > best {
				best = v
			}
		}
		prev, curr = curr, prev
	}

	return best / (s.reward * math.Sqrt(float64(sa.notes)*float64(sb.notes)))
}

// Similarity scores two transcriptions with the given settings. The result
// is in [0, 1], and 1 for identical transcriptions.
func Similarity(a, b model.Transcription, cfg model.TuneSettings) float64 {
	cfg = cfg.WithDefaults()
	return newScorer(cfg).align(prepare(a), prepare(b))
}
