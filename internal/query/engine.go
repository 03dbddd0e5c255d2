package query

import (
	"sort"

	"github.com/himanishpuri/FolkDNA/internal/index"
	"github.com/himanishpuri/FolkDNA/internal/model"
)

// Engine ranks transcriptions against a tune index. It keeps no per-query
// state, so one engine can serve any number of goroutines.
type Engine struct {
	idx      *index.TuneIndex
	cfg      model.TuneSettings
	scorer   scorer
	prepared []sequence // per index entry
}

// New binds an engine to an index and the index's settings.
func New(idx *index.TuneIndex) *Engine {
	cfg := idx.Settings()
	prepared := make([]sequence, idx.Len())
	for i := range prepared {
		prepared[i] = prepare(idx.Entry(i).Transcription)
	}
	return &Engine{
		idx:      idx,
		cfg:      cfg,
		scorer:   newScorer(cfg),
		prepared: prepared,
	}
}

// Index returns the index the engine searches.
func (e *Engine) Index() *index.TuneIndex { return e.idx }

// NumTunes returns the length of every RunQuery result.
func (e *Engine) NumTunes() int { return e.idx.NumTunes() }

// candidates returns the entry positions sharing at least MinNGramHits
// n-grams with the query, ascending. A query too short to form an n-gram
// selects every entry.
func (e *Engine) candidates(q model.Transcription) []int {
	keys := index.NGramKeys(q, e.cfg.NGramLength, e.cfg.PitchQuantum)
	if len(keys) == 0 {
		all := make([]int, e.idx.Len())
		for i := range all {
			all[i] = i
		}
		return all
	}

	hits := make([]int, e.idx.Len())
	for _, k := range keys {
		for _, pos := range e.idx.Postings(k) {
			hits[pos]++
		}
	}

	var out []int
	for pos, n := range hits {
		if n >= e.cfg.MinNGramHits {
			out = append(out, pos)
		}
	}
	return out
}

// RunQuery returns every tune in the index ranked by similarity to q. Each
// tune appears once, represented by its best scoring setting. Tunes with no
// retrieved setting follow the scored ones in ascending id order with a
// score of zero.
func (e *Engine) RunQuery(q model.Transcription) []model.RankedMatch {
	query := prepare(q)

	best := make(map[string]model.RankedMatch)
	for _, pos := range e.candidates(q) {
		entry := e.idx.Entry(pos)
		score := e.scorer.align(query, e.prepared[pos])
		// positions ascend by setting id, so a tie keeps the lowest one
		if cur, ok := best[entry.TuneID]; ok && cur.Score >= score {
			continue
		}
		best[entry.TuneID] = model.RankedMatch{TuneID: entry.TuneID, SettingID: entry.SettingID, Score: score}
	}

	matches := make([]model.RankedMatch, 0, e.idx.NumTunes())
	for _, m := range best {
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return model.CompareIDs(matches[i].TuneID, matches[j].TuneID) < 0
	})

	for _, tuneID := range e.idx.TuneIDs() {
		if _, ok := best[tuneID]; ok {
			continue
		}
		first := e.idx.Entry(e.idx.TuneEntries(tuneID)[0])
		matches = append(matches, model.RankedMatch{TuneID: tuneID, SettingID: first.SettingID})
	}
	return matches
}

// Rank returns the position of tuneID in matches, or len(matches) when the
// tune is absent.
func Rank(matches []model.RankedMatch, tuneID string) int {
	for i, m := range matches {
		if m.TuneID == tuneID {
			return i
		}
	}
	return len(matches)
}

// Top returns at most n leading matches.
func Top(matches []model.RankedMatch, n int) []model.RankedMatch {
	if n < 0 || n >= len(matches) {
		return matches
	}
	return matches[:n]
}
