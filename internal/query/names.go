package query

import (
	"sort"
	"strings"
	"unicode"

	"github.com/himanishpuri/FolkDNA/internal/model"
)

const trigramSize = 3

// normalizeName lowercases a tune name and reduces it to letters and digits
// separated by single spaces.
func normalizeName(s string) string {
	var b strings.Builder
	space := true
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
		} else if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// trigrams returns the distinct character trigrams of a normalized name,
// padded so that short names still produce some.
func trigrams(s string) map[string]struct{} {
	runes := []rune(" " + s + " ")
	out := make(map[string]struct{})
	for i := 0; i+trigramSize <= len(runes); i++ {
		out[string(runes[i:i+trigramSize])] = struct{}{}
	}
	return out
}

func nameScore(q map[string]struct{}, name string) float64 {
	n := trigrams(normalizeName(name))
	if len(q) == 0 || len(n) == 0 {
		return 0
	}
	shared := 0
	for g := range q {
		if _, ok := n[g]; ok {
			shared++
		}
	}
	return float64(shared) / float64(max(len(q), len(n)))
}

// RunNameQuery ranks tunes by how closely one of their names matches name,
// using shared character trigrams. Tunes sharing nothing are omitted and at
// most limit matches are returned (all when limit <= 0).
func (e *Engine) RunNameQuery(name string, limit int) []model.NameMatch {
	norm := normalizeName(name)
	if norm == "" {
		return []model.NameMatch{}
	}
	q := trigrams(norm)

	matches := []model.NameMatch{}
	for _, tuneID := range e.idx.AliasTuneIDs() {
		var best model.NameMatch
		for _, alias := range e.idx.Aliases(tuneID) {
			if s := nameScore(q, alias); s > best.Score {
				best = model.NameMatch{TuneID: tuneID, Name: alias, Score: s}
			}
		}
		if best.Score > 0 {
			matches = append(matches, best)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return model.CompareIDs(matches[i].TuneID, matches[j].TuneID) < 0
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
