package index

import (
	"sort"

	"github.com/himanishpuri/FolkDNA/internal/model"
)

// Each quantized pitch occupies pitchBits of an n-gram key, so up to
// model.MaxNGramLength pitches fit in a uint64.
const (
	pitchBits = 7
	pitchMask = uint64(1)<<pitchBits - 1
)

// packNGram packs quantized pitches into a key, first pitch in the highest bits.
// bit layout for n=3: [ p0 (7) | p1 (7) | p2 (7) ]
func packNGram(pitches []int) uint64 {
	var key uint64
	for _, p := range pitches {
		key = key<<pitchBits | uint64(p)&pitchMask
	}
	return key
}

// UnpackNGram is the inverse of the key packing, for debugging output.
func UnpackNGram(key uint64, n int) []int {
	out := make([]int, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = int(key & pitchMask)
		key >>= pitchBits
	}
	return out
}

// melody returns the quantized pitches of the pitched tokens, rests skipped.
func melody(t model.Transcription, quantum int) []int {
	out := make([]int, 0, len(t))
	for _, tok := range t {
		if tok.IsRest() {
			continue
		}
		out = append(out, tok.Pitch/quantum)
	}
	return out
}

// NGramKeys returns the distinct n-gram keys of a transcription in ascending
// order. A transcription with fewer than n pitched tokens has no keys.
func NGramKeys(t model.Transcription, n, quantum int) []uint64 {
	if n < 1 || quantum < 1 {
		return nil
	}
	pitches := melody(t, quantum)
	if len(pitches) < n {
		return nil
	}

	seen := make(map[uint64]struct{}, len(pitches)-n+1)
	keys := make([]uint64, 0, len(pitches)-n+1)
	for i := 0; i+n <= len(pitches); i++ {
		k := packNGram(pitches[i : i+n])
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
