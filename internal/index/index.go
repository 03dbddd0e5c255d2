package index

import (
	"fmt"
	"sort"

	"github.com/himanishpuri/FolkDNA/internal/model"
)

// TuneIndex is the searchable tune database: every setting's transcription,
// an inverted index from melodic n-grams to settings, tune aliases and the
// matching configuration. It is never modified after Build and is safe for
// concurrent readers.
type TuneIndex struct {
	settings model.TuneSettings

	entries   []model.Setting // ordered by setting id
	bySetting map[string]int

	tunes       []string         // ordered by tune id
	tuneEntries map[string][]int // positions in entries, ascending

	postings map[uint64][]int // n-gram key -> ascending positions in entries

	aliases map[string][]string
}

// Stats summarizes the size of an index.
type Stats struct {
	Tunes    int `json:"tunes"`
	Settings int `json:"settings"`
	NGrams   int `json:"ngrams"`
	Aliases  int `json:"aliases"`
}

// Build creates an index over the given settings. Missing configuration
// fields take their defaults. Entries and aliases are copied.
func Build(settings model.TuneSettings, entries []model.Setting, aliases map[string][]string) (*TuneIndex, error) {
	settings = settings.WithDefaults()
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}

	idx := &TuneIndex{
		settings:    settings,
		entries:     make([]model.Setting, len(entries)),
		bySetting:   make(map[string]int, len(entries)),
		tuneEntries: make(map[string][]int),
		postings:    make(map[uint64][]int),
		aliases:     make(map[string][]string, len(aliases)),
	}
	copy(idx.entries, entries)
	sort.SliceStable(idx.entries, func(i, j int) bool {
		return model.CompareIDs(idx.entries[i].SettingID, idx.entries[j].SettingID) < 0
	})

	for pos, e := range idx.entries {
		if e.SettingID == "" || e.TuneID == "" {
			return nil, fmt.Errorf("%w: setting at position %d has an empty id", ErrIndexCorrupt, pos)
		}
		if _, dup := idx.bySetting[e.SettingID]; dup {
			return nil, fmt.Errorf("%w: duplicate setting id %q", ErrIndexCorrupt, e.SettingID)
		}
		idx.bySetting[e.SettingID] = pos

		if _, ok := idx.tuneEntries[e.TuneID]; !ok {
			idx.tunes = append(idx.tunes, e.TuneID)
		}
		idx.tuneEntries[e.TuneID] = append(idx.tuneEntries[e.TuneID], pos)

		for _, k := range NGramKeys(e.Transcription, settings.NGramLength, settings.PitchQuantum) {
			idx.postings[k] = append(idx.postings[k], pos)
		}
	}
	sort.Slice(idx.tunes, func(i, j int) bool { return model.CompareIDs(idx.tunes[i], idx.tunes[j]) < 0 })

	for tuneID, names := range aliases {
		idx.aliases[tuneID] = append([]string(nil), names...)
	}

	return idx, nil
}

// Settings returns the matching configuration.
func (idx *TuneIndex) Settings() model.TuneSettings { return idx.settings }

// Len returns the number of settings.
func (idx *TuneIndex) Len() int { return len(idx.entries) }

// Entry returns the setting at position pos (ordered by setting id).
func (idx *TuneIndex) Entry(pos int) model.Setting { return idx.entries[pos] }

// Lookup returns the setting with the given id.
func (idx *TuneIndex) Lookup(settingID string) (model.Setting, bool) {
	pos, ok := idx.bySetting[settingID]
	if !ok {
		return model.Setting{}, false
	}
	return idx.entries[pos], true
}

// TuneIDs returns every tune id in ascending order. The slice must not be modified.
func (idx *TuneIndex) TuneIDs() []string { return idx.tunes }

// NumTunes returns the number of distinct tunes.
func (idx *TuneIndex) NumTunes() int { return len(idx.tunes) }

// TuneEntries returns the positions of a tune's settings in ascending
// setting id order. The slice must not be modified.
func (idx *TuneIndex) TuneEntries(tuneID string) []int { return idx.tuneEntries[tuneID] }

// TuneSettings returns the settings of one tune.
func (idx *TuneIndex) TuneSettings(tuneID string) []model.Setting {
	positions := idx.tuneEntries[tuneID]
	out := make([]model.Setting, len(positions))
	for i, pos := range positions {
		out[i] = idx.entries[pos]
	}
	return out
}

// Postings returns the entry positions containing an n-gram key, ascending.
// The slice must not be modified.
func (idx *TuneIndex) Postings(key uint64) []int { return idx.postings[key] }

// Aliases returns the known names of a tune.
func (idx *TuneIndex) Aliases(tuneID string) []string { return idx.aliases[tuneID] }

// AliasTuneIDs returns the ids of every tune with at least one alias, ascending.
func (idx *TuneIndex) AliasTuneIDs() []string {
	ids := make([]string, 0, len(idx.aliases))
	for id := range idx.aliases {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return model.CompareIDs(ids[i], ids[j]) < 0 })
	return ids
}

// Stats returns size counters for the index.
func (idx *TuneIndex) Stats() Stats {
	n := 0
	for _, names := range idx.aliases {
		n += len(names)
	}
	return Stats{
		Tunes:    len(idx.tunes),
		Settings: len(idx.entries),
		NGrams:   len(idx.postings),
		Aliases:  n,
	}
}
