package index

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/himanishpuri/FolkDNA/internal/model"
	"github.com/himanishpuri/FolkDNA/pkg/logger"
)

var (
	// ErrIndexNotFound is returned when the index source does not exist.
	ErrIndexNotFound = errors.New("tune index not found")
	// ErrIndexCorrupt is returned when the index source cannot be decoded.
	ErrIndexCorrupt = errors.New("tune index corrupt")
)

var sqliteMagic = []byte("SQLite format 3\x00")

// document is the JSON form of a persisted index.
type document struct {
	Config   *model.TuneSettings      `json:"config,omitempty"`
	Settings map[string]settingRecord `json:"settings"`
	Aliases  map[string][]string      `json:"aliases,omitempty"`
}

type settingRecord struct {
	TuneID        string `json:"tune_id"`
	Transcription string `json:"transcription"`
}

// Load reads a persisted index. JSON files (.json) and SQLite databases
// (.sqlite3, .sqlite, .db) are supported; other extensions are sniffed.
func Load(source string) (*TuneIndex, error) {
	info, err := os.Stat(source)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, source)
	}
	if err != nil {
		return nil, fmt.Errorf("stat index %s: %w", source, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrIndexCorrupt, source)
	}

	var idx *TuneIndex
	switch strings.ToLower(filepath.Ext(source)) {
	case ".json":
		idx, err = loadJSON(source)
	case ".sqlite3", ".sqlite", ".db":
		idx, err = loadSQLite(source)
	default:
		idx, err = loadSniffed(source)
	}
	if err != nil {
		return nil, err
	}

	stats := idx.Stats()
	logger.WithFields(logger.Fields{
		"source":   source,
		"tunes":    stats.Tunes,
		"settings": stats.Settings,
		"ngrams":   stats.NGrams,
	}).Debug("tune index loaded")
	return idx, nil
}

func loadJSON(path string) (*TuneIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index %s: %w", path, err)
	}
	return Parse(data)
}

// StoredStats holds the row counts of a SQLite index.
type StoredStats struct {
	Settings int64
	Tunes    int64
	Aliases  int64
}

// IsSQLite reports whether the file at path starts with the SQLite header.
func IsSQLite(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, len(sqliteMagic))
	n, _ := io.ReadFull(f, head)
	return bytes.Equal(head[:n], sqliteMagic)
}

func loadSniffed(path string) (*TuneIndex, error) {
	if IsSQLite(path) {
		return loadSQLite(path)
	}
	return loadJSON(path)
}

// Parse decodes the JSON form of an index held in memory.
func Parse(data []byte) (*TuneIndex, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}
	if doc.Settings == nil {
		return nil, fmt.Errorf("%w: missing \"settings\" object", ErrIndexCorrupt)
	}

	cfg := model.DefaultTuneSettings()
	if doc.Config != nil {
		cfg = doc.Config.WithDefaults()
	}

	entries := make([]model.Setting, 0, len(doc.Settings))
	for _, settingID := range sortedSettingIDs(doc.Settings) {
		rec := doc.Settings[settingID]
		tr, err := model.ParseTranscription(rec.Transcription)
		if err != nil {
			return nil, fmt.Errorf("%w: setting %s: %v", ErrIndexCorrupt, settingID, err)
		}
		entries = append(entries, model.Setting{TuneID: rec.TuneID, SettingID: settingID, Transcription: tr})
	}

	return Build(cfg, entries, doc.Aliases)
}

// Encode writes the JSON form of the index.
func (idx *TuneIndex) Encode(w io.Writer) error {
	cfg := idx.settings
	doc := document{
		Config:   &cfg,
		Settings: make(map[string]settingRecord, len(idx.entries)),
		Aliases:  idx.aliases,
	}
	for _, e := range idx.entries {
		doc.Settings[e.SettingID] = settingRecord{TuneID: e.TuneID, Transcription: e.Transcription.String()}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Entries returns a copy of every setting ordered by setting id.
func (idx *TuneIndex) Entries() []model.Setting {
	return append([]model.Setting(nil), idx.entries...)
}

// AliasMap returns a copy of the alias table.
func (idx *TuneIndex) AliasMap() map[string][]string {
	out := make(map[string][]string, len(idx.aliases))
	for _, id := range idx.AliasTuneIDs() {
		out[id] = append([]string(nil), idx.aliases[id]...)
	}
	return out
}

func sortedSettingIDs(m map[string]settingRecord) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return model.CompareIDs(ids[i], ids[j]) < 0 })
	return ids
}
