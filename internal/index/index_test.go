package index

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/himanishpuri/FolkDNA/internal/model"
)

const testIndexJSON = `{
  "config": {"ngram_length": 3, "gap_penalty": 0.8},
  "settings": {
    "101": {"tune_id": "2", "transcription": "A4:2 B4:2 C#5:2 D5:4"},
    "11":  {"tune_id": "1", "transcription": "D4:2 E4:2 F#4:2 G4:2 A4:4"},
    "12":  {"tune_id": "1", "transcription": "D4:2 r:1 E4:2 F#4:2 A4:4"},
    "30":  {"tune_id": "3", "transcription": "G4:8"}
  },
  "aliases": {"1": ["The Kesh", "Kesh Jig"], "2": ["Banish Misfortune"]}
}`

func writeIndex(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write index: %v", err)
	}
	return path
}

func TestNGramKeys(t *testing.T) {
	tr := model.MustParseTranscription("C4:1 D4:1 r:3 E4:1 C4:1 D4:1 E4:1")
	keys := NGramKeys(tr, 3, 1)

	// pitched melody C D E C D E has three distinct trigrams
	if len(keys) != 3 {
		t.Fatalf("Expected 3 distinct keys, got %d", len(keys))
	}
	want := packNGram([]int{60, 62, 64})
	found := false
	for i, k := range keys {
		if i > 0 && keys[i-1] >= k {
			t.Error("keys should be strictly ascending")
		}
		if k == want {
			found = true
		}
	}
	if !found {
		t.Error("trigram C4 D4 E4 missing: rests must not break n-grams")
	}
	if got := UnpackNGram(want, 3); !reflect.DeepEqual(got, []int{60, 62, 64}) {
		t.Errorf("UnpackNGram = %v", got)
	}

	if NGramKeys(model.MustParseTranscription("C4:1 D4:1"), 3, 1) != nil {
		t.Error("too short melody should produce no keys")
	}
}

func TestNGramKeysQuantum(t *testing.T) {
	a := NGramKeys(model.MustParseTranscription("C4:1 D4:1 E4:1"), 3, 2)
	b := NGramKeys(model.MustParseTranscription("C#4:1 D#4:1 F4:1"), 3, 2)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("pitches in the same quantum should share keys: %v vs %v", a, b)
	}
}

func TestBuild(t *testing.T) {
	idx, err := Parse([]byte(testIndexJSON))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if idx.Len() != 4 || idx.NumTunes() != 3 {
		t.Fatalf("Expected 4 settings over 3 tunes, got %d/%d", idx.Len(), idx.NumTunes())
	}
	if got := idx.TuneIDs(); !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
		t.Errorf("TuneIDs = %v", got)
	}
	for i, want := range []string{"11", "12", "30", "101"} {
		if idx.Entry(i).SettingID != want {
			t.Errorf("entry %d = %s, want %s", i, idx.Entry(i).SettingID, want)
		}
	}

	cfg := idx.Settings()
	if cfg.GapPenalty != 0.8 || cfg.MatchReward != 1.0 {
		t.Errorf("config not merged with defaults: %+v", cfg)
	}

	s, ok := idx.Lookup("12")
	if !ok || s.TuneID != "1" || s.Transcription.String() != "D4:2 r:1 E4:2 F#4:2 A4:4" {
		t.Errorf("Lookup(12) = %+v, %v", s, ok)
	}
	if _, ok := idx.Lookup("999"); ok {
		t.Error("Lookup of unknown setting should fail")
	}

	// D E F# is shared by both settings of tune 1
	postings := idx.Postings(packNGram([]int{62, 64, 66}))
	if !reflect.DeepEqual(postings, []int{0, 1}) {
		t.Errorf("postings = %v, want [0 1]", postings)
	}

	if len(idx.TuneSettings("1")) != 2 {
		t.Error("tune 1 should have two settings")
	}
	if idx.Aliases("1")[0] != "The Kesh" {
		t.Errorf("Aliases(1) = %v", idx.Aliases("1"))
	}
	stats := idx.Stats()
	if stats.Tunes != 3 || stats.Settings != 4 || stats.Aliases != 3 {
		t.Errorf("Stats = %+v", stats)
	}
}

func TestBuildRejectsDuplicates(t *testing.T) {
	entries := []model.Setting{
		{TuneID: "1", SettingID: "5"},
		{TuneID: "2", SettingID: "5"},
	}
	if _, err := Build(model.DefaultTuneSettings(), entries, nil); !errors.Is(err, ErrIndexCorrupt) {
		t.Errorf("Expected ErrIndexCorrupt, got %v", err)
	}
}

func TestLoadIsDeterministic(t *testing.T) {
	path := writeIndex(t, "index.json", testIndexJSON)

	a, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	b, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("loading the same index twice should produce identical structures")
	}
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, ErrIndexNotFound) {
		t.Errorf("Expected ErrIndexNotFound, got %v", err)
	}
}

func TestLoadCorrupt(t *testing.T) {
	cases := map[string]string{
		"truncated":         `{"settings": {"1": {"tune_id": "1"`,
		"missing settings":  `{"config": {}}`,
		"bad transcription": `{"settings": {"1": {"tune_id": "1", "transcription": "D4"}}}`,
		"bad config":        `{"config": {"ngram_length": 12}, "settings": {}}`,
		"empty tune id":     `{"settings": {"1": {"tune_id": "", "transcription": "D4:1"}}}`,
	}
	for name, content := range cases {
		path := writeIndex(t, "index.json", content)
		if _, err := Load(path); !errors.Is(err, ErrIndexCorrupt) {
			t.Errorf("%s: expected ErrIndexCorrupt, got %v", name, err)
		}
	}

	// an empty or foreign database is rejected and left untouched
	for name, content := range map[string]string{
		"empty.sqlite3":   "",
		"foreign.sqlite3": "not a database at all",
	} {
		path := writeIndex(t, name, content)
		if _, err := Load(path); !errors.Is(err, ErrIndexCorrupt) {
			t.Errorf("%s: expected ErrIndexCorrupt, got %v", name, err)
		}
		if info, err := os.Stat(path); err != nil || info.Size() != int64(len(content)) {
			t.Errorf("%s: Load modified the file", name)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	idx, err := Parse([]byte(testIndexJSON))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var buf bytes.Buffer
	if err := idx.Encode(&buf); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	again, err := Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("Parse of encoded index failed: %v", err)
	}
	if !reflect.DeepEqual(idx, again) {
		t.Error("encoded index should decode to the same structure")
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	idx, err := Parse([]byte(testIndexJSON))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "tunes.sqlite3")
	if err := idx.SaveSQLite(dbPath); err != nil {
		t.Fatalf("SaveSQLite failed: %v", err)
	}

	loaded, err := Load(dbPath)
	if err != nil {
		t.Fatalf("Load sqlite failed: %v", err)
	}
	if !reflect.DeepEqual(idx.Entries(), loaded.Entries()) {
		t.Error("sqlite index entries differ from source")
	}
	if idx.Settings() != loaded.Settings() {
		t.Errorf("settings differ: %+v vs %+v", idx.Settings(), loaded.Settings())
	}
	if !reflect.DeepEqual(idx.AliasMap(), loaded.AliasMap()) {
		t.Errorf("aliases differ: %v vs %v", idx.AliasMap(), loaded.AliasMap())
	}

	// unknown extension is detected from the file header
	sniffed := filepath.Join(dir, "tunes.bin")
	data, err := os.ReadFile(dbPath)
	if err != nil {
		t.Fatalf("Failed to read db: %v", err)
	}
	if err := os.WriteFile(sniffed, data, 0o644); err != nil {
		t.Fatalf("Failed to copy db: %v", err)
	}
	if _, err := Load(sniffed); err != nil {
		t.Errorf("Load of sniffed sqlite failed: %v", err)
	}
	if !IsSQLite(sniffed) || IsSQLite(writeIndex(t, "index.json", testIndexJSON)) {
		t.Error("IsSQLite misdetected the file type")
	}

	counts, err := StoredCounts(dbPath)
	if err != nil {
		t.Fatalf("StoredCounts failed: %v", err)
	}
	st := idx.Stats()
	if counts.Settings != int64(st.Settings) || counts.Tunes != int64(st.Tunes) {
		t.Errorf("StoredCounts = %+v, index stats %+v", counts, st)
	}
}
