package query

import (
	"math"
	"reflect"
	"sync"
	"testing"

	"github.com/himanishpuri/FolkDNA/internal/index"
	"github.com/himanishpuri/FolkDNA/internal/model"
)

var fixtureSettings = []model.Setting{
	{TuneID: "1", SettingID: "11", Transcription: model.MustParseTranscription("D4:2 E4:2 F#4:2 G4:2 A4:4 B4:2 A4:2 F#4:4")},
	{TuneID: "1", SettingID: "12", Transcription: model.MustParseTranscription("D4:2 E4:2 F#4:2 A4:4 B4:2 A4:2 F#4:4")},
	{TuneID: "2", SettingID: "21", Transcription: model.MustParseTranscription("A4:2 B4:2 C#5:2 D5:4 E5:2 D5:2 B4:4")},
	{TuneID: "3", SettingID: "31", Transcription: model.MustParseTranscription("G4:4 B4:2 D5:2 G5:4 r:2 F#5:2 E5:2 D5:4")},
	{TuneID: "4", SettingID: "41", Transcription: model.MustParseTranscription("E4:2 G4:2 E4:2 D4:4")},
	{TuneID: "10", SettingID: "101", Transcription: model.MustParseTranscription("C5:8")},
}

func setupTestEngine(t *testing.T) *Engine {
	t.Helper()
	aliases := map[string][]string{
		"1":  {"The Kesh", "Kesh Jig", "Castle Jig"},
		"2":  {"Banish Misfortune"},
		"3":  {"The Silver Spear"},
		"10": {"Drowsy Maggie"},
	}
	idx, err := index.Build(model.DefaultTuneSettings(), fixtureSettings, aliases)
	if err != nil {
		t.Fatalf("Failed to build index: %v", err)
	}
	return New(idx)
}

func checkTotalOrder(t *testing.T, e *Engine, matches []model.RankedMatch) {
	t.Helper()
	if len(matches) != e.Index().NumTunes() {
		t.Fatalf("Expected %d matches, got %d", e.Index().NumTunes(), len(matches))
	}
	seen := make(map[string]bool)
	for i, m := range matches {
		if seen[m.TuneID] {
			t.Fatalf("tune %s appears twice", m.TuneID)
		}
		seen[m.TuneID] = true
		if i == 0 {
			continue
		}
		prev := matches[i-1]
		if prev.Score < m.Score {
			t.Fatalf("scores not descending at %d: %f < %f", i, prev.Score, m.Score)
		}
		if prev.Score == m.Score && model.CompareIDs(prev.TuneID, m.TuneID) > 0 {
			t.Fatalf("tie at %d not broken by ascending tune id: %s before %s", i, prev.TuneID, m.TuneID)
		}
	}
}

func TestSelfMatchRanksFirst(t *testing.T) {
	e := setupTestEngine(t)

	for _, s := range fixtureSettings {
		matches := e.RunQuery(s.Transcription)
		checkTotalOrder(t, e, matches)
		if matches[0].TuneID != s.TuneID {
			t.Errorf("setting %s: expected tune %s first, got %+v", s.SettingID, s.TuneID, matches[0])
		}
		if matches[0].Score != 1 {
			t.Errorf("setting %s: expected self-match score 1, got %f", s.SettingID, matches[0].Score)
		}
		if Rank(matches, s.TuneID) != 0 {
			t.Errorf("setting %s: rank should be 0", s.SettingID)
		}
	}
}

func TestEmptyQuery(t *testing.T) {
	e := setupTestEngine(t)

	matches := e.RunQuery(model.Transcription{})
	checkTotalOrder(t, e, matches)

	want := []string{"1", "2", "3", "4", "10"}
	for i, m := range matches {
		if m.Score != 0 {
			t.Errorf("empty query should score 0, got %f for tune %s", m.Score, m.TuneID)
		}
		if m.TuneID != want[i] {
			t.Errorf("position %d: tune %s, want %s", i, m.TuneID, want[i])
		}
	}
	if matches[0].SettingID != "11" {
		t.Errorf("tie between settings should keep the lowest id, got %s", matches[0].SettingID)
	}
}

func TestSilentQuery(t *testing.T) {
	e := setupTestEngine(t)

	matches := e.RunQuery(model.MustParseTranscription("r:120"))
	checkTotalOrder(t, e, matches)
	for _, m := range matches {
		if m.Score != 0 {
			t.Errorf("rest-only query should not score, got %f for tune %s", m.Score, m.TuneID)
		}
	}
}

func TestUnretrievedTunesAppended(t *testing.T) {
	e := setupTestEngine(t)

	// shares the D E F# trigram with tune 1 only
	q := model.MustParseTranscription("D4:2 E4:2 F#4:2")
	matches := e.RunQuery(q)
	checkTotalOrder(t, e, matches)

	if matches[0].TuneID != "1" || matches[0].Score <= 0 {
		t.Fatalf("Expected tune 1 first with a positive score, got %+v", matches[0])
	}
	want := []string{"2", "3", "4", "10"}
	for i, m := range matches[1:] {
		if m.TuneID != want[i] || m.Score != 0 {
			t.Errorf("position %d: got %+v, want tune %s with score 0", i+1, m, want[i])
		}
	}
	if matches[len(matches)-1].SettingID != "101" {
		t.Errorf("unretrieved tune should carry its lowest setting id, got %s", matches[len(matches)-1].SettingID)
	}
}

func TestShortQueryFallsBackToAllEntries(t *testing.T) {
	e := setupTestEngine(t)

	matches := e.RunQuery(model.MustParseTranscription("C5:3"))
	checkTotalOrder(t, e, matches)
	if matches[0].TuneID != "10" || matches[0].Score != 1 {
		t.Errorf("Expected tune 10 with score 1, got %+v", matches[0])
	}
	scored := 0
	for _, m := range matches {
		if m.Score > 0 {
			scored++
		}
	}
	if scored < 2 {
		t.Error("a query without n-grams should be scored against every setting")
	}
}

func TestRunQueryIsDeterministic(t *testing.T) {
	e := setupTestEngine(t)
	q := model.MustParseTranscription("A4:2 B4:2 A4:2 F#4:4 D4:2 E4:2")

	first := e.RunQuery(q)
	for i := 0; i < 20; i++ {
		if got := e.RunQuery(q); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, got, first)
		}
	}
}

func TestRunQueryConcurrent(t *testing.T) {
	e := setupTestEngine(t)

	want := make([][]model.RankedMatch, len(fixtureSettings))
	for i, s := range fixtureSettings {
		want[i] = e.RunQuery(s.Transcription)
	}

	var wg sync.WaitGroup
	errs := make(chan string, len(fixtureSettings)*8)
	for r := 0; r < 8; r++ {
		for i, s := range fixtureSettings {
			wg.Add(1)
			go func(i int, q model.Transcription) {
				defer wg.Done()
				if got := e.RunQuery(q); !reflect.DeepEqual(got, want[i]) {
					errs <- fixtureSettings[i].SettingID
				}
			}(i, s.Transcription)
		}
	}
	wg.Wait()
	close(errs)
	for id := range errs {
		t.Errorf("concurrent query for setting %s differs from sequential result", id)
	}
}

func TestRank(t *testing.T) {
	matches := []model.RankedMatch{{TuneID: "3"}, {TuneID: "1"}}
	if Rank(matches, "1") != 1 {
		t.Error("Rank should return the position of the tune")
	}
	if Rank(matches, "9") != len(matches) {
		t.Error("Rank of a missing tune should be len(matches)")
	}
	if len(Top(matches, 1)) != 1 || len(Top(matches, 5)) != 2 {
		t.Error("Top should clamp to the available matches")
	}
}

func TestSimilarity(t *testing.T) {
	cfg := model.DefaultTuneSettings()
	a := model.MustParseTranscription("D4:2 E4:2 F#4:2 G4:2 A4:4")

	if s := Similarity(a, a, cfg); s != 1 {
		t.Errorf("self similarity = %f, want 1", s)
	}

	slower := model.MustParseTranscription("D4:4 E4:4 F#4:4 G4:4 A4:8")
	if s := Similarity(a, slower, cfg); s != 1 {
		t.Errorf("tempo change should not affect similarity, got %f", s)
	}

	oneOff := model.MustParseTranscription("D4:2 E4:2 G4:2 G4:2 A4:4")
	far := model.MustParseTranscription("C6:2 A5:2 C6:2 A5:2 C6:4")
	s1, s2 := Similarity(a, oneOff, cfg), Similarity(a, far, cfg)
	if !(s1 < 1 && s1 > s2) {
		t.Errorf("expected 1 > %f > %f", s1, s2)
	}
	if s2 < 0 || math.IsNaN(s2) {
		t.Errorf("similarity must be non-negative, got %f", s2)
	}
	if Similarity(a, nil, cfg) != 0 {
		t.Error("similarity with an empty transcription should be 0")
	}
}

func TestRunNameQuery(t *testing.T) {
	e := setupTestEngine(t)

	matches := e.RunNameQuery("kesh", 0)
	if len(matches) == 0 || matches[0].TuneID != "1" {
		t.Fatalf("Expected tune 1 first, got %+v", matches)
	}
	if matches[0].Name != "Kesh Jig" && matches[0].Name != "The Kesh" {
		t.Errorf("unexpected best alias %q", matches[0].Name)
	}

	exact := e.RunNameQuery("the silver SPEAR!", 1)
	if len(exact) != 1 || exact[0].TuneID != "3" || exact[0].Score != 1 {
		t.Errorf("Expected exact match on tune 3, got %+v", exact)
	}

	if got := e.RunNameQuery("  ", 0); len(got) != 0 {
		t.Errorf("blank name should match nothing, got %+v", got)
	}
}
