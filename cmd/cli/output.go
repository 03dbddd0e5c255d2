package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/himanishpuri/FolkDNA/internal/abc"
	"github.com/himanishpuri/FolkDNA/internal/index"
	"github.com/himanishpuri/FolkDNA/internal/model"
	"github.com/himanishpuri/FolkDNA/pkg/folkdna"
)

var (
	bold    = color.New(color.Bold).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	cyan    = color.New(color.FgCyan).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
	success = color.New(color.FgGreen, color.Bold).SprintFunc()
)

func printElapsed(start time.Time) {
	fmt.Printf("%s %s\n", faint("⏱  Elapsed:"), time.Since(start).Round(time.Millisecond))
}

func abcOf(t folkdna.Transcription, title string) string {
	return abc.Format(t, abc.Header{Title: title})
}

// printNGrams lists the distinct pitch n-grams the index would look up for t.
func printNGrams(t folkdna.Transcription) {
	cfg := model.DefaultTuneSettings()
	keys := index.NGramKeys(t, cfg.NGramLength, cfg.PitchQuantum)
	fmt.Printf("\n🔑 %d lookup keys:\n", len(keys))
	for _, key := range keys {
		pitches := index.UnpackNGram(key, cfg.NGramLength)
		names := make([]string, len(pitches))
		for i, p := range pitches {
			names[i] = model.NoteName(p * cfg.PitchQuantum)
		}
		fmt.Printf("   %s %s\n", faint(fmt.Sprintf("%#x", key)), strings.Join(names, " "))
	}
}

func printMatches(results []folkdna.MatchResult, limit int) {
	if len(results) == 0 {
		fmt.Println("\n📭 Index is empty")
		return
	}

	shown := results
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	fmt.Printf("\n🎵 Top %d of %s tunes:\n\n", len(shown), humanize.Comma(int64(len(results))))
	for i, r := range shown {
		name := r.Name
		if name == "" {
			name = faint("(untitled)")
		}
		fmt.Printf("%2d. %s %s\n", i+1, bold(name), faint("#"+r.TuneID))
		fmt.Printf("    Score: %s | Setting: %s\n", green(fmt.Sprintf("%.3f", r.Score)), r.SettingID)
	}
}

func printNameResults(results []folkdna.NameResult) {
	if len(results) == 0 {
		fmt.Println("\n📭 No tune matches that name")
		return
	}
	fmt.Printf("\n📚 Found %d tune(s):\n\n", len(results))
	for i, r := range results {
		fmt.Printf("%2d. %s %s  %s\n", i+1, bold(r.Name), faint("#"+r.TuneID), green(fmt.Sprintf("%.3f", r.Score)))
	}
}

func printSummary(report *folkdna.EvaluationReport) {
	s := report.Summary
	fmt.Printf("\n%s\n", success("✅ Evaluation complete"))
	fmt.Printf("   Records:     %s\n", humanize.Comma(int64(s.Records)))
	fmt.Printf("   Top-1:       %s (%.1f%%)\n", humanize.Comma(int64(s.Top1)), 100*s.Accuracy(1))
	fmt.Printf("   Top-5:       %s (%.1f%%)\n", humanize.Comma(int64(s.Top5)), 100*s.Accuracy(5))
	fmt.Printf("   Top-10:      %s (%.1f%%)\n", humanize.Comma(int64(s.Top10)), 100*s.Accuracy(10))
	fmt.Printf("   Mean rank:   %.2f\n", s.MeanRank)
	fmt.Printf("   Median rank: %.0f\n", s.MedianRank)
	fmt.Printf("   MRR:         %.4f\n", s.MRR)
	if s.Missed > 0 {
		fmt.Printf("   Missed:      %s\n", yellow(humanize.Comma(int64(s.Missed))))
	}
	if s.Failed > 0 {
		fmt.Printf("   Failed:      %s\n", yellow(humanize.Comma(int64(s.Failed))))
	}
	fmt.Printf("   Output:      %s\n", cyan(report.Output))
}
