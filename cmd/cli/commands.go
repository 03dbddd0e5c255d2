package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/himanishpuri/FolkDNA/internal/index"
	"github.com/himanishpuri/FolkDNA/pkg/folkdna"
	"github.com/himanishpuri/FolkDNA/pkg/logger"
)

func newTranscribeCmd() *cobra.Command {
	var asABC, showNGrams bool
	var title string

	cmd := &cobra.Command{
		Use:   "transcribe <wav-file>",
		Short: "Transcribe a WAV recording into a note sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			logger.Infof("Transcribing %s", args[0])

			t, err := folkdna.TranscribeFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to transcribe %s: %w", args[0], err)
			}

			if asABC {
				fmt.Print(abcOf(t, title))
			} else {
				fmt.Println(t.String())
			}
			fmt.Printf("%s %d tokens, %d notes\n", success("✅"), len(t), t.Notes())
			if showNGrams {
				printNGrams(t)
			}
			printElapsed(start)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asABC, "abc", false, "Print ABC notation instead of tokens")
	cmd.Flags().StringVar(&title, "title", "", "Title for the ABC header")
	cmd.Flags().BoolVar(&showNGrams, "ngrams", false, "List the index lookup keys of the transcription")
	return cmd
}

func newMatchCmd() *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "match <wav-file>",
		Short: "Transcribe a recording and rank the tune index against it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			fmt.Println("\n🔧 Loading tune index...")
			svc, err := createService(folkdna.WithTopN(0))
			if err != nil {
				return err
			}
			defer svc.Close()

			fmt.Println("🔍 Analyzing recording...")
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			report, err := svc.MatchFile(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("   %s\n", faint(report.Transcription.String()))
			printMatches(report.Matches, top)
			fmt.Println()
			printElapsed(start)
			return nil
		},
	}
	cmd.Flags().IntVarP(&top, "top", "n", 10, "Number of tunes to show")
	return cmd
}

func newDatasetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Bulk evaluation over a labelled dataset",
	}

	var output string
	queryCmd := &cobra.Command{
		Use:   "query <dataset-path>",
		Short: "Rank every record's transcription and write transcriptions_ranked.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			svc, err := createService(
				folkdna.WithProgress(os.Stderr),
				folkdna.WithOutput(output),
			)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			report, err := svc.EvaluateDataset(ctx, args[0])
			if err != nil {
				return err
			}
			printSummary(report)
			printElapsed(start)
			return nil
		},
	}
	queryCmd.Flags().StringVarP(&output, "output", "o", "", "Ranked output file (default: <dataset>/transcriptions_ranked.json)")

	transcribeCmd := &cobra.Command{
		Use:   "transcribe <dataset-path>",
		Short: "Re-transcribe every record's recording in parallel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			report, err := folkdna.TranscribeDataset(ctx, args[0],
				folkdna.WithWorkers(viper.GetInt("workers")),
				folkdna.WithProgress(os.Stderr),
				folkdna.WithLogger(logger.GetLogger()),
			)
			if err != nil {
				return err
			}
			fmt.Printf("\n%s %s of %s recordings transcribed\n", success("✅"),
				humanize.Comma(int64(report.Records-report.Failed)), humanize.Comma(int64(report.Records)))
			if report.Failed > 0 {
				fmt.Printf("   %s\n", yellow(fmt.Sprintf("%d failed, see log", report.Failed)))
			}
			fmt.Printf("   Output: %s\n", cyan(report.Output))
			printElapsed(start)
			return nil
		},
	}

	cmd.AddCommand(queryCmd, transcribeCmd)
	return cmd
}

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query the tune index without audio",
	}

	var top int
	contourCmd := &cobra.Command{
		Use:   "contour <transcription>",
		Short: `Rank the index against a transcription such as "D4:2 E4:2 F#4:4"`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := createService()
			if err != nil {
				return err
			}
			defer svc.Close()

			results, err := svc.QueryContour(args[0])
			if err != nil {
				return err
			}
			printMatches(results, top)
			return nil
		},
	}
	contourCmd.Flags().IntVarP(&top, "top", "n", 10, "Number of tunes to show")

	var limit int
	nameCmd := &cobra.Command{
		Use:   "name <name>",
		Short: "Find tunes by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := createService()
			if err != nil {
				return err
			}
			defer svc.Close()

			printNameResults(svc.QueryName(args[0], limit))
			return nil
		},
	}
	nameCmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of tunes")

	compareCmd := &cobra.Command{
		Use:   "compare <transcription> <transcription>",
		Short: "Score two transcriptions against each other",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := folkdna.ParseTranscription(args[0])
			if err != nil {
				return err
			}
			b, err := folkdna.ParseTranscription(args[1])
			if err != nil {
				return err
			}

			svc, err := createService()
			if err != nil {
				return err
			}
			defer svc.Close()

			fmt.Printf("Similarity: %s\n", bold(fmt.Sprintf("%.4f", svc.Compare(a, b))))
			return nil
		},
	}

	cmd.AddCommand(contourCmd, nameCmd, compareCmd)
	return cmd
}

func newABCCmd() *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "abc <transcription>",
		Short: "Render a transcription as ABC notation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := folkdna.ParseTranscription(args[0])
			if err != nil {
				return err
			}
			fmt.Print(abcOf(t, title))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Tune title")
	return cmd
}

func newTuneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tune <tune-id>",
		Short: "Show the settings and names of a tune",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := createService()
			if err != nil {
				return err
			}
			defer svc.Close()

			tune, err := svc.GetTune(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("\n🎻 Tune %s\n", bold(tune.TuneID))
			for _, name := range tune.Names {
				fmt.Printf("   %s\n", name)
			}
			fmt.Println()
			for _, s := range tune.Settings {
				fmt.Printf("   %s %s\n", cyan("#"+s.SettingID), s.Transcription)
			}
			return nil
		},
	}
}

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the tune index",
	}

	importCmd := &cobra.Command{
		Use:   "import <source> <sqlite-file>",
		Short: "Convert an index (JSON or SQLite) into a SQLite database",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			idx, err := index.Load(args[0])
			if err != nil {
				return err
			}
			if err := idx.SaveSQLite(args[1]); err != nil {
				return err
			}
			st := idx.Stats()
			fmt.Printf("%s Imported %s settings of %s tunes into %s\n", success("✅"),
				humanize.Comma(int64(st.Settings)), humanize.Comma(int64(st.Tunes)), cyan(args[1]))
			printElapsed(start)
			return nil
		},
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show the size of the configured index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := createService()
			if err != nil {
				return err
			}
			defer svc.Close()

			st := svc.Stats()
			fmt.Printf("\n📚 %s\n", cyan(st.Source))
			if info, err := os.Stat(viper.GetString("index")); err == nil {
				fmt.Printf("   Size:     %s\n", humanize.Bytes(uint64(info.Size())))
			}
			fmt.Printf("   Tunes:    %s\n", humanize.Comma(int64(st.Tunes)))
			fmt.Printf("   Settings: %s\n", humanize.Comma(int64(st.Settings)))
			fmt.Printf("   N-grams:  %s\n", humanize.Comma(int64(st.NGrams)))
			fmt.Printf("   Aliases:  %s\n", humanize.Comma(int64(st.Aliases)))

			if path := viper.GetString("index"); index.IsSQLite(path) {
				stored, err := index.StoredCounts(path)
				if err != nil {
					return err
				}
				fmt.Printf("   Stored:   %s settings, %s tunes, %s aliases\n",
					humanize.Comma(stored.Settings), humanize.Comma(stored.Tunes), humanize.Comma(stored.Aliases))
			}
			return nil
		},
	}

	cmd.AddCommand(importCmd, statsCmd)
	return cmd
}
