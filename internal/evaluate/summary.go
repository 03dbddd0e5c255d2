package evaluate

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/himanishpuri/FolkDNA/internal/dataset"
)

// Summary aggregates the ranks of an evaluation run.
type Summary struct {
	Records    int     `json:"records"`
	Failed     int     `json:"failed"`
	Missed     int     `json:"missed"`
	Top1       int     `json:"top1"`
	Top5       int     `json:"top5"`
	Top10      int     `json:"top10"`
	MeanRank   float64 `json:"mean_rank"`
	MedianRank float64 `json:"median_rank"`
	MRR        float64 `json:"mrr"`
}

// Accuracy returns the share of records ranked within the top n (1, 5 or 10).
func (s Summary) Accuracy(n int) float64 {
	if s.Records == 0 {
		return 0
	}
	var hits int
	switch n {
	case 1:
		hits = s.Top1
	case 5:
		hits = s.Top5
	case 10:
		hits = s.Top10
	default:
		return 0
	}
	return float64(hits) / float64(s.Records)
}

// Summarize computes rank statistics. numTunes is the miss rank; missed and
// failed records count towards the mean and median at that rank and add
// nothing to the reciprocal rank.
func Summarize(results []dataset.RankedRecord, numTunes int) Summary {
	s := Summary{Records: len(results)}
	if len(results) == 0 {
		return s
	}

	ranks := make([]float64, len(results))
	reciprocal := make([]float64, len(results))
	for i, r := range results {
		ranks[i] = float64(r.Rank)
		switch {
		case r.Error != "":
			s.Failed++
		case r.Rank >= numTunes:
			s.Missed++
		default:
			reciprocal[i] = 1 / float64(r.Rank+1)
			if r.Rank < 1 {
				s.Top1++
			}
			if r.Rank < 5 {
				s.Top5++
			}
			if r.Rank < 10 {
				s.Top10++
			}
		}
	}

	s.MeanRank = stat.Mean(ranks, nil)
	s.MRR = stat.Mean(reciprocal, nil)
	s.MedianRank = median(ranks)
	return s
}

// median averages the two middle values of an even-length input.
func median(x []float64) float64 {
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return stat.Mean(sorted[mid-1:mid+1], nil)
}
