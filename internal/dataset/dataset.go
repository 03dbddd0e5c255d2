package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/himanishpuri/FolkDNA/pkg/utils"
)

const (
	TranscriptionsFile = "transcriptions.json"
	RankedFile         = "transcriptions_ranked.json"
)

var (
	ErrDatasetLoad  = errors.New("dataset load failed")
	ErrDatasetWrite = errors.New("dataset write failed")
)

// Record is one labelled recording of an evaluation dataset.
type Record struct {
	RelPath       string `json:"rel_path"`
	TuneID        string `json:"tune_id"`
	Name          string `json:"name"`
	Transcription string `json:"transcription"`
}

// RankedRecord is a Record with the position its tune reached when the
// transcription was queried. Rank equals the number of tunes in the index
// when the tune was not found or the record failed.
type RankedRecord struct {
	Record
	Rank  int     `json:"rank"`
	Score float64 `json:"score"`
	Error string  `json:"error,omitempty"`
}

// Dir returns the dataset directory for a dataset path, which may name the
// directory itself or a transcriptions file inside it.
func Dir(path string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}

// TranscriptionsPath returns the transcriptions file for a dataset path.
func TranscriptionsPath(path string) string {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, TranscriptionsFile)
	}
	return path
}

// Load reads the records of a dataset.
func Load(path string) ([]Record, error) {
	file := TranscriptionsPath(path)
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatasetLoad, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrDatasetLoad, file, err)
	}
	return records, nil
}

// WriteRanked writes ranked records next to the dataset and returns the
// output path.
func WriteRanked(path string, records []RankedRecord) (string, error) {
	out := filepath.Join(Dir(path), RankedFile)
	if err := WriteRankedFile(out, records); err != nil {
		return "", err
	}
	return out, nil
}

// WriteRankedFile writes ranked records to file.
func WriteRankedFile(file string, records []RankedRecord) error {
	if err := writeJSON(file, records); err != nil {
		return fmt.Errorf("%w: %v", ErrDatasetWrite, err)
	}
	return nil
}

// Write replaces the dataset's transcriptions file.
func Write(path string, records []Record) (string, error) {
	out := TranscriptionsPath(path)
	if err := writeJSON(out, records); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDatasetWrite, err)
	}
	return out, nil
}

// writeJSON encodes v into a temp file in the target directory and moves
// it into place, so readers never see a partial file.
func writeJSON(path string, v any) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := f.Name()
	defer utils.DeleteFile(tmpPath)

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return utils.MoveFile(tmpPath, path)
}
