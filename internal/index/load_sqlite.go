//go:build !js && !wasm
// +build !js,!wasm

package index

import (
	"fmt"

	"github.com/himanishpuri/FolkDNA/internal/model"
	"github.com/himanishpuri/FolkDNA/internal/storage"
)

func loadSQLite(path string) (*TuneIndex, error) {
	db, err := storage.NewDBClientReadOnly(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}
	defer db.Close()

	cfg, ok, err := db.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}
	if !ok {
		cfg = model.DefaultTuneSettings()
	}

	entries, err := db.LoadSettings()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}
	aliases, err := db.LoadAliases()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}

	return Build(cfg, entries, aliases)
}

// SaveSQLite writes the index into a SQLite database, replacing its contents.
func (idx *TuneIndex) SaveSQLite(path string) error {
	db, err := storage.NewDBClientWithPath(path)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.ReplaceIndex(idx.settings, idx.entries, idx.aliases)
}

// StoredCounts reports the row counts of a SQLite index without building it.
func StoredCounts(path string) (StoredStats, error) {
	db, err := storage.NewDBClientReadOnly(path)
	if err != nil {
		return StoredStats{}, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}
	defer db.Close()

	settings, tunes, aliases, err := db.Counts()
	if err != nil {
		return StoredStats{}, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}
	return StoredStats{Settings: settings, Tunes: tunes, Aliases: aliases}, nil
}
