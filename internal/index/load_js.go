//go:build js || wasm
// +build js wasm

package index

import (
	"errors"
	"fmt"
)

var errNoSQLite = errors.New("sqlite indexes are not available in this build")

func loadSQLite(path string) (*TuneIndex, error) {
	return nil, fmt.Errorf("%w: %s", errNoSQLite, path)
}

// SaveSQLite is unavailable in the browser build.
func (idx *TuneIndex) SaveSQLite(path string) error {
	return errNoSQLite
}

// StoredCounts is unavailable in the browser build.
func StoredCounts(path string) (StoredStats, error) {
	return StoredStats{}, errNoSQLite
}
