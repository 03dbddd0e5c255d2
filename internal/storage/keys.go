package storage

import (
	"sort"

	"github.com/himanishpuri/FolkDNA/internal/model"
)

// DefaultDBFile is the index database used when no path is configured.
const DefaultDBFile = "folkdna.sqlite3"

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return model.CompareIDs(keys[i], keys[j]) < 0 })
	return keys
}
