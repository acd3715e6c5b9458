// Package cache provides translation caching implementations: in memory,
// Redis and SQLite, plus JSON export and import.
package cache

import (
	"context"

	"github.com/ZaguanLabs/tlguard"
)

// TranslationCache is an alias to the main package interface.
type TranslationCache = tlguard.TranslationCache

// Lister is implemented by caches whose contents can be enumerated.
type Lister interface {
	TranslationCache
	// Entries returns every live key and value.
	Entries(ctx context.Context) (map[string]string, error)
}
