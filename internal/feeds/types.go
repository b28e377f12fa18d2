package feeds

import (
	"context"
	"time"
)

// Item represents a single headline from any source.
// This is the unified type handed to the analyzers each cycle.
type Item struct {
	Title     string    // the only field the analyzers pattern-match
	Link      string    // de-duplication key
	Source    string    // publisher name, e.g. "Reuters", "ZeroHedge"
	Timestamp time.Time // publication time; zero if the feed omitted it
}

// Source is the interface all headline sources implement
type Source interface {
	// Name returns human-readable source name
	Name() string

	// Fetch retrieves the latest items from this source
	Fetch(ctx context.Context) ([]Item, error)
}

// Dedup collapses items sharing the same link, keeping the first
// occurrence. Items with an empty link are kept as-is.
func Dedup(items []Item) []Item {
	seen := make(map[string]bool, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Link != "" {
			if seen[it.Link] {
				continue
			}
			seen[it.Link] = true
		}
		out = append(out, it)
	}
	return out
}
