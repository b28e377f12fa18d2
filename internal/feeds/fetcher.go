package feeds

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/HandleConsolidated/situation-monitor-sub006/internal/logging"
)

// fetchTimeout is the timeout for each individual source fetch.
const fetchTimeout = 30 * time.Second

// Fetcher polls a fixed list of sources and returns the combined,
// link-deduped batch for one analysis cycle. A rate limiter spaces
// requests so a long source list doesn't hammer upstream hosts.
type Fetcher struct {
	sources []Source
	limiter *rate.Limiter

	// per-source consecutive error counts, for backoff logging
	errors map[string]int
}

// NewFetcher creates a fetcher over the given sources, allowing at
// most rps requests per second.
func NewFetcher(sources []Source, rps float64) *Fetcher {
	if rps <= 0 {
		rps = 2
	}
	return &Fetcher{
		sources: sources,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		errors:  make(map[string]int),
	}
}

// FetchAll fetches every source sequentially and returns the deduped
// batch. Individual source failures are logged and skipped; the cycle
// proceeds with whatever was fetched.
func (f *Fetcher) FetchAll(ctx context.Context) []Item {
	var all []Item
	for _, src := range f.sources {
		if err := f.limiter.Wait(ctx); err != nil {
			break
		}

		fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
		items, err := src.Fetch(fetchCtx)
		cancel()

		if err != nil {
			f.errors[src.Name()]++
			logging.Warn("Fetch failed", "source", src.Name(), "consecutive_errors", f.errors[src.Name()], "err", err)
			continue
		}
		f.errors[src.Name()] = 0
		all = append(all, items...)
		logging.Debug("Fetched source", "source", src.Name(), "items", len(items))
	}
	return Dedup(all)
}
