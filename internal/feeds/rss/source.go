// Package rss adapts RSS/Atom feeds into the monitor's item type.
package rss

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/HandleConsolidated/situation-monitor-sub006/internal/feeds"
)

// Source fetches items from an RSS/Atom feed
type Source struct {
	name   string
	url    string
	parser *gofeed.Parser
}

// New creates a new RSS source
func New(name, url string) *Source {
	return &Source{
		name:   name,
		url:    url,
		parser: gofeed.NewParser(),
	}
}

func (s *Source) Name() string {
	return s.name
}

func (s *Source) Fetch(ctx context.Context) ([]feeds.Item, error) {
	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", s.url, err)
	}

	items := make([]feeds.Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		// Parse published time; leave zero if the feed omitted it
		var published time.Time
		if entry.PublishedParsed != nil {
			published = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			published = *entry.UpdatedParsed
		}

		items = append(items, feeds.Item{
			Title:     entry.Title,
			Link:      entry.Link,
			Source:    s.name,
			Timestamp: published,
		})
	}

	return items, nil
}
