// Package stats aggregates component download events into per-component
// counters.
package stats

import (
	"context"
	"log/slog"
	"strings"

	"github.com/starford/vaultkit/internal/manifest"
)

// DefaultPageSize is the number of events requested per page.
const DefaultPageSize = 1000

// Event is one recorded component download.
type Event struct {
	Type     string `json:"component_type"`
	Name     string `json:"component_name"`
	Category string `json:"category"`
}

// Key returns the manifest key the event counts towards.
func (e Event) Key() string {
	name := strings.TrimSuffix(strings.TrimSuffix(e.Name, ".md"), ".json")
	return manifest.Singular(e.Type) + "/" + e.Category + "/" + name
}

// Source pages through raw download events.
type Source interface {
	Page(ctx context.Context, offset, limit int) ([]Event, error)
}

// Fetcher reads every page from a Source and counts events per component.
type Fetcher struct {
	source   Source
	pageSize int
	logger   *slog.Logger
}

// NewFetcher creates a Fetcher. pageSize <= 0 selects DefaultPageSize.
func NewFetcher(source Source, pageSize int, logger *slog.Logger) *Fetcher {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Fetcher{source: source, pageSize: pageSize, logger: logger}
}

// Fetch pages sequentially until an empty page and returns key -> count.
// The offset advances by the rows actually returned, so a server capping
// pages below pageSize is still read in full. Any source error is logged
// and yields an empty map, never partial counts.
func (f *Fetcher) Fetch(ctx context.Context) map[string]int {
	counts := make(map[string]int)
	events := 0
	for offset := 0; ; {
		page, err := f.source.Page(ctx, offset, f.pageSize)
		if err != nil {
			f.logger.Warn("stats: fetch failed, continuing without download counts",
				slog.Int("offset", offset),
				slog.String("error", err.Error()))
			return map[string]int{}
		}
		if len(page) == 0 {
			break
		}
		for _, e := range page {
			counts[e.Key()]++
		}
		events += len(page)
		offset += len(page)
	}
	f.logger.Info("stats: downloads aggregated",
		slog.Int("events", events),
		slog.Int("components", len(counts)))
	return counts
}
