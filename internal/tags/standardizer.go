package tags

import (
	"errors"
	"log/slog"

	"github.com/starford/vaultkit/internal/apperr"
	"github.com/starford/vaultkit/internal/frontmatter"
	"github.com/starford/vaultkit/internal/models"
	"github.com/starford/vaultkit/internal/storage"
)

// Result is the outcome of a standardization pass.
type Result struct {
	models.Summary
	// Counts holds how many notes carry each canonical tag after the pass.
	Counts map[string]int `json:"tag_stats"`
	// Changed lists the paths whose tags were (or, in a dry run, would be) rewritten.
	Changed []string `json:"changed"`
}

// Standardizer rewrites the tags key of every note to its normalized list.
type Standardizer struct {
	norm   *Normalizer
	store  storage.Provider
	logger *slog.Logger
}

// NewStandardizer creates a Standardizer.
func NewStandardizer(norm *Normalizer, store storage.Provider, logger *slog.Logger) *Standardizer {
	return &Standardizer{norm: norm, store: store, logger: logger}
}

// Run processes every note. With dryRun set nothing is written. Notes
// without a metadata block, or with a malformed one, are skipped.
func (s *Standardizer) Run(dryRun bool) (*Result, error) {
	metas, err := s.store.List("")
	if err != nil {
		return nil, err
	}
	res := &Result{Counts: make(map[string]int)}
	for _, m := range metas {
		res.Processed++
		changed, err := s.processFile(m.Path, dryRun, res.Counts)
		switch {
		case errors.Is(err, apperr.ErrMalformedFrontmatter):
			s.logger.Warn("tags: malformed frontmatter", slog.String("path", m.Path))
			res.Skipped++
		case errors.Is(err, errNoMetadata):
			res.Skipped++
		case err != nil:
			s.logger.Warn("tags: process failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			res.Errored++
		case changed:
			res.Updated++
			res.Changed = append(res.Changed, m.Path)
			if !dryRun {
				s.logger.Info("tags: updated", slog.String("path", m.Path))
			}
		}
	}
	return res, nil
}

var errNoMetadata = errors.New("no metadata block")

func (s *Standardizer) processFile(path string, dryRun bool, counts map[string]int) (bool, error) {
	data, err := s.store.Read(path)
	if err != nil {
		return false, err
	}
	meta, body, err := frontmatter.ParseStrict(data)
	if err != nil {
		return false, err
	}
	if meta == nil {
		return false, errNoMetadata
	}
	current, ok := meta.Get("tags")
	if !ok {
		return false, nil
	}

	normalized := s.norm.NormalizeList(current.Items())
	for _, t := range normalized {
		counts[t]++
	}
	next := frontmatter.List(normalized...)
	if current.Equal(next) {
		return false, nil
	}
	if dryRun {
		return true, nil
	}

	meta.Set("tags", next)
	out, err := frontmatter.Serialize(meta, body)
	if err != nil {
		return false, err
	}
	if err := s.store.Write(path, out); err != nil {
		return false, err
	}
	return true, nil
}
