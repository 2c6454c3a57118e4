// Package noteservice is the read side shared by the HTTP API and the MCP
// server: note lookup, tag statistics, link analysis and ledger queries.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/vaultkit/internal/apperr"
	"github.com/starford/vaultkit/internal/entity"
	"github.com/starford/vaultkit/internal/frontmatter"
	"github.com/starford/vaultkit/internal/index"
	"github.com/starford/vaultkit/internal/links"
	"github.com/starford/vaultkit/internal/parser"
	"github.com/starford/vaultkit/internal/storage"
	"github.com/starford/vaultkit/internal/tags"
	"github.com/starford/vaultkit/internal/vault"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Checksum    string         `json:"checksum"`
	Tags        []string       `json:"tags"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	References  []string       `json:"references"`
	Backlinks   []string       `json:"backlinks"`
	WordCount   int            `json:"word_count"`
}

// Service coordinates storage, the tag normalizer and the ledger.
type Service struct {
	store   storage.Provider
	db      index.Ledger
	norm    *tags.Normalizer
	scanner *entity.Scanner
	logger  *slog.Logger
}

// NewService creates a new note service.
func NewService(store storage.Provider, db index.Ledger, norm *tags.Normalizer, scanner *entity.Scanner, logger *slog.Logger) *Service {
	return &Service{store: store, db: db, norm: norm, scanner: scanner, logger: logger}
}

// GetNote reads a note and enriches it with backlinks from the ledger.
func (s *Service) GetNote(_ context.Context, path string) (*NoteDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	doc := parser.Parse(path, data)

	seen := map[string]bool{}
	backlinks := []string{}
	for _, target := range []string{parser.Stem(path), strings.TrimSuffix(path, ".md"), doc.Title} {
		bl, err := s.db.Backlinks(target)
		if err != nil {
			return nil, err
		}
		for _, b := range bl {
			if !seen[b] && b != path {
				seen[b] = true
				backlinks = append(backlinks, b)
			}
		}
	}

	return &NoteDetail{
		Path:        path,
		Title:       doc.Title,
		Content:     string(data),
		Checksum:    doc.Checksum,
		Tags:        nonNilSlice(doc.Tags),
		Frontmatter: asMap(doc.Metadata),
		References:  nonNilSlice(doc.References),
		Backlinks:   backlinks,
		WordCount:   doc.WordCount,
	}, nil
}

// NormalizeTag returns the canonical form of raw.
func (s *Service) NormalizeTag(raw string) string {
	return s.norm.Normalize(raw)
}

// TagStats returns ledger tag usage, most used first.
func (s *Service) TagStats(_ context.Context) ([]index.TagCount, error) {
	counts, err := s.db.TagCounts()
	if err != nil {
		return nil, err
	}
	return nonNilSlice(counts), nil
}

// Analyze loads the vault and runs the link analyses.
func (s *Service) Analyze(_ context.Context) (*links.Analysis, error) {
	docs, _, err := vault.Load(s.store, "", s.logger)
	if err != nil {
		return nil, fmt.Errorf("noteservice: load vault: %w", err)
	}
	return links.Analyze(docs, s.scanner), nil
}

// Orphans returns notes nothing links to and that link nowhere.
func (s *Service) Orphans(ctx context.Context) ([]links.Orphan, error) {
	a, err := s.Analyze(ctx)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(a.Orphans), nil
}

// Suggestions returns stored suggestions of the latest run.
func (s *Service) Suggestions(_ context.Context, reason string, limit int) ([]index.SuggestionRow, error) {
	rows, err := s.db.LoadSuggestions(reason, limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(rows), nil
}

// SaveSuggestions stores suggestions under runID.
func (s *Service) SaveSuggestions(runID string, list []links.Suggestion) error {
	rows := make([]index.SuggestionRow, len(list))
	for i, sg := range list {
		rows[i] = index.SuggestionRow{
			A:          sg.A,
			B:          sg.B,
			Reason:     sg.Reason,
			Confidence: sg.Confidence,
			Evidence:   sg.Evidence,
		}
	}
	return s.db.SaveSuggestions(runID, rows)
}

// Runs returns recent tool runs.
func (s *Service) Runs(_ context.Context, limit int) ([]index.RunRow, error) {
	runs, err := s.db.Runs(limit)
	if err != nil {
		return nil, err
	}
	return nonNilSlice(runs), nil
}

// asMap flattens metadata for JSON output: lists become string slices and
// scalars their text.
func asMap(m *frontmatter.Metadata) map[string]any {
	if m.Len() == 0 {
		return nil
	}
	out := make(map[string]any, m.Len())
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		switch {
		case v.IsList():
			out[k] = nonNilSlice(v.Items())
		case v.IsNull():
			out[k] = nil
		default:
			out[k] = v.Text()
		}
	}
	return out
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
