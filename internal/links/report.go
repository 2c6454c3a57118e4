package links

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/starford/vaultkit/internal/entity"
	"github.com/starford/vaultkit/internal/models"
)

const (
	reportPerEntity = 5
	reportKeywords  = 20
	reportOrphans   = 30
)

// Stats summarizes an Analysis.
type Stats struct {
	TotalNotes         int `json:"total_notes"`
	EntitySuggestions  int `json:"entity_suggestions"`
	KeywordSuggestions int `json:"keyword_suggestions"`
	OrphanedNotes      int `json:"orphaned_notes"`
}

// Analysis bundles every link analysis over one corpus.
type Analysis struct {
	Entity  []Suggestion `json:"entity_suggestions"`
	Keyword []Suggestion `json:"keyword_suggestions"`
	Orphans []Orphan     `json:"orphaned_notes"`
	Stats   Stats        `json:"stats"`
}

// Analyze runs the entity scan, both suggestion strategies and orphan
// detection.
func Analyze(docs []*models.Document, scanner *entity.Scanner) *Analysis {
	a := &Analysis{
		Entity:  EntitySuggestions(docs, scanner.Scan(docs)),
		Keyword: KeywordSuggestions(docs),
		Orphans: Orphans(docs),
	}
	a.Stats = Stats{
		TotalNotes:         len(docs),
		EntitySuggestions:  len(a.Entity),
		KeywordSuggestions: len(a.Keyword),
		OrphanedNotes:      len(a.Orphans),
	}
	return a
}

// All returns entity and keyword suggestions together.
func (a *Analysis) All() []Suggestion {
	return append(slices.Clone(a.Entity), a.Keyword...)
}

// RenderReport formats a as the "Link Suggestions Report" Markdown.
func RenderReport(a *Analysis, vaultPath string) string {
	title := cases.Title(language.English)
	var b strings.Builder

	b.WriteString("# Link Suggestions Report\n")
	fmt.Fprintf(&b, "Generated for vault: %s\n", vaultPath)
	fmt.Fprintf(&b, "Total notes analyzed: %d\n\n", a.Stats.TotalNotes)

	b.WriteString("## Entity-Based Link Suggestions\n")
	fmt.Fprintf(&b, "Found %d potential connections\n\n", len(a.Entity))
	groups := make(map[string][]Suggestion)
	for _, s := range a.Entity {
		groups[s.Evidence[0]] = append(groups[s.Evidence[0]], s)
	}
	terms := make([]string, 0, len(groups))
	for t := range groups {
		terms = append(terms, t)
	}
	slices.Sort(terms)
	for _, t := range terms {
		fmt.Fprintf(&b, "### %s\n", title.String(t))
		for _, s := range head(groups[t], reportPerEntity) {
			fmt.Fprintf(&b, "- [[%s]] ↔ [[%s]]\n", s.TitleA, s.TitleB)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Keyword-Based Link Suggestions\n")
	fmt.Fprintf(&b, "Found %d potential connections\n\n", len(a.Keyword))
	for _, s := range head(ByConfidence(a.Keyword), reportKeywords) {
		fmt.Fprintf(&b, "- [[%s]] ↔ [[%s]]\n", s.TitleA, s.TitleB)
		fmt.Fprintf(&b, "  Common words: %s\n\n", strings.Join(s.Evidence, ", "))
	}

	b.WriteString("## Orphaned Notes (No Links)\n")
	fmt.Fprintf(&b, "Found %d notes with no connections\n\n", len(a.Orphans))
	orphans := slices.Clone(a.Orphans)
	slices.SortStableFunc(orphans, func(x, y Orphan) int { return cmp.Compare(y.WordCount, x.WordCount) })
	for _, o := range head(orphans, reportOrphans) {
		fmt.Fprintf(&b, "- [[%s]] (%d words)\n", o.Title, o.WordCount)
	}
	return b.String()
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
