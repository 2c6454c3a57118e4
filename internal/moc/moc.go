// Package moc generates Map of Content index notes for vault directories.
package moc

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"regexp"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/starford/vaultkit/internal/apperr"
	"github.com/starford/vaultkit/internal/frontmatter"
	"github.com/starford/vaultkit/internal/models"
	"github.com/starford/vaultkit/internal/storage"
	"github.com/starford/vaultkit/internal/tags"
)

const (
	minSuggestFiles = 3
	keyTopics       = 10
	suggestTopics   = 5
	relatedMOCs     = 10
)

var (
	datePrefixRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[_-]`)
	mocPrefixRe  = regexp.MustCompile(`^MOC[_-]`)
	splitRe      = regexp.MustCompile(`[_\-\s]+`)
	stopWords    = map[string]struct{}{
		"and": {}, "the": {}, "for": {}, "with": {}, "to": {},
		"of": {}, "in": {}, "on": {}, "at": {}, "by": {},
	}
)

// TopicCount is how many file names in a directory carry a topic word.
type TopicCount struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// DirStats summarizes the direct contents of a directory.
type DirStats struct {
	TotalFiles     int            `json:"total_files"`
	MarkdownFiles  int            `json:"md_files"`
	Subdirectories []string       `json:"subdirectories"`
	FileTypes      map[string]int `json:"file_types"`
	Topics         []TopicCount   `json:"common_topics"`
	files          []string
}

// Suggestion is a directory that deserves a MOC.
type Suggestion struct {
	Directory string       `json:"directory"`
	Title     string       `json:"title"`
	FileCount int          `json:"file_count"`
	Subdirs   int          `json:"subdirs"`
	TopTopics []TopicCount `json:"top_topics"`
}

// Generator builds MOC notes. MOCs are written under mocDir.
type Generator struct {
	store  storage.Provider
	norm   *tags.Normalizer
	mocDir string
	logger *slog.Logger
	now    func() time.Time
}

// NewGenerator creates a Generator writing into mocDir (vault-relative).
func NewGenerator(store storage.Provider, norm *tags.Normalizer, mocDir string, logger *slog.Logger) *Generator {
	return &Generator{store: store, norm: norm, mocDir: mocDir, logger: logger, now: time.Now}
}

// TopicsFromFilename extracts lowercase topic words from a file name after
// removing the .md extension and date or MOC prefixes.
func TopicsFromFilename(name string) []string {
	name = strings.ReplaceAll(name, ".md", "")
	name = datePrefixRe.ReplaceAllString(name, "")
	name = mocPrefixRe.ReplaceAllString(name, "")

	var out []string
	for _, w := range splitRe.Split(name, -1) {
		lw := strings.ToLower(w)
		if len([]rune(w)) <= 2 {
			continue
		}
		if _, stop := stopWords[lw]; stop {
			continue
		}
		out = append(out, lw)
	}
	return out
}

// Analyze computes statistics for the direct children of dir.
func (g *Generator) Analyze(dir string) (*DirStats, error) {
	entries, err := g.store.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	st := &DirStats{FileTypes: make(map[string]int)}
	counts := make(map[string]int)
	var order []string
	for _, e := range entries {
		if e.IsDir {
			st.Subdirectories = append(st.Subdirectories, e.Name)
			continue
		}
		st.TotalFiles++
		st.FileTypes[path.Ext(e.Name)]++
		if path.Ext(e.Name) != ".md" {
			continue
		}
		st.MarkdownFiles++
		st.files = append(st.files, e.Name)
		for _, t := range TopicsFromFilename(e.Name) {
			if counts[t] == 0 {
				order = append(order, t)
			}
			counts[t]++
		}
	}
	for _, t := range order {
		st.Topics = append(st.Topics, TopicCount{Topic: t, Count: counts[t]})
	}
	slices.SortStableFunc(st.Topics, func(a, b TopicCount) int { return cmp.Compare(b.Count, a.Count) })
	return st, nil
}

// OutputPath returns where the MOC titled title is written.
func (g *Generator) OutputPath(title string) string {
	return path.Join(g.mocDir, "MOC - "+title+".md")
}

// Generate renders the MOC note for dir.
func (g *Generator) Generate(dir, title, description string) ([]byte, error) {
	st, err := g.Analyze(dir)
	if err != nil {
		return nil, err
	}
	today := g.now()
	name := path.Base(dir)
	tc := cases.Title(language.English)

	meta := frontmatter.New()
	meta.Set("tags", frontmatter.List(g.norm.NormalizeList([]string{"MOC", name})...))
	meta.Set("type", frontmatter.String("map-of-content"))
	meta.Set("created", frontmatter.Date(today))
	meta.Set("modified", frontmatter.Date(today))
	meta.Set("status", frontmatter.String("active"))
	meta.Set("cssclass", frontmatter.String("moc"))
	meta.Set("aliases", frontmatter.List(title+" Hub", title+" Overview"))
	meta.Set("hub_for", frontmatter.List(name))
	meta.Set("related_mocs", frontmatter.List())

	var b strings.Builder
	fmt.Fprintf(&b, "\n# %s Map of Content\n\n## Overview\n", title)
	if description == "" {
		description = fmt.Sprintf("This MOC organizes all content related to %s.", strings.ToLower(title))
	}
	b.WriteString(description + "\n\n")
	fmt.Fprintf(&b, "**Directory**: `%s/`\n", name)
	fmt.Fprintf(&b, "**Total Files**: %d markdown files\n", st.MarkdownFiles)
	fmt.Fprintf(&b, "**Last Updated**: %s\n\n", today.Format(frontmatter.DateLayout))

	if len(st.Subdirectories) > 0 {
		b.WriteString("## Subdirectories\n\n")
		for _, sub := range st.Subdirectories {
			fmt.Fprintf(&b, "### %s\n- [[MOC - %s|%s Overview]]\n\n", sub, sub, sub)
		}
	}

	writeClusters(&b, st.files, tc)

	if len(st.Topics) > 0 {
		b.WriteString("## Key Topics\n\n")
		for _, t := range st.Topics[:min(keyTopics, len(st.Topics))] {
			fmt.Fprintf(&b, "- **%s** (%d files)\n", tc.String(t.Topic), t.Count)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Related MOCs\n")
	for _, other := range g.existingMOCs(title) {
		fmt.Fprintf(&b, "- [[%s]]\n", other)
	}
	b.WriteString("- [[Master Index]]\n\n")

	b.WriteString(`## Status & Progress
- [ ] Organize files by topic
- [ ] Add cross-references
- [ ] Review and update links
- [ ] Add examples and tutorials

## Next Steps
- Review all files in this directory
- Create sub-MOCs for large topic clusters
- Add relevant tags to all files
- Connect to related MOCs

---
*This MOC was auto-generated. Please review and customize as needed.*
`)
	return frontmatter.Serialize(meta, b.String())
}

// writeClusters lists files grouped by their primary topic word. Topics
// shared by fewer than two files fall into Other Files.
func writeClusters(b *strings.Builder, files []string, tc cases.Caser) {
	b.WriteString("## Content Organization\n\n")
	groups := make(map[string][]string)
	var order []string
	var other []string
	for _, f := range files {
		if strings.HasPrefix(f, "MOC") {
			continue
		}
		topics := TopicsFromFilename(f)
		if len(topics) == 0 {
			other = append(other, f)
			continue
		}
		if _, ok := groups[topics[0]]; !ok {
			order = append(order, topics[0])
		}
		groups[topics[0]] = append(groups[topics[0]], f)
	}
	slices.SortStableFunc(order, func(a, b string) int { return cmp.Compare(len(groups[b]), len(groups[a])) })

	for _, t := range order {
		if len(groups[t]) < 2 {
			other = append(other, groups[t]...)
			continue
		}
		fmt.Fprintf(b, "### %s\n", tc.String(t))
		for _, f := range groups[t] {
			fmt.Fprintf(b, "- [[%s]]\n", displayTitle(f))
		}
		b.WriteString("\n")
	}
	if len(other) > 0 {
		slices.Sort(other)
		b.WriteString("### Other Files\n")
		for _, f := range other {
			fmt.Fprintf(b, "- [[%s]]\n", displayTitle(f))
		}
		b.WriteString("\n")
	}
}

func displayTitle(file string) string {
	stem := strings.TrimSuffix(file, ".md")
	return strings.NewReplacer("_", " ", "-", " ").Replace(stem)
}

func (g *Generator) existingMOCs(exclude string) []string {
	entries, err := g.store.ReadDir(g.mocDir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir || !strings.HasPrefix(e.Name, "MOC") || !strings.HasSuffix(e.Name, ".md") {
			continue
		}
		stem := strings.TrimSuffix(e.Name, ".md")
		if stem == "MOC - "+exclude {
			continue
		}
		out = append(out, stem)
		if len(out) == relatedMOCs {
			break
		}
	}
	return out
}

// Create writes the MOC for dir. When a MOC already exists at the output
// path nothing is written and the returned error wraps apperr.ErrAlreadyExists.
func (g *Generator) Create(dir, title, description string) (string, error) {
	if title == "" {
		title = path.Base(dir)
	}
	out := g.OutputPath(title)
	if g.store.Exists(out) {
		return out, fmt.Errorf("moc: %s: %w", out, apperr.ErrAlreadyExists)
	}
	content, err := g.Generate(dir, title, description)
	if err != nil {
		return out, fmt.Errorf("moc: generate %s: %w", dir, err)
	}
	if err := g.store.Create(out, content); err != nil {
		return out, fmt.Errorf("moc: %w", err)
	}
	g.logger.Info("moc: created", slog.String("path", out), slog.String("directory", dir))
	return out, nil
}

// Suggest lists top-level directories with at least three notes and no MOC
// file of their own.
func (g *Generator) Suggest() ([]Suggestion, error) {
	entries, err := g.store.ReadDir("")
	if err != nil {
		return nil, err
	}
	var out []Suggestion
	for _, e := range entries {
		if !e.IsDir || g.store.Skipped(e.Name) {
			continue
		}
		st, err := g.Analyze(e.Name)
		if err != nil {
			g.logger.Warn("moc: analyze failed", slog.String("directory", e.Name), slog.String("error", err.Error()))
			continue
		}
		if st.MarkdownFiles < minSuggestFiles || hasMOC(st.files) {
			continue
		}
		out = append(out, Suggestion{
			Directory: e.Name,
			Title:     e.Name,
			FileCount: st.MarkdownFiles,
			Subdirs:   len(st.Subdirectories),
			TopTopics: st.Topics[:min(suggestTopics, len(st.Topics))],
		})
	}
	return out, nil
}

func hasMOC(files []string) bool {
	return slices.ContainsFunc(files, func(f string) bool { return strings.HasPrefix(f, "MOC") })
}

// CreateAll creates a MOC for every suggested directory. Existing MOCs are
// counted as skipped.
func (g *Generator) CreateAll() (models.Summary, error) {
	var sum models.Summary
	suggestions, err := g.Suggest()
	if err != nil {
		return sum, err
	}
	for _, s := range suggestions {
		sum.Processed++
		_, err := g.Create(s.Directory, s.Title, "")
		switch {
		case errors.Is(err, apperr.ErrAlreadyExists):
			sum.Skipped++
		case err != nil:
			g.logger.Warn("moc: create failed", slog.String("directory", s.Directory), slog.String("error", err.Error()))
			sum.Errored++
		default:
			sum.Updated++
		}
	}
	return sum, nil
}
