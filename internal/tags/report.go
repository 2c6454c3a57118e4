package tags

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/starford/vaultkit/internal/models"
)

// TagUsage is how many notes carry a raw tag and what it normalizes to.
type TagUsage struct {
	Tag        string `json:"tag"`
	Files      int    `json:"files"`
	Normalized string `json:"normalized"`
}

// Consolidation groups raw tags that collapse into one canonical tag.
type Consolidation struct {
	Tag     string     `json:"tag"`
	Files   int        `json:"files"`
	Sources []TagUsage `json:"sources"`
}

// Analysis is the current tag landscape of a vault.
type Analysis struct {
	Usage          []TagUsage      `json:"usage"`
	Consolidations []Consolidation `json:"consolidations"`
}

// Analyze counts raw frontmatter tags across docs. Usage is ordered by file
// count, most used first.
func (n *Normalizer) Analyze(docs []*models.Document) *Analysis {
	files := make(map[string]int)
	var order []string
	for _, d := range docs {
		for _, t := range d.Tags {
			if _, ok := files[t]; !ok {
				order = append(order, t)
			}
			files[t]++
		}
	}

	a := &Analysis{}
	for _, t := range order {
		a.Usage = append(a.Usage, TagUsage{Tag: t, Files: files[t], Normalized: n.Normalize(t)})
	}
	slices.SortStableFunc(a.Usage, func(x, y TagUsage) int { return cmp.Compare(y.Files, x.Files) })

	groups := make(map[string]*Consolidation)
	var groupOrder []string
	for _, u := range a.Usage {
		if u.Normalized == u.Tag {
			continue
		}
		g, ok := groups[u.Normalized]
		if !ok {
			g = &Consolidation{Tag: u.Normalized}
			groups[u.Normalized] = g
			groupOrder = append(groupOrder, u.Normalized)
		}
		g.Sources = append(g.Sources, u)
		g.Files += u.Files
	}
	for _, tag := range groupOrder {
		if g := groups[tag]; len(g.Sources) > 1 {
			a.Consolidations = append(a.Consolidations, *g)
		}
	}
	return a
}

// RenderReport formats a as the "Tag Standardization Report" Markdown.
func RenderReport(a *Analysis, vaultPath string) string {
	var b strings.Builder
	b.WriteString("# Tag Standardization Report\n")
	fmt.Fprintf(&b, "Generated for vault: %s\n", vaultPath)
	fmt.Fprintf(&b, "Total unique tags: %d\n\n", len(a.Usage))

	b.WriteString("## Current Tags by Frequency\n")
	for _, u := range a.Usage {
		if u.Normalized != u.Tag {
			fmt.Fprintf(&b, "- `%s` (%d files) → `%s`\n", u.Tag, u.Files, u.Normalized)
		} else {
			fmt.Fprintf(&b, "- `%s` (%d files)\n", u.Tag, u.Files)
		}
	}
	b.WriteString("\n## Suggested Consolidations\n")
	for _, c := range a.Consolidations {
		fmt.Fprintf(&b, "### %s\nTotal files: %d\n", c.Tag, c.Files)
		for _, s := range c.Sources {
			fmt.Fprintf(&b, "- `%s` (%d files)\n", s.Tag, s.Files)
		}
		b.WriteString("\n")
	}
	return b.String()
}
