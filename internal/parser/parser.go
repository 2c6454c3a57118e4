// Package parser builds the document model from raw Markdown: frontmatter,
// title, wikilink references, and tags.
package parser

import (
	"path"
	"regexp"
	"strings"

	"github.com/starford/vaultkit/internal/checksum"
	"github.com/starford/vaultkit/internal/frontmatter"
	"github.com/starford/vaultkit/internal/models"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
	headingRe  = regexp.MustCompile(`(?m)^#[ \t]+(.+)$`)
)

// Parse builds a Document for the note at path (vault-relative). A malformed
// metadata block leaves Metadata nil and the full text as Body.
func Parse(p string, data []byte) *models.Document {
	meta, body := frontmatter.Parse(data)
	text := string(data)

	doc := &models.Document{
		Path:       p,
		Title:      deriveTitle(p, body),
		Body:       body,
		WordCount:  len(strings.Fields(body)),
		Checksum:   checksum.Sum(data),
		Metadata:   meta,
		InlineTags: extractInlineTags(body),
	}
	if meta != nil {
		doc.Tags = meta.Strings("tags")
		doc.Related = meta.Strings("related")
		if v, ok := meta.Get("created"); ok {
			doc.Created, _ = v.Time()
		}
		if v, ok := meta.Get("modified"); ok {
			doc.Modified, _ = v.Time()
		}
	}
	doc.References = extractReferences(text, doc.Related)
	return doc
}

// Stem returns the file name of p without directory and .md extension.
func Stem(p string) string {
	return strings.TrimSuffix(path.Base(p), ".md")
}

// Target strips alias, heading anchor and trailing comment from a reference
// such as "Note#Section|alias" or "[[Note]] # Previous day".
func Target(ref string) string {
	if m := wikilinkRe.FindStringSubmatch(ref); m != nil {
		ref = m[1]
	} else if i := strings.Index(ref, " #"); i >= 0 {
		ref = ref[:i]
	}
	if i := strings.Index(ref, "|"); i >= 0 {
		ref = ref[:i]
	}
	if i := strings.Index(ref, "#"); i >= 0 {
		ref = ref[:i]
	}
	return strings.TrimSpace(ref)
}

// extractReferences returns deduplicated reference targets from wikilinks
// anywhere in text, followed by related entries.
func extractReferences(text string, related []string) []string {
	matches := wikilinkRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]struct{}, len(matches)+len(related))
	var out []string
	add := func(raw string) {
		target := Target(raw)
		if target == "" {
			return
		}
		if _, ok := seen[target]; ok {
			return
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	for _, m := range matches {
		add(m[1])
	}
	for _, r := range related {
		add(r)
	}
	return out
}

func extractInlineTags(body string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		t := m[1]
		if _, dup := seen[t]; !dup {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

// deriveTitle returns the first H1 heading of the body, otherwise the file
// stem.
func deriveTitle(p, body string) string {
	if m := headingRe.FindStringSubmatch(body); m != nil {
		if t := strings.TrimSpace(m[1]); t != "" {
			return t
		}
	}
	return Stem(p)
}
