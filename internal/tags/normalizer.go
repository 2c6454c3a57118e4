// Package tags maps raw tag strings to canonical hierarchical tags and
// rewrites the tags of vault notes.
package tags

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
	"unicode"
)

var datePrefixRe = regexp.MustCompile(`^\d{4}/\d{2}`)

// Normalizer maps raw tags to canonical ones. It is immutable after New and
// safe for concurrent use.
type Normalizer struct {
	table      map[string]string
	categories map[string]struct{}
}

// Default returns a Normalizer over the built-in tables and categories.
func Default() (*Normalizer, error) {
	return New(DefaultCategories, DefaultLayers()...)
}

// New builds a Normalizer from synonym tables applied in order, later
// tables overriding earlier ones. Keys are matched in their default form
// (leading # removed, lowercase, spaces as hyphens). Chains such as
// a → b → c are collapsed so every key maps straight to its final target.
// A cycle, or a target that is not already canonical, is an error.
func New(categories []string, layers ...map[string]string) (*Normalizer, error) {
	n := &Normalizer{
		table:      make(map[string]string),
		categories: make(map[string]struct{}, len(categories)),
	}
	for _, c := range categories {
		n.categories[strings.ToLower(strings.TrimSpace(c))] = struct{}{}
	}

	for i, layer := range layers {
		seen := make(map[string]string, len(layer))
		for _, raw := range slices.Sorted(maps.Keys(layer)) {
			key := defaultForm(strip(raw))
			target := layer[raw]
			if prev, ok := seen[key]; ok && prev != target {
				return nil, fmt.Errorf("tags: table %d: %q maps to both %q and %q", i, key, prev, target)
			}
			seen[key] = target
			n.table[key] = target
		}
	}

	resolved := make(map[string]string, len(n.table))
	for key := range n.table {
		target, err := n.resolve(key)
		if err != nil {
			return nil, err
		}
		if fb := n.fallback(strip(target)); target == "" || fb != target {
			return nil, fmt.Errorf("tags: target %q of %q is not canonical (would become %q)", target, key, fb)
		}
		resolved[key] = target
	}
	n.table = resolved
	return n, nil
}

func (n *Normalizer) resolve(key string) (string, error) {
	visited := map[string]struct{}{key: {}}
	cur := n.table[key]
	for {
		next, ok := n.table[cur]
		if !ok || next == cur {
			return cur, nil
		}
		if _, loop := visited[cur]; loop {
			return "", fmt.Errorf("tags: mapping cycle through %q", cur)
		}
		visited[cur] = struct{}{}
		cur = next
	}
}

// Normalize returns the canonical form of raw. Normalize(Normalize(t)) ==
// Normalize(t) for every t.
func (n *Normalizer) Normalize(raw string) string {
	tag := strip(raw)
	if tag == "" {
		return ""
	}
	if v, ok := n.table[defaultForm(tag)]; ok {
		return v
	}
	out := n.fallback(tag)
	if v, ok := n.table[out]; ok {
		return v
	}
	return out
}

// NormalizeList normalizes every tag, drops empties and duplicates, and
// keeps first-seen order.
func (n *Normalizer) NormalizeList(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, t := range raw {
		c := n.Normalize(t)
		if c == "" {
			continue
		}
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// IsCategory reports whether segment is a known top-level category.
func (n *Normalizer) IsCategory(segment string) bool {
	_, ok := n.categories[strings.ToLower(strings.TrimSpace(segment))]
	return ok
}

// Categories returns the known top-level categories, sorted.
func (n *Normalizer) Categories() []string {
	return slices.Sorted(maps.Keys(n.categories))
}

// fallback applies the rules used for tags missing from the table.
func (n *Normalizer) fallback(tag string) string {
	if datePrefixRe.MatchString(tag) {
		return "daily/" + defaultForm(tag)
	}
	if first, _, ok := strings.Cut(tag, "/"); ok && n.IsCategory(first) {
		parts := strings.Split(tag, "/")
		for i, p := range parts {
			parts[i] = defaultForm(strings.TrimSpace(p))
		}
		return strings.Join(parts, "/")
	}
	return defaultForm(tag)
}

// strip removes surrounding whitespace and leading # characters.
func strip(raw string) string {
	return strings.TrimSpace(strings.TrimLeftFunc(raw, func(r rune) bool {
		return r == '#' || unicode.IsSpace(r)
	}))
}

func defaultForm(tag string) string {
	return strings.ReplaceAll(strings.ToLower(tag), " ", "-")
}
