package links

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/starford/vaultkit/internal/frontmatter"
	"github.com/starford/vaultkit/internal/models"
	"github.com/starford/vaultkit/internal/parser"
	"github.com/starford/vaultkit/internal/storage"
)

var sectionRe = regexp.MustCompile(`(?im)^#+[ \t]*(related|see also|links|references)\b.*$`)

// DefaultPriorityEntities are the terms whose entity suggestions are applied
// when no explicit set is configured.
var DefaultPriorityEntities = []string{
	"langchain", "langgraph", "llm", "rag", "embedding", "vector",
	"mcp", "model context protocol", "api integration", "function calling",
	"anthropic", "openai", "google", "claude", "gpt",
	"autonomous agent", "ai agent", "chain of thought", "prompt engineering",
	"retrieval augmented", "graphrag", "multimodal", "tool use",
}

// ApplyOptions controls which suggestions an Applier writes.
type ApplyOptions struct {
	// Limit caps how many suggestions are applied; 0 means no limit.
	Limit int
	// Priority restricts entity suggestions to these terms when non-empty.
	Priority []string
	DryRun   bool
}

// ApplyResult reports what an Applier wrote.
type ApplyResult struct {
	models.Summary
	LinksAdded int            `json:"links_added"`
	ByEvidence map[string]int `json:"by_evidence"`
}

// Applier writes accepted suggestions into notes as bidirectional links
// under a Related section.
type Applier struct {
	store  storage.Provider
	logger *slog.Logger
}

// NewApplier creates an Applier.
func NewApplier(store storage.Provider, logger *slog.Logger) *Applier {
	return &Applier{store: store, logger: logger}
}

// Apply adds a link in each direction for every selected suggestion, best
// first. Links that already exist are left alone.
func (ap *Applier) Apply(suggestions []Suggestion, opts ApplyOptions) *ApplyResult {
	priority := make(map[string]struct{}, len(opts.Priority))
	for _, p := range opts.Priority {
		priority[strings.ToLower(p)] = struct{}{}
	}
	res := &ApplyResult{ByEvidence: make(map[string]int)}
	// Links already added in this run, keyed by note and target. A dry run
	// never rewrites the files, so re-reading them cannot tell.
	done := make(map[[2]string]struct{})

	for _, s := range ByConfidence(suggestions) {
		if opts.Limit > 0 && res.Processed >= opts.Limit {
			break
		}
		if s.Reason == ReasonEntity && len(priority) > 0 {
			if _, ok := priority[s.Evidence[0]]; !ok {
				continue
			}
		}
		res.Processed++

		text := describe(s)
		added := 0
		for _, dir := range [][2]string{{s.A, s.B}, {s.B, s.A}} {
			key := [2]string{dir[0], parser.Stem(dir[1])}
			if _, seen := done[key]; seen {
				continue
			}
			ok, err := ap.addLink(key[0], key[1], text, opts.DryRun)
			if err != nil {
				ap.logger.Warn("links: apply failed", slog.String("path", dir[0]), slog.String("error", err.Error()))
				res.Errored++
				continue
			}
			if ok {
				done[key] = struct{}{}
				added++
			}
		}
		if added == 0 {
			res.Skipped++
			continue
		}
		res.Updated++
		res.LinksAdded += added
		for _, e := range s.Evidence {
			res.ByEvidence[e] += added
		}
		ap.logger.Info("links: connected", slog.String("a", s.A), slog.String("b", s.B), slog.Int("links", added))
	}
	return res
}

func describe(s Suggestion) string {
	if s.Reason == ReasonEntity {
		return "Related to " + s.Evidence[0]
	}
	return "Shares keywords: " + strings.Join(head(s.Evidence, 5), ", ")
}

func (ap *Applier) addLink(path, target, text string, dryRun bool) (bool, error) {
	data, err := ap.store.Read(path)
	if err != nil {
		return false, err
	}
	out, ok := AddLink(string(data), target, text)
	if !ok || dryRun {
		return ok, nil
	}
	if err := ap.store.Write(path, []byte(out)); err != nil {
		return false, fmt.Errorf("links: write %s: %w", path, err)
	}
	return true, nil
}

// AddLink inserts "- [[target]] - text" after the first Related, See also,
// Links or References heading of the body, or appends a new "## Related"
// section. It reports false and returns content unchanged when the link
// already exists.
func AddLink(content, target, text string) (string, bool) {
	if strings.Contains(content, "[["+target+"]]") || strings.Contains(content, "[["+target+"|") {
		return content, false
	}
	line := "- [[" + target + "]]"
	if text != "" {
		line += " - " + text
	}
	line += "\n"

	_, body := frontmatter.Parse([]byte(content))
	bodyStart := len(content) - len(body)
	if loc := sectionRe.FindStringIndex(body); loc != nil {
		pos := bodyStart + loc[1]
		if pos < len(content) {
			pos++ // past the heading's newline
		} else {
			line = "\n" + line
		}
		return content[:pos] + line + content[pos:], true
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n## Related\n" + line, true
}
