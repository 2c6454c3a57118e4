// Package metadata adds a generated frontmatter block to notes that lack one.
package metadata

import (
	"bytes"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/vaultkit/internal/frontmatter"
	"github.com/starford/vaultkit/internal/models"
	"github.com/starford/vaultkit/internal/storage"
	"github.com/starford/vaultkit/internal/tags"
)

// Rule maps a lowercase substring to a value. Rules are tried in order and
// the first match wins.
type Rule struct {
	Match string
	Value string
}

// DefaultTypeRules derive the note type from its path.
var DefaultTypeRules = []Rule{
	{"moc", "map-of-content"},
	{"map of content", "map-of-content"},
	{"daily notes", "daily"},
	{"daily note", "daily"},
	{"research", "research"},
	{"articles", "research"},
	{"client", "client-work"},
	{"tutorial", "tutorial"},
	{"course", "tutorial"},
	{"idea", "idea"},
	{"meeting", "meeting"},
	{"email", "email"},
}

// DefaultDirTags derive tags from directory names.
var DefaultDirTags = []Rule{
	{"ai development", "ai/development"},
	{"ai articles", "ai/research"},
	{"ai courses", "learning/course"},
	{"ai ideas", "idea"},
	{"daily notes", "daily"},
	{"clippings", "clippings"},
	{"mcp", "mcp"},
	{"langchain", "langchain"},
	{"graphrag", "graphrag"},
}

// Adder prepends frontmatter to notes without a metadata block.
type Adder struct {
	store   storage.Provider
	norm    *tags.Normalizer
	types   []Rule
	dirTags []Rule
	logger  *slog.Logger
	now     func() time.Time
}

// NewAdder creates an Adder with the default path rules.
func NewAdder(store storage.Provider, norm *tags.Normalizer, logger *slog.Logger) *Adder {
	return &Adder{
		store:   store,
		norm:    norm,
		types:   DefaultTypeRules,
		dirTags: DefaultDirTags,
		logger:  logger,
		now:     time.Now,
	}
}

// Run processes every note. Notes that already open with a delimiter line
// are skipped, even when their block is malformed.
func (a *Adder) Run(dryRun bool) (models.Summary, error) {
	var sum models.Summary
	metas, err := a.store.List("")
	if err != nil {
		return sum, err
	}
	for _, m := range metas {
		sum.Processed++
		data, err := a.store.Read(m.Path)
		if err != nil {
			a.logger.Warn("metadata: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			sum.Errored++
			continue
		}
		if frontmatter.HasBlock(bytes.TrimLeft(data, " \t\r\n")) {
			sum.Skipped++
			continue
		}
		if dryRun {
			a.logger.Info("metadata: would update", slog.String("path", m.Path))
			sum.Updated++
			continue
		}
		out, err := a.build(m.Path, data)
		if err == nil {
			err = a.store.Write(m.Path, out)
		}
		if err != nil {
			a.logger.Warn("metadata: update failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			sum.Errored++
			continue
		}
		a.logger.Info("metadata: updated", slog.String("path", m.Path))
		sum.Updated++
	}
	return sum, nil
}

func (a *Adder) build(path string, data []byte) ([]byte, error) {
	created, err := a.store.ModTime(path)
	if err != nil {
		created = a.now()
	}
	meta := frontmatter.New()
	meta.Set("tags", frontmatter.List(a.Tags(path, created)...))
	meta.Set("type", frontmatter.String(a.Type(path)))
	meta.Set("created", frontmatter.Date(created))
	meta.Set("modified", frontmatter.Date(a.now()))
	meta.Set("status", frontmatter.String("active"))
	meta.Set("related", frontmatter.List())
	meta.Set("aliases", frontmatter.List())
	return frontmatter.Serialize(meta, "\n"+string(data))
}

// Type returns the note type derived from path.
func (a *Adder) Type(path string) string {
	lower := strings.ToLower(path)
	for _, r := range a.types {
		if strings.Contains(lower, r.Match) {
			return r.Value
		}
	}
	return "note"
}

// Tags returns the normalized tags derived from the directories of path.
// Daily notes also get a daily/YYYY/MM tag from created.
func (a *Adder) Tags(path string, created time.Time) []string {
	dirs := strings.Split(path, "/")
	dirs = dirs[:len(dirs)-1]

	var raw []string
	for _, d := range dirs {
		lower := strings.ToLower(d)
		for _, r := range a.dirTags {
			if strings.Contains(lower, r.Match) {
				raw = append(raw, r.Value)
				break
			}
		}
	}
	out := a.norm.NormalizeList(raw)
	for _, t := range out {
		if t == "daily" {
			out = a.norm.NormalizeList(append(out, "daily/"+created.Format("2006/01")))
			break
		}
	}
	return out
}
