// Package daily links daily notes to their neighbours in time and to the
// topic hubs their content touches.
package daily

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
	"github.com/starford/vaultkit/internal/parser"
	"github.com/starford/vaultkit/internal/storage"
)

const (
	maxContentLinks = 10
	reportExamples  = 5
	recentWindow    = 30 * 24 * time.Hour
)

var (
	dateRe     = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)
	wikilinkRe = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
)

// DefaultFolders are searched (recursively) for daily notes.
var DefaultFolders = []string{"Daily Notes", "Daily Email", "Journal"}

// DefaultPatterns detect the topics a daily note touches.
var DefaultPatterns = map[string]string{
	"project":   `project|idea|experiment|build|develop`,
	"meeting":   `meeting|call|discussion|client|consultation`,
	"technical": `mcp|langchain|graphrag|\bai\b|\bml\b|model|agent|tool`,
	"client":    `client|consulting|business`,
	"personal":  `family|personal|reflection|stoic|goal`,
	"research":  `research|paper|study|article|documentation`,
	"community": `meetup|community|conference`,
}

// DefaultTopicDirs are the hub directories linked for each topic.
var DefaultTopicDirs = map[string][]string{
	"project":   {"Projects", "AI Development"},
	"meeting":   {"Meetings"},
	"technical": {"AI Development"},
	"client":    {"Clients"},
	"research":  {"Research", "Clippings"},
	"community": {"Community"},
}

// Options configures a Connector.
type Options struct {
	Folders   []string
	Patterns  map[string]string
	TopicDirs map[string][]string
}

// Result reports a connection pass.
type Result struct {
	models.Summary
	Connections int `json:"connections"`
	SameWeek    int `json:"same_week"`
	// Topics maps a topic to the stems of the notes that touch it.
	Topics map[string][]string `json:"topics"`
}

type topicPattern struct {
	name string
	re   *regexp.Regexp
}

// Connector rewrites the related key of daily notes.
type Connector struct {
	store     storage.Provider
	folders   []string
	patterns  []topicPattern
	topicDirs map[string][]string
	logger    *slog.Logger
}

// NewConnector compiles the topic patterns, case-insensitively.
func NewConnector(store storage.Provider, opts Options, logger *slog.Logger) (*Connector, error) {
	if opts.Folders == nil {
		opts.Folders = DefaultFolders
	}
	if opts.Patterns == nil {
		opts.Patterns = DefaultPatterns
	}
	if opts.TopicDirs == nil {
		opts.TopicDirs = DefaultTopicDirs
	}
	c := &Connector{store: store, folders: opts.Folders, topicDirs: opts.TopicDirs, logger: logger}
	names := make([]string, 0, len(opts.Patterns))
	for n := range opts.Patterns {
		names = append(names, n)
	}
	slices.Sort(names)
	for _, n := range names {
		re, err := regexp.Compile("(?i)" + opts.Patterns[n])
		if err != nil {
			return nil, fmt.Errorf("daily: pattern %q: %w", n, err)
		}
		c.patterns = append(c.patterns, topicPattern{name: n, re: re})
	}
	return c, nil
}

// Find returns the daily notes: notes under the configured folders whose
// file name starts with a YYYY-MM-DD date. Missing folders are ignored.
func (c *Connector) Find() []string {
	var out []string
	for _, f := range c.folders {
		metas, err := c.store.List(f)
		if err != nil {
			c.logger.Debug("daily: folder skipped", slog.String("folder", f), slog.String("error", err.Error()))
			continue
		}
		for _, m := range metas {
			if dateRe.MatchString(parser.Stem(m.Path)) {
				out = append(out, m.Path)
			}
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func noteDate(p string) (time.Time, bool) {
	m := dateRe.FindStringSubmatch(parser.Stem(p))
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(frontmatter.DateLayout, m[1])
	return t, err == nil
}

// Run connects every daily note. With dryRun set nothing is written.
func (c *Connector) Run(dryRun bool) (*Result, error) {
	notes := c.Find()
	res := &Result{Topics: make(map[string][]string)}
	for _, p := range notes {
		res.Processed++
		added, err := c.process(p, notes, res, dryRun)
		switch {
		case errors.Is(err, apperr.ErrMalformedFrontmatter):
			c.logger.Warn("daily: malformed frontmatter", slog.String("path", p))
			res.Skipped++
		case err != nil:
			c.logger.Warn("daily: process failed", slog.String("path", p), slog.String("error", err.Error()))
			res.Errored++
		case added > 0:
			res.Updated++
			res.Connections += added
		}
	}
	return res, nil
}

func (c *Connector) process(p string, notes []string, res *Result, dryRun bool) (int, error) {
	data, err := c.store.Read(p)
	if err != nil {
		return 0, err
	}
	meta, body, err := frontmatter.ParseStrict(data)
	if err != nil {
		return 0, err
	}
	if meta == nil {
		meta = frontmatter.New()
	}

	counts := c.topics(body)
	for _, tp := range c.patterns {
		if counts[tp.name] > 0 {
			res.Topics[tp.name] = append(res.Topics[tp.name], parser.Stem(p))
		}
	}

	prev, next, week := temporal(p, notes)
	res.SameWeek += week

	var fresh []string
	if prev != "" {
		fresh = append(fresh, link(prev, "Previous day"))
	}
	if next != "" {
		fresh = append(fresh, link(next, "Next day"))
	}
	fresh = append(fresh, c.contentLinks(p, body, counts)...)
	if len(fresh) == 0 {
		return 0, nil
	}

	var existing []string
	if v, ok := meta.Get("related"); ok && v.IsList() {
		existing = v.Items()
	}
	merged := slices.Clone(existing)
	added := 0
	for _, f := range fresh {
		if !slices.Contains(merged, f) {
			merged = append(merged, f)
			added++
		}
	}
	if added == 0 {
		return 0, nil
	}
	if dryRun {
		return added, nil
	}

	meta.Set("related", frontmatter.List(merged...))
	out, err := frontmatter.Serialize(meta, body)
	if err != nil {
		return 0, err
	}
	if err := c.store.Write(p, out); err != nil {
		return 0, err
	}
	c.logger.Info("daily: connected", slog.String("path", p), slog.Int("links", added))
	return added, nil
}

func (c *Connector) topics(body string) map[string]int {
	out := make(map[string]int, len(c.patterns))
	for _, tp := range c.patterns {
		out[tp.name] = len(tp.re.FindAllStringIndex(body, -1))
	}
	return out
}

// contentLinks returns hub MOC links for the topics in counts, strongest
// topic first, plus wikilinks in body that point into those hubs.
func (c *Connector) contentLinks(self, body string, counts map[string]int) []string {
	tc := cases.Title(language.English)
	order := make([]string, 0, len(c.patterns))
	for _, tp := range c.patterns {
		if counts[tp.name] > 0 {
			order = append(order, tp.name)
		}
	}
	slices.SortStableFunc(order, func(a, b string) int { return cmp.Compare(counts[b], counts[a]) })

	var mentions []string
	for _, m := range wikilinkRe.FindAllStringSubmatch(body, -1) {
		mentions = append(mentions, parser.Target(m[1]))
	}

	var out []string
	for _, topic := range order {
		for _, dir := range c.topicDirs[topic] {
			if !c.store.Exists(dir) {
				continue
			}
			moc := path.Join(dir, "MOC - "+path.Base(dir)+".md")
			if c.store.Exists(moc) {
				out = append(out, link(moc, tc.String(topic+" reference")))
			}
			for _, m := range mentions {
				target := m + ".md"
				if strings.Contains(m, dir) && target != self && c.store.Exists(target) {
					out = append(out, link(target, "Direct Mention"))
				}
			}
		}
	}
	out = unique(out)
	if len(out) > maxContentLinks {
		out = out[:maxContentLinks]
	}
	return out
}

// temporal finds the notes dated the day before and after p, and counts
// the other notes in the same Monday-to-Sunday week.
func temporal(p string, notes []string) (prev, next string, sameWeek int) {
	day, ok := noteDate(p)
	if !ok {
		return "", "", 0
	}
	before := day.AddDate(0, 0, -1).Format(frontmatter.DateLayout)
	after := day.AddDate(0, 0, 1).Format(frontmatter.DateLayout)
	offset := (int(day.Weekday()) + 6) % 7
	weekStart := day.AddDate(0, 0, -offset)
	weekEnd := weekStart.AddDate(0, 0, 6)

	for _, n := range notes {
		stem := parser.Stem(n)
		if prev == "" && strings.Contains(stem, before) {
			prev = n
		}
		if next == "" && strings.Contains(stem, after) {
			next = n
		}
		if d, ok := noteDate(n); ok && n != p && !d.Before(weekStart) && !d.After(weekEnd) {
			sameWeek++
		}
	}
	return prev, next, sameWeek
}

func unique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func link(p, comment string) string {
	return "[[" + strings.TrimSuffix(p, ".md") + "]] # " + comment
}

// RenderReport formats res as the "Daily Notes Connectivity Report".
func RenderReport(res *Result, now time.Time) string {
	tc := cases.Title(language.English)
	var b strings.Builder
	b.WriteString("# Daily Notes Connectivity Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", now.Format("2006-01-02 15:04"))
	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Total daily notes processed: %d\n", res.Processed)
	fmt.Fprintf(&b, "- Total connections created: %d\n", res.Connections)
	fmt.Fprintf(&b, "- Average connections per note: %.1f\n", float64(res.Connections)/float64(max(res.Processed, 1)))
	fmt.Fprintf(&b, "- Same-week note pairs: %d\n\n", res.SameWeek)

	b.WriteString("## Connection Patterns Discovered\n\n")
	topics := make([]string, 0, len(res.Topics))
	for t := range res.Topics {
		topics = append(topics, t)
	}
	slices.Sort(topics)
	for _, t := range topics {
		stems := slices.Sorted(slices.Values(res.Topics[t]))
		fmt.Fprintf(&b, "### %s Topics\nFound in %d daily notes:\n", tc.String(t), len(stems))
		for _, s := range stems[max(0, len(stems)-reportExamples):] {
			fmt.Fprintf(&b, "- [[%s]]\n", s)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Themes Across Time Periods\n\n### Recent Trends (Last 30 days)\n")
	cutoff := now.Add(-recentWindow)
	recent := make(map[string]int)
	for _, t := range topics {
		for _, s := range res.Topics[t] {
			if d, ok := noteDate(s); ok && !d.Before(cutoff) {
				recent[t]++
			}
		}
	}
	recentTopics := slices.Clone(topics)
	slices.SortStableFunc(recentTopics, func(a, b string) int { return cmp.Compare(recent[b], recent[a]) })
	for _, t := range recentTopics {
		if recent[t] > 0 {
			fmt.Fprintf(&b, "- **%s**: %d occurrences\n", tc.String(t), recent[t])
		}
	}

	b.WriteString("\n## Recommendations\n\n")
	b.WriteString("1. Consider creating weekly/monthly summary notes to consolidate themes\n")
	b.WriteString("2. Review orphaned daily notes that lack connections\n")
	b.WriteString("3. Add more content to empty daily notes for better connectivity\n")
	return b.String()
}
