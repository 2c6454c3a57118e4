// Package links derives candidate connections between notes from shared
// vocabulary terms or shared title keywords, and finds orphaned notes.
package links

import (
	"cmp"
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/starford/vaultkit/internal/entity"
	"github.com/starford/vaultkit/internal/models"
	"github.com/starford/vaultkit/internal/parser"
)

// Suggestion reasons.
const (
	ReasonEntity  = "entity_mention"
	ReasonKeyword = "keyword_overlap"
)

const (
	minEntityDocs     = 2
	minKeywordWords   = 100
	minCommonKeywords = 2
	entityDivisor     = 10.0
	keywordDivisor    = 5.0
)

var titleWordRe = regexp.MustCompile(`\b\w{4,}\b`)

// Suggestion is an undirected candidate link between two notes.
// Confidence is a ranking weight only; entity suggestions can exceed 1.
type Suggestion struct {
	A          string   `json:"file1"`
	B          string   `json:"file2"`
	TitleA     string   `json:"title1"`
	TitleB     string   `json:"title2"`
	Reason     string   `json:"type"`
	Confidence float64  `json:"confidence"`
	Evidence   []string `json:"evidence"`
}

// Orphan is a note with no outgoing and no incoming references.
type Orphan struct {
	Path      string `json:"file"`
	Title     string `json:"title"`
	WordCount int    `json:"word_count"`
}

// refSet is the lowercase reference set of one note, including the base
// name of path-like references.
type refSet map[string]struct{}

func newRefSet(d *models.Document) refSet {
	s := make(refSet, len(d.References)*2)
	for _, r := range d.References {
		r = strings.ToLower(r)
		s[r] = struct{}{}
		s[strings.TrimSuffix(r, ".md")] = struct{}{}
		s[strings.TrimSuffix(path.Base(r), ".md")] = struct{}{}
	}
	return s
}

// names returns the lowercase names other notes may use to refer to d.
func names(d *models.Document) []string {
	stem := strings.ToLower(parser.Stem(d.Path))
	title := strings.ToLower(d.Title)
	full := strings.ToLower(strings.TrimSuffix(d.Path, ".md"))
	return []string{title, stem, full}
}

func (s refSet) mentions(d *models.Document) bool {
	for _, n := range names(d) {
		if _, ok := s[n]; ok {
			return true
		}
	}
	return false
}

// graph indexes a corpus for the already-linked check.
type graph struct {
	docs map[string]*models.Document
	refs map[string]refSet
}

func newGraph(docs []*models.Document) *graph {
	g := &graph{docs: make(map[string]*models.Document, len(docs)), refs: make(map[string]refSet, len(docs))}
	for _, d := range docs {
		g.docs[d.Path] = d
		g.refs[d.Path] = newRefSet(d)
	}
	return g
}

// linked reports whether either note already references the other.
func (g *graph) linked(a, b *models.Document) bool {
	return g.refs[a.Path].mentions(b) || g.refs[b.Path].mentions(a)
}

// EntitySuggestions pairs up every two notes that mention the same term,
// unless they already reference each other. Confidence is the number of
// notes mentioning the term divided by 10.
func EntitySuggestions(docs []*models.Document, mentions entity.Mentions) []Suggestion {
	g := newGraph(docs)
	var out []Suggestion
	for _, term := range mentions.Terms() {
		paths := mentions[term]
		if len(paths) < minEntityDocs {
			continue
		}
		conf := float64(len(paths)) / entityDivisor
		for i := 0; i < len(paths); i++ {
			for j := i + 1; j < len(paths); j++ {
				a, b := g.docs[paths[i]], g.docs[paths[j]]
				if a == nil || b == nil || g.linked(a, b) {
					continue
				}
				out = append(out, Suggestion{
					A: a.Path, B: b.Path, TitleA: a.Title, TitleB: b.Title,
					Reason: ReasonEntity, Confidence: conf, Evidence: []string{term},
				})
			}
		}
	}
	return out
}

// KeywordSuggestions pairs notes of at least 100 words whose titles share
// two or more words of four letters or more. Confidence is the shared word
// count divided by 5.
func KeywordSuggestions(docs []*models.Document) []Suggestion {
	g := newGraph(docs)
	type candidate struct {
		doc   *models.Document
		words map[string]struct{}
	}
	var cands []candidate
	for _, d := range docs {
		if d.WordCount < minKeywordWords {
			continue
		}
		cands = append(cands, candidate{doc: d, words: titleWords(d.Title)})
	}

	var out []Suggestion
	for i := 0; i < len(cands); i++ {
		for j := i + 1; j < len(cands); j++ {
			a, b := cands[i], cands[j]
			var common []string
			for w := range a.words {
				if _, ok := b.words[w]; ok {
					common = append(common, w)
				}
			}
			if len(common) < minCommonKeywords || g.linked(a.doc, b.doc) {
				continue
			}
			slices.Sort(common)
			out = append(out, Suggestion{
				A: a.doc.Path, B: b.doc.Path, TitleA: a.doc.Title, TitleB: b.doc.Title,
				Reason: ReasonKeyword, Confidence: float64(len(common)) / keywordDivisor, Evidence: common,
			})
		}
	}
	return out
}

func titleWords(title string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range titleWordRe.FindAllString(strings.ToLower(title), -1) {
		out[w] = struct{}{}
	}
	return out
}

// Orphans returns the notes with no references that no other note
// references, in corpus order.
func Orphans(docs []*models.Document) []Orphan {
	g := newGraph(docs)
	var out []Orphan
	for _, d := range docs {
		if len(d.References) > 0 {
			continue
		}
		referenced := false
		for _, o := range docs {
			if o.Path != d.Path && g.refs[o.Path].mentions(d) {
				referenced = true
				break
			}
		}
		if !referenced {
			out = append(out, Orphan{Path: d.Path, Title: d.Title, WordCount: d.WordCount})
		}
	}
	return out
}

// ByConfidence sorts suggestions by descending confidence, keeping the
// original order among equals.
func ByConfidence(s []Suggestion) []Suggestion {
	out := slices.Clone(s)
	slices.SortStableFunc(out, func(a, b Suggestion) int { return cmp.Compare(b.Confidence, a.Confidence) })
	return out
}
