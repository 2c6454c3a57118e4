// Package entity finds which notes mention a fixed vocabulary of domain terms.
package entity

import (
	"slices"
	"strings"

	"github.com/starford/vaultkit/internal/models"
)

// Vocabulary is an immutable set of terms grouped by category. Terms are
// matched lowercase.
type Vocabulary struct {
	categories []string
	terms      map[string][]string
	all        []string
}

// NewVocabulary builds a Vocabulary. Category order follows the sorted
// category names; term order within a category is kept. Duplicate terms are
// listed once, under the first category that names them.
func NewVocabulary(groups map[string][]string) *Vocabulary {
	v := &Vocabulary{terms: make(map[string][]string, len(groups))}
	for c := range groups {
		v.categories = append(v.categories, c)
	}
	slices.Sort(v.categories)

	seen := make(map[string]struct{})
	for _, c := range v.categories {
		for _, term := range groups[c] {
			term = strings.ToLower(strings.TrimSpace(term))
			if term == "" {
				continue
			}
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			v.terms[c] = append(v.terms[c], term)
			v.all = append(v.all, term)
		}
	}
	return v
}

// DefaultVocabulary returns the built-in technology, concept, company and
// people terms.
func DefaultVocabulary() *Vocabulary {
	return NewVocabulary(map[string][]string{
		"technologies": {
			"langchain", "langgraph", "mcp", "model context protocol",
			"graphrag", "openai", "anthropic", "claude", "gpt", "llm",
			"ollama", "huggingface", "github", "python", "javascript",
			"cloudflare", "supabase", "vector database", "embedding",
			"ai agent", "autonomous agent", "rag", "retrieval augmented",
		},
		"concepts": {
			"machine learning", "deep learning", "neural network",
			"transformer", "attention mechanism", "fine-tuning",
			"prompt engineering", "chain of thought", "reasoning",
			"multimodal", "text generation", "code generation",
			"tool use", "function calling", "api integration",
		},
		"companies": {
			"google", "microsoft", "amazon", "meta", "apple",
			"nvidia", "intel", "amd", "tesla", "stripe",
			"y combinator", "techstars", "propel", "dental",
		},
		"people": {
			"andrew ng", "geoffrey hinton", "yann lecun", "ilya sutskever",
			"sam altman", "dario amodei", "demis hassabis", "jensen huang",
		},
	})
}

// Terms returns every term in category order.
func (v *Vocabulary) Terms() []string { return slices.Clone(v.all) }

// Categories returns the category names.
func (v *Vocabulary) Categories() []string { return slices.Clone(v.categories) }

// Category returns the terms of one category.
func (v *Vocabulary) Category(name string) []string { return slices.Clone(v.terms[name]) }

// Mentions maps a term to the paths of the notes that mention it, in corpus
// order.
type Mentions map[string][]string

// Scanner tests note bodies against a Vocabulary.
type Scanner struct {
	vocab *Vocabulary
}

// NewScanner creates a Scanner.
func NewScanner(vocab *Vocabulary) *Scanner {
	return &Scanner{vocab: vocab}
}

// Scan lowercases each body once and records every vocabulary term it
// contains. Terms with no mention are absent from the result.
func (s *Scanner) Scan(docs []*models.Document) Mentions {
	out := make(Mentions)
	for _, d := range docs {
		text := strings.ToLower(d.Body)
		for _, term := range s.vocab.all {
			if strings.Contains(text, term) {
				out[term] = append(out[term], d.Path)
			}
		}
	}
	return out
}

// Terms returns the mentioned terms sorted alphabetically.
func (m Mentions) Terms() []string {
	out := make([]string, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}
