package links

import (
	"strings"
	"testing"

	"github.com/starford/vaultkit/internal/entity"
	"github.com/starford/vaultkit/internal/models"
	"github.com/starford/vaultkit/internal/parser"
)

func doc(path, content string) *models.Document {
	return parser.Parse(path, []byte(content))
}

func words(n int) string {
	return strings.Repeat("word ", n)
}

func TestEntitySuggestions_SingleSharedTerm(t *testing.T) {
	docs := []*models.Document{
		doc("a.md", "# Alpha\nWe use langchain here.\n"),
		doc("b.md", "# Beta\nAnother langchain note.\n"),
	}
	got := EntitySuggestions(docs, entity.NewScanner(entity.DefaultVocabulary()).Scan(docs))
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1: %+v", len(got), got)
	}
	s := got[0]
	if s.A != "a.md" || s.B != "b.md" || s.Reason != ReasonEntity {
		t.Errorf("suggestion = %+v", s)
	}
	if len(s.Evidence) != 1 || s.Evidence[0] != "langchain" {
		t.Errorf("evidence = %v", s.Evidence)
	}
	if s.Confidence != 0.2 {
		t.Errorf("confidence = %v, want 0.2", s.Confidence)
	}
}

func TestEntitySuggestions_AlreadyLinked(t *testing.T) {
	docs := []*models.Document{
		doc("x/a.md", "# Alpha\nlangchain, see [[Beta]].\n"),
		doc("b.md", "# Beta\nlangchain too.\n"),
		doc("c.md", "---\nrelated:\n  - \"[[x/a]] # see\"\n---\n# Gamma\nlangchain again.\n"),
	}
	got := EntitySuggestions(docs, entity.NewScanner(entity.DefaultVocabulary()).Scan(docs))
	if len(got) != 1 || got[0].A != "b.md" || got[0].B != "c.md" {
		t.Fatalf("got %+v, want only b.md-c.md", got)
	}
	if got[0].Confidence != 0.3 {
		t.Errorf("confidence = %v", got[0].Confidence)
	}
}

func TestEntitySuggestions_UnclampedConfidence(t *testing.T) {
	var docs []*models.Document
	for _, n := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		docs = append(docs, doc(n+".md", "# "+n+"\nollama\n"))
	}
	got := EntitySuggestions(docs, entity.NewScanner(entity.DefaultVocabulary()).Scan(docs))
	if len(got) != 66 {
		t.Fatalf("len = %d, want 66", len(got))
	}
	if got[0].Confidence <= 1 {
		t.Errorf("confidence = %v, want > 1", got[0].Confidence)
	}
}

func TestKeywordSuggestions(t *testing.T) {
	docs := []*models.Document{
		doc("a.md", "# Building Agent Workflows\n"+words(120)),
		doc("b.md", "# Agent Workflows in Practice\n"+words(120)),
		doc("c.md", "# Agent Workflows short\n"+words(10)),
		doc("d.md", "# Unrelated Title Entirely\n"+words(120)),
	}
	got := KeywordSuggestions(docs)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1: %+v", len(got), got)
	}
	s := got[0]
	if s.A != "a.md" || s.B != "b.md" || s.Reason != ReasonKeyword {
		t.Errorf("suggestion = %+v", s)
	}
	if strings.Join(s.Evidence, ",") != "agent,workflows" {
		t.Errorf("evidence = %v", s.Evidence)
	}
	if s.Confidence != 0.4 {
		t.Errorf("confidence = %v, want 0.4", s.Confidence)
	}
}

func TestKeywordSuggestions_CountsBodyWordsOnly(t *testing.T) {
	tagBlock := "---\ntags:\n" + strings.Repeat("  - topic\n", 20) + "---\n"
	docs := []*models.Document{
		doc("a.md", tagBlock+"# Agent Workflows Alpha\n"+words(90)),
		doc("b.md", tagBlock+"# Agent Workflows Beta\n"+words(90)),
	}
	if docs[0].WordCount >= 100 {
		t.Fatalf("word count = %d, want body words only", docs[0].WordCount)
	}
	if got := KeywordSuggestions(docs); len(got) != 0 {
		t.Errorf("got %+v, want none below the word threshold", got)
	}
}

func TestOrphans(t *testing.T) {
	docs := []*models.Document{
		doc("lonely.md", "# Lonely\nno links\n"),
		doc("target.md", "# Target\nno links either\n"),
		doc("source.md", "# Source\nsee [[Target]]\n"),
	}
	got := Orphans(docs)
	if len(got) != 1 || got[0].Path != "lonely.md" {
		t.Errorf("orphans = %+v, want [lonely.md]", got)
	}
}

func TestOrphans_ReferencedByStem(t *testing.T) {
	docs := []*models.Document{
		doc("dir/My File.md", "# Different Heading\n"),
		doc("other.md", "# Other\n[[my file]]\n"),
	}
	if got := Orphans(docs); len(got) != 0 {
		t.Errorf("orphans = %+v, want none", got)
	}
}

func TestRenderReport(t *testing.T) {
	docs := []*models.Document{
		doc("a.md", "# Alpha\nmodel context protocol\n"),
		doc("b.md", "# Beta\nmodel context protocol\n"),
		doc("c.md", "# Gamma\n"),
	}
	a := Analyze(docs, entity.NewScanner(entity.DefaultVocabulary()))
	r := RenderReport(a, "/vault")
	for _, want := range []string{
		"# Link Suggestions Report",
		"Total notes analyzed: 3",
		"### Model Context Protocol",
		"- [[Alpha]] ↔ [[Beta]]",
		"## Orphaned Notes (No Links)",
	} {
		if !strings.Contains(r, want) {
			t.Errorf("report missing %q:\n%s", want, r)
		}
	}
	if a.Stats.OrphanedNotes != 3 {
		t.Errorf("orphans = %d, want 3", a.Stats.OrphanedNotes)
	}
}
