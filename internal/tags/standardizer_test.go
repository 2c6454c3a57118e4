package tags

import (
	"strings"
	"testing"

	"github.com/starford/vaultkit/internal/frontmatter"
	"github.com/starford/vaultkit/internal/testutil"
	"github.com/starford/vaultkit/internal/vault"
)

func TestStandardizer_Run(t *testing.T) {
	dir, store := testutil.TestVault(t)
	testutil.WriteNote(t, dir, "a.md", "---\ntitle: A\ntags:\n  - AI\n  - ai\n  - Business-Strategy\n---\n# A\n")
	testutil.WriteNote(t, dir, "b.md", "---\ntags:\n  - ai\n---\nbody\n")
	testutil.WriteNote(t, dir, "c.md", "no frontmatter\n")
	testutil.WriteNote(t, dir, "d.md", "---\ntags: [unclosed\n---\nbody\n")
	testutil.WriteNote(t, dir, "e.md", "---\ntags: LLM\n---\nbody\n")

	s := NewStandardizer(mustDefault(t), store, testutil.Logger())
	res, err := s.Run(false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Processed != 5 || res.Updated != 2 || res.Skipped != 2 || res.Errored != 0 {
		t.Errorf("summary = %+v", res.Summary)
	}
	if res.Counts["ai"] != 2 || res.Counts["business/strategy"] != 1 || res.Counts["ai/llm"] != 1 {
		t.Errorf("counts = %v", res.Counts)
	}

	m, body := frontmatter.Parse([]byte(testutil.ReadNote(t, dir, "a.md")))
	if got := m.Strings("tags"); strings.Join(got, ",") != "ai,business/strategy" {
		t.Errorf("a.md tags = %v", got)
	}
	if k := m.Keys(); k[0] != "title" {
		t.Errorf("key order lost: %v", k)
	}
	if body != "# A\n" {
		t.Errorf("body = %q", body)
	}
	if got := testutil.ReadNote(t, dir, "d.md"); got != "---\ntags: [unclosed\n---\nbody\n" {
		t.Errorf("malformed note was modified: %q", got)
	}

	again, err := s.Run(false)
	if err != nil {
		t.Fatal(err)
	}
	if again.Updated != 0 {
		t.Errorf("second run updated %d notes, want 0", again.Updated)
	}
}

func TestStandardizer_DryRun(t *testing.T) {
	dir, store := testutil.TestVault(t)
	orig := "---\ntags:\n  - LLM\n---\nbody\n"
	testutil.WriteNote(t, dir, "a.md", orig)

	res, err := NewStandardizer(mustDefault(t), store, testutil.Logger()).Run(true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Updated != 1 || len(res.Changed) != 1 {
		t.Errorf("res = %+v", res)
	}
	if got := testutil.ReadNote(t, dir, "a.md"); got != orig {
		t.Errorf("dry run wrote file: %q", got)
	}
}

func TestAnalyzeAndReport(t *testing.T) {
	dir, store := testutil.TestVault(t)
	testutil.WriteNote(t, dir, "a.md", "---\ntags: [LLM, research]\n---\n")
	testutil.WriteNote(t, dir, "b.md", "---\ntags: [llm, research]\n---\n")
	testutil.WriteNote(t, dir, "c.md", "---\ntags: [research]\n---\n")

	docs, _, err := vault.Load(store, "", testutil.Logger())
	if err != nil {
		t.Fatal(err)
	}
	a := mustDefault(t).Analyze(docs)
	if len(a.Usage) != 3 || a.Usage[0].Tag != "research" || a.Usage[0].Files != 3 {
		t.Errorf("usage = %+v", a.Usage)
	}
	if len(a.Consolidations) != 1 || a.Consolidations[0].Tag != "ai/llm" || a.Consolidations[0].Files != 2 {
		t.Errorf("consolidations = %+v", a.Consolidations)
	}
	report := RenderReport(a, dir)
	for _, want := range []string{"# Tag Standardization Report", "Total unique tags: 3", "- `LLM` (1 files) → `ai/llm`", "### ai/llm"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestStandardizer_UnreadableNoteIsErrored(t *testing.T) {
	dir, store := testutil.TestVault(t)
	testutil.WriteNote(t, dir, "a.md", "---\ntags: [LLM]\n---\nbody\n")
	testutil.UnreadableNote(t, dir, "broken.md")
	testutil.WriteNote(t, dir, "c.md", "---\ntags: [llm]\n---\nbody\n")

	res, err := NewStandardizer(mustDefault(t), store, testutil.Logger()).Run(false)
	if err != nil {
		t.Fatal(err)
	}
	if res.Processed != 3 || res.Errored != 1 || res.Updated != 2 {
		t.Errorf("summary = %+v", res.Summary)
	}
	for _, p := range []string{"a.md", "c.md"} {
		m, _ := frontmatter.Parse([]byte(testutil.ReadNote(t, dir, p)))
		if got := m.Strings("tags"); len(got) != 1 || got[0] != "ai/llm" {
			t.Errorf("%s tags = %v", p, got)
		}
	}
}
