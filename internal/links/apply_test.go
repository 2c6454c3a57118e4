package links

import (
	"strings"
	"testing"

	"github.com/starford/vaultkit/internal/testutil"
)

func TestAddLink_NewSection(t *testing.T) {
	out, ok := AddLink("# Note\nbody", "Other", "Related to mcp")
	if !ok {
		t.Fatal("expected link to be added")
	}
	want := "# Note\nbody\n\n## Related\n- [[Other]] - Related to mcp\n"
	if out != want {
		t.Errorf("out = %q, want %q", out, want)
	}
}

func TestAddLink_ExistingSection(t *testing.T) {
	in := "# Note\n\n## See Also\n- [[First]]\n\n## Footer\n"
	out, ok := AddLink(in, "Second", "")
	if !ok {
		t.Fatal("expected link to be added")
	}
	want := "# Note\n\n## See Also\n- [[Second]]\n- [[First]]\n\n## Footer\n"
	if out != want {
		t.Errorf("out = %q, want %q", out, want)
	}
}

func TestAddLink_AlreadyPresent(t *testing.T) {
	in := "text [[Other|alias]]\n"
	if out, ok := AddLink(in, "Other", "x"); ok || out != in {
		t.Errorf("AddLink changed content: %q", out)
	}
}

func TestApplier_Bidirectional(t *testing.T) {
	dir, store := testutil.TestVault(t)
	testutil.WriteNote(t, dir, "notes/a.md", "# Alpha\nlangchain\n")
	testutil.WriteNote(t, dir, "b.md", "# Beta\nlangchain\n## Related\n")
	testutil.WriteNote(t, dir, "c.md", "# Gamma\ngoogle\n")

	suggestions := []Suggestion{
		{A: "notes/a.md", B: "b.md", Reason: ReasonEntity, Confidence: 0.2, Evidence: []string{"langchain"}},
		{A: "b.md", B: "c.md", Reason: ReasonEntity, Confidence: 0.9, Evidence: []string{"dental"}},
	}
	res := NewApplier(store, testutil.Logger()).Apply(suggestions, ApplyOptions{Priority: DefaultPriorityEntities})
	if res.Processed != 1 || res.Updated != 1 || res.LinksAdded != 2 {
		t.Errorf("result = %+v", res)
	}
	if got := testutil.ReadNote(t, dir, "notes/a.md"); !strings.Contains(got, "## Related\n- [[b]] - Related to langchain\n") {
		t.Errorf("a.md = %q", got)
	}
	if got := testutil.ReadNote(t, dir, "b.md"); got != "# Beta\nlangchain\n## Related\n- [[a]] - Related to langchain\n" {
		t.Errorf("b.md = %q", got)
	}

	again := NewApplier(store, testutil.Logger()).Apply(suggestions[:1], ApplyOptions{})
	if again.Skipped != 1 || again.LinksAdded != 0 {
		t.Errorf("second apply = %+v", again)
	}
}

func TestApplier_DryRunAndLimit(t *testing.T) {
	dir, store := testutil.TestVault(t)
	testutil.WriteNote(t, dir, "a.md", "a\n")
	testutil.WriteNote(t, dir, "b.md", "b\n")
	testutil.WriteNote(t, dir, "c.md", "c\n")
	suggestions := []Suggestion{
		{A: "a.md", B: "b.md", Reason: ReasonKeyword, Confidence: 0.4, Evidence: []string{"agent", "workflows"}},
		{A: "a.md", B: "c.md", Reason: ReasonKeyword, Confidence: 0.6, Evidence: []string{"agent", "tools", "mcp"}},
	}
	res := NewApplier(store, testutil.Logger()).Apply(suggestions, ApplyOptions{Limit: 1, DryRun: true})
	if res.Processed != 1 || res.LinksAdded != 2 || res.ByEvidence["tools"] != 2 {
		t.Errorf("result = %+v", res)
	}
	if got := testutil.ReadNote(t, dir, "a.md"); got != "a\n" {
		t.Errorf("dry run wrote a.md: %q", got)
	}
}

func TestApplier_DryRunCountsPairOnce(t *testing.T) {
	dir, store := testutil.TestVault(t)
	testutil.WriteNote(t, dir, "a.md", "a\n")
	testutil.WriteNote(t, dir, "b.md", "b\n")
	suggestions := []Suggestion{
		{A: "a.md", B: "b.md", Reason: ReasonEntity, Confidence: 0.4, Evidence: []string{"langchain"}},
		{A: "a.md", B: "b.md", Reason: ReasonEntity, Confidence: 0.3, Evidence: []string{"rag"}},
	}
	dry := NewApplier(store, testutil.Logger()).Apply(suggestions, ApplyOptions{DryRun: true})
	applied := NewApplier(store, testutil.Logger()).Apply(suggestions, ApplyOptions{})
	if dry.LinksAdded != 2 || dry.Updated != 1 || dry.Skipped != 1 {
		t.Errorf("dry run = %+v", dry)
	}
	if applied.LinksAdded != dry.LinksAdded || applied.Updated != dry.Updated || applied.Skipped != dry.Skipped {
		t.Errorf("run = %+v, dry run = %+v", applied, dry)
	}
}

func TestApplier_MissingNoteIsErrored(t *testing.T) {
	dir, store := testutil.TestVault(t)
	testutil.WriteNote(t, dir, "a.md", "a\n")
	testutil.WriteNote(t, dir, "b.md", "b\n")
	testutil.WriteNote(t, dir, "c.md", "c\n")
	suggestions := []Suggestion{
		{A: "a.md", B: "gone.md", Reason: ReasonEntity, Confidence: 0.9, Evidence: []string{"rag"}},
		{A: "b.md", B: "c.md", Reason: ReasonEntity, Confidence: 0.2, Evidence: []string{"rag"}},
	}
	res := NewApplier(store, testutil.Logger()).Apply(suggestions, ApplyOptions{})
	if res.Errored != 1 || res.Updated != 2 {
		t.Errorf("result = %+v", res)
	}
	if got := testutil.ReadNote(t, dir, "c.md"); !strings.Contains(got, "[[b]]") {
		t.Errorf("c.md = %q", got)
	}
}

func TestAddLink_IgnoresHeadingInFrontmatter(t *testing.T) {
	in := "---\n# References kept here\ntags:\n  - ai\n---\n# Note\nbody\n"
	out, ok := AddLink(in, "Other", "")
	if !ok {
		t.Fatal("expected link to be added")
	}
	want := in + "\n## Related\n- [[Other]]\n"
	if out != want {
		t.Errorf("out = %q, want %q", out, want)
	}
}
