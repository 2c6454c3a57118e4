package moc

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/starford/vaultkit/internal/apperr"
	"github.com/starford/vaultkit/internal/frontmatter"
	"github.com/starford/vaultkit/internal/tags"
	"github.com/starford/vaultkit/internal/testutil"
)

func newGen(t *testing.T) (string, *Generator) {
	t.Helper()
	dir, store := testutil.TestVault(t)
	norm, err := tags.Default()
	if err != nil {
		t.Fatal(err)
	}
	g := NewGenerator(store, norm, "map-of-content", testutil.Logger())
	g.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return dir, g
}

func TestTopicsFromFilename(t *testing.T) {
	cases := map[string][]string{
		"2024-01-15_Agent_Memory.md": {"agent", "memory"},
		"MOC-Tools and the Stack.md": {"tools", "stack"},
		"AI-in-Practice.md":          {"practice"},
		"ab.md":                      nil,
	}
	for in, want := range cases {
		if got := TopicsFromFilename(in); !slices.Equal(got, want) {
			t.Errorf("TopicsFromFilename(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestGenerate(t *testing.T) {
	dir, g := newGen(t)
	testutil.WriteNote(t, dir, "AI Research/agent_memory.md", "x")
	testutil.WriteNote(t, dir, "AI Research/agent-tools.md", "x")
	testutil.WriteNote(t, dir, "AI Research/prompting.md", "x")
	testutil.WriteNote(t, dir, "AI Research/image.png", "x")
	testutil.WriteNote(t, dir, "AI Research/Papers/p.md", "x")

	out, err := g.Generate("AI Research", "AI Research", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	meta, body := frontmatter.Parse(out)
	if meta == nil {
		t.Fatalf("no frontmatter in %q", out)
	}
	if got := meta.Strings("tags"); !slices.Equal(got, []string{"moc", "ai-research"}) {
		t.Errorf("tags = %v", got)
	}
	if v, _ := meta.Get("created"); v.Text() != "2024-05-01" {
		t.Errorf("created = %q", v.Text())
	}
	for _, want := range []string{
		"# AI Research Map of Content",
		"This MOC organizes all content related to ai research.",
		"**Total Files**: 3 markdown files",
		"- [[MOC - Papers|Papers Overview]]",
		"### Agent\n- [[agent tools]]\n- [[agent memory]]\n",
		"### Other Files\n- [[prompting]]\n",
		"- **Agent** (2 files)",
		"## Next Steps",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q:\n%s", want, body)
		}
	}
}

func TestCreate_SkipsExisting(t *testing.T) {
	dir, g := newGen(t)
	testutil.WriteNote(t, dir, "Projects/a.md", "x")
	testutil.WriteNote(t, dir, "map-of-content/MOC - Projects.md", "hand written")

	path, err := g.Create("Projects", "", "")
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
	if path != "map-of-content/MOC - Projects.md" {
		t.Errorf("path = %q", path)
	}
	if got := testutil.ReadNote(t, dir, path); got != "hand written" {
		t.Errorf("existing MOC overwritten: %q", got)
	}
}

func TestCreate_Writes(t *testing.T) {
	dir, g := newGen(t)
	testutil.WriteNote(t, dir, "Projects/a.md", "x")
	path, err := g.Create("Projects", "My Projects", "Everything in flight.")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got := testutil.ReadNote(t, dir, path)
	if !strings.Contains(got, "Everything in flight.") || !strings.HasPrefix(got, "---\n") {
		t.Errorf("content = %q", got)
	}
}

func TestSuggestAndCreateAll(t *testing.T) {
	dir, g := newGen(t)
	for _, n := range []string{"a", "b", "c"} {
		testutil.WriteNote(t, dir, "Big/"+n+".md", "x")
		testutil.WriteNote(t, dir, "HasMOC/"+n+".md", "x")
		testutil.WriteNote(t, dir, "System_Files/"+n+".md", "x")
	}
	testutil.WriteNote(t, dir, "HasMOC/MOC - HasMOC.md", "x")
	testutil.WriteNote(t, dir, "Small/a.md", "x")

	s, err := g.Suggest()
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 1 || s[0].Directory != "Big" || s[0].FileCount != 3 {
		t.Fatalf("suggestions = %+v", s)
	}

	sum, err := g.CreateAll()
	if err != nil {
		t.Fatal(err)
	}
	if sum.Processed != 1 || sum.Updated != 1 {
		t.Errorf("summary = %+v", sum)
	}
	sum, _ = g.CreateAll()
	if sum.Skipped != 1 || sum.Updated != 0 {
		t.Errorf("second summary = %+v", sum)
	}
}
