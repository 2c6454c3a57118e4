package metadata

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/starford/vaultkit/internal/frontmatter"
	"github.com/starford/vaultkit/internal/tags"
	"github.com/starford/vaultkit/internal/testutil"
)

func newAdder(t *testing.T) (string, *Adder) {
	t.Helper()
	dir, store := testutil.TestVault(t)
	norm, err := tags.Default()
	if err != nil {
		t.Fatal(err)
	}
	a := NewAdder(store, norm, testutil.Logger())
	a.now = func() time.Time { return time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC) }
	return dir, a
}

func TestType(t *testing.T) {
	_, a := newAdder(t)
	cases := map[string]string{
		"Daily Notes/2024-01-01.md":   "daily",
		"AI Articles/paper.md":        "research",
		"map-of-content/MOC - X.md":   "map-of-content",
		"Random/thing.md":             "note",
		"Client Work/meeting-2024.md": "client-work",
	}
	for in, want := range cases {
		if got := a.Type(in); got != want {
			t.Errorf("Type(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTags(t *testing.T) {
	_, a := newAdder(t)
	created := time.Date(2023, 11, 5, 0, 0, 0, 0, time.UTC)
	if got := a.Tags("AI Development/MCP Servers/x.md", created); !slices.Equal(got, []string{"ai/development", "mcp"}) {
		t.Errorf("tags = %v", got)
	}
	if got := a.Tags("Daily Notes/2023-11-05.md", created); !slices.Equal(got, []string{"daily", "daily/2023/11"}) {
		t.Errorf("tags = %v", got)
	}
	if got := a.Tags("top.md", created); len(got) != 0 {
		t.Errorf("tags = %v, want none", got)
	}
}

func TestRun(t *testing.T) {
	dir, a := newAdder(t)
	testutil.WriteNote(t, dir, "AI Courses/intro.md", "# Intro\ntext\n")
	testutil.WriteNote(t, dir, "has.md", "---\ntags: []\n---\nbody\n")
	testutil.WriteNote(t, dir, "broken.md", "\n---\nnot closed\n")

	sum, err := a.Run(false)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Processed != 3 || sum.Updated != 1 || sum.Skipped != 2 {
		t.Errorf("summary = %+v", sum)
	}
	got := testutil.ReadNote(t, dir, "AI Courses/intro.md")
	meta, body := frontmatter.Parse([]byte(got))
	if meta == nil {
		t.Fatalf("no frontmatter: %q", got)
	}
	if k := strings.Join(meta.Keys(), ","); k != "tags,type,created,modified,status,related,aliases" {
		t.Errorf("keys = %s", k)
	}
	if tg := meta.Strings("tags"); !slices.Equal(tg, []string{"learning/course"}) {
		t.Errorf("tags = %v", tg)
	}
	if v, _ := meta.Get("type"); v.Text() != "tutorial" {
		t.Errorf("type = %q", v.Text())
	}
	if v, _ := meta.Get("modified"); v.Text() != "2024-06-02" {
		t.Errorf("modified = %q", v.Text())
	}
	if body != "\n# Intro\ntext\n" {
		t.Errorf("body = %q", body)
	}

	again, _ := a.Run(false)
	if again.Updated != 0 || again.Skipped != 3 {
		t.Errorf("second run = %+v", again)
	}
}

func TestRun_DryRun(t *testing.T) {
	dir, a := newAdder(t)
	testutil.WriteNote(t, dir, "n.md", "plain\n")
	sum, err := a.Run(true)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Updated != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if got := testutil.ReadNote(t, dir, "n.md"); got != "plain\n" {
		t.Errorf("dry run wrote: %q", got)
	}
}

func TestRun_UnreadableNoteIsErrored(t *testing.T) {
	dir, a := newAdder(t)
	testutil.WriteNote(t, dir, "a.md", "plain\n")
	testutil.UnreadableNote(t, dir, "b.md")
	testutil.WriteNote(t, dir, "c.md", "plain too\n")

	sum, err := a.Run(false)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Processed != 3 || sum.Errored != 1 || sum.Updated != 2 {
		t.Errorf("summary = %+v", sum)
	}
	if !frontmatter.HasBlock([]byte(testutil.ReadNote(t, dir, "c.md"))) {
		t.Error("c.md was not updated after the failure")
	}
}
