package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/vaultkit/internal/entity"
	"github.com/starford/vaultkit/internal/index"
	"github.com/starford/vaultkit/internal/links"
	"github.com/starford/vaultkit/internal/models"
	"github.com/starford/vaultkit/internal/noteservice"
	"github.com/starford/vaultkit/internal/sse"
	"github.com/starford/vaultkit/internal/storage"
	"github.com/starford/vaultkit/internal/tags"
	"github.com/starford/vaultkit/internal/testutil"
)

type env struct {
	router   http.Handler
	svc      *noteservice.Service
	db       *index.DB
	vault    string
	store    *storage.FS
	manifest string
	agents   string
}

// testEnv sets up a temp vault, ledger, service, and router. An empty token
// disables auth.
func testEnv(t *testing.T, token string) *env {
	t.Helper()
	dir, store := testutil.TestVault(t)
	db := testutil.TestDB(t)
	norm, err := tags.Default()
	if err != nil {
		t.Fatal(err)
	}
	svc := noteservice.NewService(store, db, norm, entity.NewScanner(entity.DefaultVocabulary()), testutil.Logger())

	out := t.TempDir()
	e := &env{
		svc:      svc,
		db:       db,
		vault:    dir,
		store:    store,
		manifest: filepath.Join(out, "components.json"),
		agents:   filepath.Join(out, "api", "agents.json"),
	}
	broker := sse.NewBroker(time.Second)
	t.Cleanup(broker.Close)
	e.router = NewRouter(NewHandler(svc, e.manifest, e.agents), token != "", token, broker)
	return e
}

func (e *env) get(t *testing.T, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestGetNote(t *testing.T) {
	e := testEnv(t, "")
	testutil.WriteNote(t, e.vault, "ai/agents.md", "---\ntags: [ai/agents]\n---\n# Agents\nBody\n")

	w := e.get(t, "/notes/ai%2Fagents.md", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	n := decode[NoteDetail](t, w)
	if n.Path != "ai/agents.md" || n.Title != "Agents" || n.Backlinks == nil {
		t.Errorf("note = %+v", n)
	}

	if w := e.get(t, "/notes/ai/agents.md", ""); w.Code != http.StatusOK {
		t.Errorf("unencoded path = %d", w.Code)
	}
}

func TestGetNote_NotFound(t *testing.T) {
	e := testEnv(t, "")
	if w := e.get(t, "/notes/nope.md", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing note = %d, want 404", w.Code)
	}
}

func TestTags(t *testing.T) {
	e := testEnv(t, "")
	testutil.WriteNote(t, e.vault, "a.md", "---\ntags: [ai/llm, type/note]\n---\n# A\n")
	testutil.WriteNote(t, e.vault, "b.md", "---\ntags: [ai/llm]\n---\n# B\n")
	if _, _, err := index.Sync(e.db, e.store, testutil.Logger()); err != nil {
		t.Fatal(err)
	}

	resp := decode[TagsResponse](t, e.get(t, "/tags", ""))
	if len(resp.Tags) != 2 || resp.Tags[0].Tag != "ai/llm" || resp.Tags[0].Count != 2 {
		t.Errorf("tags = %+v", resp.Tags)
	}
}

func TestNormalizeTag(t *testing.T) {
	e := testEnv(t, "")
	resp := decode[NormalizeResponse](t, e.get(t, "/tags/normalize?tag=%23Business-Strategy", ""))
	if resp.Tag != "business/strategy" {
		t.Errorf("resp = %+v", resp)
	}
	if w := e.get(t, "/tags/normalize", ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing tag = %d, want 400", w.Code)
	}
}

func TestSuggestions(t *testing.T) {
	e := testEnv(t, "")
	now := time.Now()
	id, _ := e.db.RecordRun("links suggest", models.Summary{}, now, now)
	_ = e.svc.SaveSuggestions(id, []links.Suggestion{
		{A: "a.md", B: "b.md", Reason: links.ReasonEntity, Confidence: 0.3, Evidence: []string{"claude"}},
		{A: "a.md", B: "c.md", Reason: links.ReasonKeyword, Confidence: 0.4, Evidence: []string{"agent", "memory"}},
	})

	all := decode[SuggestionsResponse](t, e.get(t, "/suggestions", ""))
	if len(all.Suggestions) != 2 || all.Suggestions[0].B != "c.md" {
		t.Errorf("all = %+v", all)
	}
	ent := decode[SuggestionsResponse](t, e.get(t, "/suggestions?reason=entity_mention&limit=5", ""))
	if len(ent.Suggestions) != 1 || ent.Suggestions[0].Evidence[0] != "claude" {
		t.Errorf("entity = %+v", ent)
	}
	if w := e.get(t, "/suggestions?reason=bogus", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad reason = %d", w.Code)
	}
}

func TestOrphansAndRuns(t *testing.T) {
	e := testEnv(t, "")
	testutil.WriteNote(t, e.vault, "alone.md", "# Alone\n")
	now := time.Now()
	_, _ = e.db.RecordRun("metadata add", models.Summary{Processed: 4}, now, now)

	orphans := decode[OrphansResponse](t, e.get(t, "/orphans", ""))
	if len(orphans.Orphans) != 1 || orphans.Orphans[0].Path != "alone.md" {
		t.Errorf("orphans = %+v", orphans)
	}
	runs := decode[RunsResponse](t, e.get(t, "/runs?limit=10", ""))
	if len(runs.Runs) != 1 || runs.Runs[0].Processed != 4 {
		t.Errorf("runs = %+v", runs)
	}
}

func TestGeneratedFiles(t *testing.T) {
	e := testEnv(t, "")
	if w := e.get(t, "/components", ""); w.Code != http.StatusNotFound {
		t.Errorf("before build = %d, want 404", w.Code)
	}
	if err := os.WriteFile(e.manifest, []byte(`{"agents":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	w := e.get(t, "/components", "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != `{"agents":[]}` {
		t.Errorf("components = %d %q", w.Code, w.Body.String())
	}
	if w := e.get(t, "/agents", ""); w.Code != http.StatusNotFound {
		t.Errorf("agents = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	e := testEnv(t, "secret123")
	cases := []struct {
		token string
		want  int
	}{
		{"secret123", http.StatusOK},
		{"", http.StatusUnauthorized},
		{"wrong", http.StatusUnauthorized},
	}
	if w := e.get(t, "/runs", ""); w.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate header")
	}
	for _, c := range cases {
		if w := e.get(t, "/runs", c.token); w.Code != c.want {
			t.Errorf("token %q = %d, want %d", c.token, w.Code, c.want)
		}
	}

	open := testEnv(t, "")
	if w := open.get(t, "/runs", ""); w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

func TestEvents_AuthProtected(t *testing.T) {
	e := testEnv(t, "secret123")
	if w := e.get(t, "/events", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("events without token = %d, want 401", w.Code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("events = %d %q", w.Code, w.Header().Get("Content-Type"))
	}

	ctx2, cancel2 := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel2()
	req = httptest.NewRequest(http.MethodGet, "/events?token=secret123", nil).WithContext(ctx2)
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("events with query token = %d, want 200", w.Code)
	}

	if w := e.get(t, "/runs?token=secret123", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("query token outside events = %d, want 401", w.Code)
	}
}
