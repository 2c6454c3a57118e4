package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/vaultkit/internal/apperr"
	"github.com/starford/vaultkit/internal/manifest"
	"github.com/starford/vaultkit/internal/testutil"
)

func testApp(t *testing.T) (*App, string, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	vaultDir := filepath.Join(dir, "vault")
	if err := os.MkdirAll(vaultDir, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	cfg.App.LogLevel = slog.LevelError
	cfg.Vault.Path = vaultDir
	cfg.SQLite.Path = filepath.Join(dir, "state", "vaultkit.db")
	cfg.Manifest.ComponentsDir = filepath.Join(dir, "components")
	cfg.Manifest.TemplatesDir = filepath.Join(dir, "templates")
	cfg.Manifest.Output = filepath.Join(dir, "docs", "components.json")
	cfg.Manifest.AgentsOutput = filepath.Join(dir, "docs", "api", "agents.json")
	cfg.Audit.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	app, err := New(WithConfig(cfg), WithOutput(&out))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { app.Close() })
	return app, vaultDir, &out
}

func TestNew_RequiresConfig(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestTagsNormalize_RecordsRun(t *testing.T) {
	app, dir, out := testApp(t)
	testutil.WriteNote(t, dir, "a.md", "---\ntags: [LLM, type/note]\n---\nBody\n")
	testutil.WriteNote(t, dir, "b.md", "No metadata\n")

	res, err := app.TagsNormalize(true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Updated != 1 {
		t.Errorf("dry run updated = %d, want 1", res.Updated)
	}
	if got := testutil.ReadNote(t, dir, "a.md"); !strings.Contains(got, "LLM") {
		t.Errorf("dry run rewrote note: %q", got)
	}

	if _, err := app.TagsNormalize(false); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ReadNote(t, dir, "a.md"); !strings.Contains(got, "ai/llm") {
		t.Errorf("note not rewritten: %q", got)
	}

	if err := app.Runs(10); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "tags normalize") {
		t.Errorf("runs output = %q", out.String())
	}
	if strings.Count(out.String(), "tags normalize") != 1 {
		t.Errorf("dry run should not be recorded: %q", out.String())
	}
}

func TestTagsReport_DefaultAndStdout(t *testing.T) {
	app, dir, out := testApp(t)
	testutil.WriteNote(t, dir, "a.md", "---\ntags: [LLM]\n---\n")

	if _, err := app.TagsReport(""); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ReadNote(t, dir, TagReportName); !strings.Contains(got, "Tag Standardization Report") {
		t.Errorf("report = %q", got)
	}

	if _, err := app.TagsReport(StdoutOutput); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Tag Standardization Report") {
		t.Errorf("stdout = %q", out.String())
	}
}

func TestLinksSuggest_StoresSuggestions(t *testing.T) {
	app, dir, _ := testApp(t)
	testutil.WriteNote(t, dir, "a.md", "# Alpha\nWe use langchain.\n")
	testutil.WriteNote(t, dir, "b.md", "# Beta\nLangChain again.\n")
	jsonOut := filepath.Join(t.TempDir(), "links.json")

	an, err := app.LinksSuggest(StdoutOutput, jsonOut)
	if err != nil {
		t.Fatal(err)
	}
	if len(an.Entity) != 1 {
		t.Fatalf("entity = %+v", an.Entity)
	}

	data, err := os.ReadFile(jsonOut)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"entity_mention"`)) {
		t.Errorf("json = %s", data)
	}

	db, err := app.ledger()
	if err != nil {
		t.Fatal(err)
	}
	rows, err := db.LoadSuggestions("", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Reason != "entity_mention" {
		t.Errorf("stored = %+v", rows)
	}
}

func TestMOCCreate_ExistingIsSkipped(t *testing.T) {
	app, dir, _ := testApp(t)
	testutil.WriteNote(t, dir, "Projects/a.md", "# A\n")

	out, err := app.MOCCreate("Projects", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if out != "MOCs/MOC - Projects.md" {
		t.Errorf("out = %q", out)
	}
	before := testutil.ReadNote(t, dir, out)

	if _, err := app.MOCCreate("Projects", "", ""); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
	if after := testutil.ReadNote(t, dir, out); after != before {
		t.Error("existing MOC was modified")
	}
}

func TestManifestBuild_Offline(t *testing.T) {
	app, _, _ := testApp(t)
	comps := app.cfg.Manifest.ComponentsDir
	testutil.WriteNote(t, comps, "agents/dev/reviewer.md", "---\ndescription: Reviews code\n---\n")
	testutil.WriteNote(t, comps, "commands/setup/init.md", "Init\n")

	m, err := app.ManifestBuild(context.Background(), ManifestOptions{SkipStats: true, SkipAudit: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Agents) != 1 || m.Agents[0].Downloads != 0 || m.Agents[0].Security.Validated {
		t.Errorf("agents = %+v", m.Agents)
	}

	written, err := manifest.Read(app.cfg.Manifest.Output)
	if err != nil {
		t.Fatal(err)
	}
	if len(written.Commands) != 1 {
		t.Errorf("commands = %+v", written.Commands)
	}

	data, err := os.ReadFile(app.cfg.Manifest.AgentsOutput)
	if err != nil {
		t.Fatal(err)
	}
	var idx manifest.AgentsIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		t.Fatal(err)
	}
	if idx.Total != 1 || idx.Agents[0].Description != "Reviews code" {
		t.Errorf("agents api = %+v", idx)
	}
}

func TestVaultLock_Exclusive(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "vaultkit.db")
	unlock, err := acquireVaultLock(dbPath, lockTimeout)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := acquireVaultLock(dbPath, 0); err == nil {
		t.Error("second lock should fail while the first is held")
	}
	unlock()
	unlock2, err := acquireVaultLock(dbPath, 0)
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	unlock2()
}
