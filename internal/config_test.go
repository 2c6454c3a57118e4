package internal

import (
	"strings"
	"testing"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestAppConfig_LogFormat(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.LogFormat = ""
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.App.LogFormat != LogFormatJSON {
		t.Errorf("log format = %q, want %q", cfg.App.LogFormat, LogFormatJSON)
	}
	cfg.App.LogFormat = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown log format should fail")
	}
}

func TestStatsConfig_SourceRequirements(t *testing.T) {
	cfg := StatsConfig{Source: StatsSourceREST, Table: "downloads"}
	if err := cfg.Validate(); err == nil {
		t.Error("rest source without url should fail")
	}
	cfg.URL, cfg.APIKey = "https://x.supabase.co", "key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("rest source: %v", err)
	}

	cfg = StatsConfig{Source: StatsSourcePostgres, Table: "downloads"}
	if err := cfg.Validate(); err == nil {
		t.Error("postgres source without dsn should fail")
	}

	cfg = StatsConfig{Table: "downloads"}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.Source != StatsSourceNone {
		t.Errorf("source = %q, want %q", cfg.Source, StatsSourceNone)
	}
}

func TestAuditConfig_CommandRequiredWhenEnabled(t *testing.T) {
	cfg := AuditConfig{Enabled: true}
	if err := cfg.Validate(); err == nil {
		t.Error("enabled audit without command should fail")
	}
	cfg.Enabled = false
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled audit: %v", err)
	}
}

func TestTagsConfig_Normalizer(t *testing.T) {
	cfg := TagsConfig{Mappings: map[string]string{"genai": "ai/llm"}}
	norm, err := cfg.Normalizer()
	if err != nil {
		t.Fatal(err)
	}
	if got := norm.Normalize("#GenAI"); got != "ai/llm" {
		t.Errorf("normalize = %q, want %q", got, "ai/llm")
	}

	bad := TagsConfig{Mappings: map[string]string{"x": "Not Canonical"}}
	if _, err := bad.Normalizer(); err == nil {
		t.Error("non-canonical target should fail")
	}
}

func TestVaultConfig_Skip(t *testing.T) {
	cfg := VaultConfig{}
	if got := cfg.Skip(); len(got) == 0 || got[0] != ".obsidian" {
		t.Errorf("skip = %v", got)
	}
	cfg.SkipDirs = []string{"Archive"}
	if got := cfg.Skip(); len(got) != 1 || got[0] != "Archive" {
		t.Errorf("skip = %v", got)
	}
}
