package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/starford/vaultkit/internal/checksum"
	"github.com/starford/vaultkit/internal/storage"
)

const agentDescriptionLimit = 100

// Write encodes m to path with two-space indentation and replaces the file
// atomically. It logs a per-section summary.
func Write(path string, m *Manifest, logger *slog.Logger) error {
	changed, err := writeJSON(path, m)
	if err != nil {
		return err
	}

	languages, frameworks := 0, 0
	for _, t := range m.Templates {
		switch t.Subtype {
		case "language":
			languages++
		case "framework":
			frameworks++
		}
	}
	counts := m.Counts()
	attrs := []any{slog.String("path", path), slog.Bool("changed", changed)}
	for _, typ := range ComponentTypes {
		attrs = append(attrs, slog.Int(typ, counts[typ]))
	}
	attrs = append(attrs,
		slog.Int("templates", counts["templates"]),
		slog.Int("languages", languages),
		slog.Int("frameworks", frameworks))
	logger.Info("manifest: written", attrs...)
	return nil
}

// Read loads a manifest previously written by Write.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: decode %s: %w", path, err)
	}
	return &m, nil
}

// Agent is one entry of the agents API.
type Agent struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// AgentsIndex is the lightweight agents listing used by the CLI installer.
type AgentsIndex struct {
	Agents  []Agent `json:"agents"`
	Version string  `json:"version"`
	Total   int     `json:"total"`
}

// AgentsAPI derives the agents listing from a manifest.
func AgentsAPI(m *Manifest) *AgentsIndex {
	out := &AgentsIndex{Agents: []Agent{}, Version: "1.0.0"}
	for _, a := range m.Agents {
		parts := strings.Split(a.Path, "/")
		category := "root"
		if len(parts) > 1 {
			category = parts[0]
		}
		out.Agents = append(out.Agents, Agent{
			Name:        strings.TrimSuffix(parts[len(parts)-1], ".md"),
			Path:        strings.ReplaceAll(a.Path, ".md", ""),
			Category:    category,
			Description: truncate(a.Description, agentDescriptionLimit),
		})
	}
	out.Total = len(out.Agents)
	return out
}

// GenerateAgentsAPI reads the manifest at in and writes the agents listing to out.
func GenerateAgentsAPI(in, out string, logger *slog.Logger) (*AgentsIndex, error) {
	m, err := Read(in)
	if err != nil {
		return nil, err
	}
	idx := AgentsAPI(m)
	changed, err := writeJSON(out, idx)
	if err != nil {
		return nil, err
	}
	logger.Info("manifest: agents api written",
		slog.String("path", out), slog.Int("agents", idx.Total), slog.Bool("changed", changed))
	return idx, nil
}

// writeJSON encodes v without HTML escaping and writes it atomically,
// creating the parent directory. A file whose content would not change is
// left untouched so its modification time stays stable.
func writeJSON(path string, v any) (bool, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return false, fmt.Errorf("manifest: encode: %w", err)
	}

	if prev, err := checksum.File(path); err == nil && prev == checksum.Sum(buf.Bytes()) {
		return false, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("manifest: create dir: %w", err)
	}
	store, err := storage.NewFS(dir, []string{})
	if err != nil {
		return false, fmt.Errorf("manifest: %w", err)
	}
	if err := store.Write(filepath.Base(path), buf.Bytes()); err != nil {
		return false, fmt.Errorf("manifest: write %s: %w", path, err)
	}
	return true, nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
