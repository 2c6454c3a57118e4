package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/starford/vaultkit/internal/frontmatter"
	"github.com/starford/vaultkit/internal/storage"
)

// DefaultInstallCommand is the install command format; %s is the template id.
const DefaultInstallCommand = "npx claude-code-templates@latest --template=%s --yes"

// Scanner reads components and templates from disk.
type Scanner struct {
	components     string
	templates      string
	installCommand string
	logger         *slog.Logger
	policy         *bluemonday.Policy
	title          cases.Caser
}

// NewScanner creates a Scanner. An empty installCommand selects
// DefaultInstallCommand.
func NewScanner(componentsDir, templatesDir, installCommand string, logger *slog.Logger) *Scanner {
	if installCommand == "" {
		installCommand = DefaultInstallCommand
	}
	return &Scanner{
		components:     componentsDir,
		templates:      templatesDir,
		installCommand: installCommand,
		logger:         logger,
		policy:         bluemonday.StrictPolicy(),
		title:          cases.Title(language.English),
	}
}

// Scan returns the components grouped by plural type. A missing type
// directory is logged and skipped; only an unreadable components root fails.
func (s *Scanner) Scan() (map[string][]Component, error) {
	store, err := storage.NewFS(s.components, []string{})
	if err != nil {
		return nil, fmt.Errorf("manifest: components dir: %w", err)
	}

	out := make(map[string][]Component, len(ComponentTypes))
	for _, typ := range ComponentTypes {
		categories, err := store.ReadDir(typ)
		if err != nil {
			s.logger.Warn("manifest: type directory not found", slog.String("type", typ))
			continue
		}
		for _, cat := range categories {
			if !cat.IsDir {
				continue
			}
			files, err := store.ReadDir(typ + "/" + cat.Name)
			if err != nil {
				s.logger.Warn("manifest: read category failed",
					slog.String("path", typ+"/"+cat.Name),
					slog.String("error", err.Error()))
				continue
			}
			for _, f := range files {
				ext := path.Ext(f.Name)
				if f.IsDir || (ext != ".md" && ext != ".json") {
					continue
				}
				out[typ] = append(out[typ], s.component(store, typ, cat.Name, f.Name))
			}
		}
	}
	return out, nil
}

func (s *Scanner) component(store storage.Provider, typ, category, file string) Component {
	c := Component{
		Name:     strings.TrimSuffix(file, path.Ext(file)),
		Path:     category + "/" + file,
		Category: category,
		Type:     Singular(typ),
	}
	rel := typ + "/" + c.Path
	data, err := store.Read(rel)
	if err != nil {
		s.logger.Warn("manifest: read failed", slog.String("path", rel), slog.String("error", err.Error()))
		return c
	}
	c.Content = string(data)

	desc, err := description(typ, path.Ext(file), data)
	if err != nil {
		s.logger.Warn("manifest: invalid component", slog.String("path", rel), slog.String("error", err.Error()))
	}
	c.Description = s.clean(desc)
	return c
}

// clean strips markup from a description and collapses whitespace.
func (s *Scanner) clean(desc string) string {
	if desc == "" {
		return ""
	}
	text := html.UnescapeString(s.policy.Sanitize(desc))
	return strings.Join(strings.Fields(text), " ")
}

// description extracts the description field for a component file.
func description(typ, ext string, data []byte) (string, error) {
	if ext == ".md" {
		m, _ := frontmatter.Parse(data)
		v, ok := m.Get("description")
		if !ok {
			return "", nil
		}
		return v.Text(), nil
	}

	switch typ {
	case "mcps":
		var doc struct {
			MCPServers map[string]json.RawMessage `json:"mcpServers"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return "", err
		}
		return firstServerDescription(data, doc.MCPServers)
	case "settings", "hooks":
		var doc struct {
			Description string `json:"description"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return "", err
		}
		return doc.Description, nil
	}
	if !json.Valid(data) {
		return "", errors.New("invalid JSON")
	}
	return "", nil
}

// firstServerDescription returns the first description among mcpServers in
// document order.
func firstServerDescription(data []byte, servers map[string]json.RawMessage) (string, error) {
	if len(servers) == 0 {
		return "", nil
	}
	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	raw := string(data)
	sort.Slice(names, func(i, j int) bool {
		return strings.Index(raw, `"`+names[i]+`"`) < strings.Index(raw, `"`+names[j]+`"`)
	})
	for _, name := range names {
		var cfg struct {
			Description *string `json:"description"`
		}
		if json.Unmarshal(servers[name], &cfg) == nil && cfg.Description != nil {
			return *cfg.Description, nil
		}
	}
	return "", nil
}

// Templates returns the language templates and their framework examples.
// A missing templates directory yields none.
func (s *Scanner) Templates() []Template {
	languages, err := os.ReadDir(s.templates)
	if err != nil {
		s.logger.Warn("manifest: templates directory not found", slog.String("path", s.templates))
		return nil
	}

	var out []Template
	for _, lang := range languages {
		if !lang.IsDir() {
			continue
		}
		langDir := filepath.Join(s.templates, lang.Name())
		out = append(out, Template{
			Name:           lang.Name(),
			ID:             lang.Name(),
			Type:           "template",
			Subtype:        "language",
			Category:       "languages",
			Description:    s.title.String(lang.Name()) + " project template",
			Files:          s.templateFiles(langDir),
			InstallCommand: fmt.Sprintf(s.installCommand, lang.Name()),
		})

		frameworks, err := os.ReadDir(filepath.Join(langDir, "examples"))
		if err != nil {
			continue
		}
		for _, fw := range frameworks {
			if !fw.IsDir() {
				continue
			}
			out = append(out, Template{
				Name:           fw.Name(),
				ID:             fw.Name(),
				Type:           "template",
				Subtype:        "framework",
				Category:       "frameworks",
				Language:       lang.Name(),
				Description:    s.title.String(fw.Name()) + " with " + s.title.String(lang.Name()),
				Files:          s.templateFiles(filepath.Join(langDir, "examples", fw.Name())),
				InstallCommand: fmt.Sprintf(s.installCommand, fw.Name()),
			})
		}
	}
	return out
}

// templateFiles lists the direct files of dir plus everything under its
// .claude directory, as slash paths relative to dir.
func (s *Scanner) templateFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Warn("manifest: read template failed", slog.String("path", dir), slog.String("error", err.Error()))
		return []string{}
	}
	files := []string{}
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
			continue
		}
		if e.Name() != ".claude" {
			continue
		}
		_ = filepath.WalkDir(filepath.Join(dir, e.Name()), func(p string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if rel, relErr := filepath.Rel(dir, p); relErr == nil {
				files = append(files, filepath.ToSlash(rel))
			}
			return nil
		})
	}
	return files
}
