// Package manifest scans the component catalogue and assembles the JSON
// manifest served by the static site.
package manifest

import (
	"encoding/json"
	"path"
	"strings"
)

// ComponentTypes lists the scanned type directories in manifest order.
var ComponentTypes = []string{"agents", "commands", "mcps", "settings", "hooks", "skills"}

// Component is one catalogue file.
type Component struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Category    string `json:"category"`
	Type        string `json:"type"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

// Key returns the component's lookup key, type/category/name.
func (c Component) Key() string {
	return c.Type + "/" + c.Category + "/" + c.Name
}

// KeyFor builds a lookup key from a type (singular or plural) and a
// category/file path. The file extension is dropped.
func KeyFor(typ, p string) string {
	p = strings.Trim(path.Clean(strings.ReplaceAll(p, "\\", "/")), "/")
	parts := strings.Split(p, "/")
	name := strings.TrimSuffix(parts[len(parts)-1], path.Ext(parts[len(parts)-1]))
	category := ""
	if len(parts) >= 2 {
		category = parts[len(parts)-2]
	}
	return Singular(typ) + "/" + category + "/" + name
}

// Singular turns a type directory name into the component type.
func Singular(typ string) string {
	return strings.TrimSuffix(typ, "s")
}

// Security is the audit result attached to a manifest entry.
type Security struct {
	Validated    bool                       `json:"validated"`
	Valid        bool                       `json:"valid"`
	Score        int                        `json:"score"`
	ErrorCount   int                        `json:"errorCount"`
	WarningCount int                        `json:"warningCount"`
	Validators   map[string]json.RawMessage `json:"validators"`
}

// Entry is a component as written to the manifest.
type Entry struct {
	Component
	Downloads int      `json:"downloads"`
	Security  Security `json:"security"`
}

// Template is a project template: a language, or a framework example of one.
type Template struct {
	Name           string   `json:"name"`
	ID             string   `json:"id"`
	Type           string   `json:"type"`
	Subtype        string   `json:"subtype"`
	Category       string   `json:"category"`
	Language       string   `json:"language,omitempty"`
	Description    string   `json:"description"`
	Files          []string `json:"files"`
	InstallCommand string   `json:"installCommand"`
}

// Manifest is the document written to components.json.
type Manifest struct {
	Agents    []Entry    `json:"agents"`
	Commands  []Entry    `json:"commands"`
	MCPs      []Entry    `json:"mcps"`
	Settings  []Entry    `json:"settings"`
	Hooks     []Entry    `json:"hooks"`
	Skills    []Entry    `json:"skills"`
	Templates []Template `json:"templates"`
}

// section returns the array for a plural type name, or nil when unknown.
func (m *Manifest) section(typ string) *[]Entry {
	switch typ {
	case "agents":
		return &m.Agents
	case "commands":
		return &m.Commands
	case "mcps":
		return &m.MCPs
	case "settings":
		return &m.Settings
	case "hooks":
		return &m.Hooks
	case "skills":
		return &m.Skills
	}
	return nil
}

// Counts returns the number of entries per section, templates included.
func (m *Manifest) Counts() map[string]int {
	out := make(map[string]int, len(ComponentTypes)+1)
	for _, typ := range ComponentTypes {
		out[typ] = len(*m.section(typ))
	}
	out["templates"] = len(m.Templates)
	return out
}
