package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vaultkit/internal/audit"
	"github.com/starford/vaultkit/internal/daily"
	"github.com/starford/vaultkit/internal/links"
	"github.com/starford/vaultkit/internal/manifest"
	"github.com/starford/vaultkit/internal/stats"
	"github.com/starford/vaultkit/internal/storage"
	"github.com/starford/vaultkit/internal/tags"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Stats sources.
const (
	StatsSourceNone     = "none"
	StatsSourceREST     = "rest"
	StatsSourcePostgres = "postgres"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Vault    VaultConfig       `yaml:"vault"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Auth     AuthConfig        `yaml:"auth"`
	Tags     TagsConfig        `yaml:"tags"`
	Links    LinksConfig       `yaml:"links"`
	Manifest ManifestConfig    `yaml:"manifest"`
	Stats    StatsConfig       `yaml:"stats"`
	Audit    AuditConfig       `yaml:"audit"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	for _, v := range []validation.Validatable{
		&c.App, &c.Vault, &c.SQLite, &c.Auth, &c.Links, &c.Manifest, &c.Stats, &c.Audit,
	} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level"`
	LogFormat string     `yaml:"log_format"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatJSON
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatJSON, LogFormatText)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig describes the Markdown vault and where generated notes go.
type VaultConfig struct {
	Path string `yaml:"path"`
	// SkipDirs are directory names never descended into. Empty means the
	// built-in list (.obsidian, .trash, .git, System_Files).
	SkipDirs     []string `yaml:"skip_dirs"`
	ReportDir    string   `yaml:"report_dir"`
	MOCDir       string   `yaml:"moc_dir"`
	DailyFolders []string `yaml:"daily_folders"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.MOCDir, validation.Required),
	)
}

// Skip returns the effective skip list.
func (c *VaultConfig) Skip() []string {
	if len(c.SkipDirs) == 0 {
		return storage.DefaultSkipDirs
	}
	return c.SkipDirs
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// TagsConfig extends the built-in tag tables.
type TagsConfig struct {
	// Categories replace the built-in top-level categories when set.
	Categories []string `yaml:"categories"`
	// Mappings are applied after the built-in tables and override them.
	Mappings map[string]string `yaml:"mappings"`
}

// Normalizer builds the tag normalizer described by c.
func (c *TagsConfig) Normalizer() (*tags.Normalizer, error) {
	categories := c.Categories
	if len(categories) == 0 {
		categories = tags.DefaultCategories
	}
	layers := tags.DefaultLayers()
	if len(c.Mappings) > 0 {
		layers = append(layers, c.Mappings)
	}
	return tags.New(categories, layers...)
}

// LinksConfig controls links apply.
type LinksConfig struct {
	Priority   []string `yaml:"priority"`
	ApplyLimit int      `yaml:"apply_limit"`
}

// Validate validates the links configuration.
func (c *LinksConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ApplyLimit, validation.Min(0)),
	)
}

// ManifestConfig locates the component tree and the generated files.
type ManifestConfig struct {
	ComponentsDir  string `yaml:"components_dir"`
	TemplatesDir   string `yaml:"templates_dir"`
	Output         string `yaml:"output"`
	AgentsOutput   string `yaml:"agents_output"`
	InstallCommand string `yaml:"install_command"`
}

// Validate validates the manifest configuration.
func (c *ManifestConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ComponentsDir, validation.Required),
		validation.Field(&c.Output, validation.Required),
		validation.Field(&c.AgentsOutput, validation.Required),
	)
}

// StatsConfig selects where download events are read from.
type StatsConfig struct {
	Source   string        `yaml:"source"`
	URL      string        `yaml:"url"`
	APIKey   string        `yaml:"api_key"`
	DSN      string        `yaml:"dsn"`
	Table    string        `yaml:"table"`
	PageSize int           `yaml:"page_size"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Validate validates the stats configuration.
func (c *StatsConfig) Validate() error {
	if c.Source == "" {
		c.Source = StatsSourceNone
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Source, validation.In(StatsSourceNone, StatsSourceREST, StatsSourcePostgres)),
		validation.Field(&c.URL, validation.When(c.Source == StatsSourceREST, validation.Required)),
		validation.Field(&c.APIKey, validation.When(c.Source == StatsSourceREST, validation.Required)),
		validation.Field(&c.DSN, validation.When(c.Source == StatsSourcePostgres, validation.Required)),
		validation.Field(&c.Table, validation.Required),
		validation.Field(&c.PageSize, validation.Min(0)),
	)
}

// AuditConfig describes the external security validator.
type AuditConfig struct {
	Enabled bool          `yaml:"enabled"`
	Command string        `yaml:"command"`
	Args    []string      `yaml:"args"`
	Dir     string        `yaml:"dir"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the audit configuration.
func (c *AuditConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Command, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatJSON,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path:         "./vault",
			MOCDir:       "MOCs",
			DailyFolders: daily.DefaultFolders,
		},
		SQLite: SQLiteConfig{
			Path: "./vaultkit.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Links: LinksConfig{
			Priority:   links.DefaultPriorityEntities,
			ApplyLimit: 20,
		},
		Manifest: ManifestConfig{
			ComponentsDir:  "cli-tool/components",
			TemplatesDir:   "cli-tool/templates",
			Output:         "docs/components.json",
			AgentsOutput:   "docs/api/agents.json",
			InstallCommand: manifest.DefaultInstallCommand,
		},
		Stats: StatsConfig{
			Source:   StatsSourceNone,
			Table:    "component_downloads",
			PageSize: stats.DefaultPageSize,
			Timeout:  30 * time.Second,
		},
		Audit: AuditConfig{
			Enabled: true,
			Command: "node",
			Args:    []string{"cli-tool/src/security-audit.js", "--json"},
			Timeout: audit.DefaultTimeout,
		},
	}
}
