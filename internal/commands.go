package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/starford/vaultkit/internal/apperr"
	"github.com/starford/vaultkit/internal/audit"
	"github.com/starford/vaultkit/internal/daily"
	"github.com/starford/vaultkit/internal/entity"
	"github.com/starford/vaultkit/internal/links"
	"github.com/starford/vaultkit/internal/manifest"
	"github.com/starford/vaultkit/internal/metadata"
	"github.com/starford/vaultkit/internal/models"
	"github.com/starford/vaultkit/internal/moc"
	"github.com/starford/vaultkit/internal/stats"
	"github.com/starford/vaultkit/internal/tags"
	"github.com/starford/vaultkit/internal/vault"
)

// Default report names, written under vault.report_dir.
const (
	TagReportName   = "tag_standardization_report.md"
	LinkReportName  = "link_suggestions_report.md"
	DailyReportName = "daily_notes_connectivity_report.md"
)

// StdoutOutput as an output path prints to the command output instead.
const StdoutOutput = "-"

// exclusive runs fn while holding the vault lock.
func (a *App) exclusive(fn func() error) error {
	unlock, err := acquireVaultLock(a.cfg.SQLite.Path, lockTimeout)
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

// record stores a run in the ledger and returns its id. A ledger failure
// is logged; the vault work already happened.
func (a *App) record(tool string, sum models.Summary, started time.Time) string {
	a.logger.Info("Run finished",
		slog.String("tool", tool),
		slog.Int("processed", sum.Processed),
		slog.Int("updated", sum.Updated),
		slog.Int("skipped", sum.Skipped),
		slog.Int("errored", sum.Errored))

	db, err := a.ledger()
	if err != nil {
		a.logger.Warn("run not recorded", slog.String("tool", tool), slog.String("error", err.Error()))
		return ""
	}
	id, err := db.RecordRun(tool, sum, started, time.Now())
	if err != nil {
		a.logger.Warn("run not recorded", slog.String("tool", tool), slog.String("error", err.Error()))
		return ""
	}
	return id
}

// writeReport writes content to output. An empty output means the default
// name under the report directory inside the vault.
func (a *App) writeReport(output, name string, content []byte) error {
	switch output {
	case StdoutOutput:
		_, err := a.out.Write(content)
		return err
	case "":
		store, err := a.vault()
		if err != nil {
			return err
		}
		rel := path.Join(filepath.ToSlash(a.cfg.Vault.ReportDir), name)
		if err := store.Write(rel, content); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		a.logger.Info("Report written", slog.String("path", rel))
		return nil
	default:
		if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		if err := os.WriteFile(output, content, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		a.logger.Info("Report written", slog.String("path", output))
		return nil
	}
}

// PrintJSON writes v to the command output as indented JSON.
func (a *App) PrintJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) loadVault() ([]*models.Document, error) {
	store, err := a.vault()
	if err != nil {
		return nil, err
	}
	docs, _, err := vault.Load(store, "", a.logger)
	if err != nil {
		return nil, fmt.Errorf("load vault: %w", err)
	}
	return docs, nil
}

// TagsNormalize rewrites every note's tags to their canonical form.
func (a *App) TagsNormalize(dryRun bool) (*tags.Result, error) {
	store, err := a.vault()
	if err != nil {
		return nil, err
	}
	var res *tags.Result
	err = a.exclusive(func() error {
		started := time.Now()
		res, err = tags.NewStandardizer(a.norm, store, a.logger).Run(dryRun)
		if err != nil {
			return err
		}
		if !dryRun {
			a.record("tags normalize", res.Summary, started)
		}
		return nil
	})
	return res, err
}

// TagsReport writes the tag standardization report.
func (a *App) TagsReport(output string) (*tags.Analysis, error) {
	docs, err := a.loadVault()
	if err != nil {
		return nil, err
	}
	an := a.norm.Analyze(docs)
	if err := a.writeReport(output, TagReportName, []byte(tags.RenderReport(an, a.store.Root()))); err != nil {
		return nil, err
	}
	return an, nil
}

// LinksSuggest analyzes the vault, writes the report and stores the
// suggestions as a run in the ledger. jsonOut, when set, also receives the
// full analysis as JSON.
func (a *App) LinksSuggest(output, jsonOut string) (*links.Analysis, error) {
	started := time.Now()
	docs, err := a.loadVault()
	if err != nil {
		return nil, err
	}
	an := links.Analyze(docs, entity.NewScanner(entity.DefaultVocabulary()))

	if err := a.writeReport(output, LinkReportName, []byte(links.RenderReport(an, a.store.Root()))); err != nil {
		return nil, err
	}
	if jsonOut != "" {
		data, err := json.MarshalIndent(an, "", "  ")
		if err != nil {
			return nil, err
		}
		if err := a.writeReport(jsonOut, "", data); err != nil {
			return nil, err
		}
	}

	sum := models.Summary{Processed: an.Stats.TotalNotes}
	if id := a.record("links suggest", sum, started); id != "" {
		if err := a.saveSuggestions(id, an.All()); err != nil {
			a.logger.Warn("suggestions not stored", slog.String("error", err.Error()))
		}
	}
	return an, nil
}

func (a *App) saveSuggestions(runID string, list []links.Suggestion) error {
	svc, _, _, err := a.service()
	if err != nil {
		return err
	}
	return svc.SaveSuggestions(runID, list)
}

// LinksApply writes the best suggestions into the notes as Related links.
func (a *App) LinksApply(limit int, dryRun bool) (*links.ApplyResult, error) {
	store, err := a.vault()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = a.cfg.Links.ApplyLimit
	}
	var res *links.ApplyResult
	err = a.exclusive(func() error {
		started := time.Now()
		docs, err := a.loadVault()
		if err != nil {
			return err
		}
		an := links.Analyze(docs, entity.NewScanner(entity.DefaultVocabulary()))
		res = links.NewApplier(store, a.logger).Apply(an.All(), links.ApplyOptions{
			Limit:    limit,
			Priority: a.cfg.Links.Priority,
			DryRun:   dryRun,
		})
		if !dryRun {
			a.record("links apply", res.Summary, started)
		}
		return nil
	})
	return res, err
}

func (a *App) mocGenerator() (*moc.Generator, error) {
	store, err := a.vault()
	if err != nil {
		return nil, err
	}
	return moc.NewGenerator(store, a.norm, a.cfg.Vault.MOCDir, a.logger), nil
}

// MOCCreate writes a map of content for dir. An existing MOC is reported
// and left untouched.
func (a *App) MOCCreate(dir, title, description string) (string, error) {
	gen, err := a.mocGenerator()
	if err != nil {
		return "", err
	}
	var out string
	err = a.exclusive(func() error {
		started := time.Now()
		out, err = gen.Create(dir, title, description)
		sum := models.Summary{Processed: 1}
		switch {
		case errors.Is(err, apperr.ErrAlreadyExists):
			sum.Skipped++
		case err != nil:
			sum.Errored++
		default:
			sum.Updated++
		}
		a.record("moc create", sum, started)
		return err
	})
	return out, err
}

// MOCSuggest lists directories that would benefit from a MOC.
func (a *App) MOCSuggest() ([]moc.Suggestion, error) {
	gen, err := a.mocGenerator()
	if err != nil {
		return nil, err
	}
	return gen.Suggest()
}

// MOCCreateAll creates a MOC for every suggested directory.
func (a *App) MOCCreateAll() (models.Summary, error) {
	gen, err := a.mocGenerator()
	if err != nil {
		return models.Summary{}, err
	}
	var sum models.Summary
	err = a.exclusive(func() error {
		started := time.Now()
		sum, err = gen.CreateAll()
		if err != nil {
			return err
		}
		a.record("moc create-all", sum, started)
		return nil
	})
	return sum, err
}

// MetadataAdd gives every note without a metadata block a generated one.
func (a *App) MetadataAdd(dryRun bool) (models.Summary, error) {
	store, err := a.vault()
	if err != nil {
		return models.Summary{}, err
	}
	var sum models.Summary
	err = a.exclusive(func() error {
		started := time.Now()
		sum, err = metadata.NewAdder(store, a.norm, a.logger).Run(dryRun)
		if err != nil {
			return err
		}
		if !dryRun {
			a.record("metadata add", sum, started)
		}
		return nil
	})
	return sum, err
}

// DailyConnect links daily notes to their neighbours and topic MOCs, then
// writes the connectivity report.
func (a *App) DailyConnect(dryRun bool, output string) (*daily.Result, error) {
	store, err := a.vault()
	if err != nil {
		return nil, err
	}
	conn, err := daily.NewConnector(store, daily.Options{Folders: a.cfg.Vault.DailyFolders}, a.logger)
	if err != nil {
		return nil, err
	}
	var res *daily.Result
	err = a.exclusive(func() error {
		started := time.Now()
		res, err = conn.Run(dryRun)
		if err != nil {
			return err
		}
		if !dryRun {
			a.record("daily connect", res.Summary, started)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := a.writeReport(output, DailyReportName, []byte(daily.RenderReport(res, time.Now()))); err != nil {
		return nil, err
	}
	return res, nil
}

// Runs prints the most recent runs recorded in the ledger.
func (a *App) Runs(limit int) error {
	db, err := a.ledger()
	if err != nil {
		return err
	}
	runs, err := db.Runs(limit)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tTOOL\tPROCESSED\tUPDATED\tSKIPPED\tERRORED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n",
			r.StartedAt.Local().Format(time.DateTime), r.Tool, r.Processed, r.Updated, r.Skipped, r.Errored)
	}
	return tw.Flush()
}

// ManifestOptions tunes a manifest build.
type ManifestOptions struct {
	Output       string
	AgentsOutput string
	SkipStats    bool
	SkipAudit    bool
}

// ManifestBuild scans the component tree, joins download counts and
// security results, and writes components.json and the agents API.
func (a *App) ManifestBuild(ctx context.Context, opts ManifestOptions) (*manifest.Manifest, error) {
	cfg := a.cfg.Manifest
	if opts.Output == "" {
		opts.Output = cfg.Output
	}
	if opts.AgentsOutput == "" {
		opts.AgentsOutput = cfg.AgentsOutput
	}

	scanner := manifest.NewScanner(cfg.ComponentsDir, cfg.TemplatesDir, cfg.InstallCommand, a.logger)
	components, err := scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("scan components: %w", err)
	}
	templates := scanner.Templates()

	downloads := map[string]int{}
	if !opts.SkipStats {
		downloads = a.fetchDownloads(ctx)
	}

	security := map[string]manifest.Security{}
	if !opts.SkipAudit && a.cfg.Audit.Enabled {
		ac := a.cfg.Audit
		security = audit.NewRunner(ac.Command, ac.Args, ac.Dir, ac.Timeout, a.logger).Run(ctx)
	}

	m := manifest.Build(components, templates, downloads, security)
	if err := manifest.Write(opts.Output, m, a.logger); err != nil {
		return nil, err
	}
	if _, err := manifest.GenerateAgentsAPI(opts.Output, opts.AgentsOutput, a.logger); err != nil {
		return nil, err
	}
	return m, nil
}

// fetchDownloads reads the download counts from the configured source. Any
// failure degrades to no counts.
func (a *App) fetchDownloads(ctx context.Context) map[string]int {
	sc := a.cfg.Stats
	var src stats.Source
	switch sc.Source {
	case StatsSourceREST:
		src = stats.NewRESTSource(sc.URL, sc.Table, sc.APIKey, sc.Timeout)
	case StatsSourcePostgres:
		pg, err := stats.NewPostgresSource(ctx, sc.DSN, sc.Table)
		if err != nil {
			a.logger.Warn("download stats unavailable", slog.String("error", err.Error()))
			return map[string]int{}
		}
		defer pg.Close()
		src = pg
	default:
		a.logger.Info("download stats disabled")
		return map[string]int{}
	}
	return stats.NewFetcher(src, sc.PageSize, a.logger).Fetch(ctx)
}

// ManifestAgents regenerates the agents API from an existing manifest.
func (a *App) ManifestAgents(input, output string) (*manifest.AgentsIndex, error) {
	if input == "" {
		input = a.cfg.Manifest.Output
	}
	if output == "" {
		output = a.cfg.Manifest.AgentsOutput
	}
	return manifest.GenerateAgentsAPI(input, output, a.logger)
}
