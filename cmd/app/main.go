package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/vaultkit/internal"
	"github.com/starford/vaultkit/internal/apperr"
	"github.com/starford/vaultkit/internal/hooks"
	pkgconfig "github.com/starford/vaultkit/pkg/config"
)

var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if v := cmd.String("vault"); v != "" {
		cfg.Vault.Path = v
	}
	if !found {
		slog.Debug("config file not found, using defaults", slog.String("path", configPath))
	}
	return cfg, nil
}

// withApp opens the application for one command and closes it afterwards.
func withApp(fn func(ctx context.Context, cmd *cli.Command, app *internal.App) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		app, err := internal.New(internal.WithConfig(cfg))
		if err != nil {
			return fmt.Errorf("app init error: %w", err)
		}
		defer app.Close()
		return fn(ctx, cmd, app)
	}
}

func dryRunFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "Report what would change without writing",
	}
}

func outputFlag(usage string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   usage + ` ("-" for stdout)`,
	}
}

func tagsCommand() *cli.Command {
	return &cli.Command{
		Name:  "tags",
		Usage: "Normalize and report on note tags",
		Commands: []*cli.Command{
			{
				Name:  "normalize",
				Usage: "Rewrite every note's tags to their canonical form",
				Flags: []cli.Flag{dryRunFlag()},
				Action: withApp(func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					res, err := app.TagsNormalize(cmd.Bool("dry-run"))
					if err != nil {
						return err
					}
					return app.PrintJSON(res)
				}),
			},
			{
				Name:  "report",
				Usage: "Write the tag standardization report",
				Flags: []cli.Flag{outputFlag("Report file")},
				Action: withApp(func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					_, err := app.TagsReport(cmd.String("output"))
					return err
				}),
			},
		},
	}
}

func linksCommand() *cli.Command {
	return &cli.Command{
		Name:  "links",
		Usage: "Suggest and apply links between notes",
		Commands: []*cli.Command{
			{
				Name:  "suggest",
				Usage: "Analyze the vault and write the link suggestions report",
				Flags: []cli.Flag{
					outputFlag("Report file"),
					&cli.StringFlag{Name: "json", Usage: "Also write the full analysis as JSON to this file"},
				},
				Action: withApp(func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					_, err := app.LinksSuggest(cmd.String("output"), cmd.String("json"))
					return err
				}),
			},
			{
				Name:  "apply",
				Usage: "Write the best suggestions into notes as Related links",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of suggestions to apply (default from config)"},
					dryRunFlag(),
				},
				Action: withApp(func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					res, err := app.LinksApply(int(cmd.Int("limit")), cmd.Bool("dry-run"))
					if err != nil {
						return err
					}
					return app.PrintJSON(res)
				}),
			},
		},
	}
}

func mocCommand() *cli.Command {
	return &cli.Command{
		Name:  "moc",
		Usage: "Generate maps of content",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a MOC for one directory",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "directory", Aliases: []string{"d"}, Usage: "Vault directory to map", Required: true},
					&cli.StringFlag{Name: "title", Usage: "MOC title (default: directory name)"},
					&cli.StringFlag{Name: "description", Usage: "Overview text"},
				},
				Action: withApp(func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					out, err := app.MOCCreate(cmd.String("directory"), cmd.String("title"), cmd.String("description"))
					if errors.Is(err, apperr.ErrAlreadyExists) {
						app.Logger().Warn("MOC already exists, skipped", slog.String("path", out))
						return nil
					}
					return err
				}),
			},
			{
				Name:  "suggest",
				Usage: "List directories that would benefit from a MOC",
				Action: withApp(func(_ context.Context, _ *cli.Command, app *internal.App) error {
					list, err := app.MOCSuggest()
					if err != nil {
						return err
					}
					return app.PrintJSON(list)
				}),
			},
			{
				Name:  "create-all",
				Usage: "Create a MOC for every suggested directory",
				Action: withApp(func(_ context.Context, _ *cli.Command, app *internal.App) error {
					sum, err := app.MOCCreateAll()
					if err != nil {
						return err
					}
					return app.PrintJSON(sum)
				}),
			},
		},
	}
}

func metadataCommand() *cli.Command {
	return &cli.Command{
		Name:  "metadata",
		Usage: "Maintain note metadata blocks",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a generated metadata block to notes without one",
				Flags: []cli.Flag{dryRunFlag()},
				Action: withApp(func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					sum, err := app.MetadataAdd(cmd.Bool("dry-run"))
					if err != nil {
						return err
					}
					return app.PrintJSON(sum)
				}),
			},
		},
	}
}

func dailyCommand() *cli.Command {
	return &cli.Command{
		Name:  "daily",
		Usage: "Connect daily notes",
		Commands: []*cli.Command{
			{
				Name:  "connect",
				Usage: "Link daily notes to neighbouring days and topic MOCs",
				Flags: []cli.Flag{dryRunFlag(), outputFlag("Connectivity report file")},
				Action: withApp(func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					_, err := app.DailyConnect(cmd.Bool("dry-run"), cmd.String("output"))
					return err
				}),
			},
		},
	}
}

func indexCommand() *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Maintain the SQLite ledger of vault state",
		Commands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Bring the ledger up to date with the vault",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "watch", Aliases: []string{"w"}, Usage: "Keep following vault changes"},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
					return app.IndexSync(ctx, cmd.Bool("watch"))
				}),
			},
		},
	}
}

func manifestCommand() *cli.Command {
	return &cli.Command{
		Name:  "manifest",
		Usage: "Generate the component catalogue for the docs site",
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "Scan components, join download stats and security results, write components.json",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "components.json path (default from config)"},
					&cli.StringFlag{Name: "agents-output", Usage: "agents.json path (default from config)"},
					&cli.BoolFlag{Name: "skip-stats", Usage: "Do not fetch download counts"},
					&cli.BoolFlag{Name: "skip-audit", Usage: "Do not run the security validator"},
				},
				Action: withApp(func(ctx context.Context, cmd *cli.Command, app *internal.App) error {
					m, err := app.ManifestBuild(ctx, internal.ManifestOptions{
						Output:       cmd.String("output"),
						AgentsOutput: cmd.String("agents-output"),
						SkipStats:    cmd.Bool("skip-stats"),
						SkipAudit:    cmd.Bool("skip-audit"),
					})
					if err != nil {
						return err
					}
					return app.PrintJSON(m.Counts())
				}),
			},
			{
				Name:  "agents",
				Usage: "Regenerate the lightweight agents API from components.json",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "components.json path (default from config)"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "agents.json path (default from config)"},
				},
				Action: withApp(func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					_, err := app.ManifestAgents(cmd.String("input"), cmd.String("output"))
					return err
				}),
			},
		},
	}
}

func hooksCommand() *cli.Command {
	return &cli.Command{
		Name:  "hooks",
		Usage: "PreToolUse hooks enforcing the git-flow conventions (JSON on stdin)",
		Commands: []*cli.Command{
			{
				Name:  "branch-name",
				Usage: "Deny git checkout -b with a non git-flow branch name",
				Action: func(_ context.Context, _ *cli.Command) error {
					return hooks.Handle(os.Stdin, os.Stdout, hooks.ValidateBranchName)
				},
			},
			{
				Name:  "push-guard",
				Usage: "Deny pushes to main or develop",
				Action: func(ctx context.Context, _ *cli.Command) error {
					return hooks.Handle(os.Stdin, os.Stdout, hooks.GuardPush(func() string {
						return hooks.CurrentBranch(ctx)
					}))
				},
			},
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "vaultkit",
		Usage:   "Obsidian vault maintenance and component catalogue generation",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Vault directory (overrides vault.path)",
				Sources: cli.EnvVars("VAULT_PATH"),
			},
		},
		Commands: []*cli.Command{
			tagsCommand(),
			linksCommand(),
			mocCommand(),
			metadataCommand(),
			dailyCommand(),
			indexCommand(),
			{
				Name:  "runs",
				Usage: "List recent runs recorded in the ledger",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "Number of runs"},
				},
				Action: withApp(func(_ context.Context, cmd *cli.Command, app *internal.App) error {
					return app.Runs(int(cmd.Int("limit")))
				}),
			},
			manifestCommand(),
			hooksCommand(),
			{
				Name:  "serve",
				Usage: "Serve the read-only HTTP API and keep the ledger in sync",
				Action: withApp(func(ctx context.Context, _ *cli.Command, app *internal.App) error {
					return app.Serve(ctx)
				}),
			},
			{
				Name:  "mcp",
				Usage: "Serve vault analysis tools over MCP on stdio",
				Action: withApp(func(_ context.Context, _ *cli.Command, app *internal.App) error {
					return app.ServeMCP(version)
				}),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
