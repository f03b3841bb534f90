package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/ansuz/internal"
	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/collection"
	"github.com/starford/ansuz/internal/exporter"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/storage"
	vsync "github.com/starford/ansuz/internal/sync"
	pkgconfig "github.com/starford/ansuz/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// openCollection opens the SQLite collection and the vault storage. dir
// overrides the configured vault path when non-empty (directory argument on
// the command line).
func openCollection(cfg *internal.Config, dir string) (storage.Provider, *collection.DB, error) {
	if dir == "" {
		dir = cfg.Vault.Path
	}
	store, err := storage.NewFS(dir)
	if err != nil {
		return nil, nil, err
	}
	col, err := collection.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, nil, err
	}
	return store, col, nil
}

func runImport(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := internal.NewLogger(cfg)

	dir := cmd.Args().First()
	store, col, err := openCollection(cfg, dir)
	if err != nil {
		return err
	}
	defer col.Close()

	report, err := vsync.Run(store, col, cfg.Sync.Scope(), logger)
	if err != nil {
		if errors.Is(err, apperr.ErrNoNotesFound) {
			fmt.Println("Failed to find any cards to import.")
			return nil
		}
		return fmt.Errorf("import error: %w", err)
	}

	decks := make([]string, 0, len(report.Decks))
	for d := range report.Decks {
		decks = append(decks, d)
	}
	sort.Strings(decks)

	fmt.Println("Notes handled in each deck:")
	for _, d := range decks {
		fmt.Printf("  %s: %d\n", d, report.Decks[d])
	}
	fmt.Printf("Deleted: %d\n", report.Deleted)
	return nil
}

func runExport(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := internal.NewLogger(cfg)

	dest := cmd.Args().First()
	if dest == "" {
		dest = "."
	}
	col, err := collection.Open(cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer col.Close()

	decks, err := exporter.Export(col, dest, logger)
	if err != nil {
		if errors.Is(err, apperr.ErrExportTargetExists) {
			fmt.Printf("Aborting - %q folder already exists\n", exporter.ExportDirName)
			return nil
		}
		return fmt.Errorf("export error: %w", err)
	}

	fmt.Println("Exported decks:")
	for _, d := range decks {
		fmt.Printf("  %s\n", d)
	}
	return nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts := []internal.Option{
		internal.WithConfig(cfg),
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runMCP(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// Stdout carries the MCP protocol; logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))

	store, col, err := openCollection(cfg, "")
	if err != nil {
		return err
	}
	defer col.Close()

	return mcpserver.New(store, col, cfg.Sync.Scope(), logger).ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:  "ansuz",
		Usage: "Sync line-oriented markdown flashcards with a local SQLite collection",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import markdown flashcard files into the collection",
				ArgsUsage: "[vault-dir]",
				Action:    runImport,
			},
			{
				Name:      "export",
				Usage:     "Export the collection to markdown files",
				ArgsUsage: "[dest-dir]",
				Action:    runExport,
			},
			{
				Name:   "serve",
				Usage:  "Run the HTTP API with the vault watcher",
				Action: runServe,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
