package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/halvard/skald/internal"
	"github.com/halvard/skald/internal/backup"
	"github.com/halvard/skald/internal/mcpserver"
	pkgconfig "github.com/halvard/skald/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	return cfg, nil
}

// dataDir resolves the data directory for CLI subcommands that open the
// vault directly, preferring the --data flag over the configured path.
func dataDir(cmd *cli.Command, cfg *internal.Config) string {
	if data := cmd.String("data"); data != "" {
		return data
	}
	return cfg.Data.Path
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithDataPath(cmd.String("data")),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func runTree(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, _, err := internal.OpenVault(dataDir(cmd, cfg))
	if err != nil {
		return err
	}

	favoritesOnly := cmd.Bool("favorites")
	for _, it := range svc.Tree() {
		indent := strings.Repeat("  ", it.Depth)
		switch {
		case it.Notebook != nil:
			fmt.Printf("%s%s/ (%d)\n", indent, it.Notebook.Name, it.Notebook.SnippetCount)
		case it.Snippet != nil:
			if favoritesOnly && !it.Snippet.Favorite {
				continue
			}
			marker := " "
			if it.Snippet.Favorite {
				marker = "*"
			}
			fmt.Printf("%s%s %s (%s)\n", indent, marker, it.Snippet.Title, it.Snippet.Language)
		}
	}
	return nil
}

func runSearch(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, _, err := internal.OpenVault(dataDir(cmd, cfg))
	if err != nil {
		return err
	}

	query := cmd.Args().First()
	if query == "" {
		return fmt.Errorf("usage: search <query>")
	}
	results := svc.Search(query)
	if len(results) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, res := range results {
		if path := svc.ResultPath(res); path != "" {
			fmt.Printf("[%s] %s  (%s)\n    %s\n", res.Type, res.DisplayName, path, res.MatchContext)
		} else {
			fmt.Printf("[%s] %s\n    %s\n", res.Type, res.DisplayName, res.MatchContext)
		}
	}
	return nil
}

func runExport(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, _, err := internal.OpenVault(dataDir(cmd, cfg))
	if err != nil {
		return err
	}

	opts := backup.DefaultOptions()
	opts.IncludeContent = !cmd.Bool("no-content")
	opts.FavoritesOnly = cmd.Bool("favorites")
	for _, raw := range cmd.StringSlice("notebook") {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid notebook id %q", raw)
		}
		opts.NotebookIDs = append(opts.NotebookIDs, id)
	}

	bundle := svc.Export(opts)

	if cmd.Bool("clipboard") {
		data, err := bundle.Encode()
		if err != nil {
			return err
		}
		if err := clipboard.WriteAll(string(data)); err != nil {
			return fmt.Errorf("write clipboard: %w", err)
		}
		fmt.Printf("exported %d notebooks, %d snippets to clipboard\n", len(bundle.Notebooks), len(bundle.Snippets))
		return nil
	}

	out := cmd.String("out")
	if out == "" {
		return fmt.Errorf("either --out or --clipboard is required")
	}
	if err := bundle.WriteFile(out); err != nil {
		return err
	}
	fmt.Printf("exported %d notebooks, %d snippets to %s\n", len(bundle.Notebooks), len(bundle.Snippets), out)
	return nil
}

func runImport(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, _, err := internal.OpenVault(dataDir(cmd, cfg))
	if err != nil {
		return err
	}

	policy, err := backup.ParsePolicy(cmd.String("policy"))
	if err != nil {
		return err
	}

	var res backup.Result
	if cmd.Bool("clipboard") {
		text, err := clipboard.ReadAll()
		if err != nil {
			return fmt.Errorf("read clipboard: %w", err)
		}
		res, err = svc.ImportBlob([]byte(text), policy)
		if err != nil {
			return err
		}
	} else {
		file := cmd.String("file")
		if file == "" {
			return fmt.Errorf("either --file or --clipboard is required")
		}
		res, err = svc.ImportFromFile(file, policy)
		if err != nil {
			return err
		}
	}

	fmt.Printf("imported %d notebooks, %d snippets\n", res.NotebooksAdded, res.SnippetsAdded)
	return nil
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, _, err := internal.OpenVault(dataDir(cmd, cfg))
	if err != nil {
		return err
	}
	return mcpserver.New(svc).ServeStdio()
}

func main() {
	commonFlags := []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to config file",
			DefaultText: "config/config.yaml",
			Value:       "config/config.yaml",
			Sources:     cli.EnvVars("APP_CONFIG_FILE"),
		},
		&cli.StringFlag{
			Name:    "data",
			Usage:   "Data directory (overrides config)",
			Sources: cli.EnvVars("SKALD_DATA_DIR"),
		},
	}

	cmd := &cli.Command{
		Name:   "skald",
		Usage:  "Local-first code snippet vault with notebooks, tags, and search",
		Action: runServe,
		Flags:  commonFlags,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API server (default)",
				Action: runServe,
				Flags:  commonFlags,
			},
			{
				Name:   "tree",
				Usage:  "Print the notebook tree",
				Action: runTree,
				Flags: append([]cli.Flag{
					&cli.BoolFlag{Name: "favorites", Usage: "Only show favorite snippets"},
				}, commonFlags...),
			},
			{
				Name:      "search",
				Usage:     "Search notebooks, snippets, tags and content",
				ArgsUsage: "<query>",
				Action:    runSearch,
				Flags:     commonFlags,
			},
			{
				Name:   "export",
				Usage:  "Export the store as a portable bundle",
				Action: runExport,
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file path"},
					&cli.BoolFlag{Name: "clipboard", Usage: "Write the bundle to the system clipboard"},
					&cli.BoolFlag{Name: "no-content", Usage: "Exclude snippet content"},
					&cli.BoolFlag{Name: "favorites", Usage: "Only export favorite snippets"},
					&cli.StringSliceFlag{Name: "notebook", Usage: "Restrict to notebook IDs (repeatable)"},
				}, commonFlags...),
			},
			{
				Name:   "import",
				Usage:  "Merge an exported bundle into the store",
				Action: runImport,
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Bundle file path (JSON or YAML)"},
					&cli.BoolFlag{Name: "clipboard", Usage: "Read the bundle from the system clipboard"},
					&cli.StringFlag{Name: "policy", Value: "merge", Usage: "Merge policy: overwrite, skip, merge, smart"},
				}, commonFlags...),
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP stdio server for chat assistant integration",
				Action: runMCP,
				Flags:  commonFlags,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
