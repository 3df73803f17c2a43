package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/docsync/internal"
	pkgconfig "github.com/starford/docsync/pkg/config"
)

var version = "dev"

const defaultConfigFile = "config/config.yaml"

// loadConfig reads the file named by --config. The default location may be
// absent, in which case the built-in defaults apply.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	path := cmd.String("config")

	load := pkgconfig.Load[internal.Config]
	if !cmd.IsSet("config") && path == defaultConfigFile {
		load = pkgconfig.LoadOptional[internal.Config]
	}
	if err := load(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if root := cmd.String("root"); root != "" {
		cfg.Content.Root = root
	}
	return cfg, nil
}

// withConfig adapts an entry point to a cli action.
func withConfig(fn func(context.Context, *cli.Command, ...internal.Option) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return fn(ctx, cmd, internal.WithConfig(cfg))
	}
}

func main() {
	forceFlag := &cli.BoolFlag{
		Name:  "force",
		Usage: "Regenerate summaries that already exist",
	}

	cmd := &cli.Command{
		Name:    "docsync",
		Usage:   "Assign heading anchors, maintain AI summaries and sync a Markdown tree into a document store",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: defaultConfigFile,
				Value:       defaultConfigFile,
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "root",
				Usage:   "Content root, overrides content.root",
				Sources: cli.EnvVars("DOCSYNC_CONTENT_ROOT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Reconcile the document store with the content tree",
				Action: withConfig(func(ctx context.Context, _ *cli.Command, opts ...internal.Option) error {
					return internal.Sync(ctx, opts...)
				}),
			},
			{
				Name:  "anchors",
				Usage: "Rewrite {#id} anchors on every heading",
				Action: withConfig(func(ctx context.Context, _ *cli.Command, opts ...internal.Option) error {
					return internal.Anchors(ctx, opts...)
				}),
			},
			{
				Name:  "summarize",
				Usage: "Add or normalize the 'Summarized by AI' block of every document",
				Flags: []cli.Flag{forceFlag},
				Action: withConfig(func(ctx context.Context, cmd *cli.Command, opts ...internal.Option) error {
					return internal.Summarize(ctx, cmd.Bool("force"), opts...)
				}),
			},
			{
				Name:  "run",
				Usage: "Run anchors, optionally summarize, then sync",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "summarize", Usage: "Include the summary pass"},
					forceFlag,
				},
				Action: withConfig(func(ctx context.Context, cmd *cli.Command, opts ...internal.Option) error {
					return internal.Run(ctx, cmd.Bool("summarize"), cmd.Bool("force"), opts...)
				}),
			},
			{
				Name:  "watch",
				Usage: "Sync, then re-sync whenever the content tree changes",
				Action: withConfig(func(ctx context.Context, _ *cli.Command, opts ...internal.Option) error {
					return internal.Watch(ctx, opts...)
				}),
			},
			{
				Name:      "resolve",
				Usage:     "Print the canonical address of a content path",
				ArgsUsage: "<path>",
				Action: withConfig(func(_ context.Context, cmd *cli.Command, opts ...internal.Option) error {
					if cmd.Args().Len() != 1 {
						return errors.New("resolve: expected exactly one path")
					}
					return internal.Resolve(cmd.Args().First(), opts...)
				}),
			},
			{
				Name:  "mcp",
				Usage: "Serve the pipeline as MCP tools over stdio",
				Action: withConfig(func(ctx context.Context, _ *cli.Command, opts ...internal.Option) error {
					return internal.ServeMCP(ctx, version, opts...)
				}),
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}
}
