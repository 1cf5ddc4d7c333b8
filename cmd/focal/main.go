package main

import (
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/focal/internal/logging"
	"github.com/panbanda/focal/pkg/config"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

const envLogLevel = "FOCAL_LOG_LEVEL"

func main() {
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "focal",
		Usage:    "Java call graphs and focal-method slicing",
		Version:  version,
		Metadata: make(map[string]any),
		Description: `focal builds call graphs from a whole-program analyzer's dependency
edge feed and slices Java classes down to a focal method plus the members
it reaches, producing minimal context for code-understanding pipelines.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{config.EnvConfigPath},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, toon (default from config)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable the slice result cache",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			level := logging.ParseLevel(os.Getenv(envLogLevel))
			if c.Bool("verbose") {
				level = slog.LevelDebug
			}
			slog.SetDefault(logging.New(level, c.App.ErrWriter))
			return nil
		},
		Commands: []*cli.Command{
			sliceCmd(),
			callgraphCmd(),
			mcpCmd(),
			configCmd(),
			cacheCmd(),
		},
	}
}
