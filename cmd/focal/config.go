package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/focal/pkg/config"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a config file with the default settings",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Value: "focal.toml", Usage: "File to create"},
					&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing file"},
				},
				Action: runConfigInit,
			},
			{
				Name:  "show",
				Usage: "Show the effective configuration",
				Description: `Shows the merged configuration from defaults and config file.

Examples:
  focal config show               # Show effective config
  focal -c focal.toml config show # Show config from specific file`,
				Action: runConfigShow,
			},
			{
				Name:  "validate",
				Usage: "Validate a configuration file",
				Description: `Validates a focal configuration file for syntax errors and invalid values.

Examples:
  focal config validate                 # Validates default config locations
  focal -c focal.toml config validate   # Validates specific file`,
				Action: runConfigValidate,
			},
		},
	}
}

func runConfigInit(c *cli.Context) error {
	path := c.String("path")
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	content, err := toml.Marshal(config.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return err
	}
	color.Green("Created %s", path)
	return nil
}

func runConfigShow(c *cli.Context) error {
	result, err := loadConfig(c)
	if err != nil {
		return err
	}
	w := c.App.Writer

	if result.Source != "" {
		fmt.Fprintf(w, "# Configuration from: %s\n\n", result.Source)
	} else {
		fmt.Fprintln(w, "# Default configuration (no config file found)")
	}

	content, err := toml.Marshal(result.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = fmt.Fprint(w, string(content))
	return err
}

func runConfigValidate(c *cli.Context) error {
	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}

	result, err := config.LoadConfig(opts...)
	if err != nil {
		color.Red("Configuration validation failed:")
		for _, e := range unjoin(err) {
			fmt.Fprintf(c.App.Writer, "  - %s\n", e)
		}
		return errors.New("invalid configuration")
	}

	if result.Source != "" {
		color.Green("Configuration valid: %s", result.Source)
	} else {
		color.Yellow("No config file found. Default configuration is valid.")
	}
	return nil
}

// unjoin returns the parts of the first joined error in err's chain.
func unjoin(err error) []error {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if j, ok := e.(interface{ Unwrap() []error }); ok {
			return j.Unwrap()
		}
	}
	return []error{err}
}
