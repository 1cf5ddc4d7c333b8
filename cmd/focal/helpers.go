package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/focal/internal/cache"
	"github.com/panbanda/focal/internal/output"
	"github.com/panbanda/focal/internal/service/analysis"
	"github.com/panbanda/focal/pkg/config"
)

const configKey = "config"

// valueless lists flags that never consume the following argument.
var valueless = []string{"watch", "w", "report", "no-cache", "verbose", "help", "h"}

// getPaths returns positional args with any trailing flags removed,
// defaulting to ["."]. urfave/cli stops parsing flags at the first
// positional argument, so "focal slice A.java --method run" leaves the
// flag in Args.
func getPaths(c *cli.Context) []string {
	args := c.Args().Slice()
	var paths []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if len(arg) > 1 && strings.HasPrefix(arg, "-") {
			name := strings.TrimLeft(arg, "-")
			if !strings.Contains(name, "=") && !slices.Contains(valueless, name) {
				i++
			}
			continue
		}
		paths = append(paths, arg)
	}
	if len(paths) == 0 {
		return []string{"."}
	}
	return paths
}

// getTrailingFlag returns a string flag, looking through trailing args when
// the flag was not parsed.
func getTrailingFlag(c *cli.Context, name, short, defaultValue string) string {
	if c.IsSet(name) {
		return c.String(name)
	}

	args := c.Args().Slice()
	for i, arg := range args {
		for _, prefix := range flagPrefixes(name, short) {
			if arg == prefix && i+1 < len(args) {
				return args[i+1]
			}
			if v, ok := strings.CutPrefix(arg, prefix+"="); ok {
				return v
			}
		}
	}
	return defaultValue
}

// hasTrailingBool reports whether a bool flag was parsed or trails the args.
func hasTrailingBool(c *cli.Context, name string) bool {
	if c.Bool(name) {
		return true
	}
	return slices.Contains(c.Args().Slice(), "--"+name)
}

func flagPrefixes(name, short string) []string {
	prefixes := []string{"--" + name}
	if short != "" {
		prefixes = append(prefixes, "-"+short)
	}
	return prefixes
}

// loadConfig loads the file named by --config, or the first standard config
// file found. The result is memoized for the rest of the invocation.
func loadConfig(c *cli.Context) (*config.LoadResult, error) {
	if r, ok := c.App.Metadata[configKey].(*config.LoadResult); ok {
		return r, nil
	}

	var opts []config.LoadOption
	if path := c.String("config"); path != "" {
		opts = append(opts, config.WithPath(path))
	}
	result, err := config.LoadConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if result.Source != "" {
		slog.Debug("loaded config", slog.String("path", result.Source))
	}
	c.App.Metadata[configKey] = result
	return result, nil
}

// newFormatter builds the formatter selected by --format and --output,
// falling back to the configured format.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	format := getTrailingFlag(c, "format", "f", cfg.Output.Format)
	path := getTrailingFlag(c, "output", "o", "")
	colored := cfg.Output.Color && !color.NoColor
	return output.NewFormatter(output.ParseFormat(format), path, colored)
}

// newService builds the analysis service, with the result cache unless
// --no-cache is given.
func newService(c *cli.Context, cfg *config.Config) (*analysis.Service, error) {
	opts := []analysis.Option{analysis.WithConfig(cfg)}
	if !c.Bool("no-cache") {
		rc, err := cache.FromConfig(cfg.Cache)
		if err != nil {
			return nil, err
		}
		opts = append(opts, analysis.WithCache(rc))
	}
	return analysis.New(opts...), nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
