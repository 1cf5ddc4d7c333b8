package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/focal/internal/cache"
	"github.com/panbanda/focal/internal/output"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the slice result cache",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cache size and entry ages",
				Action: runCacheStats,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cached slice",
				Action: runCacheClear,
			},
		},
	}
}

func openCache(c *cli.Context) (*cache.Cache, error) {
	loaded, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	rc, err := cache.FromConfig(loaded.Config.Cache)
	if err != nil {
		return nil, err
	}
	if !rc.Enabled() {
		color.Yellow("Cache is disabled in the configuration.")
	}
	return rc, nil
}

func runCacheStats(c *cli.Context) error {
	rc, err := openCache(c)
	if err != nil {
		return err
	}
	stats, err := rc.GetStats()
	if err != nil {
		return err
	}

	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	formatter, err := newFormatter(c, loaded.Config)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(output.NewTable(
		"Cache",
		[]string{"Directory", "Entries", "Size", "Oldest", "Newest"},
		[][]string{{
			stats.Dir,
			fmt.Sprintf("%d", stats.Entries),
			formatBytes(stats.TotalSize),
			stats.OldestAge.Round(time.Second).String(),
			stats.NewestAge.Round(time.Second).String(),
		}},
		nil,
		stats,
	))
}

func runCacheClear(c *cli.Context) error {
	rc, err := openCache(c)
	if err != nil {
		return err
	}
	if !rc.Enabled() {
		return nil
	}
	if err := rc.Clear(); err != nil {
		return err
	}
	color.Green("Cache cleared")
	return nil
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
