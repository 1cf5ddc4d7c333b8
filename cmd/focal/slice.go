package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/focal/internal/fileproc"
	"github.com/panbanda/focal/internal/output"
	"github.com/panbanda/focal/internal/progress"
	"github.com/panbanda/focal/internal/service/analysis"
	"github.com/panbanda/focal/pkg/watch"
)

func sliceCmd() *cli.Command {
	return &cli.Command{
		Name:      "slice",
		Usage:     "Reduce Java classes to a focal method and the members it reaches",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "method",
				Aliases: []string{"m"},
				Usage:   "Focal method name or declaration",
			},
			&cli.StringFlag{
				Name:  "ref",
				Usage: "Read sources at a git revision",
			},
			&cli.StringFlag{
				Name:  "repo",
				Usage: "Repository for --ref (default: current directory)",
			},
			&cli.BoolFlag{
				Name:  "report",
				Usage: "Print a summary of what each slice removed",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Re-slice files as they change",
			},
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "Quiet period before a changed file is re-sliced",
				Value: watch.DefaultDebounce,
			},
		},
		Action: runSliceCmd,
	}
}

func runSliceCmd(c *cli.Context) error {
	loaded, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg := loaded.Config

	method := getTrailingFlag(c, "method", "m", "")
	if method == "" {
		return errors.New("--method is required")
	}
	opts := analysis.SliceOptions{
		Method: method,
		Ref:    getTrailingFlag(c, "ref", "", ""),
		Repo:   getTrailingFlag(c, "repo", "", ""),
	}

	svc, err := newService(c, cfg)
	if err != nil {
		return err
	}
	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	ctx, stop := signalContext(c.Context)
	defer stop()

	paths := getPaths(c)
	report := hasTrailingBool(c, "report")

	if hasTrailingBool(c, "watch") {
		if opts.Ref != "" {
			return errors.New("--watch cannot be combined with --ref")
		}
		debounce := c.Duration("debounce")
		if v := getTrailingFlag(c, "debounce", "", ""); v != "" && !c.IsSet("debounce") {
			if debounce, err = time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid --debounce: %w", err)
			}
		}
		return watchSlices(ctx, svc, formatter, paths, opts, report, debounce)
	}

	var tracker *progress.Tracker
	opts.OnStart = func(files int) {
		if files > 1 && !formatter.Format().Structured() {
			tracker = progress.NewTracker("Slicing", files, progress.WithWriter(c.App.ErrWriter))
		}
	}
	opts.OnProgress = func(_ string, err error) {
		if tracker == nil {
			return
		}
		if err != nil {
			tracker.Fail()
		} else {
			tracker.Tick()
		}
	}

	slices, err := svc.Slice(ctx, paths, opts)
	if tracker != nil {
		tracker.Finish()
	}
	var perr *fileproc.ProcessingErrors
	if err != nil && !errors.As(err, &perr) {
		return err
	}

	if err := writeSlices(formatter, slices, report); err != nil {
		return err
	}
	if perr != nil {
		for _, e := range perr.Errors {
			formatter.Warning("%s", e.Error())
		}
		return perr
	}
	return nil
}

// writeSlices prints structured formats as one document and text formats as
// one code block per file.
func writeSlices(formatter *output.Formatter, slices []analysis.FileSlice, report bool) error {
	if formatter.Format().Structured() {
		return formatter.Output(slices)
	}

	for _, s := range slices {
		path := ""
		if len(slices) > 1 || formatter.Format() == output.FormatMarkdown {
			path = s.Path
		}
		if err := formatter.Code(path, s.Result.Code); err != nil {
			return err
		}
	}
	if report && len(slices) > 0 {
		return formatter.Output(reportTable(slices))
	}
	return nil
}

func reportTable(slices []analysis.FileSlice) *output.Table {
	rows := make([][]string, 0, len(slices))
	var before, after int
	for _, s := range slices {
		r := s.Result
		rows = append(rows, []string{
			s.Path,
			r.FocalClass,
			strconv.Itoa(len(r.KeptMethods)),
			strconv.Itoa(len(r.RemovedMethods)),
			strconv.Itoa(len(r.RemovedFields)),
			strconv.Itoa(len(r.RemovedImports)),
			strconv.Itoa(len(r.RemovedClasses)),
			s.Tokens.String(),
		})
		before += s.Tokens.BeforeTokens
		after += s.Tokens.AfterTokens
	}

	var footer []string
	if len(slices) > 1 {
		total := output.Reduction{BeforeTokens: before, AfterTokens: after}
		if before > 0 {
			total.Percent = float64(before-after) / float64(before) * 100
		}
		footer = []string{"Total", "", "", "", "", "", "", total.String()}
	}

	return output.NewTable(
		"Slice Report",
		[]string{"File", "Class", "Kept", "Methods", "Fields", "Imports", "Classes", "Tokens"},
		rows,
		footer,
		slices,
	)
}

func watchSlices(ctx context.Context, svc *analysis.Service, formatter *output.Formatter, paths []string, opts analysis.SliceOptions, report bool, debounce time.Duration) error {
	w, err := watch.NewWatcher(paths,
		watch.WithConfig(svc.Config()),
		watch.WithDebounce(debounce),
		watch.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer w.Stop()

	sliceOne := func(path string) {
		slices, err := svc.Slice(ctx, []string{path}, opts)
		if err != nil {
			formatter.Warning("%v", err)
		}
		if len(slices) > 0 {
			if err := writeSlices(formatter, slices, report); err != nil {
				formatter.Warning("%v", err)
			}
		}
	}

	// Initial pass over everything, then one file per change
	slices, err := svc.Slice(ctx, paths, opts)
	var perr *fileproc.ProcessingErrors
	if err != nil && !errors.As(err, &perr) {
		return err
	}
	if err := writeSlices(formatter, slices, report); err != nil {
		return err
	}
	if perr != nil {
		for _, e := range perr.Errors {
			formatter.Warning("%s", e.Error())
		}
	}

	w.SetCallback(sliceOne)
	color.Cyan("Watching for changes (Ctrl+C to stop)...")

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
