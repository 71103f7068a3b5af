package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/voyager/internal/analyze"
	"github.com/Zuo-Peng/voyager/internal/config"
	"github.com/Zuo-Peng/voyager/internal/tui"
)

// pipelineFlags are the analysis settings every command accepts. They
// override config values only when given on the command line.
type pipelineFlags struct {
	workers    int
	sequential bool
	top        int
	tz         string
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Parallel workers (0 = number of CPUs)")
	cmd.Flags().BoolVar(&f.sequential, "sequential", false, "Process message logs one at a time")
	cmd.Flags().IntVar(&f.top, "top", 100, "Words kept in the word table (-1 = all)")
	cmd.Flags().StringVar(&f.tz, "tz", "", `Time zone for hour/day buckets, e.g. "Europe/Berlin" or "local"`)
}

func (f *pipelineFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("workers") {
		cfg.Workers = f.workers
	}
	if cmd.Flags().Changed("sequential") {
		cfg.Sequential = f.sequential
	}
	if cmd.Flags().Changed("top") {
		cfg.TopWords = f.top
	}
	if cmd.Flags().Changed("tz") {
		cfg.Timezone = f.tz
	}
}

// setup loads config, applies flags, and builds pipeline options.
func (f *pipelineFlags) setup(cmd *cobra.Command) (*config.Config, analyze.Options, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, analyze.Options{}, fmt.Errorf("load config: %w", err)
	}
	f.apply(cmd, cfg)

	loc, err := cfg.Location()
	if err != nil {
		return nil, analyze.Options{}, err
	}
	log, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, analyze.Options{}, err
	}

	return cfg, analyze.Options{
		Workers:    cfg.Workers,
		Sequential: cfg.Sequential,
		TopWords:   cfg.TopWords,
		Location:   loc,
		Logger:     log,
	}, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	lvl, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl})), nil
}

// runPipeline analyzes path, drawing a progress bar when stderr is a terminal.
func runPipeline(ctx context.Context, cmd *cobra.Command, path string, opts analyze.Options) (*analyze.Result, error) {
	if !isTerminal(cmd.ErrOrStderr()) {
		return analyze.Process(ctx, path, opts)
	}

	var res *analyze.Result
	title := "Analyzing " + filepath.Base(path)
	err := tui.RunWithProgress(ctx, title, func(ctx context.Context, p analyze.Progress) error {
		opts.Progress = p
		var err error
		res, err = analyze.Process(ctx, path, opts)
		return err
	})
	return res, err
}

// reportWarnings summarizes non-fatal problems on stderr.
func reportWarnings(w io.Writer, res *analyze.Result) {
	if res.IndexErr != nil {
		fmt.Fprintf(w, "WARN: channel index unreadable, names will show as Unknown: %v\n", res.IndexErr)
	}
	for _, f := range res.FailedSources {
		fmt.Fprintf(w, "WARN: skipped %s: %v\n", f.Path, f.Err)
	}
	if res.SkippedRows > 0 {
		fmt.Fprintf(w, "WARN: %d malformed rows skipped\n", res.SkippedRows)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
