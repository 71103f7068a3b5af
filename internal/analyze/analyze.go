// Package analyze runs the aggregation pipeline over an enumerated package:
// every message log is parsed and folded into a worker-owned aggregate, and
// the worker aggregates are merged into one result.
package analyze

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Zuo-Peng/voyager/internal/parse"
	"github.com/Zuo-Peng/voyager/internal/scan"
	"github.com/Zuo-Peng/voyager/internal/stats"
)

// Progress receives "N of M sources completed" updates. SetTotal is called
// once before any Advance; calls are never concurrent.
type Progress interface {
	SetTotal(n int)
	Advance()
}

type Options struct {
	Workers    int  // <= 0 uses runtime.NumCPU()
	Sequential bool // one aggregate, sources in order
	TopWords   int  // 0 uses stats.DefaultTopWords, < 0 keeps every word
	Location   *time.Location
	Progress   Progress
	Logger     *slog.Logger
}

// SourceError records a message log that could not be read. Rows read from
// it before the failure are not part of the result.
type SourceError struct {
	ChannelID string
	Path      string
	Err       error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e SourceError) Unwrap() error { return e.Err }

// Result is the outcome of one run.
type Result struct {
	Stats         *stats.Stats
	Kind          scan.Kind
	Sources       int
	SkippedRows   int
	FailedSources []SourceError
	IndexErr      error
	Duration      time.Duration
}

func (r Result) String() string {
	var messages int64
	if r.Stats != nil {
		messages = r.Stats.TotalMessages
	}
	return fmt.Sprintf("sources=%d failed=%d skipped_rows=%d messages=%d duration=%s",
		r.Sources, len(r.FailedSources), r.SkippedRows, messages, r.Duration.Round(time.Millisecond))
}

// Process enumerates the package at path and aggregates it.
func Process(ctx context.Context, path string, opts Options) (*Result, error) {
	pkg, err := scan.Enumerate(path)
	if err != nil {
		return nil, err
	}
	defer pkg.Close()

	return Run(ctx, pkg, opts)
}

// Run aggregates an already enumerated package. A cancelled ctx is honored
// between sources and yields no result.
func Run(ctx context.Context, pkg *scan.Package, opts Options) (*Result, error) {
	start := time.Now()
	log := opts.logger()

	if pkg.IndexErr != nil {
		log.Warn("channel index unreadable, continuing without channel names", "root", pkg.Root, "error", pkg.IndexErr)
	}

	r := &runner{
		opts:     opts,
		log:      log,
		progress: &serialProgress{p: opts.Progress},
		final:    stats.New(),
	}
	r.progress.SetTotal(len(pkg.Sources))

	var err error
	workers := opts.workers(len(pkg.Sources))
	if opts.Sequential || workers <= 1 {
		err = r.sequential(ctx, pkg.Sources)
	} else {
		err = r.parallel(ctx, pkg.Sources, workers)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(r.failed, func(i, j int) bool { return r.failed[i].Path < r.failed[j].Path })

	r.final.ChannelNames = maps.Clone(pkg.Index)
	if r.final.ChannelNames == nil {
		r.final.ChannelNames = map[string]string{}
	}
	r.final.Finalize(opts.topWords())

	res := &Result{
		Stats:         r.final,
		Kind:          pkg.Kind,
		Sources:       len(pkg.Sources),
		SkippedRows:   r.skipped,
		FailedSources: r.failed,
		IndexErr:      pkg.IndexErr,
		Duration:      time.Since(start),
	}
	log.Debug("analysis complete", "result", res.String())
	return res, nil
}

type runner struct {
	opts     Options
	log      *slog.Logger
	progress *serialProgress

	mu      sync.Mutex // guards final, skipped, failed
	final   *stats.Stats
	skipped int
	failed  []SourceError
}

func (r *runner) sequential(ctx context.Context, sources []scan.Source) error {
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		if part := r.process(src); part != nil {
			r.final.Merge(part)
		}
		r.progress.Advance()
	}
	return nil
}

// parallel fans sources out to workers. Each worker owns its aggregate until
// it runs out of sources, then merges it into the final one under r.mu.
func (r *runner) parallel(ctx context.Context, sources []scan.Source, workers int) error {
	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan scan.Source)

	g.Go(func() error {
		defer close(jobs)
		for _, src := range sources {
			select {
			case jobs <- src:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for range workers {
		g.Go(func() error {
			local := stats.New()
			for src := range jobs {
				if err := gctx.Err(); err != nil {
					return err
				}
				if part := r.process(src); part != nil {
					local.Merge(part)
				}
				r.progress.Advance()
			}

			r.mu.Lock()
			r.final.Merge(local)
			r.mu.Unlock()
			return nil
		})
	}

	return g.Wait()
}

// process parses one source into a fresh aggregate. It returns nil if the
// source failed; the failure is recorded and the run continues.
func (r *runner) process(src scan.Source) *stats.Stats {
	part, skipped, err := aggregateSource(src, r.opts.Location, r.log)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped += skipped
	if err != nil {
		r.failed = append(r.failed, SourceError{ChannelID: src.ChannelID, Path: src.Path, Err: err})
		r.log.Warn("skipping unreadable message log", "path", src.Path, "channel", src.ChannelID, "error", err)
		return nil
	}
	return part
}

func aggregateSource(src scan.Source, loc *time.Location, log *slog.Logger) (*stats.Stats, int, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, 0, fmt.Errorf("open: %w", err)
	}
	defer rc.Close()

	skipped := 0
	opts := parse.Options{
		Location: loc,
		OnSkip: func(line int, err error) {
			skipped++
			var serr *parse.SkipError
			if errors.As(err, &serr) && serr.Lines() > 1 {
				log.Warn("malformed record swallowed several lines", "path", src.Path,
					"from", serr.StartLine, "to", serr.EndLine, "error", serr.Err)
				return
			}
			log.Debug("skipping malformed row", "path", src.Path, "line", line, "error", err)
		},
	}

	part := stats.New()
	for row, err := range parse.Rows(rc, opts) {
		if err != nil {
			return nil, skipped, err
		}
		part.Add(src.ChannelID, row)
	}
	return part, skipped, nil
}

func (o Options) workers(sources int) int {
	n := o.Workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > sources {
		n = sources
	}
	return n
}

func (o Options) topWords() int {
	if o.TopWords == 0 {
		return stats.DefaultTopWords
	}
	return o.TopWords
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serialProgress forwards to an optional sink one call at a time.
type serialProgress struct {
	mu sync.Mutex
	p  Progress
}

func (s *serialProgress) SetTotal(n int) {
	if s.p == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.SetTotal(n)
}

func (s *serialProgress) Advance() {
	if s.p == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.Advance()
}
