// Package driver runs the checking pipeline over files and assembles their
// reports.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/funvibe/regionck/internal/analyzer"
	"github.com/funvibe/regionck/internal/cache"
	"github.com/funvibe/regionck/internal/lexer"
	"github.com/funvibe/regionck/internal/parser"
	"github.com/funvibe/regionck/internal/pipeline"
	"github.com/funvibe/regionck/internal/report"
	"github.com/funvibe/regionck/internal/solver"
)

type Options struct {
	Report report.Options

	// Jobs bounds how many files, and functions per file, are checked at
	// once. Zero means one per CPU.
	Jobs int

	// Cache is optional.
	Cache *cache.Cache

	Logger *slog.Logger
}

// Result is the outcome for one input file.
type Result struct {
	Path   string
	Source string
	Report *report.Report
	Cached bool
}

// Driver checks files. One Driver is one run and carries a run id that
// tags its log lines and cache rows.
type Driver struct {
	opts  Options
	runID uuid.UUID
}

func New(opts Options) *Driver {
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Driver{opts: opts, runID: uuid.New()}
}

func (d *Driver) RunID() uuid.UUID {
	return d.runID
}

// Pipeline runs lexer, parser, analyzer and solver over one source.
func (d *Driver) Pipeline(ctx context.Context, path, source string) *pipeline.PipelineContext {
	initialContext := pipeline.NewPipelineContext(source)
	initialContext.FilePath = path
	initialContext.Ctx = ctx
	initialContext.Logger = d.opts.Logger.With("file", path, "run", d.runID.String())

	processingPipeline := pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&analyzer.SemanticAnalyzerProcessor{Jobs: d.opts.Jobs},
		&solver.SolverProcessor{},
	)
	return processingPipeline.Run(initialContext)
}

// CheckSource checks one in-memory source, consulting the cache first. A
// cancelled ctx stops the analysis early and leaves the cache untouched.
func (d *Driver) CheckSource(ctx context.Context, path, source string) *Result {
	var key string
	if d.opts.Cache != nil {
		key = cache.Key(path, source, d.opts.Report)
		if r, ok := d.opts.Cache.Get(ctx, key); ok {
			d.opts.Logger.Debug("cache hit", "file", path)
			return &Result{Path: path, Source: source, Report: r, Cached: true}
		}
	}

	final := d.Pipeline(ctx, path, source)
	r := report.Build(path, final.Checks, final.Errors, d.opts.Report)

	// An interrupted run produces an incomplete report.
	if d.opts.Cache != nil && ctx.Err() == nil {
		if err := d.opts.Cache.Put(ctx, key, d.runID, r); err != nil {
			d.opts.Logger.Warn("cache store failed", "file", path, "err", err)
		}
	}
	return &Result{Path: path, Source: source, Report: r}
}

// CheckFiles reads and checks every path concurrently. Results keep the
// order of paths. Unreadable files abort the run.
func (d *Driver) CheckFiles(ctx context.Context, paths []string) ([]*Result, error) {
	results := make([]*Result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Jobs)
	for i, path := range paths {
		g.Go(func() error {
			src, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			results[i] = d.CheckSource(gctx, path, string(src))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("checking files: %w", err)
	}
	return results, nil
}

// ErrorCount sums the errors of all results.
func ErrorCount(results []*Result) int {
	n := 0
	for _, r := range results {
		n += r.Report.ErrorCount()
	}
	return n
}
