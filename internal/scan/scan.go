// Package scan drives analysis of candidate files in parallel.
package scan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/phobologic/execscan/internal/analyze"
	"github.com/phobologic/execscan/internal/config"
	"github.com/phobologic/execscan/internal/discover"
	"github.com/phobologic/execscan/internal/model"
	"github.com/phobologic/execscan/internal/source"
)

// Analyzer classifies the candidate lines of files under a root directory.
type Analyzer struct {
	root     string
	call     string
	opts     []analyze.Option
	log      *slog.Logger
	progress io.Writer
	workers  int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithConfig applies the analysis settings of cfg.
func WithConfig(cfg *config.Config) Option {
	return func(a *Analyzer) {
		a.call = cfg.Call
		a.opts = append(a.opts,
			analyze.WithCall(cfg.Call),
			analyze.WithMarkers(cfg.Markers),
			analyze.WithResultType(cfg.ResultType),
			analyze.WithStaticClasses(cfg.StaticClasses),
			analyze.WithStatementWindow(cfg.StatementWindow),
			analyze.WithFieldRegionLines(cfg.FieldRegionLines),
			analyze.WithMaxDepth(cfg.MaxExpansionDepth),
		)
	}
}

// WithLogger sets the logger for warnings and diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.log = l }
}

// WithProgress writes a progress line to w as each file completes.
func WithProgress(w io.Writer) Option {
	return func(a *Analyzer) { a.progress = w }
}

// WithWorkers bounds the number of files analyzed at once.
func WithWorkers(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// New returns an Analyzer for files relative to root.
func New(root string, opts ...Option) *Analyzer {
	a := &Analyzer{
		root:    root,
		call:    config.DefaultCall,
		log:     slog.Default(),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run analyzes every candidate line of files. Sites come back grouped by
// file in the order of files, and by line order within a file. A file that
// cannot be read is analyzed as empty, so its candidates are reported as
// omitted. Run stops scheduling files once ctx is done.
func (a *Analyzer) Run(ctx context.Context, files []model.FileCandidates) ([]model.Site, error) {
	results := make([][]model.Site, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	var (
		mu   sync.Mutex
		done int
	)
	for i, f := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.analyzeFile(f)

			if a.progress != nil {
				mu.Lock()
				done++
				_, _ = fmt.Fprintf(a.progress, "\rCurrent Progress: File %d/%d", done, len(files))
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if a.progress != nil && len(files) > 0 {
		_, _ = fmt.Fprintln(a.progress)
	}

	var sites []model.Site
	for _, r := range results {
		sites = append(sites, r...)
	}
	return sites, nil
}

func (a *Analyzer) analyzeFile(f model.FileCandidates) []model.Site {
	idx, err := source.Open(filepath.Join(a.root, f.Path), source.WithPreference(source.ContainsCall(a.call)))
	if err != nil {
		a.log.Warn("failed to read file", slog.String("path", f.Path), slog.Any("err", err))
	}
	p := analyze.New(idx, append(a.opts, analyze.WithLogger(a.log))...)
	a.log.Debug("indexed file",
		slog.String("path", f.Path),
		slog.String("class", p.Index().ClassName()),
		slog.Int("methods", len(p.Index().FunctionNames())),
		slog.Int("lines", p.Index().LineCount()))

	sites := make([]model.Site, 0, len(f.Lines))
	for _, line := range f.Lines {
		sites = append(sites, p.AnalyzeSite(f.Path, line))
	}
	return sites
}

// Filter drops the files whose paths do not pass f.
func Filter(files []model.FileCandidates, f discover.Filter) []model.FileCandidates {
	var kept []model.FileCandidates
	for _, fc := range files {
		if f.Match(fc.Path) {
			kept = append(kept, fc)
		}
	}
	return kept
}
