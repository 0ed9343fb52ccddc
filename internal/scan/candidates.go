package scan

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	sitter "github.com/smacker/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/execscan/internal/discover"
	"github.com/phobologic/execscan/internal/lang"
	"github.com/phobologic/execscan/internal/model"
	"github.com/phobologic/execscan/internal/parse"
)

type parserPair struct {
	lang   *lang.Language
	parser *sitter.Parser
	query  *sitter.Query
}

// Candidates finds the files under root that pass filter and parses each one
// for invocations of call. Only files with at least one invocation are
// returned, sorted by path.
func Candidates(ctx context.Context, root string, filter discover.Filter, call string, logger *slog.Logger) ([]model.FileCandidates, error) {
	if logger == nil {
		logger = slog.Default()
	}
	files, err := discover.Files(root, filter)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	numWorkers := min(runtime.GOMAXPROCS(0), len(files))
	work := make(chan int)
	indexed := make([][]model.CallSite, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for range numWorkers {
		g.Go(func() error {
			// Each worker owns its parsers.
			parsers := make(map[string]*parserPair)

			for i := range work {
				f := files[i]
				pp, ok := parsers[f.Language]
				if !ok {
					l := lang.Languages[f.Language]
					q, err := l.GetCallQuery()
					if err != nil {
						logger.Warn("failed to compile query",
							slog.String("language", f.Language), slog.Any("err", err))
						continue
					}
					pp = &parserPair{lang: l, parser: l.NewParser(), query: q}
					parsers[f.Language] = pp
				}

				src, err := os.ReadFile(filepath.Join(root, f.Path))
				if err != nil {
					logger.Warn("failed to parse file", slog.String("path", f.Path), slog.Any("err", err))
					continue
				}
				indexed[i] = parse.ExtractCallSites(pp.lang, pp.parser, pp.query, src, filepath.ToSlash(f.Path), call)
				for _, cs := range indexed[i] {
					logger.Debug("call site",
						slog.String("path", cs.Path),
						slog.Int("line", cs.Line),
						slog.String("method", cs.Method),
						slog.String("receiver", cs.Receiver))
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(work)
		for i := range files {
			select {
			case work <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []model.FileCandidates
	for i, sites := range indexed {
		if len(sites) == 0 {
			continue
		}
		out = append(out, model.FileCandidates{
			Path:   filepath.ToSlash(files[i].Path),
			Lines:  parse.Lines(sites),
			Source: model.FromParse,
		})
	}
	return out, nil
}
