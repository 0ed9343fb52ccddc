// Package grep reads search-tool output in "path:line:content" form and
// groups the line numbers by file.
package grep

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/phobologic/execscan/internal/model"
)

const maxRecordSize = 4 * 1024 * 1024

// Record is one parsed line of search output.
type Record struct {
	Path string
	Line int
}

// ParseRecord splits a "path:line:content" record. A leading "./" is removed
// from the path.
func ParseRecord(s string) (Record, error) {
	first := strings.IndexByte(s, ':')
	if first < 0 {
		return Record{}, errors.New("missing ':' after path")
	}
	rest := s[first+1:]
	second := strings.IndexByte(rest, ':')
	if second < 0 {
		return Record{}, errors.New("missing ':' after line number")
	}
	path := strings.TrimPrefix(s[:first], "./")
	if path == "" {
		return Record{}, errors.New("empty path")
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest[:second]))
	if err != nil || n < 1 {
		return Record{}, fmt.Errorf("bad line number %q", rest[:second])
	}
	return Record{Path: path, Line: n}, nil
}

// Parse reads records from r and returns the candidates of each file, sorted
// by path. Line numbers keep their input order and may repeat. Malformed
// records are logged and skipped; only read errors are returned.
func Parse(r io.Reader, logger *slog.Logger) ([]model.FileCandidates, error) {
	if logger == nil {
		logger = slog.Default()
	}

	byPath := make(map[string]*model.FileCandidates)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimSuffix(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		rec, err := ParseRecord(text)
		if err != nil {
			logger.Warn("skipping malformed record", slog.Int("line", n), slog.Any("err", err))
			continue
		}
		fc, ok := byPath[rec.Path]
		if !ok {
			fc = &model.FileCandidates{Path: rec.Path, Source: model.FromGrep}
			byPath[rec.Path] = fc
		}
		fc.Lines = append(fc.Lines, rec.Line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}

	files := make([]model.FileCandidates, 0, len(byPath))
	for _, fc := range byPath {
		files = append(files, *fc)
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files, nil
}
