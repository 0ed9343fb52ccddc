// Package report aggregates analyzed sites and renders them as text.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/phobologic/execscan/internal/model"
)

// Summarize tallies sites into a report. files are the inputs the sites came
// from; isTest selects the paths counted as test files.
func Summarize(root string, files []model.FileCandidates, sites []model.Site, isTest func(path string) bool) *model.Report {
	r := &model.Report{Root: root, Sites: sites}

	for _, f := range files {
		r.Summary.Files++
		r.Summary.Candidates += len(f.Lines)
		if isTest != nil && isTest(f.Path) {
			r.Summary.TestPaths++
		}
	}

	types := make(map[string]*model.TypeCount)
	for i := range sites {
		s := &sites[i]
		if !s.Counted() {
			r.Summary.Omitted++
			continue
		}
		r.Summary.Uses++
		switch s.Verdict {
		case model.Hardcoded:
			r.Summary.Hardcoded++
		case model.Input:
			r.Summary.Input++
		default:
			r.Summary.Other++
		}

		for _, leaf := range s.Leaves {
			tc, ok := types[leaf.Type]
			if !ok {
				tc = &model.TypeCount{Type: leaf.Type}
				types[leaf.Type] = tc
			}
			tc.Total++
			if leaf.Hardcoded {
				tc.Hardcoded++
			}
			if leaf.Input {
				tc.Input++
			}
		}
	}

	for _, tc := range types {
		r.Types = append(r.Types, *tc)
	}
	sort.Slice(r.Types, func(i, j int) bool {
		return r.Types[i].Type < r.Types[j].Type
	})
	return r
}

// Listings selects which verdicts are listed after the table.
type Listings struct {
	Hardcoded bool
	Input     bool
	Other     bool
}

// Text renders r as the plain-text summary, type table and the selected
// listings.
func Text(r *model.Report, l Listings) string {
	var b strings.Builder
	s := r.Summary

	fmt.Fprintf(&b, "%d candidates given, %d omitted for being commented or lacking Runtime\n", s.Candidates, s.Omitted)
	fmt.Fprintf(&b, "Out of %d uses: %d hardcoded, %d from function input, %d other\n", s.Uses, s.Hardcoded, s.Input, s.Other)
	fmt.Fprintf(&b, "%d/%d file paths contain \"test\"\n", s.TestPaths, s.Files)

	b.WriteString("\nExec Input Table\n\n")
	fmt.Fprintf(&b, "%-20s | %-7s | %-9s | %-7s\n", "Variable Type", "Total", "Hardcoded", "Input")
	b.WriteString(strings.Repeat("-", 48))
	b.WriteByte('\n')
	for _, tc := range r.Types {
		fmt.Fprintf(&b, "%-20s | %-7d | %-9d | %-7d\n", tc.Type, tc.Total, tc.Hardcoded, tc.Input)
	}

	if l.Hardcoded {
		writeUses(&b, "Hardcoded Uses:", r.Sites, model.Hardcoded)
	}
	if l.Input {
		writeUses(&b, "Input Uses:", r.Sites, model.Input)
	}
	if l.Other {
		writeUses(&b, "Other Uses:", r.Sites, model.Other)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func writeUses(b *strings.Builder, title string, sites []model.Site, v model.Verdict) {
	fmt.Fprintf(b, "\n%s\n", title)
	for i := range sites {
		s := &sites[i]
		if !s.Counted() || s.Verdict != v {
			continue
		}
		fmt.Fprintf(b, "%s: %d:\n%s\n", s.Path, s.Line, s.Statement)
	}
}
