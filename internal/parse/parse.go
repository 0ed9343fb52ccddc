// Package parse finds call sites in source files using tree-sitter.
package parse

import (
	"context"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/execscan/internal/lang"
	"github.com/phobologic/execscan/internal/model"
)

// ExtractCallSites parses a source file and returns every invocation of
// callName, in source order. The parser must be created for the correct
// language. filePath is used only for CallSite.Path and should be the
// repo-relative path.
//
// A site's line is the first line of the statement that holds the call, so a
// call wrapped onto a continuation line is reported where its statement
// starts.
func ExtractCallSites(l *lang.Language, parser *sitter.Parser, query *sitter.Query, source []byte, filePath, callName string) []model.CallSite {
	if len(source) == 0 {
		return nil
	}

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	var sites []model.CallSite

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		var nameNode, callNode *sitter.Node
		for _, c := range match.Captures {
			switch query.CaptureNameForId(c.Index) {
			case "name":
				nameNode = c.Node
			case "reference.call":
				callNode = c.Node
			}
		}

		if nameNode == nil || callNode == nil {
			continue
		}
		if nodeText(nameNode, source) != callName {
			continue
		}

		site := model.CallSite{
			Path: filePath,
			Line: int(statementOf(callNode).StartPoint().Row) + 1,
		}
		if l.EnclosingMethod != nil {
			site.Method = l.EnclosingMethod(callNode, source)
		}
		if l.Receiver != nil {
			site.Receiver = l.Receiver(callNode, source)
		}
		sites = append(sites, site)
	}

	return sites
}

// Lines returns the distinct lines of sites in ascending order.
func Lines(sites []model.CallSite) []int {
	var lines []int
	seen := make(map[int]bool, len(sites))
	for _, s := range sites {
		if seen[s.Line] {
			continue
		}
		seen[s.Line] = true
		lines = append(lines, s.Line)
	}
	sort.Ints(lines)
	return lines
}

func nodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// statementOf returns the innermost statement or declaration containing
// node, or node itself when there is none.
func statementOf(node *sitter.Node) *sitter.Node {
	for n := node; n != nil; n = n.Parent() {
		t := n.Type()
		if strings.HasSuffix(t, "_statement") || t == "local_variable_declaration" || t == "field_declaration" {
			return n
		}
	}
	return node
}
