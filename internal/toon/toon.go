// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/execscan/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a Report into TOON format.
func Encode(r *model.Report) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(r.Root)))

	s := r.Summary
	parts = append(parts, formatObject("summary",
		[]string{"candidates", "omitted", "uses", "hardcoded", "input", "other", "test_paths", "files"},
		[]any{s.Candidates, s.Omitted, s.Uses, s.Hardcoded, s.Input, s.Other, s.TestPaths, s.Files}))

	var typeRows [][]any
	for i := range r.Types {
		tc := &r.Types[i]
		typeRows = append(typeRows, []any{tc.Type, tc.Total, tc.Hardcoded, tc.Input})
	}
	parts = append(parts, formatTabular("types", []string{"type", "total", "hardcoded", "input"}, typeRows))

	var siteRows, leafRows [][]any
	for i := range r.Sites {
		site := &r.Sites[i]
		siteRows = append(siteRows, []any{
			site.Path,
			site.Line,
			site.Method,
			string(site.Verdict),
			string(site.Excluded),
			site.Statement,
		})
		for j := range site.Leaves {
			leaf := &site.Leaves[j]
			leafRows = append(leafRows, []any{site.Path, site.Line, leaf.Token, leaf.Type, leaf.Hardcoded, leaf.Input})
		}
	}
	parts = append(parts, formatTabular("sites", []string{"path", "line", "method", "verdict", "excluded", "statement"}, siteRows))

	if len(leafRows) > 0 {
		parts = append(parts, formatTabular("leaves", []string{"path", "line", "token", "type", "hardcoded", "input"}, leafRows))
	}

	return strings.Join(parts, "\n")
}

func formatObject(name string, keys []string, values []any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:", name)
	for i, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %s", k, encodeCell(values[i]))
	}
	return b.String()
}

func formatTabular(name string, columns []string, rows [][]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeCell(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

// encodeCell writes numbers and booleans bare and strings through
// encodeValue.
func encodeCell(v any) string {
	switch v := v.(type) {
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return encodeValue(v)
	}
	return encodeValue(fmt.Sprint(v))
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return quote(value)
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
