// Package text provides the string primitives the analyzer is built on:
// trimming, regex search from an offset, and splitting or replacing that
// respects bracket and quote nesting.
package text

import (
	"log/slog"
	"regexp"
	"strings"
	"sync"
)

// NotFound is returned by the search helpers when nothing matches.
const NotFound = -1

// sentinel stands in for a delimiter at depth > 0 while splitting.
const sentinel = "\x00"

var patterns sync.Map // string -> *regexp.Regexp

// Trim removes leading and trailing spaces and tabs. Other whitespace,
// including newlines, is kept.
func Trim(s string) string {
	return strings.Trim(s, " \t")
}

// EscapeRegex quotes s so it matches literally inside a larger pattern.
func EscapeRegex(s string) string {
	return regexp.QuoteMeta(s)
}

// Compile returns the compiled pattern, caching it for later calls. An
// invalid pattern is logged and reported as ok == false.
func Compile(pattern string) (*regexp.Regexp, bool) {
	if re, ok := patterns.Load(pattern); ok {
		return re.(*regexp.Regexp), true
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		slog.Warn("invalid pattern", slog.String("pattern", pattern), slog.Any("err", err))
		return nil, false
	}
	patterns.Store(pattern, re)
	return re, true
}

// RegexFind returns the offset of the first match of pattern in s at or after
// from, or NotFound.
func RegexFind(s, pattern string, from int) int {
	loc := RegexFindIndex(s, pattern, from)
	if loc == nil {
		return NotFound
	}
	return loc[0]
}

// RegexFindIndex is like RegexFind but returns the full submatch index slice,
// with offsets relative to the start of s.
func RegexFindIndex(s, pattern string, from int) []int {
	if from < 0 {
		from = 0
	}
	if from > len(s) {
		return nil
	}
	re, ok := Compile(pattern)
	if !ok {
		return nil
	}
	loc := re.FindStringSubmatchIndex(s[from:])
	if loc == nil {
		return nil
	}
	for i := range loc {
		if loc[i] >= 0 {
			loc[i] += from
		}
	}
	return loc
}

// Scanner tracks nesting depth one byte at a time. Parentheses and braces
// open and close; each quote character flips between +1 and -1 on successive
// occurrences. Escaped quotes are not recognised.
type Scanner struct {
	depth  int
	quotes [2]int
}

// NewScanner returns a scanner at depth zero.
func NewScanner() Scanner {
	return Scanner{quotes: [2]int{-1, -1}}
}

// Step consumes c and returns the depth including it.
func (s *Scanner) Step(c byte) int {
	switch c {
	case '(', '{':
		s.depth++
	case ')', '}':
		s.depth--
	case '"':
		s.quotes[0] = -s.quotes[0]
		s.depth += s.quotes[0]
	case '\'':
		s.quotes[1] = -s.quotes[1]
		s.depth += s.quotes[1]
	}
	return s.depth
}

// Depth returns the depth at position pos of s. Positions outside s are at
// depth zero.
func Depth(s string, pos int) int {
	if pos < 0 || pos >= len(s) {
		return 0
	}
	sc := NewScanner()
	d := 0
	for i := 0; i <= pos; i++ {
		d = sc.Step(s[i])
	}
	return d
}

// ReplaceAtDepth replaces every occurrence of old that starts at depth > 0.
func ReplaceAtDepth(s, old, new string) string {
	if old == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	sc := NewScanner()
	for i := 0; i < len(s); i++ {
		d := sc.Step(s[i])
		if d > 0 && strings.HasPrefix(s[i:], old) {
			b.WriteString(new)
			for j := 1; j < len(old); j++ {
				sc.Step(s[i+j])
			}
			i += len(old) - 1
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// SplitNotAtDepth splits s around each occurrence of delim at depth zero.
//
//	SplitNotAtDepth("a,(b,c),d", ",") == []string{"a", "(b,c)", "d"}
func SplitNotAtDepth(s, delim string) []string {
	masked := ReplaceAtDepth(s, delim, sentinel)
	parts := strings.Split(masked, delim)
	for i := range parts {
		parts[i] = strings.ReplaceAll(parts[i], sentinel, delim)
	}
	return parts
}

// FlattenLines replaces newlines with spaces.
func FlattenLines(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}
