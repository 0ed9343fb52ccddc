// Package source locates the class name and method spans of a source file
// without parsing it. Spans are found by counting braces line by line.
package source

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/phobologic/execscan/internal/text"
)

var (
	classRe      = regexp.MustCompile(`class ([A-Z]\w+)`)
	methodRe     = regexp.MustCompile(`^\s*(?:(?:public|private|protected)\s+)?[^=.]*\w\(`)
	annotationRe = regexp.MustCompile(`^\s*(?:@[\w.]+(?:\([^)]*\))?\s+)+`)
)

// Span is an inclusive, 1-based line range.
type Span struct {
	Start int
	End   int
}

// Contains reports whether line falls inside s.
func (s Span) Contains(line int) bool {
	return line >= s.Start && line <= s.End
}

// Index holds the class name and method spans of one file, along with the
// file's lines. It is read-only once built.
type Index struct {
	className string
	methods   map[string][]Span
	names     []string
	lines     []string
	prefer    func(body string) bool
}

// Option configures an Index.
type Option func(*Index)

// WithPreference sets the predicate Bounds uses to choose between overloads.
func WithPreference(fn func(body string) bool) Option {
	return func(idx *Index) { idx.prefer = fn }
}

// ContainsCall returns a span preference that selects bodies calling
// ".<name>(".
func ContainsCall(name string) func(string) bool {
	needle := "." + name + "("
	return func(body string) bool { return strings.Contains(body, needle) }
}

// Open reads path and builds its index. An unreadable file yields an empty
// index together with the read error.
func Open(path string, opts ...Option) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Build(nil, opts...), fmt.Errorf("reading %s: %w", path, err)
	}
	return Build(data, opts...), nil
}

// Build indexes src.
func Build(src []byte, opts ...Option) *Index {
	idx := &Index{
		methods: make(map[string][]Span),
		prefer:  ContainsCall("exec"),
	}
	for _, o := range opts {
		o(idx)
	}
	if len(src) == 0 {
		return idx
	}

	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
	idx.lines = strings.Split(strings.TrimSuffix(string(src), "\n"), "\n")
	idx.scan()

	idx.names = make([]string, 0, len(idx.methods))
	for name := range idx.methods {
		idx.names = append(idx.names, name)
	}
	sort.Strings(idx.names)
	return idx
}

func (idx *Index) scan() {
	n := 0

	// Locate the class declaration and skip to its opening brace.
	for ; n < len(idx.lines); n++ {
		m := classRe.FindStringSubmatch(idx.lines[n])
		if m == nil {
			continue
		}
		idx.className = m[1]
		for n < len(idx.lines) && !strings.Contains(idx.lines[n], "{") {
			n++
		}
		n++
		break
	}

	var (
		blockDepth    int
		classDepth    int
		currentName   string
		functionStart int
	)
	for ; n < len(idx.lines); n++ {
		line := idx.lines[n]
		lineNumber := n + 1
		opened := false

		if blockDepth == classDepth {
			if name := methodName(line); name != "" {
				currentName = name
				functionStart = lineNumber
				opened = true
			}
		}

		next := blockDepth + braceDelta(line)

		switch {
		case blockDepth > classDepth && next <= classDepth && currentName != "":
			idx.methods[currentName] = append(idx.methods[currentName], Span{functionStart, lineNumber})
			currentName = ""
		case opened && next == classDepth && strings.Contains(line, "{"):
			// Body opens and closes on the signature line.
			idx.methods[currentName] = append(idx.methods[currentName], Span{lineNumber, lineNumber})
			currentName = ""
		}

		if !isCommentLine(line) && classRe.MatchString(line) {
			classDepth++
		}
		if next == classDepth-1 {
			classDepth--
		}
		blockDepth = next
	}
}

// methodName returns the name of the method declared on line, or "".
// Leading annotations are skipped; a line holding only annotations declares
// nothing.
func methodName(line string) string {
	if isCommentLine(line) {
		return ""
	}
	line = annotationRe.ReplaceAllString(line, "")
	if strings.HasPrefix(strings.TrimSpace(line), "@") || !methodRe.MatchString(line) {
		return ""
	}
	head := line[:strings.Index(line, "(")]
	head = strings.TrimRight(head, " \t")
	if i := strings.LastIndexAny(head, " \t"); i >= 0 {
		head = head[i+1:]
	}
	return head
}

// braceDelta is the net brace count of line. Comment lines do not count.
func braceDelta(line string) int {
	if isCommentLine(line) {
		return 0
	}
	return strings.Count(line, "{") - strings.Count(line, "}")
}

func isCommentLine(line string) bool {
	t := strings.TrimSpace(line)
	return strings.HasPrefix(t, "*") || strings.HasPrefix(t, "//") || strings.HasPrefix(t, "/*")
}

// ClassName returns the first class name declared in the file.
func (idx *Index) ClassName() string {
	return idx.className
}

// LineCount returns the number of lines in the file.
func (idx *Index) LineCount() int {
	return len(idx.lines)
}

// FunctionNames returns the indexed method names in sorted order.
func (idx *Index) FunctionNames() []string {
	return append([]string(nil), idx.names...)
}

// Spans returns every span recorded for name.
func (idx *Index) Spans(name string) []Span {
	return append([]Span(nil), idx.methods[name]...)
}

// ReadLines returns the trimmed lines start..end, each followed by a newline.
// Lines outside the file are skipped.
func (idx *Index) ReadLines(start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(idx.lines) {
		end = len(idx.lines)
	}
	var b strings.Builder
	for n := start; n <= end; n++ {
		b.WriteString(text.Trim(idx.lines[n-1]))
		b.WriteByte('\n')
	}
	return b.String()
}

// ReadLine returns a single trimmed line followed by a newline.
func (idx *Index) ReadLine(line int) string {
	return idx.ReadLines(line, line)
}

// FunctionName returns the name of the method whose span contains line, or
// "" when line is outside every method.
func (idx *Index) FunctionName(line int) string {
	for _, name := range idx.names {
		for _, sp := range idx.methods[name] {
			if sp.Contains(line) {
				return name
			}
		}
	}
	return ""
}

// Bounds returns the span for name. With overloads, the first span whose body
// satisfies the preference predicate wins, falling back to the first span.
func (idx *Index) Bounds(name string) (Span, bool) {
	spans := idx.methods[name]
	if len(spans) == 0 {
		return Span{}, false
	}
	if len(spans) > 1 && idx.prefer != nil {
		for _, sp := range spans {
			if idx.prefer(idx.ReadLines(sp.Start, sp.End)) {
				return sp, true
			}
		}
	}
	return spans[0], true
}

// BoundsAt returns the span of the method containing line.
func (idx *Index) BoundsAt(line int) (Span, bool) {
	for _, sp := range idx.methods[idx.FunctionName(line)] {
		if sp.Contains(line) {
			return sp, true
		}
	}
	return Span{}, false
}

// ReadFunction returns the body of the method name as chosen by Bounds.
func (idx *Index) ReadFunction(name string) string {
	sp, ok := idx.Bounds(name)
	if !ok {
		return ""
	}
	return idx.ReadLines(sp.Start, sp.End)
}
