// Package analyze classifies the arguments of a sensitive call as hardcoded,
// derived from method input, or neither. It works on source text only: method
// bodies come from a source.Index and every expression is handled as a string.
package analyze

import (
	"log/slog"
	"regexp"

	"github.com/phobologic/execscan/internal/source"
	"github.com/phobologic/execscan/internal/text"
)

// Kind is the syntactic category of an expression token.
type Kind int

const (
	Unclassified Kind = iota
	StringLiteral
	IntegerLiteral
	DoubleLiteral
	NullType
	ThisReference
	StaticClassReference
	ConstructorExpression
	CastOrCallExpression
	ArithmeticExpression
	DeclaredVariable
	FunctionCallResult
	ArrayOfStrings
)

var kindNames = [...]string{
	Unclassified:          "Unclassified",
	StringLiteral:         "StringLiteral",
	IntegerLiteral:        "IntegerLiteral",
	DoubleLiteral:         "DoubleLiteral",
	NullType:              "NullType",
	ThisReference:         "ThisReference",
	StaticClassReference:  "StaticClassReference",
	ConstructorExpression: "ConstructorExpression",
	CastOrCallExpression:  "CastOrCallExpression",
	ArithmeticExpression:  "ArithmeticExpression",
	DeclaredVariable:      "DeclaredVariable",
	FunctionCallResult:    "FunctionCallResult",
	ArrayOfStrings:        "ArrayOfStrings",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(?)"
	}
	return kindNames[k]
}

// Type names with special meaning to the hardcoded check.
const (
	TypeString      = "String"
	TypeInt         = "int"
	TypeStringArray = "String[]"
)

// Category is a Kind plus the type name it carries. Type is set for
// DeclaredVariable, ConstructorExpression and ArrayOfStrings; an empty Type on
// a DeclaredVariable means no local declaration was found.
type Category struct {
	Kind Kind
	Type string
}

// Label is the name the category is reported under.
func (c Category) Label() string {
	switch c.Kind {
	case StringLiteral:
		return "String literal"
	case IntegerLiteral:
		return "Integer literal"
	case DoubleLiteral:
		return "Double literal"
	case NullType:
		return "null"
	case StaticClassReference:
		return "Static Class"
	case CastOrCallExpression:
		return "function"
	case ArithmeticExpression:
		return "expression"
	case FunctionCallResult:
		return "function result"
	case ArrayOfStrings:
		return TypeStringArray
	case ThisReference, ConstructorExpression, DeclaredVariable:
		if c.Type == "" {
			return "unknown"
		}
		return c.Type
	case Unclassified:
		return "unclassified"
	}
	return "unclassified"
}

func (c Category) isArray() bool {
	return c.Kind == ArrayOfStrings || (c.Kind == DeclaredVariable && c.Type == TypeStringArray)
}

// expands reports whether tokens of this category are decomposed further.
func (c Category) expands() bool {
	switch c.Kind {
	case CastOrCallExpression, ArithmeticExpression, ArrayOfStrings:
		return true
	case DeclaredVariable:
		return c.Type == TypeStringArray
	case Unclassified, StringLiteral, IntegerLiteral, DoubleLiteral, NullType, ThisReference,
		StaticClassReference, ConstructorExpression, FunctionCallResult:
		return false
	}
	return false
}

// Defaults for a Parser built without options.
const (
	DefaultCall             = "exec"
	DefaultStatementWindow  = 10
	DefaultFieldRegionLines = 1000
	DefaultMaxDepth         = 32
	DefaultResultType       = "Process"
)

// DefaultStaticClasses are the class names treated as fixed references.
var DefaultStaticClasses = []string{"String", "Integer", "System"}

// DefaultMarkers identify statements that invoke the runtime exec directly.
var DefaultMarkers = []string{"Runtime.getRuntime().exec("}

// Parser answers questions about the expressions in one file.
type Parser struct {
	idx           *source.Index
	call          string
	markers       []string
	resultType    string
	staticClasses map[string]struct{}
	window        int
	fieldLines    int
	maxDepth      int
	log           *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithCall sets the name of the sensitive call. Defaults to "exec".
func WithCall(name string) Option {
	return func(p *Parser) { p.call = name }
}

// WithMarkers sets the substrings that mark a statement as a direct exec use.
func WithMarkers(markers []string) Option {
	return func(p *Parser) { p.markers = markers }
}

// WithResultType sets the declared type of variables that receive the call's
// result. An empty type disables the check.
func WithResultType(typ string) Option {
	return func(p *Parser) { p.resultType = typ }
}

// WithStaticClasses sets the class names classified as static references.
func WithStaticClasses(names []string) Option {
	return func(p *Parser) {
		p.staticClasses = make(map[string]struct{}, len(names))
		for _, n := range names {
			p.staticClasses[n] = struct{}{}
		}
	}
}

// WithStatementWindow sets how many lines after a candidate line are read to
// complete a wrapped statement.
func WithStatementWindow(n int) Option {
	return func(p *Parser) { p.window = n }
}

// WithFieldRegionLines sets how many lines count as the field region when the
// class has no constructor.
func WithFieldRegionLines(n int) Option {
	return func(p *Parser) { p.fieldLines = n }
}

// WithMaxDepth bounds recursive expansion.
func WithMaxDepth(n int) Option {
	return func(p *Parser) { p.maxDepth = n }
}

// WithLogger sets the logger for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.log = l }
}

// New returns a Parser over idx.
func New(idx *source.Index, opts ...Option) *Parser {
	p := &Parser{
		idx:        idx,
		call:       DefaultCall,
		markers:    DefaultMarkers,
		resultType: DefaultResultType,
		window:     DefaultStatementWindow,
		fieldLines: DefaultFieldRegionLines,
		maxDepth:   DefaultMaxDepth,
		log:        slog.Default(),
	}
	WithStaticClasses(DefaultStaticClasses)(p)
	for _, o := range opts {
		o(p)
	}
	return p
}

// Index returns the underlying source index.
func (p *Parser) Index() *source.Index {
	return p.idx
}

// FunctionName returns the method containing line.
func (p *Parser) FunctionName(line int) string {
	return p.idx.FunctionName(line)
}

// scope is the method span that names are looked up in. Overloads share a
// name, so a site is analyzed against the span that holds it.
type scope struct {
	name string
	span source.Span
	ok   bool
}

// scopeOf picks the span of method the way Bounds does.
func (p *Parser) scopeOf(method string) scope {
	sp, ok := p.idx.Bounds(method)
	return scope{name: method, span: sp, ok: ok}
}

// scopeAt is the span of the method containing line.
func (p *Parser) scopeAt(line int) scope {
	sp, ok := p.idx.BoundsAt(line)
	return scope{name: p.idx.FunctionName(line), span: sp, ok: ok}
}

// body returns the text of the scope, or "" outside any method.
func (p *Parser) body(s scope) string {
	if !s.ok {
		return ""
	}
	return p.idx.ReadLines(s.span.Start, s.span.End)
}

func (s scope) start() int {
	if !s.ok {
		return 1
	}
	return s.span.Start
}

// fieldRegion is the text above the constructor, where fields are expected.
func (p *Parser) fieldRegion() string {
	end := p.fieldLines
	if sp, ok := p.idx.Bounds(p.idx.ClassName()); ok {
		end = sp.Start - 1
	}
	return p.idx.ReadLines(1, end)
}

// word quotes name for a pattern and, when name ends in a word character,
// stops it from matching a longer identifier.
func word(name string) string {
	q := text.EscapeRegex(name)
	if name != "" && isWordByte(name[len(name)-1]) {
		q += `(?:\W|$)`
	}
	return q
}

// assignee is the pattern prefix that keeps a name from matching the tail of
// a longer identifier or a field access.
const assignee = `(?:^|[^\w.])`

func isWordByte(c byte) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

var (
	digitsRe   = regexp.MustCompile(`^[0-9]+$`)
	doubleRe   = regexp.MustCompile(`^[0-9]*\.[0-9]+$`)
	nullCastRe = regexp.MustCompile(`^\(.*\)\s*null$`)
	groupRe    = regexp.MustCompile(`\(.*\)`)
	newRe      = regexp.MustCompile(`^new\b`)
	newArrayRe = regexp.MustCompile(`^new\s+String\s*\[`)
)
