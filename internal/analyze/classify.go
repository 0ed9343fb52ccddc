package analyze

import (
	"strings"

	"github.com/phobologic/execscan/internal/text"
)

// declaration matches "<type> " in front of a name. Generic, array and
// varargs types are included.
const declaration = `([\w<>]+(?:\s*\[\s*\])*(?:\.\.\.)?)[ \t]+`

// normalizeType removes the whitespace a declaration may carry, so that
// "String [] args" and "String[] args" agree.
func normalizeType(typ string) string {
	return strings.Join(strings.Fields(typ), "")
}

// notTypes are words that can precede a name without declaring it.
var notTypes = map[string]bool{
	"return":     true,
	"new":        true,
	"throw":      true,
	"else":       true,
	"case":       true,
	"instanceof": true,
	"import":     true,
	"package":    true,
}

// Classify assigns token a category using the textual rules in order:
// literals, null, static class references, constructors, casts and calls,
// arithmetic, and finally a declared variable looked up in method.
func (p *Parser) Classify(token, method string) Category {
	return p.classify(token, p.scopeOf(method))
}

func (p *Parser) classify(token string, s scope) Category {
	token = text.Trim(token)
	switch {
	case token == "":
		return Category{Kind: Unclassified}
	case isStringLiteral(token):
		return Category{Kind: StringLiteral}
	case digitsRe.MatchString(token):
		return Category{Kind: IntegerLiteral}
	case doubleRe.MatchString(token):
		return Category{Kind: DoubleLiteral}
	case token == "this":
		return Category{Kind: DeclaredVariable, Type: p.idx.ClassName()}
	case token == "null" || nullCastRe.MatchString(token):
		return Category{Kind: NullType}
	}
	if _, ok := p.staticClasses[token]; ok {
		return Category{Kind: StaticClassReference}
	}
	switch {
	case newRe.MatchString(token):
		return constructorCategory(token)
	case groupRe.MatchString(token):
		return Category{Kind: CastOrCallExpression}
	case len(text.SplitNotAtDepth(token, "+")) > 1:
		return Category{Kind: ArithmeticExpression}
	}
	return Category{Kind: DeclaredVariable, Type: p.declaredType(token, s)}
}

// isStringLiteral reports whether token is exactly one double-quoted string.
func isStringLiteral(token string) bool {
	if len(token) < 2 || token[0] != '"' {
		return false
	}
	for i := 1; i < len(token); i++ {
		switch token[i] {
		case '\\':
			i++
		case '"':
			return i == len(token)-1
		}
	}
	return false
}

func constructorCategory(token string) Category {
	if newArrayRe.MatchString(token) {
		return Category{Kind: ArrayOfStrings, Type: TypeStringArray}
	}
	rest := strings.TrimLeft(token[len("new"):], " \t")
	if i := strings.IndexAny(rest, " {("); i >= 0 {
		rest = rest[:i]
	}
	return Category{Kind: ConstructorExpression, Type: rest}
}

// declaredType finds the type a name is declared with inside the scope. The
// first declaration on an uncommented line wins; "" means none was found.
func (p *Parser) declaredType(name string, s scope) string {
	body := p.body(s)
	if body == "" {
		return ""
	}
	start := s.start()
	pattern := declaration + word(name)
	for from := 0; ; {
		loc := text.RegexFindIndex(body, pattern, from)
		if loc == nil {
			return ""
		}
		typ := normalizeType(body[loc[2]:loc[3]])
		line := start + strings.Count(body[:loc[0]], "\n")
		if !notTypes[typ] && !p.IsCommented(line) {
			return typ
		}
		from = loc[0] + 1
	}
}

// ClassifyMember looks name up among the class fields. The result is a
// DeclaredVariable whose Type is "" when no field declaration was found.
func (p *Parser) ClassifyMember(name string) Category {
	region := p.fieldRegion()
	pattern := `([\w<>]+(?:\s*\[\s*\])*)\s+` + text.EscapeRegex(text.Trim(name)) + `\s*[=;]`
	for from := 0; ; {
		loc := text.RegexFindIndex(region, pattern, from)
		if loc == nil {
			return Category{Kind: DeclaredVariable}
		}
		if typ := normalizeType(region[loc[2]:loc[3]]); !notTypes[typ] {
			return Category{Kind: DeclaredVariable, Type: typ}
		}
		from = loc[0] + 1
	}
}

// Resolve classifies token in method, falling back to the class fields when
// the token is a variable with no local declaration.
func (p *Parser) Resolve(token, method string) Category {
	return p.resolve(token, p.scopeOf(method))
}

func (p *Parser) resolve(token string, s scope) Category {
	c := p.classify(token, s)
	if c.Kind == DeclaredVariable && c.Type == "" {
		return p.ClassifyMember(token)
	}
	return c
}

// IsInput reports whether token is declared as a parameter of method: its
// resolved type followed by the name appears before the method's opening
// brace.
func (p *Parser) IsInput(token, method string) bool {
	return p.isInput(token, p.scopeOf(method))
}

func (p *Parser) isInput(token string, s scope) bool {
	token = text.Trim(token)
	body := p.body(s)
	if body == "" || token == "" {
		return false
	}
	header := body
	if i := strings.Index(body, "{"); i >= 0 {
		header = body[:i]
	}
	c := p.classify(token, s)
	if c.Kind != DeclaredVariable || c.Type == "" {
		return false
	}
	if c.Type == TypeStringArray && text.RegexFind(header, `String\s*\[\]\s*`+word(token), 0) != text.NotFound {
		return true
	}
	return text.RegexFind(header, text.EscapeRegex(c.Type)+`\s+`+word(token), 0) != text.NotFound
}
