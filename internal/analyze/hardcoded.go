package analyze

import (
	"log/slog"
	"strings"

	"github.com/phobologic/execscan/internal/text"
)

// IsHardcoded reports whether token's value is fixed at compile time. Method
// parameters never are. Literals and static class references always are.
// Variables are followed through their assignments and array literals, and
// calls and expressions are hardcoded only when all their leaves are.
// Recursion stops with false on a cycle or at the depth limit.
func (p *Parser) IsHardcoded(token, method string) bool {
	return p.isHardcoded(token, p.scopeOf(method))
}

func (p *Parser) isHardcoded(token string, s scope) bool {
	return p.hardcoded(text.Trim(token), s, make(map[string]bool), 0)
}

func (p *Parser) hardcoded(token string, s scope, active map[string]bool, depth int) bool {
	if active[token] || depth > p.maxDepth {
		p.log.Debug("hardcoded check stopped",
			slog.String("token", token),
			slog.String("method", s.name),
			slog.Int("depth", depth))
		return false
	}
	active[token] = true
	defer delete(active, token)

	if p.isInput(token, s) {
		return false
	}

	c := p.resolve(token, s)
	switch c.Kind {
	case StringLiteral, IntegerLiteral, DoubleLiteral, NullType, StaticClassReference:
		return true
	case DeclaredVariable:
		switch c.Type {
		case TypeString:
			return p.stringHardcoded(token, s, active, depth)
		case TypeInt:
			return p.intHardcoded(token, s)
		case TypeStringArray:
			return p.arrayHardcoded(token, s, active, depth)
		}
		return strings.HasSuffix(c.Type, " literal")
	case ArrayOfStrings:
		return p.arrayHardcoded(token, s, active, depth)
	case CastOrCallExpression:
		return p.allHardcoded(p.expandAll(p.DecomposeCall(token), s), s, active, depth)
	case ArithmeticExpression:
		return p.allHardcoded(p.expandAll(p.ParseExpression(token), s), s, active, depth)
	case Unclassified, ThisReference, ConstructorExpression, FunctionCallResult:
		return false
	}
	return false
}

func (p *Parser) allHardcoded(leaves []string, s scope, active map[string]bool, depth int) bool {
	for _, leaf := range leaves {
		if !p.hardcoded(text.Trim(leaf), s, active, depth+1) {
			return false
		}
	}
	return true
}

// stringHardcoded follows the first assignment to name in method. Without
// one, a field initialised with a string literal counts.
func (p *Parser) stringHardcoded(name string, s scope, active map[string]bool, depth int) bool {
	if rhs, ok := assignment(p.body(s), name); ok {
		if isStringLiteral(rhs) {
			return true
		}
		return p.hardcoded(rhs, s, active, depth+1)
	}
	pattern := assignee + text.EscapeRegex(name) + `\s*=\s*"`
	return text.RegexFind(p.fieldRegion(), pattern, 0) != text.NotFound
}

// intHardcoded reports whether name is assigned a numeric literal in method
// or in the field region.
func (p *Parser) intHardcoded(name string, s scope) bool {
	pattern := assignee + text.EscapeRegex(name) + `\s*=\s*[0-9]+\s*;`
	if text.RegexFind(p.body(s), pattern, 0) != text.NotFound {
		return true
	}
	return text.RegexFind(p.fieldRegion(), pattern, 0) != text.NotFound
}

// arrayHardcoded checks every element of the array literal assigned to name.
// An array with no literal follows its first assignment instead.
func (p *Parser) arrayHardcoded(name string, s scope, active map[string]bool, depth int) bool {
	if lit := p.locateArrayLiteral(name, s); lit != "" {
		return p.allHardcoded(p.expandAll(p.ParseArrayLiteral(lit), s), s, active, depth)
	}
	if rhs, ok := assignment(p.body(s), name); ok {
		return p.hardcoded(rhs, s, active, depth+1)
	}
	return false
}

// assignment returns the right-hand side of the first assignment to name in
// body, up to the terminating ';' and joined onto one line.
func assignment(body, name string) (string, bool) {
	if body == "" || name == "" {
		return "", false
	}
	loc := text.RegexFindIndex(body, assignee+text.EscapeRegex(name)+`\s*=[^=]`, 0)
	if loc == nil {
		return "", false
	}
	start := loc[1] - 1
	end := statementEnd(body, start)
	rhs := strings.TrimSpace(text.FlattenLines(body[start:end]))
	return rhs, rhs != ""
}
