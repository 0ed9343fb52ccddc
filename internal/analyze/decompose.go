package analyze

import (
	"strings"

	"github.com/phobologic/execscan/internal/text"
)

// ParseExpression splits an argument list into tokens: first on top-level
// commas, then each argument on top-level '+'. Empty tokens are dropped.
//
//	ParseExpression(`"ls " + dir, env`) == []string{`"ls "`, "dir", "env"}
func (p *Parser) ParseExpression(expr string) []string {
	var tokens []string
	for _, arg := range text.SplitNotAtDepth(expr, ",") {
		for _, piece := range text.SplitNotAtDepth(arg, "+") {
			if t := text.Trim(piece); t != "" {
				tokens = append(tokens, t)
			}
		}
	}
	return tokens
}

// ParseArrayLiteral returns the top-level elements between the outermost
// braces of lit. Input without braces is split as is.
func (p *Parser) ParseArrayLiteral(lit string) []string {
	inner := lit
	if open, closing := strings.Index(lit, "{"), strings.LastIndex(lit, "}"); open >= 0 && closing > open {
		inner = lit[open+1 : closing]
	}
	var elems []string
	for _, e := range text.SplitNotAtDepth(inner, ",") {
		if t := text.Trim(e); t != "" {
			elems = append(elems, t)
		}
	}
	return elems
}

// LocateArrayLiteral finds the brace literal assigned to name, searching the
// token itself, then the body of method, then the field region. It returns
// the literal with its braces and with newlines flattened, or "".
func (p *Parser) LocateArrayLiteral(name, method string) string {
	return p.locateArrayLiteral(name, p.scopeOf(method))
}

func (p *Parser) locateArrayLiteral(name string, s scope) string {
	if open, closing := strings.Index(name, "{"), strings.LastIndex(name, "}"); open >= 0 && closing > open {
		return name[open : closing+1]
	}
	if lit := findArrayLiteral(p.body(s), name); lit != "" {
		return lit
	}
	return findArrayLiteral(p.fieldRegion(), name)
}

func findArrayLiteral(body, name string) string {
	name = text.Trim(name)
	if body == "" || name == "" {
		return ""
	}
	loc := text.RegexFindIndex(body, assignee+text.EscapeRegex(name)+`\s*=[^;]*?\{`, 0)
	if loc == nil {
		return ""
	}
	open := loc[1] - 1
	closing := matchClose(body, open)
	if closing < 0 {
		return ""
	}
	return text.FlattenLines(body[open : closing+1])
}

// DecomposeCall breaks a call or cast into its parts: the receiver before
// the first '.', then the arguments of every top-level parenthesized group.
// A cast contributes its type and its operand. An expression that also joins
// terms with a top-level '+' is split on it instead.
//
//	DecomposeCall(`String.format("%s", x)`) == []string{"String", `"%s"`, "x"}
//	DecomposeCall(`(String) x`) == []string{"String", "x"}
func (p *Parser) DecomposeCall(call string) []string {
	call = text.Trim(call)
	if terms := text.SplitNotAtDepth(call, "+"); len(terms) > 1 {
		return p.ParseExpression(call)
	}

	if strings.HasPrefix(call, "(") {
		if closing := matchClose(call, 0); closing > 0 {
			operand := text.Trim(call[closing+1:])
			if operand != "" && !strings.HasPrefix(operand, ".") && !strings.HasPrefix(operand, "[") {
				return append(p.ParseExpression(call[1:closing]), operand)
			}
		}
	}

	var parts []string
	dot, paren := strings.Index(call, "."), strings.Index(call, "(")
	if dot > 0 && (paren < 0 || dot < paren) {
		if receiver := text.Trim(call[:dot]); receiver != "" {
			parts = append(parts, receiver)
		}
	}

	depth := 0
	argStart := 0
	inString := false
	for i := 0; i < len(call); i++ {
		switch c := call[i]; {
		case inString && c == '\\':
			i++
		case c == '"':
			inString = !inString
		case inString:
		case c == '(':
			if depth == 0 {
				argStart = i + 1
			}
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				parts = append(parts, p.ParseExpression(call[argStart:i])...)
			}
		}
	}
	return parts
}
