package analyze

import (
	"strings"

	"github.com/phobologic/execscan/internal/text"
)

// statementEnd returns the offset of the first ';' at or after from that is
// not inside a double-quoted string, or len(s).
func statementEnd(s string, from int) int {
	inString := false
	for i := from; i < len(s); i++ {
		switch c := s[i]; {
		case inString && c == '\\':
			i++
		case c == '"':
			inString = !inString
		case c == ';' && !inString:
			return i
		}
	}
	return len(s)
}

// FullStatement returns the statement that starts on line, joined onto one
// line. At most the statement window of following lines is read; a statement
// with no terminating ';' in that window is returned whole.
func (p *Parser) FullStatement(line int) string {
	extra := p.idx.ReadLines(line, line+p.window)
	end := statementEnd(extra, 0)
	return strings.TrimRight(text.FlattenLines(extra[:end]), " \t")
}

// IsCommented reports whether line is inside a comment: either a '//' comment
// earlier on the same line, or a '/*' opened since the start of the enclosing
// method and not yet closed. Comment markers inside string and character
// literals do not count.
func (p *Parser) IsCommented(line int) bool {
	body := p.idx.ReadLines(p.scopeAt(line).start(), line)
	if body == "" {
		return false
	}
	return inComment(body[:len(body)-1])
}

// inComment scans s and reports whether its end lies in a comment. A line
// comment ends at a newline, as do unterminated literals.
func inComment(s string) bool {
	var inString, inChar, inLine, inBlock bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		next := byte(0)
		if i+1 < len(s) {
			next = s[i+1]
		}
		switch {
		case c == '\n':
			inString, inChar, inLine = false, false, false
		case inLine:
		case inBlock:
			if c == '*' && next == '/' {
				inBlock = false
				i++
			}
		case inString || inChar:
			quote := byte('"')
			if inChar {
				quote = '\''
			}
			if c == '\\' {
				i++
			} else if c == quote {
				inString, inChar = false, false
			}
		case c == '"':
			inString = true
		case c == '\'':
			inChar = true
		case c == '/' && next == '/':
			inLine = true
			i++
		case c == '/' && next == '*':
			inBlock = true
			i++
		}
	}
	return inLine || inBlock
}

// Expression returns the argument text of the first call to name in the
// statement starting at line. It reports false when the statement has no such
// call or the call's parentheses never close.
func (p *Parser) Expression(name string, line int) (string, bool) {
	return callArguments(p.FullStatement(line), name)
}

func callArguments(stmt, name string) (string, bool) {
	loc := text.RegexFindIndex(stmt, `(?:^|\W)`+text.EscapeRegex(name)+`\(`, 0)
	if loc == nil {
		return "", false
	}
	start := loc[1]
	depth := 1
	inString := false
	for i := start; i < len(stmt); i++ {
		switch c := stmt[i]; {
		case inString && c == '\\':
			i++
		case c == '"':
			inString = !inString
		case inString:
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return stmt[start:i], true
			}
		}
	}
	return "", false
}

// matchClose returns the offset of the bracket closing the one at open,
// skipping string literals, or -1.
func matchClose(s string, open int) int {
	if open < 0 || open >= len(s) {
		return -1
	}
	opening := s[open]
	var closing byte
	switch opening {
	case '(':
		closing = ')'
	case '{':
		closing = '}'
	case '[':
		closing = ']'
	default:
		return -1
	}
	depth := 0
	inString := false
	for i := open; i < len(s); i++ {
		switch c := s[i]; {
		case inString && c == '\\':
			i++
		case c == '"':
			inString = !inString
		case inString:
		case c == opening:
			depth++
		case c == closing:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
