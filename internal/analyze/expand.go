package analyze

import (
	"log/slog"

	"github.com/phobologic/execscan/internal/text"
)

// frame is one token on the expansion work list. parent links the frames
// that produced it, so a token reappearing on its own path is detected.
type frame struct {
	token  string
	depth  int
	parent *frame
}

func (f *frame) onPath(token string) bool {
	for a := f; a != nil; a = a.parent {
		if a.token == token {
			return true
		}
	}
	return false
}

// ExpandAll reduces tokens to leaves. Calls, casts, arithmetic and string
// arrays with a located literal are replaced by their parts, depth first and
// in order; everything else is a leaf. A token that recurs on its own
// expansion path, or sits at the depth limit, is kept as a leaf.
func (p *Parser) ExpandAll(tokens []string, method string) []string {
	return p.expandAll(tokens, p.scopeOf(method))
}

func (p *Parser) expandAll(tokens []string, s scope) []string {
	var leaves []string
	stack := make([]*frame, 0, len(tokens))
	for i := len(tokens) - 1; i >= 0; i-- {
		stack = append(stack, &frame{token: text.Trim(tokens[i])})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		c := p.resolve(f.token, s)
		if !c.expands() {
			leaves = append(leaves, f.token)
			continue
		}
		if f.depth >= p.maxDepth || (f.parent != nil && f.parent.onPath(f.token)) {
			p.log.Debug("expansion stopped",
				slog.String("token", f.token),
				slog.String("method", s.name),
				slog.Int("depth", f.depth))
			leaves = append(leaves, f.token)
			continue
		}

		kids, ok := p.children(f.token, s, c)
		if !ok {
			leaves = append(leaves, f.token)
			continue
		}
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, &frame{token: kids[i], depth: f.depth + 1, parent: f})
		}
	}
	return leaves
}

// children returns the parts of an expandable token. It reports false for a
// string array whose literal cannot be found.
func (p *Parser) children(token string, s scope, c Category) ([]string, bool) {
	switch {
	case c.isArray():
		lit := p.locateArrayLiteral(token, s)
		if lit == "" {
			return nil, false
		}
		return p.ParseArrayLiteral(lit), true
	case c.Kind == CastOrCallExpression:
		return p.DecomposeCall(token), true
	case c.Kind == ArithmeticExpression:
		return p.ParseExpression(token), true
	}
	return nil, false
}

// Leaves returns the leaf tokens of the sensitive call's arguments in the
// statement starting at line, expanded within the method span holding line.
// It is empty when the statement has no such call.
func (p *Parser) Leaves(line int) []string {
	expr, ok := p.Expression(p.call, line)
	if !ok {
		return nil
	}
	return p.expandAll(p.ParseExpression(expr), p.scopeAt(line))
}
