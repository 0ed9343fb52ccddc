package analyze

import (
	"strings"

	"github.com/phobologic/execscan/internal/model"
	"github.com/phobologic/execscan/internal/text"
)

// IsExecUse reports whether stmt invokes the sensitive call in a way that
// launches a process: it contains one of the markers, or assigns the call's
// result to a variable declared with the result type.
func (p *Parser) IsExecUse(stmt, method string) bool {
	return p.isExecUse(stmt, p.scopeOf(method))
}

func (p *Parser) isExecUse(stmt string, s scope) bool {
	for _, m := range p.markers {
		if m != "" && strings.Contains(stmt, m) {
			return true
		}
	}
	if p.resultType == "" {
		return false
	}
	loc := text.RegexFindIndex(stmt, `(\w+)\s*=[^=].*\.`+text.EscapeRegex(p.call)+`\(`, 0)
	if loc == nil {
		return false
	}
	return p.resolve(stmt[loc[2]:loc[3]], s).Type == p.resultType
}

// AnalyzeSite classifies the candidate on line within the method span that
// holds it, so overloads sharing a name are told apart. Sites that are not
// exec uses or sit inside a comment are marked excluded and get no verdict. A
// counted site is input when any leaf is input, hardcoded when every leaf is
// hardcoded, and other otherwise.
func (p *Parser) AnalyzeSite(path string, line int) model.Site {
	sc := p.scopeAt(line)
	site := model.Site{
		Path:      path,
		Line:      line,
		Method:    sc.name,
		Statement: p.FullStatement(line),
	}
	if !p.isExecUse(site.Statement, sc) {
		site.Excluded = model.NonExec
		return site
	}
	if p.IsCommented(line) {
		site.Excluded = model.Commented
		return site
	}

	hardcoded, input := true, false
	for _, tok := range p.Leaves(line) {
		leaf := model.Leaf{
			Token:     tok,
			Type:      p.resolve(tok, sc).Label(),
			Hardcoded: p.isHardcoded(tok, sc),
			Input:     p.isInput(tok, sc),
		}
		hardcoded = hardcoded && leaf.Hardcoded
		input = input || leaf.Input
		site.Leaves = append(site.Leaves, leaf)
	}

	switch {
	case input:
		site.Verdict = model.Input
	case hardcoded:
		site.Verdict = model.Hardcoded
	default:
		site.Verdict = model.Other
	}
	return site
}
