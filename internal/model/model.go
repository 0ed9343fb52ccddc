// Package model defines core data structures for execscan.
package model

// Source indicates where a file's candidate lines came from.
type Source string

const (
	FromGrep  Source = "grep"
	FromParse Source = "parse"
)

// Exclusion indicates why a candidate was not counted as a use.
type Exclusion string

const (
	Included  Exclusion = ""
	NonExec   Exclusion = "non-exec"
	Commented Exclusion = "commented"
)

// Verdict is the classification of a counted use.
type Verdict string

const (
	Hardcoded Verdict = "hardcoded"
	Input     Verdict = "input"
	Other     Verdict = "other"
)

// FileCandidates is one file and the candidate lines found in it.
type FileCandidates struct {
	Path   string
	Lines  []int
	Source Source
}

// CallSite is one invocation of the sensitive call found by parsing.
type CallSite struct {
	Path     string
	Line     int
	Method   string
	Receiver string
}

// Leaf is one terminal token of a call's arguments.
type Leaf struct {
	Token     string
	Type      string
	Hardcoded bool
	Input     bool
}

// Site is the analysis of one candidate line.
type Site struct {
	Path      string
	Line      int
	Method    string
	Statement string
	Excluded  Exclusion
	Verdict   Verdict
	Leaves    []Leaf
}

// Counted reports whether the site is a use that receives a verdict.
func (s Site) Counted() bool {
	return s.Excluded == Included
}

// TypeCount tallies the leaves of one type across all counted uses.
type TypeCount struct {
	Type      string
	Total     int
	Hardcoded int
	Input     int
}

// Summary holds the aggregate counts of a run.
type Summary struct {
	Candidates int
	Omitted    int
	Uses       int
	Hardcoded  int
	Input      int
	Other      int
	TestPaths  int
	Files      int
}

// Report is the complete analysis result, ready for serialization.
type Report struct {
	Root    string
	Summary Summary
	Types   []TypeCount
	Sites   []Site
}
