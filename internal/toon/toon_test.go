package toon

import (
	"strings"
	"testing"

	"github.com/phobologic/execscan/internal/model"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"false keyword", "false", `"false"`},
		{"null keyword", "null", `"null"`},
		{"integer token", "42", `"42"`},
		{"negative integer token", "-1", `"-1"`},
		{"double token", "3.14", `"3.14"`},
		{"leading zero", "01", "01"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"string literal", `"ls -la"`, `"\"ls -la\""`},
		{"backslash", `a\b`, `"a\\b"`},
		{"array", "String[]", `"String[]"`},
		{"brace", "a{b", `"a{b"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "src/main/Shell.java", "src/main/Shell.java"},
		{"type label", "String literal", "String literal"},
		{"call", "getCmd()", "getCmd()"},
		{"concatenation", "base + host", "base + host"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := encodeValue(tt.in)
			if got != tt.want {
				t.Errorf("encodeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodeCell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   any
		want string
	}{
		{7, "7"},
		{true, "true"},
		{false, "false"},
		{"7", `"7"`},
		{model.Input, "input"},
	}
	for _, tt := range tests {
		if got := encodeCell(tt.in); got != tt.want {
			t.Errorf("encodeCell(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	r := &model.Report{
		Root: "myrepo",
		Summary: model.Summary{
			Candidates: 3, Omitted: 1, Uses: 2, Hardcoded: 1, Input: 1, Files: 1,
		},
		Types: []model.TypeCount{
			{Type: "String", Total: 1, Input: 1},
			{Type: "String literal", Total: 1, Hardcoded: 1},
		},
		Sites: []model.Site{
			{
				Path: "src/Shell.java", Line: 8, Method: "fixed",
				Statement: `Runtime.getRuntime().exec("ls");`,
				Verdict:   model.Hardcoded,
				Leaves:    []model.Leaf{{Token: `"ls"`, Type: "String literal", Hardcoded: true}},
			},
			{
				Path: "src/Shell.java", Line: 12, Method: "run",
				Statement: "Runtime.getRuntime().exec(cmd);",
				Verdict:   model.Input,
				Leaves:    []model.Leaf{{Token: "cmd", Type: "String", Input: true}},
			},
			{Path: "src/Shell.java", Line: 20, Method: "quiet", Excluded: model.Commented},
		},
	}

	got := Encode(r)

	want := []string{
		"root: myrepo",
		"summary:",
		"  candidates: 3",
		"  omitted: 1",
		"  uses: 2",
		"  hardcoded: 1",
		"  input: 1",
		"  other: 0",
		"  test_paths: 0",
		"  files: 1",
		"types[2]{type,total,hardcoded,input}:",
		"  String,1,0,1",
		"  String literal,1,1,0",
		"sites[3]{path,line,method,verdict,excluded,statement}:",
		`  src/Shell.java,8,fixed,hardcoded,"","Runtime.getRuntime().exec(\"ls\");"`,
		`  src/Shell.java,12,run,input,"",Runtime.getRuntime().exec(cmd);`,
		`  src/Shell.java,20,quiet,"",commented,""`,
		"leaves[2]{path,line,token,type,hardcoded,input}:",
		`  src/Shell.java,8,"\"ls\"",String literal,true,false`,
		"  src/Shell.java,12,cmd,String,false,true",
	}
	lines := strings.Split(got, "\n")
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), got)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	got := Encode(&model.Report{Root: "empty"})
	if !strings.Contains(got, "types[0]{type,total,hardcoded,input}:") {
		t.Errorf("expected empty types section, got:\n%s", got)
	}
	if !strings.Contains(got, "sites[0]{path,line,method,verdict,excluded,statement}:") {
		t.Errorf("expected empty sites section, got:\n%s", got)
	}
	if strings.Contains(got, "leaves[") {
		t.Errorf("expected no leaves section, got:\n%s", got)
	}
}
