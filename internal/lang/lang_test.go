package lang

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
)

func TestForExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want string
	}{
		{".java", "java"},
		{".go", ""},
		{".py", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			t.Parallel()
			got := ForExtension(tt.ext)
			if got != tt.want {
				t.Errorf("ForExtension(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestLanguagesRegistered(t *testing.T) {
	t.Parallel()

	j, ok := Languages["java"]
	if !ok {
		t.Fatal("java language not registered")
	}
	if j.GetLanguage() == nil {
		t.Error("java language is nil")
	}
	if j.NewParser() == nil {
		t.Fatal("NewParser returned nil")
	}
}

func TestGetCallQuery(t *testing.T) {
	t.Parallel()

	q, err := Languages["java"].GetCallQuery()
	if err != nil {
		t.Fatalf("GetCallQuery: %v", err)
	}
	if q == nil {
		t.Fatal("query is nil")
	}

	again, err := Languages["java"].GetCallQuery()
	if err != nil || again != q {
		t.Error("GetCallQuery did not return the cached query")
	}
}

// firstCall parses source and returns the first method_invocation node.
func firstCall(t *testing.T, source []byte) *sitter.Node {
	t.Helper()
	j := Languages["java"]
	tree, err := j.NewParser().ParseCtx(context.Background(), nil, source)
	if err != nil {
		t.Fatalf("ParseCtx: %v", err)
	}
	t.Cleanup(tree.Close)

	var walk func(n *sitter.Node) *sitter.Node
	walk = func(n *sitter.Node) *sitter.Node {
		if n.Type() == "method_invocation" {
			return n
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if found := walk(n.NamedChild(i)); found != nil {
				return found
			}
		}
		return nil
	}
	call := walk(tree.RootNode())
	if call == nil {
		t.Fatal("no method_invocation found")
	}
	return call
}

func TestJavaEnclosingMethodAndReceiver(t *testing.T) {
	t.Parallel()

	src := []byte(`class A {
    void go(String cmd) throws Exception {
        Runtime.getRuntime().exec(cmd);
    }
}
`)
	call := firstCall(t, src)

	if got := javaEnclosingMethod(call, src); got != "go" {
		t.Errorf("javaEnclosingMethod = %q, want %q", got, "go")
	}
	if got := javaReceiver(call, src); got != "Runtime.getRuntime()" {
		t.Errorf("javaReceiver = %q, want %q", got, "Runtime.getRuntime()")
	}
}

func TestJavaEnclosingMethodFieldInitialiser(t *testing.T) {
	t.Parallel()

	src := []byte(`class A {
    private final String home = System.getenv("HOME");
}
`)
	call := firstCall(t, src)

	if got := javaEnclosingMethod(call, src); got != "" {
		t.Errorf("javaEnclosingMethod = %q, want empty", got)
	}
	if got := javaReceiver(call, src); got != "System" {
		t.Errorf("javaReceiver = %q, want %q", got, "System")
	}
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()

	if got := CollapseWhitespace("  Runtime\n\t.getRuntime()  "); got != "Runtime .getRuntime()" {
		t.Errorf("CollapseWhitespace = %q", got)
	}
}
