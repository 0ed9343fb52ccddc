package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

func init() {
	Languages["java"] = &Language{
		Name:            "java",
		Extensions:      []string{".java"},
		lang:            java.GetLanguage(),
		EnclosingMethod: javaEnclosingMethod,
		Receiver:        javaReceiver,
	}
}

// javaEnclosingMethod walks up from node to the nearest method or
// constructor declaration and returns its name. Calls inside a lambda report
// the method the lambda is written in.
func javaEnclosingMethod(node *sitter.Node, source []byte) string {
	for n := node.Parent(); n != nil; n = n.Parent() {
		switch n.Type() {
		case "method_declaration", "constructor_declaration":
			if name := n.ChildByFieldName("name"); name != nil {
				return NodeText(name, source)
			}
			return ""
		case "class_body":
			// Field initialisers sit directly in the class body.
			if p := n.Parent(); p != nil && p.Type() == "class_declaration" {
				return ""
			}
		}
	}
	return ""
}

// javaReceiver returns the object expression of a method_invocation.
func javaReceiver(call *sitter.Node, source []byte) string {
	if call.Type() != "method_invocation" {
		return ""
	}
	obj := call.ChildByFieldName("object")
	if obj == nil {
		return ""
	}
	return CollapseWhitespace(NodeText(obj, source))
}
