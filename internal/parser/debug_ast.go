package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"plastic/internal/ast"
	"strings"
)

// WalkAST recursively traverses an AST and serializes it into a map structure for JSON output.
func WalkAST(node ast.Node) interface{} {
	switch n := node.(type) {
	case *ast.Statements:
		return map[string]interface{}{
			"0.type":     "Statements",
			"1.position": n.Position,
			"2.items":    walkAll(n.Items),
		}

	case *ast.NumberLiteral:
		return map[string]interface{}{
			"0.type":     "NumberLiteral",
			"1.position": n.Position,
			"2.value":    n.Value,
		}

	case *ast.StringLiteral:
		return map[string]interface{}{
			"0.type":     "StringLiteral",
			"1.position": n.Position,
			"2.value":    n.Value,
		}

	case *ast.Symbol:
		return map[string]interface{}{
			"0.type":     "Symbol",
			"1.position": n.Position,
			"2.name":     n.Name,
		}

	case *ast.ListValue:
		return map[string]interface{}{
			"0.type":     "ListValue",
			"1.position": n.Position,
			"2.head":     WalkAST(n.Head),
			"3.rest":     walkAll(n.Rest),
		}

	case *ast.ArrayValue:
		return map[string]interface{}{
			"0.type":     "ArrayValue",
			"1.position": n.Position,
			"2.items":    walkAll(n.Items),
		}

	case *ast.TupleValue:
		return map[string]interface{}{
			"0.type":     "TupleValue",
			"1.position": n.Position,
			"2.items":    walkAll(n.Items),
		}

	default:
		return nil
	}
}

func walkAll(nodes []ast.Node) []interface{} {
	out := make([]interface{}, len(nodes))
	for i, n := range nodes {
		out[i] = WalkAST(n)
	}
	return out
}

// WriteASTToJSON renders the tree as indented JSON.
func WriteASTToJSON(node ast.Node, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")  // Pretty-print the JSON
	encoder.SetEscapeHTML(false) // Disable escaping of characters like <, >, &

	if err := encoder.Encode(WalkAST(node)); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// RenderASTAsText produces an indented outline of the tree, one node per line.
// It is meant for checking how operators and trailing blocks were bound.
func RenderASTAsText(node ast.Node, indent int) string {
	var sb strings.Builder
	renderText(&sb, node, indent)
	return sb.String()
}

func renderText(sb *strings.Builder, node ast.Node, indent int) {
	sp := strings.Repeat("  ", indent)

	switch n := node.(type) {
	case *ast.Statements:
		sb.WriteString(sp + "block\n")
		for _, item := range n.Items {
			renderText(sb, item, indent+1)
		}
	case *ast.ListValue:
		sb.WriteString(sp + "apply " + n.Head.String() + "\n")
		for _, arg := range n.Rest {
			renderText(sb, arg, indent+1)
		}
	case *ast.ArrayValue:
		sb.WriteString(sp + "array\n")
		for _, item := range n.Items {
			renderText(sb, item, indent+1)
		}
	case *ast.TupleValue:
		sb.WriteString(sp + "tuple\n")
		for _, item := range n.Items {
			renderText(sb, item, indent+1)
		}
	default:
		sb.WriteString(sp + node.String() + "\n")
	}
}
