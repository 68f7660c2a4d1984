package domscan

import (
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// SinkCalls parses inline handler code and returns the JS execution
// sinks it reaches directly. Best effort: anything that does not parse
// as JavaScript yields nil, and the marker is emitted either way.
func SinkCalls(src string) []string {
	program, err := parser.ParseFile(nil, "", src, 0)
	if err != nil {
		return nil
	}
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, stmt := range program.Body {
		walkForSinks(stmt, add)
	}
	return out
}

// Call-expression sinks by callee shape.
var (
	bareSinks   = map[string]bool{"eval": true, "execScript": true, "Function": true}
	dotSinks    = map[string]bool{"write": true, "writeln": true, "insertAdjacentHTML": true}
	timerSinks  = map[string]bool{"setTimeout": true, "setInterval": true}
	markupProps = map[string]bool{"innerHTML": true, "outerHTML": true, "srcdoc": true}
)

// walkForSinks recurses over the handler AST the same way the document
// scanner's big brother does for full scripts, but only reports direct
// sink usage: call expressions and markup-property assignments.
func walkForSinks(node ast.Node, add func(string)) {
	if node == nil {
		return
	}
	switch n := node.(type) {
	case *ast.Program:
		for _, stmt := range n.Body {
			walkForSinks(stmt, add)
		}
	case *ast.BlockStatement:
		for _, stmt := range n.List {
			walkForSinks(stmt, add)
		}
	case *ast.ExpressionStatement:
		walkForSinks(n.Expression, add)
	case *ast.IfStatement:
		walkForSinks(n.Test, add)
		walkForSinks(n.Consequent, add)
		walkForSinks(n.Alternate, add)
	case *ast.ReturnStatement:
		walkForSinks(n.Argument, add)
	case *ast.VariableStatement:
		for _, expr := range n.List {
			walkForSinks(expr, add)
		}
	case *ast.LexicalDeclaration:
		for _, expr := range n.List {
			walkForSinks(expr, add)
		}
	case *ast.Binding:
		walkForSinks(n.Initializer, add)
	case *ast.CallExpression:
		inspectCall(n, add)
		walkForSinks(n.Callee, add)
		for _, arg := range n.ArgumentList {
			walkForSinks(arg, add)
		}
	case *ast.NewExpression:
		if id, ok := n.Callee.(*ast.Identifier); ok && string(id.Name) == "Function" {
			add("Function")
		}
		for _, arg := range n.ArgumentList {
			walkForSinks(arg, add)
		}
	case *ast.AssignExpression:
		if dot, ok := n.Left.(*ast.DotExpression); ok {
			if markupProps[string(dot.Identifier.Name)] {
				add(string(dot.Identifier.Name))
			}
		}
		walkForSinks(n.Left, add)
		walkForSinks(n.Right, add)
	case *ast.BinaryExpression:
		walkForSinks(n.Left, add)
		walkForSinks(n.Right, add)
	case *ast.UnaryExpression:
		walkForSinks(n.Operand, add)
	case *ast.ConditionalExpression:
		walkForSinks(n.Test, add)
		walkForSinks(n.Consequent, add)
		walkForSinks(n.Alternate, add)
	case *ast.SequenceExpression:
		for _, expr := range n.Sequence {
			walkForSinks(expr, add)
		}
	case *ast.DotExpression:
		walkForSinks(n.Left, add)
	case *ast.BracketExpression:
		walkForSinks(n.Left, add)
		walkForSinks(n.Member, add)
	case *ast.FunctionLiteral:
		walkForSinks(n.Body, add)
	case *ast.ArrowFunctionLiteral:
		walkForSinks(n.Body, add)
	}
}

func inspectCall(n *ast.CallExpression, add func(string)) {
	switch callee := n.Callee.(type) {
	case *ast.Identifier:
		name := string(callee.Name)
		if bareSinks[name] {
			add(name)
			return
		}
		if timerSinks[name] && len(n.ArgumentList) > 0 {
			// Only the string form is eval-like.
			if _, ok := n.ArgumentList[0].(*ast.StringLiteral); ok {
				add(name + "(string)")
			}
		}
	case *ast.DotExpression:
		prop := string(callee.Identifier.Name)
		if !dotSinks[prop] {
			return
		}
		if prop == "insertAdjacentHTML" {
			add(prop)
			return
		}
		// write/writeln only count on document.
		if id, ok := callee.Left.(*ast.Identifier); ok && string(id.Name) == "document" {
			add("document." + prop)
		}
	}
}
