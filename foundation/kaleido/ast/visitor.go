// File: visitor.go
// Title: Kaleido AST Visitor Pattern Implementation
// Description: Implements the visitor pattern for traversing kaleido AST
//              nodes together with the printers built on it: an S-expression
//              printer, an indented tree printer and a map converter used by
//              the structured (JSON/YAML) encoders.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-25 v0.1.0: Initial visitor pattern implementation
// - 2026-10-19 v0.2.0: Expression visitors, S-expression and tree printers, ToMap

package ast

import (
	"fmt"
	"math"
	"strings"
)

// Visitor interface for traversing AST nodes using the visitor pattern
type Visitor interface {
	VisitNumber(expr *NumberExpr) interface{}
	VisitVariable(expr *VariableExpr) interface{}
	VisitBinary(expr *BinaryExpr) interface{}
	VisitCall(expr *CallExpr) interface{}
	VisitPrototype(proto *Prototype) interface{}
	VisitFunction(fn *Function) interface{}
}

// BaseVisitor walks every child and returns nil
type BaseVisitor struct{}

func (bv *BaseVisitor) VisitNumber(expr *NumberExpr) interface{} {
	return nil
}

func (bv *BaseVisitor) VisitVariable(expr *VariableExpr) interface{} {
	return nil
}

func (bv *BaseVisitor) VisitBinary(expr *BinaryExpr) interface{} {
	expr.LHS.Accept(bv)
	expr.RHS.Accept(bv)
	return nil
}

func (bv *BaseVisitor) VisitCall(expr *CallExpr) interface{} {
	for _, arg := range expr.Args {
		arg.Accept(bv)
	}
	return nil
}

func (bv *BaseVisitor) VisitPrototype(proto *Prototype) interface{} {
	return nil
}

func (bv *BaseVisitor) VisitFunction(fn *Function) interface{} {
	fn.Proto.Accept(bv)
	fn.Body.Accept(bv)
	return nil
}

// Inspect traverses the tree rooted at node in depth-first order, calling fn
// for every node. Children are skipped when fn returns false.
func Inspect(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	switch n := node.(type) {
	case *BinaryExpr:
		Inspect(n.LHS, fn)
		Inspect(n.RHS, fn)
	case *CallExpr:
		for _, arg := range n.Args {
			Inspect(arg, fn)
		}
	case *Function:
		if n.Proto != nil {
			Inspect(n.Proto, fn)
		}
		Inspect(n.Body, fn)
	}
}

// CountNodes returns the number of nodes in the tree rooted at node
func CountNodes(node Node) int {
	count := 0
	Inspect(node, func(Node) bool {
		count++
		return true
	})
	return count
}

// SExprVisitor renders nodes as S-expressions, e.g. "(+ a (* b c))"
type SExprVisitor struct{}

// SExpr renders node as an S-expression
func SExpr(node Node) string {
	return node.Accept(&SExprVisitor{}).(string)
}

func (sv *SExprVisitor) VisitNumber(expr *NumberExpr) interface{} {
	return FormatNumber(expr.Value)
}

func (sv *SExprVisitor) VisitVariable(expr *VariableExpr) interface{} {
	return expr.Name
}

func (sv *SExprVisitor) VisitBinary(expr *BinaryExpr) interface{} {
	return fmt.Sprintf("(%c %s %s)", expr.Op, expr.LHS.Accept(sv), expr.RHS.Accept(sv))
}

func (sv *SExprVisitor) VisitCall(expr *CallExpr) interface{} {
	parts := []string{"call", expr.Callee}
	for _, arg := range expr.Args {
		parts = append(parts, arg.Accept(sv).(string))
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func (sv *SExprVisitor) VisitPrototype(proto *Prototype) interface{} {
	parts := []string{"proto"}
	if proto.Name != "" {
		parts = append(parts, proto.Name)
	}
	parts = append(parts, proto.Params...)
	return "(" + strings.Join(parts, " ") + ")"
}

func (sv *SExprVisitor) VisitFunction(fn *Function) interface{} {
	if fn.IsAnonymous() {
		return fmt.Sprintf("(toplevel %s)", fn.Body.Accept(sv))
	}
	return fmt.Sprintf("(def %s %s)", fn.Proto.Accept(sv), fn.Body.Accept(sv))
}

// TreeVisitor renders nodes as an indented tree, one node per line
type TreeVisitor struct {
	buffer strings.Builder
	indent int
}

// NewTreeVisitor creates a new tree printer
func NewTreeVisitor() *TreeVisitor {
	return &TreeVisitor{}
}

// Tree renders node as an indented tree
func Tree(node Node) string {
	tv := NewTreeVisitor()
	node.Accept(tv)
	return tv.String()
}

// String returns the accumulated output
func (tv *TreeVisitor) String() string {
	return tv.buffer.String()
}

// Reset clears the visitor for reuse
func (tv *TreeVisitor) Reset() {
	tv.buffer.Reset()
	tv.indent = 0
}

func (tv *TreeVisitor) line(format string, args ...interface{}) {
	tv.buffer.WriteString(strings.Repeat("  ", tv.indent))
	fmt.Fprintf(&tv.buffer, format, args...)
	tv.buffer.WriteByte('\n')
}

func (tv *TreeVisitor) VisitNumber(expr *NumberExpr) interface{} {
	tv.line("Number %s", FormatNumber(expr.Value))
	return nil
}

func (tv *TreeVisitor) VisitVariable(expr *VariableExpr) interface{} {
	tv.line("Variable %s", expr.Name)
	return nil
}

func (tv *TreeVisitor) VisitBinary(expr *BinaryExpr) interface{} {
	tv.line("Binary '%c'", expr.Op)
	tv.indent++
	expr.LHS.Accept(tv)
	expr.RHS.Accept(tv)
	tv.indent--
	return nil
}

func (tv *TreeVisitor) VisitCall(expr *CallExpr) interface{} {
	tv.line("Call %s/%d", expr.Callee, len(expr.Args))
	tv.indent++
	for _, arg := range expr.Args {
		arg.Accept(tv)
	}
	tv.indent--
	return nil
}

func (tv *TreeVisitor) VisitPrototype(proto *Prototype) interface{} {
	if proto.IsAnonymous() {
		tv.line("Prototype <anonymous>")
		return nil
	}
	tv.line("Prototype %s(%s)", proto.Name, strings.Join(proto.Params, ", "))
	return nil
}

func (tv *TreeVisitor) VisitFunction(fn *Function) interface{} {
	if fn.IsAnonymous() {
		tv.line("TopLevel")
	} else {
		tv.line("Function %s", fn.Proto.Name)
	}
	tv.indent++
	fn.Proto.Accept(tv)
	fn.Body.Accept(tv)
	tv.indent--
	return nil
}

// MapVisitor converts nodes into generic maps for structured encoders
type MapVisitor struct{}

// ToMap converts node into a map[string]interface{} tree suitable for
// encoding/json or yaml.v3
func ToMap(node Node) map[string]interface{} {
	return node.Accept(&MapVisitor{}).(map[string]interface{})
}

func position(pos Position) map[string]interface{} {
	return map[string]interface{}{
		"line":   pos.Line,
		"column": pos.Column,
	}
}

// VisitNumber keeps finite values numeric. Overflowing literals read as
// infinity, which JSON cannot carry, so those become strings like "+Inf".
func (mv *MapVisitor) VisitNumber(expr *NumberExpr) interface{} {
	var value interface{} = expr.Value
	if math.IsInf(expr.Value, 0) || math.IsNaN(expr.Value) {
		value = FormatNumber(expr.Value)
	}
	return map[string]interface{}{
		"type":  "number",
		"value": value,
		"pos":   position(expr.Pos),
	}
}

func (mv *MapVisitor) VisitVariable(expr *VariableExpr) interface{} {
	return map[string]interface{}{
		"type": "variable",
		"name": expr.Name,
		"pos":  position(expr.Pos),
	}
}

func (mv *MapVisitor) VisitBinary(expr *BinaryExpr) interface{} {
	return map[string]interface{}{
		"type": "binary",
		"op":   string(expr.Op),
		"lhs":  expr.LHS.Accept(mv),
		"rhs":  expr.RHS.Accept(mv),
		"pos":  position(expr.Pos),
	}
}

func (mv *MapVisitor) VisitCall(expr *CallExpr) interface{} {
	args := make([]interface{}, len(expr.Args))
	for i, arg := range expr.Args {
		args[i] = arg.Accept(mv)
	}
	return map[string]interface{}{
		"type":   "call",
		"callee": expr.Callee,
		"args":   args,
		"pos":    position(expr.Pos),
	}
}

func (mv *MapVisitor) VisitPrototype(proto *Prototype) interface{} {
	params := make([]interface{}, len(proto.Params))
	for i, p := range proto.Params {
		params[i] = p
	}
	return map[string]interface{}{
		"type":   "prototype",
		"name":   proto.Name,
		"params": params,
		"pos":    position(proto.Pos),
	}
}

func (mv *MapVisitor) VisitFunction(fn *Function) interface{} {
	return map[string]interface{}{
		"type":      "function",
		"anonymous": fn.IsAnonymous(),
		"prototype": fn.Proto.Accept(mv),
		"body":      fn.Body.Accept(mv),
		"pos":       position(fn.Pos),
	}
}
