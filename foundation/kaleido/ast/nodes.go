// File: nodes.go
// Title: Kaleido AST Node Definitions
// Description: Defines the AST produced by the kaleido parser: numeric
//              literals, variable references, binary operations, calls,
//              prototypes and function definitions. Nodes are built once by
//              the parser and never mutated afterwards; every compound node
//              owns its children.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-25 v0.1.0: Initial AST node definitions
// - 2026-10-19 v0.2.0: Expression language nodes replace command nodes

package ast

import (
	"fmt"
	"strconv"
	"strings"

	kerror "github.com/msto63/kaleido/foundation/core/error"
)

// Node represents the base interface for all AST nodes
type Node interface {
	// String returns the node in source-like infix notation
	String() string

	// Accept implements the visitor pattern
	Accept(visitor Visitor) interface{}

	// Position returns the source position of the node
	Position() Position

	// Validate performs structural checks the parser does not enforce
	Validate() error
}

// Position represents a position in the source code
type Position struct {
	Line   int // Line number (1-based)
	Column int // Column number (1-based)
	Offset int // Byte offset (0-based)
}

// String returns "line:column"
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Expr represents the base interface for all expressions
type Expr interface {
	Node
	exprNode()
}

// NumberExpr is a numeric literal like "1.0"
type NumberExpr struct {
	Value float64
	Pos   Position
}

// VariableExpr references a variable, like "a"
type VariableExpr struct {
	Name string
	Pos  Position
}

// BinaryExpr is a binary operator applied to two operands
type BinaryExpr struct {
	Op  byte
	LHS Expr
	RHS Expr
	Pos Position // position of the operator
}

// CallExpr is a function call
type CallExpr struct {
	Callee string
	Args   []Expr // in source order
	Pos    Position
}

// Prototype captures a function's name and parameter names, and thus
// implicitly its arity. Parameter names are kept in declaration order and
// may repeat; see Validate.
type Prototype struct {
	Name   string
	Params []string
	Pos    Position
}

// Function is a function definition. A top-level expression is wrapped in a
// Function whose prototype is anonymous.
type Function struct {
	Proto *Prototype
	Body  Expr
	Pos   Position
}

// NewAnonymousPrototype returns the empty-name, no-parameter prototype used
// to wrap top-level expressions
func NewAnonymousPrototype(pos Position) *Prototype {
	return &Prototype{Name: "", Params: []string{}, Pos: pos}
}

// FormatNumber renders a literal the shortest way that round-trips
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func validationError(format string, args ...interface{}) error {
	return kerror.Newf(format, args...).WithCode(kerror.CodeValidationFailed)
}

// NumberExpr

func (n *NumberExpr) String() string {
	return FormatNumber(n.Value)
}

func (n *NumberExpr) Accept(visitor Visitor) interface{} {
	return visitor.VisitNumber(n)
}

func (n *NumberExpr) Position() Position {
	return n.Pos
}

func (n *NumberExpr) Validate() error {
	return nil
}

func (n *NumberExpr) exprNode() {}

// VariableExpr

func (v *VariableExpr) String() string {
	return v.Name
}

func (v *VariableExpr) Accept(visitor Visitor) interface{} {
	return visitor.VisitVariable(v)
}

func (v *VariableExpr) Position() Position {
	return v.Pos
}

func (v *VariableExpr) Validate() error {
	if v.Name == "" {
		return validationError("variable name is required")
	}
	return nil
}

func (v *VariableExpr) exprNode() {}

// BinaryExpr

func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %c %s)", b.LHS.String(), b.Op, b.RHS.String())
}

func (b *BinaryExpr) Accept(visitor Visitor) interface{} {
	return visitor.VisitBinary(b)
}

func (b *BinaryExpr) Position() Position {
	return b.Pos
}

func (b *BinaryExpr) Validate() error {
	if b.Op == 0 {
		return validationError("operator is required")
	}
	if b.LHS == nil {
		return validationError("left operand is required")
	}
	if b.RHS == nil {
		return validationError("right operand is required")
	}
	if err := b.LHS.Validate(); err != nil {
		return fmt.Errorf("left operand: %w", err)
	}
	if err := b.RHS.Validate(); err != nil {
		return fmt.Errorf("right operand: %w", err)
	}
	return nil
}

func (b *BinaryExpr) exprNode() {}

// CallExpr

func (c *CallExpr) String() string {
	args := make([]string, len(c.Args))
	for i, arg := range c.Args {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", c.Callee, strings.Join(args, ", "))
}

func (c *CallExpr) Accept(visitor Visitor) interface{} {
	return visitor.VisitCall(c)
}

func (c *CallExpr) Position() Position {
	return c.Pos
}

func (c *CallExpr) Validate() error {
	if c.Callee == "" {
		return validationError("callee is required")
	}
	for i, arg := range c.Args {
		if arg == nil {
			return validationError("argument %d is missing", i)
		}
		if err := arg.Validate(); err != nil {
			return fmt.Errorf("argument %d: %w", i, err)
		}
	}
	return nil
}

func (c *CallExpr) exprNode() {}

// Prototype

func (p *Prototype) String() string {
	return fmt.Sprintf("%s(%s)", p.Name, strings.Join(p.Params, " "))
}

func (p *Prototype) Accept(visitor Visitor) interface{} {
	return visitor.VisitPrototype(p)
}

func (p *Prototype) Position() Position {
	return p.Pos
}

// Validate reports duplicate parameter names. The parser accepts them, so
// this is the only place they surface.
func (p *Prototype) Validate() error {
	if p.Name == "" && len(p.Params) > 0 {
		return validationError("anonymous prototype cannot declare parameters")
	}
	seen := make(map[string]bool, len(p.Params))
	for _, name := range p.Params {
		if seen[name] {
			return validationError("duplicate parameter %q in prototype %q", name, p.Name)
		}
		seen[name] = true
	}
	return nil
}

// IsAnonymous reports whether p wraps a top-level expression
func (p *Prototype) IsAnonymous() bool {
	return p.Name == ""
}

// Arity returns the number of parameters
func (p *Prototype) Arity() int {
	return len(p.Params)
}

// Function

func (f *Function) String() string {
	if f.IsAnonymous() {
		return f.Body.String()
	}
	return fmt.Sprintf("def %s %s", f.Proto.String(), f.Body.String())
}

func (f *Function) Accept(visitor Visitor) interface{} {
	return visitor.VisitFunction(f)
}

func (f *Function) Position() Position {
	return f.Pos
}

func (f *Function) Validate() error {
	if f.Proto == nil {
		return validationError("function prototype is required")
	}
	if f.Body == nil {
		return validationError("function body is required")
	}
	if err := f.Proto.Validate(); err != nil {
		return err
	}
	if err := f.Body.Validate(); err != nil {
		return fmt.Errorf("body of %q: %w", f.Proto.Name, err)
	}
	return nil
}

// IsAnonymous reports whether f is a wrapped top-level expression
func (f *Function) IsAnonymous() bool {
	return f.Proto != nil && f.Proto.IsAnonymous()
}
