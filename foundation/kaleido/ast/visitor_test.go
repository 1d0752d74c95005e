// File: visitor_test.go
// Title: Kaleido AST Visitor Tests
// Description: Tests for the node printers, traversal helpers, map
//              conversion and structural validation of AST nodes.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-25 v0.1.0: Initial visitor tests
// - 2026-10-19 v0.2.0: Tests for expression nodes and printers

package ast

import (
	"errors"
	"math"
	"strings"
	"testing"

	kerror "github.com/msto63/kaleido/foundation/core/error"
)

// def foo(a b) a + bar(b, 2) * 3
func createTestDefinition() *Function {
	return &Function{
		Proto: &Prototype{Name: "foo", Params: []string{"a", "b"}, Pos: Position{Line: 1, Column: 5}},
		Body: &BinaryExpr{
			Op:  '+',
			LHS: &VariableExpr{Name: "a", Pos: Position{Line: 1, Column: 14}},
			RHS: &BinaryExpr{
				Op: '*',
				LHS: &CallExpr{
					Callee: "bar",
					Args: []Expr{
						&VariableExpr{Name: "b"},
						&NumberExpr{Value: 2},
					},
				},
				RHS: &NumberExpr{Value: 3},
			},
		},
		Pos: Position{Line: 1, Column: 1},
	}
}

func createTestTopLevel() *Function {
	return &Function{
		Proto: NewAnonymousPrototype(Position{Line: 1, Column: 1}),
		Body:  &BinaryExpr{Op: '<', LHS: &NumberExpr{Value: 1.5}, RHS: &VariableExpr{Name: "x"}},
	}
}

func TestSExpr(t *testing.T) {
	tests := []struct {
		name     string
		node     Node
		expected string
	}{
		{"Number", &NumberExpr{Value: 4}, "4"},
		{"Fractional number", &NumberExpr{Value: 0.25}, "0.25"},
		{"Variable", &VariableExpr{Name: "x"}, "x"},
		{"Empty call", &CallExpr{Callee: "f"}, "(call f)"},
		{"Extern prototype", &Prototype{Name: "sin", Params: []string{"x"}}, "(proto sin x)"},
		{"Definition", createTestDefinition(), "(def (proto foo a b) (+ a (* (call bar b 2) 3)))"},
		{"Top-level expression", createTestTopLevel(), "(toplevel (< 1.5 x))"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SExpr(tt.node); got != tt.expected {
				t.Errorf("SExpr() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestNodeString(t *testing.T) {
	tests := []struct {
		name     string
		node     Node
		expected string
	}{
		{"Definition", createTestDefinition(), "def foo(a b) (a + (bar(b, 2) * 3))"},
		{"Top-level expression", createTestTopLevel(), "(1.5 < x)"},
		{"Prototype without params", &Prototype{Name: "rand"}, "rand()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestTree(t *testing.T) {
	got := Tree(createTestDefinition())
	expected := strings.Join([]string{
		"Function foo",
		"  Prototype foo(a, b)",
		"  Binary '+'",
		"    Variable a",
		"    Binary '*'",
		"      Call bar/2",
		"        Variable b",
		"        Number 2",
		"      Number 3",
		"",
	}, "\n")
	if got != expected {
		t.Errorf("Tree() mismatch\ngot:\n%s\nwant:\n%s", got, expected)
	}

	tv := NewTreeVisitor()
	createTestTopLevel().Accept(tv)
	if !strings.HasPrefix(tv.String(), "TopLevel\n  Prototype <anonymous>\n") {
		t.Errorf("unexpected top-level tree: %q", tv.String())
	}
	tv.Reset()
	if tv.String() != "" {
		t.Error("Reset should clear the buffer")
	}
}

func TestToMap(t *testing.T) {
	m := ToMap(createTestDefinition())

	if m["type"] != "function" {
		t.Errorf("type = %v, want function", m["type"])
	}
	if m["anonymous"] != false {
		t.Errorf("anonymous = %v, want false", m["anonymous"])
	}

	proto := m["prototype"].(map[string]interface{})
	if proto["name"] != "foo" {
		t.Errorf("prototype name = %v, want foo", proto["name"])
	}
	params := proto["params"].([]interface{})
	if len(params) != 2 || params[0] != "a" || params[1] != "b" {
		t.Errorf("params = %v, want [a b]", params)
	}

	body := m["body"].(map[string]interface{})
	if body["op"] != "+" {
		t.Errorf("body op = %v, want +", body["op"])
	}
	rhs := body["rhs"].(map[string]interface{})
	call := rhs["lhs"].(map[string]interface{})
	if call["callee"] != "bar" || len(call["args"].([]interface{})) != 2 {
		t.Errorf("unexpected call map: %v", call)
	}
}

func TestToMap_NonFiniteNumbers(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  interface{}
	}{
		{"finite", 2.5, 2.5},
		{"positive infinity", math.Inf(1), "+Inf"},
		{"negative infinity", math.Inf(-1), "-Inf"},
		{"not a number", math.NaN(), "NaN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ToMap(&NumberExpr{Value: tt.value})
			if m["value"] != tt.want {
				t.Errorf("value = %v (%T), want %v", m["value"], m["value"], tt.want)
			}
		})
	}
}

func TestInspectAndCount(t *testing.T) {
	if got := CountNodes(createTestDefinition()); got != 9 {
		t.Errorf("CountNodes() = %d, want 9", got)
	}

	var callees []string
	Inspect(createTestDefinition(), func(n Node) bool {
		if call, ok := n.(*CallExpr); ok {
			callees = append(callees, call.Callee)
		}
		return true
	})
	if len(callees) != 1 || callees[0] != "bar" {
		t.Errorf("callees = %v, want [bar]", callees)
	}

	visited := 0
	Inspect(createTestDefinition(), func(n Node) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Errorf("visited = %d, want 1 when children are skipped", visited)
	}
}

func TestBaseVisitor(t *testing.T) {
	visitor := &BaseVisitor{}
	for _, node := range []Node{createTestDefinition(), createTestTopLevel()} {
		if result := node.Accept(visitor); result != nil {
			t.Errorf("Expected nil result, got %v", result)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		node    Node
		wantErr bool
	}{
		{"Valid definition", createTestDefinition(), false},
		{"Valid top-level", createTestTopLevel(), false},
		{"Duplicate parameters", &Prototype{Name: "f", Params: []string{"x", "x"}}, true},
		{"Anonymous with params", &Prototype{Params: []string{"x"}}, true},
		{"Binary missing operand", &BinaryExpr{Op: '+', LHS: &NumberExpr{Value: 1}}, true},
		{"Call with empty variable", &CallExpr{Callee: "f", Args: []Expr{&VariableExpr{}}}, true},
		{"Function without body", &Function{Proto: &Prototype{Name: "f"}}, true},
		{
			"Definition with duplicate params",
			&Function{Proto: &Prototype{Name: "f", Params: []string{"a", "a"}}, Body: &VariableExpr{Name: "a"}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.node.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !kerror.HasCode(err, kerror.CodeValidationFailed) {
				t.Errorf("expected VALIDATION_FAILED code, got %v", kerror.GetCode(err))
			}
		})
	}
}

func TestValidateWrapsChildErrors(t *testing.T) {
	call := &CallExpr{Callee: "f", Args: []Expr{&NumberExpr{Value: 1}, &VariableExpr{}}}
	err := call.Validate()
	if err == nil || !strings.Contains(err.Error(), "argument 1") {
		t.Fatalf("expected argument index in error, got %v", err)
	}
	var kerr *kerror.Error
	if !errors.As(err, &kerr) {
		t.Error("expected wrapped *kerror.Error")
	}
}
