// File: precedence.go
// Title: Binary Operator Precedence Table
// Description: Holds the fixed binary operator precedences used by the
//              expression parser. A table is filled by Install and is
//              read-only afterwards, so one table can be shared by parsers
//              running on different goroutines.
// Author: msto63
// Version: v0.2.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.2.0: Initial implementation

package parser

import (
	"sort"
	"sync"
	"sync/atomic"

	kerror "github.com/msto63/kaleido/foundation/core/error"
)

// Precedence levels of the built-in binary operators. Higher binds tighter.
const (
	PrecLess     = 10 // <
	PrecAdditive = 20 // + -
	PrecMultiply = 40 // *
)

// NoPrecedence is returned for tokens that are not binary operators
const NoPrecedence = -1

// PrecedenceTable maps binary operator characters to their precedence. The
// zero value is uninstalled and refuses lookups.
type PrecedenceTable struct {
	once      sync.Once
	installed atomic.Bool
	levels    map[byte]int
}

// NewPrecedenceTable returns an uninstalled table
func NewPrecedenceTable() *PrecedenceTable {
	return &PrecedenceTable{}
}

// DefaultPrecedence returns an installed table
func DefaultPrecedence() *PrecedenceTable {
	t := NewPrecedenceTable()
	t.Install()
	return t
}

// Install fills the table with the built-in operators. Calling it more than
// once has no further effect.
func (t *PrecedenceTable) Install() {
	t.once.Do(func() {
		t.levels = map[byte]int{
			'<': PrecLess,
			'+': PrecAdditive,
			'-': PrecAdditive,
			'*': PrecMultiply,
		}
		t.installed.Store(true)
	})
}

// Installed reports whether Install has run
func (t *PrecedenceTable) Installed() bool {
	return t.installed.Load()
}

// Precedence returns the precedence of tok, or NoPrecedence when tok is not
// a symbol with a positive entry in the table.
func (t *PrecedenceTable) Precedence(tok Token) (int, error) {
	if !t.Installed() {
		return NoPrecedence, kerror.New("operator precedence table queried before installation").
			WithCode(kerror.CodePrecedenceTableUninstalled).
			WithOperation("precedence lookup")
	}
	if tok.Kind != TokenSymbol {
		return NoPrecedence, nil
	}
	prec, ok := t.levels[tok.Char]
	if !ok || prec <= 0 {
		return NoPrecedence, nil
	}
	return prec, nil
}

// Operators returns the installed operator characters in ascending order
func (t *PrecedenceTable) Operators() []byte {
	if !t.Installed() {
		return nil
	}
	ops := make([]byte, 0, len(t.levels))
	for op := range t.levels {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}
