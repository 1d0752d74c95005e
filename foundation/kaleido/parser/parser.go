// File: parser.go
// Title: Kaleido Recursive Descent Parser
// Description: Implements the parsing phase of the kaleido front-end.
//              Expressions are parsed by precedence climbing over a fixed
//              operator table; prototypes, definitions, externs and
//              top-level expressions by recursive descent. The parser holds
//              a single current token and exposes it to the driver, which
//              skips one token after every failed construct.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-25 v0.1.0: Initial parser implementation
// - 2026-10-19 v0.2.0: Precedence climbing expression parser, coded errors

package parser

import (
	"fmt"
	"io"
	"strings"

	kerror "github.com/msto63/kaleido/foundation/core/error"
	klog "github.com/msto63/kaleido/foundation/core/log"
	"github.com/msto63/kaleido/foundation/kaleido/ast"
)

// Parser implements recursive descent parsing for kaleido
type Parser struct {
	lexer      *Lexer
	current    Token
	precedence *PrecedenceTable
	logger     *klog.Logger
}

// Options configures parser behavior
type Options struct {
	Logger *klog.Logger

	// Precedence is installed by New if it is not already. A fresh table is
	// used when nil.
	Precedence *PrecedenceTable
}

// New creates a parser reading from r. No input is read until the first
// call to Advance.
func New(r io.Reader, opts Options) *Parser {
	if opts.Logger == nil {
		opts.Logger = klog.GetDefault()
	}
	if opts.Precedence == nil {
		opts.Precedence = NewPrecedenceTable()
	}
	opts.Precedence.Install()

	return &Parser{
		lexer:      NewLexer(r),
		precedence: opts.Precedence,
		logger:     opts.Logger.WithField("component", "kaleido-parser"),
	}
}

// NewString creates a parser over an in-memory string
func NewString(input string, opts Options) *Parser {
	return New(strings.NewReader(input), opts)
}

// Current returns the token the parser is looking at
func (p *Parser) Current() Token {
	return p.current
}

// Advance reads the next token into the cursor and returns it
func (p *Parser) Advance() Token {
	p.current = p.lexer.NextToken()
	if p.logger.IsLevelEnabled(klog.LevelTrace) {
		p.logger.Trace("token", klog.Fields{
			"token":  p.current.String(),
			"line":   p.current.Pos.Line,
			"column": p.current.Pos.Column,
		})
	}
	return p.current
}

// Err reports a read error that ended the token stream early
func (p *Parser) Err() error {
	if err := p.lexer.Err(); err != nil {
		return kerror.Wrap(err, "reading source").WithCode(kerror.CodeIO)
	}
	return nil
}

// ParsePrimary parses an identifier reference, call, number or
// parenthesized expression
func (p *Parser) ParsePrimary() (ast.Expr, error) {
	switch {
	case p.current.Kind == TokenIdentifier:
		return p.parseIdentifierExpr()
	case p.current.Kind == TokenNumber:
		return p.parseNumberExpr(), nil
	case p.current.Is('('):
		return p.parseParenExpr()
	default:
		return nil, p.unexpected("unknown token when expecting an expression")
	}
}

// parseNumberExpr parses a numeric literal
func (p *Parser) parseNumberExpr() ast.Expr {
	expr := &ast.NumberExpr{Value: p.current.Value, Pos: p.current.Pos}
	p.Advance() // consume number
	return expr
}

// parseParenExpr parses '(' expression ')'. Parentheses only group, they
// leave no node behind.
func (p *Parser) parseParenExpr() (ast.Expr, error) {
	p.Advance() // consume '('

	expr, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}

	if !p.current.Is(')') {
		return nil, p.unexpected("expected ')'")
	}
	p.Advance() // consume ')'

	return expr, nil
}

// parseIdentifierExpr parses a variable reference or a call
func (p *Parser) parseIdentifierExpr() (ast.Expr, error) {
	name := p.current.Text
	pos := p.current.Pos

	p.Advance() // consume identifier

	if !p.current.Is('(') {
		return &ast.VariableExpr{Name: name, Pos: pos}, nil
	}
	p.Advance() // consume '('

	args := make([]ast.Expr, 0)
	if !p.current.Is(')') {
		for {
			arg, err := p.ParseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			if p.current.Is(')') {
				break
			}
			if !p.current.Is(',') {
				return nil, p.unexpected("expected ')' or ',' in argument list")
			}
			p.Advance() // consume ','
		}
	}
	p.Advance() // consume ')'

	return &ast.CallExpr{Callee: name, Args: args, Pos: pos}, nil
}

// ParseExpression parses a primary followed by any number of binary
// operator and primary pairs
func (p *Parser) ParseExpression() (ast.Expr, error) {
	lhs, err := p.ParsePrimary()
	if err != nil {
		return nil, err
	}
	return p.parseBinOpRHS(0, lhs)
}

// parseBinOpRHS folds operators binding at least as tightly as minPrec into
// lhs. An operator only takes the following operator's subtree when that
// operator binds strictly tighter, so equal precedence associates left.
func (p *Parser) parseBinOpRHS(minPrec int, lhs ast.Expr) (ast.Expr, error) {
	for {
		tokPrec, err := p.precedence.Precedence(p.current)
		if err != nil {
			return nil, err
		}
		if tokPrec < minPrec {
			return lhs, nil
		}

		op := p.current
		p.Advance() // consume operator

		rhs, err := p.ParsePrimary()
		if err != nil {
			return nil, err
		}

		nextPrec, err := p.precedence.Precedence(p.current)
		if err != nil {
			return nil, err
		}
		if tokPrec < nextPrec {
			rhs, err = p.parseBinOpRHS(tokPrec+1, rhs)
			if err != nil {
				return nil, err
			}
		}

		lhs = &ast.BinaryExpr{Op: op.Char, LHS: lhs, RHS: rhs, Pos: op.Pos}
	}
}

// ParsePrototype parses name '(' identifier* ')'
func (p *Parser) ParsePrototype() (*ast.Prototype, error) {
	if p.current.Kind != TokenIdentifier {
		return nil, p.unexpected("expected function name in prototype")
	}
	name := p.current.Text
	pos := p.current.Pos

	p.Advance() // consume name

	if !p.current.Is('(') {
		return nil, p.unexpected("expected '(' in prototype")
	}

	params := make([]string, 0)
	for p.Advance().Kind == TokenIdentifier {
		params = append(params, p.current.Text)
	}

	if !p.current.Is(')') {
		return nil, p.unexpected("expected ')' in prototype")
	}
	p.Advance() // consume ')'

	return &ast.Prototype{Name: name, Params: params, Pos: pos}, nil
}

// ParseDefinition parses 'def' prototype expression
func (p *Parser) ParseDefinition() (*ast.Function, error) {
	pos := p.current.Pos
	p.Advance() // consume 'def'

	proto, err := p.ParsePrototype()
	if err != nil {
		return nil, err
	}

	body, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}

	p.logger.Debug("Parsed definition", klog.Fields{
		"name":   proto.Name,
		"params": proto.Params,
		"line":   pos.Line,
	})

	return &ast.Function{Proto: proto, Body: body, Pos: pos}, nil
}

// ParseExtern parses 'extern' prototype
func (p *Parser) ParseExtern() (*ast.Prototype, error) {
	p.Advance() // consume 'extern'

	proto, err := p.ParsePrototype()
	if err != nil {
		return nil, err
	}

	p.logger.Debug("Parsed extern", klog.Fields{
		"name":   proto.Name,
		"params": proto.Params,
	})

	return proto, nil
}

// ParseTopLevelExpr parses an expression and wraps it in an anonymous
// function
func (p *Parser) ParseTopLevelExpr() (*ast.Function, error) {
	pos := p.current.Pos

	body, err := p.ParseExpression()
	if err != nil {
		return nil, err
	}

	p.logger.Debug("Parsed top-level expression", klog.Fields{
		"line": pos.Line,
	})

	return &ast.Function{Proto: ast.NewAnonymousPrototype(pos), Body: body, Pos: pos}, nil
}

// unexpected creates a syntax error located at the current token
func (p *Parser) unexpected(message string) error {
	pos := p.current.Pos
	return kerror.New(message).
		WithCode(kerror.CodeUnexpectedToken).
		WithPosition(kerror.Position{Line: pos.Line, Column: pos.Column, Offset: pos.Offset}).
		WithDetail("token", p.current.String())
}

// IsUnexpectedToken reports whether err is a syntax error
func IsUnexpectedToken(err error) bool {
	return kerror.HasCode(err, kerror.CodeUnexpectedToken)
}

// IsPrecedenceUninstalled reports whether err comes from querying an
// uninstalled precedence table
func IsPrecedenceUninstalled(err error) bool {
	return kerror.HasCode(err, kerror.CodePrecedenceTableUninstalled)
}

// Diagnostic formats err as "line:column: message" when it carries a source
// position, and as err.Error() otherwise
func Diagnostic(err error) string {
	if pe := asPositioned(err); pe != nil {
		pos, _ := pe.Position()
		return fmt.Sprintf("%s: %s", pos, pe.Message())
	}
	return err.Error()
}

func asPositioned(err error) *kerror.Error {
	for err != nil {
		if e, ok := err.(*kerror.Error); ok {
			if _, has := e.Position(); has {
				return e
			}
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil
		}
		err = u.Unwrap()
	}
	return nil
}
