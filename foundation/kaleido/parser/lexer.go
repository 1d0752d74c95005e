// File: lexer.go
// Title: Kaleido Lexical Analyzer (Tokenizer)
// Description: Implements the lexical analysis phase of kaleido parsing.
//              Reads single-byte input from an io.Reader and produces one
//              token per call, keeping exactly one byte of lookahead between
//              calls. Tokens carry their payload and source position.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-25 v0.1.0: Initial lexer implementation
// - 2026-10-19 v0.2.0: Streaming byte lexer for the expression language

package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/msto63/kaleido/foundation/kaleido/ast"
)

// TokenKind represents the kind of a lexical token
type TokenKind int

const (
	TokenEOF        TokenKind = iota // end of input
	TokenDef                         // def
	TokenExtern                      // extern
	TokenIdentifier                  // foo, x1
	TokenNumber                      // 1.0, .5
	TokenSymbol                      // any other single byte: ( ) , ; + - * < ...
)

// String returns a string representation of the token kind
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "EOF"
	case TokenDef:
		return "DEF"
	case TokenExtern:
		return "EXTERN"
	case TokenIdentifier:
		return "IDENTIFIER"
	case TokenNumber:
		return "NUMBER"
	case TokenSymbol:
		return "SYMBOL"
	default:
		return fmt.Sprintf("TokenKind(%d)", int(k))
	}
}

// Token represents a lexical token. Only the payload field matching Kind is
// meaningful.
type Token struct {
	Kind  TokenKind
	Text  string  // Identifier
	Value float64 // Number
	Char  byte    // Symbol
	Pos   ast.Position
}

// String returns a string representation of the token
func (t Token) String() string {
	switch t.Kind {
	case TokenIdentifier:
		return fmt.Sprintf("IDENTIFIER(%s)", t.Text)
	case TokenNumber:
		return fmt.Sprintf("NUMBER(%s)", ast.FormatNumber(t.Value))
	case TokenSymbol:
		return fmt.Sprintf("SYMBOL(%q)", t.Char)
	default:
		return t.Kind.String()
	}
}

// Is reports whether t is the symbol ch
func (t Token) Is(ch byte) bool {
	return t.Kind == TokenSymbol && t.Char == ch
}

const eof = -1

// Lexer tokenizes kaleido source
type Lexer struct {
	reader *bufio.Reader
	err    error

	lastChar int          // lookahead byte, or eof
	lastPos  ast.Position // position of lastChar

	// position of the next byte to be read
	line   int
	column int
	offset int
}

// NewLexer creates a new lexer reading from r. The lookahead starts out as a
// space, so nothing is read until the first call to NextToken.
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{
		reader:   bufio.NewReader(r),
		lastChar: ' ',
		line:     1,
		column:   1,
	}
}

// NewStringLexer creates a lexer over an in-memory string
func NewStringLexer(input string) *Lexer {
	return NewLexer(strings.NewReader(input))
}

// Err returns the first read error other than io.EOF. A read error ends the
// token stream exactly like end of input does.
func (l *Lexer) Err() error {
	return l.err
}

// readChar replaces the lookahead with the next input byte
func (l *Lexer) readChar() {
	if l.lastChar == eof {
		return
	}
	b, err := l.reader.ReadByte()
	if err != nil {
		if !errors.Is(err, io.EOF) && l.err == nil {
			l.err = err
		}
		l.lastChar = eof
		l.lastPos = ast.Position{Line: l.line, Column: l.column, Offset: l.offset}
		return
	}

	l.lastChar = int(b)
	l.lastPos = ast.Position{Line: l.line, Column: l.column, Offset: l.offset}
	l.offset++
	if b == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	for {
		for isSpace(l.lastChar) {
			l.readChar()
		}

		start := l.lastPos

		// identifier: [a-zA-Z][a-zA-Z0-9]*
		if isAlpha(l.lastChar) {
			var sb strings.Builder
			sb.WriteByte(byte(l.lastChar))
			l.readChar()
			for isAlnum(l.lastChar) {
				sb.WriteByte(byte(l.lastChar))
				l.readChar()
			}

			text := sb.String()
			switch text {
			case "def":
				return Token{Kind: TokenDef, Text: text, Pos: start}
			case "extern":
				return Token{Kind: TokenExtern, Text: text, Pos: start}
			}
			return Token{Kind: TokenIdentifier, Text: text, Pos: start}
		}

		// number: [0-9.]+
		if isDigit(l.lastChar) || l.lastChar == '.' {
			var sb strings.Builder
			for isDigit(l.lastChar) || l.lastChar == '.' {
				sb.WriteByte(byte(l.lastChar))
				l.readChar()
			}
			return Token{Kind: TokenNumber, Value: parseNumber(sb.String()), Pos: start}
		}

		if l.lastChar == '#' {
			for l.lastChar != eof && l.lastChar != '\n' && l.lastChar != '\r' {
				l.readChar()
			}
			continue
		}

		// end of input is not consumed, so repeated calls keep returning EOF
		if l.lastChar == eof {
			return Token{Kind: TokenEOF, Pos: start}
		}

		ch := byte(l.lastChar)
		l.readChar()
		return Token{Kind: TokenSymbol, Char: ch, Pos: start}
	}
}

// Tokenize drains the lexer and returns all tokens including the final EOF
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Kind == TokenEOF {
			return tokens, l.err
		}
	}
}

// parseNumber converts a run of digits and dots leniently: the longest
// prefix that forms a number wins, "1.2.3" reads as 1.2 and "." as 0.
func parseNumber(text string) float64 {
	if first := strings.IndexByte(text, '.'); first >= 0 {
		if second := strings.IndexByte(text[first+1:], '.'); second >= 0 {
			text = text[:first+1+second]
		}
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return value
		}
		return 0
	}
	return value
}

// isSpace matches the C locale isspace set
func isSpace(c int) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func isAlpha(c int) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c int) bool {
	return c >= '0' && c <= '9'
}

func isAlnum(c int) bool {
	return isAlpha(c) || isDigit(c)
}
