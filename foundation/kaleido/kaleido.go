// File: kaleido.go
// Title: Kaleido Engine
// Description: Provides the top-level driver of the kaleido front-end. The
//              engine reads a source stream construct by construct, hands
//              every parsed definition, extern and top-level expression to a
//              Handler, reports failures and resumes one token after the
//              point of failure.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-25
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-25 v0.1.0: Initial engine implementation
// - 2026-10-19 v0.2.0: Streaming driver loop with single-token recovery

package kaleido

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	klog "github.com/msto63/kaleido/foundation/core/log"
	"github.com/msto63/kaleido/foundation/kaleido/ast"
	"github.com/msto63/kaleido/foundation/kaleido/parser"
)

// DefaultPrompt is written before every construct when a prompt writer is set
const DefaultPrompt = "ready> "

// ConstructKind identifies the top-level construct a Result holds
type ConstructKind int

const (
	KindDefinition ConstructKind = iota
	KindExtern
	KindExpression
)

// String returns the lower-case name of the kind
func (k ConstructKind) String() string {
	switch k {
	case KindDefinition:
		return "definition"
	case KindExtern:
		return "extern"
	case KindExpression:
		return "expression"
	default:
		return fmt.Sprintf("ConstructKind(%d)", int(k))
	}
}

// Result is one successfully parsed top-level construct. Function is set for
// definitions and expressions, Prototype for all kinds.
type Result struct {
	Kind      ConstructKind
	Function  *ast.Function
	Prototype *ast.Prototype
	Pos       ast.Position
}

// Node returns the root node of the construct
func (r Result) Node() ast.Node {
	if r.Function != nil {
		return r.Function
	}
	return r.Prototype
}

// Handler receives the outcome of every top-level construct
type Handler interface {
	OnConstruct(result Result)
	OnError(err error)
}

// HandlerFuncs adapts plain functions to Handler. Nil functions are skipped.
type HandlerFuncs struct {
	Construct func(Result)
	Error     func(error)
}

func (h HandlerFuncs) OnConstruct(result Result) {
	if h.Construct != nil {
		h.Construct(result)
	}
}

func (h HandlerFuncs) OnError(err error) {
	if h.Error != nil {
		h.Error(err)
	}
}

// Collector is a Handler that keeps everything it receives
type Collector struct {
	Results []Result
	Errors  []error
}

func (c *Collector) OnConstruct(result Result) {
	c.Results = append(c.Results, result)
}

func (c *Collector) OnError(err error) {
	c.Errors = append(c.Errors, err)
}

// Stats summarizes one run
type Stats struct {
	Definitions int           `json:"definitions"`
	Externs     int           `json:"externs"`
	Expressions int           `json:"expressions"`
	Errors      int           `json:"errors"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Constructs returns the number of successfully parsed constructs
func (s *Stats) Constructs() int {
	return s.Definitions + s.Externs + s.Expressions
}

// Options configures the engine
type Options struct {
	// Logger for engine and parser operations (defaults to the default logger)
	Logger *klog.Logger

	// Prompt receives PromptText before every construct; nil disables it
	Prompt io.Writer

	// PromptText defaults to DefaultPrompt
	PromptText string

	// Strict reports constructs that fail ast validation, such as
	// prototypes with repeated parameter names, as errors
	Strict bool

	// SessionID tags every log entry of this engine
	SessionID string
}

// Engine drives the parser over a whole source stream
type Engine struct {
	logger     *klog.Logger
	precedence *parser.PrecedenceTable
	options    Options
}

// NewEngine creates a new engine
func NewEngine(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = klog.GetDefault()
	}
	if opts.PromptText == "" {
		opts.PromptText = DefaultPrompt
	}

	logger := opts.Logger.WithField("component", "kaleido-engine")
	if opts.SessionID != "" {
		logger = logger.WithSessionID(opts.SessionID)
	}

	return &Engine{
		logger:     logger,
		precedence: parser.DefaultPrecedence(),
		options:    opts,
	}
}

// Run parses r to its end. Every construct goes to h; after a failed
// construct exactly one token is skipped and parsing resumes. The context is
// checked between constructs. The returned error is non-nil only when the
// run was cancelled or reading the input failed.
func (e *Engine) Run(ctx context.Context, r io.Reader, h Handler) (*Stats, error) {
	stats := &Stats{}
	start := time.Now()
	timer := e.logger.StartTimer("kaleido run")

	p := parser.New(r, parser.Options{Logger: e.logger, Precedence: e.precedence})

	e.prompt()
	p.Advance()

	for {
		if err := ctx.Err(); err != nil {
			stats.Elapsed = time.Since(start)
			timer.StopWithError(err)
			return stats, err
		}

		tok := p.Current()
		switch {
		case tok.Kind == parser.TokenEOF:
			stats.Elapsed = time.Since(start)
			if err := p.Err(); err != nil {
				timer.StopWithError(err)
				return stats, err
			}
			timer.WithField("constructs", stats.Constructs()).WithField("errors", stats.Errors).Stop()
			return stats, nil

		case tok.Is(';'):
			p.Advance() // ignore top-level semicolons

		case tok.Kind == parser.TokenDef:
			fn, err := p.ParseDefinition()
			if err != nil {
				e.skipFailed(p, h, stats, err)
				break
			}
			e.deliver(h, stats, Result{Kind: KindDefinition, Function: fn, Prototype: fn.Proto, Pos: fn.Pos})

		case tok.Kind == parser.TokenExtern:
			proto, err := p.ParseExtern()
			if err != nil {
				e.skipFailed(p, h, stats, err)
				break
			}
			e.deliver(h, stats, Result{Kind: KindExtern, Prototype: proto, Pos: tok.Pos})

		default:
			fn, err := p.ParseTopLevelExpr()
			if err != nil {
				e.skipFailed(p, h, stats, err)
				break
			}
			e.deliver(h, stats, Result{Kind: KindExpression, Function: fn, Prototype: fn.Proto, Pos: fn.Pos})
		}

		if p.Current().Kind != parser.TokenEOF {
			e.prompt()
		}
	}
}

// ParseString parses src and returns everything it produced
func (e *Engine) ParseString(src string) ([]Result, []error) {
	collector := &Collector{}
	if _, err := e.Run(context.Background(), strings.NewReader(src), collector); err != nil {
		collector.Errors = append(collector.Errors, err)
	}
	return collector.Results, collector.Errors
}

func (e *Engine) deliver(h Handler, stats *Stats, result Result) {
	if e.options.Strict {
		if err := result.Node().Validate(); err != nil {
			stats.Errors++
			e.logger.Warn("Construct failed validation", klog.Fields{
				"kind":  result.Kind.String(),
				"line":  result.Pos.Line,
				"error": err.Error(),
			})
			h.OnError(fmt.Errorf("%s at %s: %w", result.Kind, result.Pos, err))
			return
		}
	}

	switch result.Kind {
	case KindDefinition:
		stats.Definitions++
	case KindExtern:
		stats.Externs++
	case KindExpression:
		stats.Expressions++
	}
	h.OnConstruct(result)
}

// skipFailed reports err and skips the token the parser failed on
func (e *Engine) skipFailed(p *parser.Parser, h Handler, stats *Stats, err error) {
	stats.Errors++
	e.logger.LogError(err)
	h.OnError(err)
	p.Advance()
}

func (e *Engine) prompt() {
	if e.options.Prompt != nil {
		io.WriteString(e.options.Prompt, e.options.PromptText)
	}
}
