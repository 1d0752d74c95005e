// Package render writes parsed constructs and diagnostics in the output
// formats of the CLI: text, sexpr, tree, json and yaml.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	kerror "github.com/msto63/kaleido/foundation/core/error"
	"github.com/msto63/kaleido/foundation/kaleido"
	"github.com/msto63/kaleido/foundation/kaleido/ast"
	"github.com/msto63/kaleido/foundation/kaleido/parser"
)

// Format selects how constructs are written
type Format string

const (
	FormatText  Format = "text"
	FormatSExpr Format = "sexpr"
	FormatTree  Format = "tree"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

var (
	errorLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	kindStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED"))
)

// ParseFormat validates a format name
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatText, FormatSExpr, FormatTree, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", kerror.Newf("unknown output format %q", name).WithCode(kerror.CodeInvalidInput)
	}
}

// Renderer writes results to out and diagnostics to errOut. It implements
// kaleido.Handler, so it can be handed straight to Engine.Run.
type Renderer struct {
	format Format
	out    io.Writer
	errOut io.Writer
	styled bool

	mu    sync.Mutex
	count int
	err   error
}

// Options configures a Renderer
type Options struct {
	Format Format
	Out    io.Writer
	ErrOut io.Writer // defaults to Out

	// Styled colors labels in text, sexpr and tree output
	Styled bool
}

// New creates a renderer
func New(opts Options) *Renderer {
	if opts.Format == "" {
		opts.Format = FormatSExpr
	}
	if opts.ErrOut == nil {
		opts.ErrOut = opts.Out
	}
	return &Renderer{
		format: opts.Format,
		out:    opts.Out,
		errOut: opts.ErrOut,
		styled: opts.Styled,
	}
}

// Err returns the first write error
func (r *Renderer) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// OnConstruct writes a parsed construct
func (r *Renderer) OnConstruct(result kaleido.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keep(r.writeResult(result))
	r.count++
}

// OnError writes a diagnostic
func (r *Renderer) OnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keep(r.writeError(err))
	r.count++
}

func (r *Renderer) keep(err error) {
	if err != nil && r.err == nil {
		r.err = err
	}
}

func (r *Renderer) writeResult(result kaleido.Result) error {
	switch r.format {
	case FormatJSON:
		return json.NewEncoder(r.out).Encode(ResultDocument(result))
	case FormatYAML:
		return r.writeYAML(r.out, ResultDocument(result))
	case FormatTree:
		_, err := fmt.Fprintf(r.out, "%s\n%s", r.label(Summary(result)), ast.Tree(result.Node()))
		return err
	case FormatText:
		_, err := fmt.Fprintf(r.out, "%s\n", Summary(result))
		return err
	default:
		_, err := fmt.Fprintf(r.out, "%s\n", ast.SExpr(result.Node()))
		return err
	}
}

func (r *Renderer) writeError(err error) error {
	switch r.format {
	case FormatJSON:
		return json.NewEncoder(r.errOut).Encode(map[string]interface{}{"error": ErrorDocument(err)})
	case FormatYAML:
		return r.writeYAML(r.errOut, map[string]interface{}{"error": ErrorDocument(err)})
	default:
		prefix := "Error:"
		if r.styled {
			prefix = errorLabelStyle.Render(prefix)
		}
		_, werr := fmt.Fprintf(r.errOut, "%s %s\n", prefix, parser.Diagnostic(err))
		return werr
	}
}

func (r *Renderer) writeYAML(w io.Writer, doc interface{}) error {
	if r.count > 0 {
		if _, err := io.WriteString(w, "---\n"); err != nil {
			return err
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func (r *Renderer) label(s string) string {
	if r.styled {
		return kindStyle.Render(s)
	}
	return s
}

// Summary returns the one-line acknowledgement of a construct
func Summary(result kaleido.Result) string {
	switch result.Kind {
	case kaleido.KindDefinition:
		return fmt.Sprintf("Parsed a function definition: %s", result.Prototype)
	case kaleido.KindExtern:
		return fmt.Sprintf("Parsed an extern: %s", result.Prototype)
	default:
		return fmt.Sprintf("Parsed a top-level expression: %s", result.Function.Body)
	}
}

// ResultDocument converts a construct into a map for structured encoders
func ResultDocument(result kaleido.Result) map[string]interface{} {
	return map[string]interface{}{
		"kind":  result.Kind.String(),
		"line":  result.Pos.Line,
		"sexpr": ast.SExpr(result.Node()),
		"ast":   ast.ToMap(result.Node()),
	}
}

// ErrorDocument converts a diagnostic into a map for structured encoders
func ErrorDocument(err error) map[string]interface{} {
	doc := map[string]interface{}{
		"code":    string(kerror.GetCode(err)),
		"message": err.Error(),
	}

	var kerr *kerror.Error
	if errors.As(err, &kerr) {
		doc["message"] = kerr.Message()
		if pos, ok := kerr.Position(); ok {
			doc["line"] = pos.Line
			doc["column"] = pos.Column
		}
		if tok, ok := kerr.Details()["token"]; ok {
			doc["token"] = tok
		}
	}
	return doc
}
