// Package tui implements an interactive terminal REPL for kaleido sources.
// Every submitted line is parsed as an independent input.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/msto63/kaleido/foundation/kaleido"
	"github.com/msto63/kaleido/foundation/kaleido/ast"
	"github.com/msto63/kaleido/foundation/kaleido/parser"

	"github.com/msto63/kaleido/internal/render"
)

// View selects how parsed constructs are shown in the transcript
type View int

const (
	ViewSExpr View = iota
	ViewTree
	ViewText
)

var viewNames = []string{"S-Expr", "Baum", "Text"}

// entryRole classifies a transcript line
type entryRole int

const (
	roleInput entryRole = iota
	roleResult
	roleError
)

type entry struct {
	role   entryRole
	input  string
	result kaleido.Result
	err    error
}

// Options configures the TUI
type Options struct {
	// Engine parses the submitted lines
	Engine *kaleido.Engine

	// Handler additionally receives every construct and error, e.g. the
	// history recorder; may be nil
	Handler kaleido.Handler
}

// Model is the bubbletea model of the REPL
type Model struct {
	view   View
	width  int
	height int
	ready  bool

	input    textinput.Model
	viewport viewport.Model

	engine  *kaleido.Engine
	handler kaleido.Handler

	entries []entry
	parsed  int
	failed  int
}

// NewModel creates a new TUI model
func NewModel(opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "def f(x) x*2"
	ti.Prompt = kaleido.DefaultPrompt
	ti.CharLimit = 4000
	ti.Focus()

	if opts.Engine == nil {
		opts.Engine = kaleido.NewEngine(kaleido.Options{})
	}

	return Model{
		view:    ViewSExpr,
		input:   ti,
		engine:  opts.Engine,
		handler: opts.Handler,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit

		case "tab":
			m.view = (m.view + 1) % View(len(viewNames))
			m.updateContent()
			return m, nil

		case "enter":
			line := strings.TrimSpace(m.input.Value())
			if line != "" {
				m.submit(line)
				m.input.Reset()
				m.updateContent()
			}
			return m, nil

		case "ctrl+l":
			m.entries = nil
			m.updateContent()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(msg.Width, max(1, msg.Height-7))
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = max(1, msg.Height-7)
		}
		m.input.Width = max(10, msg.Width-len(m.input.Prompt)-6)
		m.updateContent()
	}

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit parses one line and appends its outcome to the transcript
func (m *Model) submit(line string) {
	m.entries = append(m.entries, entry{role: roleInput, input: line})

	results, errs := m.engine.ParseString(line)
	for _, r := range results {
		m.entries = append(m.entries, entry{role: roleResult, result: r})
		if m.handler != nil {
			m.handler.OnConstruct(r)
		}
	}
	for _, err := range errs {
		m.entries = append(m.entries, entry{role: roleError, err: err})
		if m.handler != nil {
			m.handler.OnError(err)
		}
	}
	m.parsed += len(results)
	m.failed += len(errs)
}

// View renders the UI
func (m Model) View() string {
	if !m.ready {
		return "Lade..."
	}

	var s strings.Builder
	s.WriteString(m.renderHeader())
	s.WriteString("\n")
	s.WriteString(m.viewport.View())
	s.WriteString("\n")
	s.WriteString(InputStyle.Width(max(10, m.width-2)).Render(m.input.View()))
	s.WriteString("\n")
	s.WriteString(m.renderFooter())
	return s.String()
}

func (m *Model) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if View(i) == m.view {
			tabs = append(tabs, ActiveTabStyle.Render(name))
		} else {
			tabs = append(tabs, TabStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		TitleStyle.Render("kaleido"),
		"  ",
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
	)
}

func (m *Model) renderFooter() string {
	help := "Enter: Parsen • Tab: Ansicht • Ctrl+L: Leeren • Ctrl+C: Beenden"
	counts := fmt.Sprintf("Konstrukte: %d  Fehler: %d", m.parsed, m.failed)

	return StatusBarStyle.Width(m.width).Render(
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			help,
			strings.Repeat(" ", max(0, m.width-len(help)-len(counts)-4)),
			counts,
		),
	)
}

func (m *Model) updateContent() {
	var content strings.Builder

	for _, e := range m.entries {
		switch e.role {
		case roleInput:
			content.WriteString(InputLineStyle.Render(kaleido.DefaultPrompt))
			content.WriteString(e.input)
		case roleResult:
			content.WriteString(KindStyle.Render("[" + e.result.Kind.String() + "] "))
			content.WriteString(ASTStyle.Render(m.renderResult(e.result)))
		case roleError:
			content.WriteString(RenderError(parser.Diagnostic(e.err)))
		}
		content.WriteString("\n")
	}

	m.viewport.SetContent(content.String())
	m.viewport.GotoBottom()
}

func (m *Model) renderResult(r kaleido.Result) string {
	switch m.view {
	case ViewTree:
		return "\n" + strings.TrimRight(ast.Tree(r.Node()), "\n")
	case ViewText:
		return render.Summary(r)
	default:
		return ast.SExpr(r.Node())
	}
}
