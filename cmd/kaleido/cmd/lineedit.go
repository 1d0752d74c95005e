package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	klog "github.com/msto63/kaleido/foundation/core/log"
)

// isInteractive reports whether in and out are both terminals
func isInteractive(in io.Reader, out io.Writer) bool {
	inFile, ok := in.(*os.File)
	if !ok {
		return false
	}
	outFile, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(inFile.Fd()) && isatty.IsTerminal(outFile.Fd())
}

// prompter is the part of *liner.State the line editor uses
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	WriteHistory(w io.Writer) (int, error)
	Close() error
}

// closeGrace bounds how long Close waits for a prompt that is still reading
// the terminal
const closeGrace = 500 * time.Millisecond

// lineEditor reads lines from the terminal with editing and a persistent
// input history, and streams them to the engine through a pipe. Constructs
// may therefore span several lines, exactly as with piped input.
//
// Only the prompt goroutine touches the liner state. It saves the history
// and closes the state when it exits.
type lineEditor struct {
	state       prompter
	historyPath string
	logger      *klog.Logger
	reader      *io.PipeReader
	done        chan struct{}
}

func startLineEditor(prompt, historyPath string, logger *klog.Logger) *lineEditor {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)

	if f, err := os.Open(historyPath); err == nil {
		_, _ = state.ReadHistory(f)
		_ = f.Close()
	}

	return newLineEditor(state, prompt, historyPath, logger)
}

func newLineEditor(state prompter, prompt, historyPath string, logger *klog.Logger) *lineEditor {
	pr, pw := io.Pipe()
	e := &lineEditor{
		state:       state,
		historyPath: historyPath,
		logger:      logger,
		reader:      pr,
		done:        make(chan struct{}),
	}
	go e.run(prompt, pw)
	return e
}

func (e *lineEditor) run(prompt string, pw *io.PipeWriter) {
	defer pw.Close()
	defer close(e.done)
	defer e.shutdown()

	for {
		line, err := e.state.Prompt(prompt)
		if err != nil {
			// io.EOF on Ctrl+D, liner.ErrPromptAborted on Ctrl+C
			return
		}
		if strings.TrimSpace(line) != "" {
			e.state.AppendHistory(line)
		}
		if _, err := io.WriteString(pw, line+"\n"); err != nil {
			// reader closed
			return
		}
	}
}

// shutdown saves the input history and restores the terminal
func (e *lineEditor) shutdown() {
	if err := os.MkdirAll(filepath.Dir(e.historyPath), 0755); err == nil {
		if f, err := os.Create(e.historyPath); err == nil {
			if _, err := e.state.WriteHistory(f); err != nil {
				e.logger.WarnWithErr("Failed to save input history", err)
			}
			_ = f.Close()
		}
	}
	if err := e.state.Close(); err != nil {
		e.logger.WarnWithErr("Failed to restore terminal", err)
	}
}

// Reader returns the stream of typed lines
func (e *lineEditor) Reader() io.Reader {
	return e.reader
}

// Close stops the prompt loop and waits for it to exit. The loop ends with
// the next line written to the closed pipe. A prompt still waiting for
// input after closeGrace is left to the exiting process.
func (e *lineEditor) Close() {
	e.reader.Close()

	select {
	case <-e.done:
	case <-time.After(closeGrace):
		e.logger.Debug("Line editor still waiting for input, input history not saved")
	}
}
