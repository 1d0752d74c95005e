package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/msto63/kaleido/foundation/kaleido"

	"github.com/msto63/kaleido/internal/history"
	"github.com/msto63/kaleido/internal/render"
)

var (
	replFormat   string
	replStrict   bool
	replNoPrompt bool
	replPlain    bool
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Startet die interaktive Eingabeschleife",
	Long: `Liest Quelltext von stdin und gibt jedes erkannte Konstrukt aus.

Am Terminal steht ein Zeileneditor mit Verlauf bereit (Pfeiltasten,
Strg+R), sonst erscheint vor jedem Konstrukt die Eingabeaufforderung
auf stderr.
Nach einem Fehler wird genau ein Token übersprungen und weitergeparst.
Strg+D beendet die Eingabe.

Beispiele:
  kaleido repl
  echo "def f(x) x*2" | kaleido repl --no-prompt --format json`,
	Args: cobra.NoArgs,
	RunE: runREPL,
}

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().StringVarP(&replFormat, "format", "f", "", "Ausgabeformat: text, sexpr, tree, json, yaml (default aus Config)")
	replCmd.Flags().BoolVar(&replStrict, "strict", false, "Doppelte Parameternamen als Fehler melden")
	replCmd.Flags().BoolVar(&replNoPrompt, "no-prompt", false, "Keine Eingabeaufforderung ausgeben")
	replCmd.Flags().BoolVar(&replPlain, "plain", false, "Zeileneditor auch am Terminal abschalten")
}

func runREPL(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, "kaleido-repl")
	if err != nil {
		return err
	}
	defer a.Close()

	format := a.cfg.REPL.Format
	if replFormat != "" {
		format = replFormat
	}
	f, err := render.ParseFormat(format)
	if err != nil {
		return err
	}

	session := uuid.New().String()
	renderer := render.New(render.Options{
		Format: f,
		Out:    cmd.OutOrStdout(),
		ErrOut: cmd.ErrOrStderr(),
		Styled: true,
	})

	var handler kaleido.Handler = renderer
	hist, err := a.openHistory(false)
	if err != nil {
		return err
	}
	var recorder *history.Recorder
	if hist != nil {
		recorder = history.NewRecorder(hist, session, renderer, a.logger)
		handler = recorder
	}

	opts := kaleido.Options{
		Logger:     a.logger,
		PromptText: a.cfg.REPL.Prompt,
		Strict:     replStrict || a.cfg.REPL.Strict,
		SessionID:  session,
	}

	input := cmd.InOrStdin()
	switch {
	case replNoPrompt:
	case !replPlain && isInteractive(input, cmd.OutOrStdout()):
		// the line editor prints the prompt for every line
		editor := startLineEditor(a.cfg.REPL.Prompt, filepath.Join(a.cfg.General.DataDir, "repl_history"), a.logger)
		defer editor.Close()
		input = editor.Reader()
	default:
		opts.Prompt = cmd.ErrOrStderr()
	}
	engine := kaleido.NewEngine(opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := engine.Run(ctx, input, handler)
	if opts.Prompt != nil {
		fmt.Fprintln(cmd.ErrOrStderr())
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("Eingabe konnte nicht gelesen werden: %w", err)
	}
	if err := renderer.Err(); err != nil {
		return fmt.Errorf("Ausgabe fehlgeschlagen: %w", err)
	}

	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d Konstrukte, %d Fehler in %s\n", stats.Constructs(), stats.Errors, stats.Elapsed)
		if recorder != nil {
			recorded, failed := recorder.Counts()
			fmt.Fprintf(cmd.ErrOrStderr(), "Historie: %d gespeichert, %d fehlgeschlagen\n", recorded, failed)
		}
	}
	return nil
}
