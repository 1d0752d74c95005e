package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	klog "github.com/msto63/kaleido/foundation/core/log"
	"github.com/msto63/kaleido/foundation/kaleido"

	"github.com/msto63/kaleido/internal/history"
	"github.com/msto63/kaleido/internal/history/store"
	"github.com/msto63/kaleido/internal/render"
)

var (
	parseFormat string
	parseStrict bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [datei]",
	Short: "Parst eine Datei und gibt die Syntaxbäume aus",
	Long: `Parst eine Quelldatei (oder stdin bei "-" bzw. ohne Argument) und
gibt jedes Konstrukt im gewählten Format aus. Fehler erscheinen auf stderr,
der Exit-Code ist dann 1.

Beispiele:
  kaleido parse programm.kal
  kaleido parse --format tree programm.kal
  kaleido parse --strict --format json - < quelle.kal`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "", "Ausgabeformat: text, sexpr, tree, json, yaml (default aus Config)")
	parseCmd.Flags().BoolVar(&parseStrict, "strict", false, "Doppelte Parameternamen als Fehler melden")
}

func runParse(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, "kaleido-parse")
	if err != nil {
		return err
	}
	defer a.Close()

	format := a.cfg.REPL.Format
	if parseFormat != "" {
		format = parseFormat
	}
	f, err := render.ParseFormat(format)
	if err != nil {
		return err
	}

	var path string
	if len(args) > 0 {
		path = args[0]
	}
	in, name, err := openInput(cmd, path)
	if err != nil {
		return err
	}
	defer in.Close()

	session := uuid.New().String()
	renderer := render.New(render.Options{
		Format: f,
		Out:    cmd.OutOrStdout(),
		ErrOut: cmd.ErrOrStderr(),
		Styled: true,
	})
	batch := history.NewBatch(session, renderer)

	engine := kaleido.NewEngine(kaleido.Options{
		Logger:    a.logger.WithField("source", name),
		Strict:    parseStrict || a.cfg.REPL.Strict,
		SessionID: session,
	})

	ctx := context.Background()
	stats, err := engine.Run(ctx, in, batch)
	if err != nil {
		return fmt.Errorf("%s konnte nicht gelesen werden: %w", name, err)
	}

	// history is written even when the output failed
	hist, err := a.openHistory(false)
	if err != nil {
		return err
	}
	if hist != nil {
		flushHistory(ctx, cmd.ErrOrStderr(), a.logger, batch, hist)
	}

	if err := renderer.Err(); err != nil {
		return fmt.Errorf("Ausgabe fehlgeschlagen: %w", err)
	}

	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d Definitionen, %d Externs, %d Ausdrücke, %d Fehler\n",
			name, stats.Definitions, stats.Externs, stats.Expressions, stats.Errors)
	}
	if stats.Errors > 0 {
		return errDiagnostics
	}
	return nil
}

// flushHistory writes the batch and warns on errOut when not every entry was
// stored. It returns the number of stored entries.
func flushHistory(ctx context.Context, errOut io.Writer, logger *klog.Logger, batch *history.Batch, hist store.Store) int {
	queued := batch.Len()
	stored, err := batch.Flush(ctx, hist)
	if err != nil {
		logger.WarnWithErr("Failed to record history", err, klog.Fields{"queued": queued, "stored": stored})
	}
	if stored < queued {
		fmt.Fprintf(errOut, "Warnung: nur %d von %d Einträgen in der Historie gespeichert\n", stored, queued)
	}
	return stored
}
