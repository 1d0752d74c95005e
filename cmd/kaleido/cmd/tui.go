package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/msto63/kaleido/foundation/kaleido"

	"github.com/msto63/kaleido/internal/history"
	"github.com/msto63/kaleido/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Startet die interaktive TUI",
	Long: `Startet die Terminal User Interface (TUI) von kaleido.

Jede eingegebene Zeile wird als eigenständige Eingabe geparst und
im Verlauf angezeigt.

Navigation:
  Enter     - Zeile parsen
  Tab       - Ansicht wechseln (S-Expr, Baum, Text)
  Ctrl+L    - Verlauf leeren
  Ctrl+C    - Beenden`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, "kaleido-tui")
	if err != nil {
		return err
	}
	defer a.Close()

	session := uuid.New().String()
	opts := tui.Options{
		Engine: kaleido.NewEngine(kaleido.Options{
			Logger:    a.logger,
			Strict:    a.cfg.REPL.Strict,
			SessionID: session,
		}),
	}

	hist, err := a.openHistory(false)
	if err != nil {
		return err
	}
	if hist != nil {
		opts.Handler = history.NewRecorder(hist, session, nil, a.logger)
	}

	p := tea.NewProgram(
		tui.NewModel(opts),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI Fehler: %w", err)
	}

	return nil
}
