package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	klog "github.com/msto63/kaleido/foundation/core/log"

	"github.com/msto63/kaleido/internal/history/store"
	"github.com/msto63/kaleido/pkg/core/config"
	"github.com/msto63/kaleido/pkg/core/logging"
)

var (
	cfgFile string
	verbose bool
)

// errDiagnostics signals that parse errors were already reported
var errDiagnostics = errors.New("source contains parse errors")

var rootCmd = &cobra.Command{
	Use:   "kaleido",
	Short: "kaleido - Front-End für eine minimale Ausdruckssprache",
	Long: `kaleido zerlegt Quelltext einer minimalen Ausdruckssprache in
Tokens und baut daraus einen Syntaxbaum.

Sprache:
  def name(a b) ausdruck   - Funktionsdefinition
  extern name(a b)         - externe Deklaration
  ausdruck                 - Ausdruck auf oberster Ebene
  Operatoren: < + - *      - Präzedenz 10, 20, 20, 40

Befehle:
  repl     - Interaktive Eingabeschleife (stdin)
  parse    - Datei parsen und Syntaxbaum ausgeben
  tokens   - Tokens einer Datei ausgeben
  serve    - WebSocket Parse-Service starten
  history  - Gespeicherte Parse-Historie
  tui      - Interaktive Terminal-Oberfläche`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, errDiagnostics) {
		printError("Befehl fehlgeschlagen", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config-Datei (default: ./configs/kaleido.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose Output")
}

func printError(msg string, err error) {
	fmt.Fprintf(rootCmd.ErrOrStderr(), "Fehler: %s: %v\n", msg, err)
}

// app bundles what every command needs
type app struct {
	cfg     *config.Config
	logger  *klog.Logger
	closers []io.Closer
}

// setup loads the configuration and builds the logger for a command
func setup(cmd *cobra.Command, component string) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("Config konnte nicht geladen werden: %w", err)
	}

	a := &app{cfg: cfg}

	logCfg := logging.FromConfig(cfg.General, component)
	logCfg.Output = cmd.ErrOrStderr()
	if verbose {
		logCfg.Level = "debug"
	}
	if cfg.General.LogFile != "" {
		f, err := logging.OpenLogFile(cfg.General.LogFile)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, f)
		logCfg.AdditionalOutputs = []io.Writer{f}
	}
	a.logger = logging.NewLogger(logCfg)

	return a, nil
}

// loadConfig reads --config, KALEIDO_CONFIG or a default location and falls
// back to built-in defaults when no file exists
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	cfg, err := config.LoadFromEnv()
	if errors.Is(err, config.ErrNotFound) {
		return config.Default(), nil
	}
	return cfg, err
}

// openHistory opens the history database. It returns nil when history is
// disabled and force is false.
func (a *app) openHistory(force bool) (store.Store, error) {
	if !a.cfg.History.Enabled && !force {
		return nil, nil
	}
	s, err := store.NewSQLiteStore(store.Config{Path: a.cfg.History.Path})
	if err != nil {
		return nil, fmt.Errorf("Historie konnte nicht geöffnet werden: %w", err)
	}
	a.closers = append(a.closers, s)
	return s, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.WarnWithErr("Failed to close resource", err)
		}
	}
	a.closers = nil
}

// openInput opens path for reading; "" and "-" mean stdin
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, string, error) {
	if path == "" || path == "-" {
		return io.NopCloser(cmd.InOrStdin()), "<stdin>", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, path, fmt.Errorf("Datei konnte nicht geöffnet werden: %w", err)
	}
	return f, path, nil
}
