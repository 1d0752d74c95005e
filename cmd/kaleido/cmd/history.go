package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/kaleido/internal/history/store"
)

var (
	historySession   string
	historyKind      string
	historyName      string
	historyLimit     int
	historyJSON      bool
	historyOlderThan time.Duration
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Zeigt und verwaltet die Parse-Historie",
	Long: `Die Historie speichert jedes Konstrukt und jeden Fehler aus repl, parse
und tui in einer SQLite-Datenbank, sofern [history] enabled = true gesetzt ist.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "Listet gespeicherte Einträge (neueste zuerst)",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Zeigt Statistiken der Historie",
	Args:  cobra.NoArgs,
	RunE:  runHistoryStats,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Entfernt alte Einträge",
	Long: `Entfernt Einträge, die älter als --older-than sind. Ohne Flag gilt
die Aufbewahrungsdauer aus [history] retention.`,
	Args: cobra.NoArgs,
	RunE: runHistoryPrune,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyStatsCmd, historyPruneCmd)

	historyListCmd.Flags().StringVar(&historySession, "session", "", "Nur Einträge dieser Sitzung")
	historyListCmd.Flags().StringVar(&historyKind, "kind", "", "Nur diese Art: definition, extern, expression, error")
	historyListCmd.Flags().StringVar(&historyName, "name", "", "Nur Konstrukte mit diesem Namen")
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximale Anzahl Einträge")
	historyListCmd.Flags().BoolVar(&historyJSON, "json", false, "Als JSON ausgeben")

	historyStatsCmd.Flags().BoolVar(&historyJSON, "json", false, "Als JSON ausgeben")

	historyPruneCmd.Flags().DurationVar(&historyOlderThan, "older-than", 0, "Mindestalter der zu entfernenden Einträge (z.B. 168h)")
}

func openHistoryStore(cmd *cobra.Command) (*app, store.Store, error) {
	a, err := setup(cmd, "kaleido-history")
	if err != nil {
		return nil, nil, err
	}
	s, err := a.openHistory(true)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	return a, s, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(historyKind)
	if err != nil {
		return err
	}

	a, s, err := openHistoryStore(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := s.Query(context.Background(), store.Filter{
		Session: historySession,
		Kind:    kind,
		Name:    historyName,
		Limit:   historyLimit,
	})
	if err != nil {
		return fmt.Errorf("Historie konnte nicht gelesen werden: %w", err)
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if entries == nil {
			entries = []*store.Entry{}
		}
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "Keine Einträge gefunden.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ZEIT\tART\tZEILE\tINHALT")
	for _, e := range entries {
		content := e.SExpr
		if e.Kind == store.KindError {
			content = e.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Kind, e.Line, content)
	}
	return w.Flush()
}

func runHistoryStats(cmd *cobra.Command, args []string) error {
	a, s, err := openHistoryStore(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := s.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("Statistik konnte nicht gelesen werden: %w", err)
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Fprintln(out, "kaleido Historie")
	fmt.Fprintln(out, "================")
	fmt.Fprintf(out, "Datenbank:  %s\n", a.cfg.History.Path)
	fmt.Fprintf(out, "Einträge:   %d\n", stats.TotalEntries)
	fmt.Fprintf(out, "Sitzungen:  %d\n", stats.Sessions)
	if !stats.LastEntry.IsZero() {
		fmt.Fprintf(out, "Letzter:    %s\n", stats.LastEntry.Local().Format("2006-01-02 15:04:05"))
	}

	kinds := make([]string, 0, len(stats.ByKind))
	for k := range stats.ByKind {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(out, "  %-11s %d\n", k+":", stats.ByKind[store.Kind(k)])
	}
	return nil
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	a, s, err := openHistoryStore(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	olderThan := historyOlderThan
	if olderThan <= 0 {
		olderThan = a.cfg.History.Retention.Duration
	}

	ctx := context.Background()
	deleted, err := s.Prune(ctx, olderThan)
	if err != nil {
		return fmt.Errorf("Einträge konnten nicht entfernt werden: %w", err)
	}
	if sqlite, ok := s.(*store.SQLiteStore); ok && deleted > 0 {
		if err := sqlite.Vacuum(ctx); err != nil {
			a.logger.WarnWithErr("Vacuum failed", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d Einträge älter als %s entfernt.\n", deleted, olderThan)
	return nil
}

func parseKind(name string) (store.Kind, error) {
	switch k := store.Kind(strings.ToLower(name)); k {
	case "", store.KindDefinition, store.KindExtern, store.KindExpression, store.KindError:
		return k, nil
	default:
		return "", fmt.Errorf("unbekannte Art %q", name)
	}
}
