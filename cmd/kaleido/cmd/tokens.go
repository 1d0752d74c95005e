package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/msto63/kaleido/foundation/kaleido/parser"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [datei]",
	Short: "Gibt die Tokens einer Datei aus",
	Long: `Zerlegt eine Quelldatei (oder stdin) in Tokens und gibt jedes Token
mit Zeile und Spalte aus. Kommentare und Leerraum erscheinen nicht.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)
}

func runTokens(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) > 0 {
		path = args[0]
	}
	in, name, err := openInput(cmd, path)
	if err != nil {
		return err
	}
	defer in.Close()

	tokens, err := parser.NewLexer(in).Tokenize()
	if err != nil {
		return fmt.Errorf("%s konnte nicht gelesen werden: %w", name, err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, tok := range tokens {
		fmt.Fprintf(w, "%s\t%s\n", tok.Pos, tok)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d Tokens\n", name, len(tokens))
	}
	return nil
}
