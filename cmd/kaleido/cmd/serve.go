package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/kaleido/internal/server"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Startet den WebSocket Parse-Service",
	Long: `Startet einen HTTP-Server mit zwei Endpunkten:

  GET /health  - Status, Version und Health-Checks (JSON)
  /ws          - WebSocket: {"type":"parse","payload":{"source":"..."}}

Host, Port, Timeouts und maximale Nachrichtengröße kommen aus dem
[server]-Abschnitt der Config.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host (überschreibt die Config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port (überschreibt die Config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd, "kaleido-server")
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := server.ConfigFrom(a.cfg.Server)
	if serveHost != "" {
		cfg.Host = serveHost
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	srv := server.New(cfg, a.logger)

	hist, err := a.openHistory(false)
	if err != nil {
		return err
	}
	if hist != nil {
		srv.WithHistory(hist)
	}

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "kaleido Parse-Service läuft auf http://%s (WebSocket: /ws)\n", srv.Addr())

	// Wait for signal or error
	select {
	case sig := <-sigCh:
		fmt.Fprintf(cmd.OutOrStdout(), "\nSignal %v empfangen, fahre herunter...\n", sig)
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("Server-Fehler: %w", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}
