package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/classtrack/classtrack/internal/attendance"
	"github.com/classtrack/classtrack/internal/config"
	"github.com/classtrack/classtrack/internal/extractor"
	"github.com/classtrack/classtrack/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance web server",
	Long: `Start the ClassTrack web server.
The server exposes the attendance API: registering students, scheduling
exams, capturing face encodings and marking attendance from a probe.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

// initRosterIndex builds the in-memory HNSW roster index and returns a hook
// that rebuilds it after roster mutations. Failures fall back to the linear
// roster scan, so they are logged as warnings only.
func initRosterIndex(ctx context.Context, matcher *attendance.Matcher, stores web.Stores) func() {
	fmt.Println("Building in-memory HNSW index for roster matching...")
	index := attendance.NewRosterIndex()
	if err := index.Rebuild(ctx, stores.Roster); err != nil {
		fmt.Printf("Warning: failed to build roster index: %v\n", err)
		fmt.Println("Face matching will use a linear roster scan (slower)")
		return nil
	}
	matcher.UseIndex(index)
	fmt.Printf("Roster index built with %d students\n", index.Len())

	return func() {
		if err := index.Rebuild(context.Background(), stores.Roster); err != nil {
			fmt.Printf("Warning: failed to rebuild roster index: %v\n", err)
		}
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	stores, closer, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	matcher := attendance.NewMatcher(stores.Roster, cfg.Matcher.Threshold)
	resolver := attendance.NewExamResolver(stores.Exams, nil)
	reconciler := attendance.NewReconciler(stores.Roster, stores.Ledger, nil)
	engine := attendance.NewEngine(matcher, resolver, reconciler)

	var onRegister func()
	if cfg.Matcher.UseIndex {
		onRegister = initRosterIndex(context.Background(), matcher, stores)
	}

	client := extractor.NewClient(cfg.Extractor.URL)
	port, host := resolveServeHostPort(cmd)

	server := web.NewServer(cfg, port, host, stores, engine, client, onRegister)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting ClassTrack API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
