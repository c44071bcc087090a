package bankgraph

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/retrievalworks/bankgraph"
	"github.com/retrievalworks/bankgraph/pkg/config"
	bankgraphLogger "github.com/retrievalworks/bankgraph/pkg/logger"
	"github.com/retrievalworks/bankgraph/pkg/server"
	"github.com/retrievalworks/bankgraph/pkg/telemetry"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the BankGraph HTTP server",
	Long: `Start the BankGraph HTTP server to provide REST API access to the
retrieval engine.

The server provides endpoints for:
- Searching banking documents (vector, graph, full-text, community, hybrid)
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	// Server-specific flags
	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	// Database flags
	serverCmd.Flags().String("db-uri", "bolt://localhost:7687", "Graph database URI")
	serverCmd.Flags().String("db-username", "neo4j", "Graph database username")
	serverCmd.Flags().String("db-password", "", "Graph database password")
	serverCmd.Flags().String("db-database", "neo4j", "Graph database name")

	// Embedding flags
	serverCmd.Flags().String("embedding-provider", "embedeverything", "Embedding provider")
	serverCmd.Flags().String("embedding-model", "all-MiniLM-L6-v2", "Embedding model")
	serverCmd.Flags().String("embedding-api-key", "", "Embedding API key")
	serverCmd.Flags().String("embedding-base-url", "", "Embedding base URL")

	// Cross-encoder flags
	serverCmd.Flags().String("cross-encoder-provider", "embedeverything", "Cross-encoder provider")
	serverCmd.Flags().String("cross-encoder-model", "", "Cross-encoder model")

	// NER flags
	serverCmd.Flags().Bool("ner-enabled", true, "Enable the NER model for query entity extraction")

	// Telemetry flags
	serverCmd.Flags().String("telemetry-parquet-path", "", "Path to directory for telemetry (errors and search events)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	overrideConfigWithFlags(cmd, cfg)

	if err := validateServerConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, recorder, errMirror, err := initTelemetry(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if errMirror == nil {
			return
		}
		if err := errMirror.Flush(); err != nil {
			fmt.Printf("Warning: failed to flush error telemetry: %v\n", err)
		}
	}()

	fmt.Println("Initializing BankGraph...")
	client, err := bankgraph.NewClient(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize BankGraph: %w", err)
	}
	defer client.Close()

	srv := server.New(cfg, client, client, recorder, log)
	srv.Setup()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		fmt.Println("Server stopped gracefully")
		return nil
	}
}

// initTelemetry builds the process logger and, when telemetry is enabled, a
// parquet error mirror and search event recorder writing under the configured
// path. The returned handler is nil when telemetry is disabled or its setup
// failed; the caller must flush it on shutdown so buffered errors are not lost.
func initTelemetry(cfg *config.Config) (*slog.Logger, *telemetry.EventRecorder, *telemetry.ParquetHandler, error) {
	base := bankgraphLogger.NewHandler(cfg.Log)
	if !cfg.Telemetry.Enabled {
		return slog.New(base), nil, nil, nil
	}

	trackingPath := cfg.Telemetry.ParquetPath
	if trackingPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		trackingPath = fmt.Sprintf("%s/.bankgraph/telemetry", homeDir)
	}
	if err := os.MkdirAll(trackingPath, 0755); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create telemetry directory: %w", err)
	}

	log := slog.New(base)
	parquetHandler, err := telemetry.NewParquetHandler(base, trackingPath)
	if err != nil {
		fmt.Printf("Warning: Failed to initialize error tracking: %v\n", err)
		parquetHandler = nil
	} else {
		log = slog.New(parquetHandler)
		fmt.Printf("Error tracking enabled at: %s\n", trackingPath)
	}

	recorder, err := telemetry.NewEventRecorder(trackingPath)
	if err != nil {
		fmt.Printf("Warning: Failed to initialize search event recording: %v\n", err)
		recorder = nil
	} else {
		fmt.Printf("Search event recording enabled at: %s\n", trackingPath)
	}

	return log, recorder, parquetHandler, nil
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	// Server flags
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	// Database flags
	if cmd.Flags().Changed("db-uri") {
		cfg.Database.URI, _ = cmd.Flags().GetString("db-uri")
	}
	if cmd.Flags().Changed("db-username") {
		cfg.Database.Username, _ = cmd.Flags().GetString("db-username")
	}
	if cmd.Flags().Changed("db-password") {
		cfg.Database.Password, _ = cmd.Flags().GetString("db-password")
	}
	if cmd.Flags().Changed("db-database") {
		cfg.Database.Database, _ = cmd.Flags().GetString("db-database")
	}

	// Embedding flags
	if cmd.Flags().Changed("embedding-provider") {
		cfg.Embedding.Provider, _ = cmd.Flags().GetString("embedding-provider")
	}
	if cmd.Flags().Changed("embedding-model") {
		cfg.Embedding.Model, _ = cmd.Flags().GetString("embedding-model")
	}
	if cmd.Flags().Changed("embedding-api-key") {
		cfg.Embedding.APIKey, _ = cmd.Flags().GetString("embedding-api-key")
	}
	if cmd.Flags().Changed("embedding-base-url") {
		cfg.Embedding.BaseURL, _ = cmd.Flags().GetString("embedding-base-url")
	}

	// Cross-encoder flags
	if cmd.Flags().Changed("cross-encoder-provider") {
		cfg.CrossEncoder.Provider, _ = cmd.Flags().GetString("cross-encoder-provider")
	}
	if cmd.Flags().Changed("cross-encoder-model") {
		cfg.CrossEncoder.Model, _ = cmd.Flags().GetString("cross-encoder-model")
	}

	// NER flags
	if cmd.Flags().Changed("ner-enabled") {
		cfg.NER.Enabled, _ = cmd.Flags().GetBool("ner-enabled")
	}

	// Telemetry flags
	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
		cfg.Telemetry.Enabled = true
	}
}

func validateServerConfig(cfg *config.Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}

	if cfg.Database.URI == "" {
		return fmt.Errorf("database URI is required")
	}
	return nil
}
