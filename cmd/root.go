package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"docflow/internal/config"
	"docflow/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "docflow",
	Short: "Docflow CLI - scanned document pipeline",
	Long: `Docflow drives a scanned-document pipeline in three stages plus a reset:

  preprocess  size-gate raw scans and recompress the oversize ones
  analyze     extract fields from scans with a cloud OCR processor
  upload      append analysis results to a Google Sheet, skipping duplicates
  reset       delete the duplicate-tracking files to start a fresh run

Each stage validates its prerequisites before doing any work and tells you
how to fix what is missing.`,
	Version: version,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.WithComponent("root")
		log.Info().
			Str("version", version).
			Msg("Docflow CLI executed")

		fmt.Println("Welcome to Docflow!")
		fmt.Println("Use --help to see available commands and options.")
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print version information")
}

// loadRuntime loads the environment configuration and the optional pipeline
// file used by every stage command.
func loadRuntime() (*config.Config, *config.Pipeline, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	pipe, err := config.LoadPipeline(cfg.PipelineFile)
	if err != nil {
		return nil, nil, err
	}

	return cfg, pipe, nil
}

// sheetRef resolves the configured spreadsheet reference, URL first.
func sheetRef(cfg *config.Config) string {
	if cfg.GoogleSheetURL != "" {
		return cfg.GoogleSheetURL
	}
	return cfg.SpreadsheetID
}

// createContextWithTimeout creates a context with timeout and signal handling
func createContextWithTimeout(timeoutSecs int, log zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
			// Context completed normally
		}
	}()

	return ctx, cancel
}
