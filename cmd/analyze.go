package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"docflow/internal/config"
	"docflow/internal/logger"
	"docflow/internal/ocr"
	"docflow/internal/pipeline"
	"docflow/internal/preflight"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Extract fields from scans with a cloud OCR processor",
	Long: `Analyze every document in the input folder.

Each document is sent to the selected engine and its result is written as
<name>_analysis.json to the output folder. Successfully analyzed documents are
moved to the processed folder; failed documents stay in the input folder so
the next run retries them. Requests are spaced two seconds apart.

Engines:
  docai   Document AI custom processor (structured field extraction, default)
  vision  Cloud Vision document text detection (raw text only)

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_CLOUD_PROJECT - Your Google Cloud project ID
  DOCUMENT_AI_PROCESSOR_ID - Processor ID (docai engine only)`,
	Example: `  # Analyze with the Document AI processor
  docflow analyze

  # Raw text extraction only
  docflow analyze --engine vision

  # Slow batch with a generous timeout
  docflow analyze --interval 5s --timeout 3600`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("engine", "docai", "OCR engine: docai or vision")
	analyzeCmd.Flags().Duration("interval", ocr.DefaultRequestInterval, "Pause between analysis requests")
	analyzeCmd.Flags().Int("timeout", 1800, "Total batch timeout in seconds")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("analyze")

	engine, _ := cmd.Flags().GetString("engine")
	interval, _ := cmd.Flags().GetDuration("interval")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, pipe, err := loadRuntime()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	checks := analyzeChecks(cfg)
	if engine == "docai" {
		checks = append(checks, preflight.Check{
			Name:   "Document AI processor",
			Kind:   preflight.KindEnvSet,
			Vars:   []string{"DOCUMENT_AI_PROCESSOR_ID"},
			Remedy: "Set DOCUMENT_AI_PROCESSOR_ID, or use --engine vision for raw text extraction",
		})
	}

	runner := pipeline.NewRunner(os.Stdout)
	stage := pipeline.Stage{
		Name:   "analyze",
		Checks: checks,
		Hooks:  pipe.StageHooks("analyze"),
		Run: func(ctx context.Context) error {
			analyzer, err := createAnalyzer(ctx, engine, cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := analyzer.Close(); closeErr != nil {
					log.Warn().Err(closeErr).Msg("Failed to close analyzer")
				}
			}()

			batch := ocr.NewBatchRunner(analyzer, ocr.BatchOptions{
				InputDir:        cfg.InputDir(),
				OutputDir:       cfg.OutputDir(),
				ProcessedDir:    cfg.ProcessedDir(),
				KeyFields:       pipe.KeyFields,
				RequestInterval: interval,
				Progress: func(done, total int, result *ocr.Analysis) {
					fmt.Printf("[%d/%d] %s %s\n", done, total, analysisGlyph(result), result.SourceFile)
				},
			})

			results, err := batch.Run(ctx)
			printAnalysisSummary(results)
			if err != nil {
				return handleAnalysisError(err, log)
			}
			return nil
		},
	}

	return runner.Execute(ctx, stage)
}

// createAnalyzer builds the selected engine with remediation-friendly errors.
func createAnalyzer(ctx context.Context, engine string, cfg *config.Config, log zerolog.Logger) (ocr.Analyzer, error) {
	switch engine {
	case "docai":
		analyzer, err := ocr.NewDocumentAIAnalyzer(ctx, ocr.DocumentAISettings{
			ProjectID:        cfg.GoogleCloudProject,
			Location:         cfg.GoogleCloudLocation,
			ProcessorID:      cfg.DocumentAIProcessorID,
			ProcessorVersion: cfg.DocumentAIProcessorVersion,
		})
		if err != nil {
			if errors.Is(err, ocr.ErrProcessorNotConfigured) {
				log.Error().Msg("Document AI processor not configured")
				return nil, fmt.Errorf("Document AI processor not configured. Please set:\n\n"+
					"1. DOCUMENT_AI_PROCESSOR_ID - the processor ID from the Google Cloud console\n"+
					"2. GOOGLE_CLOUD_PROJECT - your project ID\n"+
					"3. GOOGLE_CLOUD_LOCATION - the processor region (default: eu)\n\n"+
					"Or use --engine vision for raw text extraction without a processor.\n\n"+
					"Original error: %w", err)
			}
			return nil, credentialError(err, log)
		}
		return analyzer, nil
	case "vision":
		analyzer, err := ocr.NewVisionAnalyzer(ctx)
		if err != nil {
			return nil, credentialError(err, log)
		}
		return analyzer, nil
	default:
		return nil, fmt.Errorf("unknown engine %q, use docai or vision", engine)
	}
}

// credentialError turns credential failures into actionable messages.
func credentialError(err error, log zerolog.Logger) error {
	if errors.Is(err, ocr.ErrMissingCredentials) {
		log.Error().Err(err).Msg("Google Cloud credentials not configured")
		return fmt.Errorf("Google Cloud credentials not configured. Please set one of:\n\n" +
			"1. Export GOOGLE_APPLICATION_CREDENTIALS with path to service account JSON:\n" +
			"   export GOOGLE_APPLICATION_CREDENTIALS=/path/to/service-account-key.json\n\n" +
			"2. Export GOOGLE_CREDENTIALS with inline JSON:\n" +
			"   export GOOGLE_CREDENTIALS='{\"type\":\"service_account\",...}'\n\n" +
			"3. Check that your .env file contains the credentials variables")
	}
	log.Error().Err(err).Msg("Failed to create analyzer")
	return fmt.Errorf("failed to create analyzer: %w", err)
}

// handleAnalysisError provides user-friendly messages for batch failures.
func handleAnalysisError(err error, log zerolog.Logger) error {
	log.Error().Err(err).Msg("Analysis batch failed")

	errStr := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("analysis timed out. Try increasing --timeout or analyzing fewer files per run")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("analysis was canceled")
	case strings.Contains(errStr, "Unauthenticated") ||
		strings.Contains(errStr, "invalid_grant") ||
		strings.Contains(errStr, "auth:"):
		return fmt.Errorf("Google Cloud authentication failed. Please check your credentials:\n\n"+
			"1. Verify the GOOGLE_APPLICATION_CREDENTIALS file exists and is valid JSON\n"+
			"2. Ensure the service account has the 'Document AI API User' role\n"+
			"3. If using Application Default Credentials, run:\n"+
			"   gcloud auth application-default login\n\n"+
			"Original error: %v", err)
	case strings.Contains(errStr, "PERMISSION_DENIED"):
		return fmt.Errorf("permission denied. Ensure your service account can call the Document AI and Vision APIs")
	case strings.Contains(errStr, "RESOURCE_EXHAUSTED") || strings.Contains(errStr, "quota"):
		return fmt.Errorf("API quota exceeded. Increase --interval or check your project quotas in the Google Cloud Console")
	default:
		return fmt.Errorf("analysis failed: %w", err)
	}
}

func analysisGlyph(result *ocr.Analysis) string {
	if result.Status == ocr.StatusSuccess {
		return "✅"
	}
	return "❌"
}

func printAnalysisSummary(results []*ocr.Analysis) {
	var succeeded, failed int
	for _, r := range results {
		if r.Status == ocr.StatusSuccess {
			succeeded++
		} else {
			failed++
		}
	}

	fmt.Printf("\n=== Analysis Summary ===\n")
	fmt.Printf("Documents analyzed: %d\n", succeeded)
	if failed > 0 {
		fmt.Printf("Failed:             %d (left in the input folder for a retry)\n", failed)
		for _, r := range results {
			if r.Status != ocr.StatusSuccess {
				fmt.Printf("  ❌ %s: %s\n", r.SourceFile, r.Error)
			}
		}
	}
}
