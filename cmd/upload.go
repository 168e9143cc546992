package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"docflow/internal/logger"
	"docflow/internal/ocr"
	"docflow/internal/pipeline"
	"docflow/internal/sheets"
	"docflow/internal/tracking"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Append analysis results to a Google Sheet, skipping duplicates",
	Long: `Upload analysis results from the output folder to a Google Sheet.

Result files already listed in processed_files.txt are skipped as duplicates;
every run appends a timestamped block to duplicates_log.txt recording which
files were new and which were skipped. Freshly uploaded files are added to
processed_files.txt so the next run skips them.

The worksheet and its header row are created on first use. The header is the
filename column plus one column per extracted field.

Required environment variables:
  GOOGLE_APPLICATION_CREDENTIALS - Path to service account JSON file, OR
  GOOGLE_CREDENTIALS - Inline JSON credentials string
  GOOGLE_SHEET_URL or SPREADSHEET_ID - Target spreadsheet`,
	Example: `  # Upload everything new in data/output
  docflow upload

  # See what would be uploaded without touching the sheet
  docflow upload --dry-run

  # Upload to a specific worksheet
  docflow upload --worksheet "March 2026"`,
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().Bool("dry-run", false, "Show what would be uploaded without writing to the sheet")
	uploadCmd.Flags().String("worksheet", "", "Worksheet name (default: SHEET_WORKSHEET or 'OCR Data')")
	uploadCmd.Flags().Int("timeout", 300, "Upload timeout in seconds")
}

func runUpload(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("upload")

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	worksheet, _ := cmd.Flags().GetString("worksheet")
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")

	cfg, pipe, err := loadRuntime()
	if err != nil {
		return err
	}
	if worksheet == "" {
		worksheet = cfg.SheetWorksheet
	}

	ctx, cancel := createContextWithTimeout(timeoutSecs, log)
	defer cancel()

	runner := pipeline.NewRunner(os.Stdout)
	stage := pipeline.Stage{
		Name:   "upload",
		Checks: uploadChecks(cfg),
		Hooks:  pipe.StageHooks("upload"),
		Run: func(ctx context.Context) error {
			resultFiles, err := findAnalysisResults(cfg.OutputDir())
			if err != nil {
				return err
			}
			if len(resultFiles) == 0 {
				fmt.Println("No analysis results found, nothing to upload.")
				return nil
			}

			store, err := tracking.OpenStore(cfg.ProcessedFilesPath)
			if err != nil {
				return err
			}

			names := make([]string, len(resultFiles))
			for i, path := range resultFiles {
				names[i] = filepath.Base(path)
			}
			fresh, duplicates := store.Partition(names)

			fmt.Printf("Found %d analysis results: %d new, %d duplicates\n",
				len(names), len(fresh), len(duplicates))

			if dryRun {
				for _, name := range fresh {
					fmt.Printf("  + %s\n", name)
				}
				for _, name := range duplicates {
					fmt.Printf("  - %s (duplicate, skipped)\n", name)
				}
				fmt.Println("\nDry run, nothing uploaded.")
				return nil
			}

			audit := tracking.NewAuditLog(cfg.DuplicatesLogPath)
			if err := audit.Record(time.Now(), fresh, duplicates); err != nil {
				return err
			}

			if len(fresh) == 0 {
				fmt.Println("All results were uploaded before, nothing to do.")
				return nil
			}

			results, err := loadAnalyses(cfg.OutputDir(), fresh)
			if err != nil {
				return err
			}

			service, err := sheets.NewService(ctx, sheetRef(cfg))
			if err != nil {
				return err
			}

			rows, err := service.UploadResults(ctx, results, worksheet, pipe.UploadFields)
			if err != nil {
				return handleUploadError(err)
			}

			for _, name := range fresh {
				if err := store.Add(name); err != nil {
					log.Warn().Err(err).Str("file", name).Msg("Failed to record uploaded file")
				}
			}

			fmt.Printf("\n📊 %d rows appended to worksheet %q\n", rows, worksheet)
			fmt.Printf("🔗 %s\n", service.ResultURL())
			return nil
		},
	}

	return runner.Execute(ctx, stage)
}

// findAnalysisResults lists the *_analysis.json files in deterministic order.
func findAnalysisResults(outputDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(outputDir, "*_analysis.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis results: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// loadAnalyses reads the named result files from the output folder.
func loadAnalyses(outputDir string, names []string) ([]*ocr.Analysis, error) {
	results := make([]*ocr.Analysis, 0, len(names))
	for _, name := range names {
		path := filepath.Join(outputDir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		var analysis ocr.Analysis
		if err := json.Unmarshal(data, &analysis); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if analysis.SourceFile == "" {
			analysis.SourceFile = strings.TrimSuffix(name, "_analysis.json")
		}
		results = append(results, &analysis)
	}
	return results, nil
}

// handleUploadError provides user-friendly messages for sheet failures.
func handleUploadError(err error) error {
	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "invalid_grant") || strings.Contains(errStr, "Unauthenticated"):
		return fmt.Errorf("Google Sheets authentication failed. Please verify:\n\n"+
			"1. The credentials file exists and is valid JSON\n"+
			"2. The service account email has edit access to the spreadsheet\n"+
			"   (share the sheet with the client_email from the JSON file)\n\n"+
			"Original error: %v", err)
	case strings.Contains(errStr, "PERMISSION_DENIED") || strings.Contains(errStr, "403"):
		return fmt.Errorf("no access to the spreadsheet. Share it with the service account's client_email and retry")
	case strings.Contains(errStr, "not found") || strings.Contains(errStr, "404"):
		return fmt.Errorf("spreadsheet not found. Check GOOGLE_SHEET_URL or SPREADSHEET_ID")
	default:
		return err
	}
}
