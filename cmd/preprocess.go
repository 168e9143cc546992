package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"docflow/internal/logger"
	"docflow/internal/pipeline"
	"docflow/internal/prep"
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "Size-gate raw scans and recompress the oversize ones",
	Long: `Prepare raw scans for analysis.

Files at or under the size threshold (MAX_FILE_SIZE_MB, default 4MB) are moved
to the input folder unchanged. Oversize images are downscaled and re-encoded
as JPEG, stepping the quality down until they fit; oversize files that are not
images are moved as-is with a warning.

Supported formats: jpg, jpeg, png, pdf, tiff, tif, bmp. Other files are left
in place.`,
	Example: `  # Preprocess everything in data/rawdata
  docflow preprocess

  # Keep a compressed snapshot of the raw scans before touching them
  docflow preprocess --backup

  # Limit concurrency on a small machine
  docflow preprocess --workers 2`,
	RunE: runPreprocess,
}

func init() {
	rootCmd.AddCommand(preprocessCmd)

	preprocessCmd.Flags().Bool("backup", false, "Archive the raw scans as tar.gz before processing")
	preprocessCmd.Flags().Int("workers", prep.DefaultWorkers, "Number of files processed concurrently")
	preprocessCmd.Flags().Int("timeout", 600, "Processing timeout in seconds")
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("preprocess")

	backup, _ := cmd.Flags().GetBool("backup")
	workers, _ := cmd.Flags().GetInt("workers")
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

	runner := pipeline.NewRunner(os.Stdout)
	stage := pipeline.Stage{
		Name:   "preprocess",
		Checks: preprocessChecks(cfg),
		Hooks:  pipe.StageHooks("preprocess"),
		Run: func(ctx context.Context) error {
			if backup {
				archivePath, err := prep.Snapshot(cfg.RawDataDir(), cfg.DataDir, time.Now())
				if err != nil {
					return fmt.Errorf("backup failed: %w", err)
				}
				fmt.Printf("📦 Raw scans archived to %s\n", archivePath)
			}

			p := prep.New(cfg.MaxFileSizeBytes())
			if workers > 0 {
				p.Workers = workers
			}

			stats, err := p.ProcessDir(ctx, cfg.RawDataDir(), cfg.InputDir())
			printPrepStats(stats, cfg.MaxFileSizeMB)
			return err
		},
	}

	return runner.Execute(ctx, stage)
}

func printPrepStats(stats prep.Stats, thresholdMB int) {
	fmt.Printf("\n=== Preprocessing Summary ===\n")
	fmt.Printf("Files found:       %d\n", stats.TotalFiles)
	fmt.Printf("Moved unchanged:   %d (at or under %dMB)\n", stats.Copied, thresholdMB)
	fmt.Printf("Recompressed:      %d\n", stats.Compressed)
	if stats.Failed > 0 {
		fmt.Printf("Failed:            %d\n", stats.Failed)
	}
	if stats.Compressed > 0 {
		fmt.Printf("Space saved:       %.1fMB (%.0f%% of original size)\n",
			stats.SpaceSavedMB(), stats.CompressionRatio())
	}
}
