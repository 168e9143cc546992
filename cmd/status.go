package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"docflow/internal/config"
	"docflow/internal/preflight"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which stages are ready to run",
	Long: `Run every stage's preflight checks and show the results without running
any stage. Useful to see where a pipeline run currently stands.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadRuntime()
	if err != nil {
		return err
	}

	stages := []struct {
		name   string
		checks []preflight.Check
	}{
		{"preprocess", preprocessChecks(cfg)},
		{"analyze", analyzeChecks(cfg)},
		{"upload", uploadChecks(cfg)},
	}

	fmt.Printf("Pipeline status (data dir: %s)\n", cfg.DataDir)

	for _, stage := range stages {
		report := preflight.Run(stage.checks)
		if report.OK() {
			fmt.Printf("\n✅ %s: ready\n", stage.name)
		} else {
			fmt.Printf("\n❌ %s: not ready\n", stage.name)
		}
		for _, result := range report {
			if result.Passed() {
				fmt.Printf("  ✓ %s\n", result.Check.Name)
			} else {
				fmt.Printf("  ✗ %s: %v\n", result.Check.Name, result.Err)
				if result.Check.Remedy != "" {
					fmt.Printf("    Fix: %s\n", result.Check.Remedy)
				}
			}
		}
	}

	printTrackingStatus(cfg)
	return nil
}

// printTrackingStatus summarizes the duplicate-tracking state.
func printTrackingStatus(cfg *config.Config) {
	fmt.Printf("\nDuplicate tracking:\n")

	if info, err := os.Stat(cfg.ProcessedFilesPath); err == nil {
		fmt.Printf("  %s: %d bytes\n", cfg.ProcessedFilesPath, info.Size())
	} else {
		fmt.Printf("  %s: not created yet\n", cfg.ProcessedFilesPath)
	}

	if matches, err := filepath.Glob(filepath.Join(cfg.OutputDir(), "*_analysis.json")); err == nil {
		fmt.Printf("  analysis results waiting: %d\n", len(matches))
	}
}
