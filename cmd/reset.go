package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docflow/internal/logger"
	"docflow/internal/tracking"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the duplicate-tracking files to start a fresh run",
	Long: `Delete processed_files.txt and duplicates_log.txt after confirmation.

After a reset the next upload treats every analysis result as new and appends
it to the sheet again. The analysis results themselves are not touched.`,
	Example: `  # Interactive reset
  docflow reset

  # Skip the confirmation prompt
  docflow reset --yes`,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}

func runReset(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("reset")

	skipConfirm, _ := cmd.Flags().GetBool("yes")

	cfg, _, err := loadRuntime()
	if err != nil {
		return err
	}

	targets := []string{cfg.ProcessedFilesPath, cfg.DuplicatesLogPath}

	if !skipConfirm {
		fmt.Println("This will delete the duplicate-tracking files:")
		for _, path := range targets {
			fmt.Printf("  - %s\n", path)
		}
		fmt.Println("\nThe next upload will append every analysis result to the sheet again.")
		fmt.Print("Continue? [y/N]: ")

		reader := bufio.NewReader(cmd.InOrStdin())
		answer, err := reader.ReadString('\n')
		if err != nil && answer == "" {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Reset canceled, nothing deleted.")
			return nil
		}
	}

	results := tracking.Reset(targets...)

	var failed bool
	for _, result := range results {
		switch result.Outcome {
		case tracking.OutcomeDeleted:
			fmt.Printf("  ✅ %s deleted\n", result.Path)
		case tracking.OutcomeNotFound:
			fmt.Printf("  ⏭️  %s not found, nothing to delete\n", result.Path)
		case tracking.OutcomeError:
			failed = true
			log.Error().Err(result.Err).Str("path", result.Path).Msg("Failed to delete tracking file")
			fmt.Printf("  ❌ %s: %v\n", result.Path, result.Err)
		}
	}

	if failed {
		return fmt.Errorf("reset incomplete, see errors above")
	}

	fmt.Println("\nTracking reset. The next upload starts fresh.")
	return nil
}
