package cmd

import (
	"docflow/internal/config"
	"docflow/internal/preflight"
)

// Per-stage preflight checks, shared between the stage commands and the
// status command.

func preprocessChecks(cfg *config.Config) []preflight.Check {
	return []preflight.Check{
		{
			Name:   "raw scans folder",
			Kind:   preflight.KindDirExists,
			Path:   cfg.RawDataDir(),
			Remedy: "Create " + cfg.RawDataDir() + " and drop your scans there",
		},
		{
			Name:   "raw scans present",
			Kind:   preflight.KindDirNotEmpty,
			Path:   cfg.RawDataDir(),
			Remedy: "Put the scans to preprocess into " + cfg.RawDataDir(),
		},
		{
			Name:   "input folder writable",
			Kind:   preflight.KindDirWritable,
			Path:   cfg.InputDir(),
			Remedy: "Check permissions on " + cfg.InputDir(),
		},
	}
}

func analyzeChecks(cfg *config.Config) []preflight.Check {
	return []preflight.Check{
		{
			Name:   "input folder",
			Kind:   preflight.KindDirExists,
			Path:   cfg.InputDir(),
			Remedy: "Run 'docflow preprocess' first",
		},
		{
			Name:   "documents to analyze",
			Kind:   preflight.KindDirNotEmpty,
			Path:   cfg.InputDir(),
			Remedy: "Run 'docflow preprocess' to fill " + cfg.InputDir(),
		},
		{
			Name:   "output folder writable",
			Kind:   preflight.KindDirWritable,
			Path:   cfg.OutputDir(),
			Remedy: "Check permissions on " + cfg.OutputDir(),
		},
		{
			Name:   "Google credentials",
			Kind:   preflight.KindEnvSet,
			Vars:   []string{"GOOGLE_APPLICATION_CREDENTIALS", "GOOGLE_CREDENTIALS"},
			Remedy: "Set GOOGLE_APPLICATION_CREDENTIALS to your service account JSON file path",
		},
	}
}

func uploadChecks(cfg *config.Config) []preflight.Check {
	checks := []preflight.Check{
		{
			Name:   "analysis results folder",
			Kind:   preflight.KindDirExists,
			Path:   cfg.OutputDir(),
			Remedy: "Run 'docflow analyze' first",
		},
		{
			Name:   "analysis results present",
			Kind:   preflight.KindDirNotEmpty,
			Path:   cfg.OutputDir(),
			Remedy: "Run 'docflow analyze' to produce analysis results",
		},
		{
			Name:   "Google credentials",
			Kind:   preflight.KindEnvSet,
			Vars:   []string{"GOOGLE_APPLICATION_CREDENTIALS", "GOOGLE_CREDENTIALS"},
			Remedy: "Set GOOGLE_APPLICATION_CREDENTIALS to your service account JSON file path",
		},
		{
			Name:   "spreadsheet configured",
			Kind:   preflight.KindEnvSet,
			Vars:   []string{"GOOGLE_SHEET_URL", "SPREADSHEET_ID"},
			Remedy: "Set GOOGLE_SHEET_URL or SPREADSHEET_ID in your .env file",
		},
	}

	// When the credentials come as a file path, verify the file before any
	// network call is made.
	if credsFile := cfg.CredentialsFile(); credsFile != "" {
		checks = append(checks, preflight.Check{
			Name:   "credentials file",
			Kind:   preflight.KindFileExists,
			Path:   credsFile,
			Remedy: "Fix the GOOGLE_APPLICATION_CREDENTIALS path or remove the variable to use GOOGLE_CREDENTIALS",
		})
	}

	return checks
}
