// Package config loads the pipeline configuration from the environment and an
// optional docflow.yaml file.
//
// Secrets and cloud settings come from the environment (with .env support in
// main). The yaml file only carries the non-secret pipeline surface: upload
// column order, key-field keyword mapping, and per-stage hook commands.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"docflow/internal/logger"
)

// DefaultMaxFileSizeMB is the copy-vs-recompress threshold applied by the
// preprocess stage when MAX_FILE_SIZE_MB is not set.
const DefaultMaxFileSizeMB = 4

// Config is the environment-driven configuration shared by all stages.
type Config struct {
	// Google Cloud / Document AI
	GoogleCloudProject         string
	GoogleCloudLocation        string
	DocumentAIProcessorID      string
	DocumentAIProcessorVersion string

	// Google Sheets
	SpreadsheetID  string
	GoogleSheetURL string
	SheetWorksheet string

	// Data layout
	DataDir       string
	MaxFileSizeMB int

	// Duplicate tracking
	ProcessedFilesPath string
	DuplicatesLogPath  string

	// Optional pipeline file (fields, key-field mapping, hooks)
	PipelineFile string

	// Logging
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	config := &Config{
		GoogleCloudProject:         getEnv("GOOGLE_CLOUD_PROJECT", ""),
		GoogleCloudLocation:        getEnv("GOOGLE_CLOUD_LOCATION", "eu"),
		DocumentAIProcessorID:      getEnv("DOCUMENT_AI_PROCESSOR_ID", ""),
		DocumentAIProcessorVersion: getEnv("DOCUMENT_AI_PROCESSOR_VERSION", ""),
		SpreadsheetID:              getEnv("SPREADSHEET_ID", ""),
		GoogleSheetURL:             getEnv("GOOGLE_SHEET_URL", ""),
		SheetWorksheet:             getEnv("SHEET_WORKSHEET", "OCR Data"),
		DataDir:                    getEnv("DATA_DIR", "data"),
		MaxFileSizeMB:              DefaultMaxFileSizeMB,
		ProcessedFilesPath:         getEnv("PROCESSED_FILES_PATH", "processed_files.txt"),
		DuplicatesLogPath:          getEnv("DUPLICATES_LOG_PATH", "duplicates_log.txt"),
		PipelineFile:               getEnv("DOCFLOW_PIPELINE_FILE", "docflow.yaml"),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		LogFormat:                  getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:              getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:                  getEnv("LOG_OUTPUT", "stderr"),
	}

	if raw := os.Getenv("MAX_FILE_SIZE_MB"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			return nil, fmt.Errorf("MAX_FILE_SIZE_MB must be a positive integer, got %q", raw)
		}
		config.MaxFileSizeMB = size
	}

	return config, nil
}

// MaxFileSizeBytes returns the preprocess size threshold in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// RawDataDir is where the operator drops raw scans.
func (c *Config) RawDataDir() string { return filepath.Join(c.DataDir, "rawdata") }

// InputDir holds preprocessed files waiting for analysis.
func (c *Config) InputDir() string { return filepath.Join(c.DataDir, "input") }

// ProcessedDir holds input files that were analyzed.
func (c *Config) ProcessedDir() string { return filepath.Join(c.DataDir, "processed") }

// OutputDir holds the per-document analysis JSON files.
func (c *Config) OutputDir() string { return filepath.Join(c.DataDir, "output") }

// EnsureDirectories creates the data directory tree if it does not exist.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.RawDataDir(), c.InputDir(), c.ProcessedDir(), c.OutputDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// HasCredentials reports whether Google credentials are configured in the
// environment, either as a file path or inline JSON.
func (c *Config) HasCredentials() bool {
	return os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" || os.Getenv("GOOGLE_CREDENTIALS") != ""
}

// CredentialsFile returns the credentials file path, if one is configured.
func (c *Config) CredentialsFile() string {
	return os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
}

// GetLoggerConfig returns the logger configuration derived from the main config.
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
