package ocr

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"docflow/internal/logger"
)

// DefaultRequestInterval spaces analysis requests to stay under the API's
// rate limits.
const DefaultRequestInterval = 2 * time.Second

// BatchOptions configures a directory analysis run.
type BatchOptions struct {
	InputDir     string
	OutputDir    string
	ProcessedDir string

	// KeyFields is the optional canonical-field keyword mapping applied to
	// every successful analysis.
	KeyFields map[string][]string

	// RequestInterval overrides the spacing between analysis requests.
	RequestInterval time.Duration

	// Progress, when set, is called after each file with the running count
	// and the per-file result.
	Progress func(done, total int, result *Analysis)
}

// BatchRunner analyzes every supported document in a folder, writes the
// per-document analysis JSON, and moves analyzed inputs to the processed
// folder.
type BatchRunner struct {
	analyzer Analyzer
	opts     BatchOptions
	limiter  *rate.Limiter
	log      zerolog.Logger
}

// NewBatchRunner builds a runner around an analyzer.
func NewBatchRunner(analyzer Analyzer, opts BatchOptions) *BatchRunner {
	interval := opts.RequestInterval
	if interval <= 0 {
		interval = DefaultRequestInterval
	}
	return &BatchRunner{
		analyzer: analyzer,
		opts:     opts,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		log:      logger.WithComponent("ocr-batch"),
	}
}

// Run processes the input folder sequentially. Per-file analysis failures are
// recorded in the results, not returned as errors; only setup and context
// failures abort the run.
func (r *BatchRunner) Run(ctx context.Context) ([]*Analysis, error) {
	const op = "Run"

	if err := os.MkdirAll(r.opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("%s: failed to create output directory: %w", op, err)
	}
	if err := os.MkdirAll(r.opts.ProcessedDir, 0755); err != nil {
		return nil, fmt.Errorf("%s: failed to create processed directory: %w", op, err)
	}

	files, err := findDocuments(r.opts.InputDir)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to walk %s: %w", op, r.opts.InputDir, err)
	}

	results := make([]*Analysis, 0, len(files))
	for i, file := range files {
		if err := r.limiter.Wait(ctx); err != nil {
			return results, fmt.Errorf("%s: %w", op, err)
		}

		result := r.processOne(ctx, file)
		results = append(results, result)

		if r.opts.Progress != nil {
			r.opts.Progress(i+1, len(files), result)
		}
	}

	return results, nil
}

// processOne analyzes a single file and handles its result bookkeeping.
func (r *BatchRunner) processOne(ctx context.Context, path string) *Analysis {
	base := filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		return &Analysis{SourceFile: base, Status: StatusFailed, Error: err.Error(), AnalyzedAt: time.Now()}
	}
	analysis, err := r.analyzer.AnalyzeDocument(ctx, base, f)
	f.Close()

	if err != nil {
		r.log.Error().Err(err).Str("file", base).Msg("Analysis failed")
		analysis = &Analysis{
			SourceFile: base,
			Status:     StatusFailed,
			Error:      err.Error(),
			AnalyzedAt: time.Now(),
		}
	} else if len(r.opts.KeyFields) > 0 {
		analysis.KeyFields = MapKeyFields(analysis, r.opts.KeyFields)
	}

	if err := r.writeResult(analysis, path); err != nil {
		r.log.Error().Err(err).Str("file", base).Msg("Failed to write analysis result")
		if analysis.Status == StatusSuccess {
			analysis.Status = StatusFailed
			analysis.Error = err.Error()
		}
		return analysis
	}

	if analysis.Status == StatusSuccess {
		dest := filepath.Join(r.opts.ProcessedDir, base)
		if err := os.Rename(path, dest); err != nil {
			// The analysis itself succeeded; a stuck input file only means it
			// will be re-analyzed on the next run.
			r.log.Warn().Err(err).Str("file", base).Msg("Failed to move analyzed file to processed folder")
		} else {
			analysis.MovedToProcessed = true
			// Rewrite so the stored result reflects the move.
			if err := r.writeResult(analysis, path); err != nil {
				r.log.Warn().Err(err).Str("file", base).Msg("Failed to update analysis result")
			}
		}
	}

	return analysis
}

// writeResult stores the analysis as <stem>_analysis.json in the output
// folder.
func (r *BatchRunner) writeResult(analysis *Analysis, sourcePath string) error {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	outPath := filepath.Join(r.opts.OutputDir, stem+"_analysis.json")

	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal analysis for %s: %w", analysis.SourceFile, err)
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	return nil
}

// findDocuments collects supported documents under root in walk order.
func findDocuments(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]; ok {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
