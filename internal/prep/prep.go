// Package prep prepares raw scans for OCR analysis. Files at or below the
// size threshold move to the input folder unchanged; oversize images are
// re-encoded as JPEG (downscaled and with a descending quality ladder) until
// they fit; oversize files that are not images move unchanged with a warning.
package prep

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"docflow/internal/logger"
)

// Defaults for the JPEG re-encoding ladder.
const (
	DefaultQuality      = 85
	MinQuality          = 20
	QualityStep         = 10
	DefaultMaxDimension = 2000
	DefaultWorkers      = 4
)

// supportedExtensions are the scan formats the pipeline accepts. Anything
// else in the raw folder is left untouched.
var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
	".tiff": true,
	".tif":  true,
	".bmp":  true,
}

// imageExtensions are the formats the recompressor can decode.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tiff": true,
	".tif":  true,
	".bmp":  true,
}

// Stats summarizes one preprocess run.
type Stats struct {
	TotalFiles  int
	Processed   int
	Compressed  int
	Copied      int
	Failed      int
	BytesBefore int64
	BytesAfter  int64
}

// SpaceSavedMB returns the megabytes saved by recompression.
func (s Stats) SpaceSavedMB() float64 {
	return float64(s.BytesBefore-s.BytesAfter) / 1024 / 1024
}

// CompressionRatio returns the saved share of the original bytes as a
// percentage.
func (s Stats) CompressionRatio() float64 {
	if s.BytesBefore == 0 {
		return 0
	}
	return (1 - float64(s.BytesAfter)/float64(s.BytesBefore)) * 100
}

// Preprocessor moves and recompresses raw scans.
type Preprocessor struct {
	// MaxBytes is the copy-vs-recompress threshold.
	MaxBytes int64
	// Quality is the initial JPEG quality for recompression.
	Quality int
	// MaxDimension caps the longest image side before encoding.
	MaxDimension int
	// Workers bounds the parallel file processing.
	Workers int

	log zerolog.Logger
}

// New returns a Preprocessor with the given threshold and default encoding
// settings.
func New(maxBytes int64) *Preprocessor {
	return &Preprocessor{
		MaxBytes:     maxBytes,
		Quality:      DefaultQuality,
		MaxDimension: DefaultMaxDimension,
		Workers:      DefaultWorkers,
		log:          logger.WithComponent("prep"),
	}
}

// ProcessDir walks rawDir recursively and prepares every supported file into
// inputDir. Per-file failures are counted and logged, not fatal.
func (p *Preprocessor) ProcessDir(ctx context.Context, rawDir, inputDir string) (Stats, error) {
	const op = "ProcessDir"

	var stats Stats

	if err := os.MkdirAll(inputDir, 0755); err != nil {
		return stats, fmt.Errorf("%s: failed to create input directory: %w", op, err)
	}

	files, err := findSupportedFiles(rawDir)
	if err != nil {
		return stats, fmt.Errorf("%s: failed to walk %s: %w", op, rawDir, err)
	}
	stats.TotalFiles = len(files)

	workers := p.Workers
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, file := range files {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			result := p.processFile(file, inputDir)

			mu.Lock()
			defer mu.Unlock()
			stats.BytesBefore += result.bytesBefore
			stats.BytesAfter += result.bytesAfter
			switch {
			case result.err != nil:
				stats.Failed++
				p.log.Error().Err(result.err).Str("file", file).Msg("Failed to preprocess file")
			case result.compressed:
				stats.Processed++
				stats.Compressed++
			default:
				stats.Processed++
				stats.Copied++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, fmt.Errorf("%s: %w", op, err)
	}

	p.log.Info().
		Int("total", stats.TotalFiles).
		Int("compressed", stats.Compressed).
		Int("copied", stats.Copied).
		Int("failed", stats.Failed).
		Float64("saved_mb", stats.SpaceSavedMB()).
		Msg("Preprocessing completed")

	return stats, nil
}

type fileResult struct {
	bytesBefore int64
	bytesAfter  int64
	compressed  bool
	err         error
}

// processFile prepares a single file into inputDir.
func (p *Preprocessor) processFile(path, inputDir string) fileResult {
	info, err := os.Stat(path)
	if err != nil {
		return fileResult{err: err}
	}

	result := fileResult{bytesBefore: info.Size()}
	ext := strings.ToLower(filepath.Ext(path))
	base := filepath.Base(path)

	if info.Size() <= p.MaxBytes {
		dest := filepath.Join(inputDir, base)
		if err := moveFile(path, dest); err != nil {
			result.err = err
			return result
		}
		result.bytesAfter = info.Size()
		p.log.Info().Str("file", base).Int64("size", info.Size()).Msg("File within size limit, moved unchanged")
		return result
	}

	if !imageExtensions[ext] {
		// Oversize but not an image (PDF): nothing we can do about the size
		// here, the downstream service may still accept it.
		dest := filepath.Join(inputDir, base)
		if err := moveFile(path, dest); err != nil {
			result.err = err
			return result
		}
		result.bytesAfter = info.Size()
		p.log.Warn().
			Str("file", base).
			Int64("size", info.Size()).
			Int64("max_size", p.MaxBytes).
			Msg("Oversize file cannot be recompressed, moved unchanged")
		return result
	}

	stem := strings.TrimSuffix(base, filepath.Ext(base))
	dest := filepath.Join(inputDir, stem+"_compressed.jpg")

	newSize, err := p.recompressImage(path, dest)
	if err != nil {
		// Recompression failed; fall back to moving the original.
		p.log.Warn().Err(err).Str("file", base).Msg("Recompression failed, moving original unchanged")
		fallback := filepath.Join(inputDir, base)
		if moveErr := moveFile(path, fallback); moveErr != nil {
			result.err = moveErr
			return result
		}
		result.bytesAfter = info.Size()
		return result
	}

	if err := os.Remove(path); err != nil {
		result.err = fmt.Errorf("recompressed but failed to remove original %s: %w", path, err)
		return result
	}

	result.bytesAfter = newSize
	result.compressed = true
	p.log.Info().
		Str("file", base).
		Int64("size_before", info.Size()).
		Int64("size_after", newSize).
		Msg("File recompressed")
	return result
}

// findSupportedFiles collects supported files under root in walk order.
func findSupportedFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// moveFile renames src to dest, copying across filesystems when rename fails.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(dest)
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dest, err)
	}

	return os.Remove(src)
}
