package prep

import (
	"archive/tar"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/pgzip"
)

// Snapshot writes a tar.gz archive of srcDir into archiveDir before the
// preprocess run rewrites or deletes raw files. Returns the archive path.
func Snapshot(srcDir, archiveDir string, at time.Time) (string, error) {
	const op = "Snapshot"

	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("%s: failed to create archive directory: %w", op, err)
	}

	archivePath := filepath.Join(archiveDir, fmt.Sprintf("rawdata-%s.tar.gz", at.Format("20060102-150405")))
	f, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("%s: failed to create %s: %w", op, archivePath, err)
	}
	defer f.Close()

	gz := pgzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		header.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(header); err != nil {
			return err
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(tw, src)
		return err
	})
	if err != nil {
		tw.Close()
		gz.Close()
		_ = os.Remove(archivePath)
		return "", fmt.Errorf("%s: failed to archive %s: %w", op, srcDir, err)
	}

	if err := tw.Close(); err != nil {
		return "", fmt.Errorf("%s: failed to finalize tar: %w", op, err)
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("%s: failed to finalize gzip: %w", op, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%s: failed to close %s: %w", op, archivePath, err)
	}

	return archivePath, nil
}
