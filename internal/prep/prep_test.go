package prep

import (
	"archive/tar"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/pgzip"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestProcessDirMovesSmallFilesUnchanged(t *testing.T) {
	rawDir := t.TempDir()
	inputDir := filepath.Join(t.TempDir(), "input")

	content := []byte("%PDF-1.4 small scan")
	if err := os.WriteFile(filepath.Join(rawDir, "scan.pdf"), content, 0644); err != nil {
		t.Fatal(err)
	}

	p := New(1024 * 1024)
	stats, err := p.ProcessDir(context.Background(), rawDir, inputDir)
	if err != nil {
		t.Fatal(err)
	}

	if stats.Copied != 1 || stats.Compressed != 0 {
		t.Errorf("stats = %+v, want 1 copied, 0 compressed", stats)
	}

	moved, err := os.ReadFile(filepath.Join(inputDir, "scan.pdf"))
	if err != nil {
		t.Fatalf("moved file missing: %v", err)
	}
	if !bytes.Equal(moved, content) {
		t.Error("moved file content changed")
	}
	if _, err := os.Stat(filepath.Join(rawDir, "scan.pdf")); !os.IsNotExist(err) {
		t.Error("original still present in raw folder")
	}
}

func TestProcessDirRecompressesOversizeImages(t *testing.T) {
	rawDir := t.TempDir()
	inputDir := filepath.Join(t.TempDir(), "input")
	writePNG(t, filepath.Join(rawDir, "photo.png"), 64, 64)

	// Tiny threshold forces the recompression path regardless of PNG size.
	p := New(10)
	stats, err := p.ProcessDir(context.Background(), rawDir, inputDir)
	if err != nil {
		t.Fatal(err)
	}

	if stats.Compressed != 1 {
		t.Fatalf("stats = %+v, want 1 compressed", stats)
	}

	out := filepath.Join(inputDir, "photo_compressed.jpg")
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("compressed output missing: %v", err)
	}
	// JPEG SOI marker.
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Error("output is not a JPEG")
	}
	if _, err := os.Stat(filepath.Join(rawDir, "photo.png")); !os.IsNotExist(err) {
		t.Error("original image was not removed after recompression")
	}
}

func TestProcessDirMovesOversizePDFUnchanged(t *testing.T) {
	rawDir := t.TempDir()
	inputDir := filepath.Join(t.TempDir(), "input")

	content := append([]byte("%PDF-1.4 "), bytes.Repeat([]byte{0x42}, 64)...)
	if err := os.WriteFile(filepath.Join(rawDir, "big.pdf"), content, 0644); err != nil {
		t.Fatal(err)
	}

	p := New(10)
	stats, err := p.ProcessDir(context.Background(), rawDir, inputDir)
	if err != nil {
		t.Fatal(err)
	}

	if stats.Copied != 1 || stats.Compressed != 0 {
		t.Errorf("stats = %+v, want oversize PDF copied unchanged", stats)
	}
	if _, err := os.Stat(filepath.Join(inputDir, "big.pdf")); err != nil {
		t.Errorf("oversize PDF not moved: %v", err)
	}
}

func TestProcessDirMixedBatch(t *testing.T) {
	rawDir := t.TempDir()
	inputDir := filepath.Join(t.TempDir(), "input")

	if err := os.WriteFile(filepath.Join(rawDir, "small.pdf"), []byte("%PDF"), 0644); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(rawDir, "big.png"), 64, 64)
	// Unsupported extension is ignored entirely.
	if err := os.WriteFile(filepath.Join(rawDir, "notes.txt"), []byte("skip me"), 0644); err != nil {
		t.Fatal(err)
	}

	// Threshold sits just below the PNG so it compresses while the
	// tiny PDF copies, whatever size the encoder produced.
	info, err := os.Stat(filepath.Join(rawDir, "big.png"))
	if err != nil {
		t.Fatal(err)
	}
	p := New(info.Size() - 1)
	stats, err := p.ProcessDir(context.Background(), rawDir, inputDir)
	if err != nil {
		t.Fatal(err)
	}

	if stats.TotalFiles != 2 {
		t.Errorf("total = %d, want 2 (txt excluded)", stats.TotalFiles)
	}
	if stats.Copied != 1 || stats.Compressed != 1 {
		t.Errorf("stats = %+v, want 1 copied + 1 compressed", stats)
	}
	if _, err := os.Stat(filepath.Join(rawDir, "notes.txt")); err != nil {
		t.Error("unsupported file should stay in the raw folder")
	}
}

func TestLowerQualityReachesFloor(t *testing.T) {
	var rungs []int
	for q := DefaultQuality; ; q = lowerQuality(q) {
		rungs = append(rungs, q)
		if q <= MinQuality {
			break
		}
	}

	if last := rungs[len(rungs)-1]; last != MinQuality {
		t.Errorf("ladder bottoms out at %d, want %d", last, MinQuality)
	}
	for i := 1; i < len(rungs); i++ {
		if rungs[i] >= rungs[i-1] {
			t.Fatalf("ladder not strictly descending: %v", rungs)
		}
	}
}

func TestDownscaleCapsLongestSide(t *testing.T) {
	p := New(1)
	p.MaxDimension = 100

	img := image.NewRGBA(image.Rect(0, 0, 300, 150))
	scaled := p.downscale(img)

	bounds := scaled.Bounds()
	if bounds.Dx() != 100 || bounds.Dy() != 50 {
		t.Errorf("scaled to %dx%d, want 100x50", bounds.Dx(), bounds.Dy())
	}

	// Small images pass through untouched.
	small := image.NewRGBA(image.Rect(0, 0, 40, 40))
	if p.downscale(small) != image.Image(small) {
		t.Error("small image was rescaled")
	}
}

func TestFlattenAlphaUsesWhiteBackground(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 0, G: 0, B: 0, A: 0})     // fully transparent
	img.SetNRGBA(1, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255}) // opaque

	flat := flattenAlpha(img)

	r, g, b, _ := flat.At(0, 0).RGBA()
	if r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Errorf("transparent pixel flattened to %d,%d,%d, want white", r>>8, g>>8, b>>8)
	}
}

func TestSnapshotArchivesRawFolder(t *testing.T) {
	rawDir := t.TempDir()
	archiveDir := filepath.Join(t.TempDir(), "backups")

	if err := os.MkdirAll(filepath.Join(rawDir, "batch1"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(rawDir, "a.pdf"), []byte("%PDF a"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(rawDir, "batch1", "b.jpg"), []byte("jpg b"), 0644); err != nil {
		t.Fatal(err)
	}

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	archivePath, err := Snapshot(rawDir, archiveDir, at)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(archivePath) != "rawdata-20250601-120000.tar.gz" {
		t.Errorf("archive name = %s", filepath.Base(archivePath))
	}

	f, err := os.Open(archivePath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	gz, err := pgzip.NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer gz.Close()

	entries := map[string]string{}
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			t.Fatal(err)
		}
		entries[header.Name] = string(data)
	}

	if entries["a.pdf"] != "%PDF a" {
		t.Errorf("a.pdf content = %q", entries["a.pdf"])
	}
	if entries["batch1/b.jpg"] != "jpg b" {
		t.Errorf("batch1/b.jpg content = %q", entries["batch1/b.jpg"])
	}
}
