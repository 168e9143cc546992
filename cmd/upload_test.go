package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"docflow/internal/config"
)

func TestFindAnalysisResultsSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b_analysis.json", "a_analysis.json", "notes.txt", "c.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := findAnalysisResults(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d results, want 2: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "a_analysis.json" || filepath.Base(files[1]) != "b_analysis.json" {
		t.Errorf("results not sorted: %v", files)
	}
}

func TestLoadAnalysesFillsSourceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan_0001_analysis.json")
	content := `{"status": "success", "extracted_fields": {"invoice_number": "42"}}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	results, err := loadAnalyses(dir, []string{"scan_0001_analysis.json"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d analyses, want 1", len(results))
	}
	// Results written before the source_file field existed still get a name.
	if results[0].SourceFile != "scan_0001" {
		t.Errorf("SourceFile = %q, want scan_0001", results[0].SourceFile)
	}
	if results[0].ExtractedFields["invoice_number"] != "42" {
		t.Errorf("extracted fields not loaded: %v", results[0].ExtractedFields)
	}
}

func TestLoadAnalysesRejectsBrokenJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad_analysis.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := loadAnalyses(dir, []string{"bad_analysis.json"}); err == nil {
		t.Error("expected an error for broken JSON")
	}
}

func TestSheetRefPrefersURL(t *testing.T) {
	cfg := &config.Config{
		GoogleSheetURL: "https://docs.google.com/spreadsheets/d/abc/edit",
		SpreadsheetID:  "fallback-id",
	}
	if got := sheetRef(cfg); got != cfg.GoogleSheetURL {
		t.Errorf("sheetRef() = %q, want the URL", got)
	}

	cfg.GoogleSheetURL = ""
	if got := sheetRef(cfg); got != "fallback-id" {
		t.Errorf("sheetRef() = %q, want fallback-id", got)
	}
}
