package tracking

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestOpenStoreCreatesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_files.txt")

	s, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 0 {
		t.Errorf("new store tracks %d names, want 0", s.Len())
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("store file was not created: %v", err)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_files.txt")

	s, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a_analysis.json", "b_analysis.json"} {
		if err := s.Add(name); err != nil {
			t.Fatal(err)
		}
	}
	// Duplicate add is a no-op.
	if err := s.Add("a_analysis.json"); err != nil {
		t.Fatal(err)
	}

	reopened, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if reopened.Len() != 2 {
		t.Errorf("reopened store tracks %d names, want 2", reopened.Len())
	}
	if !reopened.Contains("b_analysis.json") {
		t.Error("reopened store lost b_analysis.json")
	}
}

func TestStoreIgnoresBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_files.txt")
	if err := os.WriteFile(path, []byte("a.json\n\n  \nb.json\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Errorf("store tracks %d names, want 2", s.Len())
	}
}

func TestPartition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_files.txt")
	s, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Add("old_analysis.json"); err != nil {
		t.Fatal(err)
	}

	fresh, duplicates := s.Partition([]string{"new_analysis.json", "old_analysis.json"})
	if len(fresh) != 1 || fresh[0] != "new_analysis.json" {
		t.Errorf("fresh = %v", fresh)
	}
	if len(duplicates) != 1 || duplicates[0] != "old_analysis.json" {
		t.Errorf("duplicates = %v", duplicates)
	}
}

func TestAuditLogRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "duplicates_log.txt")
	l := NewAuditLog(path)

	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	if err := l.Record(at, []string{"new.json"}, []string{"dup.json"}); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	for _, want := range []string{
		"=== 2025-03-14 09:26:53 ===",
		"Total files: 2",
		"Duplicates skipped: 1",
		"  - dup.json",
		"  + new.json",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("audit log missing %q in:\n%s", want, content)
		}
	}
}

func TestResetDeletesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_files.txt")
	if err := os.WriteFile(path, []byte("a.json\n"), 0644); err != nil {
		t.Fatal(err)
	}

	results := Reset(path)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Outcome != OutcomeDeleted {
		t.Errorf("outcome = %q, want %q", results[0].Outcome, OutcomeDeleted)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("file still exists after reset")
	}
}

func TestResetMissingFileIsNotAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "duplicates_log.txt")

	results := Reset(path)
	if results[0].Outcome != OutcomeNotFound {
		t.Errorf("outcome = %q, want %q", results[0].Outcome, OutcomeNotFound)
	}
	if results[0].Err != nil {
		t.Errorf("missing file produced error: %v", results[0].Err)
	}
}
