package preflight

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRunFileExists(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "credentials.json")
	if err := os.WriteFile(present, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	report := Run([]Check{
		{Name: "credentials", Kind: KindFileExists, Path: present},
		{Name: "missing", Kind: KindFileExists, Path: filepath.Join(dir, "nope.json")},
	})

	if len(report) != 2 {
		t.Fatalf("expected 2 results, got %d", len(report))
	}
	if !report[0].Passed() {
		t.Errorf("existing file check failed: %v", report[0].Err)
	}
	if report[1].Passed() {
		t.Error("missing file check unexpectedly passed")
	}
	if report.OK() {
		t.Error("report with a failed check reported OK")
	}
	if got := len(report.Failed()); got != 1 {
		t.Errorf("expected 1 failed result, got %d", got)
	}
}

func TestRunFileExistsRejectsDirectory(t *testing.T) {
	dir := t.TempDir()
	report := Run([]Check{{Name: "file", Kind: KindFileExists, Path: dir}})
	if report.OK() {
		t.Error("directory passed a file-exists check")
	}
}

func TestRunDirChecks(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	if err := os.Mkdir(empty, 0755); err != nil {
		t.Fatal(err)
	}
	full := filepath.Join(dir, "full")
	if err := os.Mkdir(full, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(full, "scan.pdf"), []byte("%PDF"), 0644); err != nil {
		t.Fatal(err)
	}

	report := Run([]Check{
		{Name: "exists", Kind: KindDirExists, Path: full},
		{Name: "absent", Kind: KindDirExists, Path: filepath.Join(dir, "nope")},
		{Name: "not-empty", Kind: KindDirNotEmpty, Path: full},
		{Name: "is-empty", Kind: KindDirNotEmpty, Path: empty},
	})

	want := []bool{true, false, true, false}
	for i, passed := range want {
		if report[i].Passed() != passed {
			t.Errorf("check %q: passed = %v, want %v (err: %v)",
				report[i].Check.Name, report[i].Passed(), passed, report[i].Err)
		}
	}
}

func TestRunDirWritableCleansUp(t *testing.T) {
	target := filepath.Join(t.TempDir(), "input")
	if err := os.Mkdir(target, 0755); err != nil {
		t.Fatal(err)
	}

	report := Run([]Check{{Name: "writable", Kind: KindDirWritable, Path: target}})
	if !report.OK() {
		t.Fatalf("writable check failed: %v", report.Failed()[0].Err)
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %v", entries[0].Name())
	}
}

func TestRunDirWritableDoesNotCreateMissingDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "input")

	report := Run([]Check{{Name: "writable", Kind: KindDirWritable, Path: target}})
	if report.OK() {
		t.Fatal("writable check passed for a missing directory")
	}
	// The check only probes; a missing directory stays missing.
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Errorf("check created the missing directory: %v", err)
	}
}

func TestRunEnvSet(t *testing.T) {
	t.Setenv("DOCFLOW_TEST_CRED_B", "set")

	report := Run([]Check{
		{Name: "either", Kind: KindEnvSet, Vars: []string{"DOCFLOW_TEST_CRED_A", "DOCFLOW_TEST_CRED_B"}},
		{Name: "neither", Kind: KindEnvSet, Vars: []string{"DOCFLOW_TEST_CRED_X"}},
	})

	if !report[0].Passed() {
		t.Errorf("env check with one var set failed: %v", report[0].Err)
	}
	if report[1].Passed() {
		t.Error("env check with no vars set unexpectedly passed")
	}
}
