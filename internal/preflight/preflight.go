// Package preflight validates that a stage's prerequisites are in place before
// the stage does any work. Checks are evaluated without short-circuiting so the
// operator sees every missing prerequisite at once, and each check carries a
// suggested remedy.
//
// Checks are read-only with one exception: the dir-writable probe creates and
// removes a temporary file in the target directory.
package preflight

import (
	"fmt"
	"os"
	"path/filepath"
)

// Kind identifies what a check verifies.
type Kind string

const (
	KindFileExists  Kind = "file-exists"
	KindDirExists   Kind = "dir-exists"
	KindDirNotEmpty Kind = "dir-not-empty"
	KindDirWritable Kind = "dir-writable"
	KindEnvSet      Kind = "env-set"
)

// Check is a single named prerequisite.
type Check struct {
	Name   string
	Kind   Kind
	Path   string   // filesystem path, for the path kinds
	Vars   []string // environment variables, any one suffices, for KindEnvSet
	Remedy string   // operator-facing suggestion shown when the check fails
}

// Result pairs a check with its outcome.
type Result struct {
	Check Check
	Err   error
}

// Passed reports whether the check succeeded.
func (r Result) Passed() bool { return r.Err == nil }

// Report is the ordered outcome of running a stage's checks.
type Report []Result

// OK reports whether every check passed.
func (rs Report) OK() bool { return len(rs.Failed()) == 0 }

// Failed returns the results for checks that did not pass.
func (rs Report) Failed() []Result {
	var failed []Result
	for _, r := range rs {
		if !r.Passed() {
			failed = append(failed, r)
		}
	}
	return failed
}

// Run evaluates all checks and returns the full report.
func Run(checks []Check) Report {
	report := make(Report, 0, len(checks))
	for _, c := range checks {
		report = append(report, Result{Check: c, Err: evaluate(c)})
	}
	return report
}

func evaluate(c Check) error {
	switch c.Kind {
	case KindFileExists:
		info, err := os.Stat(c.Path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("file %s does not exist", c.Path)
			}
			return fmt.Errorf("cannot stat %s: %w", c.Path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory, expected a file", c.Path)
		}
		return nil

	case KindDirExists:
		return checkDir(c.Path)

	case KindDirNotEmpty:
		if err := checkDir(c.Path); err != nil {
			return err
		}
		entries, err := os.ReadDir(c.Path)
		if err != nil {
			return fmt.Errorf("cannot read directory %s: %w", c.Path, err)
		}
		if len(entries) == 0 {
			return fmt.Errorf("directory %s is empty", c.Path)
		}
		return nil

	case KindDirWritable:
		if err := checkDir(c.Path); err != nil {
			return err
		}
		probe := filepath.Join(c.Path, ".docflow-writetest.tmp")
		f, err := os.Create(probe)
		if err != nil {
			return fmt.Errorf("directory %s is not writable: %w", c.Path, err)
		}
		f.Close()
		_ = os.Remove(probe)
		return nil

	case KindEnvSet:
		for _, v := range c.Vars {
			if os.Getenv(v) != "" {
				return nil
			}
		}
		if len(c.Vars) == 1 {
			return fmt.Errorf("environment variable %s is not set", c.Vars[0])
		}
		return fmt.Errorf("none of the environment variables %v are set", c.Vars)

	default:
		return fmt.Errorf("unknown check kind %q", c.Kind)
	}
}

func checkDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory %s does not exist", path)
		}
		return fmt.Errorf("cannot stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
