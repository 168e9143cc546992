package tracking

import "os"

// ResetOutcome describes what happened to one tracking file during a reset.
type ResetOutcome string

const (
	// OutcomeDeleted means the file existed and was removed.
	OutcomeDeleted ResetOutcome = "deleted"
	// OutcomeNotFound means the file was already absent; not an error.
	OutcomeNotFound ResetOutcome = "not found"
	// OutcomeError means the file exists but could not be removed.
	OutcomeError ResetOutcome = "error"
)

// ResetResult is the per-file outcome of a reset.
type ResetResult struct {
	Path    string
	Outcome ResetOutcome
	Err     error
}

// Reset removes the given tracking files. A missing file is reported as
// OutcomeNotFound rather than an error; the next upload run recreates the
// store from scratch.
func Reset(paths ...string) []ResetResult {
	results := make([]ResetResult, 0, len(paths))
	for _, path := range paths {
		switch err := os.Remove(path); {
		case err == nil:
			results = append(results, ResetResult{Path: path, Outcome: OutcomeDeleted})
		case os.IsNotExist(err):
			results = append(results, ResetResult{Path: path, Outcome: OutcomeNotFound})
		default:
			results = append(results, ResetResult{Path: path, Outcome: OutcomeError, Err: err})
		}
	}
	return results
}
