// Package pipeline drives a launcher stage through its fixed lifecycle:
// preflight checks first, then the pre hooks, the stage work itself, and the
// post hooks, with a report of what happened. A failed preflight aborts the
// stage before any work runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"docflow/internal/config"
	"docflow/internal/hook"
	"docflow/internal/logger"
	"docflow/internal/preflight"
)

// Sentinel errors for the two abort paths.
var (
	ErrPreflightFailed = errors.New("preflight checks failed")
	ErrHookFailed      = errors.New("hook command failed")
)

// Stage is one runnable launcher stage.
type Stage struct {
	Name   string
	Checks []preflight.Check
	Hooks  config.StageHooks

	// Run does the stage's actual work. It is only invoked after every
	// check and pre hook has passed.
	Run func(ctx context.Context) error
}

// Runner executes stages and reports their lifecycle to the operator.
type Runner struct {
	executor *hook.Executor
	out      io.Writer
	log      zerolog.Logger
}

// NewRunner creates a runner reporting to out.
func NewRunner(out io.Writer) *Runner {
	return &Runner{
		executor: hook.NewExecutor(),
		out:      out,
		log:      logger.WithComponent("pipeline"),
	}
}

// NewRunnerWithExecutor injects the hook executor, for tests.
func NewRunnerWithExecutor(out io.Writer, executor *hook.Executor) *Runner {
	r := NewRunner(out)
	r.executor = executor
	return r
}

// Execute runs the stage lifecycle. Preflight failures abort before any work
// and print every failed check with its remedy.
func (r *Runner) Execute(ctx context.Context, stage Stage) error {
	const op = "Execute"

	start := time.Now()
	r.log.Info().Str("stage", stage.Name).Msg("Starting stage")

	report := preflight.Run(stage.Checks)
	if !report.OK() {
		r.reportPreflight(stage.Name, report)
		return fmt.Errorf("%s: stage %s: %w", op, stage.Name, ErrPreflightFailed)
	}

	if result, err := r.executor.RunAll(ctx, stage.Name, stage.Hooks.Pre); err != nil {
		r.reportHookFailure(stage.Name, "pre", result)
		return fmt.Errorf("%s: stage %s: %w", op, stage.Name, ErrHookFailed)
	}

	if err := stage.Run(ctx); err != nil {
		fmt.Fprintf(r.out, "\n❌ Stage %s failed: %v\n", stage.Name, err)
		return fmt.Errorf("%s: stage %s: %w", op, stage.Name, err)
	}

	if result, err := r.executor.RunAll(ctx, stage.Name, stage.Hooks.Post); err != nil {
		r.reportHookFailure(stage.Name, "post", result)
		return fmt.Errorf("%s: stage %s: %w", op, stage.Name, ErrHookFailed)
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	r.log.Info().Str("stage", stage.Name).Dur("elapsed", elapsed).Msg("Stage completed")
	fmt.Fprintf(r.out, "\n✅ Stage %s completed in %v\n", stage.Name, elapsed)
	return nil
}

// reportPreflight prints every failed check with its remedy.
func (r *Runner) reportPreflight(stageName string, report preflight.Report) {
	failed := report.Failed()
	fmt.Fprintf(r.out, "\n❌ Stage %s aborted, %d of %d preflight checks failed:\n\n", stageName, len(failed), len(report))
	for _, result := range failed {
		fmt.Fprintf(r.out, "  ✗ %s: %v\n", result.Check.Name, result.Err)
		if result.Check.Remedy != "" {
			fmt.Fprintf(r.out, "    Fix: %s\n", result.Check.Remedy)
		}
	}
}

// reportHookFailure prints the failed command with its exit code and output.
func (r *Runner) reportHookFailure(stageName, phase string, result hook.Result) {
	fmt.Fprintf(r.out, "\n❌ Stage %s aborted, %s hook failed (exit code %d): %s\n", stageName, phase, result.ExitCode, result.Command)
	if output := strings.TrimSpace(result.Output); output != "" {
		fmt.Fprintf(r.out, "\nCommand output:\n%s\n", output)
	}
	fmt.Fprintln(r.out, "\nLikely causes:")
	for i, cause := range hook.LikelyCauses {
		fmt.Fprintf(r.out, "%d. %s\n", i+1, cause)
	}
}
