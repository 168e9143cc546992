// Package hook runs the external commands configured around a pipeline stage.
//
// A hook is a single blocking invocation through the shell: no retries, no
// output parsing. The child's exit code and captured output are returned as a
// structured result so the caller can branch on success or failure and surface
// the exit code to the operator verbatim.
package hook

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"docflow/internal/logger"
)

// LikelyCauses is shown when a hook command fails. The pipeline does not
// diagnose hook failures beyond the exit code; this list covers the usual
// suspects.
var LikelyCauses = []string{
	"the command is not installed or not on PATH",
	"the command was run from an unexpected working directory",
	"a file or folder the command needs does not exist",
	"the command's own configuration or credentials are missing",
}

// Result is the structured outcome of one hook invocation.
type Result struct {
	Command  string
	ExitCode int
	Output   string // combined stdout and stderr
	Err      error  // nil when the command exited 0
}

// Succeeded reports whether the command ran and exited 0.
func (r Result) Succeeded() bool { return r.Err == nil }

// Executor runs hook commands.
type Executor struct {
	// commandContext allows substituting os/exec in tests.
	commandContext func(ctx context.Context, name string, arg ...string) *exec.Cmd
	log            zerolog.Logger
}

// NewExecutor returns an Executor backed by os/exec.
func NewExecutor() *Executor {
	return NewExecutorWithCommandContext(exec.CommandContext)
}

// NewExecutorWithCommandContext returns an Executor with an explicit command
// factory, for testing.
func NewExecutorWithCommandContext(commandContext func(ctx context.Context, name string, arg ...string) *exec.Cmd) *Executor {
	return &Executor{
		commandContext: commandContext,
		log:            logger.WithComponent("hook"),
	}
}

// Run executes one command through the shell and waits for it to finish.
func (e *Executor) Run(ctx context.Context, command string) Result {
	result := Result{Command: command}

	cmd := e.createCommand(ctx, command)
	output, err := cmd.CombinedOutput()
	result.Output = strings.TrimRight(string(output), "\n")

	if err != nil {
		if ctx.Err() != nil {
			result.Err = ctx.Err()
			result.ExitCode = -1
			return result
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = -1
		}
		result.Err = err
		return result
	}

	return result
}

// RunAll executes commands in order, stopping at the first failure. The failed
// result is returned alongside the error so the caller can report the exit
// code.
func (e *Executor) RunAll(ctx context.Context, stage string, commands []string) (Result, error) {
	for _, command := range commands {
		select {
		case <-ctx.Done():
			return Result{Command: command, ExitCode: -1, Err: ctx.Err()}, ctx.Err()
		default:
		}

		e.log.Info().Str("stage", stage).Str("command", command).Msg("Running hook command")

		result := e.Run(ctx, command)
		if !result.Succeeded() {
			e.log.Error().
				Str("stage", stage).
				Str("command", command).
				Int("exit_code", result.ExitCode).
				Msg("Hook command failed")
			return result, result.Err
		}

		e.log.Debug().
			Str("stage", stage).
			Str("command", command).
			Msg("Hook command completed")
	}
	return Result{}, nil
}
