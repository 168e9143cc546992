//go:build !windows

package hook

import (
	"context"
	"os/exec"

	"golang.org/x/sys/unix"
)

// createCommand builds the shell invocation for a hook on Unix-like systems.
func (e *Executor) createCommand(ctx context.Context, command string) *exec.Cmd {
	cmd := e.commandContext(ctx, "/bin/sh", "-c", command)
	// Run the hook in its own process group so context cancellation can take
	// down any children the command spawned, not just the shell.
	cmd.SysProcAttr = &unix.SysProcAttr{Setpgid: true}
	return cmd
}
