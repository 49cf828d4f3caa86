package amber

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// Executor runs external build tools with consistent stdio wiring,
// process-group isolation and context cancellation. Everything runs as the
// invoking user; installation happens under the user's home directory.
type Executor struct {
	Context context.Context
}

func NewExecutor(ctx context.Context) *Executor {
	return &Executor{Context: ctx}
}

// Run executes cmd, isolating the child in its own process group so the
// whole tree can be killed when the context is cancelled.
func (e *Executor) Run(cmd *exec.Cmd) error {
	// Phase 0: wire up stdio
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	// Phase 1: rebuild the invocation under our context
	finalCmd := exec.CommandContext(e.Context, cmd.Path, cmd.Args[1:]...)
	if len(cmd.Env) > 0 {
		finalCmd.Env = cmd.Env
	} else {
		finalCmd.Env = os.Environ()
	}
	finalCmd.Dir = cmd.Dir
	finalCmd.Stdin = cmd.Stdin
	finalCmd.Stdout = cmd.Stdout
	finalCmd.Stderr = cmd.Stderr

	// Phase 2: isolate process-group so we can clean up on cancel
	finalCmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	// Phase 3: start, cancel watcher, wait
	if err := finalCmd.Start(); err != nil {
		return fmt.Errorf("failed to start command: %w", err)
	}
	pgid := finalCmd.Process.Pid

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-e.Context.Done():
			syscall.Kill(-pgid, syscall.SIGKILL)
		case <-done:
		}
	}()

	if waitErr := finalCmd.Wait(); waitErr != nil {
		if e.Context.Err() != nil {
			// Let the child flush before we report the abort.
			time.Sleep(100 * time.Millisecond)
			return fmt.Errorf("command aborted: %v", e.Context.Err())
		}
		return waitErr
	}
	return nil
}
