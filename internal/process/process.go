package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// Outcome describes the result of waiting on a spawned child.
type Outcome struct {
	// Exited is true when the child has been reaped.
	Exited bool

	// ExitCode is the child's exit code, valid when Exited is true.
	// Killed children report the shell convention (128+signal).
	ExitCode int

	// TimedOut is true when the wait deadline passed with the child
	// still running. The child has not been reaped.
	TimedOut bool

	// Err holds a wait failure unrelated to the child's exit status.
	Err error
}

// Handle tracks one spawned child process.
//
// The child is reaped by an internal goroutine; Wait only observes the
// result, so it is safe to call Wait repeatedly (before and after an
// escalation to Kill).
type Handle struct {
	cmd  *exec.Cmd
	path string
	pid  int

	done chan struct{}

	mu      sync.Mutex
	waitErr error
}

// Spawn starts path as a child process with no arguments, inheriting the
// parent environment.
//
// The child is placed in its own process group so Terminate and Kill reach
// any processes it forks.
func Spawn(path string) (*Handle, error) {
	cmd := exec.Command(path)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("spawning %s: %w", path, err)
	}

	h := &Handle{
		cmd:  cmd,
		path: path,
		pid:  cmd.Process.Pid,
		done: make(chan struct{}),
	}

	go func() {
		err := cmd.Wait()
		h.mu.Lock()
		h.waitErr = err
		h.mu.Unlock()
		close(h.done)
	}()

	return h, nil
}

// PID returns the child's process id.
func (h *Handle) PID() int {
	return h.pid
}

// Path returns the executable path the child was spawned from.
func (h *Handle) Path() string {
	return h.path
}

// Terminate sends SIGTERM to the child's process group.
// A child that already exited is not an error.
func (h *Handle) Terminate() error {
	if err := syscall.Kill(-h.pid, syscall.SIGTERM); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return nil
		}
		return fmt.Errorf("terminating %s (pid %d): %w", h.path, h.pid, err)
	}
	return nil
}

// Kill sends SIGKILL to the child's process group.
// A child that already exited is not an error.
func (h *Handle) Kill() error {
	if err := syscall.Kill(-h.pid, syscall.SIGKILL); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return nil
		}
		return fmt.Errorf("killing %s (pid %d): %w", h.path, h.pid, err)
	}
	return nil
}

// Wait blocks until the child is reaped or the timeout passes.
// A timeout of zero or less waits indefinitely.
func (h *Handle) Wait(timeout time.Duration) Outcome {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case <-h.done:
		return h.outcome()
	case <-deadline:
		return Outcome{TimedOut: true}
	}
}

// Done returns a channel closed once the child has been reaped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// outcome translates the stored wait error into an Outcome.
func (h *Handle) outcome() Outcome {
	h.mu.Lock()
	defer h.mu.Unlock()

	oc := Outcome{Exited: true}
	if h.waitErr == nil {
		return oc
	}

	var exitErr *exec.ExitError
	if errors.As(h.waitErr, &exitErr) {
		oc.ExitCode = exitErr.ExitCode()
		return oc
	}

	oc.Err = h.waitErr
	return oc
}

// CheckExecutable reports whether path names a regular file that others may
// execute. Actions failing this check are retained in the registry but
// never spawned.
func CheckExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("checking %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}
	if info.Mode().Perm()&0o001 == 0 {
		return fmt.Errorf("%s is not other-executable", path)
	}
	return nil
}
