package action

import (
	"time"

	"github.com/nerrad567/gray-switch/internal/process"
)

// Transition reports a run-state change for journaling/telemetry.
type Transition struct {
	ActionID string
	State    State

	// PID is the child pid for transitions to StateRunning, zero otherwise.
	PID int

	// ExitCode is the child's exit code for transitions to StateIdle that
	// followed a reap. -1 when unknown (abandoned after SIGKILL timeout).
	ExitCode int
}

// Supervisor owns the per-action spawn/stop state machine.
//
// Assert spawns an idle action's executable (oneshot actions are reaped
// in-line before Apply returns); Deassert stops a running one with SIGTERM.
// Every wait is bounded by the graceful timeout and escalates to SIGKILL,
// so a child that ignores signals cannot stall message handling forever.
//
// Message handling is strictly sequential, so Apply never races with
// itself; the registry mutex covers the one other writer, the exit monitor
// goroutine that reaps long-running children ending on their own.
type Supervisor struct {
	registry        *Registry
	gracefulTimeout time.Duration
	logger          Logger

	// onTransition, when set, is invoked for every run-state change.
	// It is called outside the registry lock.
	onTransition func(Transition)
}

// NewSupervisor creates a supervisor over the given registry.
func NewSupervisor(registry *Registry, gracefulTimeout time.Duration) *Supervisor {
	if gracefulTimeout <= 0 {
		gracefulTimeout = 10 * time.Second
	}
	return &Supervisor{
		registry:        registry,
		gracefulTimeout: gracefulTimeout,
		logger:          noopLogger{},
	}
}

// SetLogger sets the logger for the supervisor.
func (s *Supervisor) SetLogger(logger Logger) {
	s.logger = logger
}

// SetOnTransition registers a callback for run-state changes.
func (s *Supervisor) SetOnTransition(callback func(Transition)) {
	s.onTransition = callback
}

// Apply drives the entry towards the asserted or deasserted state.
//
// All failure modes are recoverable: they are logged and absorbed so the
// router can continue with its remaining targets.
func (s *Supervisor) Apply(e *Entry, assert bool) {
	if assert {
		s.start(e)
		return
	}
	s.stop(e)
}

// start spawns the action if it is idle and valid.
func (s *Supervisor) start(e *Entry) {
	if !e.Valid {
		s.logger.Warn("ignoring start for invalid action", "id", e.ID, "path", e.Path)
		return
	}

	s.registry.mu.Lock()
	if e.state == StateRunning {
		s.registry.mu.Unlock()
		s.logger.Info("action already running", "id", e.ID, "pid", e.pid)
		return
	}

	handle, err := process.Spawn(e.Path)
	if err != nil {
		s.registry.mu.Unlock()
		s.logger.Error("spawning action failed", "id", e.ID, "path", e.Path, "error", err)
		return
	}

	e.state = StateRunning
	e.pid = handle.PID()
	e.handle = handle
	s.registry.mu.Unlock()

	s.logger.Info("action started", "id", e.ID, "pid", handle.PID(), "oneshot", e.Oneshot)
	s.emit(Transition{ActionID: e.ID, State: StateRunning, PID: handle.PID()})

	if e.Oneshot {
		// Fire-and-reap: the completion is awaited in-line, bounded, so
		// the action is idle again before Apply returns.
		exitCode := s.reap(e, handle)
		s.finish(e, handle, exitCode, "oneshot action finished")
		return
	}

	// Long-running children are reaped by a monitor so a self-exit
	// returns the action to idle without waiting for the next message.
	go s.monitor(e, handle)
}

// stop terminates the action's child if one is running.
func (s *Supervisor) stop(e *Entry) {
	s.registry.mu.Lock()
	if e.state != StateRunning || e.handle == nil {
		s.registry.mu.Unlock()
		s.logger.Debug("action not running, nothing to stop", "id", e.ID)
		return
	}
	handle := e.handle
	s.registry.mu.Unlock()

	s.logger.Info("stopping action", "id", e.ID, "pid", handle.PID())
	if err := handle.Terminate(); err != nil {
		s.logger.Warn("sending SIGTERM failed", "id", e.ID, "error", err)
	}

	exitCode := s.reap(e, handle)
	s.finish(e, handle, exitCode, "action stopped")
}

// reap waits for the child with the graceful timeout, escalating to
// SIGKILL if it does not exit in time. Returns the exit code, or -1 if the
// child could not be reaped even after SIGKILL.
func (s *Supervisor) reap(e *Entry, handle *process.Handle) int {
	oc := handle.Wait(s.gracefulTimeout)
	if oc.TimedOut {
		s.logger.Warn("action did not exit in time, sending SIGKILL",
			"id", e.ID,
			"pid", handle.PID(),
			"timeout", s.gracefulTimeout,
		)
		if err := handle.Kill(); err != nil {
			s.logger.Error("sending SIGKILL failed", "id", e.ID, "error", err)
		}
		oc = handle.Wait(s.gracefulTimeout)
		if oc.TimedOut {
			s.logger.Error("action unkillable, abandoning", "id", e.ID, "pid", handle.PID())
			return -1
		}
	}
	if oc.Err != nil {
		s.logger.Warn("waiting on action", "id", e.ID, "error", oc.Err)
		return -1
	}
	return oc.ExitCode
}

// monitor reaps a long-running child that exits on its own.
func (s *Supervisor) monitor(e *Entry, handle *process.Handle) {
	<-handle.Done()
	oc := handle.Wait(0)
	s.finish(e, handle, oc.ExitCode, "action exited")
}

// finish transitions the entry back to idle, if this handle still owns it.
// Both the stop path and the exit monitor funnel through here; whichever
// arrives second finds the handle cleared and does nothing.
func (s *Supervisor) finish(e *Entry, handle *process.Handle, exitCode int, msg string) {
	s.registry.mu.Lock()
	if e.handle != handle {
		s.registry.mu.Unlock()
		return
	}
	e.state = StateIdle
	e.pid = 0
	e.handle = nil
	s.registry.mu.Unlock()

	s.logger.Info(msg, "id", e.ID, "pid", handle.PID(), "exit_code", exitCode)
	s.emit(Transition{ActionID: e.ID, State: StateIdle, ExitCode: exitCode})
}

// emit invokes the transition callback if one is registered.
func (s *Supervisor) emit(t Transition) {
	if s.onTransition != nil {
		s.onTransition(t)
	}
}
