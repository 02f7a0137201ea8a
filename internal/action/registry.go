package action

import (
	"strings"
	"sync"

	"github.com/nerrad567/gray-switch/internal/bridgecfg"
	"github.com/nerrad567/gray-switch/internal/process"
)

// State is the run-state of an action entry.
type State string

const (
	// StateIdle means no child process is running for the action.
	StateIdle State = "idle"

	// StateRunning means a child process is live and tracked.
	StateRunning State = "running"
)

// Logger defines the logging interface used by the registry and supervisor.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Entry is one configured process action.
//
// Valid is computed once at startup; an invalid entry is retained so
// subscriptions still resolve against it, but the supervisor never spawns
// it. Run-state is mutated only by the Supervisor.
type Entry struct {
	ID      string
	Path    string
	Oneshot bool
	Valid   bool

	state  State
	pid    int
	handle *process.Handle
}

// Registry holds every configured process action.
//
// The entry list is immutable after construction; run-state mutation is
// serialised by the registry mutex shared with the Supervisor.
type Registry struct {
	entries []*Entry
	logger  Logger

	mu sync.Mutex
}

// NewRegistry creates a registry from the bridge file's CMD records.
// Entries start idle; validity is established by CheckExecutables.
func NewRegistry(actions []bridgecfg.Action) *Registry {
	entries := make([]*Entry, 0, len(actions))
	for _, a := range actions {
		entries = append(entries, &Entry{
			ID:      a.ID,
			Path:    a.Path,
			Oneshot: a.Oneshot,
			state:   StateIdle,
		})
	}
	return &Registry{
		entries: entries,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// CheckExecutables establishes each entry's validity, once, at startup.
//
// An action whose path is not a regular other-executable file is kept in
// the table (so link resolution still works) but marked invalid; the
// supervisor ignores commands for it with a log line.
func (r *Registry) CheckExecutables() {
	for _, e := range r.entries {
		if err := process.CheckExecutable(e.Path); err != nil {
			e.Valid = false
			r.logger.Warn("action executable invalid, commands will be ignored",
				"id", e.ID,
				"path", e.Path,
				"error", err,
			)
			continue
		}
		e.Valid = true
	}
}

// Entries returns the configured actions in declaration order.
func (r *Registry) Entries() []*Entry {
	return r.entries
}

// Count returns the number of configured actions.
func (r *Registry) Count() int {
	return len(r.entries)
}

// MatchPrefix returns every entry whose id equals the link id or begins
// with it, mirroring output.Registry.MatchPrefix.
func (r *Registry) MatchPrefix(linkID string) []*Entry {
	var matched []*Entry
	for _, e := range r.entries {
		if strings.HasPrefix(e.ID, linkID) {
			matched = append(matched, e)
		}
	}
	return matched
}

// StateOf returns the entry's current run-state and tracked pid.
func (r *Registry) StateOf(e *Entry) (State, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return e.state, e.pid
}
