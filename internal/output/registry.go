package output

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nerrad567/gray-switch/internal/bridgecfg"
	"github.com/nerrad567/gray-switch/internal/gpio"
)

// Logger defines the logging interface used by the Registry.
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

// Entry is one configured digital output and its acquired line.
//
// The line handle is owned exclusively by the entry and released exactly
// once, either during a failed acquisition pass or at shutdown.
type Entry struct {
	ID       string
	ChipName string
	Pin      int

	chip gpio.Chip
	line gpio.Line
}

// Registry holds every configured digital output.
//
// Lines are acquired for output direction up front via AcquireAll, before
// any value is ever set. Failure to acquire any one output is fatal to
// startup: the bridge must not come up half-wired.
type Registry struct {
	opener  gpio.Opener
	entries []*Entry
	logger  Logger

	mu       sync.Mutex
	acquired bool
	released bool
}

// NewRegistry creates a registry from the bridge file's GPIO records.
// No hardware is touched until AcquireAll is called.
func NewRegistry(opener gpio.Opener, outputs []bridgecfg.Output) *Registry {
	entries := make([]*Entry, 0, len(outputs))
	for _, o := range outputs {
		entries = append(entries, &Entry{
			ID:       o.ID,
			ChipName: o.Chip,
			Pin:      o.Pin,
		})
	}
	return &Registry{
		opener:  opener,
		entries: entries,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// AcquireAll opens every configured chip and requests every configured line
// for output direction, driven low initially.
//
// On any failure the lines acquired so far are released (in reverse order)
// and the error is returned; the caller is expected to abort startup.
func (r *Registry) AcquireAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.acquired {
		return fmt.Errorf("outputs already acquired")
	}

	for i, e := range r.entries {
		chip, err := r.opener.OpenChip(e.ChipName)
		if err != nil {
			r.releaseLocked(i)
			return fmt.Errorf("output %s: %w", e.ID, err)
		}

		line, err := chip.RequestOutput(e.Pin, 0)
		if err != nil {
			chip.Close()
			r.releaseLocked(i)
			return fmt.Errorf("output %s: %w", e.ID, err)
		}

		e.chip = chip
		e.line = line
		r.logger.Debug("output line acquired",
			"id", e.ID,
			"chip", e.ChipName,
			"pin", e.Pin,
		)
	}

	r.acquired = true
	r.logger.Info("output lines acquired", "count", len(r.entries))
	return nil
}

// Drive sets the entry's line to value (0 or 1).
//
// A write failure is a recoverable runtime error: the caller logs it and
// carries on with the remaining targets.
func (r *Registry) Drive(e *Entry, value int) error {
	if e.line == nil {
		return fmt.Errorf("output %s: line not acquired", e.ID)
	}
	if err := e.line.SetValue(value); err != nil {
		return fmt.Errorf("output %s: setting chip %s pin %d to %d: %w",
			e.ID, e.ChipName, e.Pin, value, err)
	}
	return nil
}

// ReleaseAll releases every acquired line and chip in reverse acquisition
// order. Safe to call more than once; only the first call releases.
func (r *Registry) ReleaseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.released {
		return
	}
	r.released = true
	r.releaseLocked(len(r.entries))
}

// releaseLocked releases the first n entries, newest first.
func (r *Registry) releaseLocked(n int) {
	for i := n - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.line != nil {
			if err := e.line.Close(); err != nil {
				r.logger.Warn("releasing output line", "id", e.ID, "error", err)
			}
			e.line = nil
		}
		if e.chip != nil {
			if err := e.chip.Close(); err != nil {
				r.logger.Warn("closing gpio chip", "id", e.ID, "error", err)
			}
			e.chip = nil
		}
	}
}

// Entries returns the configured outputs in declaration order.
func (r *Registry) Entries() []*Entry {
	return r.entries
}

// Count returns the number of configured outputs.
func (r *Registry) Count() int {
	return len(r.entries)
}

// MatchPrefix returns every entry whose id equals the link id or is
// extended by it: a link id "X" matches output ids "X" and "XY" but not
// "Y". Short link ids are greedy; ambiguity is reported at config load.
func (r *Registry) MatchPrefix(linkID string) []*Entry {
	var matched []*Entry
	for _, e := range r.entries {
		if strings.HasPrefix(e.ID, linkID) {
			matched = append(matched, e)
		}
	}
	return matched
}
