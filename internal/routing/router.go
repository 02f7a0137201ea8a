package routing

import (
	"sync"

	"github.com/nerrad567/gray-switch/internal/action"
	"github.com/nerrad567/gray-switch/internal/output"
)

// Logger defines the logging interface used by the Router.
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

// Router resolves inbound messages to their output/action targets and
// drives them.
//
// It owns no entities: it borrows the registries for the duration of one
// Handle invocation. Handling is strictly serialised; the MQTT client
// delivers messages on library goroutines, so the router's mutex restores
// the one-at-a-time ordering the state machine relies on.
type Router struct {
	bindings   []Binding
	outputs    *output.Registry
	supervisor *action.Supervisor
	logger     Logger

	mu sync.Mutex

	// onCommand, when set, observes every decoded command before routing.
	onCommand func(topic string, cmd Command)

	// onOutput, when set, observes every successful output write.
	onOutput func(e *output.Entry, value int)
}

// NewRouter creates a router over pre-resolved bindings.
func NewRouter(bindings []Binding, outputs *output.Registry, supervisor *action.Supervisor) *Router {
	return &Router{
		bindings:   bindings,
		outputs:    outputs,
		supervisor: supervisor,
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the router.
func (r *Router) SetLogger(logger Logger) {
	r.logger = logger
}

// SetOnCommand registers an observer for decoded commands.
func (r *Router) SetOnCommand(callback func(topic string, cmd Command)) {
	r.onCommand = callback
}

// SetOnOutput registers an observer for successful output writes.
func (r *Router) SetOnOutput(callback func(e *output.Entry, value int)) {
	r.onOutput = callback
}

// Bindings returns the resolved subscription bindings in table order.
func (r *Router) Bindings() []Binding {
	return r.bindings
}

// Handle routes one inbound message.
//
// The payload is decoded once; unrecognised payloads are logged and
// dropped with no side effects. Every binding whose pattern matches the
// topic is processed in table order, outputs before actions within each
// binding. A failed GPIO write or spawn never aborts the remaining
// targets; all failures here are recoverable and absorbed.
//
// Handle always returns nil: errors are logged in place because partial
// processing is never retried.
func (r *Router) Handle(topic string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cmd := DecodePayload(payload)
	if cmd == CommandUnrecognized {
		r.logger.Warn("unhandled payload, dropping message",
			"topic", topic,
			"payload", string(payload),
		)
		return nil
	}

	if r.onCommand != nil {
		r.onCommand(topic, cmd)
	}

	matched := 0
	for i := range r.bindings {
		b := &r.bindings[i]
		if !topicMatches(topic, b.Sub.Topic) {
			continue
		}
		matched++

		assert := cmd == CommandAssert
		if b.Sub.Invert {
			assert = !assert
		}

		value := 0
		if assert {
			value = 1
		}

		for _, e := range b.Outputs {
			if err := r.outputs.Drive(e, value); err != nil {
				r.logger.Error("driving output failed", "topic", topic, "error", err)
				continue
			}
			r.logger.Debug("output driven",
				"id", e.ID,
				"chip", e.ChipName,
				"pin", e.Pin,
				"value", value,
				"inverted", b.Sub.Invert,
			)
			if r.onOutput != nil {
				r.onOutput(e, value)
			}
		}

		for _, e := range b.Actions {
			r.supervisor.Apply(e, assert)
		}
	}

	if matched == 0 {
		r.logger.Debug("no subscription matched topic", "topic", topic)
	}
	return nil
}
