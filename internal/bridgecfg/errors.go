package bridgecfg

import (
	"errors"
	"fmt"
)

// Sentinel errors for bridge file parsing.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrMissingBroker is returned when the file contains no MQTT record.
	ErrMissingBroker = errors.New("bridgecfg: missing MQTT record")

	// ErrDuplicateBroker is returned when the file contains more than one
	// MQTT record.
	ErrDuplicateBroker = errors.New("bridgecfg: duplicate MQTT record")

	// ErrDuplicateID is returned when two GPIO records or two CMD records
	// share an id.
	ErrDuplicateID = errors.New("bridgecfg: duplicate id")
)

// ParseError describes a malformed bridge file line.
// All parse errors are fatal to startup.
type ParseError struct {
	// Line is the 1-based line number in the bridge file.
	Line int

	// Msg describes what was wrong with the line.
	Msg string

	// Err is an optional underlying error (sentinel or conversion failure).
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bridge config line %d: %s: %v", e.Line, e.Msg, e.Err)
	}
	return fmt.Sprintf("bridge config line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// parseErrorf builds a ParseError for the given line.
func parseErrorf(line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
}
