package routing

// Command is the decoded intent of a message payload.
type Command int

const (
	// CommandUnrecognized means the payload was neither "ON" nor "OFF".
	// The message is logged and dropped; no targets are touched.
	CommandUnrecognized Command = iota

	// CommandAssert drives outputs high and starts actions.
	CommandAssert

	// CommandDeassert drives outputs low and stops actions.
	CommandDeassert
)

// String returns the command name for logging.
func (c Command) String() string {
	switch c {
	case CommandAssert:
		return "assert"
	case CommandDeassert:
		return "deassert"
	default:
		return "unrecognized"
	}
}

// DecodePayload maps a message payload to a Command.
//
// Equality is exact over the full payload bytes: "ON" asserts, "OFF"
// deasserts, anything else (including "ONLINE" or same-length garbage) is
// unrecognised. Earlier implementations used a length-bounded compare that
// misclassified such payloads; that behaviour is a closed defect.
func DecodePayload(payload []byte) Command {
	switch string(payload) {
	case "ON":
		return CommandAssert
	case "OFF":
		return CommandDeassert
	default:
		return CommandUnrecognized
	}
}
