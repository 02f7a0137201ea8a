package bridgecfg

// Broker identifies the MQTT broker from the bridge file's MQTT record.
type Broker struct {
	Host string
	Port int
}

// Output describes one configured digital output (a GPIO record).
type Output struct {
	// ID is the symbolic name subscriptions link against.
	ID string

	// Chip identifies the GPIO character device (name, label, or path).
	Chip string

	// Pin is the line offset on the chip.
	Pin int
}

// Action describes one configured process action (a CMD record).
type Action struct {
	// ID is the symbolic name subscriptions link against.
	ID string

	// Path is the executable to run, with no arguments.
	Path string

	// Oneshot marks the action as fire-and-reap: the spawn is awaited
	// in-line and the action returns to idle immediately.
	Oneshot bool
}

// Subscription describes one SUB record linking a topic to outputs/actions.
type Subscription struct {
	// Topic is the pattern the message topic is matched against.
	// Matching is by prefix, not MQTT wildcards.
	Topic string

	// LinkID is matched against both Output and Action ids.
	LinkID string

	// QoS is the requested MQTT QoS (0-2).
	QoS int

	// Invert flips the decoded payload value for this subscription.
	Invert bool
}

// Table is the parsed bridge file: the broker plus the three config tables.
// It is immutable after Parse returns.
type Table struct {
	Broker        Broker
	Outputs       []Output
	Actions       []Action
	Subscriptions []Subscription

	// Warnings are non-fatal oddities found while parsing, such as an
	// unrecognised trailing token. The caller is expected to log them.
	Warnings []string
}
