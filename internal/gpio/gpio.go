package gpio

// Opener opens GPIO chips by name.
//
// The production implementation sits on the Linux GPIO character device
// (see cdev.go); MemOpener provides an in-memory implementation for tests.
type Opener interface {
	// OpenChip opens the chip identified by name. The name may be a
	// device name ("gpiochip0") or a full path ("/dev/gpiochip0").
	OpenChip(name string) (Chip, error)
}

// Chip is an open GPIO chip from which output lines can be requested.
type Chip interface {
	// RequestOutput requests the line at offset for output direction,
	// driven to initial. The line is held until Close is called on it.
	RequestOutput(offset, initial int) (Line, error)

	// Close releases the chip handle. Lines requested from the chip must
	// be closed first.
	Close() error
}

// Line is a requested output line.
type Line interface {
	// SetValue drives the line to v (0 or 1).
	SetValue(v int) error

	// Close releases the line. Must be called exactly once.
	Close() error
}
