package gpio

import (
	"fmt"
	"sync"
)

// MemOpener is an in-memory Opener used by tests.
//
// It records every requested line and every value written, and can be
// primed to fail chip opens, line requests, or writes.
type MemOpener struct {
	mu sync.Mutex

	// OpenErrs maps chip names to errors returned from OpenChip.
	OpenErrs map[string]error

	// RequestErr, if set, is returned from every RequestOutput.
	RequestErr error

	// SetErr, if set, is returned from every SetValue.
	SetErr error

	chips map[string]*MemChip
}

// NewMemOpener returns an empty in-memory opener.
func NewMemOpener() *MemOpener {
	return &MemOpener{
		OpenErrs: make(map[string]error),
		chips:    make(map[string]*MemChip),
	}
}

// OpenChip implements Opener. Opening the same name twice returns distinct
// handles over shared line state, mirroring the kernel device.
func (o *MemOpener) OpenChip(name string) (Chip, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.OpenErrs[name]; err != nil {
		return nil, err
	}

	chip, ok := o.chips[name]
	if !ok {
		chip = &MemChip{
			opener: o,
			Name:   name,
			lines:  make(map[int]*MemLine),
		}
		o.chips[name] = chip
	}
	return chip, nil
}

// Chip returns the chip state for name, or nil if it was never opened.
func (o *MemOpener) Chip(name string) *MemChip {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.chips[name]
}

// Value returns the last value written to the given chip/offset and whether
// the line was ever requested.
func (o *MemOpener) Value(chip string, offset int) (int, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	c := o.chips[chip]
	if c == nil {
		return 0, false
	}
	l, ok := c.lines[offset]
	if !ok {
		return 0, false
	}
	return l.value, true
}

// MemChip is the in-memory chip state behind MemOpener.
type MemChip struct {
	opener *MemOpener
	Name   string
	lines  map[int]*MemLine
	closed bool
}

func (c *MemChip) RequestOutput(offset, initial int) (Line, error) {
	c.opener.mu.Lock()
	defer c.opener.mu.Unlock()

	if err := c.opener.RequestErr; err != nil {
		return nil, err
	}
	if _, busy := c.lines[offset]; busy {
		return nil, fmt.Errorf("line %d on %s already requested", offset, c.Name)
	}

	l := &MemLine{chip: c, Offset: offset, value: initial}
	c.lines[offset] = l
	return l, nil
}

func (c *MemChip) Close() error {
	c.opener.mu.Lock()
	defer c.opener.mu.Unlock()
	c.closed = true
	return nil
}

// MemLine is the in-memory line state behind MemChip.
type MemLine struct {
	chip   *MemChip
	Offset int
	value  int
	closed bool

	// Writes counts SetValue calls, including failed ones.
	Writes int
}

func (l *MemLine) SetValue(v int) error {
	l.chip.opener.mu.Lock()
	defer l.chip.opener.mu.Unlock()

	l.Writes++
	if err := l.chip.opener.SetErr; err != nil {
		return err
	}
	if l.closed {
		return fmt.Errorf("line %d on %s is closed", l.Offset, l.chip.Name)
	}
	l.value = v
	return nil
}

func (l *MemLine) Close() error {
	l.chip.opener.mu.Lock()
	defer l.chip.opener.mu.Unlock()

	if l.closed {
		return fmt.Errorf("line %d on %s closed twice", l.Offset, l.chip.Name)
	}
	l.closed = true
	delete(l.chip.lines, l.Offset)
	return nil
}
