package gpio

import (
	"fmt"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// CdevOpener opens chips via the Linux GPIO character device (/dev/gpiochipN).
type CdevOpener struct{}

// NewCdevOpener returns an Opener backed by the kernel GPIO cdev interface.
func NewCdevOpener() *CdevOpener {
	return &CdevOpener{}
}

// OpenChip opens the named GPIO chip.
//
// Bare names are resolved under /dev; absolute paths are used as given.
func (CdevOpener) OpenChip(name string) (Chip, error) {
	path := name
	if !strings.HasPrefix(path, "/") {
		path = "/dev/" + path
	}

	c, err := gpiocdev.NewChip(path)
	if err != nil {
		return nil, fmt.Errorf("opening gpio chip %s: %w", name, err)
	}
	return &cdevChip{chip: c, name: name}, nil
}

type cdevChip struct {
	chip *gpiocdev.Chip
	name string
}

func (c *cdevChip) RequestOutput(offset, initial int) (Line, error) {
	l, err := c.chip.RequestLine(offset, gpiocdev.AsOutput(initial))
	if err != nil {
		return nil, fmt.Errorf("requesting line %d on %s for output: %w", offset, c.name, err)
	}
	return &cdevLine{line: l}, nil
}

func (c *cdevChip) Close() error {
	return c.chip.Close()
}

type cdevLine struct {
	line *gpiocdev.Line
}

func (l *cdevLine) SetValue(v int) error {
	return l.line.SetValue(v)
}

func (l *cdevLine) Close() error {
	return l.line.Close()
}
