// Package gpio is the thin boundary to the kernel's GPIO character device.
//
// The Opener/Chip/Line interfaces are what the output registry consumes;
// the production implementation wraps go-gpiocdev, and MemOpener provides
// a recording in-memory implementation for tests.
package gpio
