// Package output holds the registry of configured digital outputs.
//
// Each entry owns one acquired GPIO line. Acquisition is all-or-nothing at
// startup and release happens exactly once, in reverse acquisition order,
// at shutdown.
package output
