// Package process provides the spawn/terminate/wait primitives the action
// supervisor is built on.
//
// Children run in their own process group and are reaped by an internal
// goroutine, so waits are observational and can be bounded: wait with a
// deadline, escalate to Kill, wait again.
package process
