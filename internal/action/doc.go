// Package action holds the registry of configured process actions and the
// supervisor that drives their spawn/stop state machine.
//
// An action is either idle or running one tracked child. Asserting an idle
// action spawns its executable; asserting a running one is a logged no-op;
// deasserting sends SIGTERM with a bounded reap. Oneshot actions are
// awaited in-line and are idle again by the time Apply returns.
package action
