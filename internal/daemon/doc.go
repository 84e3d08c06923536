// Package daemon coordinates the long-running coffer process.
//
// It owns the single-instance claim on the configuration root, executes
// dispatched commands against wallets it opens on demand, and serializes
// commands that touch the same wallet without blocking unrelated requests.
// Faults raised inside a command are caught here and converted into response
// envelopes; nothing a command does may crash the daemon.
package daemon
