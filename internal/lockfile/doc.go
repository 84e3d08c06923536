// Package lockfile enforces the single-daemon-per-configuration-root
// invariant.
//
// A flock-backed lock file under the data directory decides ownership; a JSON
// handle file next to it records the owner's pid, IPC endpoint, and access
// token so foreground invocations can discover a running daemon without
// network probing. A handle whose owner process is gone is treated as absent
// and reclaimed on the next claim.
package lockfile
