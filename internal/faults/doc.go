// Package faults defines the error taxonomy shared by the CLI, the offline
// executor, and the daemon boundary.
//
// Three kinds exist: control signals (already running, cancelled) that are
// expected outcomes rather than failures, user-facing faults carrying a short
// actionable message, and internal faults carrying a diagnostic payload kept
// separate from the message. Faults convert losslessly to and from the wire
// form used in response envelopes so the dispatch client can re-raise them by
// category.
package faults
