// Package main hosts the coffer CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC calls
// against the daemon, falls back to in-process execution when no daemon is
// reachable, and handles daemon lifecycle, configuration scaffolding, and
// command listing. It centralizes configuration resolution and credential
// flag plumbing so subcommands stay declarative.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
