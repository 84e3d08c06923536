// Package ipc exposes the daemon over JSON-RPC Unix sockets and ships the
// matching client used by the CLI.
//
// It owns socket lifecycle management and the request/response envelopes.
// Command faults never surface as RPC transport errors: the server folds them
// into the response envelope so the connection stays healthy and the client
// can re-raise them by category. The client decorates calls with a deadline
// so dispatches against a wedged daemon fail with Timeout instead of hanging.
package ipc
