// Package command is the static catalog of wallet commands.
//
// Each command registers a descriptor (positional and optional parameters,
// capability flags) and a strongly typed handler. The registry is built once
// at process start and validated at registration time, so unknown commands
// fail before any handler lookup. Argument decoding follows the wallet CLI
// convention: string arguments are JSON-decoded unless the command is on the
// raw-string denylist, and values that fail to parse as JSON pass through as
// plain strings.
package command
