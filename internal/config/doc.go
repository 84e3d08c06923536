// Package config loads, normalizes, and validates coffer configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML files. The Config type centralizes every knob the
// daemon and CLI need: the data directory acting as the configuration root,
// the wallet path, the configured password, daemon timeouts, and log settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized absolute paths and clear validation errors.
package config
