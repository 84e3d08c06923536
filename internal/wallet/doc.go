// Package wallet implements the persisted data store commands operate on.
//
// The command-dispatch core only depends on the narrow surface here: Exists,
// encryption flags, CheckPassword, Save, and the handful of read/write
// operations command bodies use. Persistence is a SQLite file per wallet with
// a metadata table (encryption flags, password verifier) and an address table.
// Passwords are NFKD-normalized before hashing so the same passphrase typed on
// different platforms verifies identically.
package wallet
