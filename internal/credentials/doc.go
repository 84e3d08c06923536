// Package credentials obtains the secret that unlocks an encrypted wallet.
//
// Resolution order: a hardware device session when the wallet is
// device-bound, then the configured password, then an interactive prompt.
// Secrets live in locked memory buffers for the duration of one command
// execution and are destroyed afterwards; they are never persisted.
package credentials
