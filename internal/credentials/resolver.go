package credentials

import (
	"bytes"
	"context"
	"log/slog"

	"golang.org/x/text/unicode/norm"

	"coffer/internal/devices"
	"coffer/internal/faults"
	"coffer/internal/logging"
)

// StoreInfo is the slice of the wallet surface the resolver needs.
type StoreInfo interface {
	IsEncrypted() bool
	IsEncryptedByDevice() bool
}

// Options controls one resolution.
type Options struct {
	// Interactive permits prompting when no password is configured.
	Interactive bool
	// ConfiguredPassword is the password from config or flags. Empty string
	// means none was configured.
	ConfiguredPassword string
	// Confirm prompts twice, for setting a new password. The two entries
	// must match exactly or resolution fails with PasswordMismatch.
	Confirm bool
}

// Resolver obtains wallet credentials per the documented order.
type Resolver struct {
	registry *devices.Registry
	reader   PasswordReader
	logger   *slog.Logger
}

// NewResolver builds a resolver. A nil reader falls back to the terminal.
func NewResolver(registry *devices.Registry, reader PasswordReader, logger *slog.Logger) *Resolver {
	if reader == nil {
		reader = TerminalReader{}
	}
	return &Resolver{
		registry: registry,
		reader:   reader,
		logger:   logging.NewComponentLogger(logger, "credentials"),
	}
}

// Resolve produces the credential for one command execution. The caller owns
// the returned secret and must Destroy it. A nil secret with nil error means
// no password applies.
func (r *Resolver) Resolve(ctx context.Context, store StoreInfo, opts Options) (*Secret, error) {
	if store != nil && store.IsEncrypted() && store.IsEncryptedByDevice() {
		return r.resolveFromDevice(ctx)
	}

	if opts.ConfiguredPassword != "" {
		return NewSecretFromString(opts.ConfiguredPassword), nil
	}

	if !opts.Interactive {
		return nil, nil
	}

	if opts.Confirm {
		first, err := r.reader.ReadPassword("Password: ")
		if err != nil {
			return nil, err
		}
		second, err := r.reader.ReadPassword("Confirm password: ")
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(first, second) {
			return nil, faults.PasswordMismatch()
		}
		return NewSecret(norm.NFKD.Bytes(first)), nil
	}

	typed, err := r.reader.ReadPassword("Password: ")
	if err != nil {
		return nil, err
	}
	return NewSecret(norm.NFKD.Bytes(typed)), nil
}

func (r *Resolver) resolveFromDevice(ctx context.Context) (*Secret, error) {
	if r.registry == nil {
		return nil, faults.NoDeviceFound()
	}
	session, device, err := r.registry.OpenFirst(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	r.logger.Debug("deriving credential from device",
		logging.String("device", device.Label))
	derived, err := session.DeriveCredential(ctx)
	if err != nil {
		return nil, err
	}
	return NewSecret(derived), nil
}
