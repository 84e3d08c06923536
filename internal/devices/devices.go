package devices

import (
	"context"
	"log/slog"

	"coffer/internal/faults"
	"coffer/internal/logging"
)

// Info identifies one connected hardware device.
type Info struct {
	ID    string
	Label string
	Path  string
}

// Session is an open exchange with one device, able to derive a wallet
// credential. Close always releases the device.
type Session interface {
	// DeriveCredential produces the wallet credential. A cancelled context
	// yields the Cancelled control signal, not an error dump.
	DeriveCredential(ctx context.Context) ([]byte, error)
	Close() error
}

// Plugin enumerates one family of hardware devices.
type Plugin interface {
	Name() string
	Devices(ctx context.Context) ([]Info, error)
	OpenSession(ctx context.Context, device Info) (Session, error)
}

// Pairable couples a device with the plugin that found it.
type Pairable struct {
	Plugin Plugin
	Device Info
}

// Registry holds the registered device plugins.
type Registry struct {
	plugins []Plugin
	logger  *slog.Logger
}

// NewRegistry builds a registry over the given plugins.
func NewRegistry(logger *slog.Logger, plugins ...Plugin) *Registry {
	return &Registry{
		plugins: plugins,
		logger:  logging.NewComponentLogger(logger, "devices"),
	}
}

// ListPairableDevices enumerates every connected device across all plugins.
// A plugin that fails to enumerate is skipped with a warning; the remaining
// plugins still contribute.
func (r *Registry) ListPairableDevices(ctx context.Context) []Pairable {
	var out []Pairable
	for _, plugin := range r.plugins {
		infos, err := plugin.Devices(ctx)
		if err != nil {
			r.logger.Warn("device enumeration failed",
				logging.String("plugin", plugin.Name()),
				logging.Error(err))
			continue
		}
		for _, info := range infos {
			out = append(out, Pairable{Plugin: plugin, Device: info})
		}
	}
	return out
}

// OpenFirst opens a session on the first enumerated device. Zero devices is
// the NoDeviceFound fault; more than one logs a warning and proceeds with the
// first, which is documented nondeterminism.
func (r *Registry) OpenFirst(ctx context.Context) (Session, Info, error) {
	pairable := r.ListPairableDevices(ctx)
	if len(pairable) == 0 {
		return nil, Info{}, faults.NoDeviceFound()
	}
	if len(pairable) > 1 {
		r.logger.Warn("multiple hardware devices detected, using first",
			logging.Int("count", len(pairable)),
			logging.String("plugin", pairable[0].Plugin.Name()),
			logging.String("device", pairable[0].Device.Label))
	}
	chosen := pairable[0]
	session, err := chosen.Plugin.OpenSession(ctx, chosen.Device)
	if err != nil {
		return nil, Info{}, err
	}
	return session, chosen.Device, nil
}
