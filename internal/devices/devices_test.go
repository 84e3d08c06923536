package devices_test

import (
	"context"
	"errors"
	"testing"

	"coffer/internal/devices"
	"coffer/internal/faults"
	"coffer/internal/logging"
)

type fakeSession struct{ id string }

func (s *fakeSession) DeriveCredential(context.Context) ([]byte, error) {
	return []byte("cred-" + s.id), nil
}

func (s *fakeSession) Close() error { return nil }

type fakePlugin struct {
	name    string
	infos   []devices.Info
	listErr error
}

func (p *fakePlugin) Name() string { return p.name }

func (p *fakePlugin) Devices(context.Context) ([]devices.Info, error) {
	return p.infos, p.listErr
}

func (p *fakePlugin) OpenSession(_ context.Context, device devices.Info) (devices.Session, error) {
	return &fakeSession{id: device.ID}, nil
}

func TestListSkipsFailingPlugins(t *testing.T) {
	registry := devices.NewRegistry(logging.NewNop(),
		&fakePlugin{name: "broken", listErr: errors.New("usb exploded")},
		&fakePlugin{name: "ok", infos: []devices.Info{{ID: "a", Label: "Key A"}}},
	)

	pairable := registry.ListPairableDevices(context.Background())
	if len(pairable) != 1 {
		t.Fatalf("expected 1 device, got %d", len(pairable))
	}
	if pairable[0].Device.ID != "a" {
		t.Fatalf("device = %+v", pairable[0].Device)
	}
}

func TestOpenFirstNoDevices(t *testing.T) {
	registry := devices.NewRegistry(logging.NewNop(), &fakePlugin{name: "empty"})
	_, _, err := registry.OpenFirst(context.Background())
	if !faults.Is(err, faults.CodeNoDeviceFound) {
		t.Fatalf("expected no device fault, got %v", err)
	}
}

func TestOpenFirstPicksFirstOfMany(t *testing.T) {
	registry := devices.NewRegistry(logging.NewNop(),
		&fakePlugin{name: "multi", infos: []devices.Info{
			{ID: "first", Label: "Key 1"},
			{ID: "second", Label: "Key 2"},
		}},
	)

	session, device, err := registry.OpenFirst(context.Background())
	if err != nil {
		t.Fatalf("OpenFirst: %v", err)
	}
	defer session.Close()
	if device.ID != "first" {
		t.Fatalf("device = %+v, want the first enumerated", device)
	}
	cred, err := session.DeriveCredential(context.Background())
	if err != nil || string(cred) != "cred-first" {
		t.Fatalf("credential = %q, %v", cred, err)
	}
}
