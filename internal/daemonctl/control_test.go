package daemonctl_test

import (
	"context"
	"testing"
	"time"

	"coffer/internal/command"
	"coffer/internal/daemon"
	"coffer/internal/daemonctl"
	"coffer/internal/faults"
	"coffer/internal/ipc"
	"coffer/internal/logging"
	"coffer/internal/testsupport"
)

func TestSendWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := daemonctl.Send(cfg, ipc.RunRequest{Command: "version", Args: []any{}}, time.Second)
	if !faults.Is(err, faults.CodeDaemonNotRunning) {
		t.Fatalf("expected daemon not running fault, got %v", err)
	}
}

func TestWaitUntilReadyTimesOut(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := daemonctl.WaitUntilReady(cfg.Paths.DataDir, 0)
	if !faults.Is(err, faults.CodeTimeout) {
		t.Fatalf("expected timeout fault, got %v", err)
	}
}

func TestStopWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	result, err := daemonctl.Stop(cfg, time.Second)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if result.WasRunning || result.RemovedStale {
		t.Fatalf("result = %+v", result)
	}
}

func TestSendReachesInProcessDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	d, err := daemon.New(cfg, logging.NewNop(), command.Builtin())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx, cancel, "tok"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	srv, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logging.NewNop())
	if err != nil {
		t.Skipf("skipping socket test: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	if err := d.Publish(cfg.SocketPath()); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	// Send discovers the endpoint and token through the lock handle.
	resp, err := daemonctl.Send(cfg, ipc.RunRequest{Command: "version", Args: []any{}}, 5*time.Second)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if resp.Error != nil || resp.Result != command.Version {
		t.Fatalf("resp = %+v", resp)
	}

	status, err := daemonctl.Status(cfg)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running {
		t.Fatal("expected running daemon")
	}

	handle, err := daemonctl.WaitUntilReady(cfg.Paths.DataDir, time.Second)
	if err != nil {
		t.Fatalf("WaitUntilReady: %v", err)
	}
	if handle.Token != "tok" {
		t.Fatalf("handle token = %q", handle.Token)
	}
}
