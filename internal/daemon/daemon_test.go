package daemon_test

import (
	"context"
	"testing"
	"time"

	"coffer/internal/command"
	"coffer/internal/config"
	"coffer/internal/daemon"
	"coffer/internal/faults"
	"coffer/internal/logging"
	"coffer/internal/testsupport"
)

func newDaemon(t *testing.T, cfg *config.Config, opts ...daemon.Option) *daemon.Daemon {
	t.Helper()
	d, err := daemon.New(cfg, logging.NewNop(), command.Builtin(), opts...)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d
}

type stubNetwork struct {
	lastTx string
}

func (n *stubNetwork) Broadcast(_ context.Context, rawTx string) (string, error) {
	n.lastTx = rawTx
	return "txid-stub", nil
}

func TestStartClaimsRoot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := newDaemon(t, cfg)
	if err := d.Start(ctx, cancel, "token-a"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Close()

	if !d.Running() {
		t.Fatal("daemon should be running")
	}
	if d.Token() != "token-a" {
		t.Fatalf("token = %q", d.Token())
	}

	other := newDaemon(t, cfg)
	err := other.Start(ctx, cancel, "token-b")
	if !faults.Is(err, faults.CodeAlreadyRunning) {
		t.Fatalf("expected already running signal, got %v", err)
	}
}

func TestStartRequiresToken(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := newDaemon(t, cfg)
	if err := d.Start(ctx, cancel, "  "); err == nil {
		t.Fatal("expected error for blank token")
	}
}

func TestPublishExposesHandle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := newDaemon(t, cfg)
	if err := d.Start(ctx, cancel, "token-a"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Close()

	if err := d.Publish(cfg.SocketPath()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}

func TestExecuteVersion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)

	result, err := d.Execute(context.Background(),
		&command.Request{Command: "version", Args: []any{}}, "", "")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result != command.Version {
		t.Fatalf("result = %v", result)
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)

	_, err := d.Execute(context.Background(),
		&command.Request{Command: "frobnicate", Args: []any{}}, "", "")
	if !faults.Is(err, faults.CodeUnknownCommand) {
		t.Fatalf("expected unknown command fault, got %v", err)
	}
}

func TestExecuteCreateAndUseWallet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)
	ctx := context.Background()

	if _, err := d.Execute(ctx,
		&command.Request{Command: "create", Args: []any{}}, "", "s3cret"); err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := d.Execute(ctx,
		&command.Request{Command: "getbalance", Args: []any{}}, "", "s3cret")
	if err != nil {
		t.Fatalf("getbalance: %v", err)
	}
	balance, ok := result.(map[string]any)
	if !ok || balance["confirmed_sats"] != int64(0) {
		t.Fatalf("balance = %#v", result)
	}

	_, err = d.Execute(ctx,
		&command.Request{Command: "getbalance", Args: []any{}}, "", "wrong")
	if !faults.Is(err, faults.CodeInvalidPassword) {
		t.Fatalf("expected invalid password fault, got %v", err)
	}
}

func TestExecuteRequiresStorePathBeforeStoreIO(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWalletPath(""))
	d := newDaemon(t, cfg)

	_, err := d.Execute(context.Background(),
		&command.Request{Command: "getbalance", Args: []any{}}, "", "")
	if !faults.Is(err, faults.CodeNoStorePath) {
		t.Fatalf("expected no store path fault, got %v", err)
	}
}

func TestExecuteConfiguredPasswordFallback(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPassword("from-config"))
	d := newDaemon(t, cfg)
	ctx := context.Background()

	if _, err := d.Execute(ctx,
		&command.Request{Command: "create", Args: []any{}}, "", "from-config"); err != nil {
		t.Fatalf("create: %v", err)
	}

	// No request password: the daemon falls back to the configured one.
	if _, err := d.Execute(ctx,
		&command.Request{Command: "listaddresses", Args: []any{}}, "", ""); err != nil {
		t.Fatalf("listaddresses with configured password: %v", err)
	}
}

func TestCreateUsesConfiguredPassword(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPassword("from-config"))
	d := newDaemon(t, cfg)
	ctx := context.Background()

	// create carries no request password; the configured one encrypts the
	// new store just as it would on the offline path.
	result, err := d.Execute(ctx,
		&command.Request{Command: "create", Args: []any{}}, "", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	summary, ok := result.(map[string]any)
	if !ok || summary["encrypted"] != true {
		t.Fatalf("create result = %#v", result)
	}

	if _, err := d.Execute(ctx,
		&command.Request{Command: "getbalance", Args: []any{}}, "", "wrong"); !faults.Is(err, faults.CodeInvalidPassword) {
		t.Fatalf("expected invalid password fault, got %v", err)
	}
	if _, err := d.Execute(ctx,
		&command.Request{Command: "getbalance", Args: []any{}}, "", "from-config"); err != nil {
		t.Fatalf("getbalance with configured password: %v", err)
	}
}

func TestExecuteStoreNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)

	_, err := d.Execute(context.Background(),
		&command.Request{Command: "getbalance", Args: []any{}}, "", "")
	if !faults.Is(err, faults.CodeStoreNotFound) {
		t.Fatalf("expected store not found fault, got %v", err)
	}
}

func TestExecuteNetworkGate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)

	_, err := d.Execute(context.Background(),
		&command.Request{Command: "broadcast", Args: []any{"02000000aa"}}, "", "")
	if !faults.Is(err, faults.CodeOfflineNetworkRequired) {
		t.Fatalf("expected network gate fault, got %v", err)
	}

	network := &stubNetwork{}
	connected := newDaemon(t, cfg, daemon.WithNetwork(network))
	result, err := connected.Execute(context.Background(),
		&command.Request{Command: "broadcast", Args: []any{"02000000aa"}}, "", "")
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if result != "txid-stub" || network.lastTx != "02000000aa" {
		t.Fatalf("result = %v, lastTx = %q", result, network.lastTx)
	}
}

func TestExecuteArityFault(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)

	_, err := d.Execute(context.Background(),
		&command.Request{Command: "setlabel", Args: []any{"only-one"}}, "", "")
	if !faults.Is(err, faults.CodeBadArguments) {
		t.Fatalf("expected bad arguments fault, got %v", err)
	}
}

func TestExecuteRecoversPanic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	registry, err := command.NewRegistry(command.Registration{
		Descriptor: command.Descriptor{Name: "explode"},
		Handler: func(context.Context, *command.Env, *command.Request) (any, error) {
			panic("kaboom")
		},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	d, err := daemon.New(cfg, logging.NewNop(), registry)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	_, err = d.Execute(context.Background(),
		&command.Request{Command: "explode", Args: []any{}}, "", "")
	fault, ok := faults.As(err)
	if !ok || fault.Kind != faults.KindInternal {
		t.Fatalf("expected internal fault, got %v", err)
	}
	if _, ok := fault.Data["traceback"]; !ok {
		t.Fatal("expected traceback diagnostics")
	}
}

func TestStopCommandRequestsShutdown(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stopped := make(chan struct{})
	d := newDaemon(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx, func() { close(stopped) }, "token"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Close()

	result, err := d.Execute(ctx,
		&command.Request{Command: "stop", Args: []any{}}, "", "")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if result != "Daemon stopped" {
		t.Fatalf("result = %v", result)
	}

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop request never reached the cancel func")
	}
}

func TestInfoContents(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	d := newDaemon(t, cfg)

	info := d.Info(context.Background())
	if info["version"] != command.Version {
		t.Fatalf("version = %v", info["version"])
	}
	if info["wallet_exists"] != false {
		t.Fatalf("wallet_exists = %v", info["wallet_exists"])
	}
	if info["connected"] != false {
		t.Fatalf("connected = %v", info["connected"])
	}
}
