package offline_test

import (
	"context"
	"testing"

	"coffer/internal/command"
	"coffer/internal/faults"
	"coffer/internal/logging"
	"coffer/internal/offline"
	"coffer/internal/testsupport"
)

func TestExecuteVersionWithoutStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	executor := offline.New(cfg, logging.NewNop(), command.Builtin())

	result, err := executor.Execute(context.Background(),
		&command.Request{Command: "version", Args: []any{}}, "", "")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result != command.Version {
		t.Fatalf("result = %v", result)
	}
}

func TestExecuteRefusesNetworkCommands(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	executor := offline.New(cfg, logging.NewNop(), command.Builtin())

	_, err := executor.Execute(context.Background(),
		&command.Request{Command: "broadcast", Args: []any{"02000000aa"}}, "", "")
	if !faults.Is(err, faults.CodeOfflineNetworkRequired) {
		t.Fatalf("expected offline network fault, got %v", err)
	}
}

func TestExecuteMissingStore(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	executor := offline.New(cfg, logging.NewNop(), command.Builtin())

	_, err := executor.Execute(context.Background(),
		&command.Request{Command: "getbalance", Args: []any{}}, "", "")
	if !faults.Is(err, faults.CodeStoreNotFound) {
		t.Fatalf("expected store not found fault, got %v", err)
	}
}

func TestExecuteWithoutAnyStorePath(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithWalletPath(""))
	executor := offline.New(cfg, logging.NewNop(), command.Builtin())

	_, err := executor.Execute(context.Background(),
		&command.Request{Command: "listaddresses", Args: []any{}}, "", "")
	if !faults.Is(err, faults.CodeNoStorePath) {
		t.Fatalf("expected no store path fault, got %v", err)
	}
}

func TestExecuteCreateThenOperate(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithPassword("pw"))
	executor := offline.New(cfg, logging.NewNop(), command.Builtin())
	ctx := context.Background()

	created, err := executor.Execute(ctx,
		&command.Request{Command: "create", Args: []any{}}, "", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	summary, ok := created.(map[string]any)
	if !ok || summary["encrypted"] != true {
		t.Fatalf("create result = %#v", created)
	}

	addr, err := executor.Execute(ctx,
		&command.Request{Command: "getunusedaddress", Args: []any{}}, "", "")
	if err != nil {
		t.Fatalf("getunusedaddress: %v", err)
	}
	address, ok := addr.(string)
	if !ok || len(address) != 24 {
		t.Fatalf("address = %#v", addr)
	}

	if _, err := executor.Execute(ctx,
		&command.Request{Command: "setlabel", Args: []any{address, "cold storage"}}, "", ""); err != nil {
		t.Fatalf("setlabel: %v", err)
	}
	label, err := executor.Execute(ctx,
		&command.Request{Command: "getlabel", Args: []any{address}}, "", "")
	if err != nil || label != "cold storage" {
		t.Fatalf("getlabel = %v, %v", label, err)
	}
}

func TestExecuteWrongPasswordLeavesStoreUsable(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	executor := offline.New(cfg, logging.NewNop(), command.Builtin())
	ctx := context.Background()

	if _, err := executor.Execute(ctx,
		&command.Request{Command: "create", Args: []any{}}, "", "right"); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := executor.Execute(ctx,
		&command.Request{Command: "getbalance", Args: []any{}}, "", "wrong")
	if !faults.Is(err, faults.CodeInvalidPassword) {
		t.Fatalf("expected invalid password fault, got %v", err)
	}

	// The store still opens with the correct credential.
	if _, err := executor.Execute(ctx,
		&command.Request{Command: "getbalance", Args: []any{}}, "", "right"); err != nil {
		t.Fatalf("getbalance after failed attempt: %v", err)
	}
}

func TestGetInfoReportsOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	executor := offline.New(cfg, logging.NewNop(), command.Builtin())

	result, err := executor.Execute(context.Background(),
		&command.Request{Command: "getinfo", Args: []any{}}, "", "")
	if err != nil {
		t.Fatalf("getinfo: %v", err)
	}
	info, ok := result.(map[string]any)
	if !ok {
		t.Fatalf("getinfo result = %#v", result)
	}
	if info["offline"] != true || info["connected"] != false {
		t.Fatalf("info = %#v", info)
	}
}

func TestStopHasNoDaemonToStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	executor := offline.New(cfg, logging.NewNop(), command.Builtin())

	_, err := executor.Execute(context.Background(),
		&command.Request{Command: "stop", Args: []any{}}, "", "")
	if !faults.Is(err, faults.CodeDaemonNotRunning) {
		t.Fatalf("expected daemon not running fault, got %v", err)
	}
}
