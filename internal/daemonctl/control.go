// Package daemonctl orchestrates daemon lifecycle from the foreground
// process: detached launch, the bounded readiness poll, command dispatch
// against the resolved endpoint, and stop handling including stale lock
// cleanup.
package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/google/uuid"

	"coffer/internal/config"
	"coffer/internal/faults"
	"coffer/internal/ipc"
	"coffer/internal/lockfile"
)

// EnvToken carries the pre-generated access token from the parent to the
// detached daemon. Generating it before the spawn means the two processes can
// never disagree about credentials.
const EnvToken = "COFFER_DAEMON_TOKEN"

const pollInterval = 200 * time.Millisecond

// Spawn launches a detached daemon process running `<executable> daemon`.
// The spawn is one-shot: a failure here is fatal and not retried.
func Spawn(executable, configPath, token string) error {
	if strings.TrimSpace(executable) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon"}
	if cfg := strings.TrimSpace(configPath); cfg != "" {
		args = append(args, "--config", cfg)
	}

	proc := exec.Command(executable, args...)
	proc.Env = append(os.Environ(), EnvToken+"="+token)
	proc.Stdin = nil
	proc.Stdout = nil
	proc.Stderr = nil
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitUntilReady polls the lock handle until the daemon publishes readiness.
// On timeout the child is left running; it may legitimately take longer and
// stays discoverable afterward.
func WaitUntilReady(root string, timeout time.Duration) (*lockfile.Handle, error) {
	manager := lockfile.New(root)
	deadline := time.Now().Add(timeout)
	for {
		handle, err := manager.Probe()
		if err != nil {
			return nil, err
		}
		if handle != nil && handle.Ready {
			return handle, nil
		}
		if time.Now().After(deadline) {
			return nil, faults.Timeout(timeout)
		}
		time.Sleep(pollInterval)
	}
}

// StartDetached spawns a daemon for the configuration root and waits for
// readiness. A live daemon yields AlreadyRunning without a second spawn.
func StartDetached(cfg *config.Config, configPath string) (*lockfile.Handle, error) {
	manager := lockfile.New(cfg.Paths.DataDir)
	if handle, err := manager.Probe(); err != nil {
		return nil, err
	} else if handle != nil {
		return nil, faults.AlreadyRunning(handle.Endpoint)
	}

	executable, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}

	token := uuid.NewString()
	if err := Spawn(executable, configPath, token); err != nil {
		return nil, err
	}
	return WaitUntilReady(cfg.Paths.DataDir, cfg.ReadyTimeout())
}

// Send is the dispatch client: it resolves the daemon endpoint through the
// lock handle, submits the request, and awaits the response envelope. A
// missing or stale handle is DaemonNotRunning so callers can suggest starting
// one or falling back to offline mode.
func Send(cfg *config.Config, req ipc.RunRequest, timeout time.Duration) (*ipc.RunResponse, error) {
	manager := lockfile.New(cfg.Paths.DataDir)
	handle, err := manager.Probe()
	if err != nil {
		return nil, err
	}
	if handle == nil {
		return nil, faults.DaemonNotRunning()
	}

	client, err := ipc.Dial(handle.Endpoint, handle.Token)
	if err != nil {
		return nil, faults.DaemonNotRunning()
	}
	defer client.Close()

	return client.Run(req, timeout)
}

// Status fetches runtime information from a live daemon.
func Status(cfg *config.Config) (*ipc.StatusResponse, error) {
	manager := lockfile.New(cfg.Paths.DataDir)
	handle, err := manager.Probe()
	if err != nil {
		return nil, err
	}
	if handle == nil {
		return nil, faults.DaemonNotRunning()
	}
	client, err := ipc.Dial(handle.Endpoint, handle.Token)
	if err != nil {
		return nil, faults.DaemonNotRunning()
	}
	defer client.Close()
	return client.Status()
}

// StopResult reports how a stop request concluded.
type StopResult struct {
	WasRunning   bool
	RemovedStale bool
}

// Stop asks the daemon to shut down and waits for its handle to disappear.
// An unreachable daemon with a leftover handle gets the handle removed so the
// next start is clean.
func Stop(cfg *config.Config, grace time.Duration) (StopResult, error) {
	manager := lockfile.New(cfg.Paths.DataDir)
	handle, err := manager.Probe()
	if err != nil {
		return StopResult{}, err
	}
	if handle == nil {
		removed := removeStale(manager)
		return StopResult{RemovedStale: removed}, nil
	}

	client, err := ipc.Dial(handle.Endpoint, handle.Token)
	if err != nil {
		// Owner alive but endpoint gone: treat the handle as stale.
		removed := removeStale(manager)
		return StopResult{RemovedStale: removed}, nil
	}
	resp, err := client.Run(ipc.RunRequest{Command: "stop", Args: []any{}}, grace)
	_ = client.Close()
	if err != nil {
		return StopResult{WasRunning: true}, err
	}
	if resp.Error != nil {
		return StopResult{WasRunning: true}, resp.Error.Fault()
	}

	if err := waitForShutdown(manager, grace); err != nil {
		return StopResult{WasRunning: true}, err
	}
	return StopResult{WasRunning: true}, nil
}

func removeStale(manager *lockfile.Manager) bool {
	removed, err := manager.RemoveStaleHandle()
	return err == nil && removed
}

func waitForShutdown(manager *lockfile.Manager, grace time.Duration) error {
	deadline := time.Now().Add(grace)
	for {
		handle, err := manager.Probe()
		if err != nil {
			return err
		}
		if handle == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.New("daemon acknowledged stop but is still running")
		}
		time.Sleep(pollInterval)
	}
}
