// Package daemonrun hosts the daemon runtime loop shared by `coffer daemon`
// and the standalone cofferd binary.
package daemonrun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"coffer/internal/command"
	"coffer/internal/config"
	"coffer/internal/daemon"
	"coffer/internal/daemonctl"
	"coffer/internal/faults"
	"coffer/internal/ipc"
	"coffer/internal/logging"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
	// Foreground mirrors log output to stdout in addition to the log file.
	Foreground bool
}

// Run starts the coffer daemon runtime loop and blocks until a stop request
// or termination signal arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("prepare directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("cofferd-%s.log", runID))
	outputs := []string{logPath}
	errOutputs := []string{logPath}
	if opts.Foreground {
		outputs = append([]string{"stdout"}, outputs...)
		errOutputs = append([]string{"stderr"}, errOutputs...)
	}

	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      outputs,
		ErrorOutputPaths: errOutputs,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update cofferd.log link: %v\n", err)
	}

	// The access token normally arrives from the process that spawned us; a
	// daemon started by hand mints its own.
	token := strings.TrimSpace(os.Getenv(daemonctl.EnvToken))
	if token == "" {
		token = uuid.NewString()
	}

	d, err := daemon.New(cfg, logger, command.Builtin())
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}

	if err := d.Start(signalCtx, cancel, token); err != nil {
		if fault, ok := faults.As(err); ok && fault.Code == faults.CodeAlreadyRunning {
			logger.Warn("another daemon owns this data directory",
				logging.String(logging.FieldEventType, "daemon_conflict"))
		}
		return err
	}
	defer d.Close()

	socketPath := cfg.SocketPath()
	ipcServer, err := ipc.NewServer(signalCtx, socketPath, d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	// Readiness is published only after the socket is accepting connections;
	// the parent's poll keys off this marker.
	if err := d.Publish(socketPath); err != nil {
		return fmt.Errorf("publish daemon handle: %w", err)
	}

	<-signalCtx.Done()
	logger.Info("coffer daemon shutting down",
		logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "cofferd.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}
