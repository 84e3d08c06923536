package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"coffer/internal/daemonctl"
	"coffer/internal/daemonrun"
	"coffer/internal/faults"
)

const stopGrace = 5 * time.Second

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	var detach bool
	var logLevel string
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the coffer daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			if !detach {
				return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
					LogLevel:   logLevel,
					Foreground: true,
				})
			}

			// Detached start: exit 0 only once the child publishes readiness.
			// A live daemon elsewhere or a poll timeout is a start failure.
			handle, err := daemonctl.StartDetached(cfg, ctx.configPath)
			if err != nil {
				if faults.Is(err, faults.CodeAlreadyRunning) {
					return fmt.Errorf("daemon already running at %s", daemonEndpoint(err))
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Daemon started (pid %d)\n", handle.PID)
			return nil
		},
	}
	daemonCmd.Flags().BoolVarP(&detach, "detach", "d", false, "Fork the daemon into the background")
	daemonCmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the coffer daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.Stop(cfg, stopGrace)
			if err != nil {
				return err
			}
			switch {
			case result.WasRunning:
				fmt.Fprintln(stdout, "Daemon stopped")
			case result.RemovedStale:
				fmt.Fprintln(stdout, "Daemon not running; removed stale lock artifact")
			default:
				fmt.Fprintln(stdout, "Daemon not running")
			}
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			status, err := daemonctl.Status(cfg)
			if err != nil {
				if faults.Is(err, faults.CodeDaemonNotRunning) {
					fmt.Fprintln(cmd.OutOrStdout(), "Daemon not running")
					return nil
				}
				return err
			}
			return writeJSON(cmd, status)
		},
	}

	return []*cobra.Command{daemonCmd, stopCmd, statusCmd}
}

func daemonEndpoint(err error) string {
	fault, ok := faults.As(err)
	if !ok {
		return "unknown endpoint"
	}
	if endpoint, ok := fault.Data["endpoint"].(string); ok && endpoint != "" {
		return endpoint
	}
	return "unknown endpoint"
}
