package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"coffer/internal/command"
	"coffer/internal/config"
	"coffer/internal/daemonctl"
	"coffer/internal/ipc"
	"coffer/internal/logging"
	"coffer/internal/offline"
)

// newWalletCommands generates one cobra command per registry entry. The stop
// command is excluded: its CLI surface does full lifecycle orchestration in
// daemon_commands.go rather than a plain dispatch.
func newWalletCommands(ctx *commandContext) []*cobra.Command {
	registry := command.Builtin()
	descriptors := registry.Descriptors()

	out := make([]*cobra.Command, 0, len(descriptors))
	for _, desc := range descriptors {
		if desc.Name == "stop" {
			continue
		}
		out = append(out, newWalletCommand(ctx, desc))
	}
	return out
}

func newWalletCommand(ctx *commandContext, desc command.Descriptor) *cobra.Command {
	return &cobra.Command{
		Use:   commandUse(desc),
		Short: desc.Help,
		Args:  cobra.RangeArgs(len(desc.Positional), len(desc.Positional)+len(desc.Optional)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWalletCommand(ctx, cmd, desc, args)
		},
	}
}

func commandUse(desc command.Descriptor) string {
	parts := []string{desc.Name}
	for _, name := range desc.Positional {
		parts = append(parts, "<"+name+">")
	}
	for _, name := range desc.Optional {
		parts = append(parts, "["+name+"]")
	}
	return strings.Join(parts, " ")
}

func runWalletCommand(ctx *commandContext, cmd *cobra.Command, desc command.Descriptor, args []string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	req := buildRequest(desc, args)

	if ctx.offline() {
		result, err := runOffline(ctx, cmd, cfg, req)
		if err != nil {
			return err
		}
		return printResult(cmd, result)
	}

	// Without --offline every command goes through the daemon; an absent
	// daemon is reported, not worked around.
	resp, err := daemonctl.Send(cfg, ipc.RunRequest{
		Command:    req.Command,
		Args:       req.Args,
		Kwargs:     req.Kwargs,
		WorkDir:    req.WorkDir,
		WalletPath: ctx.walletPath(),
		Password:   ctx.password(),
	}, cfg.DispatchTimeout())
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error.Fault()
	}
	return printResult(cmd, resp.Result)
}

func buildRequest(desc command.Descriptor, args []string) *command.Request {
	positional := args
	var extra []string
	if len(args) > len(desc.Positional) {
		positional = args[:len(desc.Positional)]
		extra = args[len(desc.Positional):]
	}

	req := &command.Request{
		Command: desc.Name,
		Args:    command.DecodeArgs(desc.Name, positional),
	}
	if wd, err := os.Getwd(); err == nil {
		req.WorkDir = wd
	}
	for i, value := range extra {
		if i >= len(desc.Optional) {
			break
		}
		if req.Kwargs == nil {
			req.Kwargs = make(map[string]any, len(extra))
		}
		req.Kwargs[desc.Optional[i]] = value
	}
	return req
}

func runOffline(ctx *commandContext, cmd *cobra.Command, cfg *config.Config, req *command.Request) (any, error) {
	logger, err := logging.New(logging.Options{
		Level:            "warn",
		Format:           "console",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	executor := offline.New(cfg, logger, command.Builtin())
	return executor.Execute(cmd.Context(), req, ctx.walletPath(), ctx.password())
}
