package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"coffer/internal/command"
)

func newCommandsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "commands",
		Short:       "List all wallet commands",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), commandTable(command.Builtin().Descriptors()))
			return nil
		},
	}
}

// commandTable renders the registry catalog. Every column is textual, so the
// default left alignment is all it needs.
func commandTable(descriptors []command.Descriptor) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Command", "Arguments", "Needs", "Description"})
	for _, desc := range descriptors {
		tw.AppendRow(table.Row{desc.Name, argsColumn(desc), capabilityFlags(desc), desc.Help})
	}
	return tw.Render()
}

func argsColumn(desc command.Descriptor) string {
	parts := make([]string, 0, len(desc.Positional)+len(desc.Optional))
	parts = append(parts, desc.Positional...)
	for _, name := range desc.Optional {
		parts = append(parts, "["+name+"]")
	}
	return strings.Join(parts, " ")
}

func capabilityFlags(desc command.Descriptor) string {
	var needs []string
	if desc.RequiresStore {
		needs = append(needs, "store")
	}
	if desc.RequiresNetwork {
		needs = append(needs, "network")
	}
	if desc.RequiresPassword {
		needs = append(needs, "password")
	}
	return strings.Join(needs, ",")
}
