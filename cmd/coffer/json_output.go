package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// printResult writes a command result to stdout. Plain strings print
// verbatim; structured results print as indented JSON.
func printResult(cmd *cobra.Command, result any) error {
	if result == nil {
		return nil
	}
	if s, ok := result.(string); ok {
		fmt.Fprintln(cmd.OutOrStdout(), s)
		return nil
	}
	return writeJSON(cmd, result)
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
