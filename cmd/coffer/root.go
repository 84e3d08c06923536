package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var walletFlag string
	var passwordFlag string
	var offlineFlag bool

	ctx := newCommandContext(&configFlag, &walletFlag, &passwordFlag, &offlineFlag)

	rootCmd := &cobra.Command{
		Use:           "coffer",
		Short:         "Coffer wallet CLI",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&walletFlag, "wallet", "w", "", "Wallet store path")
	rootCmd.PersistentFlags().StringVar(&passwordFlag, "password", "", "Wallet password")
	rootCmd.PersistentFlags().BoolVarP(&offlineFlag, "offline", "o", false, "Run the command in this process without the daemon")

	for _, cmd := range newDaemonCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range newWalletCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(newCommandsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
